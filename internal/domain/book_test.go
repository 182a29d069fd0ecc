package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"

	domainerrors "github.com/listenupapp/bookrec/internal/errors"
)

func TestJoinTitle(t *testing.T) {
	assert.Equal(t, "Gilead", JoinTitle("Gilead", ""))
	assert.Equal(t, "Gilead", JoinTitle("Gilead", "   "))
	assert.Equal(t, "Spider's Web: A Novel", JoinTitle("Spider's Web", "A Novel"))
}

func TestTagDescription(t *testing.T) {
	assert.Equal(t, "9780002005883 A NOVEL THAT READERS", TagDescription(9780002005883, "A NOVEL THAT READERS"))
}

func TestBook_DisplayTitle(t *testing.T) {
	b := Book{Title: "Rage of angels", Subtitle: "Sequel"}
	assert.Equal(t, "Rage of angels: Sequel", b.DisplayTitle())

	b.TitleAndSubtitle = "Override"
	assert.Equal(t, "Override", b.DisplayTitle())
}

func TestCloneBooks_Independent(t *testing.T) {
	in := []Book{{
		ISBN13:   1,
		Emotions: EmotionScores{Joy: 0.5},
		Extra:    map[string]string{"k": "v"},
	}}

	out := CloneBooks(in)
	out[0].Emotions[Joy] = 0.9
	out[0].Extra["k"] = "changed"
	out[0].SimpleCategory = "Fiction"

	assert.InDelta(t, 0.5, in[0].Emotions[Joy], 1e-9)
	assert.Equal(t, "v", in[0].Extra["k"])
	assert.Empty(t, in[0].SimpleCategory)
}

func TestEmotionLabels_FreshSlice(t *testing.T) {
	a := EmotionLabels()
	a[0] = "mutated"
	assert.Equal(t, Anger, EmotionLabels()[0])
	assert.Len(t, EmotionLabels(), 7)
}

func TestIsEmotion(t *testing.T) {
	labels := EmotionLabels()
	assert.True(t, IsEmotion(labels, "joy"))
	assert.False(t, IsEmotion(labels, "Joy"))
	assert.False(t, IsEmotion(labels, "glee"))
}

func TestCheckUniqueISBNs(t *testing.T) {
	assert.NoError(t, CheckUniqueISBNs(nil))
	assert.NoError(t, CheckUniqueISBNs([]Book{{ISBN13: 1}, {ISBN13: 2}}))

	err := CheckUniqueISBNs([]Book{{ISBN13: 1}, {ISBN13: 2}, {ISBN13: 1}})
	assert.ErrorIs(t, err, domainerrors.ErrPrecondition)
	assert.Contains(t, err.Error(), "duplicate isbn13 1")
}
