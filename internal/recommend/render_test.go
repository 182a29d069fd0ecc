package recommend

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/bookrec/internal/domain"
)

func TestWriteText_Empty(t *testing.T) {
	var buf bytes.Buffer
	err := WriteText(&buf, &Result{Query: "space opera", Category: "Poetry", Emotion: "All", Raw: 4})
	require.NoError(t, err)

	assert.Equal(t,
		"Raw recommendations (before filtering): 4\n"+
			"Filtered recommendations (after applying category and emotion filters): 0\n"+
			"No recommendations found for the query 'space opera' with category 'Poetry' and emotion 'All'.\n",
		buf.String())
}

func TestWriteText_Books(t *testing.T) {
	desc := strings.Repeat("word ", 40)
	res := &Result{
		Query: "q", Category: "All", Emotion: "joy", Raw: 1,
		Books: []domain.Book{{
			ISBN13:           1,
			TitleAndSubtitle: "Gilead: A Novel",
			SimpleCategory:   "Fiction",
			Description:      desc,
			Emotions:         domain.EmotionScores{domain.Joy: 0.5, domain.Fear: 0.25},
		}},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, res))
	out := buf.String()

	assert.Contains(t, out, "Title: Gilead: A Novel\n")
	assert.Contains(t, out, "Category: Fiction\n")
	assert.Contains(t, out, "Emotion Scores: joy=0.500 fear=0.250 sadness=n/a anger=n/a surprise=n/a\n")
	assert.Contains(t, out, "Description: "+strings.TrimSpace(strings.Repeat("word ", 30))+"...\n")
	assert.True(t, strings.HasSuffix(out, strings.Repeat("-", 40)+"\n"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "a b...", Truncate("a   b", 30))
	assert.Equal(t, "a b...", Truncate("a b c d", 2))
	assert.Equal(t, "...", Truncate("", 5))
}
