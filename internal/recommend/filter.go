// Package recommend turns a free-text query into an ordered, filtered list of books.
package recommend

import (
	"strings"

	"github.com/listenupapp/bookrec/internal/domain"
	domainerrors "github.com/listenupapp/bookrec/internal/errors"
)

// Filter keeps books matching an optional category substring and an optional positive emotion.
type Filter struct {
	category string
	emotion  domain.Emotion
}

// NewFilter builds a filter. "All" (any case) or "" disables a predicate.
// An emotion that is not in labels is a configuration error.
func NewFilter(category, emotion string, labels []domain.Emotion) (*Filter, error) {
	f := &Filter{}
	if !isAll(category) {
		f.category = strings.ToLower(strings.TrimSpace(category))
	}
	if !isAll(emotion) {
		name := strings.ToLower(strings.TrimSpace(emotion))
		if !domain.IsEmotion(labels, name) {
			return nil, domainerrors.Configurationf("unknown emotion %q", emotion).WithDetails(map[string]any{"allowed": labels})
		}
		f.emotion = domain.Emotion(name)
	}
	return f, nil
}

func isAll(v string) bool {
	v = strings.TrimSpace(v)
	return v == "" || strings.EqualFold(v, domain.FilterAll)
}

// Active reports whether any predicate is enabled.
func (f *Filter) Active() bool {
	return f.category != "" || f.emotion != ""
}

// Match reports whether b satisfies every enabled predicate.
func (f *Filter) Match(b *domain.Book) bool {
	if f.category != "" && !strings.Contains(strings.ToLower(b.SimpleCategory), f.category) {
		return false
	}
	if f.emotion != "" {
		score, ok := b.Emotions.Get(f.emotion)
		if !ok || score <= 0 {
			return false
		}
	}
	return true
}

// Apply returns the matching books in their input order. An empty result is not an error. With no
// predicate enabled books is returned unchanged.
func (f *Filter) Apply(books []domain.Book) []domain.Book {
	if !f.Active() {
		return books
	}
	out := make([]domain.Book, 0, len(books))
	for i := range books {
		if f.Match(&books[i]) {
			out = append(out, books[i])
		}
	}
	return out
}
