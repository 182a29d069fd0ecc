// Package domain contains the book record and the fixed vocabularies shared by every pipeline stage.
package domain

import (
	"slices"
	"strconv"
	"strings"

	domainerrors "github.com/listenupapp/bookrec/internal/errors"
)

// Book is one row of the books dataset.
// Empty strings and nil pointers mean the value is missing.
type Book struct {
	ISBN13        int64    `json:"isbn13"`
	ISBN10        string   `json:"isbn10,omitempty"`
	Title         string   `json:"title"`
	Subtitle      string   `json:"subtitle,omitempty"`
	Authors       string   `json:"authors,omitempty"`
	Categories    string   `json:"categories,omitempty"`
	Thumbnail     string   `json:"thumbnail,omitempty"`
	Description   string   `json:"description"`
	PublishedYear *int     `json:"published_year,omitempty"`
	AverageRating *float64 `json:"average_rating,omitempty"`
	NumPages      *int     `json:"num_pages,omitempty"`
	RatingsCount  *int     `json:"ratings_count,omitempty"`

	TitleAndSubtitle  string        `json:"title_and_subtitle,omitempty"`
	TaggedDescription string        `json:"tagged_description,omitempty"`
	SimpleCategory    string        `json:"simple_categories,omitempty"`
	Emotions          EmotionScores `json:"emotions,omitempty"`

	// Extra holds CSV columns this package does not model, keyed by header.
	Extra map[string]string `json:"-"`
	// ExtraColumns lists the Extra keys in source column order.
	ExtraColumns []string `json:"-"`
}

// HasISBN reports whether the row carried an identifier. A missing isbn13 reads as zero.
func (b *Book) HasISBN() bool {
	return b.ISBN13 != 0
}

// HasCategory reports whether the mapped category is present.
func (b *Book) HasCategory() bool {
	return strings.TrimSpace(b.SimpleCategory) != ""
}

// DisplayTitle prefers the derived "title: subtitle" form.
func (b *Book) DisplayTitle() string {
	if b.TitleAndSubtitle != "" {
		return b.TitleAndSubtitle
	}
	return JoinTitle(b.Title, b.Subtitle)
}

// JoinTitle returns title, or "title: subtitle" when a subtitle is present.
func JoinTitle(title, subtitle string) string {
	if strings.TrimSpace(subtitle) == "" {
		return title
	}
	return title + ": " + subtitle
}

// TagDescription prefixes a description with its isbn13 so a retrieved document can be joined back to its book.
func TagDescription(isbn13 int64, description string) string {
	return strconv.FormatInt(isbn13, 10) + " " + description
}

// Clone returns a copy that shares no mutable state with b.
func (b Book) Clone() Book {
	c := b
	if b.Emotions != nil {
		c.Emotions = b.Emotions.Clone()
	}
	if b.Extra != nil {
		c.Extra = make(map[string]string, len(b.Extra))
		for k, v := range b.Extra {
			c.Extra[k] = v
		}
	}
	if b.ExtraColumns != nil {
		c.ExtraColumns = slices.Clone(b.ExtraColumns)
	}
	return c
}

// CloneBooks deep-copies a collection. Stages return new collections and never mutate their input.
func CloneBooks(books []Book) []Book {
	out := make([]Book, len(books))
	for i := range books {
		out[i] = books[i].Clone()
	}
	return out
}

// CheckUniqueISBNs reports the first duplicated isbn13 as a precondition error.
func CheckUniqueISBNs(books []Book) error {
	seen := make(map[int64]struct{}, len(books))
	for i := range books {
		if _, dup := seen[books[i].ISBN13]; dup {
			return domainerrors.Preconditionf("duplicate isbn13 %d", books[i].ISBN13)
		}
		seen[books[i].ISBN13] = struct{}{}
	}
	return nil
}
