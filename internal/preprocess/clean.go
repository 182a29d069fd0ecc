// Package preprocess turns the raw books dataset into the cleaned dataset the later stages consume.
package preprocess

import (
	"github.com/listenupapp/bookrec/internal/domain"
)

// DefaultMinWords is the word count a description must exceed to be kept.
const DefaultMinWords = 30

// Options configures Clean.
type Options struct {
	// MinWords keeps rows whose description has strictly more words than this. Zero means DefaultMinWords.
	MinWords int
	// KeepMarkup skips HTML stripping and Unicode normalization of descriptions.
	KeepMarkup bool
}

// Report counts what Clean kept and dropped.
type Report struct {
	Input         int `json:"input"`
	MissingFields int `json:"missing_fields"`
	TooShort      int `json:"too_short"`
	Kept          int `json:"kept"`
}

// Clean drops incomplete and short rows and derives TitleAndSubtitle and TaggedDescription.
//
// A row is incomplete when isbn13, description, num_pages, average_rating or published_year is missing. Kept rows
// stay in input order. The input is not modified.
func Clean(books []domain.Book, opts Options) ([]domain.Book, Report) {
	minWords := opts.MinWords
	if minWords <= 0 {
		minWords = DefaultMinWords
	}

	report := Report{Input: len(books)}
	out := make([]domain.Book, 0, len(books))
	for i := range books {
		b := books[i].Clone()

		if !opts.KeepMarkup {
			b.Description = CleanText(b.Description)
		}
		if !b.HasISBN() || b.Description == "" || b.NumPages == nil || b.AverageRating == nil || b.PublishedYear == nil {
			report.MissingFields++
			continue
		}
		if CountWords(b.Description) <= minWords {
			report.TooShort++
			continue
		}

		b.TitleAndSubtitle = domain.JoinTitle(b.Title, b.Subtitle)
		b.TaggedDescription = domain.TagDescription(b.ISBN13, b.Description)
		out = append(out, b)
	}
	report.Kept = len(out)
	return out, report
}
