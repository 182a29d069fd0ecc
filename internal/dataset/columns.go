// Package dataset reads and writes the books CSV files exchanged between pipeline stages.
package dataset

import "github.com/listenupapp/bookrec/internal/domain"

// Column names.
const (
	ColISBN13            = "isbn13"
	ColISBN10            = "isbn10"
	ColTitle             = "title"
	ColSubtitle          = "subtitle"
	ColAuthors           = "authors"
	ColCategories        = "categories"
	ColThumbnail         = "thumbnail"
	ColDescription       = "description"
	ColPublishedYear     = "published_year"
	ColAverageRating     = "average_rating"
	ColNumPages          = "num_pages"
	ColRatingsCount      = "ratings_count"
	ColTitleAndSubtitle  = "title_and_subtitle"
	ColTaggedDescription = "tagged_description"
	ColSimpleCategories  = "simple_categories"
)

// baseColumns are always written.
var baseColumns = []string{
	ColISBN13, ColISBN10, ColTitle, ColSubtitle, ColAuthors, ColCategories, ColThumbnail,
	ColDescription, ColPublishedYear, ColAverageRating, ColNumPages, ColRatingsCount,
}

// derivedColumns are written when at least one row has a value.
var derivedColumns = []string{ColTitleAndSubtitle, ColTaggedDescription, ColSimpleCategories}

func isKnownColumn(name string) bool {
	for _, c := range baseColumns {
		if c == name {
			return true
		}
	}
	for _, c := range derivedColumns {
		if c == name {
			return true
		}
	}
	return domain.IsEmotion(domain.EmotionLabels(), name)
}
