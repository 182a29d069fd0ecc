// Package search provides full-text search over the book catalog using Bleve.
// It doubles as a lexical retriever for recommendations when no embedding provider is configured.
package search

import (
	"strconv"

	"github.com/listenupapp/bookrec/internal/domain"
)

// SearchDocument is the structure indexed for each book.
type SearchDocument struct {
	// ID is the isbn13 in decimal.
	ID          string `json:"id"`
	Title       string `json:"title"`
	Authors     string `json:"authors,omitempty"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"`
	// Tagged is the "<isbn13> <description>" text handed back to the recommender.
	Tagged      string `json:"tagged"`
	PublishYear int    `json:"publish_year,omitempty"`
}

// ToMap converts the document to a map with lowercase field names.
// This ensures field names match the Bleve index mapping.
func (d *SearchDocument) ToMap() map[string]interface{} {
	m := map[string]interface{}{
		"id":     d.ID,
		"title":  d.Title,
		"tagged": d.Tagged,
	}

	if d.Authors != "" {
		m["authors"] = d.Authors
	}
	if d.Description != "" {
		m["description"] = d.Description
	}
	if d.Category != "" {
		m["category"] = d.Category
	}
	if d.PublishYear > 0 {
		m["publish_year"] = d.PublishYear
	}
	return m
}

// BookToSearchDocument converts a book to a SearchDocument.
func BookToSearchDocument(book *domain.Book) *SearchDocument {
	tagged := book.TaggedDescription
	if tagged == "" {
		tagged = domain.TagDescription(book.ISBN13, book.Description)
	}

	doc := &SearchDocument{
		ID:          strconv.FormatInt(book.ISBN13, 10),
		Title:       book.DisplayTitle(),
		Authors:     book.Authors,
		Description: book.Description,
		Category:    book.SimpleCategory,
		Tagged:      tagged,
	}
	if book.PublishedYear != nil {
		doc.PublishYear = *book.PublishedYear
	}
	return doc
}
