package domain

import (
	"strconv"
	"strings"

	domainerrors "github.com/listenupapp/bookrec/internal/errors"
)

// Document is a retrieved tagged description. Text starts with the book's isbn13.
type Document struct {
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}

// ISBN parses the isbn13 from the first whitespace-delimited token of Text.
func (d Document) ISBN() (int64, error) {
	return ParseISBN(d.Text)
}

// ParseISBN returns the integer value of the first whitespace-delimited token of text.
func ParseISBN(text string) (int64, error) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return 0, domainerrors.Validation("document has no identifier token")
	}
	// Ids exported as floats carry a trailing ".0".
	token := strings.TrimSuffix(fields[0], ".0")
	isbn, err := strconv.ParseInt(token, 10, 64)
	if err != nil {
		return 0, domainerrors.Validationf("document identifier %q is not an integer", fields[0])
	}
	return isbn, nil
}
