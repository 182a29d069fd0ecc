package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/listenupapp/bookrec/internal/domain"
	domainerrors "github.com/listenupapp/bookrec/internal/errors"
)

// ReadFile reads a books CSV from path.
func ReadFile(path string) ([]domain.Book, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	books, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return books, nil
}

// Read parses a books CSV. The header row is required and columns are located by name.
// A present isbn13 must be an integer; a missing one reads as zero and is left for the clean stage to drop.
func Read(r io.Reader) ([]domain.Book, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 0

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, domainerrors.Validation("dataset is empty")
	}
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeValidation, "read header")
	}
	header[0] = strings.TrimPrefix(header[0], "\ufeff")

	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[h] = i
	}
	if _, ok := cols[ColISBN13]; !ok {
		return nil, domainerrors.Validationf("dataset has no %s column", ColISBN13)
	}

	var extraCols []string
	for _, h := range header {
		if !isKnownColumn(h) {
			extraCols = append(extraCols, h)
		}
	}

	emotionCols := make([]domain.Emotion, 0, 7)
	for _, l := range domain.EmotionLabels() {
		if _, ok := cols[string(l)]; ok {
			emotionCols = append(emotionCols, l)
		}
	}

	var books []domain.Book
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, domainerrors.Wrap(err, domainerrors.CodeValidation, "read row")
		}
		line, _ := cr.FieldPos(0)

		row := record{cols: cols, values: rec}
		b, err := row.book(header, emotionCols, extraCols)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		books = append(books, b)
	}
	return books, nil
}

type record struct {
	cols   map[string]int
	values []string
}

func (r record) get(col string) string {
	i, ok := r.cols[col]
	if !ok || i >= len(r.values) {
		return ""
	}
	v := r.values[i]
	if isNull(v) {
		return ""
	}
	return v
}

func (r record) book(header []string, emotionCols []domain.Emotion, extraCols []string) (domain.Book, error) {
	isbn, err := parseISBN(r.get(ColISBN13))
	if err != nil {
		return domain.Book{}, err
	}

	b := domain.Book{
		ISBN13:            isbn,
		ISBN10:            r.get(ColISBN10),
		Title:             r.get(ColTitle),
		Subtitle:          r.get(ColSubtitle),
		Authors:           r.get(ColAuthors),
		Categories:        r.get(ColCategories),
		Thumbnail:         r.get(ColThumbnail),
		Description:       r.get(ColDescription),
		TitleAndSubtitle:  r.get(ColTitleAndSubtitle),
		TaggedDescription: r.get(ColTaggedDescription),
		SimpleCategory:    r.get(ColSimpleCategories),
	}

	if b.PublishedYear, err = parseOptionalInt(ColPublishedYear, r.get(ColPublishedYear)); err != nil {
		return b, err
	}
	if b.NumPages, err = parseOptionalInt(ColNumPages, r.get(ColNumPages)); err != nil {
		return b, err
	}
	if b.RatingsCount, err = parseOptionalInt(ColRatingsCount, r.get(ColRatingsCount)); err != nil {
		return b, err
	}
	if b.AverageRating, err = parseOptionalFloat(ColAverageRating, r.get(ColAverageRating)); err != nil {
		return b, err
	}

	for _, l := range emotionCols {
		score, err := parseOptionalFloat(string(l), r.get(string(l)))
		if err != nil {
			return b, err
		}
		if score == nil {
			continue
		}
		if b.Emotions == nil {
			b.Emotions = make(domain.EmotionScores, len(emotionCols))
		}
		b.Emotions[l] = *score
	}

	for i, h := range header {
		if isKnownColumn(h) || i >= len(r.values) {
			continue
		}
		if b.Extra == nil {
			b.Extra = make(map[string]string)
		}
		b.Extra[h] = r.values[i]
	}
	if b.Extra != nil {
		b.ExtraColumns = extraCols
	}
	return b, nil
}

// isNull treats the common spellings of missing values as empty.
func isNull(v string) bool {
	switch strings.TrimSpace(v) {
	case "", "nan", "NaN", "NULL", "null", "None":
		return true
	}
	return false
}

func parseISBN(v string) (int64, error) {
	if v == "" {
		return 0, nil
	}
	n, err := parseInt(v)
	if err != nil {
		return 0, domainerrors.Validationf("%s %q is not an integer", ColISBN13, v)
	}
	return n, nil
}

// parseInt accepts plain integers and integral floats such as "1997.0".
func parseInt(v string) (int64, error) {
	v = strings.TrimSpace(v)
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("not an integer: %q", v)
	}
	return int64(f), nil
}

func parseOptionalInt(col, v string) (*int, error) {
	if v == "" {
		return nil, nil
	}
	n, err := parseInt(v)
	if err != nil {
		return nil, domainerrors.Validationf("%s %q is not an integer", col, v)
	}
	i := int(n)
	return &i, nil
}

func parseOptionalFloat(col, v string) (*float64, error) {
	if v == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return nil, domainerrors.Validationf("%s %q is not a number", col, v)
	}
	return &f, nil
}
