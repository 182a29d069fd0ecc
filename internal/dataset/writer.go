package dataset

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/listenupapp/bookrec/internal/domain"
)

// Write encodes books as CSV. Base columns are always present; derived and emotion columns only when some
// row has a value; unmodeled columns follow in the order they were read.
func Write(w io.Writer, books []domain.Book) error {
	header := columnsFor(books)

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	row := make([]string, len(header))
	for i := range books {
		for j, col := range header {
			row[j] = cell(&books[i], col)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row %d: %w", books[i].ISBN13, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile writes books to path through a temporary file in the same directory, so readers never see a
// partial dataset.
func WriteFile(path string, books []domain.Book) error {
	return writeAtomic(path, func(w io.Writer) error { return Write(w, books) })
}

// WriteTaggedDescriptions writes one tagged description per line. Embedded newlines become spaces.
func WriteTaggedDescriptions(path string, books []domain.Book) error {
	return writeAtomic(path, func(w io.Writer) error {
		bw := bufio.NewWriter(w)
		for i := range books {
			tagged := books[i].TaggedDescription
			if tagged == "" {
				tagged = domain.TagDescription(books[i].ISBN13, books[i].Description)
			}
			if _, err := bw.WriteString(strings.Join(strings.Fields(tagged), " ") + "\n"); err != nil {
				return err
			}
		}
		return bw.Flush()
	})
}

// ReadTaggedDescriptions returns the non-blank lines of a tagged descriptions file.
func ReadTaggedDescriptions(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open tagged descriptions: %w", err)
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan tagged descriptions: %w", err)
	}
	return lines, nil
}

func writeAtomic(path string, fn func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := fn(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename into %s: %w", path, err)
	}
	return nil
}

func columnsFor(books []domain.Book) []string {
	header := slices.Clone(baseColumns)

	var hasTitle, hasTagged, hasCategory, hasEmotions bool
	var extraCols, unordered []string
	seen := make(map[string]struct{})
	for i := range books {
		b := &books[i]
		hasTitle = hasTitle || b.TitleAndSubtitle != ""
		hasTagged = hasTagged || b.TaggedDescription != ""
		hasCategory = hasCategory || b.SimpleCategory != ""
		hasEmotions = hasEmotions || len(b.Emotions) > 0
		for _, k := range b.ExtraColumns {
			if _, ok := b.Extra[k]; !ok {
				continue
			}
			if _, ok := seen[k]; !ok {
				seen[k] = struct{}{}
				extraCols = append(extraCols, k)
			}
		}
	}
	// Keys set without a column order go last, by name.
	for i := range books {
		for k := range books[i].Extra {
			if _, ok := seen[k]; !ok {
				seen[k] = struct{}{}
				unordered = append(unordered, k)
			}
		}
	}
	slices.Sort(unordered)
	extraCols = append(extraCols, unordered...)

	if hasTitle {
		header = append(header, ColTitleAndSubtitle)
	}
	if hasTagged {
		header = append(header, ColTaggedDescription)
	}
	if hasCategory {
		header = append(header, ColSimpleCategories)
	}
	if hasEmotions {
		for _, l := range domain.EmotionLabels() {
			header = append(header, string(l))
		}
	}

	return append(header, extraCols...)
}

func cell(b *domain.Book, col string) string {
	switch col {
	case ColISBN13:
		return strconv.FormatInt(b.ISBN13, 10)
	case ColISBN10:
		return b.ISBN10
	case ColTitle:
		return b.Title
	case ColSubtitle:
		return b.Subtitle
	case ColAuthors:
		return b.Authors
	case ColCategories:
		return b.Categories
	case ColThumbnail:
		return b.Thumbnail
	case ColDescription:
		return b.Description
	case ColPublishedYear:
		return formatInt(b.PublishedYear)
	case ColAverageRating:
		return formatFloat(b.AverageRating)
	case ColNumPages:
		return formatInt(b.NumPages)
	case ColRatingsCount:
		return formatInt(b.RatingsCount)
	case ColTitleAndSubtitle:
		return b.TitleAndSubtitle
	case ColTaggedDescription:
		return b.TaggedDescription
	case ColSimpleCategories:
		return b.SimpleCategory
	}
	if domain.IsEmotion(domain.EmotionLabels(), col) {
		if v, ok := b.Emotions.Get(domain.Emotion(col)); ok {
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
		return ""
	}
	return b.Extra[col]
}

func formatInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
