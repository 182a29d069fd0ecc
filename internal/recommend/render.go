package recommend

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/listenupapp/bookrec/internal/domain"
)

// SummaryWords is the number of description words shown per recommendation.
const SummaryWords = 30

// WriteText renders a result the way the recommend command prints it.
func WriteText(w io.Writer, res *Result) error {
	var b strings.Builder

	fmt.Fprintf(&b, "Raw recommendations (before filtering): %d\n", res.Raw)
	fmt.Fprintf(&b, "Filtered recommendations (after applying category and emotion filters): %d\n", len(res.Books))

	if res.Empty() {
		fmt.Fprintf(&b, "No recommendations found for the query '%s' with category '%s' and emotion '%s'.\n",
			res.Query, res.Category, res.Emotion)
		_, err := io.WriteString(w, b.String())
		return err
	}

	for i := range res.Books {
		book := &res.Books[i]
		fmt.Fprintf(&b, "Title: %s\n", book.DisplayTitle())
		fmt.Fprintf(&b, "Category: %s\n", book.SimpleCategory)
		fmt.Fprintf(&b, "Emotion Scores: %s\n", FormatEmotions(book.Emotions, domain.DisplayEmotions()))
		fmt.Fprintf(&b, "Description: %s\n", Truncate(book.Description, SummaryWords))
		b.WriteString(strings.Repeat("-", 40))
		b.WriteByte('\n')
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// FormatEmotions renders "joy=0.912 fear=0.051 ..." in label order. Absent scores print as "n/a".
func FormatEmotions(scores domain.EmotionScores, labels []domain.Emotion) string {
	parts := make([]string, len(labels))
	for i, l := range labels {
		v, ok := scores.Get(l)
		if !ok {
			parts[i] = string(l) + "=n/a"
			continue
		}
		parts[i] = string(l) + "=" + strconv.FormatFloat(v, 'f', 3, 64)
	}
	return strings.Join(parts, " ")
}

// Truncate keeps the first n whitespace-separated words and appends "...".
func Truncate(text string, n int) string {
	words := strings.Fields(text)
	if len(words) > n {
		words = words[:n]
	}
	return strings.Join(words, " ") + "..."
}
