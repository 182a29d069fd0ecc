// Package emotion reduces per-sentence emotion classifier output to one score per label per book.
package emotion

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/listenupapp/bookrec/internal/domain"
	domainerrors "github.com/listenupapp/bookrec/internal/errors"
)

// LabelScore is one (label, score) pair from the classifier.
type LabelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Aggregator computes the per-label maximum over a book's sentences.
// Scores are looked up by label name, never by position.
type Aggregator struct {
	labels []domain.Emotion
	index  map[string]struct{}
}

// NewAggregator builds an aggregator for a fixed label set.
func NewAggregator(labels []domain.Emotion) (*Aggregator, error) {
	if len(labels) == 0 {
		return nil, domainerrors.Configurationf("emotion label set is empty")
	}
	index := make(map[string]struct{}, len(labels))
	for _, l := range labels {
		if _, dup := index[string(l)]; dup {
			return nil, domainerrors.Configurationf("emotion label %q listed twice", l)
		}
		index[string(l)] = struct{}{}
	}
	return &Aggregator{labels: slices.Clone(labels), index: index}, nil
}

// Labels returns the label set in its fixed order.
func (a *Aggregator) Labels() []domain.Emotion {
	return slices.Clone(a.labels)
}

// ValidateVocabulary checks that a classifier's label vocabulary is exactly the aggregator's label set.
func (a *Aggregator) ValidateVocabulary(vocab []string) error {
	seen := make(map[string]struct{}, len(vocab))
	var unknown, dups []string
	for _, l := range vocab {
		if _, ok := a.index[l]; !ok {
			unknown = append(unknown, l)
			continue
		}
		if _, dup := seen[l]; dup {
			dups = append(dups, l)
		}
		seen[l] = struct{}{}
	}

	var missing []string
	for _, l := range a.labels {
		if _, ok := seen[string(l)]; !ok {
			missing = append(missing, string(l))
		}
	}

	if len(unknown) == 0 && len(dups) == 0 && len(missing) == 0 {
		return nil
	}
	var parts []string
	if len(unknown) > 0 {
		parts = append(parts, "unknown "+strings.Join(unknown, ","))
	}
	if len(dups) > 0 {
		parts = append(parts, "duplicated "+strings.Join(dups, ","))
	}
	if len(missing) > 0 {
		parts = append(parts, "missing "+strings.Join(missing, ","))
	}
	return domainerrors.Configurationf("classifier label vocabulary mismatch: %s", strings.Join(parts, "; "))
}

// Aggregate returns, for every label, the maximum score across sentences.
// Each sentence must score every label exactly once with a value in [0,1].
func (a *Aggregator) Aggregate(sentences [][]LabelScore) (domain.EmotionScores, error) {
	if len(sentences) == 0 {
		return nil, domainerrors.Preconditionf("no sentences to aggregate")
	}

	out := make(domain.EmotionScores, len(a.labels))
	for i, sentence := range sentences {
		scores, err := a.byLabel(sentence)
		if err != nil {
			return nil, fmt.Errorf("sentence %d: %w", i, err)
		}
		for _, l := range a.labels {
			s := scores[string(l)]
			if cur, ok := out[l]; !ok || s > cur {
				out[l] = s
			}
		}
	}
	return out, nil
}

func (a *Aggregator) byLabel(sentence []LabelScore) (map[string]float64, error) {
	scores := make(map[string]float64, len(sentence))
	for _, ls := range sentence {
		if _, ok := a.index[ls.Label]; !ok {
			return nil, domainerrors.Validationf("unknown emotion label %q", ls.Label)
		}
		if _, dup := scores[ls.Label]; dup {
			return nil, domainerrors.Validationf("emotion label %q scored twice", ls.Label)
		}
		if math.IsNaN(ls.Score) || ls.Score < 0 || ls.Score > 1 {
			return nil, domainerrors.Validationf("emotion %q score %v outside [0,1]", ls.Label, ls.Score)
		}
		scores[ls.Label] = ls.Score
	}
	for _, l := range a.labels {
		if _, ok := scores[string(l)]; !ok {
			return nil, domainerrors.Validationf("emotion label %q not scored", l)
		}
	}
	return scores, nil
}

// SplitSentences splits a description on '.' and drops pieces that are blank.
func SplitSentences(description string) []string {
	parts := strings.Split(description, ".")
	out := parts[:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return out
}
