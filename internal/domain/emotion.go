package domain

import "slices"

// Emotion is a label produced by the emotion classifier.
type Emotion string

// The fixed emotion vocabulary.
const (
	Anger    Emotion = "anger"
	Disgust  Emotion = "disgust"
	Fear     Emotion = "fear"
	Joy      Emotion = "joy"
	Sadness  Emotion = "sadness"
	Surprise Emotion = "surprise"
	Neutral  Emotion = "neutral"
)

// EmotionLabels returns the fixed ordered label set. The result is a fresh slice.
func EmotionLabels() []Emotion {
	return []Emotion{Anger, Disgust, Fear, Joy, Sadness, Surprise, Neutral}
}

// DisplayEmotions is the subset printed next to each recommendation.
func DisplayEmotions() []Emotion {
	return []Emotion{Joy, Fear, Sadness, Anger, Surprise}
}

// EmotionScores holds one score in [0,1] per label.
type EmotionScores map[Emotion]float64

// Get returns the score for label and whether it is present.
func (s EmotionScores) Get(label Emotion) (float64, bool) {
	v, ok := s[label]
	return v, ok
}

// Clone copies the scores.
func (s EmotionScores) Clone() EmotionScores {
	out := make(EmotionScores, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// IsEmotion reports whether name is one of labels.
func IsEmotion(labels []Emotion, name string) bool {
	return slices.Contains(labels, Emotion(name))
}
