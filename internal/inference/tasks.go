package inference

import (
	"bytes"
	"context"
	"fmt"
	"net/url"

	"github.com/goccy/go-json"

	"github.com/listenupapp/bookrec/internal/emotion"
)

const (
	opZeroShot = "zero-shot"
	opEmotion  = "emotion"
	opEmbed    = "embed"
)

func modelPath(model string) string {
	return "/models/" + (&url.URL{Path: model}).EscapedPath()
}

type zeroShotRequest struct {
	Inputs     string             `json:"inputs"`
	Parameters zeroShotParameters `json:"parameters"`
	Options    options            `json:"options"`
}

type zeroShotParameters struct {
	CandidateLabels []string `json:"candidate_labels"`
}

// zeroShotObject is the classic pipeline output: labels sorted by score, aligned with scores.
type zeroShotObject struct {
	Labels []string  `json:"labels"`
	Scores []float64 `json:"scores"`
}

// ClassifyZeroShot scores text against candidates. labels and scores are aligned, highest score first.
func (c *Client) ClassifyZeroShot(ctx context.Context, text string, candidates []string) ([]string, []float64, error) {
	model := c.models.ZeroShot
	body, err := c.post(ctx, opZeroShot, model, modelPath(model), zeroShotRequest{
		Inputs:     text,
		Parameters: zeroShotParameters{CandidateLabels: candidates},
		Options:    defaultOptions(),
	})
	if err != nil {
		return nil, nil, wrapError(opZeroShot, model, err)
	}

	labels, scores, err := decodeZeroShot(body)
	if err != nil {
		return nil, nil, wrapError(opZeroShot, model, err)
	}
	return labels, scores, nil
}

// decodeZeroShot accepts both the {labels, scores} object and a [{label, score}] list.
func decodeZeroShot(body []byte) ([]string, []float64, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var pairs []emotion.LabelScore
		if err := json.Unmarshal(trimmed, &pairs); err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrBadResponse, err)
		}
		labels := make([]string, len(pairs))
		scores := make([]float64, len(pairs))
		for i, p := range pairs {
			labels[i], scores[i] = p.Label, p.Score
		}
		return labels, scores, nil
	}

	var obj zeroShotObject
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	if len(obj.Labels) == 0 || len(obj.Labels) != len(obj.Scores) {
		return nil, nil, fmt.Errorf("%w: %d labels, %d scores", ErrBadResponse, len(obj.Labels), len(obj.Scores))
	}
	return obj.Labels, obj.Scores, nil
}

type textClassificationRequest struct {
	Inputs     []string                 `json:"inputs"`
	Parameters textClassificationParams `json:"parameters"`
	Options    options                  `json:"options"`
}

// textClassificationParams asks for every label rather than the top one. top_k must be serialized as null.
type textClassificationParams struct {
	TopK *int `json:"top_k"`
}

// ClassifyEmotions scores every sentence against every emotion label in a single request.
func (c *Client) ClassifyEmotions(ctx context.Context, sentences []string) ([][]emotion.LabelScore, error) {
	model := c.models.Emotion
	body, err := c.post(ctx, opEmotion, model, modelPath(model), textClassificationRequest{
		Inputs:  sentences,
		Options: defaultOptions(),
	})
	if err != nil {
		return nil, wrapError(opEmotion, model, err)
	}

	results, err := decodeTextClassification(body, len(sentences))
	if err != nil {
		return nil, wrapError(opEmotion, model, err)
	}
	return results, nil
}

// decodeTextClassification accepts [[{label,score}]] and, for a single input, the flat [{label,score}] form.
func decodeTextClassification(body []byte, inputs int) ([][]emotion.LabelScore, error) {
	var nested [][]emotion.LabelScore
	if err := json.Unmarshal(body, &nested); err == nil {
		if len(nested) != inputs {
			return nil, fmt.Errorf("%w: %d results for %d inputs", ErrBadResponse, len(nested), inputs)
		}
		return nested, nil
	}

	var flat []emotion.LabelScore
	if err := json.Unmarshal(body, &flat); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	if inputs != 1 {
		return nil, fmt.Errorf("%w: flat result for %d inputs", ErrBadResponse, inputs)
	}
	return [][]emotion.LabelScore{flat}, nil
}

type featureExtractionRequest struct {
	Inputs  []string `json:"inputs"`
	Options options  `json:"options"`
}

// Embed returns one vector per text, in input order.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	model := c.models.Embedding
	body, err := c.post(ctx, opEmbed, model, modelPath(model)+"/pipeline/feature-extraction", featureExtractionRequest{
		Inputs:  texts,
		Options: defaultOptions(),
	})
	if err != nil {
		return nil, wrapError(opEmbed, model, err)
	}

	vectors, err := decodeEmbeddings(body, len(texts))
	if err != nil {
		return nil, wrapError(opEmbed, model, err)
	}
	return vectors, nil
}

// decodeEmbeddings accepts sentence embeddings ([][]float32) or token embeddings ([][][]float32), which are
// mean pooled.
func decodeEmbeddings(body []byte, inputs int) ([][]float32, error) {
	var vectors [][]float32
	if err := json.Unmarshal(body, &vectors); err != nil {
		var tokens [][][]float32
		if err := json.Unmarshal(body, &tokens); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadResponse, err)
		}
		vectors = make([][]float32, len(tokens))
		for i, t := range tokens {
			vectors[i] = meanPool(t)
		}
	}
	if len(vectors) != inputs {
		return nil, fmt.Errorf("%w: %d vectors for %d inputs", ErrBadResponse, len(vectors), inputs)
	}
	for i, v := range vectors {
		if len(v) == 0 {
			return nil, fmt.Errorf("%w: empty vector at %d", ErrBadResponse, i)
		}
	}
	return vectors, nil
}

func meanPool(tokens [][]float32) []float32 {
	if len(tokens) == 0 {
		return nil
	}
	out := make([]float32, len(tokens[0]))
	for _, tok := range tokens {
		for j := range out {
			if j < len(tok) {
				out[j] += tok[j]
			}
		}
	}
	for j := range out {
		out[j] /= float32(len(tokens))
	}
	return out
}
