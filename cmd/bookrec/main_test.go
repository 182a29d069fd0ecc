package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"hash/fnv"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/bookrec/internal/dataset"
	"github.com/listenupapp/bookrec/internal/domain"
	domainerrors "github.com/listenupapp/bookrec/internal/errors"
	"github.com/listenupapp/bookrec/internal/recommend"
)

// fakeInference answers the three hosted tasks: zero-shot always prefers Nonfiction, every sentence gets
// the same emotion distribution with joy highest, and embeddings are hashed bags of words.
func fakeInference(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		var req struct {
			Inputs     json.RawMessage `json:"inputs"`
			Parameters struct {
				CandidateLabels []string `json:"candidate_labels"`
			} `json:"parameters"`
		}
		require.NoError(t, json.Unmarshal(raw, &req))

		w.Header().Set("Content-Type", "application/json")
		switch {
		case len(req.Parameters.CandidateLabels) > 0:
			_ = json.NewEncoder(w).Encode(map[string]any{
				"labels": []string{domain.CategoryNonfiction, domain.CategoryFiction},
				"scores": []float64{0.8, 0.2},
			})
		case strings.Contains(r.URL.Path, "emotion"):
			var inputs []string
			require.NoError(t, json.Unmarshal(req.Inputs, &inputs))
			out := make([][]map[string]any, len(inputs))
			for i := range inputs {
				for j, l := range domain.EmotionLabels() {
					score := 0.05 * float64(j+1)
					if l == domain.Joy {
						score = 0.9
					}
					out[i] = append(out[i], map[string]any{"label": string(l), "score": score})
				}
			}
			_ = json.NewEncoder(w).Encode(out)
		default:
			var inputs []string
			require.NoError(t, json.Unmarshal(req.Inputs, &inputs))
			out := make([][]float32, len(inputs))
			for i, text := range inputs {
				out[i] = make([]float32, 16)
				for _, word := range strings.Fields(strings.ToLower(text)) {
					h := fnv.New32a()
					_, _ = h.Write([]byte(strings.Trim(word, ".,!?")))
					out[i][h.Sum32()%16]++
				}
			}
			_ = json.NewEncoder(w).Encode(out)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func intp(v int) *int           { return &v }
func floatp(v float64) *float64 { return &v }

func repeatWords(words string, n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = words
	}
	return strings.Join(parts, " ") + "."
}

func writeRawBooks(t *testing.T, dataDir string) {
	t.Helper()
	books := []domain.Book{
		{ISBN13: 9780000000001, Title: "Dragon Keeper", Categories: "Fiction",
			Description:   repeatWords("dragon fire wings mountain", 10),
			PublishedYear: intp(2001), AverageRating: floatp(4.2), NumPages: intp(320)},
		{ISBN13: 9780000000002, Title: "Bread at Home", Categories: "Cooking",
			Description:   repeatWords("flour yeast oven loaf", 10),
			PublishedYear: intp(2015), AverageRating: floatp(4.0), NumPages: intp(180)},
		{ISBN13: 9780000000003, Title: "Tiny", Categories: "Fiction", Description: "Too short to keep.",
			PublishedYear: intp(1990), AverageRating: floatp(3.0), NumPages: intp(90)},
	}
	require.NoError(t, dataset.WriteFile(filepath.Join(dataDir, "raw", "books.csv"), books))
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root, a := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)

	err := root.Execute()
	if serr := a.shutdown(); err == nil {
		err = serr
	}
	return out.String(), err
}

func setupEnv(t *testing.T) string {
	t.Helper()
	srv := fakeInference(t)
	dataDir := t.TempDir()
	t.Setenv("BOOKREC_CONFIG", "")
	t.Setenv("BOOKREC_INFERENCE__BASE_URL", srv.URL)
	t.Setenv("BOOKREC_INFERENCE__TOKEN", "test-token")
	t.Setenv("BOOKREC_LOGGER__LEVEL", "error")
	t.Setenv("BOOKREC_SERVER__RATE_LIMIT_RPS", "0")
	writeRawBooks(t, dataDir)
	return dataDir
}

func TestCLI_PipelineThenRecommend(t *testing.T) {
	dataDir := setupEnv(t)

	out, err := run(t, "pipeline", "--data-dir", dataDir)
	require.NoError(t, err)
	assert.Contains(t, out, "clean")
	assert.Contains(t, out, "index")

	out, err = run(t, "recommend", "--data-dir", dataDir, "--query", "dragon fire", "--top-k", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Raw recommendations (before filtering): 2")
	assert.Contains(t, out, "Title: Dragon Keeper")
	assert.Less(t, strings.Index(out, "Dragon Keeper"), strings.Index(out, "Bread at Home"))
	assert.Contains(t, out, strings.Repeat("-", 40))

	out, err = run(t, "recommend", "--data-dir", dataDir, "-q", "dragon fire", "--category", "Nonfiction", "--json")
	require.NoError(t, err)
	var res recommend.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.Len(t, res.Books, 1)
	assert.Equal(t, "Bread at Home", res.Books[0].Title)
	assert.Equal(t, domain.CategoryNonfiction, res.Books[0].SimpleCategory)

	out, err = run(t, "search", "--data-dir", dataDir, "--query", "loaf")
	require.NoError(t, err)
	assert.Contains(t, out, "9780000000002")
}

func TestCLI_PipelineStages(t *testing.T) {
	dataDir := setupEnv(t)

	out, err := run(t, "pipeline", "--data-dir", dataDir, "--stages", "categorize,clean")
	require.NoError(t, err)
	assert.Less(t, strings.Index(out, "clean"), strings.Index(out, "categorize"), "stages run in pipeline order")
	assert.NotContains(t, out, "emotions")

	out, err = run(t, "pipeline", "--data-dir", dataDir, "--stages", "emotions")
	require.NoError(t, err, "emotions reads what categorize wrote")
	assert.NotContains(t, out, "clean")

	_, err = run(t, "pipeline", "--data-dir", dataDir, "--stages", "clean,bogus")
	require.Error(t, err)
	assert.Equal(t, 2, exitCode(err))
}

func TestCLI_Stats(t *testing.T) {
	dataDir := setupEnv(t)

	report, err := run(t, "pipeline", "--data-dir", dataDir)
	require.NoError(t, err)

	out, err := run(t, "stats", "--data-dir", dataDir, "--json")
	require.NoError(t, err)

	var stats catalogStats
	require.NoError(t, json.Unmarshal([]byte(out), &stats))
	assert.Equal(t, 2, stats.Books)
	assert.Equal(t, uint64(2), stats.Documents)
	require.NotNil(t, stats.Vectors)
	assert.Equal(t, 2, *stats.Vectors)
	assert.Equal(t, map[string]int{domain.CategoryFiction: 1, domain.CategoryNonfiction: 1}, stats.Categories)
	assert.Contains(t, report, "run "+stats.RunID)

	out, err = run(t, "stats", "--data-dir", dataDir)
	require.NoError(t, err)
	assert.Contains(t, out, "books")
	assert.Contains(t, out, domain.CategoryNonfiction)
}

func TestCLI_RecommendNoMatches(t *testing.T) {
	dataDir := setupEnv(t)

	_, err := run(t, "pipeline", "--data-dir", dataDir)
	require.NoError(t, err)

	out, err := run(t, "recommend", "--data-dir", dataDir, "-q", "dragon", "--category", "Children's Fiction")
	require.NoError(t, err)
	assert.Contains(t, out,
		"No recommendations found for the query 'dragon' with category 'Children's Fiction' and emotion 'All'.")
}

func TestCLI_Evaluate(t *testing.T) {
	dataDir := setupEnv(t)

	_, err := run(t, "clean", "--data-dir", dataDir)
	require.NoError(t, err)

	out, err := run(t, "evaluate", "--data-dir", dataDir, "--sample", "10")
	require.NoError(t, err)
	assert.Contains(t, out, "evaluated 1 books, 0 correct")
}

func TestCLI_Errors(t *testing.T) {
	dataDir := setupEnv(t)

	_, err := run(t, "recommend", "--data-dir", dataDir, "-q", "x", "--emotion", "glee")
	require.Error(t, err)
	assert.Equal(t, 2, exitCode(err))

	_, err = run(t, "clean", "--data-dir", dataDir, "--log-level", "verbose")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domainerrors.ErrConfiguration))

	_, err = run(t, "emotions", "--data-dir", dataDir)
	require.Error(t, err, "emotions needs the categorized file")
}

func TestCLI_InferenceFailureExitsUpstream(t *testing.T) {
	dataDir := setupEnv(t)
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(down.Close)
	t.Setenv("BOOKREC_INFERENCE__BASE_URL", down.URL)

	_, err := run(t, "clean", "--data-dir", dataDir)
	require.NoError(t, err)

	_, err = run(t, "categorize", "--data-dir", dataDir)
	require.Error(t, err)
	assert.Equal(t, domainerrors.CodeUpstream, domainerrors.CodeOf(err))
	assert.Equal(t, 4, exitCode(err))
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 2, exitCode(domainerrors.Configurationf("bad flag")))
	assert.Equal(t, 2, exitCode(domainerrors.Validation("bad row")))
	assert.Equal(t, 3, exitCode(domainerrors.Preconditionf("duplicate isbn13")))
	assert.Equal(t, 4, exitCode(domainerrors.Wrap(errors.New("503"), domainerrors.CodeUpstream, "zero-shot")))
	assert.Equal(t, 1, exitCode(errors.New("boom")))
}
