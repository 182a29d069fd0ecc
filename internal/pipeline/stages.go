package pipeline

import (
	"context"

	"github.com/listenupapp/bookrec/internal/category"
	"github.com/listenupapp/bookrec/internal/dataset"
	"github.com/listenupapp/bookrec/internal/domain"
	domainerrors "github.com/listenupapp/bookrec/internal/errors"
	"github.com/listenupapp/bookrec/internal/logger"
	"github.com/listenupapp/bookrec/internal/preprocess"
)

// CatalogRunKey is the catalog meta key recording which run last populated the catalog.
const CatalogRunKey = "run_id"

func (p *Pipeline) clean(_ context.Context, log *logger.Logger) (*StageResult, error) {
	raw, err := dataset.ReadFile(p.paths.RawBooks)
	if err != nil {
		return nil, err
	}

	cleaned, report := preprocess.Clean(raw, preprocess.Options{MinWords: p.opts.MinWords})
	log.Info("cleaned books",
		"input", report.Input,
		"missing_fields", report.MissingFields,
		"too_short", report.TooShort,
		"kept", report.Kept,
	)

	if err := dataset.WriteFile(p.paths.Cleaned, cleaned); err != nil {
		return nil, err
	}
	return &StageResult{Rows: len(cleaned), Output: p.paths.Cleaned, Details: report}, nil
}

func (p *Pipeline) categorize(ctx context.Context, log *logger.Logger) (*StageResult, error) {
	if p.deps.Predictor == nil {
		return nil, domainerrors.Configurationf("categorize needs a category predictor")
	}

	books, err := dataset.ReadFile(p.paths.Cleaned)
	if err != nil {
		return nil, err
	}

	mapped := p.deps.Mapper.Apply(books)
	missing := 0
	for i := range mapped {
		if !mapped[i].HasCategory() {
			missing++
		}
	}
	log.Info("mapped raw categories", "books", len(mapped), "unmapped", missing)

	filled, err := category.Backfill(ctx, mapped, p.deps.Predictor, log.Logger)
	if err != nil {
		return nil, err
	}

	if err := dataset.WriteFile(p.paths.Categorized, filled); err != nil {
		return nil, err
	}
	return &StageResult{Rows: len(filled), Output: p.paths.Categorized, Details: map[string]int{"predicted": missing}}, nil
}

func (p *Pipeline) emotions(ctx context.Context, log *logger.Logger) (*StageResult, error) {
	if p.deps.Analyzer == nil {
		return nil, domainerrors.Configurationf("emotions needs an emotion analyzer")
	}

	books, err := dataset.ReadFile(p.paths.Categorized)
	if err != nil {
		return nil, err
	}

	scored, err := p.deps.Analyzer.WithLogger(log.Logger).Analyze(ctx, books)
	if err != nil {
		return nil, err
	}

	if err := dataset.WriteFile(p.paths.WithEmotions, scored); err != nil {
		return nil, err
	}
	return &StageResult{Rows: len(scored), Output: p.paths.WithEmotions}, nil
}

// index loads the final dataset into the catalog, the lexical index and, when an embedder is configured,
// the vector store.
func (p *Pipeline) index(ctx context.Context, runID string, log *logger.Logger) (*StageResult, error) {
	if p.deps.Catalog == nil {
		return nil, domainerrors.Configurationf("index needs a catalog")
	}

	books, err := dataset.ReadFile(p.paths.WithEmotions)
	if err != nil {
		return nil, err
	}
	if err := domain.CheckUniqueISBNs(books); err != nil {
		return nil, err
	}

	if err := dataset.WriteTaggedDescriptions(p.paths.TaggedDescriptions, books); err != nil {
		return nil, err
	}

	if err := p.deps.Catalog.ReplaceBooks(ctx, books); err != nil {
		return nil, err
	}
	if err := p.deps.Catalog.SetMeta(ctx, CatalogRunKey, runID); err != nil {
		return nil, err
	}

	details := map[string]int{"catalog": len(books)}

	if p.deps.Lexical != nil {
		if err := p.deps.Lexical.Rebuild(); err != nil {
			return nil, err
		}
		if err := p.deps.Lexical.IndexBooks(ctx, books); err != nil {
			return nil, err
		}
		details["lexical"] = len(books)
	}

	if p.deps.Vectors != nil && p.deps.Embedder != nil {
		docs, err := dataset.ReadTaggedDescriptions(p.paths.TaggedDescriptions)
		if err != nil {
			return nil, err
		}
		if err := p.deps.Vectors.Reset(); err != nil {
			return nil, err
		}
		n, err := p.deps.Vectors.IndexDocuments(ctx, p.deps.Embedder, docs, p.opts.EmbedBatch)
		if err != nil {
			return nil, err
		}
		details["vectors"] = n
	} else {
		log.Info("no embedder configured, skipping vector index")
	}

	return &StageResult{Rows: len(books), Output: p.paths.TaggedDescriptions, Details: details}, nil
}

// Evaluate measures the category predictor against books whose mapped category is already known.
func (p *Pipeline) Evaluate(ctx context.Context, samplePerLabel int) (*category.Evaluation, error) {
	if p.deps.Predictor == nil {
		return nil, domainerrors.Configurationf("evaluate needs a category predictor")
	}

	books, err := dataset.ReadFile(p.paths.Cleaned)
	if err != nil {
		return nil, err
	}
	return category.Evaluate(ctx, p.deps.Mapper.Apply(books), p.deps.Predictor, samplePerLabel)
}
