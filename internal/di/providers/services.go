package providers

import (
	"github.com/samber/do/v2"

	"github.com/listenupapp/bookrec/internal/category"
	"github.com/listenupapp/bookrec/internal/config"
	"github.com/listenupapp/bookrec/internal/domain"
	"github.com/listenupapp/bookrec/internal/emotion"
	"github.com/listenupapp/bookrec/internal/logger"
	"github.com/listenupapp/bookrec/internal/metrics"
	"github.com/listenupapp/bookrec/internal/pipeline"
	"github.com/listenupapp/bookrec/internal/recommend"
	"github.com/listenupapp/bookrec/internal/store"
)

// ProvideCategoryMapper provides the raw-to-simple category table, loaded from category.mapping_file when set.
func ProvideCategoryMapper(i do.Injector) (*category.Mapper, error) {
	cfg := do.MustInvoke[*config.Config](i)
	if cfg.Category.MappingFile == "" {
		return category.NewDefaultMapper(), nil
	}

	m, err := category.LoadMapping(cfg.Category.MappingFile)
	if err != nil {
		return nil, err
	}
	do.MustInvoke[*logger.Logger](i).Debug("Category mapping loaded",
		"path", cfg.Category.MappingFile, "entries", m.Len())
	return m, nil
}

// ProvideCategoryPredictor provides the zero-shot category predictor.
func ProvideCategoryPredictor(i do.Injector) (category.Predictor, error) {
	client := do.MustInvoke[*InferenceClientHandle](i)
	return category.NewZeroShotPredictor(client.Client), nil
}

// ProvideEmotionAnalyzer provides the per-book emotion analyzer.
func ProvideEmotionAnalyzer(i do.Injector) (*emotion.Analyzer, error) {
	client := do.MustInvoke[*InferenceClientHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	agg, err := emotion.NewAggregator(domain.EmotionLabels())
	if err != nil {
		return nil, err
	}
	return emotion.NewAnalyzer(client.Client, agg, log.Logger), nil
}

// ProvideRecommender provides the recommender over the retriever selected by retrieval.mode.
func ProvideRecommender(i do.Injector) (*recommend.Recommender, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	catalog := do.MustInvoke[*CatalogHandle](i)

	var retriever recommend.Retriever
	if cfg.Retrieval.Mode == config.RetrievalLexical {
		retriever = do.MustInvoke[*SearchIndexHandle](i).SearchIndex
	} else {
		embedder := do.MustInvoke[*EmbedderHandle](i)
		vectors := do.MustInvoke[*VectorStoreHandle](i)
		retriever = store.NewRetriever(embedder.Embedder, vectors.Store)
	}

	return recommend.NewRecommender(retriever, catalog.Store, domain.EmotionLabels(), log.Logger), nil
}

// ProvidePipeline provides the offline pipeline. Inference-backed collaborators are resolved here but only
// called by the stages that need them.
func ProvidePipeline(i do.Injector) (*pipeline.Pipeline, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	deps := pipeline.Deps{
		Mapper:    do.MustInvoke[*category.Mapper](i),
		Predictor: do.MustInvoke[category.Predictor](i),
		Analyzer:  do.MustInvoke[*emotion.Analyzer](i),
		Lexical:   do.MustInvoke[*SearchIndexHandle](i).SearchIndex,
		Catalog:   do.MustInvoke[*CatalogHandle](i).Store,
		Metrics:   do.MustInvoke[*metrics.Manager](i),
		Logger:    log,
	}
	if cfg.Retrieval.Mode == config.RetrievalVector {
		deps.Embedder = do.MustInvoke[*EmbedderHandle](i).Embedder
		deps.Vectors = do.MustInvoke[*VectorStoreHandle](i).Store
	}

	paths := pipeline.Paths{
		RawBooks:           cfg.Data.RawBooks,
		Cleaned:            cfg.Data.CleanedCSV(),
		Categorized:        cfg.Data.CategorizedCSV(),
		WithEmotions:       cfg.Data.EmotionsCSV(),
		TaggedDescriptions: cfg.Data.TaggedDescriptions(),
	}
	return pipeline.New(paths, deps, pipeline.Options{
		MinWords:   cfg.Pipeline.MinWords,
		EmbedBatch: cfg.Embedding.BatchSize,
	}), nil
}
