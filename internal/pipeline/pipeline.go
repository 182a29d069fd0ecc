// Package pipeline runs the offline stages that turn the raw books CSV into the catalog and retrieval
// indexes used for recommendations.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/listenupapp/bookrec/internal/category"
	"github.com/listenupapp/bookrec/internal/domain"
	"github.com/listenupapp/bookrec/internal/emotion"
	domainerrors "github.com/listenupapp/bookrec/internal/errors"
	"github.com/listenupapp/bookrec/internal/id"
	"github.com/listenupapp/bookrec/internal/logger"
	"github.com/listenupapp/bookrec/internal/metrics"
	"github.com/listenupapp/bookrec/internal/store"
)

// Stage names one step of the pipeline.
type Stage string

// Stages, in execution order.
const (
	StageClean      Stage = "clean"
	StageCategorize Stage = "categorize"
	StageEmotions   Stage = "emotions"
	StageIndex      Stage = "index"
)

// Stages returns every stage in execution order.
func Stages() []Stage {
	return []Stage{StageClean, StageCategorize, StageEmotions, StageIndex}
}

// ParseStage validates a stage name.
func ParseStage(name string) (Stage, error) {
	for _, s := range Stages() {
		if string(s) == name {
			return s, nil
		}
	}
	return "", domainerrors.Configurationf("unknown stage %q", name)
}

// Paths locates every file the stages read and write.
type Paths struct {
	RawBooks           string
	Cleaned            string
	Categorized        string
	WithEmotions       string
	TaggedDescriptions string
}

// VectorIndex stores embedded tagged descriptions.
type VectorIndex interface {
	Reset() error
	IndexDocuments(ctx context.Context, embedder store.Embedder, docs []string, batchSize int) (int, error)
}

// LexicalIndex is the full-text index over books.
type LexicalIndex interface {
	Rebuild() error
	IndexBooks(ctx context.Context, books []domain.Book) error
}

// Catalog receives the final dataset.
type Catalog interface {
	ReplaceBooks(ctx context.Context, books []domain.Book) error
	SetMeta(ctx context.Context, key, value string) error
}

// Deps are the collaborators the stages call. Only the ones a stage needs must be set.
type Deps struct {
	Mapper    *category.Mapper
	Predictor category.Predictor
	Analyzer  *emotion.Analyzer
	Embedder  store.Embedder
	Vectors   VectorIndex
	Lexical   LexicalIndex
	Catalog   Catalog
	Metrics   *metrics.Manager
	Logger    *logger.Logger
}

// Options tunes the stages.
type Options struct {
	MinWords   int
	EmbedBatch int
}

// Pipeline runs stages against files on disk.
type Pipeline struct {
	paths   Paths
	deps    Deps
	opts    Options
	logger  *logger.Logger
	metrics *metrics.Manager
}

// New creates a pipeline.
func New(paths Paths, deps Deps, opts Options) *Pipeline {
	log := deps.Logger
	if log == nil {
		log = logger.Discard()
	}
	if deps.Mapper == nil {
		deps.Mapper = category.NewDefaultMapper()
	}
	return &Pipeline{paths: paths, deps: deps, opts: opts, logger: log, metrics: deps.Metrics}
}

// StageResult reports one completed stage.
type StageResult struct {
	Stage    Stage         `json:"stage"`
	Rows     int           `json:"rows"`
	Output   string        `json:"output"`
	Duration time.Duration `json:"duration"`
	// Details carries stage-specific counts, e.g. the clean report.
	Details any `json:"details,omitempty"`
}

// Report is the outcome of a run.
type Report struct {
	RunID  string        `json:"run_id"`
	Stages []StageResult `json:"stages"`
}

// Run executes every stage in order and stops at the first failure.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	return p.RunStages(ctx, Stages()...)
}

// RunStages executes the given stages in order under one run id and stops at the first failure.
func (p *Pipeline) RunStages(ctx context.Context, stages ...Stage) (*Report, error) {
	runID, err := id.Generate("run")
	if err != nil {
		return nil, err
	}
	log := p.logger.WithRun(runID)
	report := &Report{RunID: runID}

	log.Info("pipeline run started", "stages", len(stages))
	start := time.Now()

	for _, stage := range stages {
		res, err := p.runStage(ctx, runID, stage, log)
		if err != nil {
			log.WithError(err).Error("pipeline run failed", "stage", stage)
			return report, err
		}
		report.Stages = append(report.Stages, *res)
	}

	log.Info("pipeline run finished", "duration", time.Since(start))
	return report, nil
}

func (p *Pipeline) runStage(ctx context.Context, runID string, stage Stage, log *logger.Logger) (*StageResult, error) {
	log = log.WithField("stage", string(stage))
	log.Info("stage started")
	start := time.Now()

	var (
		res *StageResult
		err error
	)
	switch stage {
	case StageClean:
		res, err = p.clean(ctx, log)
	case StageCategorize:
		res, err = p.categorize(ctx, log)
	case StageEmotions:
		res, err = p.emotions(ctx, log)
	case StageIndex:
		res, err = p.index(ctx, runID, log)
	default:
		err = domainerrors.Configurationf("unknown stage %q", stage)
	}

	d := time.Since(start)
	rows := 0
	if res != nil {
		rows = res.Rows
	}
	p.metrics.ObserveStage(string(stage), d, rows, err)
	if err != nil {
		return nil, fmt.Errorf("stage %s: %w", stage, err)
	}

	res.Stage = stage
	res.Duration = d
	log.Info("stage finished", "rows", res.Rows, "output", res.Output, "duration", d)
	return res, nil
}
