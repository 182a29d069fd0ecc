package api

import (
	"context"

	"github.com/listenupapp/bookrec/internal/domain"
	"github.com/listenupapp/bookrec/internal/recommend"
	"github.com/listenupapp/bookrec/internal/search"
)

// Recommender answers recommendation queries.
type Recommender interface {
	Recommend(ctx context.Context, req recommend.Request) (*recommend.Result, error)
}

// Searcher runs lexical queries.
type Searcher interface {
	Search(ctx context.Context, params search.SearchParams) (*search.SearchResult, error)
	DocumentCount() (uint64, error)
}

// Catalog is the read side of the book catalog.
type Catalog interface {
	GetBook(ctx context.Context, isbn13 int64) (domain.Book, bool, error)
	Count(ctx context.Context) (int, error)
	Ping(ctx context.Context) error
}

// VectorIndex reports the size of the embedding store.
type VectorIndex interface {
	Count(ctx context.Context) (int, error)
}

// Breaker reports the state of the circuit breaker guarding outbound inference calls.
type Breaker interface {
	BreakerState() string
}

// Services groups the components the handlers call. Nil members disable the routes that need them and
// report as unconfigured in health checks.
type Services struct {
	Recommender Recommender
	Search      Searcher
	Catalog     Catalog
	Vectors     VectorIndex
	// Inference is reported in health checks only when set.
	Inference Breaker
}
