package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/listenupapp/bookrec/internal/domain"
	domainerrors "github.com/listenupapp/bookrec/internal/errors"
	"github.com/listenupapp/bookrec/internal/recommend"
)

func (s *Server) registerRecommendationRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "recommend",
		Method:      http.MethodGet,
		Path:        "/api/v1/recommendations",
		Summary:     "Recommend books",
		Description: "Semantic retrieval over tagged descriptions, filtered by category and emotion",
		Tags:        []string{"Recommendations"},
	}, s.handleRecommend)
}

// === DTOs ===

// RecommendInput contains parameters for a recommendation query.
type RecommendInput struct {
	Query    string `query:"q" validate:"required,max=1000" doc:"Free-text description of the wanted book"`
	Category string `query:"category" default:"All" validate:"max=100" doc:"Simple category, or All"`
	Emotion  string `query:"emotion" default:"All" validate:"max=50" doc:"Emotion a book must express (positive score), or All"`
	Limit    int    `query:"limit" default:"5" validate:"gte=1,lte=100" doc:"Documents retrieved before filtering, so at most this many books are returned"`
}

// BookResponse is one recommended or looked-up book.
type BookResponse struct {
	ISBN13        int64              `json:"isbn13" doc:"ISBN-13"`
	Title         string             `json:"title" doc:"Title, with subtitle when present"`
	Authors       string             `json:"authors,omitempty" doc:"Semicolon separated authors"`
	Category      string             `json:"category,omitempty" doc:"Simple category"`
	Description   string             `json:"description" doc:"Full description"`
	Summary       string             `json:"summary" doc:"First words of the description"`
	Thumbnail     string             `json:"thumbnail,omitempty" doc:"Cover URL"`
	PublishedYear *int               `json:"published_year,omitempty" doc:"Publication year"`
	AverageRating *float64           `json:"average_rating,omitempty" doc:"Average reader rating"`
	NumPages      *int               `json:"num_pages,omitempty" doc:"Page count"`
	Emotions      map[string]float64 `json:"emotions,omitempty" doc:"Per-emotion scores"`
}

// RecommendResponse contains filtered recommendations in rank order.
type RecommendResponse struct {
	Query    string         `json:"query" doc:"Original query"`
	Category string         `json:"category" doc:"Category filter applied"`
	Emotion  string         `json:"emotion" doc:"Emotion filter applied"`
	RawCount int            `json:"raw_count" doc:"Distinct catalog books retrieved before filtering"`
	Books    []BookResponse `json:"books" doc:"Recommendations"`
}

// RecommendOutput wraps the recommendation response for Huma.
type RecommendOutput struct {
	Body RecommendResponse
}

// === Handlers ===

func (s *Server) handleRecommend(ctx context.Context, input *RecommendInput) (*RecommendOutput, error) {
	if s.services.Recommender == nil {
		return nil, domainerrors.Configurationf("recommendations are not configured")
	}
	if err := s.validator.Validate(input); err != nil {
		return nil, err
	}

	res, err := s.services.Recommender.Recommend(ctx, recommend.Request{
		Query:    input.Query,
		Category: input.Category,
		Emotion:  input.Emotion,
		TopK:     input.Limit,
	})
	if err != nil {
		s.metrics.ObserveRecommendation(0, err)
		s.logger.Warn("Recommendation failed", "error", err, "request_id", RequestIDFrom(ctx))
		return nil, err
	}

	s.metrics.ObserveRecommendation(len(res.Books), nil)

	books := make([]BookResponse, len(res.Books))
	for i := range res.Books {
		books[i] = toBookResponse(&res.Books[i])
	}

	return &RecommendOutput{Body: RecommendResponse{
		Query:    res.Query,
		Category: res.Category,
		Emotion:  res.Emotion,
		RawCount: res.Raw,
		Books:    books,
	}}, nil
}

func toBookResponse(b *domain.Book) BookResponse {
	out := BookResponse{
		ISBN13:        b.ISBN13,
		Title:         b.DisplayTitle(),
		Authors:       b.Authors,
		Category:      b.SimpleCategory,
		Description:   b.Description,
		Summary:       recommend.Truncate(b.Description, recommend.SummaryWords),
		Thumbnail:     b.Thumbnail,
		PublishedYear: b.PublishedYear,
		AverageRating: b.AverageRating,
		NumPages:      b.NumPages,
	}
	if len(b.Emotions) > 0 {
		out.Emotions = make(map[string]float64, len(b.Emotions))
		for _, l := range domain.EmotionLabels() {
			if v, ok := b.Emotions.Get(l); ok {
				out.Emotions[string(l)] = v
			}
		}
	}
	return out
}
