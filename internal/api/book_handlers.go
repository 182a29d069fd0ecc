package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/listenupapp/bookrec/internal/errors"
)

func (s *Server) registerBookRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getBook",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/{isbn13}",
		Summary:     "Get book",
		Description: "Returns one catalog book by ISBN-13",
		Tags:        []string{"Books"},
	}, s.handleGetBook)
}

// GetBookInput identifies a catalog book.
type GetBookInput struct {
	ISBN13 int64 `path:"isbn13" doc:"ISBN-13"`
}

// BookOutput wraps a book for Huma.
type BookOutput struct {
	Body BookResponse
}

func (s *Server) handleGetBook(ctx context.Context, input *GetBookInput) (*BookOutput, error) {
	if s.services.Catalog == nil {
		return nil, domainerrors.Configurationf("catalog is not configured")
	}

	book, ok, err := s.services.Catalog.GetBook(ctx, input.ISBN13)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domainerrors.NotFoundf("book %d not found", input.ISBN13)
	}
	return &BookOutput{Body: toBookResponse(&book)}, nil
}
