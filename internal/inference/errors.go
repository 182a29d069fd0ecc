package inference

import (
	"context"
	"errors"
	"fmt"

	domainerrors "github.com/listenupapp/bookrec/internal/errors"
)

// Sentinel errors for inference API calls.
var (
	ErrUnauthorized = errors.New("inference: unauthorized")
	ErrNotFound     = errors.New("inference: model not found")
	ErrBadRequest   = errors.New("inference: bad request")
	ErrRateLimited  = errors.New("inference: rate limited by server")
	ErrModelLoading = errors.New("inference: model is loading")
	ErrServer       = errors.New("inference: server error")
	ErrBadResponse  = errors.New("inference: unexpected response shape")
)

// Error wraps an underlying error with the task and model it came from.
type Error struct {
	Op    string // "zero-shot", "emotion", "embed"
	Model string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("inference %s [%s]: %v", e.Op, e.Model, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// wrapError tags a failed call with its task and model and codes it UPSTREAM_ERROR. Cancellation is the
// caller's doing and keeps no code.
func wrapError(op, model string, err error) error {
	ie := &Error{Op: op, Model: model, Err: err}
	if errors.Is(err, context.Canceled) {
		return ie
	}
	return domainerrors.ErrUpstream.WithCause(ie)
}
