package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/danielgtaylor/huma/v2"
)

const (
	statusHealthy   = "healthy"
	statusDegraded  = "degraded"
	statusUnhealthy = "unhealthy"
)

func (s *Server) registerHealthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "healthCheck",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Description: "Returns server health status with component checks",
		Tags:        []string{"Health"},
	}, s.handleHealthCheck)
}

// ComponentHealth describes the health of a single component.
type ComponentHealth struct {
	Status  string `json:"status" doc:"Component status: healthy, degraded, or unhealthy"`
	Latency string `json:"latency,omitempty" doc:"Response time for this component"`
	Message string `json:"message,omitempty" doc:"Additional status information"`
}

// HealthResponse contains health check data in API responses.
type HealthResponse struct {
	Status     string                     `json:"status" doc:"Overall status: healthy, degraded, or unhealthy"`
	Components map[string]ComponentHealth `json:"components" doc:"Individual component statuses"`
}

// HealthOutput wraps the health response for Huma.
type HealthOutput struct {
	Body HealthResponse
}

func (s *Server) handleHealthCheck(ctx context.Context, _ *struct{}) (*HealthOutput, error) {
	components := map[string]ComponentHealth{
		"catalog": s.checkCatalog(ctx),
		"vectors": s.checkVectors(ctx),
		"search":  s.checkSearchIndex(),
	}
	if s.services.Inference != nil {
		components["inference"] = s.checkInference()
	}

	overall := statusHealthy
	for _, c := range components {
		switch c.Status {
		case statusUnhealthy:
			overall = statusUnhealthy
		case statusDegraded:
			if overall == statusHealthy {
				overall = statusDegraded
			}
		}
	}

	return &HealthOutput{Body: HealthResponse{Status: overall, Components: components}}, nil
}

// checkCatalog verifies SQLite is reachable.
func (s *Server) checkCatalog(ctx context.Context) ComponentHealth {
	if s.services.Catalog == nil {
		return ComponentHealth{Status: statusDegraded, Message: "catalog not configured"}
	}

	start := time.Now()
	if err := s.services.Catalog.Ping(ctx); err != nil {
		return ComponentHealth{Status: statusUnhealthy, Latency: time.Since(start).String(), Message: "catalog ping failed"}
	}
	n, err := s.services.Catalog.Count(ctx)
	latency := time.Since(start)
	switch {
	case err != nil:
		return ComponentHealth{Status: statusUnhealthy, Latency: latency.String(), Message: "catalog read failed"}
	case n == 0:
		return ComponentHealth{Status: statusDegraded, Latency: latency.String(), Message: "catalog is empty"}
	}
	return ComponentHealth{Status: statusHealthy, Latency: latency.String(), Message: strconv.Itoa(n) + " books"}
}

// checkInference maps the circuit breaker state: an open breaker fails every call until it half-opens.
func (s *Server) checkInference() ComponentHealth {
	switch state := s.services.Inference.BreakerState(); state {
	case "closed":
		return ComponentHealth{Status: statusHealthy}
	case "half-open":
		return ComponentHealth{Status: statusDegraded, Message: "circuit breaker half-open"}
	default:
		return ComponentHealth{Status: statusUnhealthy, Message: "circuit breaker " + state}
	}
}

// checkVectors counts stored embeddings. An empty store means the index stage has not run.
func (s *Server) checkVectors(ctx context.Context) ComponentHealth {
	if s.services.Vectors == nil {
		return ComponentHealth{Status: statusDegraded, Message: "vector store not configured"}
	}

	start := time.Now()
	n, err := s.services.Vectors.Count(ctx)
	latency := time.Since(start)
	switch {
	case err != nil:
		return ComponentHealth{Status: statusUnhealthy, Latency: latency.String(), Message: "vector store read failed"}
	case n == 0:
		return ComponentHealth{Status: statusDegraded, Latency: latency.String(), Message: "vector store is empty"}
	}
	return ComponentHealth{Status: statusHealthy, Latency: latency.String(), Message: strconv.Itoa(n) + " documents"}
}

// checkSearchIndex verifies the Bleve index is accessible.
func (s *Server) checkSearchIndex() ComponentHealth {
	if s.services.Search == nil {
		return ComponentHealth{Status: statusDegraded, Message: "search index not configured"}
	}

	start := time.Now()
	n, err := s.services.Search.DocumentCount()
	latency := time.Since(start)
	if err != nil {
		return ComponentHealth{Status: statusUnhealthy, Latency: latency.String(), Message: "search index read failed"}
	}
	if n == 0 {
		return ComponentHealth{Status: statusDegraded, Latency: latency.String(), Message: "search index is empty"}
	}
	return ComponentHealth{Status: statusHealthy, Latency: latency.String(), Message: strconv.FormatUint(n, 10) + " documents"}
}
