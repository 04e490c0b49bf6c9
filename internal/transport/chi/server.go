package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kailas-cloud/stixfeed/internal/domain"
	"github.com/kailas-cloud/stixfeed/internal/domain/stix"
	"github.com/kailas-cloud/stixfeed/internal/logger"
	accessuc "github.com/kailas-cloud/stixfeed/internal/usecase/access"
	feeduc "github.com/kailas-cloud/stixfeed/internal/usecase/feed"
	healthuc "github.com/kailas-cloud/stixfeed/internal/usecase/health"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Info describes the server in the discovery and api root resources.
type Info struct {
	Title            string
	Description      string
	Contact          string
	APIRoot          string
	MaxContentLength int
}

// Server serves the TAXII 2.1 read surface.
type Server struct {
	access        *accessuc.Service
	feeds         *feeduc.Service
	health        *healthuc.Service
	info          Info
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	access *accessuc.Service,
	feeds *feeduc.Service,
	health *healthuc.Service,
	info Info,
	logger *zap.Logger,
) *Server {
	s := &Server{
		access: access,
		feeds:  feeds,
		health: health,
		info:   info,
		logger: logger,
	}
	s.errorHandlers = []errorHandler{
		typedHandler[*domain.ProtocolVersionError](http.StatusBadRequest, "Invalid spec_version"),
		typedHandler[*domain.UnsupportedVersionSelectorError](http.StatusBadRequest, "Invalid version"),
		typedHandler[*domain.InvalidLimitError](http.StatusBadRequest, "Invalid limit"),
		sentinelHandler(domain.ErrInvalidCursor, http.StatusBadRequest, "Invalid next"),
		sentinelHandler(domain.ErrInvalidParameter, http.StatusBadRequest, "Invalid parameter"),
		sentinelHandler(domain.ErrInvalidFilter, http.StatusBadRequest, "Invalid collection filter"),
		sentinelHandler(domain.ErrUnauthorized, http.StatusUnauthorized, "Unauthorized"),
		sentinelHandler(domain.ErrForbidden, http.StatusForbidden, "Forbidden"),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, "Not found"),
	}
	return s
}

// Routes registers the TAXII resources on r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.GetHealth)
	r.Route("/taxii2", func(r chi.Router) {
		r.Use(NegotiateMiddleware)
		r.Get("/", s.GetDiscovery)
		r.Route("/{root}", func(r chi.Router) {
			r.Use(s.apiRootMiddleware)
			r.Get("/", s.GetAPIRoot)
			r.Get("/collections/", s.ListCollections)
			r.Get("/collections/{id}/", s.GetCollection)
			r.Get("/collections/{id}/objects/", s.GetObjects)
			r.Get("/collections/{id}/manifest/", s.GetManifest)
		})
	})
}

// apiRootMiddleware answers 404 for any api root other than the configured one.
func (s *Server) apiRootMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if chi.URLParam(r, "root") != s.info.APIRoot {
			writeTAXIIError(w, http.StatusNotFound, "Unknown API root", "")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())
	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}
	status := http.StatusOK
	if report.Status != healthuc.Healthy {
		status = http.StatusServiceUnavailable
		s.logger.Warn("health check degraded", zap.Any("checks", checks))
	}
	writeJSON(w, status, "application/json", map[string]any{
		"status": string(report.Status),
		"checks": checks,
	})
}

// --- Response helpers ---

// taxiiError is the TAXII 2.1 error message resource.
type taxiiError struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	HTTPStatus  string `json:"http_status"`
}

func writeJSON(w http.ResponseWriter, status int, contentType string, v any) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeTAXII(w http.ResponseWriter, status int, v any) {
	writeJSON(w, status, stix.TaxiiMediaType, v)
}

func writeTAXIIError(w http.ResponseWriter, status int, title, description string) {
	writeTAXII(w, status, taxiiError{
		Title:       title,
		Description: description,
		HTTPStatus:  strconv.Itoa(status),
	})
}

// sentinelHandler maps a sentinel to a status; the description is the sentinel text only.
func sentinelHandler(sentinel error, status int, title string) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeTAXIIError(w, status, title, sentinel.Error())
		return true
	}
}

// typedHandler maps a typed protocol error; its message names the rejected value.
func typedHandler[E error](status int, title string) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		var target E
		if !errors.As(err, &target) {
			return false
		}
		writeTAXIIError(w, status, title, target.Error())
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())
	for _, h := range s.errorHandlers {
		if h(w, err) {
			log.Debug("domain error", zap.Error(err))
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeTAXIIError(w, http.StatusInternalServerError, "Internal error", "")
}
