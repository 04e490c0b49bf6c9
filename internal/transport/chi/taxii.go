package chi

import (
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/stixfeed/internal/domain"
	domcol "github.com/kailas-cloud/stixfeed/internal/domain/collection"
	"github.com/kailas-cloud/stixfeed/internal/domain/stix"
	"github.com/kailas-cloud/stixfeed/internal/logger"
	accessuc "github.com/kailas-cloud/stixfeed/internal/usecase/access"
)

// Response headers bounding the dates of a returned page.
const (
	headerDateAddedFirst = "X-TAXII-Date-Added-First"
	headerDateAddedLast  = "X-TAXII-Date-Added-Last"
)

type discoveryResponse struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Contact     string   `json:"contact,omitempty"`
	Default     string   `json:"default"`
	APIRoots    []string `json:"api_roots"`
}

type apiRootResponse struct {
	Title            string   `json:"title"`
	Description      string   `json:"description,omitempty"`
	Versions         []string `json:"versions"`
	MaxContentLength int      `json:"max_content_length"`
}

type collectionsResponse struct {
	Collections []accessuc.Resource `json:"collections"`
}

// GetDiscovery handles GET /taxii2/.
func (s *Server) GetDiscovery(w http.ResponseWriter, _ *http.Request) {
	root := fmt.Sprintf("/taxii2/%s/", s.info.APIRoot)
	writeTAXII(w, http.StatusOK, discoveryResponse{
		Title:       s.info.Title,
		Description: s.info.Description,
		Contact:     s.info.Contact,
		Default:     root,
		APIRoots:    []string{root},
	})
}

// GetAPIRoot handles GET /taxii2/{root}/.
func (s *Server) GetAPIRoot(w http.ResponseWriter, _ *http.Request) {
	writeTAXII(w, http.StatusOK, apiRootResponse{
		Title:            s.info.Title,
		Description:      s.info.Description,
		Versions:         []string{stix.TaxiiMediaType},
		MaxContentLength: s.info.MaxContentLength,
	})
}

// ListCollections handles GET /taxii2/{root}/collections/.
func (s *Server) ListCollections(w http.ResponseWriter, r *http.Request) {
	resources, err := s.access.RestAllCollections(r.Context(), PrincipalFromContext(r.Context()))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeTAXII(w, http.StatusOK, collectionsResponse{Collections: resources})
}

// GetCollection handles GET /taxii2/{root}/collections/{id}/.
func (s *Server) GetCollection(w http.ResponseWriter, r *http.Request) {
	col, err := s.resolveCollection(r)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeTAXII(w, http.StatusOK, accessuc.RestBuildCollection(col))
}

// GetObjects handles GET /taxii2/{root}/collections/{id}/objects/.
func (s *Server) GetObjects(w http.ResponseWriter, r *http.Request) {
	col, err := s.readableCollection(r)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	args, err := bindFeedArgs(r)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	ctx := logger.With(r.Context(), zap.String("collection_id", col.ID()))
	env, err := s.feeds.FeedObjects(ctx, col, args)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	setDateAddedHeaders(w, len(env.Objects) > 0, env.DateAddedFirst, env.DateAddedLast)
	writeTAXII(w, http.StatusOK, env)
}

// GetManifest handles GET /taxii2/{root}/collections/{id}/manifest/.
func (s *Server) GetManifest(w http.ResponseWriter, r *http.Request) {
	col, err := s.readableCollection(r)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	args, err := bindFeedArgs(r)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	ctx := logger.With(r.Context(), zap.String("collection_id", col.ID()))
	env, err := s.feeds.FeedManifest(ctx, col, args)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	setDateAddedHeaders(w, len(env.Objects) > 0, env.DateAddedFirst, env.DateAddedLast)
	writeTAXII(w, http.StatusOK, env)
}

func (s *Server) resolveCollection(r *http.Request) (domcol.Collection, error) {
	id, err := collectionID(r)
	if err != nil {
		return domcol.Collection{}, err
	}
	return s.access.FindByID(r.Context(), PrincipalFromContext(r.Context()), id)
}

// readableCollection resolves a collection whose content may be served.
func (s *Server) readableCollection(r *http.Request) (domcol.Collection, error) {
	col, err := s.resolveCollection(r)
	if err != nil {
		return domcol.Collection{}, err
	}
	if !col.CanRead() {
		return domcol.Collection{}, fmt.Errorf("collection %s: %w", col.ID(), domain.ErrForbidden)
	}
	return col, nil
}

func setDateAddedHeaders(w http.ResponseWriter, nonEmpty bool, first, last time.Time) {
	if !nonEmpty || first.IsZero() {
		return
	}
	w.Header().Set(headerDateAddedFirst, stix.FormatTimestamp(first))
	w.Header().Set(headerDateAddedLast, stix.FormatTimestamp(last))
}
