package access

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	domcol "github.com/kailas-cloud/stixfeed/internal/domain/collection"
	"github.com/kailas-cloud/stixfeed/internal/domain/principal"
	"github.com/kailas-cloud/stixfeed/internal/domain/stix"
	"github.com/kailas-cloud/stixfeed/internal/logger"
)

// Resource is the TAXII projection of a collection.
type Resource struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	CanRead     bool     `json:"can_read"`
	CanWrite    bool     `json:"can_write"`
	MediaTypes  []string `json:"media_types"`
}

// Service decides which collections a principal may see.
type Service struct {
	repo Repository
}

// New creates an access service.
func New(repo Repository) *Service {
	return &Service{repo: repo}
}

// FindAll lists the collections visible to p. Principals holding the TAXII
// capability see every collection with its authorized members; everyone else
// sees public collections only, without members.
func (s *Service) FindAll(ctx context.Context, p *principal.Principal) ([]domcol.Collection, error) {
	if principal.HasCapability(p, principal.CapabilityTAXIIAPI) {
		cols, err := s.repo.List(ctx, domcol.KindRead, domcol.KindIngestion)
		if err != nil {
			return nil, fmt.Errorf("list collections: %w", err)
		}
		return cols, nil
	}

	cols, err := s.repo.List(ctx, domcol.KindRead, domcol.KindIngestion)
	if err != nil {
		return nil, fmt.Errorf("list public collections: %w", err)
	}
	public := make([]domcol.Collection, 0, len(cols))
	for _, c := range cols {
		if c.TaxiiPublic() {
			public = append(public, c.WithoutAuthorities())
		}
	}
	return public, nil
}

// FindByID resolves a single collection of either kind.
func (s *Service) FindByID(ctx context.Context, p *principal.Principal, id string) (domcol.Collection, error) {
	col, err := s.repo.FindByID(ctx, p, id)
	if err != nil {
		return domcol.Collection{}, fmt.Errorf("find collection %s: %w", id, err)
	}
	return col, nil
}

// RestAllCollections projects the visible collections, hiding ingestion
// collections whose ingestion is stopped.
func (s *Service) RestAllCollections(ctx context.Context, p *principal.Principal) ([]Resource, error) {
	cols, err := s.FindAll(ctx, p)
	if err != nil {
		return nil, err
	}
	out := make([]Resource, 0, len(cols))
	hidden := 0
	for _, c := range cols {
		if c.Kind() == domcol.KindIngestion && c.IsIngestionStopped() {
			hidden++
			continue
		}
		out = append(out, RestBuildCollection(c))
	}
	if hidden > 0 {
		logger.FromContext(ctx).Debug("Stopped ingestion collections hidden", zap.Int("count", hidden))
	}
	return out, nil
}

// RestBuildCollection projects one collection.
func RestBuildCollection(c domcol.Collection) Resource {
	return Resource{
		ID:          c.ID(),
		Title:       c.Name(),
		Description: c.Description(),
		CanRead:     c.CanRead(),
		CanWrite:    c.CanWrite(),
		MediaTypes:  []string{stix.MediaType},
	}
}
