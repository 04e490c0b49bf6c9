package access

import (
	"context"

	domcol "github.com/kailas-cloud/stixfeed/internal/domain/collection"
	"github.com/kailas-cloud/stixfeed/internal/domain/principal"
)

// Repository defines the read contract for collections of both kinds.
type Repository interface {
	// FindByID resolves a collection the principal may see, or domain.ErrNotFound.
	FindByID(ctx context.Context, p *principal.Principal, id string) (domcol.Collection, error)
	List(ctx context.Context, kinds ...domcol.Kind) ([]domcol.Collection, error)
}
