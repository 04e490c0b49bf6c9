package principal

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/kailas-cloud/stixfeed/internal/domain"
	"github.com/kailas-cloud/stixfeed/internal/domain/principal"
)

// Cache defaults.
const (
	DefaultCacheSize = 1024
	DefaultCacheTTL  = time.Minute
)

// store is the consumer interface for principals (ISP).
type store interface {
	HGetAll(ctx context.Context, key string) (map[string]string, error)
}

// Repo resolves bearer tokens to principals. Resolved principals are cached
// for a bounded time; unknown tokens are never cached.
type Repo struct {
	store store
	cache *expirable.LRU[string, *principal.Principal]
}

// New creates a principal repository. Non-positive size or ttl fall back to defaults.
func New(s store, size int, ttl time.Duration) *Repo {
	if size <= 0 {
		size = DefaultCacheSize
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Repo{
		store: s,
		cache: expirable.NewLRU[string, *principal.Principal](size, nil, ttl),
	}
}

// Authenticate returns the principal owning token, or domain.ErrUnauthorized.
func (r *Repo) Authenticate(ctx context.Context, token string) (*principal.Principal, error) {
	if token == "" {
		return nil, domain.ErrUnauthorized
	}
	digest := tokenDigest(token)
	if p, ok := r.cache.Get(digest); ok {
		return p, nil
	}

	m, err := r.store.HGetAll(ctx, principalKey(digest))
	if err != nil {
		return nil, fmt.Errorf("hgetall principal: %w", err)
	}
	if len(m) == 0 {
		return nil, domain.ErrUnauthorized
	}

	p, err := principalFromHash(m)
	if err != nil {
		return nil, fmt.Errorf("parse principal: %w", err)
	}
	r.cache.Add(digest, p)
	return p, nil
}

func principalFromHash(m map[string]string) (*principal.Principal, error) {
	caps := make([]principal.Capability, 0)
	for _, c := range splitList(m["capabilities"]) {
		caps = append(caps, principal.Capability(strings.ToUpper(c)))
	}
	p, err := principal.New(m["id"], m["name"], splitList(m["group_ids"]), caps)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func splitList(raw string) []string {
	var out []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func tokenDigest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// Redis key pattern: stixfeed:principal:{sha256(token)}

func principalKey(digest string) string {
	return fmt.Sprintf("%sprincipal:%s", domain.KeyPrefix, digest)
}
