package scenario

import (
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/blobbench/blobbench/pkg/client"
)

// Resolver turns private keys into account identities, caching results so
// that scenarios sharing a plan-level key do not re-derive it.
type Resolver struct {
	identityCache *cache.Cache
}

func NewResolver() *Resolver {
	return &Resolver{
		identityCache: cache.New(30*time.Minute, 30*time.Minute),
	}
}

func (r *Resolver) Resolve(c client.Client, secret string) (client.Identity, error) {
	if data, found := r.identityCache.Get(secret); found {
		if identity, ok := data.(client.Identity); ok {
			return identity, nil
		}
	}
	identity, err := c.ResolveKey(secret)
	if err != nil {
		return client.Identity{}, err
	}
	r.identityCache.SetDefault(secret, identity)
	return identity, nil
}
