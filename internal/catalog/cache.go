package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"area/internal/api"
	"area/pkg/logging"
)

// ErrCatalogUnavailable indicates the capability catalog could not be
// fetched from the backend.
var ErrCatalogUnavailable = errors.New("capability catalog unavailable")

// Fetcher retrieves the about document. *api.Client satisfies it; tests
// substitute counting fakes.
type Fetcher interface {
	About(ctx context.Context) (*api.AboutResponse, error)
}

// Cache memoizes the capability catalog. Safe for concurrent use.
type Cache struct {
	fetcher Fetcher
	group   singleflight.Group

	mu       sync.RWMutex
	services map[string]api.Service
	order    []string
	loaded   bool
}

// NewCache creates a catalog cache backed by fetcher.
func NewCache(fetcher Fetcher) *Cache {
	return &Cache{fetcher: fetcher}
}

// Services returns every catalog entry in the order the backend listed
// them, fetching the catalog on first use. Concurrent first calls share
// one fetch.
func (c *Cache) Services(ctx context.Context) ([]api.Service, error) {
	if err := c.ensure(ctx); err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	services := make([]api.Service, 0, len(c.order))
	for _, name := range c.order {
		services = append(services, c.services[name])
	}
	return services, nil
}

// Service returns the catalog entry for a service name. A name absent
// from a loaded catalog is an error without any further network traffic.
func (c *Cache) Service(ctx context.Context, name string) (*api.Service, error) {
	if err := c.ensure(ctx); err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	svc, ok := c.services[name]
	if !ok {
		return nil, fmt.Errorf("unknown service %q", name)
	}
	return &svc, nil
}

// OAuthServices returns the catalog entries that require an OAuth
// connection. A fetch failure degrades to an empty list so that callers
// rendering connection state keep working while the backend is down.
func (c *Cache) OAuthServices(ctx context.Context) []api.Service {
	services, err := c.Services(ctx)
	if err != nil {
		logging.Warn("Catalog", "Capability catalog unavailable: %v", err)
		return nil
	}

	var oauth []api.Service
	for _, svc := range services {
		if svc.RequiresOAuth {
			oauth = append(oauth, svc)
		}
	}
	return oauth
}

// Invalidate drops the cached catalog; the next lookup fetches again.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.services = nil
	c.order = nil
	c.loaded = false
}

func (c *Cache) ensure(ctx context.Context) error {
	c.mu.RLock()
	loaded := c.loaded
	c.mu.RUnlock()
	if loaded {
		return nil
	}

	// singleflight collapses concurrent cold lookups into one fetch; a
	// fetch error is returned to every waiter and nothing is cached.
	_, err, _ := c.group.Do("about", func() (interface{}, error) {
		c.mu.RLock()
		loaded := c.loaded
		c.mu.RUnlock()
		if loaded {
			return nil, nil
		}

		about, err := c.fetcher.About(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
		}

		services := make(map[string]api.Service, len(about.Server.Services))
		order := make([]string, 0, len(about.Server.Services))
		for _, svc := range about.Server.Services {
			if _, seen := services[svc.Name]; seen {
				continue
			}
			services[svc.Name] = svc
			order = append(order, svc.Name)
		}

		c.mu.Lock()
		c.services = services
		c.order = order
		c.loaded = true
		c.mu.Unlock()

		logging.Debug("Catalog", "Loaded capability catalog with %d services", len(order))
		return nil, nil
	})
	return err
}
