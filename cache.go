package spacetraveling

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/sync/singleflight"

	"github.com/eringen/spacetraveling/content"
)

// regenerateTimeout bounds a background regeneration.
const regenerateTimeout = time.Minute

// RenderFunc generates the body of a page.
type RenderFunc func(ctx context.Context) ([]byte, error)

type cachedPage struct {
	body      []byte
	generated time.Time
}

// cacheToken identifies what a page looked like to the cache when a render
// started. Invalidation changes it, and a render finishing under an older
// token is not stored.
type cacheToken struct {
	epoch uint64
	gen   uint64
}

// PageCache holds generated pages by path. A page younger than the
// revalidation window is served as is; an older one is still served while a
// single background regeneration replaces it. Pages never generated before
// are rendered on the request that first asks for them.
type PageCache struct {
	mu         sync.RWMutex
	pages      map[string]cachedPage
	refreshing map[string]bool
	gens       map[string]uint64
	epoch      uint64
	revalidate time.Duration
	store      *Store
	group      singleflight.Group
	logger     echo.Logger
	now        func() time.Time
}

// NewPageCache creates a PageCache. A non-nil store persists pages across restarts.
func NewPageCache(s *Store, revalidate time.Duration, logger echo.Logger) *PageCache {
	return &PageCache{
		pages:      make(map[string]cachedPage),
		refreshing: make(map[string]bool),
		gens:       make(map[string]uint64),
		revalidate: revalidate,
		store:      s,
		logger:     logger,
		now:        time.Now,
	}
}

// Get returns the page at path, generating it with render when needed.
func (c *PageCache) Get(ctx context.Context, path string, render RenderFunc) ([]byte, error) {
	page, ok := c.lookup(path)
	if ok {
		if c.now().Sub(page.generated) >= c.revalidate {
			c.regenerateAsync(path, render)
		}
		return page.body, nil
	}
	// The render is shared by every waiting request, so it must not be
	// cancelled when the request that started it goes away.
	v, err, _ := c.group.Do(path, func() (any, error) {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), regenerateTimeout)
		defer cancel()
		return c.regenerate(rctx, path, render)
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// Put stores an already generated page.
func (c *PageCache) Put(path string, body []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.putLocked(path, cachedPage{body: body, generated: c.now()})
}

// Invalidate drops path so the next request regenerates it. A regeneration
// of path already in flight finishes without storing its result.
func (c *PageCache) Invalidate(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gens[path]++
	delete(c.pages, path)
	if c.store != nil {
		if err := c.store.DeletePage(path); err != nil {
			c.logger.Errorf("page cache: delete %s: %v", path, err)
		}
	}
}

// InvalidateAll drops every page, including any being regenerated.
func (c *PageCache) InvalidateAll() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++
	c.gens = make(map[string]uint64)
	c.pages = make(map[string]cachedPage)
	if c.store != nil {
		return c.store.DeleteAllPages()
	}
	return nil
}

// Len returns the number of pages held in memory.
func (c *PageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.pages)
}

func (c *PageCache) lookup(path string) (cachedPage, bool) {
	c.mu.RLock()
	page, ok := c.pages[path]
	c.mu.RUnlock()
	if ok || c.store == nil {
		return page, ok
	}
	tok := c.token(path)
	stored, err := c.store.GetPage(path)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			c.logger.Errorf("page cache: load %s: %v", path, err)
		}
		return cachedPage{}, false
	}
	page = cachedPage{body: stored.Body, generated: stored.GeneratedAt}
	c.mu.Lock()
	if _, exists := c.pages[path]; !exists && tok == (cacheToken{epoch: c.epoch, gen: c.gens[path]}) {
		c.pages[path] = page
	}
	c.mu.Unlock()
	return page, true
}

func (c *PageCache) token(path string) cacheToken {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cacheToken{epoch: c.epoch, gen: c.gens[path]}
}

// regenerate renders path and stores the result unless the page was
// invalidated while rendering. The body is returned either way.
func (c *PageCache) regenerate(ctx context.Context, path string, render RenderFunc) ([]byte, error) {
	tok := c.token(path)
	body, err := render(ctx)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if tok != (cacheToken{epoch: c.epoch, gen: c.gens[path]}) {
		c.logger.Debugf("page cache: %s invalidated during render, not storing", path)
		return body, nil
	}
	c.putLocked(path, cachedPage{body: body, generated: c.now()})
	return body, nil
}

// putLocked stores page in memory and in the store. The store write happens
// under c.mu so it cannot land after a concurrent invalidation.
func (c *PageCache) putLocked(path string, page cachedPage) {
	c.pages[path] = page
	if c.store != nil {
		if err := c.store.SavePage(path, page.body, page.generated); err != nil {
			c.logger.Errorf("page cache: save %s: %v", path, err)
		}
	}
}

func (c *PageCache) regenerateAsync(path string, render RenderFunc) {
	c.mu.Lock()
	if c.refreshing[path] {
		c.mu.Unlock()
		return
	}
	c.refreshing[path] = true
	c.mu.Unlock()

	go func() {
		defer func() {
			c.mu.Lock()
			delete(c.refreshing, path)
			c.mu.Unlock()
		}()
		ctx, cancel := context.WithTimeout(context.Background(), regenerateTimeout)
		defer cancel()
		_, err, _ := c.group.Do(path, func() (any, error) {
			return c.regenerate(ctx, path, render)
		})
		switch {
		case err == nil:
		case errors.Is(err, content.ErrNotFound):
			c.logger.Infof("page cache: %s no longer exists, dropping", path)
			c.Invalidate(path)
		default:
			c.logger.Warnf("page cache: regenerate %s: %v (serving stale page)", path, err)
		}
	}()
}
