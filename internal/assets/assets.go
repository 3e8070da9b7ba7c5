// Package assets loads glTF vehicle models into scene graphs.
package assets

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/qmuntal/gltf"
	"go.uber.org/zap"

	"github.com/Faultbox/carviewer/internal/engine/scene"
	"github.com/Faultbox/carviewer/internal/logger"
)

// Callbacks receive the outcome of one load. OnProgress may fire several
// times; exactly one of OnSuccess or OnError fires last. Callbacks run on the
// loader goroutine.
type Callbacks struct {
	OnProgress func(fraction float32)
	OnSuccess  func(asset *scene.Asset)
	OnError    func(err error)
}

func (c Callbacks) progress(f float32) {
	if c.OnProgress != nil {
		c.OnProgress(f)
	}
}

// Loader decodes glTF files in the background. Decoded documents are cached
// by path and modification time; every load converts a fresh scene graph.
type Loader struct {
	cache *Cache
	open  func(path string) (*gltf.Document, error)
	wg    sync.WaitGroup
	log   *zap.Logger
}

// NewLoader creates a loader with an empty cache.
func NewLoader() *Loader {
	return &Loader{
		cache: NewCache(),
		open:  gltf.Open,
		log:   logger.Named("assets"),
	}
}

// Cache returns the document cache.
func (l *Loader) Cache() *Cache {
	return l.cache
}

// Load starts decoding path and returns immediately. Cancelling ctx
// suppresses the result.
func (l *Loader) Load(ctx context.Context, path string, cb Callbacks) {
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		asset, err := l.LoadSync(ctx, path, cb.progress)
		if ctx.Err() != nil {
			l.log.Debug("load cancelled", zap.String("path", path))
			return
		}
		if err != nil {
			if cb.OnError != nil {
				cb.OnError(err)
			}
			return
		}
		if cb.OnSuccess != nil {
			cb.OnSuccess(asset)
		}
	}()
}

// Wait blocks until every started load has finished.
func (l *Loader) Wait() {
	l.wg.Wait()
}

// LoadSync decodes and converts path on the calling goroutine.
func (l *Loader) LoadSync(ctx context.Context, path string, progress func(float32)) (*scene.Asset, error) {
	if progress == nil {
		progress = func(float32) {}
	}
	start := time.Now()
	progress(0)

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	key := CacheKey{Path: path, ModTime: info.ModTime()}

	doc, ok := l.cache.Get(key)
	if !ok {
		doc, err = l.open(path)
		if err != nil {
			return nil, fmt.Errorf("decoding %s: %w", path, err)
		}
		l.cache.Set(key, doc)
	}
	progress(0.6)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	root, err := Convert(doc)
	if err != nil {
		return nil, fmt.Errorf("converting %s: %w", path, err)
	}
	asset := scene.NewAsset(path, root)
	progress(1)

	l.log.Info("asset loaded",
		zap.String("path", path),
		zap.Int("nodes", root.Count()),
		zap.Float32("radius", asset.Bounds.Radius),
		zap.Bool("cached", ok),
		zap.Duration("took", time.Since(start)),
	)
	return asset, nil
}

// CacheKey identifies one version of a file on disk.
type CacheKey struct {
	Path    string
	ModTime time.Time
}

// Cache is an in-memory cache of decoded documents.
type Cache struct {
	data map[string]cacheEntry
	mu   sync.RWMutex

	hits   int
	misses int
}

type cacheEntry struct {
	modTime time.Time
	doc     *gltf.Document
}

// NewCache creates a new cache.
func NewCache() *Cache {
	return &Cache{
		data: make(map[string]cacheEntry),
	}
}

// Get returns the document for key. An entry for the same path with a
// different modification time is a miss.
func (c *Cache) Get(key CacheKey) (*gltf.Document, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.data[key.Path]
	if ok && e.modTime.Equal(key.ModTime) {
		c.hits++
		return e.doc, true
	}
	c.misses++
	return nil, false
}

// Set stores doc, replacing any older version of the same path.
func (c *Cache) Set(key CacheKey, doc *gltf.Document) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key.Path] = cacheEntry{modTime: key.ModTime, doc: doc}
}

// Clear clears the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string]cacheEntry)
	c.hits = 0
	c.misses = 0
}

// Stats returns cache statistics.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}
