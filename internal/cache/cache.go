// Package cache provides caching for rendered previews and report exports.
package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/allegro/bigcache/v3"
	lru "github.com/hashicorp/golang-lru/v2"
)

// Config contains cache configuration.
type Config struct {
	PreviewCacheSizeMB int
	PreviewTTL         time.Duration
	ReportCacheSize    int
}

// Manager manages preview and report caches.
type Manager struct {
	previewCache *bigcache.BigCache
	reportCache  *lru.Cache[string, []byte]
}

// NewManager creates a new cache manager.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.PreviewTTL <= 0 {
		cfg.PreviewTTL = 10 * time.Minute
	}
	if cfg.ReportCacheSize <= 0 {
		cfg.ReportCacheSize = 256
	}

	previewCacheConfig := bigcache.Config{
		Shards:             256,
		LifeWindow:         cfg.PreviewTTL,
		CleanWindow:        cfg.PreviewTTL / 2,
		MaxEntriesInWindow: 10000,
		MaxEntrySize:       64 * 1024, // typical mosaic PNG
		HardMaxCacheSize:   cfg.PreviewCacheSizeMB,
		Verbose:            false,
	}

	previewCache, err := bigcache.New(context.Background(), previewCacheConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create preview cache: %w", err)
	}

	reportCache, err := lru.New[string, []byte](cfg.ReportCacheSize)
	if err != nil {
		previewCache.Close()
		return nil, fmt.Errorf("failed to create report cache: %w", err)
	}

	return &Manager{
		previewCache: previewCache,
		reportCache:  reportCache,
	}, nil
}

// GetPreview retrieves a rendered PNG from cache.
func (m *Manager) GetPreview(key string) ([]byte, bool) {
	data, err := m.previewCache.Get(key)
	if err != nil {
		return nil, false
	}
	return data, true
}

// SetPreview stores a rendered PNG in cache.
func (m *Manager) SetPreview(key string, data []byte) error {
	return m.previewCache.Set(key, data)
}

// GetReport retrieves an encoded report from cache.
func (m *Manager) GetReport(key string) ([]byte, bool) {
	return m.reportCache.Get(key)
}

// SetReport stores an encoded report in cache.
func (m *Manager) SetReport(key string, data []byte) {
	m.reportCache.Add(key, data)
}

// Forget drops cached reports of a session. Previews age out on their own.
func (m *Manager) Forget(sessionID string) {
	prefix := "report:" + sessionID + ":"
	for _, k := range m.reportCache.Keys() {
		if strings.HasPrefix(k, prefix) {
			m.reportCache.Remove(k)
		}
	}
}

// PreviewKey generates a cache key for a rendered preview of one analysis.
// Extra parts (e.g. a cell address) are appended in order.
func PreviewKey(sessionID string, generation uint64, kind string, parts ...string) string {
	key := fmt.Sprintf("preview:%s:%d:%s", sessionID, generation, kind)
	if len(parts) == 0 {
		return key
	}
	return key + ":" + strings.Join(parts, ":")
}

// ReportKey generates a cache key for an encoded report of one analysis.
func ReportKey(sessionID string, generation uint64, format string) string {
	return fmt.Sprintf("report:%s:%d:%s", sessionID, generation, format)
}

// Stats returns cache statistics.
func (m *Manager) Stats() map[string]interface{} {
	return map[string]interface{}{
		"preview_cache_len": m.previewCache.Len(),
		"preview_cache_cap": m.previewCache.Capacity(),
		"report_cache_len":  m.reportCache.Len(),
	}
}

// Close closes the cache manager.
func (m *Manager) Close() error {
	return m.previewCache.Close()
}
