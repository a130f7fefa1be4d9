// Package catalog implements the content-hashed set catalog cache: the
// list of candidate sets and their part decomposition, refreshed from
// upstream only when the catalog index's content hash changes. The
// snapshot is a plain file, written via write-temp-then-rename so a reader
// never observes a partially written cache.
package catalog

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/Engusseus/Warframe-Market-Set-Profit-Analyzer/internal/domain"
)

// snapshot is the on-disk representation of the cache file.
type snapshot struct {
	Hash        string        `json:"hash"`
	Sets        []domain.Set  `json:"sets"`
	LastUpdated time.Time     `json:"last_updated"`
}

// Cache owns the catalog's file-backed snapshot and refreshes it against
// upstream only when the content hash of the set list changes.
type Cache struct {
	client   domain.UpstreamClient
	path     string
	logger   *slog.Logger

	mu       sync.RWMutex
	current  snapshot
	loaded   bool
}

// New creates a Cache reading/writing its snapshot at path (typically
// cache/catalog.json).
func New(client domain.UpstreamClient, path string, logger *slog.Logger) *Cache {
	return &Cache{
		client: client,
		path:   path,
		logger: logger.With(slog.String("component", "catalog")),
	}
}

// RefreshIfStale fetches the catalog index from upstream, compares its
// content hash to the persisted one, and only refetches every set's
// decomposition on a mismatch. It returns the catalog snapshot to use for
// the current run, taken at the moment this call returns: a mid-run catalog
// change elsewhere does not retroactively affect a worker that already has
// this snapshot.
func (c *Cache) RefreshIfStale(ctx context.Context) (domain.Catalog, error) {
	c.loadOnce()

	summaries, err := c.client.ListSets(ctx)
	if err != nil {
		return domain.Catalog{}, fmt.Errorf("catalog: list sets: %w", err)
	}

	hash := contentHash(summaries)

	c.mu.RLock()
	cached := c.current
	c.mu.RUnlock()

	if cached.Hash == hash && len(cached.Sets) > 0 {
		if err := c.canaryCheck(ctx, cached); err != nil {
			c.logger.WarnContext(ctx, "catalog canary check failed, forcing refresh", slog.String("error", err.Error()))
		} else {
			return domain.Catalog{Hash: cached.Hash, Sets: cloneSets(cached.Sets)}, nil
		}
	}

	sets := make([]domain.Set, 0, len(summaries))
	for _, s := range summaries {
		set, err := c.client.SetParts(ctx, s.Slug)
		if err != nil {
			return domain.Catalog{}, fmt.Errorf("catalog: set parts %s: %w", s.Slug, err)
		}
		if set.Name == "" {
			set.Name = s.Name
		}
		sets = append(sets, set)
	}
	sort.Slice(sets, func(i, j int) bool { return sets[i].Slug < sets[j].Slug })

	next := snapshot{Hash: hash, Sets: sets, LastUpdated: time.Now().UTC()}
	if err := c.save(next); err != nil {
		return domain.Catalog{}, fmt.Errorf("catalog: save snapshot: %w", err)
	}

	c.mu.Lock()
	c.current = next
	c.mu.Unlock()

	return domain.Catalog{Hash: next.Hash, Sets: cloneSets(next.Sets)}, nil
}

// canaryCheck spot-checks one cached set's parts against a fresh single-set
// fetch, to detect upstream drift that a list-level hash would miss
// silently (supplemented from cache_manager.py's compare_set_data /
// get_random_set_for_canary).
func (c *Cache) canaryCheck(ctx context.Context, cached snapshot) error {
	if len(cached.Sets) == 0 {
		return nil
	}
	pick := cached.Sets[rand.Intn(len(cached.Sets))]

	fresh, err := c.client.SetParts(ctx, pick.Slug)
	if err != nil {
		return fmt.Errorf("canary fetch %s: %w", pick.Slug, err)
	}
	if len(fresh.Parts) != len(pick.Parts) {
		return fmt.Errorf("canary %s: part count mismatch cached=%d fresh=%d", pick.Slug, len(pick.Parts), len(fresh.Parts))
	}
	freshBySlug := make(map[string]domain.Part, len(fresh.Parts))
	for _, p := range fresh.Parts {
		freshBySlug[p.Slug] = p
	}
	for _, cachedPart := range pick.Parts {
		freshPart, ok := freshBySlug[cachedPart.Slug]
		if !ok {
			return fmt.Errorf("canary %s: part %s missing from fresh data", pick.Slug, cachedPart.Slug)
		}
		if freshPart.Quantity != cachedPart.Quantity {
			return fmt.Errorf("canary %s: part %s quantity mismatch cached=%d fresh=%d", pick.Slug, cachedPart.Slug, cachedPart.Quantity, freshPart.Quantity)
		}
	}
	return nil
}

// Current returns the last-loaded snapshot without contacting upstream,
// loading it from disk on first use. Used by read-only endpoints that need
// the catalog without triggering a refresh.
func (c *Cache) Current() domain.Catalog {
	c.loadOnce()
	c.mu.RLock()
	defer c.mu.RUnlock()
	return domain.Catalog{Hash: c.current.Hash, Sets: cloneSets(c.current.Sets)}
}

// Age reports how long ago the snapshot was last refreshed, or false if no
// snapshot has ever been loaded (supplemented per cache_manager.py's
// get_cache_age, exposed via /api/stats/health).
func (c *Cache) Age() (time.Duration, bool) {
	c.loadOnce()
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.current.LastUpdated.IsZero() {
		return 0, false
	}
	return time.Since(c.current.LastUpdated), true
}

func (c *Cache) loadOnce() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loaded {
		return
	}
	c.loaded = true

	data, err := os.ReadFile(c.path)
	if err != nil {
		return // absent cache is not an error
	}
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		c.logger.Warn("catalog cache file corrupt, treating as absent", slog.String("error", err.Error()))
		return
	}
	c.current = snap
}

// save writes the snapshot via write-temp-then-rename so a crash mid-write
// never leaves a corrupt file in place.
func (c *Cache) save(snap snapshot) error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(c.path), ".catalog-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpPath, c.path)
}

// contentHash computes a deterministic SHA-256 hash over the normalized set
// list, mirroring cache_manager.py's calculate_hash (sorted keys, stable
// JSON encoding) so that reordering upstream's response never triggers a
// spurious refresh.
func contentHash(summaries []domain.SetSummary) string {
	sorted := make([]domain.SetSummary, len(summaries))
	copy(sorted, summaries)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Slug < sorted[j].Slug })

	h := sha256.New()
	enc := json.NewEncoder(h)
	enc.Encode(sorted)
	return hex.EncodeToString(h.Sum(nil))
}

func cloneSets(sets []domain.Set) []domain.Set {
	out := make([]domain.Set, len(sets))
	copy(out, sets)
	return out
}
