// Package registry keeps the in-memory snapshot of all known workers.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// ErrStoreUnavailable is returned when the registry store could not be read.
var ErrStoreUnavailable = errors.New("registry store unavailable")

// Store is the source of worker records.
type Store interface {
	FetchAll(ctx context.Context) ([]RawRecord, error)
}

// Snapshot is an immutable point-in-time copy of the registry.
// Callers must not modify Workers.
type Snapshot struct {
	Workers  []Worker
	LoadedAt time.Time
}

func (s *Snapshot) Len() int {
	return len(s.Workers)
}

// Cache holds the current snapshot. Readers never block and never see a partial snapshot.
type Cache struct {
	store    Store
	logger   *zap.Logger
	snapshot atomic.Pointer[Snapshot]
	loads    singleflight.Group
}

func NewCache(store Store, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Cache{store: store, logger: logger}
	c.snapshot.Store(&Snapshot{})
	return c
}

// Current returns the installed snapshot. Before the first successful load it is empty.
func (c *Cache) Current() *Snapshot {
	return c.snapshot.Load()
}

// Loaded reports whether a snapshot was ever installed from the store.
func (c *Cache) Loaded() bool {
	return !c.Current().LoadedAt.IsZero()
}

// Load fetches all records and replaces the snapshot. On failure the previous
// snapshot is kept and an error wrapping ErrStoreUnavailable is returned.
// Concurrent calls share a single store request.
func (c *Cache) Load(ctx context.Context) error {
	_, err, shared := c.loads.Do("load", func() (any, error) {
		return nil, c.load(ctx)
	})
	if shared {
		c.logger.Debug("registry load shared with a concurrent caller")
	}
	return err
}

// Refresh is Load on demand.
func (c *Cache) Refresh(ctx context.Context) error {
	return c.Load(ctx)
}

func (c *Cache) load(ctx context.Context) error {
	if c.store == nil {
		return fmt.Errorf("%w: store is not configured", ErrStoreUnavailable)
	}

	records, err := c.store.FetchAll(ctx)
	if err != nil {
		c.logger.Warn("fetching workers failed, keeping previous snapshot",
			zap.Int("workers", c.Current().Len()),
			zap.Error(err),
		)
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	workers, duplicates := Normalize(records)
	if len(duplicates) > 0 {
		c.logger.Warn("dropping workers with duplicate ids", zap.Strings("ids", duplicates))
	}

	c.snapshot.Store(&Snapshot{Workers: workers, LoadedAt: time.Now().UTC()})

	c.logger.Info("registry snapshot replaced",
		zap.Int("fetched", len(records)),
		zap.Int("workers", len(workers)),
	)

	return nil
}
