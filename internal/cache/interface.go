package cache

import (
	"context"
	"errors"
	"time"

	"github.com/annel0/voxelcore/internal/vec"
	"github.com/annel0/voxelcore/internal/world"
	"github.com/annel0/voxelcore/internal/world/block"
)

// ColdStorage постоянное хранилище, из которого кеш догружает колонны.
// Реализуется storage.SnapshotStore.
type ColdStorage interface {
	Load(ctx context.Context, coords vec.Vec2) (*world.Column[block.BlockID], error)
	Save(ctx context.Context, col *world.Column[block.BlockID]) error
	Delete(ctx context.Context, coords vec.Vec2) error
}

// CacheMetrics содержит метрики производительности кеша.
type CacheMetrics struct {
	TotalRequests int64   `json:"total_requests"`
	CacheHits     int64   `json:"cache_hits"`
	CacheMisses   int64   `json:"cache_misses"`
	HitRatio      float64 `json:"hit_ratio"`
	Evictions     int64   `json:"evictions"`
	TotalKeys     int     `json:"total_keys"`

	LastUpdate time.Time `json:"last_update"`
}

// ErrInvalidSize возвращается при неположительной ёмкости кеша
var ErrInvalidSize = errors.New("cache: size must be positive")
