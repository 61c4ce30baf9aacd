package cache

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/annel0/voxelcore/internal/vec"
	"github.com/annel0/voxelcore/internal/world"
	"github.com/annel0/voxelcore/internal/world/block"
	lru "github.com/hashicorp/golang-lru/v2"
)

// ColumnCache держит последние использованные колонны в памяти поверх ColdStorage.
// Запись идёт сквозь кеш: Save сначала сохраняет в хранилище, затем обновляет кеш.
//
// Колонны не потокобезопасны, поэтому вызывающий отвечает за то, чтобы
// одну и ту же колонну не меняли из нескольких горутин.
type ColumnCache struct {
	cold    ColdStorage
	columns *lru.Cache[vec.Vec2, *world.Column[block.BlockID]]

	requests  atomic.Int64
	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
}

// NewColumnCache создаёт кеш на size колонн
func NewColumnCache(cold ColdStorage, size int) (*ColumnCache, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}

	c := &ColumnCache{cold: cold}
	columns, err := lru.NewWithEvict(size, func(vec.Vec2, *world.Column[block.BlockID]) {
		c.evictions.Add(1)
	})
	if err != nil {
		return nil, err
	}
	c.columns = columns
	return c, nil
}

// Get возвращает колонну из памяти или загружает её из хранилища
func (c *ColumnCache) Get(ctx context.Context, coords vec.Vec2) (*world.Column[block.BlockID], error) {
	c.requests.Add(1)
	if col, ok := c.columns.Get(coords); ok {
		c.hits.Add(1)
		return col, nil
	}
	c.misses.Add(1)

	col, err := c.cold.Load(ctx, coords)
	if err != nil {
		return nil, err
	}
	c.columns.Add(coords, col)
	return col, nil
}

// Put сохраняет колонну в хранилище и кладёт её в кеш
func (c *ColumnCache) Put(ctx context.Context, col *world.Column[block.BlockID]) error {
	if err := c.cold.Save(ctx, col); err != nil {
		return err
	}
	c.columns.Add(col.Coords(), col)
	return nil
}

// Invalidate убирает колонну из кеша, не трогая хранилище
func (c *ColumnCache) Invalidate(coords vec.Vec2) {
	c.columns.Remove(coords)
}

// Delete удаляет колонну из кеша и хранилища
func (c *ColumnCache) Delete(ctx context.Context, coords vec.Vec2) error {
	c.columns.Remove(coords)
	return c.cold.Delete(ctx, coords)
}

// Len возвращает число колонн в памяти
func (c *ColumnCache) Len() int {
	return c.columns.Len()
}

// GetMetrics возвращает метрики кеша
func (c *ColumnCache) GetMetrics() *CacheMetrics {
	m := &CacheMetrics{
		TotalRequests: c.requests.Load(),
		CacheHits:     c.hits.Load(),
		CacheMisses:   c.misses.Load(),
		Evictions:     c.evictions.Load(),
		TotalKeys:     c.columns.Len(),
		LastUpdate:    time.Now(),
	}
	if m.TotalRequests > 0 {
		m.HitRatio = float64(m.CacheHits) / float64(m.TotalRequests)
	}
	return m
}
