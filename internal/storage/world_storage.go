package storage

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/annel0/voxelcore/internal/logging"
	"github.com/annel0/voxelcore/internal/metrics"
	"github.com/annel0/voxelcore/internal/morton"
	"github.com/annel0/voxelcore/internal/vec"
	"github.com/annel0/voxelcore/internal/world"
	"github.com/annel0/voxelcore/internal/world/block"
	"github.com/dgraph-io/badger/v3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Координата колонны по модулю должна помещаться в 20 бит, чтобы после
// zigzag-преобразования уложиться в ось кода Мортона.
const MaxColumnCoord = 1<<(morton.AxisBits-1) - 1

const columnKeyPrefix = "col:"

var (
	ErrSnapshotNotFound = errors.New("storage: snapshot not found")
	ErrStoreClosed      = errors.New("storage: store is closed")
	ErrCoordsOutOfRange = errors.New("storage: column coordinates out of range")
)

// Options параметры хранилища снимков
type Options struct {
	ZstdLevel        int
	MaxSnapshotBytes int
	Metrics          *metrics.Metrics
}

// SnapshotStore хранит сжатые снимки колонн в BadgerDB, работающей только в памяти.
// Ключ - код Мортона координат колонны, поэтому обход идёт в Z-порядке.
type SnapshotStore struct {
	db      *badger.DB
	codec   *ColumnCodec
	metrics *metrics.Metrics
	logger  *logging.Logger
	tracer  trace.Tracer

	mutex   sync.RWMutex
	isReady bool
}

// OpenSnapshotStore открывает пустое хранилище в памяти
func OpenSnapshotStore(opts Options) (*SnapshotStore, error) {
	codec, err := NewColumnCodec(opts.ZstdLevel, opts.MaxSnapshotBytes)
	if err != nil {
		return nil, err
	}

	bopts := badger.DefaultOptions("").WithInMemory(true)
	bopts.Logger = nil // Отключаем логирование BadgerDB

	db, err := badger.Open(bopts)
	if err != nil {
		codec.Close()
		return nil, fmt.Errorf("не удалось открыть BadgerDB: %w", err)
	}

	return &SnapshotStore{
		db:      db,
		codec:   codec,
		metrics: opts.Metrics,
		logger:  logging.GetStorageLogger(),
		tracer:  otel.Tracer("storage"),
		isReady: true,
	}, nil
}

// Close закрывает хранилище; все снимки теряются
func (s *SnapshotStore) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.isReady {
		return nil
	}

	s.isReady = false
	s.codec.Close()
	return s.db.Close()
}

// Save сохраняет снимок колонны, заменяя предыдущий
func (s *SnapshotStore) Save(ctx context.Context, col *world.Column[block.BlockID]) (err error) {
	ctx, span := s.startSpan(ctx, "storage.Save", col.Coords())
	size := -1
	defer func() {
		s.finish(span, "save", err, size)
	}()

	key, err := ColumnKey(col.Coords())
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := s.codec.EncodeColumn(col)
	if err != nil {
		return err
	}
	size = len(data)

	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if !s.isReady {
		return ErrStoreClosed
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, data)
	})
	if err != nil {
		return fmt.Errorf("ошибка сохранения в BadgerDB: %w", err)
	}

	s.logger.Debug("Снимок колонны (%d,%d) сохранён: %d байт", col.Coords().X, col.Coords().Z, size)
	return nil
}

// Load читает снимок колонны. Если снимка нет, возвращает ErrSnapshotNotFound.
func (s *SnapshotStore) Load(ctx context.Context, coords vec.Vec2) (col *world.Column[block.BlockID], err error) {
	ctx, span := s.startSpan(ctx, "storage.Load", coords)
	size := -1
	defer func() {
		s.finish(span, "load", err, size)
	}()

	key, err := ColumnKey(coords)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if !s.isReady {
		return nil, ErrStoreClosed
	}

	var data []byte
	err = s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: column (%d,%d)", ErrSnapshotNotFound, coords.X, coords.Z)
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения из BadgerDB: %w", err)
	}
	size = len(data)

	col, err = s.codec.DecodeColumn(data)
	if err != nil {
		s.logger.Warn("Повреждённый снимок колонны (%d,%d): %v", coords.X, coords.Z, err)
		s.logger.Trace("%s", logging.HexDump(data))
		return nil, err
	}
	if col.Coords() != coords {
		return nil, fmt.Errorf("%w: snapshot of (%d,%d) stored under (%d,%d)",
			ErrCorruptSnapshot, col.Coords().X, col.Coords().Z, coords.X, coords.Z)
	}
	return col, nil
}

// Delete удаляет снимок; отсутствие снимка не ошибка
func (s *SnapshotStore) Delete(ctx context.Context, coords vec.Vec2) (err error) {
	ctx, span := s.startSpan(ctx, "storage.Delete", coords)
	defer func() {
		s.finish(span, "delete", err, -1)
	}()

	key, err := ColumnKey(coords)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if !s.isReady {
		return ErrStoreClosed
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	})
}

// Len возвращает число сохранённых снимков
func (s *SnapshotStore) Len(ctx context.Context) (int, error) {
	n := 0
	err := s.scan(ctx, func(vec.Vec2) bool {
		n++
		return true
	})
	return n, err
}

// Coords возвращает координаты сохранённых колонн в порядке кода Мортона
func (s *SnapshotStore) Coords(ctx context.Context) ([]vec.Vec2, error) {
	var out []vec.Vec2
	err := s.scan(ctx, func(c vec.Vec2) bool {
		out = append(out, c)
		return true
	})
	return out, err
}

func (s *SnapshotStore) scan(ctx context.Context, fn func(vec.Vec2) bool) error {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if !s.isReady {
		return ErrStoreClosed
	}

	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(columnKeyPrefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			coords, err := ParseColumnKey(it.Item().Key())
			if err != nil {
				return err
			}
			if !fn(coords) {
				return nil
			}
		}
		return nil
	})
}

func (s *SnapshotStore) startSpan(ctx context.Context, name string, coords vec.Vec2) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, name, trace.WithAttributes(
		attribute.Int("column.x", coords.X),
		attribute.Int("column.z", coords.Z),
	))
}

func (s *SnapshotStore) finish(span trace.Span, op string, err error, size int) {
	if err != nil && !errors.Is(err, ErrSnapshotNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	if size >= 0 {
		span.SetAttributes(attribute.Int("snapshot.bytes", size))
	}
	span.End()
	s.metrics.ObserveSnapshot(op, err, size)
}

// ColumnKey строит ключ BadgerDB: префикс и код Мортона (big-endian) от
// zigzag-преобразованных координат колонны
func ColumnKey(coords vec.Vec2) ([]byte, error) {
	if abs(coords.X) > MaxColumnCoord || abs(coords.Z) > MaxColumnCoord {
		return nil, fmt.Errorf("%w: (%d,%d)", ErrCoordsOutOfRange, coords.X, coords.Z)
	}
	code := morton.Encode(zigzag(coords.X), 0, zigzag(coords.Z))

	key := make([]byte, 0, len(columnKeyPrefix)+8)
	key = append(key, columnKeyPrefix...)
	return binary.BigEndian.AppendUint64(key, code.Raw()), nil
}

// ParseColumnKey восстанавливает координаты из ключа ColumnKey
func ParseColumnKey(key []byte) (vec.Vec2, error) {
	if len(key) != len(columnKeyPrefix)+8 || string(key[:len(columnKeyPrefix)]) != columnKeyPrefix {
		return vec.Vec2{}, fmt.Errorf("%w: bad key %x", ErrCorruptSnapshot, key)
	}
	x, _, z := morton.Code(binary.BigEndian.Uint64(key[len(columnKeyPrefix):])).Decode()
	return vec.Vec2{X: unzigzag(x), Z: unzigzag(z)}, nil
}

func zigzag(v int) uint32 {
	return uint32((v << 1) ^ (v >> 63))
}

func unzigzag(u uint32) int {
	return int(u>>1) ^ -int(u&1)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
