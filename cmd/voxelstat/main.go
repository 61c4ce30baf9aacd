package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/annel0/voxelcore/internal/cache"
	"github.com/annel0/voxelcore/internal/config"
	"github.com/annel0/voxelcore/internal/logging"
	"github.com/annel0/voxelcore/internal/metrics"
	"github.com/annel0/voxelcore/internal/observability"
	"github.com/annel0/voxelcore/internal/spatial"
	"github.com/annel0/voxelcore/internal/storage"
	"github.com/annel0/voxelcore/internal/vec"
	"github.com/annel0/voxelcore/internal/world"
	"github.com/annel0/voxelcore/internal/world/block"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	var (
		configPath = flag.String("config", "", "Path to YAML config (default: $VOXEL_CONFIG)")
		radius     = flag.Int("radius", 1, "Generate columns in [-radius, radius) on both axes")
		serve      = flag.Bool("serve", false, "Keep serving /metrics until SIGINT/SIGTERM")
	)
	flag.Parse()

	os.Exit(runMain(*configPath, *radius, *serve))
}

// runMain возвращает код выхода, чтобы отложенные Close и shutdown
// успели сбросить логи и трейсы до os.Exit
func runMain(configPath string, radius int, serve bool) int {
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Printf("❌ Ошибка загрузки конфигурации: %v", err)
		return 1
	}

	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		log.Printf("❌ %v", err)
		return 1
	}
	if err := logging.InitDefaultLogger(logging.Options{Dir: cfg.Logging.Dir, ConsoleLevel: level, FileLevel: level}); err != nil {
		log.Printf("❌ Ошибка инициализации логирования: %v", err)
		return 1
	}
	defer logging.CloseDefaultLogger()
	defer logging.GetLoggerManager().CloseAll()

	ctx := context.Background()
	shutdown, err := observability.InitTelemetry(ctx, observability.Settings{
		Enabled:     cfg.Telemetry.Enabled,
		ServiceName: cfg.Telemetry.ServiceName,
		Endpoint:    cfg.Telemetry.Endpoint,
		Insecure:    cfg.Telemetry.Insecure,
	})
	if err != nil {
		logging.Error("❌ Ошибка инициализации OpenTelemetry: %v", err)
		return 1
	}
	defer shutdown(ctx)

	m := metrics.New("voxelcore")
	var exporter *metrics.Exporter
	if cfg.Metrics.Enabled {
		if err := m.Register(prometheus.DefaultRegisterer); err != nil {
			logging.Error("❌ Ошибка регистрации метрик: %v", err)
			return 1
		}
		sampler, err := metrics.NewProcessSampler()
		if err != nil {
			logging.Warn("Статистика процесса недоступна: %v", err)
		}
		exporter = metrics.NewExporter(m, sampler, prometheus.DefaultGatherer, cfg.Metrics.GetAddr())
		exporter.Start(5 * time.Second)
	}

	code := 0
	report, err := run(ctx, cfg, radius, m)
	if err != nil {
		logging.Error("❌ %v", err)
		code = 1
	} else {
		report.Print(os.Stdout)
	}

	if code == 0 && serve && exporter != nil {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logging.Info("📡 Получен сигнал %v, завершение работы...", sig)
	}
	if exporter != nil {
		stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := exporter.Stop(stopCtx); err != nil {
			logging.Warn("Ошибка остановки экспортера метрик: %v", err)
		}
	}
	return code
}

// Report итог прогона
type Report struct {
	Columns        int
	Blocks         int
	PaletteEntries int
	IndexBytes     int
	SnapshotBytes  int
	Stored         int
	CacheHitRatio  float64
	Tree           spatial.TreeStats
	Process        metrics.ProcessStats
	Elapsed        time.Duration
}

// Print выводит отчёт в w
func (r Report) Print(w io.Writer) {
	fmt.Fprintf(w, "columns:          %d\n", r.Columns)
	fmt.Fprintf(w, "solid blocks:     %d\n", r.Blocks)
	fmt.Fprintf(w, "palette entries:  %d\n", r.PaletteEntries)
	fmt.Fprintf(w, "index bytes:      %d\n", r.IndexBytes)
	fmt.Fprintf(w, "snapshot bytes:   %d (%d stored)\n", r.SnapshotBytes, r.Stored)
	fmt.Fprintf(w, "cache hit ratio:  %.2f\n", r.CacheHitRatio)
	fmt.Fprintf(w, "tree depth:       %d\n", r.Tree.Depth)
	fmt.Fprintf(w, "tree clusters:    %d, bricks: %d, leaves: %d\n", r.Tree.Clusters, r.Tree.Bricks, r.Tree.Leaves)
	fmt.Fprintf(w, "tree bytes:       %d nodes + %d leaves\n", r.Tree.NodeBytes, r.Tree.LeafBytes)
	fmt.Fprintf(w, "process rss:      %d bytes (heap %d)\n", r.Process.RSSBytes, r.Process.HeapBytes)
	fmt.Fprintf(w, "elapsed:          %v\n", r.Elapsed)
}

// run генерирует колонны вокруг начала координат, сохраняет их снимки и
// складывает все непустые блоки в одно разреженное дерево
func run(ctx context.Context, cfg *config.Config, radius int, m *metrics.Metrics) (Report, error) {
	start := time.Now()
	logger := logging.GetComponentLogger("voxelstat")

	height := cfg.World.GetColumnHeight()
	depth := cfg.World.GetTreeDepth()

	lo, hi := -radius, radius
	if radius == 0 {
		hi = 1
	}

	tree, err := spatial.NewTree64[block.BlockID](depth)
	if err != nil {
		return Report{}, err
	}

	span := (hi - lo) * world.SectionSize
	if span < height*world.SectionSize {
		span = height * world.SectionSize
	}
	if uint64(span) > uint64(tree.AxisLimit()) {
		return Report{}, fmt.Errorf("tree depth %d covers %d blocks per axis, need %d: %w",
			depth, tree.AxisLimit(), span, spatial.ErrPositionOutOfRange)
	}

	store, err := storage.OpenSnapshotStore(storage.Options{
		ZstdLevel:        cfg.Storage.GetZstdLevel(),
		MaxSnapshotBytes: cfg.Storage.MaxSnapshotBytes,
		Metrics:          m,
	})
	if err != nil {
		return Report{}, err
	}
	defer store.Close()

	columns, err := cache.NewColumnCache(store, cfg.Storage.GetCacheColumns())
	if err != nil {
		return Report{}, err
	}

	gen := world.NewGenerator(cfg.World.GetSeed(), height).WithMetrics(m)
	if cfg.World.NoiseScale > 0 {
		gen.NoiseScale = cfg.World.NoiseScale
	}

	var report Report
	for cz := lo; cz < hi; cz++ {
		for cx := lo; cx < hi; cx++ {
			coords := vec.Vec2{X: cx, Z: cz}
			col, err := gen.GenerateColumn(ctx, coords)
			if err != nil {
				return Report{}, err
			}
			if cfg.World.CompactPalettes {
				col.Compact()
			}
			m.SetColumn(col.PaletteEntries(), col.AllocatedBytes())

			n, err := addColumn(tree, col, radius)
			if err != nil {
				return Report{}, err
			}
			if err := columns.Put(ctx, col); err != nil {
				return Report{}, err
			}

			report.Columns++
			report.Blocks += n
			report.PaletteEntries += col.PaletteEntries()
			report.IndexBytes += col.AllocatedBytes()
		}
	}

	coordsList, err := store.Coords(ctx)
	if err != nil {
		return Report{}, err
	}
	for _, c := range coordsList {
		col, err := columns.Get(ctx, c)
		if err != nil {
			return Report{}, err
		}
		raw, err := storage.AppendColumn(nil, col)
		if err != nil {
			return Report{}, err
		}
		report.SnapshotBytes += len(raw)
	}
	report.Stored = len(coordsList)
	report.CacheHitRatio = columns.GetMetrics().HitRatio

	report.Tree = tree.Stats()
	m.SetTree(report.Tree.NodeSlots, report.Tree.LeafSlots, report.Tree.NodeBytes+report.Tree.LeafBytes)

	if sampler, err := metrics.NewProcessSampler(); err == nil {
		if stats, err := sampler.Sample(); err == nil {
			report.Process = stats
		}
	}

	report.Elapsed = time.Since(start)
	logger.Info("✅ Обработано колонн: %d, блоков: %d за %v", report.Columns, report.Blocks, report.Elapsed)
	return report, nil
}

// addColumn переносит непустые блоки колонны в дерево. Координаты колонн
// сдвигаются на radius, чтобы все позиции были неотрицательными.
func addColumn(tree *spatial.Tree64[block.BlockID], col *world.Column[block.BlockID], radius int) (int, error) {
	baseX := (col.Coords().X + radius) * world.SectionSize
	baseZ := (col.Coords().Z + radius) * world.SectionSize

	n := 0
	for y := 0; y < col.Height()*world.SectionSize; y++ {
		for z := 0; z < world.SectionSize; z++ {
			for x := 0; x < world.SectionSize; x++ {
				id, err := col.Get(x, y, z)
				if err != nil {
					return n, err
				}
				if id == block.AirBlockID {
					continue
				}
				pos := vec.UVec3{X: uint32(baseX + x), Y: uint32(y), Z: uint32(baseZ + z)}
				if err := tree.Set(pos, id); err != nil {
					return n, err
				}
				n++
			}
		}
	}
	return n, nil
}
