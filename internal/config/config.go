package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config корневая структура конфигурации
type Config struct {
	World     WorldConfig     `yaml:"world"`
	Storage   StorageConfig   `yaml:"storage"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type WorldConfig struct {
	Seed            int64   `yaml:"seed"`
	TreeDepth       int     `yaml:"tree_depth"`
	ColumnHeight    int     `yaml:"column_height"` // в секциях
	NoiseScale      float64 `yaml:"noise_scale"`
	CompactPalettes bool    `yaml:"compact_palettes"`
}

type StorageConfig struct {
	ZstdLevel        int `yaml:"zstd_level"`
	MaxSnapshotBytes int `yaml:"max_snapshot_bytes"`
	CacheColumns     int `yaml:"cache_columns"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Port    int    `yaml:"port"`
	Host    string `yaml:"host"`
}

type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
	Endpoint    string `yaml:"endpoint"`
	Insecure    bool   `yaml:"insecure"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	Dir   string `yaml:"dir"`
}

// Пределы значений
const (
	MaxTreeDepth    = 15
	MaxColumnHeight = 64
)

var ErrInvalidConfig = errors.New("config: invalid value")

// Default возвращает конфигурацию по умолчанию
func Default() *Config {
	return &Config{
		World: WorldConfig{
			Seed:            12345,
			TreeDepth:       4,
			ColumnHeight:    16,
			NoiseScale:      0.05,
			CompactPalettes: true,
		},
		Storage: StorageConfig{
			ZstdLevel:        2,
			MaxSnapshotBytes: 4 << 20,
			CacheColumns:     64,
		},
		Metrics: MetricsConfig{
			Host: "127.0.0.1",
		},
		Telemetry: TelemetryConfig{
			ServiceName: "voxelcore",
			Insecure:    true,
		},
		Logging: LoggingConfig{
			Level: "INFO",
		},
	}
}

// GetSeed возвращает сид с приоритетом: config -> env VOXEL_SEED -> default
func (w *WorldConfig) GetSeed() int64 {
	if w.Seed != 0 {
		return w.Seed
	}
	if envVal := os.Getenv("VOXEL_SEED"); envVal != "" {
		if seed, err := strconv.ParseInt(envVal, 10, 64); err == nil {
			return seed
		}
	}
	return 12345
}

// GetTreeDepth возвращает глубину дерева
func (w *WorldConfig) GetTreeDepth() int {
	return getIntWithEnvFallback(w.TreeDepth, "VOXEL_TREE_DEPTH", 4)
}

// GetColumnHeight возвращает высоту колонны в секциях
func (w *WorldConfig) GetColumnHeight() int {
	return getIntWithEnvFallback(w.ColumnHeight, "VOXEL_COLUMN_HEIGHT", 16)
}

// GetZstdLevel возвращает уровень сжатия снимков
func (s *StorageConfig) GetZstdLevel() int {
	return getIntWithEnvFallback(s.ZstdLevel, "VOXEL_ZSTD_LEVEL", 2)
}

// GetCacheColumns возвращает ёмкость кеша колонн
func (s *StorageConfig) GetCacheColumns() int {
	return getIntWithEnvFallback(s.CacheColumns, "VOXEL_CACHE_COLUMNS", 64)
}

// GetPort возвращает порт Prometheus метрик
func (m *MetricsConfig) GetPort() int {
	return getIntWithEnvFallback(m.Port, "VOXEL_METRICS_PORT", 2112)
}

// GetAddr возвращает адрес HTTP-эндпоинта метрик
func (m *MetricsConfig) GetAddr() string {
	host := m.Host
	if host == "" {
		host = "127.0.0.1"
	}
	return fmt.Sprintf("%s:%d", host, m.GetPort())
}

// getIntWithEnvFallback возвращает значение с приоритетом: config -> env -> default
func getIntWithEnvFallback(configVal int, envVar string, defaultVal int) int {
	if configVal > 0 {
		return configVal
	}

	if envVal := os.Getenv(envVar); envVal != "" {
		if v, err := strconv.Atoi(envVal); err == nil && v > 0 {
			return v
		}
	}

	return defaultVal
}

// Validate проверяет значения после применения fallback
func (c *Config) Validate() error {
	if d := c.World.GetTreeDepth(); d < 1 || d > MaxTreeDepth {
		return fmt.Errorf("%w: world.tree_depth %d not in 1..%d", ErrInvalidConfig, d, MaxTreeDepth)
	}
	if h := c.World.GetColumnHeight(); h < 1 || h > MaxColumnHeight {
		return fmt.Errorf("%w: world.column_height %d not in 1..%d", ErrInvalidConfig, h, MaxColumnHeight)
	}
	if c.World.NoiseScale < 0 {
		return fmt.Errorf("%w: world.noise_scale %v is negative", ErrInvalidConfig, c.World.NoiseScale)
	}
	if l := c.Storage.GetZstdLevel(); l < 1 || l > 4 {
		return fmt.Errorf("%w: storage.zstd_level %d not in 1..4", ErrInvalidConfig, l)
	}
	if c.Storage.MaxSnapshotBytes < 0 {
		return fmt.Errorf("%w: storage.max_snapshot_bytes is negative", ErrInvalidConfig)
	}
	if p := c.Metrics.GetPort(); p > 65535 {
		return fmt.Errorf("%w: metrics.port %d", ErrInvalidConfig, p)
	}
	return nil
}

// Load читает YAML файл конфигурации поверх Default().
// Если path == "", пытается прочитать путь из ENV VOXEL_CONFIG; без него возвращает Default().
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("VOXEL_CONFIG")
		if path == "" {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
