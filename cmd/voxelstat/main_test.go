package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/annel0/voxelcore/internal/config"
	"github.com/annel0/voxelcore/internal/logging"
	"github.com/annel0/voxelcore/internal/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_SmallWorld(t *testing.T) {
	cfg := config.Default()
	cfg.World.ColumnHeight = 4
	cfg.World.TreeDepth = 3

	report, err := run(context.Background(), cfg, 1, metrics.New("voxelstat_test"))
	require.NoError(t, err)

	assert.Equal(t, 4, report.Columns)
	assert.Equal(t, 4, report.Stored)
	assert.Greater(t, report.Blocks, 0)
	assert.Equal(t, report.Blocks, report.Tree.Leaves, "каждый непустой блок - один лист дерева")
	assert.Greater(t, report.SnapshotBytes, 0)
	assert.Equal(t, 1.0, report.CacheHitRatio, "все колонны помещаются в кеш")

	var out bytes.Buffer
	report.Print(&out)
	assert.Contains(t, out.String(), "columns:          4")
}

func TestRun_TreeTooShallow(t *testing.T) {
	cfg := config.Default()
	cfg.World.ColumnHeight = 16
	cfg.World.TreeDepth = 2

	_, err := run(context.Background(), cfg, 1, nil)
	assert.Error(t, err)
}

func TestRunMain_FailureFlushesLogs(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "voxel.yaml")
	logDir := filepath.Join(dir, "logs")
	yaml := "world:\n  tree_depth: 2\n  column_height: 16\nlogging:\n  level: INFO\n  dir: " + logDir + "\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(yaml), 0644))
	t.Cleanup(func() {
		_ = logging.InitDefaultLogger(logging.Options{ConsoleLevel: logging.INFO, FileLevel: logging.INFO})
	})

	assert.Equal(t, 1, runMain(cfgPath, 1, false))

	files, err := filepath.Glob(filepath.Join(logDir, "*.log"))
	require.NoError(t, err)
	require.NotEmpty(t, files)

	var logged strings.Builder
	for _, f := range files {
		data, err := os.ReadFile(f)
		require.NoError(t, err)
		logged.Write(data)
	}
	assert.Contains(t, logged.String(), "tree depth 2 covers 16 blocks per axis", "ошибка записана в файл до выхода")
}
