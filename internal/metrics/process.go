package metrics

import (
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/process"
)

// ProcessStats снимок потребления ресурсов процессом
type ProcessStats struct {
	Uptime     time.Duration
	RSSBytes   uint64
	CPUPercent float64
	HeapBytes  uint64
	Goroutines int
}

// ProcessSampler читает статистику текущего процесса
type ProcessSampler struct {
	start time.Time
	proc  *process.Process
}

// NewProcessSampler создаёт сэмплер для текущего процесса
func NewProcessSampler() (*ProcessSampler, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, err
	}
	return &ProcessSampler{start: time.Now(), proc: proc}, nil
}

// Sample возвращает текущие значения. Ошибка CPU не фатальна: поле остаётся нулём.
func (ps *ProcessSampler) Sample() (ProcessStats, error) {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	stats := ProcessStats{
		Uptime:     time.Since(ps.start),
		HeapBytes:  ms.HeapAlloc,
		Goroutines: runtime.NumGoroutine(),
	}

	mem, err := ps.proc.MemoryInfo()
	if err != nil {
		return stats, err
	}
	stats.RSSBytes = mem.RSS

	if cpu, err := ps.proc.CPUPercent(); err == nil {
		stats.CPUPercent = cpu
	}
	return stats, nil
}
