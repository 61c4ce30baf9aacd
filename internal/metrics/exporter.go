package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/annel0/voxelcore/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Exporter отдаёт /metrics и периодически обновляет метрики процесса
type Exporter struct {
	metrics *Metrics
	sampler *ProcessSampler
	server  *http.Server
	quit    chan struct{}
	done    chan struct{}
}

// NewExporter создаёт экспортер для gatherer, но не запускает HTTP-сервер
func NewExporter(m *Metrics, sampler *ProcessSampler, gatherer prometheus.Gatherer, addr string) *Exporter {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	return &Exporter{
		metrics: m,
		sampler: sampler,
		server:  &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second},
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Handler возвращает HTTP-обработчик экспортера
func (e *Exporter) Handler() http.Handler {
	return e.server.Handler
}

// Start запускает HTTP-сервер и цикл обновления в отдельных горутинах
func (e *Exporter) Start(interval time.Duration) {
	go func() {
		logging.Info("📈 Prometheus /metrics доступен по адресу %s", e.server.Addr)
		if err := e.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Ошибка Prometheus HTTP сервера: %v", err)
		}
	}()
	go e.loop(interval)
}

// Stop останавливает цикл обновления и HTTP-сервер
func (e *Exporter) Stop(ctx context.Context) error {
	close(e.quit)
	<-e.done
	return e.server.Shutdown(ctx)
}

// SampleOnce обновляет метрики процесса немедленно
func (e *Exporter) SampleOnce() {
	if e.sampler == nil || e.metrics == nil {
		return
	}
	stats, err := e.sampler.Sample()
	if err != nil {
		logging.Debug("Не удалось прочитать статистику процесса: %v", err)
		return
	}
	e.metrics.ProcessRSS.Set(float64(stats.RSSBytes))
}

func (e *Exporter) loop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	defer close(e.done)

	e.SampleOnce()
	for {
		select {
		case <-ticker.C:
			e.SampleOnce()
		case <-e.quit:
			return
		}
	}
}
