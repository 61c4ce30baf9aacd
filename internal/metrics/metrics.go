// Package metrics содержит Prometheus-метрики хранилища вокселей.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics набор коллекторов. Нулевой указатель допустим: все методы становятся no-op.
type Metrics struct {
	ColumnsGenerated prometheus.Counter
	GenerateSeconds  prometheus.Histogram
	PaletteEntries   prometheus.Gauge
	IndexBytes       prometheus.Gauge
	TreeNodeSlots    prometheus.Gauge
	TreeLeafSlots    prometheus.Gauge
	TreeBytes        prometheus.Gauge
	Snapshots        *prometheus.CounterVec
	SnapshotBytes    prometheus.Histogram
	ProcessRSS       prometheus.Gauge
}

// New создаёт коллекторы с префиксом namespace, не регистрируя их
func New(namespace string) *Metrics {
	return &Metrics{
		ColumnsGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "columns_generated_total",
			Help:      "Общее число сгенерированных колонн.",
		}),
		GenerateSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "column_generate_seconds",
			Help:      "Длительность генерации одной колонны.",
			Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1},
		}),
		PaletteEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "palette_entries",
			Help:      "Записей палитры в последней обработанной колонне.",
		}),
		IndexBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "section_index_bytes",
			Help:      "Байт упакованных индексов в последней обработанной колонне.",
		}),
		TreeNodeSlots: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tree_node_slots",
			Help:      "Слотов в пуле узлов дерева.",
		}),
		TreeLeafSlots: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tree_leaf_slots",
			Help:      "Слотов в пуле листьев дерева.",
		}),
		TreeBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tree_bytes",
			Help:      "Байт, занятых пулами дерева.",
		}),
		Snapshots: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshot_ops_total",
			Help:      "Операции со снимками колонн.",
		}, []string{"op", "result"}),
		SnapshotBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "snapshot_bytes",
			Help:      "Размер сжатого снимка колонны.",
			Buckets:   prometheus.ExponentialBuckets(256, 2, 10),
		}),
		ProcessRSS: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "process_rss_bytes",
			Help:      "Resident set size процесса.",
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.ColumnsGenerated,
		m.GenerateSeconds,
		m.PaletteEntries,
		m.IndexBytes,
		m.TreeNodeSlots,
		m.TreeLeafSlots,
		m.TreeBytes,
		m.Snapshots,
		m.SnapshotBytes,
		m.ProcessRSS,
	}
}

// Register регистрирует коллекторы в reg. Повторная регистрация не считается ошибкой.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.collectors() {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if !errors.As(err, &are) {
				return err
			}
		}
	}
	return nil
}

// ObserveGenerate учитывает одну сгенерированную колонну
func (m *Metrics) ObserveGenerate(seconds float64) {
	if m == nil {
		return
	}
	m.ColumnsGenerated.Inc()
	m.GenerateSeconds.Observe(seconds)
}

// SetColumn публикует размер палитр и индексов колонны
func (m *Metrics) SetColumn(paletteEntries, indexBytes int) {
	if m == nil {
		return
	}
	m.PaletteEntries.Set(float64(paletteEntries))
	m.IndexBytes.Set(float64(indexBytes))
}

// SetTree публикует размеры пулов дерева
func (m *Metrics) SetTree(nodeSlots, leafSlots, bytes int) {
	if m == nil {
		return
	}
	m.TreeNodeSlots.Set(float64(nodeSlots))
	m.TreeLeafSlots.Set(float64(leafSlots))
	m.TreeBytes.Set(float64(bytes))
}

// ObserveSnapshot учитывает операцию со снимком; size < 0 не попадает в гистограмму
func (m *Metrics) ObserveSnapshot(op string, err error, size int) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.Snapshots.WithLabelValues(op, result).Inc()
	if err == nil && size >= 0 {
		m.SnapshotBytes.Observe(float64(size))
	}
}
