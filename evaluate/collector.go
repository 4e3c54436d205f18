package evaluate

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector は progressive validation の進捗を Prometheus 指標として公開する
type Collector struct {
	registry *prometheus.Registry

	Samples       prometheus.Counter   // 評価したサンプル数
	Mistakes      prometheus.Counter   // 誤予測の数
	Drifts        prometheus.Counter   // 検出したドリフトの数
	Metric        *prometheus.GaugeVec // 評価指標の現在値 (ラベル: metric)
	LearnDuration prometheus.Histogram // LearnOne の所要時間
	Classes       prometheus.Gauge     // 観測したラベル数
}

// NewCollector は独立したレジストリを持つ Collector を作成する。
// Go ランタイム指標とプロセス指標も自動で登録される。
func NewCollector(modelName string) *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	labels := prometheus.Labels{"model": modelName}
	c := &Collector{registry: reg}

	c.Samples = prometheus.NewCounter(prometheus.CounterOpts{
		Name:        "streamlin_samples_total",
		Help:        "Total number of examples evaluated",
		ConstLabels: labels,
	})
	c.Mistakes = prometheus.NewCounter(prometheus.CounterOpts{
		Name:        "streamlin_mistakes_total",
		Help:        "Total number of wrong predictions",
		ConstLabels: labels,
	})
	c.Drifts = prometheus.NewCounter(prometheus.CounterOpts{
		Name:        "streamlin_drifts_total",
		Help:        "Total number of concept drifts signalled by the detector",
		ConstLabels: labels,
	})
	c.Metric = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name:        "streamlin_metric",
		Help:        "Current value of each running evaluation metric",
		ConstLabels: labels,
	}, []string{"metric"})
	c.LearnDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:        "streamlin_learn_duration_seconds",
		Help:        "Latency of a single LearnOne call in seconds",
		ConstLabels: labels,
		Buckets:     prometheus.ExponentialBuckets(1e-6, 4, 10),
	})
	c.Classes = prometheus.NewGauge(prometheus.GaugeOpts{
		Name:        "streamlin_classes",
		Help:        "Number of distinct labels observed",
		ConstLabels: labels,
	})

	reg.MustRegister(c.Samples, c.Mistakes, c.Drifts, c.Metric, c.LearnDuration, c.Classes)
	return c
}

// Registry はこのコレクタのレジストリを返す
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler は指標を公開する HTTP ハンドラを返す
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Collector) observeLearn(d time.Duration) {
	if c == nil {
		return
	}
	c.LearnDuration.Observe(d.Seconds())
}
