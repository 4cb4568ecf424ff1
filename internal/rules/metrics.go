package rules

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Metrics 一次运行的指标集合。
// 进程是短生命周期的批处理任务，所以用独立 Registry 推送到 Pushgateway，
// 而不是暴露抓取端点。
type Metrics struct {
	registry *prometheus.Registry

	sourcesTotal *prometheus.CounterVec
	groupDomains *prometheus.GaugeVec
	runDuration  prometheus.Gauge
	lastSuccess  prometheus.Gauge
	appended     prometheus.Gauge
}

// NewMetrics 创建指标集合
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		sourcesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "airules_sources_total",
			Help: "Rule sources fetched, by result.",
		}, []string{"result"}),
		groupDomains: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "airules_group_domains",
			Help: "Domains written per platform group.",
		}, []string{"group"}),
		runDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "airules_run_duration_seconds",
			Help: "Wall-clock duration of the last run.",
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "airules_last_success_timestamp_seconds",
			Help: "Unix timestamp of the last successful run.",
		}),
		appended: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "airules_appended_domains",
			Help: "New domains appended by the last incremental run.",
		}),
	}

	m.registry.MustRegister(m.sourcesTotal, m.groupDomains, m.runDuration, m.lastSuccess, m.appended)
	return m
}

// Record 将一次运行的结果写入指标
func (m *Metrics) Record(result *RunResult) {
	for _, s := range result.Sources {
		if s.Status == "success" {
			m.sourcesTotal.WithLabelValues("success").Inc()
		} else {
			m.sourcesTotal.WithLabelValues("error").Inc()
		}
	}
	for _, g := range result.Groups {
		m.groupDomains.WithLabelValues(g.Name).Set(float64(g.DomainCount))
	}
	m.runDuration.Set(result.Duration.Seconds())
	m.appended.Set(float64(result.Appended))
}

// MarkSuccess 记录运行成功时间
func (m *Metrics) MarkSuccess() {
	m.lastSuccess.Set(float64(time.Now().Unix()))
}

// Push 推送到 Pushgateway
func (m *Metrics) Push(gateway, job string) error {
	return push.New(gateway, job).Gatherer(m.registry).Push()
}
