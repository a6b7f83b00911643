package monitor

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics 指标收集器
type Metrics struct {
	snapshotsSaved     prometheus.Counter
	snapshotSaveErrors prometheus.Counter
	fetchErrors        *prometheus.CounterVec
	pollCycles         prometheus.Counter
	pollDurationSecs   prometheus.Histogram
	spotBalance        prometheus.Gauge
	futuresBalance     prometheus.Gauge
	openPositions      prometheus.Gauge
	chartRequests      *prometheus.CounterVec
	natsConnected      prometheus.Gauge
}

// NewMetrics 创建指标收集器
func NewMetrics(namespace string) *Metrics {
	m := &Metrics{
		snapshotsSaved: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "snapshots_saved_total",
				Help:      "Total number of balance snapshots saved",
			},
		),
		snapshotSaveErrors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "snapshot_save_errors_total",
				Help:      "Total number of snapshot save failures",
			},
		),
		fetchErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "exchange_fetch_errors_total",
				Help:      "Total number of exchange fetch failures",
			},
			[]string{"source"}, // spot, futures_balance, positions
		),
		pollCycles: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "poll_cycles_total",
				Help:      "Total number of completed poll cycles",
			},
		),
		pollDurationSecs: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "poll_duration_seconds",
				Help:      "Poll cycle duration distribution",
				Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
		),
		spotBalance: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "spot_balance",
				Help:      "Current spot balance in quote currency",
			},
		),
		futuresBalance: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "futures_balance",
				Help:      "Current futures wallet balance in quote currency",
			},
		),
		openPositions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "open_positions",
				Help:      "Current number of open futures positions",
			},
		),
		chartRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "chart_requests_total",
				Help:      "Total number of chart API requests by period",
			},
			[]string{"period"}, // 30, 90, all
		),
		natsConnected: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "nats_connected",
				Help:      "NATS connection status (1=connected, 0=disconnected)",
			},
		),
	}

	prometheus.MustRegister(
		m.snapshotsSaved,
		m.snapshotSaveErrors,
		m.fetchErrors,
		m.pollCycles,
		m.pollDurationSecs,
		m.spotBalance,
		m.futuresBalance,
		m.openPositions,
		m.chartRequests,
		m.natsConnected,
	)

	return m
}

// IncSnapshotsSaved 增加已保存快照计数
func (m *Metrics) IncSnapshotsSaved() {
	m.snapshotsSaved.Inc()
}

// IncSnapshotSaveErrors 增加快照保存失败计数
func (m *Metrics) IncSnapshotSaveErrors() {
	m.snapshotSaveErrors.Inc()
}

// IncFetchErrors 增加交易所请求失败计数
func (m *Metrics) IncFetchErrors(source string) {
	m.fetchErrors.WithLabelValues(source).Inc()
}

// IncPollCycles 增加轮询周期计数
func (m *Metrics) IncPollCycles() {
	m.pollCycles.Inc()
}

// ObservePollDuration 观察轮询耗时（秒）
func (m *Metrics) ObservePollDuration(seconds float64) {
	m.pollDurationSecs.Observe(seconds)
}

// SetSpotBalance 设置现货余额
func (m *Metrics) SetSpotBalance(v float64) {
	m.spotBalance.Set(v)
}

// SetFuturesBalance 设置合约余额
func (m *Metrics) SetFuturesBalance(v float64) {
	m.futuresBalance.Set(v)
}

// SetOpenPositions 设置持仓数量
func (m *Metrics) SetOpenPositions(count int) {
	m.openPositions.Set(float64(count))
}

// IncChartRequests 增加图表请求计数
func (m *Metrics) IncChartRequests(period string) {
	m.chartRequests.WithLabelValues(period).Inc()
}

// SetNATSConnected 设置NATS连接状态
func (m *Metrics) SetNATSConnected(connected bool) {
	if connected {
		m.natsConnected.Set(1)
	} else {
		m.natsConnected.Set(0)
	}
}

var globalMetrics *Metrics
var metricsOnce sync.Once

// GetMetrics 获取全局指标收集器
func GetMetrics() *Metrics {
	metricsOnce.Do(func() {
		globalMetrics = NewMetrics("balance_dashboard")
	})
	return globalMetrics
}

// InitMetrics 初始化指标收集器（供main使用）
func InitMetrics() {
	GetMetrics()
}
