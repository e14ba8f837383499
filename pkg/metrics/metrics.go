// Package metrics Prometheus指标
//
// 命名规范：
//   - Counter以_total结尾（repository_operations_total）
//   - Histogram以单位结尾（manifest_computation_duration_seconds）
//   - Gauge使用现在时态（http_requests_in_progress）
//
// 标签只使用有限取值（kind、op、result），不要用user_id这类高基数字段
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once sync.Once

	// HTTPRequestsTotal HTTP请求总数，标签：method、path、status
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPRequestDuration HTTP请求耗时，标签：method、path
	HTTPRequestDuration *prometheus.HistogramVec

	// HTTPRequestsInProgress 正在处理的HTTP请求数
	HTTPRequestsInProgress prometheus.Gauge

	// RepositoryOperationsTotal 仓储操作次数，标签：kind、op、result
	RepositoryOperationsTotal *prometheus.CounterVec

	// ManifestRequestsTotal 下载清单请求数，标签：source（cache/computed）
	ManifestRequestsTotal *prometheus.CounterVec

	// ManifestComputationDuration 下载清单计算耗时
	ManifestComputationDuration prometheus.Histogram

	// IntegrityWarningsTotal 权益计算中的数据完整性告警，标签：reason
	IntegrityWarningsTotal *prometheus.CounterVec

	// OrdersCheckedOutTotal 结算生成的订单数
	OrdersCheckedOutTotal prometheus.Counter

	// OrdersPaidTotal 标记为已支付的订单数
	OrdersPaidTotal prometheus.Counter

	// MessagesPublishedTotal 消息发布总数，标签：exchange、routing_key、result
	MessagesPublishedTotal *prometheus.CounterVec
)

// InitMetrics 注册所有指标到默认Registry，重复调用是安全的
func InitMetrics() {
	once.Do(register)
}

func register() {
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP请求总数",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP请求耗时（秒）",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 10},
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_progress",
			Help: "正在处理的HTTP请求数",
		},
	)

	RepositoryOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "repository_operations_total",
			Help: "仓储操作次数",
		},
		[]string{"kind", "op", "result"},
	)

	ManifestRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "manifest_requests_total",
			Help: "下载清单请求数",
		},
		[]string{"source"},
	)

	ManifestComputationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "manifest_computation_duration_seconds",
			Help:    "下载清单计算耗时（秒）",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
	)

	IntegrityWarningsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "entitlement_integrity_warnings_total",
			Help: "权益计算中被跳过的订单行数",
		},
		[]string{"reason"},
	)

	OrdersCheckedOutTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "orders_checked_out_total",
			Help: "购物车结算生成的订单数",
		},
	)

	OrdersPaidTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "orders_paid_total",
			Help: "已支付订单数",
		},
	)

	MessagesPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messages_published_total",
			Help: "消息发布总数",
		},
		[]string{"exchange", "routing_key", "result"},
	)
}

func result(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}

// RecordRepositoryOp 记录一次仓储操作
func RecordRepositoryOp(kind, op string, err error) {
	InitMetrics()
	RepositoryOperationsTotal.With(prometheus.Labels{"kind": kind, "op": op, "result": result(err)}).Inc()
}

// RecordManifest 记录一次下载清单请求及其来源
func RecordManifest(source string, seconds float64) {
	InitMetrics()
	ManifestRequestsTotal.With(prometheus.Labels{"source": source}).Inc()
	if source != "cache" {
		ManifestComputationDuration.Observe(seconds)
	}
}

// RecordIntegrityWarning 记录一次完整性告警
func RecordIntegrityWarning(reason string) {
	InitMetrics()
	IntegrityWarningsTotal.With(prometheus.Labels{"reason": reason}).Inc()
}

// RecordCheckout 记录一次结算
func RecordCheckout() {
	InitMetrics()
	OrdersCheckedOutTotal.Inc()
}

// RecordOrderPaid 记录一次支付确认
func RecordOrderPaid() {
	InitMetrics()
	OrdersPaidTotal.Inc()
}

// RecordPublish 记录一次消息发布
func RecordPublish(exchange, routingKey string, err error) {
	InitMetrics()
	MessagesPublishedTotal.With(prometheus.Labels{
		"exchange":    exchange,
		"routing_key": routingKey,
		"result":      result(err),
	}).Inc()
}

// IncCounterVec 递增CounterVec（带标签）
func IncCounterVec(counter *prometheus.CounterVec, labels map[string]string) {
	counter.With(labels).Inc()
}

// IncGauge 递增Gauge
func IncGauge(gauge prometheus.Gauge) {
	gauge.Inc()
}

// DecGauge 递减Gauge
func DecGauge(gauge prometheus.Gauge) {
	gauge.Dec()
}

// ObserveHistogramVec 记录HistogramVec观测值（带标签）
func ObserveHistogramVec(histogram *prometheus.HistogramVec, labels map[string]string, value float64) {
	histogram.With(labels).Observe(value)
}
