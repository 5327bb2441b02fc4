// Package metrics 提供基于Prometheus的指标收集
//
// # 指标类型
//
//   - Counter（计数器）：只增不减，如处理的事件数、调整次数
//   - Gauge（仪表盘）：可增可减，如熔断器状态、处理中的请求数
//   - Histogram（直方图）：观测值分布，如单次事件处理耗时
//
// # 命名规范
//
//  1. Counter以`_total`结尾
//  2. Histogram以单位结尾（`_seconds`）
//  3. 标签只用有限取值（action、outcome、result），不要用order_id这类高基数字段
//
// # 使用示例
//
//	metrics.InitMetrics()
//	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
//
//	metrics.RecordMirrorEvent("reduce", "applied", time.Since(start).Seconds())
//
// 所有Record*函数在InitMetrics之前调用是安全的（直接忽略），
// 单元测试不需要初始化全局Registry。
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// initialized 标记是否已初始化（防止重复注册）
	initialized bool

	// HTTP请求相关指标

	// HTTPRequestsTotal HTTP请求总数（Counter）
	// 标签：method、path、status
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPRequestDuration HTTP请求耗时（Histogram）
	HTTPRequestDuration *prometheus.HistogramVec

	// HTTPRequestsInProgress 正在处理的HTTP请求数（Gauge）
	HTTPRequestsInProgress prometheus.Gauge

	// 库存同步指标

	// MirrorEventsTotal 处理的订单状态事件数（Counter）
	// 标签：action（reduce/restore/none）、outcome（applied/no_action/invalid/failed/locked）
	MirrorEventsTotal *prometheus.CounterVec

	// MirrorDuration 单个事件处理耗时（Histogram）
	MirrorDuration prometheus.Histogram

	// MirrorAdjustmentsTotal 已提交的对侧组合调整次数（Counter）
	// 标签：action
	MirrorAdjustmentsTotal *prometheus.CounterVec

	// MirrorLowStockTotal 扣减时对侧库存不足的次数（Counter）
	MirrorLowStockTotal prometheus.Counter

	// 熔断器指标

	// CircuitBreakerState 熔断器状态（Gauge）
	// 0=CLOSED, 1=OPEN, 2=HALF_OPEN
	CircuitBreakerState *prometheus.GaugeVec

	// CircuitBreakerRequests 熔断器请求总数（Counter）
	// 标签：name、result（success/failure/rejected）
	CircuitBreakerRequests *prometheus.CounterVec

	// 消息队列指标

	// MessagesPublishedTotal 消息发布总数（Counter）
	MessagesPublishedTotal *prometheus.CounterVec

	// MessagesConsumedTotal 消息消费总数（Counter）
	// 标签：queue、result（handled/dropped）
	MessagesConsumedTotal *prometheus.CounterVec

	// MessageProcessingDuration 消息处理耗时（Histogram）
	MessageProcessingDuration prometheus.Histogram
)

// InitMetrics 初始化所有Prometheus指标
//
// 必须在程序启动时调用一次，promauto会把指标注册到默认Registry
func InitMetrics() {
	if initialized {
		return
	}
	initialized = true

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

	MirrorEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stock_mirror_events_total",
			Help: "处理的订单状态事件数",
		},
		[]string{"action", "outcome"},
	)

	MirrorDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "stock_mirror_duration_seconds",
			Help: "单个订单状态事件处理耗时（秒）",
			// 三条SQL加一个事务，正常在几十毫秒内
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
	)

	MirrorAdjustmentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stock_mirror_adjustments_total",
			Help: "已提交的对侧组合库存调整次数",
		},
		[]string{"action"},
	)

	MirrorLowStockTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stock_mirror_low_stock_total",
			Help: "扣减时对侧组合库存不足的次数",
		},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "熔断器状态（0=CLOSED, 1=OPEN, 2=HALF_OPEN）",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "熔断器请求总数",
		},
		[]string{"name", "result"},
	)

	MessagesPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messages_published_total",
			Help: "消息发布总数",
		},
		[]string{"exchange", "routing_key"},
	)

	MessagesConsumedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messages_consumed_total",
			Help: "消息消费总数",
		},
		[]string{"queue", "result"},
	)

	MessageProcessingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "message_processing_duration_seconds",
			Help:    "消息处理耗时（秒）",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5},
		},
	)
}

// RecordMirrorEvent 记录一次事件处理结果和耗时
func RecordMirrorEvent(action, outcome string, seconds float64) {
	if MirrorEventsTotal == nil {
		return
	}
	MirrorEventsTotal.WithLabelValues(action, outcome).Inc()
	MirrorDuration.Observe(seconds)
}

// RecordAdjustments 记录已提交的调整次数
func RecordAdjustments(action string, n int) {
	if MirrorAdjustmentsTotal == nil || n <= 0 {
		return
	}
	MirrorAdjustmentsTotal.WithLabelValues(action).Add(float64(n))
}

// RecordLowStock 记录一次库存不足
func RecordLowStock() {
	if MirrorLowStockTotal == nil {
		return
	}
	MirrorLowStockTotal.Inc()
}

// RecordHTTPRequest 记录一次HTTP请求
func RecordHTTPRequest(method, path, status string, seconds float64) {
	if HTTPRequestsTotal == nil {
		return
	}
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(seconds)
}

// IncHTTPInProgress 递增处理中的HTTP请求数
func IncHTTPInProgress() {
	if HTTPRequestsInProgress == nil {
		return
	}
	HTTPRequestsInProgress.Inc()
}

// DecHTTPInProgress 递减处理中的HTTP请求数
func DecHTTPInProgress() {
	if HTTPRequestsInProgress == nil {
		return
	}
	HTTPRequestsInProgress.Dec()
}

// RecordMessageConsumed 记录一条消息的消费结果
func RecordMessageConsumed(queue, result string, seconds float64) {
	if MessagesConsumedTotal == nil {
		return
	}
	MessagesConsumedTotal.WithLabelValues(queue, result).Inc()
	MessageProcessingDuration.Observe(seconds)
}

// RecordMessagePublished 记录一条已发布的消息
func RecordMessagePublished(exchange, routingKey string) {
	if MessagesPublishedTotal == nil {
		return
	}
	MessagesPublishedTotal.WithLabelValues(exchange, routingKey).Inc()
}

// SetCircuitBreakerState 更新熔断器状态
func SetCircuitBreakerState(name string, state int) {
	if CircuitBreakerState == nil {
		return
	}
	CircuitBreakerState.WithLabelValues(name).Set(float64(state))
}

// RecordCircuitBreakerRequest 记录一次经过熔断器的请求
func RecordCircuitBreakerRequest(name, result string) {
	if CircuitBreakerRequests == nil {
		return
	}
	CircuitBreakerRequests.WithLabelValues(name, result).Inc()
}
