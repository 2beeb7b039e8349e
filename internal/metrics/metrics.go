package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 退款结算指标
var (
	// RefundSettlementsTotal 各通道结算次数
	RefundSettlementsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mall_refund_settlements_total",
			Help: "退款结算次数（按通道）",
		},
		[]string{"channel"},
	)

	// RefundConfirmationsTotal 线下转账确认次数
	RefundConfirmationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mall_refund_offline_confirmations_total",
			Help: "线下转账人工确认次数",
		},
	)

	// RefundFailuresTotal 结算失败次数
	RefundFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mall_refund_failures_total",
			Help: "退款结算失败次数（按原因）",
		},
		[]string{"reason"},
	)
)

// API 指标
var (
	// APIRequestsTotal API 请求总数
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mall_api_requests_total",
			Help: "API 请求总数",
		},
		[]string{"method", "path", "status"},
	)

	// APIRequestDuration API 请求延迟（秒）
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mall_api_request_duration_seconds",
			Help:    "API 请求延迟分布",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)
