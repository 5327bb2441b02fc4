package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

// TestRecordBeforeInit 未初始化时调用不应panic
func TestRecordBeforeInit(t *testing.T) {
	if initialized {
		t.Skip("指标已初始化")
	}
	RecordMirrorEvent("reduce", "applied", 0.01)
	RecordAdjustments("reduce", 2)
	RecordLowStock()
	RecordHTTPRequest("POST", "/api/v1/hooks/order-status", "200", 0.01)
	IncHTTPInProgress()
	DecHTTPInProgress()
	RecordMessageConsumed("q", "handled", 0.01)
	RecordMessagePublished("ex", "rk")
	SetCircuitBreakerState("mq", 1)
	RecordCircuitBreakerRequest("mq", "success")
}

// TestInitMetrics 测试指标初始化
func TestInitMetrics(t *testing.T) {
	InitMetrics()
	InitMetrics() // 重复调用不应重复注册

	if MirrorEventsTotal == nil {
		t.Error("MirrorEventsTotal未初始化")
	}
	if MirrorDuration == nil {
		t.Error("MirrorDuration未初始化")
	}
	if HTTPRequestsTotal == nil {
		t.Error("HTTPRequestsTotal未初始化")
	}
}

func TestRecordMirrorEvent(t *testing.T) {
	InitMetrics()

	before := testutil.ToFloat64(MirrorEventsTotal.WithLabelValues("restore", "applied"))
	RecordMirrorEvent("restore", "applied", 0.02)
	RecordMirrorEvent("restore", "applied", 0.03)

	got := testutil.ToFloat64(MirrorEventsTotal.WithLabelValues("restore", "applied"))
	if got-before != 2 {
		t.Errorf("Counter值错误: expected=+2, got=+%f", got-before)
	}
}

func TestRecordAdjustments(t *testing.T) {
	InitMetrics()

	before := testutil.ToFloat64(MirrorAdjustmentsTotal.WithLabelValues("reduce"))
	RecordAdjustments("reduce", 3)
	RecordAdjustments("reduce", 0) // 0次不计

	got := testutil.ToFloat64(MirrorAdjustmentsTotal.WithLabelValues("reduce"))
	if got-before != 3 {
		t.Errorf("Counter值错误: expected=+3, got=+%f", got-before)
	}
}

func TestSetCircuitBreakerState(t *testing.T) {
	InitMetrics()

	SetCircuitBreakerState("publisher", 2)
	if v := testutil.ToFloat64(CircuitBreakerState.WithLabelValues("publisher")); v != 2 {
		t.Errorf("Gauge值错误: expected=2, got=%f", v)
	}
}
