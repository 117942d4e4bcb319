package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestPrometheus_RecordsStagedTaskCount(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := New(reg)

	rec.SetStagedTaskCount("run-1", 3)

	m := &dto.Metric{}
	if err := rec.stagedTaskCount.WithLabelValues("run-1").Write(m); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if got := m.GetGauge().GetValue(); got != 3 {
		t.Fatalf("staged_task_count = %v, want 3", got)
	}
}

func TestPrometheus_IncrementsTaskStateTransition(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := New(reg)

	rec.IncTaskStateTransition("run-1", "task1", "succeeded")
	rec.IncTaskStateTransition("run-1", "task1", "succeeded")

	m := &dto.Metric{}
	if err := rec.taskStateTransition.WithLabelValues("run-1", "task1", "succeeded").Write(m); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if got := m.GetCounter().GetValue(); got != 2 {
		t.Fatalf("count = %v, want 2", got)
	}
}

func TestNoop_NeverPanics(t *testing.T) {
	rec := NewNoop()
	rec.SetStagedTaskCount("run-1", 1)
	rec.SetActiveTaskCount("run-1", 1)
	rec.IncTaskStateTransition("run-1", "task1", "succeeded")
	rec.IncError("run-1")
	rec.ObserveUpdateTaskFlowSeconds("run-1", 0.01)
}
