// Package metrics exposes Prometheus instrumentation for a Conductor:
// gauges for staged/active task counts, a counter for task state
// transitions, a counter for captured errors, and a histogram for
// update_task_flow latency.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder is the instrumentation surface a Conductor calls into. Nil method
// receivers are never passed to a Conductor; use NewNoop for a disabled
// Recorder.
type Recorder interface {
	SetStagedTaskCount(runID string, count int)
	SetActiveTaskCount(runID string, count int)
	IncTaskStateTransition(runID, taskID, toState string)
	IncError(runID string)
	ObserveUpdateTaskFlowSeconds(runID string, seconds float64)
}

// Prometheus is the default Recorder, backed by github.com/prometheus/client_golang.
type Prometheus struct {
	stagedTaskCount     *prometheus.GaugeVec
	activeTaskCount     *prometheus.GaugeVec
	taskStateTransition *prometheus.CounterVec
	errorsTotal         *prometheus.CounterVec
	updateTaskFlowSecs  *prometheus.HistogramVec
}

// New registers the conductor metric collectors against reg and returns a
// ready-to-use Prometheus recorder. Pass prometheus.DefaultRegisterer to
// register globally.
func New(reg prometheus.Registerer) *Prometheus {
	factory := promauto.With(reg)

	return &Prometheus{
		stagedTaskCount: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "orquesta",
			Name:      "staged_task_count",
			Help:      "Number of tasks currently staged for a workflow run.",
		}, []string{"run_id"}),
		activeTaskCount: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "orquesta",
			Name:      "active_task_count",
			Help:      "Number of tasks currently in an active state for a workflow run.",
		}, []string{"run_id"}),
		taskStateTransition: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "orquesta",
			Name:      "task_state_transitions_total",
			Help:      "Count of task state transitions processed.",
		}, []string{"run_id", "task_id", "to_state"}),
		errorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "orquesta",
			Name:      "errors_total",
			Help:      "Count of errors captured into a conductor's error log.",
		}, []string{"run_id"}),
		updateTaskFlowSecs: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "orquesta",
			Name:      "update_task_flow_seconds",
			Help:      "Latency of a single UpdateTaskFlow call.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"run_id"}),
	}
}

func (p *Prometheus) SetStagedTaskCount(runID string, count int) {
	p.stagedTaskCount.WithLabelValues(runID).Set(float64(count))
}

func (p *Prometheus) SetActiveTaskCount(runID string, count int) {
	p.activeTaskCount.WithLabelValues(runID).Set(float64(count))
}

func (p *Prometheus) IncTaskStateTransition(runID, taskID, toState string) {
	p.taskStateTransition.WithLabelValues(runID, taskID, toState).Inc()
}

func (p *Prometheus) IncError(runID string) {
	p.errorsTotal.WithLabelValues(runID).Inc()
}

func (p *Prometheus) ObserveUpdateTaskFlowSeconds(runID string, seconds float64) {
	p.updateTaskFlowSecs.WithLabelValues(runID).Observe(seconds)
}

// Noop discards every recorded metric; it is the Conductor's default.
type Noop struct{}

// NewNoop returns a Recorder that discards everything.
func NewNoop() *Noop { return &Noop{} }

func (Noop) SetStagedTaskCount(string, int)                 {}
func (Noop) SetActiveTaskCount(string, int)                 {}
func (Noop) IncTaskStateTransition(string, string, string)  {}
func (Noop) IncError(string)                                {}
func (Noop) ObserveUpdateTaskFlowSeconds(string, float64)    {}
