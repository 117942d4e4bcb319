package orquesta

import (
	"github.com/nmaludy/orquesta-go/emit"
	"github.com/nmaludy/orquesta-go/expr"
	"github.com/nmaludy/orquesta-go/metrics"
	"github.com/nmaludy/orquesta-go/store"
)

// Option configures a Conductor at construction time.
type Option func(*Conductor)

// WithEmitter sets the Emitter events are sent to. Defaults to emit.NullEmitter.
func WithEmitter(e emit.Emitter) Option {
	return func(c *Conductor) { c.emitter = e }
}

// WithMetrics sets the Recorder instrumentation calls are sent to. Defaults
// to metrics.Noop.
func WithMetrics(r metrics.Recorder) Option {
	return func(c *Conductor) { c.metrics = r }
}

// WithStore attaches a ConductorStore the caller can use to persist
// Serialize() snapshots. The Conductor itself never calls Store methods —
// persistence timing is a caller decision — but it is carried so a single
// option set wires evaluator, emitter, metrics, and store together.
func WithStore(s store.ConductorStore) Option {
	return func(c *Conductor) { c.store = s }
}

// WithEvaluator sets the expr.Evaluator used for transition criteria and for
// rendering each task's action and input. Workflow input/var/output rendering
// is done by the Spec itself and does not use this evaluator. Defaults to
// expr.NewCELEvaluator().
func WithEvaluator(ev expr.Evaluator) Option {
	return func(c *Conductor) { c.evaluator = ev }
}

// WithRunID sets the identifier this Conductor's instance reports on emitted
// events and metrics. Defaults to "".
func WithRunID(runID string) Option {
	return func(c *Conductor) { c.runID = runID }
}
