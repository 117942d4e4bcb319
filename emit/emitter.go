package emit

import "context"

// Emitter receives observability events from a Conductor. Implementations
// must not block the caller for long and must not panic; Emit has no return
// value precisely so a Conductor never has to handle an emitter failure.
type Emitter interface {
	Emit(event Event)
	EmitBatch(ctx context.Context, events []Event) error
	Flush(ctx context.Context) error
}
