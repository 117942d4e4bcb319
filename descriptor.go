package orquesta

// TaskDescriptor is what get_start_tasks/get_next_tasks/get_task return: a
// task ready to run, with its rendered context and rendered spec (spec.md
// §4.4.3/§6).
type TaskDescriptor struct {
	ID   string
	Name string

	// Ctx is the rendered context value this activation runs against,
	// already carrying __current_task.
	Ctx map[string]any

	// Action is the task spec's action expression, rendered against Ctx.
	Action any

	// Input is the task spec's input map, rendered against Ctx.
	Input map[string]any
}
