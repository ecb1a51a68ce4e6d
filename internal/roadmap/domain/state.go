package domain

// State is a step of the generation workflow.
type State string

const (
	StateReceived      State = "RECEIVED"
	StateCreditChecked State = "CREDIT_CHECKED"
	StateGenerated     State = "GENERATED"
	StatePublished     State = "PUBLISHED"
	StateSettled       State = "SETTLED"
	StateFailed        State = "FAILED"
)
