package schema

// Event type constants published by the tracker for each dispatched action.
const (
	EventRunReset     = "run_reset"
	EventRunStarted   = "run_started"
	EventRunCompleted = "run_completed"
	EventRunFailed    = "run_failed"

	EventStepStarted   = "step_started"
	EventStepCompleted = "step_completed"
	EventStepFailed    = "step_failed"
	EventStepUpdated   = "step_updated"
	EventStepSkipped   = "step_skipped"

	EventStateRewound = "state_rewound"
)

// RunStatus represents the overall lifecycle state of a pipeline run.
type RunStatus string

const (
	RunIdle     RunStatus = "idle"
	RunRunning  RunStatus = "running"
	RunComplete RunStatus = "complete"
	RunError    RunStatus = "error"
)

// StepStatus represents the lifecycle state of a single step.
type StepStatus string

const (
	StepPending  StepStatus = "pending"
	StepRunning  StepStatus = "running"
	StepComplete StepStatus = "complete"
	StepError    StepStatus = "error"
	StepSkipped  StepStatus = "skipped"
)
