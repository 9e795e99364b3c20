package observability

// Loop driver events.
const (
	EventTurnStart    EventType = "kernel.turn.start"
	EventStepStart    EventType = "kernel.step.start"
	EventModelRetry   EventType = "kernel.model.retry"
	EventToolCall     EventType = "kernel.tool.call"
	EventToolComplete EventType = "kernel.tool.complete"
	EventOutcome      EventType = "kernel.outcome"
)

// Operation executor events.
const (
	EventOperationStep       EventType = "operate.step.start"
	EventOperationStepDone   EventType = "operate.step.complete"
	EventOperationStepFailed EventType = "operate.step.failed"
	EventOperationComplete   EventType = "operate.complete"
)
