package splitlog

// runState tracks a run through its state machine: idle, then
// parsing/flushing per batch, then archiving, cleaning, and a terminal
// done or failed. The terminal state is stamped onto the run's final
// log line and its audit record so a run's outcome is visible without
// replaying logs.
type runState string

const (
	stateIdle      runState = "idle"
	stateParsing   runState = "parsing"
	stateFlushing  runState = "flushing"
	stateArchiving runState = "archiving"
	stateCleaning  runState = "cleaning"
	stateDone      runState = "done"
	stateFailed    runState = "failed"
)
