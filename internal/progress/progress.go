// Package progress defines the events a batch run emits and the queue that
// carries them from the worker goroutine to whoever is watching.
package progress

// Stage identifies the step a file is in.
type Stage string

const (
	StageChecking  Stage = "checking"
	StagePlanning  Stage = "planning"
	StageProbing   Stage = "probing"
	StageEncoding  Stage = "encoding"
	StageCompleted Stage = "completed"
	StageError     Stage = "error"
)

// Kind classifies an Event.
type Kind string

const (
	// KindStage reports that a file entered a stage. Encoding progress ticks
	// are stage events with Percent set.
	KindStage Kind = "stage"
	// KindFile is emitted once per attempted file with its outcome.
	KindFile Kind = "file"

	// Terminal kinds. Exactly one ends every run.
	KindSucceeded Kind = "succeeded" // at least one file succeeded
	KindFailed    Kind = "failed"    // no file succeeded
	KindError     Kind = "error"     // the run itself broke
)

// Terminal reports whether k ends a run.
func (k Kind) Terminal() bool {
	return k == KindSucceeded || k == KindFailed || k == KindError
}

// Event is one progress notification.
// Percent is 0..100 when known; negative means unknown.
type Event struct {
	Kind  Kind
	Index int // zero-based position in the batch
	Total int

	Input  string
	Output string // set on file events for attempted items
	Stage  Stage

	Percent float64
	Speed   string // e.g. "38.1x", encoding ticks only
	Message string // short human-friendly status line
	Err     error  // nil on success

	// Aggregates, set on terminal events.
	Succeeded int
	Failed    int
}

// Reporter is implemented by anything interested in progress events.
type Reporter interface {
	Report(e Event)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(Event)

// Report implements Reporter.
func (f ReporterFunc) Report(e Event) {
	f(e)
}

// Discard drops every event.
var Discard Reporter = ReporterFunc(func(Event) {})
