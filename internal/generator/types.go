package generator

import "errors"

var (
	// ErrEngineNotReady indicates an engine that has not been initialised.
	ErrEngineNotReady = errors.New("generator: engine is not ready")

	// ErrBadOptions indicates a non-positive envelope or iteration budget.
	ErrBadOptions = errors.New("generator: invalid options")

	// ErrGaveUp indicates an event that could not be generated within the retry budget.
	ErrGaveUp = errors.New("generator: retry budget exhausted")
)

// Status is the outcome of one generation attempt.
type Status int

const (
	GenOK Status = iota
	MaxIterError
	ASqMaxError
)

func (s Status) String() string {
	switch s {
	case GenOK:
		return "ok"
	case MaxIterError:
		return "max-iter-error"
	case ASqMaxError:
		return "asq-max-error"
	}
	return "unknown"
}

// Options controls the accept/reject loop.
type Options struct {
	// IterationsMax bounds the rejections of one attempt.
	IterationsMax int

	// ASqMax is the initial envelope.
	ASqMax float64

	// SquareDP draws points uniformly in the square DP.
	SquareDP bool

	// MaxRetries bounds the failed attempts per event in Run.
	MaxRetries int

	// RestartOnASqMax discards the events of a run when the envelope had to
	// be raised and starts again, at most MaxRestarts times.
	RestartOnASqMax bool
	MaxRestarts     int
}

func DefaultOptions() Options {
	return Options{
		IterationsMax:   100000,
		ASqMax:          1.25,
		MaxRetries:      10,
		RestartOnASqMax: true,
		MaxRestarts:     10,
	}
}

// Event is one generated point.
type Event struct {
	M13Sq      float64
	M23Sq      float64
	MPrime     float64
	ThetaPrime float64
	Jacobian   float64
	ASq        float64
	Eff        float64
}

// Trial describes one drawn point and what happened to it.
type Trial struct {
	M13Sq, M23Sq float64
	Value        float64
	Eff          float64
	Envelope     float64
	MaxObserved  float64
	Accepted     bool
	Raised       bool
}

// Observer is called for every trial.
type Observer interface {
	OnTrial(tr Trial)
}

// Metric accumulates a figure of merit over trials.
type Metric interface {
	Name() string
	Observe(tr Trial)
	Value() float64
	Reset()
}

// Stats counts trials and failures over the lifetime of a generator.
type Stats struct {
	Trials         int
	Accepted       int
	EnvelopeRaises int
	MaxIterErrors  int
	ASqMaxErrors   int
}

// AcceptanceRate is accepted over trials, 0 before the first trial.
func (s Stats) AcceptanceRate() float64 {
	if s.Trials == 0 {
		return 0
	}
	return float64(s.Accepted) / float64(s.Trials)
}

// Result is the outcome of Run.
type Result struct {
	Events   []Event
	Statuses map[Status]int
	Restarts int
	Stats    Stats
	Metrics  map[string]float64
	ASqMax   float64
}
