package pipeline

import "fmt"

// ErrorKind classifies why a run or stage failed
type ErrorKind string

const (
	// KindBlocking: claim extraction or report synthesis failed; the run is marked failed
	KindBlocking ErrorKind = "blocking_stage"
	// KindNonBlocking: team, market, claim or document verification failed; the run continues
	KindNonBlocking ErrorKind = "non_blocking_stage"
	// KindPersistence: a write failed; the run is marked failed
	KindPersistence ErrorKind = "persistence"
)

// StageError is returned by RunDD when a run aborts
type StageError struct {
	Kind  ErrorKind
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s (%s): %v", e.Stage, e.Kind, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
