package pipeline

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrUnknownFailure stands in for a nil error passed to Failed.
	ErrUnknownFailure = errors.New("pipeline: failure without cause")

	// ErrEmptyName is returned by builders for a pipe or stage without a name.
	ErrEmptyName = errors.New("pipeline: stage name must not be empty")

	// ErrNoModules is returned by PipeBuilder.Build when no module was supplied.
	ErrNoModules = errors.New("pipeline: a pipe requires at least one module")

	// ErrNoStages is returned by SystemBuilder.Build when no stage was supplied.
	ErrNoStages = errors.New("pipeline: a system requires at least one stage")

	// ErrNilFuture is the cause recorded when a module or stage returns a nil
	// Future.
	ErrNilFuture = errors.New("pipeline: flow returned a nil future")

	// ErrPostFilterPosition is returned when a post-filter was set before the
	// last module was added.
	ErrPostFilterPosition = errors.New("pipeline: post-filter must be set after the last module")

	// ErrNilSystem is returned by NestBuilder.Build when no system was supplied.
	ErrNilSystem = errors.New("pipeline: a nested stage requires a system")

	// ErrInputType is the cause recorded when an erased module receives an
	// input of the wrong type.
	ErrInputType = errors.New("pipeline: module input has the wrong type")
)

// StageError is the unrecoverable failure a pump reports when a stage failed
// and the system has no failure handler.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %q: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// AsStageError returns the *StageError in err's chain, if any.
func AsStageError(err error) (*StageError, bool) {
	var se *StageError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
