package future

import (
	"fmt"
	"runtime"
)

// PanicError carries a recovered panic value and the stack of the goroutine
// that panicked.
type PanicError struct {
	Value any
	Stack string
}

// NewPanicError captures the current goroutine stack for v. Call it from the
// deferred function that recovered v.
func NewPanicError(v any) *PanicError {
	buf := make([]byte, 8192)
	n := runtime.Stack(buf, false)
	return &PanicError{Value: v, Stack: string(buf[:n])}
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap returns the panic value when it is an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
