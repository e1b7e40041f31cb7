package observability

import (
	"fmt"
	"runtime/debug"
)

// RecoverPanic recovers from a panic, logs it with its stack and then runs
// onPanic. It must be called directly in a defer statement:
//
//	defer observability.RecoverPanic(logger, "login handler", func(err error) {
//	    httputil.WriteInternalError(w, err)
//	})
//
// The panic is not re-raised.
func RecoverPanic(logger *Logger, where string, onPanic func(err error)) {
	r := recover()
	if r == nil {
		return
	}

	logger.WithFields(map[string]interface{}{
		"panic":   fmt.Sprint(r),
		"stack":   string(debug.Stack()),
		"context": where,
	}).Error("PANIC recovered")

	if onPanic != nil {
		onPanic(MustRecover(r))
	}
}

// MustRecover converts a recovered panic value into an error, nil when r is nil
func MustRecover(r interface{}) error {
	if r == nil {
		return nil
	}
	if err, ok := r.(error); ok {
		return fmt.Errorf("panic: %w", err)
	}
	return fmt.Errorf("panic: %v", r)
}
