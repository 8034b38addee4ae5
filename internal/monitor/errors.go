package monitor

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors for the monitor package.
//
// The resolution errors (ErrQueryType, ErrQueryIndex, ErrQueryLookup) are
// fatal and surface immediately: a query the caller got wrong must never
// degrade into an empty result. Failures below resolution are absorbed
// per record and only surface collectively through AggregateError when an
// operation produces nothing usable at all.
var (
	// ErrQueryType is returned when a query value is neither absent, an
	// integer index nor a string.
	ErrQueryType = errors.New("monitor: invalid query")

	// ErrQueryIndex is returned when an integer query is outside the
	// bounds of the monitor list.
	ErrQueryIndex = errors.New("monitor: display index out of range")

	// ErrQueryLookup is returned when a string query matches no monitor
	// on any field.
	ErrQueryLookup = errors.New("monitor: no display matched")

	// ErrUnsupported is returned by channel providers on platforms where
	// the underlying display APIs do not exist.
	ErrUnsupported = errors.New("monitor: brightness control is not supported on this platform")
)

// Failure records one per-monitor error collected during dispatch.
type Failure struct {
	// Monitor is the display string of the record that failed, or empty
	// when the failure happened before a record was resolved.
	Monitor string

	// Op is the operation that failed ("get" or "set").
	Op string

	// Err is the underlying error.
	Err error
}

// AggregateError reports that an entire dispatch produced no usable
// result: either every resolved record's channel call failed, or
// resolution produced zero usable records. It lists every collected
// per-monitor failure so nothing is silently dropped.
type AggregateError struct {
	Failures []Failure
}

// Error formats one line per collected failure, or a fallback message
// when the operation simply produced no output at all.
func (e *AggregateError) Error() string {
	if len(e.Failures) == 0 {
		return "monitor: no valid output was received from any brightness channel"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "monitor: all %d display(s) failed:", len(e.Failures))
	for _, f := range e.Failures {
		name := f.Monitor
		if name == "" {
			name = "<unresolved>"
		}
		fmt.Fprintf(&b, "\n\t%s -> %s: %v", name, f.Op, f.Err)
	}
	return b.String()
}
