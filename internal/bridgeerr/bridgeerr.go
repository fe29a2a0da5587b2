// Package bridgeerr defines the bridge's error taxonomy, mirroring the
// category split the original Rust implementation made between
// configuration, transport, ingestion, forwarding, and expression
// errors — expressed here as a single category-tagged Go error type with
// one sentinel per category, usable with errors.Is/errors.As instead of an
// enum-with-variants.
package bridgeerr

import "fmt"

// Category identifies which subsystem raised an error.
type Category string

const (
	CategoryConfig      Category = "config"
	CategoryBroker      Category = "broker"
	CategoryIngestion   Category = "ingestion"
	CategoryForward     Category = "forward"
	CategoryExpression  Category = "expression"
	CategoryTransportIO Category = "transport_io"
)

// Error is the common shape every bridgeerr error satisfies.
type Error struct {
	Category Category
	Msg      string
	Err      error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Category, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Category, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is(err, bridgeerr.Config) (etc) match by category alone,
// ignoring message and wrapped cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Msg == "" && t.Err == nil {
		return e.Category == t.Category
	}
	return e.Category == t.Category && e.Msg == t.Msg
}

// Sentinel zero-message errors for category-only errors.Is checks, e.g.
// errors.Is(err, bridgeerr.Config).
var (
	Config      = &Error{Category: CategoryConfig}
	Broker      = &Error{Category: CategoryBroker}
	Ingestion   = &Error{Category: CategoryIngestion}
	Forward     = &Error{Category: CategoryForward}
	Expression  = &Error{Category: CategoryExpression}
	TransportIO = &Error{Category: CategoryTransportIO}
)

func Configf(format string, args ...interface{}) error {
	return &Error{Category: CategoryConfig, Msg: fmt.Sprintf(format, args...)}
}

func Brokerf(format string, args ...interface{}) error {
	return &Error{Category: CategoryBroker, Msg: fmt.Sprintf(format, args...)}
}

func Ingestionf(format string, args ...interface{}) error {
	return &Error{Category: CategoryIngestion, Msg: fmt.Sprintf(format, args...)}
}

func Forwardf(format string, args ...interface{}) error {
	return &Error{Category: CategoryForward, Msg: fmt.Sprintf(format, args...)}
}

func Expressionf(format string, args ...interface{}) error {
	return &Error{Category: CategoryExpression, Msg: fmt.Sprintf(format, args...)}
}

func TransportIOf(format string, args ...interface{}) error {
	return &Error{Category: CategoryTransportIO, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches cat/msg context to an existing error while keeping it
// unwrappable to the original cause.
func Wrap(cat Category, msg string, err error) error {
	return &Error{Category: cat, Msg: msg, Err: err}
}
