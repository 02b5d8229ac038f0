// Package env defines the environment accessor contract shared by the web,
// desktop and snapshot backends.
package env

import (
	"context"
	"errors"
	"fmt"

	"github.com/mj1618/locator-cli/internal/model"
)

// Handle is an opaque reference to a live element, owned by the accessor
// that returned it.
type Handle interface{}

// Environment answers locator queries against a live UI. Implementations
// interpret every model.LocatorKind. "No match" is a zero count or a nil
// handle, never an error.
type Environment interface {
	QueryCount(ctx context.Context, loc model.Locator) (int, error)
	QueryFirst(ctx context.Context, loc model.Locator) (Handle, error)
}

// AttributeReader is the capture-time side of an accessor.
type AttributeReader interface {
	ReadAttributes(ctx context.Context, h Handle) (model.CapturedAttributes, error)
}

// Accessor is an environment usable for both capture and playback.
type Accessor interface {
	Environment
	AttributeReader
}

// ErrAccessorFault marks an unreachable or crashed environment.
var ErrAccessorFault = errors.New("environment accessor fault")

// FaultError wraps an infrastructure failure of an accessor.
type FaultError struct {
	Op  string
	Err error
}

func (e *FaultError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrAccessorFault, e.Op, e.Err)
}

// Unwrap exposes both ErrAccessorFault and the cause to errors.Is.
func (e *FaultError) Unwrap() []error {
	return []error{ErrAccessorFault, e.Err}
}

// Fault wraps err as an accessor fault. Context errors pass through
// unchanged so callers can tell timeouts and cancellation apart.
func Fault(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return err
	}
	var fe *FaultError
	if errors.As(err, &fe) {
		return err
	}
	return &FaultError{Op: op, Err: err}
}

// ErrUnsupportedLocator is returned when an accessor cannot interpret a locator.
var ErrUnsupportedLocator = errors.New("unsupported locator")
