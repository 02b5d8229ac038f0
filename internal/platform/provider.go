package platform

import (
	"fmt"
	"runtime"
)

// Provider bundles the platform backends for the current OS.
type Provider struct {
	Reader Reader
}

// ErrUnsupported is returned when no native accessibility backend is
// registered for this OS. Desktop trees can still be loaded from a dump
// with NewFileReader.
var ErrUnsupported = fmt.Errorf("no native accessibility backend on %s/%s; use a dumped tree file", runtime.GOOS, runtime.GOARCH)

// NewProviderFunc is set by platform-specific packages via init().
var NewProviderFunc func() (*Provider, error)

// NewProvider returns a Provider for the current OS.
func NewProvider() (*Provider, error) {
	if NewProviderFunc == nil {
		return nil, ErrUnsupported
	}
	return NewProviderFunc()
}
