package platform

import "github.com/mj1618/locator-cli/internal/model"

// Reader reads the UI element tree from the OS accessibility layer.
type Reader interface {
	// ReadElements returns the element tree for the specified target.
	ReadElements(opts ReadOptions) ([]model.Element, error)

	// ListWindows returns all windows, optionally filtered.
	ListWindows(opts ListOptions) ([]model.Window, error)
}
