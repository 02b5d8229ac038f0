package platform

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/mj1618/locator-cli/internal/model"
)

// Dump is a recorded accessibility tree, as written by a native reader's
// JSON output.
type Dump struct {
	Windows  []model.Window  `json:"windows,omitempty"`
	Elements []model.Element `json:"elements"`
}

// FileReader serves a Dump as if it were a live application. It lets the
// desktop accessor run on machines without an accessibility backend.
type FileReader struct {
	path string
}

func NewFileReader(path string) *FileReader {
	return &FileReader{path: path}
}

func (r *FileReader) load() (*Dump, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("read tree dump: %w", err)
	}
	var d Dump
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parse tree dump %s: %w", r.path, err)
	}
	return &d, nil
}

// ReadElements returns the dumped elements. PID and WindowID keep the
// top-level windows the dump lists for them, window filters select
// top-level windows by title, and depth limits are applied.
func (r *FileReader) ReadElements(opts ReadOptions) ([]model.Element, error) {
	d, err := r.load()
	if err != nil {
		return nil, err
	}
	elements := d.Elements
	if opts.PID != 0 || opts.WindowID != 0 {
		titles := make(map[string]bool)
		for _, w := range d.Windows {
			if (opts.PID == 0 || w.PID == opts.PID) && (opts.WindowID == 0 || w.ID == opts.WindowID) {
				titles[w.Title] = true
			}
		}
		var kept []model.Element
		for _, el := range elements {
			if el.Role == "window" && titles[el.Title] {
				kept = append(kept, el)
			}
		}
		elements = kept
	}
	if opts.Window != "" {
		want := strings.ToLower(opts.Window)
		var kept []model.Element
		for _, el := range elements {
			if el.Role == "window" && strings.Contains(strings.ToLower(el.Title), want) {
				kept = append(kept, el)
			}
		}
		elements = kept
	}
	if opts.Depth > 0 {
		elements = truncateDepth(elements, opts.Depth)
	}
	return elements, nil
}

// ListWindows returns the windows recorded in the dump.
func (r *FileReader) ListWindows(opts ListOptions) ([]model.Window, error) {
	d, err := r.load()
	if err != nil {
		return nil, err
	}
	var out []model.Window
	for _, w := range d.Windows {
		if opts.PID != 0 && w.PID != opts.PID {
			continue
		}
		if opts.App != "" && !strings.EqualFold(w.App, opts.App) {
			continue
		}
		out = append(out, w)
	}
	return out, nil
}

func truncateDepth(elements []model.Element, depth int) []model.Element {
	out := make([]model.Element, len(elements))
	for i, el := range elements {
		if depth <= 1 {
			el.Children = nil
		} else {
			el.Children = truncateDepth(el.Children, depth-1)
		}
		out[i] = el
	}
	return out
}
