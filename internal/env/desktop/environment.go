// Package desktop implements the environment accessor for native desktop
// applications on top of a platform accessibility Reader.
package desktop

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mj1618/locator-cli/internal/env"
	"github.com/mj1618/locator-cli/internal/env/snapshot"
	"github.com/mj1618/locator-cli/internal/model"
	"github.com/mj1618/locator-cli/internal/platform"
)

// Environment queries one application's accessibility tree.
type Environment struct {
	reader platform.Reader
	cache  *TreeCache

	mu       sync.Mutex
	scope    platform.ReadOptions
	resolved bool
}

var _ env.Accessor = (*Environment)(nil)

// New returns an Environment reading the tree selected by scope. Trees are
// re-read at most once per ttl.
func New(reader platform.Reader, scope platform.ReadOptions, ttl time.Duration) *Environment {
	return &Environment{reader: reader, scope: scope, cache: NewTreeCache(ttl)}
}

func (e *Environment) document(ctx context.Context) (*snapshot.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	scope, err := e.readScope()
	if err != nil {
		return nil, env.Fault("read accessibility tree", err)
	}
	doc, err := e.cache.Document(e.reader, scope)
	if err != nil {
		return nil, env.Fault("read accessibility tree", err)
	}
	return doc, nil
}

// readScope pins an application name to the process of its first listed
// window. The lookup runs once per Environment.
func (e *Environment) readScope() (platform.ReadOptions, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.resolved || e.scope.App == "" || e.scope.PID != 0 {
		return e.scope, nil
	}
	wins, err := e.reader.ListWindows(platform.ListOptions{App: e.scope.App})
	if err != nil {
		return e.scope, err
	}
	if len(wins) == 0 {
		return e.scope, fmt.Errorf("application %q has no windows", e.scope.App)
	}
	e.scope.PID = wins[0].PID
	e.resolved = true
	return e.scope, nil
}

func (e *Environment) QueryCount(ctx context.Context, loc model.Locator) (int, error) {
	doc, err := e.document(ctx)
	if err != nil {
		return 0, err
	}
	return doc.QueryCount(ctx, loc)
}

func (e *Environment) QueryFirst(ctx context.Context, loc model.Locator) (env.Handle, error) {
	doc, err := e.document(ctx)
	if err != nil {
		return nil, err
	}
	return doc.QueryFirst(ctx, loc)
}

// ReadAttributes reads a node returned by QueryFirst. Handles stay valid
// after the cache expires.
func (e *Environment) ReadAttributes(ctx context.Context, h env.Handle) (model.CapturedAttributes, error) {
	n, ok := h.(*snapshot.Node)
	if !ok || n == nil {
		return model.CapturedAttributes{}, env.Fault("read attributes", errHandle(h))
	}
	if err := ctx.Err(); err != nil {
		return model.CapturedAttributes{}, err
	}
	return snapshot.Attributes(n), nil
}

// Invalidate drops cached trees, e.g. after the application changed.
func (e *Environment) Invalidate() {
	e.cache.InvalidateAll()
}

func errHandle(h env.Handle) error {
	return fmt.Errorf("handle %T is not a desktop element", h)
}
