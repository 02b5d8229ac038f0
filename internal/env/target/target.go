// Package target opens the environment a command or tool call points at.
package target

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mj1618/locator-cli/internal/config"
	"github.com/mj1618/locator-cli/internal/env"
	"github.com/mj1618/locator-cli/internal/env/desktop"
	"github.com/mj1618/locator-cli/internal/env/snapshot"
	"github.com/mj1618/locator-cli/internal/env/web"
	"github.com/mj1618/locator-cli/internal/model"
	"github.com/mj1618/locator-cli/internal/platform"
)

// Kind selects an accessor backend.
type Kind string

const (
	KindSnapshot Kind = "snapshot"
	KindWeb      Kind = "web"
	KindDesktop  Kind = "desktop"
)

// ErrNoTarget is returned when a Target names no environment.
var ErrNoTarget = errors.New("no environment given (use a snapshot, a url or a desktop tree)")

// Target describes where to resolve or capture.
type Target struct {
	Kind         Kind
	Snapshot     string // snapshot file path
	SnapshotYAML string // inline snapshot document
	URL          string
	ControlURL   string // attach to a running browser instead of launching one
	Tree         string // dumped desktop tree; empty uses the native backend
	App          string
	Window       string
}

// Infer fills in Kind from whichever source field is set.
func (t Target) Infer() Kind {
	switch {
	case t.Kind != "":
		return t.Kind
	case t.URL != "":
		return KindWeb
	case t.Tree != "" || t.App != "":
		return KindDesktop
	default:
		return KindSnapshot
	}
}

// Opened is a live accessor. Close releases whatever Open acquired.
type Opened struct {
	Accessor env.Accessor
	Platform model.Platform
	close    func() error
}

func (o *Opened) Close() error {
	if o.close == nil {
		return nil
	}
	return o.close()
}

// Open connects to the environment described by t.
func Open(ctx context.Context, cfg *config.Config, t Target) (*Opened, error) {
	switch kind := t.Infer(); kind {
	case KindSnapshot:
		doc, err := openSnapshot(t)
		if err != nil {
			return nil, err
		}
		return &Opened{Accessor: doc, Platform: model.PlatformWeb}, nil
	case KindWeb:
		return openWeb(ctx, cfg.Web, t)
	case KindDesktop:
		return openDesktop(cfg.Desktop, t)
	default:
		return nil, fmt.Errorf("unknown environment: %q (expected snapshot, web, or desktop)", kind)
	}
}

func openSnapshot(t Target) (*snapshot.Document, error) {
	switch {
	case t.SnapshotYAML != "":
		return snapshot.Load(strings.NewReader(t.SnapshotYAML))
	case t.Snapshot != "":
		return snapshot.LoadFile(t.Snapshot)
	default:
		return nil, ErrNoTarget
	}
}

func openWeb(ctx context.Context, cfg config.Web, t Target) (*Opened, error) {
	if t.URL == "" {
		return nil, fmt.Errorf("web environment: %w", ErrNoTarget)
	}
	if t.ControlURL != "" {
		cfg.ControlURL = t.ControlURL
	}
	b, err := web.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	page, err := b.Open(ctx, t.URL)
	if err != nil {
		b.Close()
		return nil, err
	}
	return &Opened{Accessor: page, Platform: model.PlatformWeb, close: b.Close}, nil
}

func openDesktop(cfg config.Desktop, t Target) (*Opened, error) {
	var reader platform.Reader
	if t.Tree != "" {
		reader = platform.NewFileReader(t.Tree)
	} else {
		provider, err := platform.NewProvider()
		if err != nil {
			return nil, err
		}
		reader = provider.Reader
	}
	scope := platform.ReadOptions{App: t.App, Window: t.Window}
	return &Opened{
		Accessor: desktop.New(reader, scope, cfg.CacheTTL),
		Platform: model.PlatformDesktop,
	}, nil
}
