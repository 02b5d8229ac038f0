// Package web implements the environment accessor for browser pages
// driven over the Chrome DevTools protocol with go-rod.
package web

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/rs/zerolog/log"

	"github.com/mj1618/locator-cli/internal/config"
	"github.com/mj1618/locator-cli/internal/env"
	"github.com/mj1618/locator-cli/internal/env/snapshot"
	"github.com/mj1618/locator-cli/internal/model"
)

// Browser is a connected browser. Close releases it, and the launched
// process if Connect started one.
type Browser struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
}

// Connect attaches to cfg.ControlURL, or launches a local browser when it is
// empty.
func Connect(ctx context.Context, cfg config.Web) (*Browser, error) {
	controlURL := cfg.ControlURL
	var l *launcher.Launcher
	if controlURL == "" {
		l = launcher.New().Headless(cfg.Headless)
		u, err := l.Launch()
		if err != nil {
			return nil, env.Fault("launch browser", err)
		}
		controlURL = u
	}
	b := rod.New().ControlURL(controlURL).Context(ctx)
	if err := b.Connect(); err != nil {
		if l != nil {
			l.Kill()
		}
		return nil, env.Fault("connect browser", err)
	}
	log.Debug().Str("control_url", controlURL).Msg("browser connected")
	return &Browser{browser: b, launcher: l}, nil
}

// Open navigates a new page to url and waits for it to load.
func (b *Browser) Open(ctx context.Context, url string) (*Environment, error) {
	page, err := b.browser.Page(proto.TargetCreateTarget{URL: url})
	if err != nil {
		return nil, env.Fault("open page", err)
	}
	if err := page.Context(ctx).WaitLoad(); err != nil {
		return nil, env.Fault("load page", err)
	}
	return New(page), nil
}

func (b *Browser) Close() error {
	err := b.browser.Close()
	if b.launcher != nil {
		b.launcher.Kill()
	}
	return err
}

// Environment queries one page.
type Environment struct {
	page *rod.Page
}

var _ env.Accessor = (*Environment)(nil)

func New(page *rod.Page) *Environment {
	return &Environment{page: page}
}

func (e *Environment) query(ctx context.Context, loc model.Locator) (rod.Elements, error) {
	sel, err := Translate(loc)
	if err != nil {
		return nil, err
	}
	page := e.page.Context(ctx)
	var els rod.Elements
	if sel.XPath != "" {
		els, err = page.ElementsX(sel.XPath)
	} else {
		els, err = page.Elements(sel.CSS)
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, env.Fault("query "+sel.String(), err)
	}
	return els, nil
}

func (e *Environment) QueryCount(ctx context.Context, loc model.Locator) (int, error) {
	els, err := e.query(ctx, loc)
	if err != nil {
		return 0, err
	}
	return len(els), nil
}

// QueryFirst returns a *rod.Element, or nil when nothing matches.
func (e *Environment) QueryFirst(ctx context.Context, loc model.Locator) (env.Handle, error) {
	els, err := e.query(ctx, loc)
	if err != nil || len(els) == 0 {
		return nil, err
	}
	return els.First(), nil
}

// captureJS collects the attributes of `this` and its ancestry in one round
// trip.
const captureJS = `function (testIDAttrs) {
	const el = this;
	const attr = (n) => el.getAttribute(n) || "";
	let testID = "", testIDAttr = "";
	for (const a of testIDAttrs) {
		const v = el.getAttribute(a);
		if (v) { testID = v; testIDAttr = a; break; }
	}
	const ancestry = [];
	for (let cur = el; cur && cur.nodeType === 1; cur = cur.parentElement) {
		const tag = cur.tagName.toLowerCase();
		const sibs = cur.parentElement ? Array.from(cur.parentElement.children) : [cur];
		let index = 0, count = 0;
		for (const s of sibs) {
			if (s.tagName === cur.tagName) {
				count++;
				if (s === cur) index = count;
			}
		}
		const role = cur.getAttribute("role");
		const overlay = tag === "dialog" || cur.getAttribute("aria-modal") === "true" ||
			role === "dialog" || role === "alertdialog";
		ancestry.push({tag, index, count, overlay});
	}
	return JSON.stringify({
		tag: el.tagName.toLowerCase(),
		id: el.id || "",
		name: attr("name"),
		classes: Array.from(el.classList),
		text: (el.innerText || el.textContent || "").trim(),
		placeholder: attr("placeholder"),
		aria_label: attr("aria-label"),
		test_id: testID,
		test_id_attr: testIDAttr,
		role: attr("role"),
		type: attr("type"),
		ancestry,
	});
}`

// ReadAttributes captures a *rod.Element returned by QueryFirst.
func (e *Environment) ReadAttributes(ctx context.Context, h env.Handle) (model.CapturedAttributes, error) {
	el, ok := h.(*rod.Element)
	if !ok || el == nil {
		return model.CapturedAttributes{}, env.Fault("read attributes", fmt.Errorf("handle %T is not a browser element", h))
	}
	res, err := el.Context(ctx).Eval(captureJS, snapshot.TestIDAttrs)
	if err != nil {
		if ctx.Err() != nil {
			return model.CapturedAttributes{}, ctx.Err()
		}
		return model.CapturedAttributes{}, env.Fault("read attributes", err)
	}
	return decodeAttributes(res.Value.Str())
}

func decodeAttributes(raw string) (model.CapturedAttributes, error) {
	var attrs model.CapturedAttributes
	if err := json.Unmarshal([]byte(raw), &attrs); err != nil {
		return model.CapturedAttributes{}, fmt.Errorf("decode captured attributes: %w", err)
	}
	return attrs, nil
}
