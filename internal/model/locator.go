package model

import (
	"fmt"
	"sort"
	"strings"
)

// LocatorKind identifies how a locator's value is interpreted.
type LocatorKind string

const (
	KindID          LocatorKind = "id"
	KindTestID      LocatorKind = "test-id"
	KindAriaLabel   LocatorKind = "aria-label"
	KindName        LocatorKind = "name"
	KindPlaceholder LocatorKind = "placeholder"
	KindText        LocatorKind = "text"
	KindClass       LocatorKind = "class"
	KindRole        LocatorKind = "role"
	KindXPath       LocatorKind = "xpath"
)

// ValidKinds lists every LocatorKind an environment accessor must understand.
var ValidKinds = []LocatorKind{
	KindID, KindTestID, KindAriaLabel, KindName, KindPlaceholder,
	KindText, KindClass, KindRole, KindXPath,
}

// ParseKind converts a string to a LocatorKind.
func ParseKind(s string) (LocatorKind, error) {
	for _, k := range ValidKinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown locator kind: %q", s)
}

// Locator is one candidate way to find an element. Locators are immutable
// once extracted.
type Locator struct {
	Kind        LocatorKind `yaml:"kind"              json:"kind"`
	Value       string      `yaml:"value"             json:"value"`
	Tag         string      `yaml:"tag,omitempty"     json:"tag,omitempty"`     // restricts matches to this tag
	Attr        string      `yaml:"attr,omitempty"    json:"attr,omitempty"`    // test-id attribute name
	Role        string      `yaml:"role,omitempty"    json:"role,omitempty"`    // role heuristic only
	Partial     bool        `yaml:"partial,omitempty" json:"partial,omitempty"` // text is a truncated prefix
	Reliability int         `yaml:"reliability"       json:"reliability"`
}

// String renders a stable descriptor, used as the telemetry grouping key.
func (l Locator) String() string {
	var b strings.Builder
	b.WriteString(string(l.Kind))
	if l.Tag != "" && l.Tag != "*" && l.Kind != KindXPath {
		b.WriteString("@")
		b.WriteString(l.Tag)
	}
	if l.Attr != "" {
		b.WriteString("[" + l.Attr + "]")
	}
	if l.Role != "" {
		b.WriteString("(" + l.Role + ")")
	}
	if l.Partial {
		b.WriteString("^=")
	} else {
		b.WriteString("=")
	}
	b.WriteString(l.Value)
	return b.String()
}

// Equal reports whether two locators select the same way, ignoring reliability.
func (l Locator) Equal(o Locator) bool {
	return l.Kind == o.Kind && l.Value == o.Value && l.Tag == o.Tag &&
		l.Attr == o.Attr && l.Role == o.Role && l.Partial == o.Partial
}

// Chain is an ordered list of candidate locators, most reliable first.
// A valid chain always has at least one entry.
type Chain []Locator

// Primary returns chain[0]. It panics on an empty chain.
func (c Chain) Primary() Locator {
	return c[0]
}

// Fallbacks returns every locator after the primary.
func (c Chain) Fallbacks() []Locator {
	if len(c) < 2 {
		return nil
	}
	return c[1:]
}

// Validate checks the chain invariants.
func (c Chain) Validate() error {
	if len(c) == 0 {
		return fmt.Errorf("locator chain is empty")
	}
	for i, l := range c {
		if l.Value == "" {
			return fmt.Errorf("locator %d (%s) has an empty value", i, l.Kind)
		}
		if l.Reliability < 0 || l.Reliability > 100 {
			return fmt.Errorf("locator %d (%s) reliability %d out of range 0-100", i, l.Kind, l.Reliability)
		}
		if _, err := ParseKind(string(l.Kind)); err != nil {
			return fmt.Errorf("locator %d: %w", i, err)
		}
	}
	return nil
}

// Sorted returns a copy ordered by descending reliability. Equal
// reliabilities keep their original relative order.
func (c Chain) Sorted() Chain {
	out := make(Chain, len(c))
	copy(out, c)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Reliability > out[j].Reliability
	})
	return out
}

// Index returns the position of a locator equal to l, or -1.
func (c Chain) Index(l Locator) int {
	for i := range c {
		if c[i].Equal(l) {
			return i
		}
	}
	return -1
}

// Promote returns a new chain with l as the primary. l takes at least the
// current primary's reliability and any existing copy of it is removed.
func (c Chain) Promote(l Locator) Chain {
	if len(c) > 0 && l.Reliability < c[0].Reliability {
		l.Reliability = c[0].Reliability
	}
	out := make(Chain, 0, len(c)+1)
	out = append(out, l)
	for _, existing := range c {
		if existing.Equal(l) {
			continue
		}
		out = append(out, existing)
	}
	return out.Sorted()
}
