// Package snapshot implements an environment accessor over a serialized
// element tree. It backs offline resolution (--snapshot files), the desktop
// accessor and tests.
package snapshot

import (
	"strings"

	"github.com/mj1618/locator-cli/internal/model"
)

// TestIDAttrs are the attributes read as test ids, in priority order.
var TestIDAttrs = []string{"data-testid", "data-test-id", "data-test", "data-cy", "data-qa"}

// Node is one element of a snapshot tree.
type Node struct {
	Tag      string            `yaml:"tag"                json:"tag"`
	Attrs    map[string]string `yaml:"attrs,omitempty"    json:"attrs,omitempty"`
	Text     string            `yaml:"text,omitempty"     json:"text,omitempty"`
	Overlay  bool              `yaml:"overlay,omitempty"  json:"overlay,omitempty"`
	Children []*Node           `yaml:"children,omitempty" json:"children,omitempty"`

	parent *Node
	order  int
}

// Attr returns an attribute value, or "".
func (n *Node) Attr(name string) string {
	if n.Attrs == nil {
		return ""
	}
	return n.Attrs[name]
}

// Parent returns the parent node, or nil for a root.
func (n *Node) Parent() *Node { return n.parent }

// Classes splits the class attribute.
func (n *Node) Classes() []string {
	return strings.Fields(n.Attr("class"))
}

// InnerText returns the whitespace-normalized text of the node and its
// descendants, like a browser's innerText.
func (n *Node) InnerText() string {
	var parts []string
	stack := []*Node{n}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cur.Text != "" {
			parts = append(parts, cur.Text)
		}
		for i := len(cur.Children) - 1; i >= 0; i-- {
			stack = append(stack, cur.Children[i])
		}
	}
	return model.NormalizeSpace(strings.Join(parts, " "))
}

// Role returns the explicit role attribute or the tag's implicit role.
func (n *Node) Role() string {
	if r := n.Attr("role"); r != "" {
		return strings.ToLower(r)
	}
	return model.ImplicitRole(strings.ToLower(n.Tag), n.Attr("type"))
}

// IsOverlay reports whether the node is a modal, dialog or sheet container.
func (n *Node) IsOverlay() bool {
	if n.Overlay || strings.EqualFold(n.Tag, "dialog") || n.Attr("aria-modal") == "true" {
		return true
	}
	switch n.Attr("role") {
	case "dialog", "alertdialog":
		return true
	}
	return false
}

func (n *Node) tagIs(tag string) bool {
	return tag == "" || tag == "*" || strings.EqualFold(n.Tag, tag)
}

// matches evaluates every non-xpath locator kind against one node.
func (n *Node) matches(loc model.Locator) bool {
	if !n.tagIs(loc.Tag) {
		return false
	}
	switch loc.Kind {
	case model.KindID:
		return n.Attr("id") == loc.Value
	case model.KindTestID:
		attr := loc.Attr
		if attr == "" {
			attr = model.DefaultTestIDAttr
		}
		return n.Attr(attr) == loc.Value
	case model.KindAriaLabel:
		return model.NormalizeSpace(n.Attr("aria-label")) == loc.Value
	case model.KindName:
		return n.Attr("name") == loc.Value
	case model.KindPlaceholder:
		return model.NormalizeSpace(n.Attr("placeholder")) == loc.Value
	case model.KindText:
		if !textMatches(n.InnerText(), loc) {
			return false
		}
		if loc.Tag != "" && loc.Tag != "*" {
			return true
		}
		return !n.childMatchesText(loc)
	case model.KindClass:
		have := n.Classes()
		for _, want := range strings.Fields(loc.Value) {
			if !contains(have, want) {
				return false
			}
		}
		return true
	case model.KindRole:
		if n.Role() != loc.Role {
			return false
		}
		return loc.Value == "" || textMatches(n.InnerText(), loc)
	}
	return false
}

// childMatchesText reports whether a direct child carries the same text.
// Untagged text locators keep only the innermost such element.
func (n *Node) childMatchesText(loc model.Locator) bool {
	for _, c := range n.Children {
		if textMatches(c.InnerText(), loc) {
			return true
		}
	}
	return false
}

func textMatches(text string, loc model.Locator) bool {
	if loc.Partial {
		return strings.HasPrefix(text, loc.Value)
	}
	return text == loc.Value
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
