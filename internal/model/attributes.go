package model

import "strings"

// CapturedAttributes is one raw snapshot of an interacted-with element,
// as produced by an environment accessor at capture time.
type CapturedAttributes struct {
	Tag         string     `yaml:"tag"                    json:"tag"`
	ID          string     `yaml:"id,omitempty"           json:"id,omitempty"`
	Name        string     `yaml:"name,omitempty"         json:"name,omitempty"`
	Classes     []string   `yaml:"classes,omitempty"      json:"classes,omitempty"`
	Text        string     `yaml:"text,omitempty"         json:"text,omitempty"`
	Placeholder string     `yaml:"placeholder,omitempty"  json:"placeholder,omitempty"`
	AriaLabel   string     `yaml:"aria_label,omitempty"   json:"aria_label,omitempty"`
	TestID      string     `yaml:"test_id,omitempty"      json:"test_id,omitempty"`
	TestIDAttr  string     `yaml:"test_id_attr,omitempty" json:"test_id_attr,omitempty"` // e.g. data-testid, data-cy
	Role        string     `yaml:"role,omitempty"         json:"role,omitempty"`
	Type        string     `yaml:"type,omitempty"         json:"type,omitempty"`
	Ancestry    []PathNode `yaml:"ancestry,omitempty"     json:"ancestry,omitempty"`
}

// PathNode is one step of an element's ancestry. Ancestry[0] is the element
// itself; the last entry is the document root.
type PathNode struct {
	Tag     string `yaml:"tag"               json:"tag"`
	Index   int    `yaml:"index,omitempty"   json:"index,omitempty"`   // 1-based among same-tag siblings
	Count   int    `yaml:"count,omitempty"   json:"count,omitempty"`   // same-tag siblings, including this one
	Overlay bool   `yaml:"overlay,omitempty" json:"overlay,omitempty"` // modal, dialog or sheet container
}

// DefaultTestIDAttr is used when CapturedAttributes.TestIDAttr is empty.
const DefaultTestIDAttr = "data-testid"

// TestIDAttribute returns the attribute name that carries the test id.
func (a CapturedAttributes) TestIDAttribute() string {
	if a.TestIDAttr != "" {
		return a.TestIDAttr
	}
	return DefaultTestIDAttr
}

// NormalizedTag returns the lowercased tag, or "*" when unknown.
func (a CapturedAttributes) NormalizedTag() string {
	t := strings.ToLower(strings.TrimSpace(a.Tag))
	if t == "" {
		return "*"
	}
	return t
}

// NormalizedText collapses whitespace in the visible text.
func (a CapturedAttributes) NormalizedText() string {
	return NormalizeSpace(a.Text)
}

// EffectiveRole returns the explicit role or the implicit role of the tag.
func (a CapturedAttributes) EffectiveRole() string {
	if a.Role != "" {
		return strings.ToLower(a.Role)
	}
	return ImplicitRole(a.NormalizedTag(), a.Type)
}

// NormalizeSpace trims s and collapses internal runs of whitespace.
func NormalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
