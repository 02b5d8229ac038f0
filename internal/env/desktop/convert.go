package desktop

import (
	"github.com/mj1618/locator-cli/internal/env/snapshot"
	"github.com/mj1618/locator-cli/internal/model"
)

// Convert turns an accessibility tree into a snapshot document. Role codes
// become tags, titles become text (or the label of an input), descriptions
// become aria-labels, and dialogs, sheets and centered popovers are marked
// as overlays so structural paths anchor to them from the end.
func Convert(elements []model.Element) *snapshot.Document {
	roots := make([]*snapshot.Node, len(elements))
	for i := range elements {
		roots[i] = convertElement(&elements[i], nil, i)
	}
	return snapshot.New(roots...)
}

func convertElement(el, parent *model.Element, index int) *snapshot.Node {
	tag := el.Role
	if tag == "" {
		tag = "other"
	}
	n := &snapshot.Node{
		Tag:     tag,
		Attrs:   map[string]string{},
		Overlay: isOverlay(el, parent, index),
	}
	if role := model.AriaRoleForCode(tag); role != "" {
		n.Attrs["role"] = role
	}
	if el.Subrole != "" {
		n.Attrs["subrole"] = el.Subrole
	}

	label := el.Description
	if tag == "input" {
		if label == "" {
			label = el.Title
		}
		if el.Value != "" {
			n.Attrs["value"] = el.Value
		}
	} else {
		n.Text = el.Title
		if n.Text == "" && tag == "txt" {
			n.Text = el.Value
		}
	}
	if label != "" {
		n.Attrs["aria-label"] = label
	}
	if el.Enabled != nil && !*el.Enabled {
		n.Attrs["aria-disabled"] = "true"
	}

	if len(el.Children) > 0 {
		n.Children = make([]*snapshot.Node, len(el.Children))
		for i := range el.Children {
			n.Children[i] = convertElement(&el.Children[i], el, i)
		}
	}
	return n
}
