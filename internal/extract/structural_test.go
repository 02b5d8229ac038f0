package extract

import (
	"testing"

	"github.com/mj1618/locator-cli/internal/locator"
	"github.com/mj1618/locator-cli/internal/model"
)

func TestStructuralPath(t *testing.T) {
	tests := []struct {
		name     string
		tag      string
		ancestry []model.PathNode
		maxDepth int
		want     string
	}{
		{"no ancestry", "button", nil, 32, "//button"},
		{"no tag", "", nil, 32, "//*"},
		{
			"indexed siblings", "li",
			[]model.PathNode{
				{Tag: "li", Index: 3, Count: 5},
				{Tag: "ul", Index: 1, Count: 1},
				{Tag: "body", Index: 1, Count: 1},
				{Tag: "html", Index: 1, Count: 1},
			}, 32, "/html/body/ul/li[3]",
		},
		{
			"overlay anchored from end", "button",
			[]model.PathNode{
				{Tag: "button", Index: 2, Count: 2},
				{Tag: "div", Index: 3, Count: 5, Overlay: true},
				{Tag: "body", Index: 1, Count: 1},
				{Tag: "html", Index: 1, Count: 1},
			}, 32, "/html/body/div[last()-2]/button[2]",
		},
		{
			"overlay is last sibling", "button",
			[]model.PathNode{
				{Tag: "button", Index: 1, Count: 1},
				{Tag: "div", Index: 4, Count: 4, Overlay: true},
				{Tag: "body", Index: 1, Count: 1},
			}, 32, "/body/div[last()]/button",
		},
		{
			"depth bounded", "span",
			[]model.PathNode{
				{Tag: "span", Index: 1, Count: 1},
				{Tag: "div", Index: 2, Count: 2},
				{Tag: "section", Index: 1, Count: 1},
				{Tag: "body", Index: 1, Count: 1},
				{Tag: "html", Index: 1, Count: 1},
			}, 2, "//div[2]/span",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := StructuralPath(tt.tag, tt.ancestry, tt.maxDepth)
			if got != tt.want {
				t.Errorf("StructuralPath() = %q, want %q", got, tt.want)
			}
			if _, err := locator.Parse(got); err != nil {
				t.Errorf("path %q does not parse: %v", got, err)
			}
		})
	}
}

func TestStructuralPath_OverlayStableUnderEarlierInsertions(t *testing.T) {
	before := []model.PathNode{
		{Tag: "button", Index: 1, Count: 1},
		{Tag: "div", Index: 2, Count: 3, Overlay: true},
		{Tag: "body", Index: 1, Count: 1},
	}
	// Two more divs inserted ahead of the modal shift its forward index by two.
	after := []model.PathNode{
		{Tag: "button", Index: 1, Count: 1},
		{Tag: "div", Index: 4, Count: 5, Overlay: true},
		{Tag: "body", Index: 1, Count: 1},
	}
	a := StructuralPath("button", before, 32)
	b := StructuralPath("button", after, 32)
	if a != b {
		t.Errorf("overlay path changed: %q -> %q", a, b)
	}
}
