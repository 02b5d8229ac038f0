package desktop

import "github.com/mj1618/locator-cli/internal/model"

// overlaySubroles are platform subroles of containers that float above the
// window content.
var overlaySubroles = map[string]bool{
	"AXDialog":         true,
	"AXSheet":          true,
	"AXSystemDialog":   true,
	"AXSystemFloating": true,
	"AXFloatingWindow": true,
}

// isOverlay reports whether el should anchor structural paths from the end
// of its sibling list. parent is nil for a root; index is el's position
// among parent's children.
//
// A container is an overlay when its subrole says so, or when it is a later
// child of a window that is smaller than the window and centered within it.
// The first child of a window is its main content and never an overlay.
func isOverlay(el, parent *model.Element, index int) bool {
	if overlaySubroles[el.Subrole] {
		return true
	}
	if parent == nil || parent.Role != "window" || index == 0 {
		return false
	}
	return smallerThan(el.Bounds, parent.Bounds) && centeredIn(el.Bounds, parent.Bounds)
}

// smallerThan requires b to be under 80% of outer in at least one dimension.
func smallerThan(b, outer [4]int) bool {
	if b[2] == 0 || b[3] == 0 || outer[2] == 0 || outer[3] == 0 {
		return false
	}
	return b[2] < outer[2]*80/100 || b[3] < outer[3]*80/100
}

// centeredIn requires b's center within a quarter of outer's size from
// outer's center.
func centeredIn(b, outer [4]int) bool {
	dx := abs((b[0] + b[2]/2) - (outer[0] + outer[2]/2))
	dy := abs((b[1] + b[3]/2) - (outer[1] + outer[3]/2))
	return dx <= outer[2]/4 && dy <= outer[3]/4
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
