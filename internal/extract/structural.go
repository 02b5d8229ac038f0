package extract

import (
	"strconv"
	"strings"

	"github.com/mj1618/locator-cli/internal/model"
)

// StructuralPath renders an absolute path from the element's ancestry.
// The walk goes upward from ancestry[0] without recursion and stops after
// maxDepth nodes; a truncated walk yields a //-anchored relative path.
// Overlay containers are indexed from the end of their sibling list so that
// inserting earlier siblings does not move them.
func StructuralPath(tag string, ancestry []model.PathNode, maxDepth int) string {
	if len(ancestry) == 0 {
		return "//" + pathTag(tag)
	}
	n := len(ancestry)
	truncated := false
	if maxDepth > 0 && n > maxDepth {
		n = maxDepth
		truncated = true
	}
	segs := make([]string, n)
	for i := 0; i < n; i++ {
		segs[n-1-i] = pathSegment(ancestry[i])
	}
	if truncated {
		return "//" + strings.Join(segs, "/")
	}
	return "/" + strings.Join(segs, "/")
}

func pathSegment(node model.PathNode) string {
	tag := pathTag(node.Tag)
	switch {
	case node.Overlay && node.Count >= 1 && node.Index >= 1:
		k := node.Count - node.Index
		if k <= 0 {
			return tag + "[last()]"
		}
		return tag + "[last()-" + strconv.Itoa(k) + "]"
	case node.Count > 1 && node.Index >= 1:
		return tag + "[" + strconv.Itoa(node.Index) + "]"
	default:
		return tag
	}
}

func pathTag(tag string) string {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if tag == "" {
		return "*"
	}
	return tag
}
