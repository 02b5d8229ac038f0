package classify

import (
	"regexp"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
)

// utilityClasses are layout and helper classes that say nothing about which
// element they sit on.
var utilityClasses = mapset.NewSet(
	"flex", "grid", "block", "inline", "inline-block", "inline-flex", "hidden",
	"relative", "absolute", "fixed", "sticky", "static", "container", "row",
	"col", "clearfix", "pull-left", "pull-right", "float-left", "float-right",
	"text-center", "text-left", "text-right", "d-flex", "d-none", "d-block",
	"w-full", "h-full", "sr-only", "truncate", "italic", "underline", "uppercase",
)

// stateClasses reflect transient UI state rather than identity.
var stateClasses = mapset.NewSet(
	"active", "disabled", "selected", "focus", "focused", "hover", "open",
	"closed", "visible", "show", "fade", "in", "collapsed", "expanded",
	"checked", "loading", "error", "invalid", "valid", "dirty", "pristine",
	"touched", "untouched",
)

var (
	utilityPrefixRe = regexp.MustCompile(`^-?(m|p|mt|mb|ml|mr|mx|my|pt|pb|pl|pr|px|py|w|h|gap|space-x|space-y|text|bg|border|rounded|shadow|font|leading|tracking|z|top|left|right|bottom|inset|min-w|max-w|min-h|max-h|col-span|row-span|grid-cols|order|opacity|col-(xs|sm|md|lg|xl))-[a-z0-9]+$`)
	statePrefixRe   = regexp.MustCompile(`^(is|has)-`)
	cssModuleRe     = regexp.MustCompile(`^[A-Za-z0-9]+_[A-Za-z0-9]+__[A-Za-z0-9-]{5,}$`)
	mixedCaseHashRe = regexp.MustCompile(`^[a-z]{1,5}-[a-z]*[A-Z][a-zA-Z]*[A-Z][a-zA-Z]*$`)
)

// IsStableClass reports whether a class name is a usable, human-authored
// identifier for the element it sits on.
func (c *Classifier) IsStableClass(class string) bool {
	class = strings.TrimSpace(class)
	if class == "" || strings.ContainsAny(class, ":/[].") {
		return false
	}
	lower := strings.ToLower(class)
	if utilityClasses.Contains(lower) || stateClasses.Contains(lower) {
		return false
	}
	if utilityPrefixRe.MatchString(lower) || statePrefixRe.MatchString(lower) {
		return false
	}
	if cssModuleRe.MatchString(class) || mixedCaseHashRe.MatchString(class) {
		return false
	}
	return !c.IsDynamic(class)
}

// StableClasses returns at most max stable classes in capture order,
// without duplicates. max <= 0 means no limit.
func (c *Classifier) StableClasses(classes []string, max int) []string {
	seen := mapset.NewThreadUnsafeSet[string]()
	var out []string
	for _, cl := range classes {
		cl = strings.TrimSpace(cl)
		if !seen.Add(cl) {
			continue
		}
		if !c.IsStableClass(cl) {
			continue
		}
		out = append(out, cl)
		if max > 0 && len(out) == max {
			break
		}
	}
	return out
}
