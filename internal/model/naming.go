package model

import (
	"regexp"
	"strings"
)

// slugRe matches characters that are not lowercase alphanumeric or hyphens.
var slugRe = regexp.MustCompile(`[^a-z0-9-]+`)

// slugify converts a label to a URL-safe slug: lowercase, hyphens for spaces/special chars.
func slugify(s string) string {
	s = strings.ToLower(s)
	s = slugRe.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	// Collapse multiple hyphens
	for strings.Contains(s, "--") {
		s = strings.ReplaceAll(s, "--", "-")
	}
	if len(s) > 40 {
		s = s[:40]
		s = strings.TrimRight(s, "-")
	}
	return s
}

// BestLabel returns the best stable label for a desktop element: title > description.
// Value is excluded because it changes (input field content, slider position).
func BestLabel(el Element) string {
	if el.Title != "" {
		return el.Title
	}
	if el.Description != "" {
		return el.Description
	}
	return ""
}

// bestAttributeLabel picks the most human-readable stable label of a capture.
func bestAttributeLabel(a CapturedAttributes) string {
	for _, s := range []string{a.AriaLabel, a.NormalizedText(), a.Placeholder, a.TestID} {
		if s != "" {
			return s
		}
	}
	return ""
}
