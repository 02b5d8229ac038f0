package locator

import (
	"regexp"
	"strings"
)

var trailingUUIDRe = regexp.MustCompile(`(?i)[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

const (
	separators   = "-_:."
	minPrefixLen = 3
)

// StripDynamicSuffix removes trailing generated segments from an identifier,
// e.g. "submit-btn-17cf2a9b" becomes "submit-btn-". It reports false when
// nothing was stripped or the remaining prefix is too short or itself dynamic.
func StripDynamicSuffix(value string, isDynamic func(string) bool) (string, bool) {
	prefix := value
	stripped := false
	if loc := trailingUUIDRe.FindStringIndex(prefix); loc != nil {
		prefix = prefix[:loc[0]]
		stripped = true
	}
	for {
		body := strings.TrimRight(prefix, separators)
		i := strings.LastIndexAny(body, separators)
		if i < 0 {
			break
		}
		if !dynamicToken(body[i+1:], isDynamic) {
			break
		}
		prefix = body[:i+1]
		stripped = true
	}
	if !stripped {
		trimmed := strings.TrimRight(prefix, "0123456789")
		if len(prefix)-len(trimmed) >= 3 {
			prefix = trimmed
			stripped = true
		}
	}
	core := strings.TrimRight(prefix, separators)
	if !stripped || len(core) < minPrefixLen || isDynamic(core) {
		return "", false
	}
	return prefix, true
}

func dynamicToken(tok string, isDynamic func(string) bool) bool {
	if tok == "" {
		return false
	}
	if strings.Trim(tok, "0123456789") == "" {
		return true
	}
	return isDynamic(tok)
}

// PartialSelector renders //tag[starts-with(@attr,'prefix')].
func PartialSelector(tag, attr, prefix string) string {
	if tag == "" {
		tag = "*"
	}
	return "//" + tag + "[starts-with(@" + attr + "," + Quote(prefix) + ")]"
}
