// Package classify judges whether identifier values look generated by a
// framework or build step and are therefore unstable across runs.
package classify

import (
	"math"
	"regexp"
	"strings"
	"unicode"
)

// DefaultPrefixes are id/class prefixes emitted by common UI frameworks.
var DefaultPrefixes = []string{
	"ember", "react-", ":r", "radix-", "headlessui-", "mui-", "css-", "jss",
	"sc-", "svelte-", "ng-", "mat-input-", "mat-select-", "mat-option-",
	"ext-gen", "gwt-uid", "yui_",
}

var (
	uuidRe        = regexp.MustCompile(`(?i)[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}`)
	longNumberRe  = regexp.MustCompile(`\d{13,}`)
	counterRe     = regexp.MustCompile(`^[A-Za-z][A-Za-z_-]*\d{3,}$`)
	tokenSplitter = func(r rune) bool {
		return r == '-' || r == '_' || r == ':' || r == '.' || unicode.IsSpace(r)
	}
)

// minHashLen and minHashEntropy bound what counts as a hash-like token.
const (
	minHashLen     = 8
	minHashEntropy = 2.5
)

// Classifier flags dynamic identifier values. The zero value uses no
// prefixes; use New or Default.
type Classifier struct {
	prefixes []string
}

// New returns a Classifier using DefaultPrefixes plus extra.
func New(extra ...string) *Classifier {
	prefixes := make([]string, 0, len(DefaultPrefixes)+len(extra))
	prefixes = append(prefixes, DefaultPrefixes...)
	for _, p := range extra {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			prefixes = append(prefixes, p)
		}
	}
	return &Classifier{prefixes: prefixes}
}

var defaultClassifier = New()

// Default returns the shared Classifier with DefaultPrefixes.
func Default() *Classifier { return defaultClassifier }

// IsDynamic reports whether value looks generated, using Default.
func IsDynamic(value string) bool {
	return defaultClassifier.IsDynamic(value)
}

// IsDynamic reports whether value matches a generated prefix, contains a
// hash-like token, a UUID or a timestamp-like number, or is a word followed
// by an auto-incremented counter.
func (c *Classifier) IsDynamic(value string) bool {
	v := strings.TrimSpace(value)
	if v == "" {
		return false
	}
	if c.hasGeneratedPrefix(v) {
		return true
	}
	if uuidRe.MatchString(v) || longNumberRe.MatchString(v) {
		return true
	}
	if counterRe.MatchString(v) {
		return true
	}
	for _, tok := range strings.FieldsFunc(v, tokenSplitter) {
		if IsHashLike(tok) {
			return true
		}
	}
	return false
}

func (c *Classifier) hasGeneratedPrefix(v string) bool {
	lower := strings.ToLower(v)
	for _, p := range c.prefixes {
		if strings.HasPrefix(lower, p) {
			return true
		}
	}
	return false
}

// IsHashLike reports whether tok looks like a hash or random token: at least
// eight alphanumerics mixing letters and digits with high entropy.
func IsHashLike(tok string) bool {
	if len(tok) < minHashLen {
		return false
	}
	letters, digits, transitions := 0, 0, 0
	hex := true
	prevDigit := false
	for i, r := range tok {
		isDigit := r >= '0' && r <= '9'
		isLetter := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		if !isDigit && !isLetter {
			return false
		}
		if isDigit {
			digits++
		} else {
			letters++
			if !strings.ContainsRune("abcdefABCDEF", r) {
				hex = false
			}
		}
		if i > 0 && isDigit != prevDigit {
			transitions++
		}
		prevDigit = isDigit
	}
	if letters == 0 || digits < 2 {
		return false
	}
	if !hex && transitions < 3 {
		return false
	}
	return shannonEntropy(tok) >= minHashEntropy
}

// shannonEntropy returns the entropy of s in bits per character.
func shannonEntropy(s string) float64 {
	freq := make(map[rune]int)
	n := 0
	for _, r := range strings.ToLower(s) {
		freq[r]++
		n++
	}
	var h float64
	for _, c := range freq {
		p := float64(c) / float64(n)
		h -= p * math.Log2(p)
	}
	return h
}
