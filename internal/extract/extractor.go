// Package extract turns a captured element's attributes into a ranked
// locator chain.
package extract

import (
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/mj1618/locator-cli/internal/classify"
	"github.com/mj1618/locator-cli/internal/model"
)

// Defaults for Options fields left at zero.
const (
	DefaultTextMaxLength = 50
	DefaultMaxClasses    = 2
	DefaultMaxDepth      = 32
)

// Options tune extraction.
type Options struct {
	Table         Table
	TextMaxLength int
	MaxClasses    int
	MaxDepth      int
	Classifier    *classify.Classifier
}

// Extractor builds locator chains. It is safe for concurrent use.
type Extractor struct {
	opts Options
}

// New returns an Extractor, filling zero options with defaults.
func New(opts Options) (*Extractor, error) {
	if len(opts.Table) == 0 {
		opts.Table = DefaultTable
	}
	if err := opts.Table.Validate(); err != nil {
		return nil, err
	}
	if opts.TextMaxLength <= 0 {
		opts.TextMaxLength = DefaultTextMaxLength
	}
	if opts.MaxClasses <= 0 {
		opts.MaxClasses = DefaultMaxClasses
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	if opts.Classifier == nil {
		opts.Classifier = classify.Default()
	}
	return &Extractor{opts: opts}, nil
}

// Classifier returns the classifier used to screen identifiers.
func (e *Extractor) Classifier() *classify.Classifier { return e.opts.Classifier }

// textTags are the tags whose visible text is a usable locator.
var textTags = map[string]bool{"button": true, "a": true, "label": true, "btn": true, "lnk": true}

// textRoles extend textTags for elements carrying an explicit role.
var textRoles = map[string]bool{"button": true, "link": true}

// placeholderTags are the input-like controls that render a placeholder.
var placeholderTags = map[string]bool{"input": true, "textarea": true}

// Extract returns the element's locator chain, most reliable first. The
// chain always ends with a structural path, so it is never empty.
func (e *Extractor) Extract(attrs model.CapturedAttributes) model.Chain {
	tag := attrs.NormalizedTag()
	var chain model.Chain
	for _, rule := range e.opts.Table {
		if rule.Kind == model.KindXPath {
			continue
		}
		loc, ok := e.candidate(rule.Kind, attrs, tag)
		if !ok {
			continue
		}
		loc.Reliability = rule.Reliability
		chain = append(chain, loc)
	}

	if len(chain) == 0 {
		log.Warn().Str("tag", tag).Msg("no capturable attribute beyond tag; using structural path only")
	}
	chain = append(chain, e.structural(attrs, tag))
	return chain.Sorted()
}

func (e *Extractor) structural(attrs model.CapturedAttributes, tag string) model.Locator {
	rel, ok := e.opts.Table.Reliability(model.KindXPath)
	if !ok {
		rel, _ = DefaultTable.Reliability(model.KindXPath)
	}
	return model.Locator{
		Kind:        model.KindXPath,
		Value:       StructuralPath(tag, attrs.Ancestry, e.opts.MaxDepth),
		Tag:         tag,
		Reliability: rel,
	}
}

func (e *Extractor) candidate(kind model.LocatorKind, a model.CapturedAttributes, tag string) (model.Locator, bool) {
	c := e.opts.Classifier
	switch kind {
	case model.KindID:
		if v := strings.TrimSpace(a.ID); v != "" && !c.IsDynamic(v) {
			return model.Locator{Kind: kind, Value: v}, true
		}
	case model.KindTestID:
		if v := strings.TrimSpace(a.TestID); v != "" {
			return model.Locator{Kind: kind, Value: v, Attr: a.TestIDAttribute()}, true
		}
	case model.KindAriaLabel:
		if v := model.NormalizeSpace(a.AriaLabel); v != "" {
			return model.Locator{Kind: kind, Value: v}, true
		}
	case model.KindName:
		if v := strings.TrimSpace(a.Name); v != "" && !c.IsDynamic(v) {
			return model.Locator{Kind: kind, Value: v}, true
		}
	case model.KindPlaceholder:
		if v := model.NormalizeSpace(a.Placeholder); v != "" && placeholderTags[tag] {
			return model.Locator{Kind: kind, Value: v, Tag: tag}, true
		}
	case model.KindText:
		if !textTags[tag] && !textRoles[strings.ToLower(a.Role)] {
			return model.Locator{}, false
		}
		if v := a.NormalizedText(); v != "" {
			v, partial := truncateRunes(v, e.opts.TextMaxLength)
			return model.Locator{Kind: kind, Value: v, Tag: tag, Partial: partial}, true
		}
	case model.KindClass:
		if classes := c.StableClasses(a.Classes, e.opts.MaxClasses); len(classes) > 0 {
			return model.Locator{Kind: kind, Value: strings.Join(classes, " "), Tag: tag}, true
		}
	}
	return model.Locator{}, false
}

// truncateRunes cuts s to at most n runes and reports whether it did.
func truncateRunes(s string, n int) (string, bool) {
	if utf8.RuneCountInString(s) <= n {
		return s, false
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:n])), true
}
