package web

import (
	"fmt"
	"strings"

	"github.com/mj1618/locator-cli/internal/env"
	"github.com/mj1618/locator-cli/internal/locator"
	"github.com/mj1618/locator-cli/internal/model"
)

// Selector is a browser query. Exactly one of CSS and XPath is set.
type Selector struct {
	CSS   string
	XPath string
}

func (s Selector) String() string {
	if s.XPath != "" {
		return s.XPath
	}
	return s.CSS
}

// Translate converts a locator into the selector the browser evaluates.
// Attribute kinds become CSS; text and role need XPath.
func Translate(loc model.Locator) (Selector, error) {
	tag := cssTag(loc.Tag)
	switch loc.Kind {
	case model.KindID:
		return Selector{CSS: tag + attrEquals("id", loc.Value)}, nil
	case model.KindTestID:
		attr := loc.Attr
		if attr == "" {
			attr = model.DefaultTestIDAttr
		}
		return Selector{CSS: tag + attrEquals(attr, loc.Value)}, nil
	case model.KindAriaLabel:
		return Selector{CSS: tag + attrEquals("aria-label", loc.Value)}, nil
	case model.KindName:
		return Selector{CSS: tag + attrEquals("name", loc.Value)}, nil
	case model.KindPlaceholder:
		return Selector{CSS: tag + attrEquals("placeholder", loc.Value)}, nil
	case model.KindClass:
		classes := strings.Fields(loc.Value)
		if len(classes) == 0 {
			return Selector{}, fmt.Errorf("%w: empty class locator", env.ErrUnsupportedLocator)
		}
		var b strings.Builder
		b.WriteString(tag)
		for _, c := range classes {
			b.WriteString(`[class~=` + cssString(c) + `]`)
		}
		return Selector{CSS: b.String()}, nil
	case model.KindText:
		return Selector{XPath: textXPath(loc)}, nil
	case model.KindRole:
		return Selector{XPath: roleXPath(loc)}, nil
	case model.KindXPath:
		return Selector{XPath: loc.Value}, nil
	default:
		return Selector{}, fmt.Errorf("%w: kind %q", env.ErrUnsupportedLocator, loc.Kind)
	}
}

func cssTag(tag string) string {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if tag == "*" {
		return ""
	}
	return tag
}

func attrEquals(name, value string) string {
	return "[" + name + "=" + cssString(value) + "]"
}

// cssString renders a double-quoted CSS string.
func cssString(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\a `)
	return `"` + r.Replace(s) + `"`
}

func xpathTag(tag string) string {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if tag == "" {
		return "*"
	}
	return tag
}

func textPredicate(loc model.Locator) string {
	if loc.Partial {
		return "starts-with(normalize-space(.)," + locator.Quote(loc.Value) + ")"
	}
	return "normalize-space(.)=" + locator.Quote(loc.Value)
}

// textXPath matches elements whose normalized text equals the locator. For
// an untagged locator only the innermost matching element is kept, so that
// body and html do not match every text.
func textXPath(loc model.Locator) string {
	tag := xpathTag(loc.Tag)
	pred := textPredicate(loc)
	x := "//" + tag + "[" + pred + "]"
	if tag == "*" {
		x += "[not(*[" + pred + "])]"
	}
	return x
}

func roleXPath(loc model.Locator) string {
	role := strings.ToLower(loc.Role)
	tags, inputTypes, defaultInput := model.RoleTags(role)

	var implicit []string
	for _, t := range tags {
		implicit = append(implicit, "self::"+t)
	}
	if len(inputTypes) > 0 {
		implicit = append(implicit, "self::input["+typeAny(inputTypes)+"]")
	}
	if defaultInput {
		implicit = append(implicit, "self::input[not(@type) or not("+typeAny(model.RoleInputTypes())+")]")
	}

	pred := "@role=" + locator.Quote(role)
	if len(implicit) > 0 {
		pred += " or (not(@role) and (" + strings.Join(implicit, " or ") + "))"
	}
	x := "//*[" + pred + "]"
	if loc.Value != "" {
		x += "[" + textPredicate(loc) + "]"
	}
	return x
}

func typeAny(types []string) string {
	conds := make([]string, len(types))
	for i, t := range types {
		conds[i] = "@type=" + locator.Quote(t)
	}
	return strings.Join(conds, " or ")
}
