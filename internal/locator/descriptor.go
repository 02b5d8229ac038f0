package locator

import (
	"fmt"
	"strings"

	"github.com/mj1618/locator-cli/internal/model"
)

// ParseDescriptor reads the form produced by model.Locator.String:
//
//	kind[@tag][[attr]][(role)]=value
//
// A "^=" separator marks a partial text locator. The locator's reliability
// is left at zero.
func ParseDescriptor(s string) (model.Locator, error) {
	eq := strings.IndexByte(s, '=')
	if eq <= 0 {
		return model.Locator{}, fmt.Errorf("locator %q: expected kind=value", s)
	}
	head, value := s[:eq], s[eq+1:]
	if value == "" {
		return model.Locator{}, fmt.Errorf("locator %q: empty value", s)
	}

	var loc model.Locator
	loc.Value = value
	if strings.HasSuffix(head, "^") {
		loc.Partial = true
		head = strings.TrimSuffix(head, "^")
	}
	if i := strings.IndexByte(head, '('); i >= 0 {
		if !strings.HasSuffix(head, ")") {
			return model.Locator{}, fmt.Errorf("locator %q: unclosed role", s)
		}
		loc.Role = head[i+1 : len(head)-1]
		head = head[:i]
	}
	if i := strings.IndexByte(head, '['); i >= 0 {
		if !strings.HasSuffix(head, "]") {
			return model.Locator{}, fmt.Errorf("locator %q: unclosed attribute", s)
		}
		loc.Attr = head[i+1 : len(head)-1]
		head = head[:i]
	}
	if i := strings.IndexByte(head, '@'); i >= 0 {
		loc.Tag = strings.ToLower(head[i+1:])
		head = head[:i]
	}

	kind, err := model.ParseKind(head)
	if err != nil {
		return model.Locator{}, err
	}
	loc.Kind = kind
	if kind == model.KindTestID && loc.Attr == "" {
		loc.Attr = model.DefaultTestIDAttr
	}
	if kind == model.KindXPath {
		if _, err := Parse(value); err != nil {
			return model.Locator{}, err
		}
	}
	return loc, nil
}
