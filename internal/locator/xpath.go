// Package locator parses and renders the structural XPath subset used by
// extracted and healed locators.
//
// Supported: absolute (/) and descendant (//) steps, tag names or *, and
// the predicates [n], [last()], [last()-k], [@attr='v'] and
// [starts-with(@attr,'v')].
package locator

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// ErrSyntax is returned for paths outside the supported subset.
var ErrSyntax = errors.New("unsupported structural path")

// Path is a parsed structural path.
type Path struct {
	Steps []*Step `parser:"@@+"`
}

// Step is one location step.
type Step struct {
	Axis       string       `parser:"@( DSlash | Slash )"`
	Tag        string       `parser:"@( Ident | Star )"`
	Predicates []*Predicate `parser:"( '[' @@ ']' )*"`
}

// Predicate filters the nodes selected by a step. Exactly one field is set.
type Predicate struct {
	Last       *LastPredicate `parser:"  @@"`
	StartsWith *AttrMatch     `parser:"| 'starts-with' '(' @@ ')'"`
	Position   *int           `parser:"| @Int"`
	Equals     *AttrMatch     `parser:"| @@"`
}

// LastPredicate is last() or last()-Offset.
type LastPredicate struct {
	Keyword string `parser:"@'last' '(' ')'"`
	Offset  int    `parser:"( '-' @Int )?"`
}

// AttrMatch is @Name='Value' or, inside starts-with, @Name,'Value'.
type AttrMatch struct {
	Name  string `parser:"'@' @Ident ( '=' | ',' )"`
	Value string `parser:"@String"`
}

// Descendant reports whether the step uses the // axis.
func (s *Step) Descendant() bool { return s.Axis == "//" }

var pathLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "DSlash", Pattern: `//`},
	{Name: "Slash", Pattern: `/`},
	{Name: "String", Pattern: `'[^']*'|"[^"]*"`},
	{Name: "Int", Pattern: `\d+`},
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_.:-]*`},
	{Name: "Star", Pattern: `\*`},
	{Name: "Punct", Pattern: `[\[\]()@=,-]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var pathParser = participle.MustBuild[Path](
	participle.Lexer(pathLexer),
	participle.Elide("Whitespace"),
)

// Parse parses a structural path.
func Parse(s string) (*Path, error) {
	p, err := pathParser.ParseString("", strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrSyntax, s, err)
	}
	for _, step := range p.Steps {
		for _, pr := range step.Predicates {
			for _, m := range []*AttrMatch{pr.Equals, pr.StartsWith} {
				if m != nil {
					m.Value = m.Value[1 : len(m.Value)-1]
				}
			}
		}
	}
	return p, nil
}

// String renders the path back to its canonical text.
func (p *Path) String() string {
	var b strings.Builder
	for _, s := range p.Steps {
		b.WriteString(s.Axis)
		b.WriteString(s.Tag)
		for _, pr := range s.Predicates {
			b.WriteString("[")
			b.WriteString(pr.String())
			b.WriteString("]")
		}
	}
	return b.String()
}

func (pr *Predicate) String() string {
	switch {
	case pr.Last != nil:
		if pr.Last.Offset > 0 {
			return "last()-" + strconv.Itoa(pr.Last.Offset)
		}
		return "last()"
	case pr.StartsWith != nil:
		return fmt.Sprintf("starts-with(@%s,%s)", pr.StartsWith.Name, Quote(pr.StartsWith.Value))
	case pr.Position != nil:
		return strconv.Itoa(*pr.Position)
	case pr.Equals != nil:
		return fmt.Sprintf("@%s=%s", pr.Equals.Name, Quote(pr.Equals.Value))
	}
	return ""
}

// Quote renders s as an XPath string literal. XPath 1.0 has no escapes, so
// values holding both quote kinds are built with concat().
func Quote(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	parts := strings.Split(s, "'")
	quoted := make([]string, 0, 2*len(parts))
	for i, part := range parts {
		if i > 0 {
			quoted = append(quoted, `"'"`)
		}
		if part != "" {
			quoted = append(quoted, "'"+part+"'")
		}
	}
	return "concat(" + strings.Join(quoted, ",") + ")"
}
