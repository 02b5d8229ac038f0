package snapshot

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mj1618/locator-cli/internal/env"
	"github.com/mj1618/locator-cli/internal/locator"
	"github.com/mj1618/locator-cli/internal/model"
)

// Document is an immutable element tree. It is safe for concurrent queries.
type Document struct {
	Roots []*Node `yaml:"roots" json:"roots"`

	root  *Node   // virtual parent of Roots
	nodes []*Node // document order
}

var _ env.Accessor = (*Document)(nil)

// New links parents and indexes the tree.
func New(roots ...*Node) *Document {
	d := &Document{Roots: roots}
	d.index()
	return d
}

// Load decodes a YAML or JSON document.
func Load(r io.Reader) (*Document, error) {
	var d Document
	if err := yaml.NewDecoder(r).Decode(&d); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	d.index()
	return &d, nil
}

// LoadFile reads a snapshot document from disk.
func LoadFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()
	return Load(f)
}

func (d *Document) index() {
	d.root = &Node{Children: d.Roots}
	d.nodes = d.nodes[:0]
	stack := make([]*Node, 0, len(d.Roots))
	for i := len(d.Roots) - 1; i >= 0; i-- {
		d.Roots[i].parent = nil
		stack = append(stack, d.Roots[i])
	}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n.order = len(d.nodes)
		d.nodes = append(d.nodes, n)
		for i := len(n.Children) - 1; i >= 0; i-- {
			n.Children[i].parent = n
			stack = append(stack, n.Children[i])
		}
	}
}

// Nodes returns every node in document order.
func (d *Document) Nodes() []*Node { return d.nodes }

// Find returns all nodes matching loc in document order.
func (d *Document) Find(loc model.Locator) ([]*Node, error) {
	if loc.Kind == model.KindXPath {
		p, err := locator.Parse(loc.Value)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", env.ErrUnsupportedLocator, err)
		}
		return d.evalPath(p), nil
	}
	if _, err := model.ParseKind(string(loc.Kind)); err != nil {
		return nil, fmt.Errorf("%w: %v", env.ErrUnsupportedLocator, err)
	}
	var out []*Node
	for _, n := range d.nodes {
		if n.matches(loc) {
			out = append(out, n)
		}
	}
	return out, nil
}

// QueryCount implements env.Environment.
func (d *Document) QueryCount(ctx context.Context, loc model.Locator) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	nodes, err := d.Find(loc)
	if err != nil {
		return 0, err
	}
	return len(nodes), nil
}

// QueryFirst implements env.Environment. The handle is a *Node.
func (d *Document) QueryFirst(ctx context.Context, loc model.Locator) (env.Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	nodes, err := d.Find(loc)
	if err != nil || len(nodes) == 0 {
		return nil, err
	}
	return nodes[0], nil
}

// ReadAttributes implements env.AttributeReader.
func (d *Document) ReadAttributes(ctx context.Context, h env.Handle) (model.CapturedAttributes, error) {
	if err := ctx.Err(); err != nil {
		return model.CapturedAttributes{}, err
	}
	n, ok := h.(*Node)
	if !ok || n == nil {
		return model.CapturedAttributes{}, fmt.Errorf("snapshot: handle %T is not a snapshot node", h)
	}
	return Attributes(n), nil
}

// Attributes captures a node the way a browser accessor would.
func Attributes(n *Node) model.CapturedAttributes {
	a := model.CapturedAttributes{
		Tag:         strings.ToLower(n.Tag),
		ID:          n.Attr("id"),
		Name:        n.Attr("name"),
		Classes:     n.Classes(),
		Text:        n.InnerText(),
		Placeholder: n.Attr("placeholder"),
		AriaLabel:   n.Attr("aria-label"),
		Role:        n.Attr("role"),
		Type:        n.Attr("type"),
	}
	for _, attr := range TestIDAttrs {
		if v := n.Attr(attr); v != "" {
			a.TestID, a.TestIDAttr = v, attr
			break
		}
	}
	for cur := n; cur != nil; cur = cur.parent {
		a.Ancestry = append(a.Ancestry, pathNode(cur))
	}
	return a
}

// pathNode computes a node's position among its same-tag siblings.
func pathNode(n *Node) model.PathNode {
	siblings := n.siblings()
	pn := model.PathNode{Tag: strings.ToLower(n.Tag), Overlay: n.IsOverlay()}
	for _, s := range siblings {
		if !strings.EqualFold(s.Tag, n.Tag) {
			continue
		}
		pn.Count++
		if s == n {
			pn.Index = pn.Count
		}
	}
	return pn
}

func (n *Node) siblings() []*Node {
	if n.parent == nil {
		return []*Node{n}
	}
	return n.parent.Children
}

// evalPath evaluates a parsed structural path. Results are in document order.
func (d *Document) evalPath(p *locator.Path) []*Node {
	current := []*Node{d.root}
	for _, step := range p.Steps {
		seen := make(map[*Node]bool)
		var next []*Node
		for _, c := range current {
			bases := []*Node{c}
			if step.Descendant() {
				bases = descendantsOrSelf(c)
			}
			for _, b := range bases {
				for _, m := range applyStep(b.Children, step) {
					if !seen[m] {
						seen[m] = true
						next = append(next, m)
					}
				}
			}
		}
		current = next
		if len(current) == 0 {
			return nil
		}
	}
	sort.Slice(current, func(i, j int) bool { return current[i].order < current[j].order })
	return current
}

// applyStep selects the children matching one step. Positional predicates
// apply to the candidates left by the predicates before them.
func applyStep(children []*Node, step *locator.Step) []*Node {
	var cands []*Node
	for _, c := range children {
		if c.tagIs(step.Tag) {
			cands = append(cands, c)
		}
	}
	for _, pr := range step.Predicates {
		switch {
		case pr.Position != nil:
			i := *pr.Position - 1
			if i < 0 || i >= len(cands) {
				return nil
			}
			cands = cands[i : i+1]
		case pr.Last != nil:
			i := len(cands) - 1 - pr.Last.Offset
			if i < 0 || i >= len(cands) {
				return nil
			}
			cands = cands[i : i+1]
		case pr.Equals != nil:
			cands = filter(cands, func(n *Node) bool { return n.Attr(pr.Equals.Name) == pr.Equals.Value })
		case pr.StartsWith != nil:
			cands = filter(cands, func(n *Node) bool {
				v, ok := n.Attrs[pr.StartsWith.Name]
				return ok && strings.HasPrefix(v, pr.StartsWith.Value)
			})
		}
		if len(cands) == 0 {
			return nil
		}
	}
	return cands
}

func filter(nodes []*Node, keep func(*Node) bool) []*Node {
	var out []*Node
	for _, n := range nodes {
		if keep(n) {
			out = append(out, n)
		}
	}
	return out
}

func descendantsOrSelf(n *Node) []*Node {
	var out []*Node
	stack := []*Node{n}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		out = append(out, cur)
		for i := len(cur.Children) - 1; i >= 0; i-- {
			stack = append(stack, cur.Children[i])
		}
	}
	return out
}
