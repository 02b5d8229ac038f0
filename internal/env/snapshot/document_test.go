package snapshot

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/mj1618/locator-cli/internal/env"
	"github.com/mj1618/locator-cli/internal/model"
)

const loginPage = `
roots:
  - tag: html
    children:
      - tag: body
        children:
          - tag: div
            attrs: {class: header}
            children:
              - tag: a
                attrs: {href: /}
                text: Home
          - tag: form
            attrs: {id: login, class: "card login-form"}
            children:
              - tag: input
                attrs: {name: email, placeholder: Email, data-testid: email}
              - tag: input
                attrs: {name: password, type: password, placeholder: Password}
              - tag: button
                attrs: {id: submit-btn-17cf2a9b, type: submit}
                text: Submit
          - tag: div
            attrs: {role: dialog, aria-label: Cookies}
            children:
              - tag: button
                text: Accept
              - tag: button
                text: Reject
`

func mustLoad(t *testing.T, doc string) *Document {
	t.Helper()
	d, err := Load(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	return d
}

func TestQueryCount(t *testing.T) {
	d := mustLoad(t, loginPage)
	tests := []struct {
		name string
		loc  model.Locator
		want int
	}{
		{"id", model.Locator{Kind: model.KindID, Value: "login"}, 1},
		{"test id", model.Locator{Kind: model.KindTestID, Value: "email"}, 1},
		{"test id wrong attr", model.Locator{Kind: model.KindTestID, Value: "email", Attr: "data-cy"}, 0},
		{"aria", model.Locator{Kind: model.KindAriaLabel, Value: "Cookies"}, 1},
		{"name", model.Locator{Kind: model.KindName, Value: "password"}, 1},
		{"placeholder", model.Locator{Kind: model.KindPlaceholder, Value: "Email", Tag: "input"}, 1},
		{"text with tag", model.Locator{Kind: model.KindText, Value: "Submit", Tag: "button"}, 1},
		{"untagged text keeps innermost", model.Locator{Kind: model.KindText, Value: "Home"}, 1},
		{"untagged text any tag", model.Locator{Kind: model.KindText, Value: "Home", Tag: "*"}, 1},
		{"untagged partial text", model.Locator{Kind: model.KindText, Value: "Acc", Partial: true}, 1},
		{"partial text", model.Locator{Kind: model.KindText, Value: "Sub", Tag: "button", Partial: true}, 1},
		{"class", model.Locator{Kind: model.KindClass, Value: "login-form card", Tag: "form"}, 1},
		{"role", model.Locator{Kind: model.KindRole, Role: "button", Value: "Accept"}, 1},
		{"role any text", model.Locator{Kind: model.KindRole, Role: "button"}, 3},
		{"xpath absolute", model.Locator{Kind: model.KindXPath, Value: "/html/body/form/input[2]"}, 1},
		{"xpath descendant", model.Locator{Kind: model.KindXPath, Value: "//button"}, 3},
		{"xpath last", model.Locator{Kind: model.KindXPath, Value: "/html/body/div[last()]/button[last()]"}, 1},
		{"xpath attr", model.Locator{Kind: model.KindXPath, Value: "//input[@type='password']"}, 1},
		{"xpath starts-with", model.Locator{Kind: model.KindXPath, Value: "//button[starts-with(@id,'submit-btn-')]"}, 1},
		{"missing", model.Locator{Kind: model.KindID, Value: "nope"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := d.QueryCount(context.Background(), tt.loc)
			if err != nil {
				t.Fatalf("QueryCount() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("QueryCount(%s) = %d, want %d", tt.loc, got, tt.want)
			}
		})
	}
}

func TestQueryFirst_DocumentOrder(t *testing.T) {
	d := mustLoad(t, loginPage)
	h, err := d.QueryFirst(context.Background(), model.Locator{Kind: model.KindXPath, Value: "//div//button"})
	if err != nil {
		t.Fatal(err)
	}
	n, ok := h.(*Node)
	if !ok || n.Text != "Accept" {
		t.Errorf("QueryFirst() = %+v, want Accept button", h)
	}

	h, err = d.QueryFirst(context.Background(), model.Locator{Kind: model.KindID, Value: "nope"})
	if err != nil || h != nil {
		t.Errorf("QueryFirst(missing) = %v, %v; want nil, nil", h, err)
	}
}

func TestQuery_UnsupportedLocator(t *testing.T) {
	d := mustLoad(t, loginPage)
	_, err := d.QueryCount(context.Background(), model.Locator{Kind: model.KindXPath, Value: "div > a"})
	if !errors.Is(err, env.ErrUnsupportedLocator) {
		t.Errorf("error = %v, want ErrUnsupportedLocator", err)
	}
	_, err = d.QueryCount(context.Background(), model.Locator{Kind: "css", Value: "a"})
	if !errors.Is(err, env.ErrUnsupportedLocator) {
		t.Errorf("error = %v, want ErrUnsupportedLocator", err)
	}
}

func TestQuery_CancelledContext(t *testing.T) {
	d := mustLoad(t, loginPage)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := d.QueryCount(ctx, model.Locator{Kind: model.KindID, Value: "login"}); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestReadAttributes(t *testing.T) {
	d := mustLoad(t, loginPage)
	ctx := context.Background()
	h, err := d.QueryFirst(ctx, model.Locator{Kind: model.KindText, Value: "Reject", Tag: "button"})
	if err != nil || h == nil {
		t.Fatalf("QueryFirst() = %v, %v", h, err)
	}
	a, err := d.ReadAttributes(ctx, h)
	if err != nil {
		t.Fatal(err)
	}
	if a.Tag != "button" || a.Text != "Reject" {
		t.Errorf("attrs = %+v", a)
	}
	want := []model.PathNode{
		{Tag: "button", Index: 2, Count: 2},
		{Tag: "div", Index: 2, Count: 2, Overlay: true},
		{Tag: "body", Index: 1, Count: 1},
		{Tag: "html", Index: 1, Count: 1},
	}
	if len(a.Ancestry) != len(want) {
		t.Fatalf("ancestry = %+v, want %+v", a.Ancestry, want)
	}
	for i := range want {
		if a.Ancestry[i] != want[i] {
			t.Errorf("ancestry[%d] = %+v, want %+v", i, a.Ancestry[i], want[i])
		}
	}

	h, _ = d.QueryFirst(ctx, model.Locator{Kind: model.KindName, Value: "email"})
	a, _ = d.ReadAttributes(ctx, h)
	if a.TestID != "email" || a.TestIDAttr != "data-testid" || a.Placeholder != "Email" {
		t.Errorf("input attrs = %+v", a)
	}

	if _, err := d.ReadAttributes(ctx, "not a node"); err == nil {
		t.Error("expected error for foreign handle")
	}
}

func TestNew_Programmatic(t *testing.T) {
	btn := &Node{Tag: "button", Text: "Go"}
	d := New(&Node{Tag: "main", Children: []*Node{{Tag: "p", Text: "hi"}, btn}})
	if btn.Parent() == nil || btn.Parent().Tag != "main" {
		t.Error("parent not linked")
	}
	if got := len(d.Nodes()); got != 3 {
		t.Errorf("Nodes() = %d, want 3", got)
	}
	if n, _ := d.QueryCount(context.Background(), model.Locator{Kind: model.KindXPath, Value: "/main/button"}); n != 1 {
		t.Errorf("QueryCount = %d, want 1", n)
	}
}
