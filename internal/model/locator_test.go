package model

import "testing"

func TestChain_Sorted_StableTies(t *testing.T) {
	c := Chain{
		{Kind: KindClass, Value: "btn", Reliability: 60},
		{Kind: KindName, Value: "email", Reliability: 85},
		{Kind: KindPlaceholder, Value: "Email", Reliability: 85},
		{Kind: KindID, Value: "email", Reliability: 100},
	}
	got := c.Sorted()
	want := []LocatorKind{KindID, KindName, KindPlaceholder, KindClass}
	for i, k := range want {
		if got[i].Kind != k {
			t.Errorf("sorted[%d] = %s, want %s", i, got[i].Kind, k)
		}
	}
	if c[0].Kind != KindClass {
		t.Error("Sorted must not modify the receiver")
	}
}

func TestChain_PrimaryAndFallbacks(t *testing.T) {
	c := Chain{
		{Kind: KindText, Value: "Submit", Reliability: 80},
		{Kind: KindXPath, Value: "/html/body/button", Reliability: 50},
	}
	if c.Primary().Kind != KindText {
		t.Errorf("primary = %s, want text", c.Primary().Kind)
	}
	if fb := c.Fallbacks(); len(fb) != 1 || fb[0].Kind != KindXPath {
		t.Errorf("fallbacks = %v", fb)
	}
	if fb := c[:1].Fallbacks(); fb != nil {
		t.Errorf("single-entry chain fallbacks = %v, want nil", fb)
	}
}

func TestChain_Validate(t *testing.T) {
	tests := []struct {
		name    string
		chain   Chain
		wantErr bool
	}{
		{"empty", Chain{}, true},
		{"ok", Chain{{Kind: KindID, Value: "x", Reliability: 100}}, false},
		{"empty value", Chain{{Kind: KindID, Reliability: 100}}, true},
		{"bad kind", Chain{{Kind: "css", Value: ".x", Reliability: 10}}, true},
		{"out of range", Chain{{Kind: KindID, Value: "x", Reliability: 101}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.chain.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestChain_Promote(t *testing.T) {
	text := Locator{Kind: KindText, Value: "Submit", Tag: "button", Reliability: 80}
	path := Locator{Kind: KindXPath, Value: "/html/body/button", Reliability: 50}
	healed := Locator{Kind: KindTestID, Value: "submit", Attr: "data-testid", Reliability: 95}

	c := Chain{text, path}.Promote(path)
	if len(c) != 2 {
		t.Fatalf("len = %d, want 2", len(c))
	}
	if !c[0].Equal(path) || c[0].Reliability != 80 {
		t.Errorf("primary = %+v, want promoted path with reliability 80", c[0])
	}
	if !c[1].Equal(text) {
		t.Errorf("second = %+v, want text", c[1])
	}

	c = Chain{text, path}.Promote(healed)
	if !c[0].Equal(healed) || c[0].Reliability != 95 || len(c) != 3 {
		t.Errorf("promote of more reliable locator = %+v", c)
	}
}

func TestLocator_String(t *testing.T) {
	tests := []struct {
		loc  Locator
		want string
	}{
		{Locator{Kind: KindText, Value: "Submit", Tag: "button"}, "text@button=Submit"},
		{Locator{Kind: KindText, Value: "Long", Tag: "a", Partial: true}, "text@a^=Long"},
		{Locator{Kind: KindTestID, Value: "go", Attr: "data-cy"}, "test-id[data-cy]=go"},
		{Locator{Kind: KindRole, Value: "OK", Role: "button", Tag: "*"}, "role(button)=OK"},
		{Locator{Kind: KindXPath, Value: "/html/body", Tag: "body"}, "xpath=/html/body"},
	}
	for _, tt := range tests {
		if got := tt.loc.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestParsePlatform(t *testing.T) {
	if p, err := ParsePlatform("web"); err != nil || p != PlatformWeb {
		t.Errorf("ParsePlatform(web) = %q, %v", p, err)
	}
	if _, err := ParsePlatform("tv"); err == nil {
		t.Error("expected error for unknown platform")
	}
}
