package model

import (
	"encoding/json"
	"testing"
)

func TestElement_DumpKeys(t *testing.T) {
	disabled := false
	el := Element{
		ID: 1, Role: "group", Subrole: "AXDialog", Title: "Save changes?", Bounds: [4]int{10, 20, 300, 200},
		Enabled: &disabled,
		Children: []Element{
			{ID: 2, Role: "btn", Title: "OK", Bounds: [4]int{20, 150, 60, 24}},
		},
	}
	data, err := json.Marshal(el)
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"i", "r", "sr", "t", "b", "e", "c"} {
		if _, ok := m[key]; !ok {
			t.Errorf("expected key %q in %s", key, data)
		}
	}
	for _, key := range []string{"v", "d", "f", "s", "a", "id", "role"} {
		if _, ok := m[key]; ok {
			t.Errorf("unexpected key %q in %s", key, data)
		}
	}
}

func TestElement_DecodeDump(t *testing.T) {
	raw := `{"i":3,"r":"input","d":"Search","v":"notes","b":[700,5,200,30],"f":true,"e":false}`
	var el Element
	if err := json.Unmarshal([]byte(raw), &el); err != nil {
		t.Fatal(err)
	}
	if el.ID != 3 || el.Role != "input" || el.Description != "Search" || el.Value != "notes" {
		t.Errorf("decoded = %+v", el)
	}
	if !el.Focused {
		t.Error("focused should be true")
	}
	if el.Enabled == nil || *el.Enabled {
		t.Error("enabled should decode as explicit false")
	}
	if el.Bounds != [4]int{700, 5, 200, 30} {
		t.Errorf("bounds = %v", el.Bounds)
	}
}
