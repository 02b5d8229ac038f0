package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/mj1618/locator-cli/internal/model"
)

func sampleChain() model.Chain {
	return model.Chain{
		{Kind: model.KindText, Value: "Submit", Tag: "button", Reliability: 80},
		{Kind: model.KindXPath, Value: "/html/body/form/button", Tag: "button", Reliability: 50},
	}
}

func TestFprint_YAML(t *testing.T) {
	var buf bytes.Buffer
	if err := Fprint(&buf, sampleChain(), FormatYAML, false); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if strings.Count(out, "\n") <= 1 {
		t.Errorf("YAML output should be multi-line, got:\n%s", out)
	}

	var decoded model.Chain
	if err := yaml.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid YAML: %v", err)
	}
	if len(decoded) != 2 || decoded[0].Value != "Submit" {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestFprint_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := Fprint(&buf, sampleChain(), FormatJSON, false); err != nil {
		t.Fatal(err)
	}
	if strings.Count(buf.String(), "\n") != 1 {
		t.Errorf("compact JSON should be a single line, got:\n%s", buf.String())
	}
	var decoded []map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded[0]["kind"] != "text" {
		t.Errorf("kind = %v, want text", decoded[0]["kind"])
	}
	if _, ok := decoded[0]["partial"]; ok {
		t.Error("partial should be omitted when false")
	}

	buf.Reset()
	if err := Fprint(&buf, sampleChain(), FormatJSON, true); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "\n  {") {
		t.Errorf("pretty JSON should be indented, got:\n%s", buf.String())
	}
}

func TestFprint_NoHTMLEscape(t *testing.T) {
	var buf bytes.Buffer
	loc := model.Locator{Kind: model.KindXPath, Value: "//a[@href='<x>']"}
	if err := Fprint(&buf, loc, FormatJSON, false); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "<x>") {
		t.Errorf("angle brackets should not be escaped: %s", buf.String())
	}
}

func TestPrint_UsesGlobals(t *testing.T) {
	var buf bytes.Buffer
	oldOut, oldFormat := Stdout, OutputFormat
	defer func() { Stdout, OutputFormat = oldOut, oldFormat }()
	Stdout, OutputFormat = &buf, FormatJSON

	if err := Print(map[string]int{"total": 3}); err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(buf.String()); got != `{"total":3}` {
		t.Errorf("got %s", got)
	}
}

func TestParseFormat(t *testing.T) {
	if f, err := ParseFormat(""); err != nil || f != FormatYAML {
		t.Errorf("empty format = %q, %v", f, err)
	}
	if f, err := ParseFormat("json"); err != nil || f != FormatJSON {
		t.Errorf("json = %q, %v", f, err)
	}
	if _, err := ParseFormat("agent"); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestMarshal(t *testing.T) {
	s, err := Marshal(map[string]string{"id": "abc"}, FormatYAML)
	if err != nil {
		t.Fatal(err)
	}
	if s != "id: abc\n" {
		t.Errorf("got %q", s)
	}
}
