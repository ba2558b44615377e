package providers

import (
	"encoding/json"
	"strings"
	"testing"
)

var decisionSchema = json.RawMessage(`{
	"name":"chapter_decisions",
	"strict":true,
	"schema":{
		"type":"object",
		"properties":{
			"decisions":{
				"type":"array",
				"items":{
					"type":"object",
					"properties":{
						"is_chapter":{"type":"boolean"},
						"confidence":{"type":"number","minimum":0,"maximum":1}
					},
					"required":["is_chapter","confidence"]
				}
			}
		},
		"required":["decisions"]
	}
}`)

func TestParseStructuredJSON_StripsCodeFence(t *testing.T) {
	content := "```json\n{\"has_toc\":true}\n```"
	got, err := parseStructuredJSON(content)
	if err != nil {
		t.Fatalf("parseStructuredJSON() error = %v", err)
	}

	var parsed map[string]any
	if err := json.Unmarshal(got, &parsed); err != nil {
		t.Fatalf("failed to unmarshal parsed JSON: %v", err)
	}
	if ok, _ := parsed["has_toc"].(bool); !ok {
		t.Fatalf("expected has_toc=true, got %#v", parsed)
	}
}

func TestParseStructuredJSON_ExtractsFromProse(t *testing.T) {
	got, err := parseStructuredJSON(`Here is the result: {"title":"晨光"} hope it helps`)
	if err != nil {
		t.Fatalf("parseStructuredJSON() error = %v", err)
	}
	if string(got) != `{"title":"晨光"}` {
		t.Errorf("got %s", got)
	}

	if _, err := parseStructuredJSON("   "); err == nil {
		t.Error("expected error for empty output")
	}
	if _, err := parseStructuredJSON("no json here"); err == nil {
		t.Error("expected error for output without JSON")
	}
}

func TestValidateStructuredJSON_EnforcesSchema(t *testing.T) {
	valid := json.RawMessage(`{"decisions":[{"is_chapter":true,"confidence":0.9}]}`)
	if err := validateStructuredJSON(decisionSchema, valid); err != nil {
		t.Fatalf("validateStructuredJSON(valid) error = %v", err)
	}

	invalid := json.RawMessage(`{"decisions":[{"is_chapter":true,"confidence":1.5}]}`)
	if err := validateStructuredJSON(decisionSchema, invalid); err == nil {
		t.Fatal("validateStructuredJSON(invalid) expected error, got nil")
	}

	missing := json.RawMessage(`{"items":[]}`)
	if err := validateStructuredJSON(decisionSchema, missing); err == nil {
		t.Fatal("validateStructuredJSON(missing) expected error, got nil")
	}
}

func TestStructuredOutput(t *testing.T) {
	rf := &ResponseFormat{Type: FormatJSONObject, JSONSchema: decisionSchema}
	if _, err := structuredOutput(rf, "```\n{\"decisions\":[]}\n```"); err != nil {
		t.Errorf("structuredOutput() error = %v", err)
	}
	if _, err := structuredOutput(rf, `{"decisions":"nope"}`); err == nil {
		t.Error("expected schema error")
	}
	if _, err := structuredOutput(&ResponseFormat{Type: FormatJSONObject}, `{"any":1}`); err != nil {
		t.Errorf("no schema should only parse, got %v", err)
	}
}

func TestStructuredRepairPrompt(t *testing.T) {
	p := structuredRepairPrompt(decisionSchema, strings.Repeat("x", 13000), errTest)
	if !strings.Contains(p, "...[truncated]") {
		t.Error("long output should be truncated")
	}
	if !strings.Contains(p, "chapter_decisions") {
		t.Error("prompt should carry the schema")
	}
}
