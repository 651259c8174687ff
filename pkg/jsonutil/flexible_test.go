package jsonutil

import (
	"encoding/json"
	"testing"
)

func TestFlexibleStringValue(t *testing.T) {
	tests := []struct {
		name  string
		input json.RawMessage
		want  string
	}{
		{"string value", json.RawMessage(`"Week 1: read chapter 2"`), "Week 1: read chapter 2"},
		{"integer keeps its digits", json.RawMessage(`9007199254740993`), "9007199254740993"},
		{"float value", json.RawMessage(`3.5`), "3.5"},
		{"negative integer", json.RawMessage(`-7`), "-7"},
		{"boolean true", json.RawMessage(`true`), "true"},
		{"boolean false", json.RawMessage(`false`), "false"},
		{"null value", json.RawMessage(`null`), ""},
		{"empty raw message", json.RawMessage{}, ""},
		{"nil raw message", nil, ""},
		{"object is not a string", json.RawMessage(`{"key":"value"}`), ""},
		{"array is not a string", json.RawMessage(`[1,2,3]`), ""},
		{"padded string", json.RawMessage("  \"x\" "), "x"},
		{"escaped string", json.RawMessage(`"say \"hi\""`), `say "hi"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FlexibleStringValue(tt.input); got != tt.want {
				t.Errorf("FlexibleStringValue(%s) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestFlexibleString_InStruct(t *testing.T) {
	var items []struct {
		Title FlexibleString `json:"title"`
	}
	err := json.Unmarshal([]byte(`[{"title":"Read"},{"title":42},{"title":{"x":1}},{}]`), &items)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"Read", "42", "", ""}
	if len(items) != len(want) {
		t.Fatalf("expected %d items, got %d", len(want), len(items))
	}
	for i, w := range want {
		if items[i].Title.String() != w {
			t.Errorf("item %d: got %q, want %q", i, items[i].Title, w)
		}
	}
}
