package fs

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestSerializers(t *testing.T) {
	record := map[string]any{
		"id":     3,
		"name":   "Amy",
		"active": true,
		"score":  9.5,
		"tags":   []any{"a", "b"},
	}

	for ext, s := range DefaultSerializers(false) {
		t.Run(ext, func(t *testing.T) {
			data, err := s.Serialize(record)
			if err != nil {
				t.Fatalf("Serialize failed: %v", err)
			}

			parsed, err := s.Parse(bytes.NewReader(data))
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}

			if parsed["name"] != "Amy" {
				t.Errorf("name mismatch, got %v", parsed["name"])
			}
			if parsed["active"] != true {
				t.Errorf("active mismatch, got %v", parsed["active"])
			}
			tags, ok := parsed["tags"].([]any)
			if !ok || len(tags) != 2 {
				t.Errorf("tags mismatch, got %#v", parsed["tags"])
			}
		})
	}
}

func TestSerializers_Strict(t *testing.T) {
	big := "9007199254740993"

	t.Run("JSON", func(t *testing.T) {
		s := NewJSONSerializer(true)
		parsed, err := s.Parse(bytes.NewReader([]byte(`{"n":` + big + `}`)))
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}
		if n, ok := parsed["n"].(json.Number); !ok || n.String() != big {
			t.Errorf("Expected json.Number %s, got %#v", big, parsed["n"])
		}
	})

	t.Run("YAML", func(t *testing.T) {
		s := NewYAMLSerializer(true)
		parsed, err := s.Parse(bytes.NewReader([]byte("n: 12\nf: 1.5\nnested:\n  - 7\n")))
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}
		if parsed["n"] != json.Number("12") {
			t.Errorf("Expected json.Number 12, got %#v", parsed["n"])
		}
		if parsed["f"] != json.Number("1.5") {
			t.Errorf("Expected json.Number 1.5, got %#v", parsed["f"])
		}
		nested := parsed["nested"].([]any)
		if nested[0] != json.Number("7") {
			t.Errorf("Expected nested json.Number 7, got %#v", nested[0])
		}
	})
}

func TestSerializers_InvalidInput(t *testing.T) {
	if _, err := NewJSONSerializer(false).Parse(bytes.NewReader([]byte("{ nope"))); err == nil {
		t.Error("Expected error for invalid json")
	}
	if _, err := NewYAMLSerializer(false).Parse(bytes.NewReader([]byte("a: [1"))); err == nil {
		t.Error("Expected error for invalid yaml")
	}
}
