package world

import (
	"encoding/json"
	"testing"
)

// TestValueAccessors verifies typed accessors only answer for their own
// kind.
func TestValueAccessors(t *testing.T) {
	v := Int(42)
	if n, ok := v.Int(); !ok || n != 42 {
		t.Errorf("Int accessor: got %d, ok=%v", n, ok)
	}
	if _, ok := v.Float(); ok {
		t.Error("Float accessor must refuse an int value")
	}
	if _, ok := v.Bool(); ok {
		t.Error("Bool accessor must refuse an int value")
	}
	if _, ok := v.Str(); ok {
		t.Error("Str accessor must refuse an int value")
	}
}

// TestValueJSONRoundTrip verifies the tagged encoding keeps every kind
// distinct, including int vs float.
func TestValueJSONRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		in   Value
	}{
		{"int", Int(7)},
		{"large int", Int(1 << 53)},
		{"negative int", Int(-3)},
		{"float", Float(2.5)},
		{"whole float", Float(3)},
		{"bool", Bool(true)},
		{"str", Str("hello 'world'")},
		{"empty str", Str("")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blob, err := json.Marshal(tt.in)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			var out Value
			if err := json.Unmarshal(blob, &out); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if out != tt.in {
				t.Errorf("expected %#v, got %#v", tt.in, out)
			}
		})
	}
}

// TestValueJSONRejectsUnknownTag verifies decoding refuses foreign tags.
func TestValueJSONRejectsUnknownTag(t *testing.T) {
	var v Value
	if err := json.Unmarshal([]byte(`{"t":"uuid","v":"x"}`), &v); err == nil {
		t.Error("expected an error for unknown tag")
	}
}

// TestAttributesTypedGetters verifies the bag-level convenience getters.
func TestAttributesTypedGetters(t *testing.T) {
	a := Attributes{
		"hp":    Int(10),
		"speed": Float(0.5),
		"boss":  Bool(true),
		"name":  Str("grunt"),
	}

	if hp, ok := a.GetInt("hp"); !ok || hp != 10 {
		t.Errorf("GetInt: %d, ok=%v", hp, ok)
	}
	if speed, ok := a.GetFloat("speed"); !ok || speed != 0.5 {
		t.Errorf("GetFloat: %g, ok=%v", speed, ok)
	}
	if boss, ok := a.GetBool("boss"); !ok || !boss {
		t.Errorf("GetBool: %v, ok=%v", boss, ok)
	}
	if name, ok := a.GetString("name"); !ok || name != "grunt" {
		t.Errorf("GetString: %q, ok=%v", name, ok)
	}

	// Wrong kind and missing key both answer false.
	if _, ok := a.GetInt("speed"); ok {
		t.Error("GetInt must refuse a float attribute")
	}
	if _, ok := a.GetInt("missing"); ok {
		t.Error("GetInt must refuse a missing key")
	}
}
