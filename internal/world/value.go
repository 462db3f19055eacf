package world

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// ValueKind identifies which member of the closed value set a Value holds.
type ValueKind uint8

const (
	KindInt ValueKind = iota
	KindFloat
	KindBool
	KindStr
)

// Value is a single attribute value. Attributes are an open key-value
// extension point, but the values themselves are restricted to a small
// closed set of kinds so they survive serialization unchanged.
type Value struct {
	kind ValueKind
	i    int64
	f    float64
	b    bool
	s    string
}

// Int wraps an integer attribute value.
func Int(v int64) Value { return Value{kind: KindInt, i: v} }

// Float wraps a float attribute value.
func Float(v float64) Value { return Value{kind: KindFloat, f: v} }

// Bool wraps a boolean attribute value.
func Bool(v bool) Value { return Value{kind: KindBool, b: v} }

// Str wraps a string attribute value.
func Str(v string) Value { return Value{kind: KindStr, s: v} }

// Kind returns the kind of the held value.
func (v Value) Kind() ValueKind { return v.kind }

// Int returns the integer value. The second return is false if the value
// holds a different kind.
func (v Value) Int() (int64, bool) { return v.i, v.kind == KindInt }

// Float returns the float value, or false for other kinds.
func (v Value) Float() (float64, bool) { return v.f, v.kind == KindFloat }

// Bool returns the boolean value, or false for other kinds.
func (v Value) Bool() (bool, bool) { return v.b, v.kind == KindBool }

// Str returns the string value, or false for other kinds.
func (v Value) Str() (string, bool) { return v.s, v.kind == KindStr }

// String renders the value for debug output.
func (v Value) String() string {
	switch v.kind {
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'f', 6, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindStr:
		return v.s
	default:
		return "invalid"
	}
}

// valueEnvelope is the tagged wire form of a Value. The tag keeps int and
// float apart after a JSON round trip.
type valueEnvelope struct {
	T string          `json:"t"`
	V json.RawMessage `json:"v"`
}

// MarshalJSON encodes the value as a tagged envelope.
func (v Value) MarshalJSON() ([]byte, error) {
	var tag string
	var raw []byte
	var err error
	switch v.kind {
	case KindInt:
		tag, raw = "int", []byte(strconv.FormatInt(v.i, 10))
	case KindFloat:
		tag = "float"
		raw, err = json.Marshal(v.f)
	case KindBool:
		tag, raw = "bool", []byte(strconv.FormatBool(v.b))
	case KindStr:
		tag = "str"
		raw, err = json.Marshal(v.s)
	default:
		return nil, fmt.Errorf("value: unknown kind %d", v.kind)
	}
	if err != nil {
		return nil, err
	}
	return json.Marshal(valueEnvelope{T: tag, V: raw})
}

// UnmarshalJSON decodes a tagged envelope back into a Value.
func (v *Value) UnmarshalJSON(data []byte) error {
	var env valueEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	switch env.T {
	case "int":
		n, err := strconv.ParseInt(string(env.V), 10, 64)
		if err != nil {
			return fmt.Errorf("value: bad int payload: %w", err)
		}
		*v = Int(n)
	case "float":
		var f float64
		if err := json.Unmarshal(env.V, &f); err != nil {
			return fmt.Errorf("value: bad float payload: %w", err)
		}
		*v = Float(f)
	case "bool":
		var b bool
		if err := json.Unmarshal(env.V, &b); err != nil {
			return fmt.Errorf("value: bad bool payload: %w", err)
		}
		*v = Bool(b)
	case "str":
		var s string
		if err := json.Unmarshal(env.V, &s); err != nil {
			return fmt.Errorf("value: bad str payload: %w", err)
		}
		*v = Str(s)
	default:
		return fmt.Errorf("value: unknown tag %q", env.T)
	}
	return nil
}

// Attributes is the open attribute bag on an entity. Keys are unique,
// insertion order carries no meaning.
type Attributes map[string]Value

// Set inserts or overwrites the attribute at key.
func (a Attributes) Set(key string, v Value) { a[key] = v }

// Get returns the attribute at key, or false if absent.
func (a Attributes) Get(key string) (Value, bool) {
	v, ok := a[key]
	return v, ok
}

// GetInt returns the integer attribute at key, or false if absent or of a
// different kind.
func (a Attributes) GetInt(key string) (int64, bool) {
	if v, ok := a[key]; ok {
		return v.Int()
	}
	return 0, false
}

// GetFloat returns the float attribute at key.
func (a Attributes) GetFloat(key string) (float64, bool) {
	if v, ok := a[key]; ok {
		return v.Float()
	}
	return 0, false
}

// GetBool returns the boolean attribute at key.
func (a Attributes) GetBool(key string) (bool, bool) {
	if v, ok := a[key]; ok {
		return v.Bool()
	}
	return false, false
}

// GetString returns the string attribute at key.
func (a Attributes) GetString(key string) (string, bool) {
	if v, ok := a[key]; ok {
		return v.Str()
	}
	return "", false
}

// Clone returns an independent copy of the bag. Callers always receive a
// clone so mutating the result never leaks back into the entity.
func (a Attributes) Clone() Attributes {
	out := make(Attributes, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}
