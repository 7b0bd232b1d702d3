// Package jsonmap bridges the engine's Value tree and JSON text: parsing
// an arbitrary JSON document into a Value, and rendering a Value back out
// as JSON, compact or pretty.
//
// Parsing uses github.com/tidwall/gjson (no decode-to-interface{} round
// trip, no struct tags); serializing builds through github.com/tidwall/sjson
// (which itself marshals Go-native leaf values, so no hand-rolled JSON
// string escaping is needed here) and github.com/tidwall/pretty for the
// indented form.
package jsonmap

import (
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"

	"embedscript/internal/value"
)

// Parse decodes a JSON document into a Value. Objects become MapValue,
// arrays become ArrayValue, and numbers become Int when they parse back
// losslessly as an integer, Float otherwise. null becomes Unit.
func Parse(jsonText string) (value.Value, error) {
	if !gjson.Valid(jsonText) {
		return nil, fmt.Errorf("jsonmap: invalid JSON")
	}
	return resultToValue(gjson.Parse(jsonText)), nil
}

// HasField reports whether v is a map containing key.
func HasField(v value.Value, key string) bool {
	m, ok := v.(value.MapValue)
	if !ok {
		return false
	}
	_, found := m.Get(key)
	return found
}

// Keys returns the keys of v, in no defined order, if it is a map, else nil.
// gjson.ForEach visits object members in source order, which callers can
// rely on via Parse+iteration directly; Keys here serves an already
// materialized MapValue, whose own Keys() makes no ordering guarantee,
// so this simply exposes that.
func Keys(v value.Value) []string {
	m, ok := v.(value.MapValue)
	if !ok {
		return nil
	}
	return m.Keys()
}

// Values returns the element values of v: a map's entries (in Keys()
// order) or an array's items, else nil.
func Values(v value.Value) []value.Value {
	switch t := v.(type) {
	case value.MapValue:
		keys := t.Keys()
		out := make([]value.Value, 0, len(keys))
		for _, k := range keys {
			val, _ := t.Get(k)
			out = append(out, val)
		}
		return out
	case value.ArrayValue:
		return append([]value.Value(nil), t.Items()...)
	default:
		return nil
	}
}

// Length reports len(v) for a map or array, 0 otherwise.
func Length(v value.Value) int {
	switch t := v.(type) {
	case value.MapValue:
		return t.Len()
	case value.ArrayValue:
		return t.Len()
	default:
		return 0
	}
}

func resultToValue(r gjson.Result) value.Value {
	switch r.Type {
	case gjson.Null:
		return value.Unit{}
	case gjson.False:
		return value.Bool(false)
	case gjson.True:
		return value.Bool(true)
	case gjson.Number:
		if i := int64(r.Num); float64(i) == r.Num {
			return value.Int(i)
		}
		return value.Float(r.Num)
	case gjson.String:
		return value.NewStr(r.Str)
	case gjson.JSON:
		if r.IsArray() {
			items := make([]value.Value, 0)
			r.ForEach(func(_, elem gjson.Result) bool {
				items = append(items, resultToValue(elem))
				return true
			})
			return value.NewArray(items)
		}
		m := value.NewMap()
		r.ForEach(func(key, elem gjson.Result) bool {
			m.Set(key.Str, resultToValue(elem))
			return true
		})
		return m
	default:
		return value.Unit{}
	}
}

// ToJSON renders v as compact JSON text.
func ToJSON(v value.Value) (string, error) {
	raw, err := rawOf(valueToNative(v))
	if err != nil {
		return "", fmt.Errorf("jsonmap: %w", err)
	}
	return raw, nil
}

// ToJSONFormatted renders v as JSON text indented by indent spaces.
// indent < 0 is treated as 0.
func ToJSONFormatted(v value.Value, indent int) (string, error) {
	raw, err := ToJSON(v)
	if err != nil {
		return "", err
	}
	if indent < 0 {
		indent = 0
	}
	opts := *pretty.DefaultOptions
	opts.Indent = spaces(indent)
	return string(pretty.PrettyOptions([]byte(raw), &opts)), nil
}

func spaces(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = ' '
	}
	return string(b)
}

// rawOf renders any JSON-marshalable Go value to its raw JSON text by
// setting it as the sole field of an otherwise-empty object and lifting
// the field back out; sjson does the encoding (including string
// escaping and number formatting), gjson does the extraction, so no
// stdlib JSON package or hand-rolled escaping is involved.
func rawOf(native any) (string, error) {
	doc, err := sjson.Set(`{}`, "v", native)
	if err != nil {
		return "", err
	}
	return gjson.Get(doc, "v").Raw, nil
}

// valueToNative converts a Value tree into the Go-native shape sjson
// expects (map[string]any, []any, string, int64/float64, bool, nil).
// Kinds with no JSON representation (FnPtr, TimeStamp, Shared, Native)
// serialize as null.
func valueToNative(v value.Value) any {
	switch t := v.(type) {
	case value.Unit:
		return nil
	case value.Bool:
		return bool(t)
	case value.Int:
		return int64(t)
	case value.Float:
		return float64(t)
	case value.Char:
		return string(rune(t))
	case value.StrValue:
		return t.String()
	case value.ArrayValue:
		items := t.Items()
		out := make([]any, len(items))
		for i, it := range items {
			out[i] = valueToNative(it)
		}
		return out
	case value.MapValue:
		out := make(map[string]any, t.Len())
		for _, k := range t.Keys() {
			val, _ := t.Get(k)
			out[k] = valueToNative(val)
		}
		return out
	default:
		return nil
	}
}
