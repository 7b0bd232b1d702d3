package eval

import (
	"embedscript/internal/errors"
	"embedscript/internal/jsonmap"
	"embedscript/internal/lexer"
	"embedscript/internal/module"
	"embedscript/internal/value"
)

// allKinds lists every Kind a JSON-surface function must accept as its
// "any value" argument; Module has no wildcard native hash, so "works on
// anything" means "registered once per Kind", the same pattern
// registerComparison already uses for == and !=.
var allKinds = []value.Kind{
	value.KindUnit, value.KindBool, value.KindInt, value.KindFloat, value.KindChar,
	value.KindStr, value.KindArray, value.KindMap, value.KindFnPtr, value.KindTimeStamp,
	value.KindShared, value.KindNative,
}

// registerJSON wires the JSON-literal global functions: parse_json,
// to_json/to_json_formatted, json_has_field, json_keys, json_values and
// json_length, all backed by internal/jsonmap.
func registerJSON(m *module.Module) {
	strKind := value.KindStr.String()
	intKind := value.KindInt.String()

	m.RegisterNative("parse_json", 1, module.Public, []string{strKind}, module.NewPure(func(args []value.Value) (value.Value, error) {
		v, err := jsonmap.Parse(args[0].String())
		if err != nil {
			return nil, errors.Newf(errors.KindRuntime, lexer.None, "%s", err)
		}
		return v, nil
	}))

	for _, k := range allKinds {
		kind := k.String()
		m.RegisterNative("to_json", 1, module.Public, []string{kind}, module.NewPure(func(args []value.Value) (value.Value, error) {
			s, err := jsonmap.ToJSON(args[0])
			if err != nil {
				return nil, errors.Newf(errors.KindRuntime, lexer.None, "%s", err)
			}
			return value.NewStr(s), nil
		}))
		m.RegisterNative("to_json_formatted", 2, module.Public, []string{kind, intKind}, module.NewPure(func(args []value.Value) (value.Value, error) {
			indent := int(args[1].(value.Int))
			s, err := jsonmap.ToJSONFormatted(args[0], indent)
			if err != nil {
				return nil, errors.Newf(errors.KindRuntime, lexer.None, "%s", err)
			}
			return value.NewStr(s), nil
		}))
		m.RegisterNative("json_has_field", 2, module.Public, []string{kind, strKind}, module.NewPure(func(args []value.Value) (value.Value, error) {
			return value.Bool(jsonmap.HasField(args[0], args[1].String())), nil
		}))
		m.RegisterNative("json_keys", 1, module.Public, []string{kind}, module.NewPure(func(args []value.Value) (value.Value, error) {
			keys := jsonmap.Keys(args[0])
			items := make([]value.Value, len(keys))
			for i, s := range keys {
				items[i] = value.NewStr(s)
			}
			return value.NewArray(items), nil
		}))
		m.RegisterNative("json_values", 1, module.Public, []string{kind}, module.NewPure(func(args []value.Value) (value.Value, error) {
			return value.NewArray(jsonmap.Values(args[0])), nil
		}))
		m.RegisterNative("json_length", 1, module.Public, []string{kind}, module.NewPure(func(args []value.Value) (value.Value, error) {
			return value.Int(jsonmap.Length(args[0])), nil
		}))
	}
}
