package engine

import (
	"fmt"
	"reflect"

	"embedscript/internal/value"
)

// valueToGoReflectTarget converts v to a Go value of type T via
// reflection, the shared implementation behind the Eval[T]/EvalAST[T]
// generic result-conversion entry points in engine.go. T = value.Value
// (or any interface v already satisfies) returns v itself unconverted.
func valueToGoReflectTarget[T any](v value.Value) (T, error) {
	var zero T
	targetType := reflect.TypeOf((*T)(nil)).Elem()
	if targetType.Kind() == reflect.Interface && reflect.TypeOf(v).Implements(targetType) {
		return reflect.ValueOf(v).Interface().(T), nil
	}
	rv, err := valueToGo(v, targetType)
	if err != nil {
		return zero, err
	}
	return rv.Interface().(T), nil
}

// goToValue converts a reflect.Value produced by calling Go code into
// the engine's Value, the return-value half of a RegisterFn wrapper's
// marshaling contract: a reflect.Kind switch, slice to array and
// map[string]T to map recursively.
func goToValue(rv reflect.Value) (value.Value, error) {
	if !rv.IsValid() {
		return value.Unit{}, nil
	}
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return value.Int(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return value.Int(rv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		return value.Float(rv.Float()), nil
	case reflect.String:
		return value.NewStr(rv.String()), nil
	case reflect.Bool:
		return value.Bool(rv.Bool()), nil
	case reflect.Slice, reflect.Array:
		items := make([]value.Value, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			item, err := goToValue(rv.Index(i))
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			items[i] = item
		}
		return value.NewArray(items), nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, fmt.Errorf("only map[string]T results are supported, got %s", rv.Type())
		}
		m := value.NewMap()
		iter := rv.MapRange()
		for iter.Next() {
			v, err := goToValue(iter.Value())
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", iter.Key().String(), err)
			}
			m.Set(iter.Key().String(), v)
		}
		return m, nil
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return value.Unit{}, nil
		}
		return goToValue(rv.Elem())
	default:
		return nil, fmt.Errorf("unsupported Go return type %s", rv.Type())
	}
}

// valueToGo converts a Value to a Go value assignable to targetType, the
// argument half of a RegisterFn wrapper's marshaling contract. The
// switch is driven by the target type rather than the source kind, so an
// Int argument can fill an int, int32, float64, etc. parameter.
func valueToGo(v value.Value, targetType reflect.Type) (reflect.Value, error) {
	switch targetType.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, ok := v.(value.Int)
		if !ok {
			return reflect.Value{}, fmt.Errorf("expected int, got %s", v.Kind())
		}
		out := reflect.New(targetType).Elem()
		out.SetInt(int64(i))
		return out, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		i, ok := v.(value.Int)
		if !ok {
			return reflect.Value{}, fmt.Errorf("expected int, got %s", v.Kind())
		}
		out := reflect.New(targetType).Elem()
		out.SetUint(uint64(i))
		return out, nil
	case reflect.Float32, reflect.Float64:
		var f float64
		switch n := v.(type) {
		case value.Float:
			f = float64(n)
		case value.Int:
			f = float64(n)
		default:
			return reflect.Value{}, fmt.Errorf("expected float, got %s", v.Kind())
		}
		out := reflect.New(targetType).Elem()
		out.SetFloat(f)
		return out, nil
	case reflect.String:
		s, ok := v.(value.StrValue)
		if !ok {
			return reflect.Value{}, fmt.Errorf("expected string, got %s", v.Kind())
		}
		return reflect.ValueOf(s.String()).Convert(targetType), nil
	case reflect.Bool:
		b, ok := v.(value.Bool)
		if !ok {
			return reflect.Value{}, fmt.Errorf("expected bool, got %s", v.Kind())
		}
		return reflect.ValueOf(bool(b)).Convert(targetType), nil
	case reflect.Slice:
		arr, ok := v.(value.ArrayValue)
		if !ok {
			return reflect.Value{}, fmt.Errorf("expected array, got %s", v.Kind())
		}
		items := arr.Items()
		out := reflect.MakeSlice(targetType, len(items), len(items))
		for i, item := range items {
			elem, err := valueToGo(item, targetType.Elem())
			if err != nil {
				return reflect.Value{}, fmt.Errorf("element %d: %w", i, err)
			}
			out.Index(i).Set(elem)
		}
		return out, nil
	case reflect.Map:
		if targetType.Key().Kind() != reflect.String {
			return reflect.Value{}, fmt.Errorf("only map[string]T parameters are supported")
		}
		mv, ok := v.(value.MapValue)
		if !ok {
			return reflect.Value{}, fmt.Errorf("expected map, got %s", v.Kind())
		}
		out := reflect.MakeMapWithSize(targetType, mv.Len())
		for _, k := range mv.Keys() {
			entry, _ := mv.Get(k)
			elem, err := valueToGo(entry, targetType.Elem())
			if err != nil {
				return reflect.Value{}, fmt.Errorf("field %q: %w", k, err)
			}
			out.SetMapIndex(reflect.ValueOf(k), elem)
		}
		return out, nil
	case reflect.Interface:
		return reflect.ValueOf(v), nil
	default:
		return reflect.Value{}, fmt.Errorf("unsupported Go parameter type %s", targetType)
	}
}
