package stats

import (
	"encoding/json"
	"math"
	"reflect"
	"strconv"
	"strings"
)

var marshalerType = reflect.TypeOf((*json.Marshaler)(nil)).Elem()

// ConvertNumericTypes turns a result value into a plain tree of
// map[string]any, []any, float64, int64, uint64, string, bool and nil.
// Struct fields are keyed by their json tag. NaN and Inf become nil so the
// tree always encodes as JSON.
func ConvertNumericTypes(v any) any {
	if v == nil {
		return nil
	}
	return convertValue(reflect.ValueOf(v))
}

func convertValue(v reflect.Value) any {
	if !v.IsValid() {
		return nil
	}

	if v.Type().Implements(marshalerType) && v.Kind() != reflect.Pointer && v.Kind() != reflect.Interface {
		return convertMarshaler(v)
	}

	switch v.Kind() {
	case reflect.Pointer, reflect.Interface:
		if v.IsNil() {
			return nil
		}
		return convertValue(v.Elem())
	case reflect.Float32, reflect.Float64:
		f := v.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil
		}
		return f
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint()
	case reflect.Bool:
		return v.Bool()
	case reflect.String:
		return v.String()
	case reflect.Slice:
		if v.IsNil() {
			return []any{}
		}
		fallthrough
	case reflect.Array:
		out := make([]any, v.Len())
		for i := range out {
			out[i] = convertValue(v.Index(i))
		}
		return out
	case reflect.Map:
		out := make(map[string]any, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			out[mapKey(iter.Key())] = convertValue(iter.Value())
		}
		return out
	case reflect.Struct:
		out := make(map[string]any)
		convertStruct(v, out)
		return out
	}
	return nil
}

// convertStruct writes the exported fields of v into out, flattening
// embedded structs the way encoding/json does.
func convertStruct(v reflect.Value, out map[string]any) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("json")
		if tag == "-" {
			continue
		}
		name, opts, _ := strings.Cut(tag, ",")
		fv := v.Field(i)

		if field.Anonymous && name == "" {
			if fv.Kind() == reflect.Pointer {
				if fv.IsNil() {
					continue
				}
				fv = fv.Elem()
			}
			if fv.Kind() == reflect.Struct {
				convertStruct(fv, out)
				continue
			}
		}
		if !field.IsExported() {
			continue
		}
		if name == "" {
			name = field.Name
		}
		if strings.Contains(opts, "omitempty") && fv.IsZero() {
			continue
		}
		out[name] = convertValue(fv)
	}
}

func convertMarshaler(v reflect.Value) any {
	raw, err := v.Interface().(json.Marshaler).MarshalJSON()
	if err != nil {
		return nil
	}
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil
	}
	return decoded
}

func mapKey(k reflect.Value) string {
	switch k.Kind() {
	case reflect.String:
		return k.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(k.Int(), 10)
	}
	raw, _ := json.Marshal(k.Interface())
	return strings.Trim(string(raw), `"`)
}
