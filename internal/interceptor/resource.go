package interceptor

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// ResourceIDer is implemented by results and inputs that name the record they
// act on.
type ResourceIDer interface {
	ResourceID() string
}

// resourceIDOf prefers the handler's result and falls back to the input.
func resourceIDOf(out any, err error, in any) string {
	if err == nil {
		if id := inferResourceID(out); id != "" {
			return id
		}
	}
	return inferResourceID(in)
}

// inferResourceID looks for a ResourceIDer, then an exported ID field, then
// an "id" key in the value's JSON form.
func inferResourceID(v any) string {
	if v == nil {
		return ""
	}
	if r, ok := v.(ResourceIDer); ok {
		return r.ResourceID()
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return ""
		}
		rv = rv.Elem()
	}
	if rv.CanInterface() {
		if r, ok := rv.Interface().(ResourceIDer); ok {
			return r.ResourceID()
		}
	}

	switch rv.Kind() {
	case reflect.Struct:
		if f := rv.FieldByName("ID"); f.IsValid() && f.CanInterface() && !f.IsZero() {
			return fmt.Sprint(f.Interface())
		}
	case reflect.Int, reflect.Int32, reflect.Int64, reflect.Uint, reflect.Uint32, reflect.Uint64:
		if !rv.IsZero() {
			return fmt.Sprint(rv.Interface())
		}
		return ""
	case reflect.String:
		return ""
	}

	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	var fields map[string]any
	if json.Unmarshal(b, &fields) != nil {
		return ""
	}
	switch id := fields["id"].(type) {
	case string:
		return id
	case float64:
		if id != 0 {
			return fmt.Sprintf("%.0f", id)
		}
	}
	return ""
}
