package format

import (
	"encoding/json"
	"fmt"
	"io"
	"reflect"
)

// Texter is implemented by payloads with a human-readable, line-oriented form.
type Texter interface {
	WriteText(w io.Writer) error
}

// Write writes output in the requested format.
//
// Supported formats:
// - json (default)
// - text: payloads implementing Texter, found directly or under a "data" key
func Write(w io.Writer, v any, format string, pretty bool) error {
	switch format {
	case "", "json":
		return WriteJSON(w, v, pretty)
	case "text":
		return WriteText(w, v)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// WriteJSON writes strict JSON output for CLI commands.
func WriteJSON(w io.Writer, v any, pretty bool) error {
	var b []byte
	var err error
	if pretty {
		b, err = json.MarshalIndent(v, "", "  ")
	} else {
		b, err = json.Marshal(v)
	}
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

// WriteText renders v with its Texter form, falling back to indented JSON.
func WriteText(w io.Writer, v any) error {
	if m, ok := v.(map[string]any); ok {
		if d, ok := m["data"]; ok {
			v = d
		}
	}
	if t, ok := v.(Texter); ok && !isNil(v) {
		return t.WriteText(w)
	}
	return WriteJSON(w, v, true)
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
