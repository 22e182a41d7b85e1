package mock

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/pb33f/libopenapi/orderedmap"
	wk8orderedmap "github.com/pb33f/ordered-map/v2"
)

// Object is a synthesized JSON object; it encodes in property declaration
// order.
type Object = orderedmap.Map[string, any]

func newObject() *Object {
	return &Object{
		OrderedMap: wk8orderedmap.New[string, any](wk8orderedmap.WithDisableHTMLEscape[string, any]()),
	}
}

// merge copies every property of src into dst, overwriting existing keys.
func merge(dst, src *Object) {
	for k, v := range src.FromOldest() {
		dst.Set(k, v)
	}
}

// Text renders a synthesized value as request body text: strings are used
// verbatim, absent values become "", everything else is JSON.
func Text(v any, pretty bool) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	}
	s, err := encode(v, pretty)
	if err != nil {
		return ""
	}
	return s
}

// JSON renders any value as JSON text, quoting strings.
func JSON(v any, pretty bool) string {
	s, err := encode(v, pretty)
	if err != nil {
		return ""
	}
	return s
}

func encode(v any, pretty bool) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
