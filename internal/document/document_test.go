package document

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v4"
)

func mustParse(t *testing.T, src string) *yaml.Node {
	t.Helper()
	n, _, err := Parse([]byte(src))
	require.NoError(t, err)
	return n
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		format  Format
		wantErr bool
	}{
		{"json object", `{"openapi": "3.0.0", "paths": {}}`, FormatJSON, false},
		{"json with tabs", "{\n\t\"paths\": {}\n}", FormatJSON, false},
		{"yaml", "openapi: 3.0.0\npaths: {}\n", FormatYAML, false},
		{"truncated json", `{"openapi": "3.0.0", "paths": `, "", true},
		{"broken yaml", "key: [unclosed", "", true},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, format, err := Parse([]byte(tt.input))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, n)
			require.Equal(t, tt.format, format)
		})
	}
}

func TestParseKeepsKeyOrder(t *testing.T) {
	for _, src := range []string{
		`{"zeta": 1, "alpha": 2, "mid": 3}`,
		"zeta: 1\nalpha: 2\nmid: 3\n",
	} {
		n := mustParse(t, src)
		var keys []string
		for k := range Pairs(n) {
			keys = append(keys, k)
		}
		require.Equal(t, []string{"zeta", "alpha", "mid"}, keys)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		ok       bool
		expected Dialect
	}{
		{"swagger 2", `{"swagger": "2.0", "paths": {}}`, true, DialectSwagger2},
		{"openapi 3.0", "openapi: 3.0.3\npaths: {}\n", true, DialectOpenAPI30},
		{"openapi 3.1", `{"openapi": "3.1.0", "paths": {}}`, true, DialectOpenAPI31},
		{"info only", `{"info": {"title": "x"}, "paths": {}}`, true, DialectOpenAPI30},
		{"info with definitions", `{"info": {}, "definitions": {}, "paths": {}}`, true, DialectSwagger2},
		{"missing paths", `{"openapi": "3.0.0", "info": {}}`, false, ""},
		{"paths only", `{"paths": {}}`, false, ""},
		{"array root", `[1, 2]`, false, ""},
		{"scalar root", "just text", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, format, err := Parse([]byte(tt.input))
			require.NoError(t, err)
			doc, ok := Classify(n, format)
			require.Equal(t, tt.ok, ok)
			if ok {
				require.Equal(t, tt.expected, doc.Dialect)
			}
		})
	}
}

func TestToJSON(t *testing.T) {
	n := mustParse(t, "b: 1\na: [x, 2.5, true, null]\nc:\n  d: \"007\"\n")

	data, err := ToJSON(n)
	require.NoError(t, err)
	require.Equal(t, `{"b":1,"a":["x",2.5,true,null],"c":{"d":"007"}}`, string(data))
}

func TestToJSONRejectsCycles(t *testing.T) {
	m := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	m.Content = []*yaml.Node{NewString("self"), m}

	_, err := ToJSON(m)
	require.Error(t, err)
}

func TestUnresolvedRefs(t *testing.T) {
	n := mustParse(t, `
paths:
  /a:
    get:
      responses:
        "200":
          schema:
            $ref: "#/definitions/Pet"
  /b:
    $ref: "other.yaml#/paths/b"
`)
	require.Equal(t, []string{"#/definitions/Pet", "other.yaml#/paths/b"}, UnresolvedRefs(n))
	require.True(t, HasRefs(n))
	require.False(t, HasRefs(mustParse(t, `{"a": {"b": 1}}`)))
}

func TestUnresolvedRefsTerminatesOnCycles(t *testing.T) {
	m := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	m.Content = []*yaml.Node{NewString("self"), m, NewString("list"), {Kind: yaml.SequenceNode, Content: []*yaml.Node{m}}}

	require.Empty(t, UnresolvedRefs(m))
}

func TestResolvePointer(t *testing.T) {
	root := mustParse(t, `
components:
  schemas:
    Pet:
      type: object
paths:
  /a/b:
    get: {}
list: [zero, one]
`)

	require.Equal(t, "object", String(ResolvePointer(root, "#/components/schemas/Pet"), "type"))
	require.NotNil(t, ResolvePointer(root, "#/paths/~1a~1b/get"))
	require.Equal(t, "one", Scalar(ResolvePointer(root, "#/list/1")))
	require.Nil(t, ResolvePointer(root, "#/list/9"))
	require.Nil(t, ResolvePointer(root, "#/components/schemas/Missing"))
	require.Nil(t, ResolvePointer(root, "external.yaml#/Pet"))
	require.Same(t, Unwrap(root), ResolvePointer(root, "#"))
}

func TestClone(t *testing.T) {
	root := mustParse(t, "a:\n  b: 1\n")
	shared := Lookup(root, "a")
	root.Content = append(root.Content, NewString("again"), shared)

	c := Clone(root)
	require.Same(t, Lookup(c, "a"), Lookup(c, "again"))
	require.NotSame(t, shared, Lookup(c, "a"))

	Lookup(c, "a").Content[1].Value = "2"
	require.Equal(t, "1", String(shared, "b"))
}

func TestValue(t *testing.T) {
	n := mustParse(t, `{"s": "x", "i": 3, "f": 1.25, "b": false, "n": null, "o": {"k": [1]}}`)

	require.Equal(t, "x", Value(Lookup(n, "s")))
	require.Equal(t, int64(3), Value(Lookup(n, "i")))
	require.Equal(t, 1.25, Value(Lookup(n, "f")))
	require.Equal(t, false, Value(Lookup(n, "b")))
	require.Nil(t, Value(Lookup(n, "n")))
	require.JSONEq(t, `{"k": [1]}`, string(Value(Lookup(n, "o")).(json.RawMessage)))
}
