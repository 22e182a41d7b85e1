package mock

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kolah/piglet/internal/model"
)

type stubProvider struct {
	patternErr error
}

func (p stubProvider) Pattern(string) (string, error) {
	if p.patternErr != nil {
		return "", p.patternErr
	}
	return "ABC-123", nil
}

func (stubProvider) Alphanumeric(_, maxLen int) string { return strings.Repeat("a", maxLen) }
func (stubProvider) Int(_, hi int) int                 { return hi }
func (stubProvider) Float(_, hi float64) float64       { return hi }
func (stubProvider) Bool() bool                        { return true }
func (stubProvider) Pick(values []any) any             { return values[0] }
func (stubProvider) Email() string                     { return "user@example.com" }
func (stubProvider) UUID() string                      { return "00000000-0000-4000-8000-000000000000" }
func (stubProvider) URI() string                       { return "https://example.com" }
func (stubProvider) Word() string                      { return "lorem" }
func (stubProvider) Date() time.Time {
	return time.Date(2024, 3, 9, 10, 30, 0, 0, time.UTC)
}

func ptr[T any](v T) *T { return &v }

func TestSynthesizeScalars(t *testing.T) {
	tests := []struct {
		name     string
		schema   *model.Schema
		provider stubProvider
		expected any
	}{
		{"pattern", &model.Schema{Type: model.TypeString, Pattern: "[A-Z]{3}-[0-9]{3}"}, stubProvider{}, "ABC-123"},
		{"pattern failure falls back to word", &model.Schema{Type: model.TypeString, Pattern: "x"}, stubProvider{patternErr: errors.New("nope")}, "lorem"},
		{"length bounds", &model.Schema{Type: model.TypeString, MinLength: ptr[int64](2), MaxLength: ptr[int64](4)}, stubProvider{}, "aaaa"},
		{"min length only", &model.Schema{Type: model.TypeString, MinLength: ptr[int64](3)}, stubProvider{}, "aaaaaaaaaaaaa"},
		{"date-time", &model.Schema{Type: model.TypeString, Format: "date-time"}, stubProvider{}, "2024-03-09T10:30:00Z"},
		{"date", &model.Schema{Type: model.TypeString, Format: "date"}, stubProvider{}, "2024-03-09"},
		{"email", &model.Schema{Type: model.TypeString, Format: "email"}, stubProvider{}, "user@example.com"},
		{"uri", &model.Schema{Type: model.TypeString, Format: "uri"}, stubProvider{}, "https://example.com"},
		{"uuid", &model.Schema{Type: model.TypeString, Format: "uuid"}, stubProvider{}, "00000000-0000-4000-8000-000000000000"},
		{"enum", &model.Schema{Type: model.TypeString, Enum: []any{"red", "green"}}, stubProvider{}, "red"},
		{"plain string", &model.Schema{Type: model.TypeString}, stubProvider{}, "lorem"},
		{"integer defaults", &model.Schema{Type: model.TypeInteger}, stubProvider{}, int64(100)},
		{"integer bounds", &model.Schema{Type: model.TypeInteger, Minimum: ptr(2.5), Maximum: ptr(7.5)}, stubProvider{}, int64(7)},
		{"integer minimum above default maximum", &model.Schema{Type: model.TypeInteger, Minimum: ptr(500.0)}, stubProvider{}, int64(599)},
		{"number rounds to two digits", &model.Schema{Type: model.TypeNumber, Maximum: ptr(3.14159)}, stubProvider{}, 3.14},
		{"boolean", &model.Schema{Type: model.TypeBoolean}, stubProvider{}, true},
		{"untyped", &model.Schema{}, stubProvider{}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New(tt.provider)
			require.Equal(t, tt.expected, g.Synthesize(tt.schema, nil, ""))
		})
	}
}

func TestSynthesizeBinary(t *testing.T) {
	tests := []struct {
		name     string
		schema   *model.Schema
		hint     string
		expected string
	}{
		{"default png", &model.Schema{Type: model.TypeString, Format: "binary"}, "upload", "data:image/png;base64,"},
		{"pdf hint", &model.Schema{Type: model.TypeString, Format: "binary"}, "invoicePdf", "data:application/pdf;base64,"},
		{"jpeg hint", &model.Schema{Type: model.TypeFile}, "avatar.JPG", "data:image/jpeg;base64,"},
		{"text hint", &model.Schema{Type: model.TypeFile}, "notes_txt", "data:text/plain;base64,"},
		{"media type wins over hint", &model.Schema{Format: "binary", ContentMediaType: "application/pdf"}, "photo.jpg", "data:application/pdf;base64,"},
		{"unknown media type uses hint", &model.Schema{Format: "binary", ContentMediaType: "application/zip"}, "readme.txt", "data:text/plain;base64,"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := New(stubProvider{}).Synthesize(tt.schema, nil, tt.hint)
			s, ok := v.(string)
			require.True(t, ok)
			require.True(t, strings.HasPrefix(s, tt.expected), s)
		})
	}
}

func TestSynthesizeObjectKeepsPropertyOrder(t *testing.T) {
	schema := &model.Schema{
		Type: model.TypeObject,
		Properties: []model.Property{
			{Name: "zeta", Schema: &model.Schema{Type: model.TypeString}},
			{Name: "alpha", Schema: &model.Schema{Type: model.TypeInteger, Maximum: ptr(5.0)}},
			{Name: "mid", Schema: &model.Schema{Type: model.TypeBoolean}},
		},
	}

	v := New(stubProvider{}).Synthesize(schema, nil, "")

	require.Equal(t, `{"zeta":"lorem","alpha":5,"mid":true}`, JSON(v, false))
}

func TestSynthesizeCycles(t *testing.T) {
	t.Run("self referencing property", func(t *testing.T) {
		node := &model.Schema{Type: model.TypeObject}
		node.Properties = []model.Property{
			{Name: "name", Schema: &model.Schema{Type: model.TypeString}},
			{Name: "parent", Schema: node},
		}

		v := New(stubProvider{}).Synthesize(node, nil, "")

		require.Equal(t, `{"name":"lorem","parent":{}}`, JSON(v, false))
	})

	t.Run("array of ancestors", func(t *testing.T) {
		node := &model.Schema{Type: model.TypeObject}
		node.Properties = []model.Property{
			{Name: "children", Schema: &model.Schema{Type: model.TypeArray, Items: node, MinItems: ptr[int64](2)}},
		}

		v := New(stubProvider{}).Synthesize(node, nil, "")

		require.Equal(t, `{"children":[{},{}]}`, JSON(v, false))
	})

	t.Run("composition loop", func(t *testing.T) {
		a := &model.Schema{}
		b := &model.Schema{OneOf: []*model.Schema{a}}
		a.AllOf = []*model.Schema{b}

		v := New(stubProvider{}).Synthesize(a, nil, "")

		require.Equal(t, `{}`, JSON(v, false))
	})

	t.Run("reused schema in sibling properties", func(t *testing.T) {
		address := &model.Schema{Type: model.TypeObject, Properties: []model.Property{
			{Name: "city", Schema: &model.Schema{Type: model.TypeString}},
		}}
		order := &model.Schema{Type: model.TypeObject, Properties: []model.Property{
			{Name: "billing", Schema: address},
			{Name: "shipping", Schema: address},
		}}

		v := New(stubProvider{}).Synthesize(order, nil, "")

		require.Equal(t, `{"billing":{"city":"lorem"},"shipping":{}}`, JSON(v, false))
	})

	t.Run("array siblings do not share visited", func(t *testing.T) {
		leaf := &model.Schema{Type: model.TypeString}
		pair := &model.Schema{Type: model.TypeArray, MinItems: ptr[int64](3), Items: leaf}

		v := New(stubProvider{}).Synthesize(pair, nil, "")

		require.Equal(t, []any{"lorem", "lorem", "lorem"}, v)
	})
}

func TestSynthesizeArrayCardinality(t *testing.T) {
	item := &model.Schema{Type: model.TypeBoolean}
	tests := []struct {
		name     string
		minItems *int64
		expected int
	}{
		{"default is one", nil, 1},
		{"zero", ptr[int64](0), 0},
		{"exact", ptr[int64](4), 4},
		{"capped", ptr[int64](1 << 40), maxArrayItems},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			schema := &model.Schema{Type: model.TypeArray, Items: item, MinItems: tt.minItems}
			v := New(stubProvider{}).Synthesize(schema, nil, "")
			require.Len(t, v, tt.expected)
		})
	}
}

func TestSynthesizeComposition(t *testing.T) {
	base := &model.Schema{Type: model.TypeObject, Properties: []model.Property{
		{Name: "id", Schema: &model.Schema{Type: model.TypeInteger, Maximum: ptr(9.0)}},
		{Name: "kind", Schema: &model.Schema{Type: model.TypeString, Enum: []any{"base"}}},
	}}
	extra := &model.Schema{Properties: []model.Property{
		{Name: "kind", Schema: &model.Schema{Type: model.TypeString, Enum: []any{"extra"}}},
		{Name: "flag", Schema: &model.Schema{Type: model.TypeBoolean}},
	}}

	tests := []struct {
		name     string
		schema   *model.Schema
		expected string
	}{
		{"allOf merges members", &model.Schema{AllOf: []*model.Schema{base, extra}}, `{"id":9,"kind":"extra","flag":true}`},
		{"allOf with own properties", &model.Schema{
			AllOf:      []*model.Schema{base},
			Properties: []model.Property{{Name: "own", Schema: &model.Schema{Type: model.TypeString}}},
		}, `{"id":9,"kind":"base","own":"lorem"}`},
		{"allOf of scalars", &model.Schema{AllOf: []*model.Schema{{Type: model.TypeString}}}, `"lorem"`},
		{"oneOf takes first", &model.Schema{OneOf: []*model.Schema{extra, base}}, `{"kind":"extra","flag":true}`},
		{"anyOf takes first", &model.Schema{AnyOf: []*model.Schema{{Type: model.TypeBoolean}, base}}, `true`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := New(stubProvider{}).Synthesize(tt.schema, nil, "")
			require.Equal(t, tt.expected, JSON(v, false))
		})
	}
}

func TestSynthesizeWithinBounds(t *testing.T) {
	g := New(NewFakerProvider(42, time.Second))
	schemas := []*model.Schema{
		{Type: model.TypeInteger, Minimum: ptr(-3.0), Maximum: ptr(3.0)},
		{Type: model.TypeInteger, Minimum: ptr(0.5), Maximum: ptr(1.5)},
		{Type: model.TypeNumber, Minimum: ptr(0.001), Maximum: ptr(0.009)},
		{Type: model.TypeNumber, Minimum: ptr(10.0), Maximum: ptr(10.25)},
		{Type: model.TypeInteger, Minimum: ptr(1e19), Maximum: ptr(2e19)},
		{Type: model.TypeInteger, Minimum: ptr(-2e19), Maximum: ptr(-1e19)},
		{Type: model.TypeInteger, Minimum: ptr(-1e19), Maximum: ptr(1e19)},
		{Type: model.TypeInteger, Minimum: ptr(9.3e18), Maximum: ptr(9.4e18)},
	}

	for _, s := range schemas {
		for range 200 {
			var f float64
			switch v := g.Synthesize(s, nil, "").(type) {
			case int64:
				f = float64(v)
			case float64:
				f = v
			default:
				t.Fatalf("unexpected value %T", v)
			}
			require.GreaterOrEqual(t, f, *s.Minimum)
			require.LessOrEqual(t, f, *s.Maximum)
		}
	}
}

func TestSynthesizeIntegerBeyondInt64(t *testing.T) {
	tests := []struct {
		name     string
		schema   *model.Schema
		expected any
	}{
		{"above range", &model.Schema{Type: model.TypeInteger, Minimum: ptr(1e19), Maximum: ptr(2e19)}, 2e19},
		{"below range", &model.Schema{Type: model.TypeInteger, Minimum: ptr(-2e19), Maximum: ptr(-1e19)}, -1e19},
		{"maximum clamped", &model.Schema{Type: model.TypeInteger, Minimum: ptr(0.0), Maximum: ptr(1e19)}, int64(maxInt64)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, New(stubProvider{}).Synthesize(tt.schema, nil, ""))
		})
	}
}

func TestText(t *testing.T) {
	obj := newObject()
	obj.Set("url", "https://example.com/?a=1&b=<2>")

	require.Equal(t, "", Text(nil, true))
	require.Equal(t, "plain", Text("plain", true))
	require.Equal(t, "{\n  \"url\": \"https://example.com/?a=1&b=<2>\"\n}", Text(obj, true))
	require.Equal(t, `"plain"`, JSON("plain", false))
}
