// Package mock synthesizes illustrative example values from schema graphs.
//
// Synthesis always terminates: every descent records the schema nodes it has
// entered, and re-entering one yields an empty object.
package mock

import (
	"math"
	"time"

	"github.com/kolah/piglet/internal/model"
)

const (
	defaultMinimum = 1.0
	defaultMaximum = 100.0
	// maxArrayItems caps minItems.
	maxArrayItems = 1024
	// maxStringSpan caps the random length range above the lower bound.
	maxStringSpan = 64

	minInt64 = float64(math.MinInt64)
	// maxInt64 is the largest float64 below 2^63.
	maxInt64 = float64(math.MaxInt64 - 1023)
)

// Visited is the set of schema nodes entered on the current descent.
type Visited map[*model.Schema]struct{}

func (v Visited) Clone() Visited {
	out := make(Visited, len(v))
	for k := range v {
		out[k] = struct{}{}
	}
	return out
}

// Generator turns schemas into example values using an injected Provider.
type Generator struct {
	rand Provider
}

func New(p Provider) *Generator {
	return &Generator{rand: p}
}

// Synthesize returns an example value for s. hint is the name of the field
// being synthesized and only steers file-kind selection. A nil visited set
// starts a fresh descent.
func (g *Generator) Synthesize(s *model.Schema, visited Visited, hint string) any {
	if s == nil {
		return nil
	}
	if visited == nil {
		visited = Visited{}
	}
	if _, seen := visited[s]; seen {
		return newObject()
	}
	visited[s] = struct{}{}

	if s.IsBinary() {
		return fileStub(s, hint)
	}

	switch {
	case s.Type == model.TypeString:
		return g.synthesizeString(s)
	case s.Type == model.TypeInteger:
		return g.synthesizeInteger(s)
	case s.Type == model.TypeNumber:
		return g.synthesizeNumber(s)
	case s.Type == model.TypeBoolean:
		return g.rand.Bool()
	case s.Type == model.TypeArray && s.Items != nil:
		return g.synthesizeArray(s, visited, hint)
	case len(s.Properties) > 0 || (s.Type == model.TypeObject && !s.HasComposition()):
		return g.synthesizeObject(s, visited)
	case len(s.AllOf) > 0:
		return g.synthesizeAllOf(s, visited, hint)
	case len(s.OneOf) > 0:
		return g.Synthesize(s.OneOf[0], visited, hint)
	case len(s.AnyOf) > 0:
		return g.Synthesize(s.AnyOf[0], visited, hint)
	}
	return nil
}

func (g *Generator) synthesizeString(s *model.Schema) any {
	if s.Pattern != "" {
		if v, err := g.rand.Pattern(s.Pattern); err == nil {
			return v
		}
		return g.rand.Word()
	}

	if s.MinLength != nil || s.MaxLength != nil {
		lo, hi := lengthBounds(s.MinLength, s.MaxLength)
		return g.rand.Alphanumeric(lo, hi)
	}

	switch s.Format {
	case "date-time":
		return g.rand.Date().UTC().Format(time.RFC3339)
	case "date":
		return g.rand.Date().UTC().Format(time.DateOnly)
	case "email":
		return g.rand.Email()
	case "uri", "url":
		return g.rand.URI()
	case "uuid":
		return g.rand.UUID()
	}

	if len(s.Enum) > 0 {
		return g.rand.Pick(s.Enum)
	}
	return g.rand.Word()
}

func lengthBounds(minLength, maxLength *int64) (int, int) {
	lo, hi := -1, -1
	if minLength != nil {
		lo = max(int(*minLength), 0)
	}
	if maxLength != nil {
		hi = max(int(*maxLength), 0)
	}
	switch {
	case lo < 0:
		lo = min(1, hi)
	case hi < 0:
		hi = lo + 10
	}
	if hi < lo {
		hi = lo
	}
	if hi-lo > maxStringSpan {
		hi = lo + maxStringSpan
	}
	return lo, hi
}

// numberBounds applies the [1, 100] defaults, shifting the defaulted side
// when only one bound is declared and it falls outside the default range.
func numberBounds(s *model.Schema) (float64, float64) {
	lo, hi := defaultMinimum, defaultMaximum
	if s.Minimum != nil {
		lo = *s.Minimum
	}
	if s.Maximum != nil {
		hi = *s.Maximum
	}
	if hi < lo {
		switch {
		case s.Maximum == nil:
			hi = lo + (defaultMaximum - defaultMinimum)
		case s.Minimum == nil:
			lo = hi - (defaultMaximum - defaultMinimum)
		default:
			hi = lo
		}
	}
	return lo, hi
}

func (g *Generator) synthesizeInteger(s *model.Schema) any {
	lo, hi := numberBounds(s)
	if lo > maxInt64 || hi < minInt64 {
		// Outside the int64 range; a whole float64 still satisfies the bounds.
		return math.Round(g.rand.Float(lo, hi))
	}
	ilo := math.Max(math.Ceil(lo), minInt64)
	ihi := math.Min(math.Floor(hi), maxInt64)
	if ilo > ihi {
		// No integer fits; the lower bound is the closest illustrative value.
		return int64(ilo)
	}
	return int64(g.rand.Int(int(ilo), int(ihi)))
}

func (g *Generator) synthesizeNumber(s *model.Schema) any {
	lo, hi := numberBounds(s)
	v := math.Round(g.rand.Float(lo, hi)*100) / 100
	if v < lo {
		v = math.Ceil(lo*100) / 100
	}
	if v > hi {
		v = math.Floor(hi*100) / 100
	}
	if v < lo || v > hi {
		v = lo
	}
	return v
}

func (g *Generator) synthesizeArray(s *model.Schema, visited Visited, hint string) any {
	n := 1
	if s.MinItems != nil {
		n = min(max(int(*s.MinItems), 0), maxArrayItems)
	}
	items := make([]any, n)
	for i := range items {
		items[i] = g.Synthesize(s.Items, visited.Clone(), hint)
	}
	return items
}

func (g *Generator) synthesizeObject(s *model.Schema, visited Visited) any {
	obj := newObject()
	if len(s.AllOf) > 0 {
		if merged, ok := g.synthesizeAllOf(s, visited, "").(*Object); ok {
			merge(obj, merged)
		}
	}
	for _, p := range s.Properties {
		obj.Set(p.Name, g.Synthesize(p.Schema, visited, p.Name))
	}
	return obj
}

// synthesizeAllOf merges the object members of s.AllOf. When no member
// yields an object, the first non-nil member value is returned instead.
func (g *Generator) synthesizeAllOf(s *model.Schema, visited Visited, hint string) any {
	merged := newObject()
	var fallback any
	objects := 0
	for _, member := range s.AllOf {
		v := g.Synthesize(member, visited.Clone(), hint)
		switch t := v.(type) {
		case *Object:
			merge(merged, t)
			objects++
		case nil:
		default:
			if fallback == nil {
				fallback = v
			}
		}
	}
	if objects == 0 && fallback != nil {
		return fallback
	}
	return merged
}
