// Package transform implements the closed set of value transforms a mapping
// can name. Transforms are identified by strings at the mapping boundary
// ("trim", "enum:a,b", "toUkShoeMin:female:eu") and parsed into a Transform
// value with explicit parameters before use.
package transform

import (
	"fmt"
	"strings"

	"github.com/heartmarshall/modelboard-ingest/internal/domain"
)

// Kind identifies a transform.
type Kind int

const (
	KindTrim Kind = iota + 1
	KindLowercase
	KindUppercase
	KindParseNumber
	KindCentimeters
	KindGender
	KindEnum
	KindShoeMin
	KindShoeMax
	KindSplitList
)

var kindNames = map[Kind]string{
	KindTrim:        "trim",
	KindLowercase:   "lowercase",
	KindUppercase:   "uppercase",
	KindParseNumber: "parseNumber",
	KindCentimeters: "toCentimeters",
	KindGender:      "normalizeGender",
	KindEnum:        "enum",
	KindShoeMin:     "toUkShoeMin",
	KindShoeMax:     "toUkShoeMax",
	KindSplitList:   "splitList",
}

var kindsByName = func() map[string]Kind {
	m := make(map[string]Kind, len(kindNames))
	for k, name := range kindNames {
		m[strings.ToLower(name)] = k
	}
	return m
}()

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// IsShoe reports whether k is one of the UK shoe size transforms.
func (k Kind) IsShoe() bool { return k == KindShoeMin || k == KindShoeMax }

// IsNumeric reports whether k produces a number or nil.
func (k Kind) IsNumeric() bool {
	return k == KindParseNumber || k == KindCentimeters || k.IsShoe()
}

// ShoeUnit is the size system of a bare shoe number.
type ShoeUnit string

const (
	UnitNone ShoeUnit = ""
	UnitUK   ShoeUnit = "uk"
	UnitEU   ShoeUnit = "eu"
	UnitUS   ShoeUnit = "us"
)

func parseUnit(s string) (ShoeUnit, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return UnitNone, true
	case "uk", "gb":
		return UnitUK, true
	case "eu", "eur", "euro":
		return UnitEU, true
	case "us", "usa":
		return UnitUS, true
	}
	return UnitNone, false
}

// Transform is a parsed transform identifier.
type Transform struct {
	Kind Kind
	// Choices holds the canonical values of an enum transform.
	Choices []string
	// Gender and Unit parametrize the shoe size transforms. An empty
	// Gender means unknown.
	Gender domain.Gender
	Unit   ShoeUnit
}

// Parse turns a transform identifier into a Transform. Names are matched
// case-insensitively.
func Parse(id string) (Transform, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Transform{}, fmt.Errorf("empty transform")
	}

	name, rest, hasParams := strings.Cut(id, ":")
	kind, ok := kindsByName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Transform{}, fmt.Errorf("unknown transform %q", name)
	}

	t := Transform{Kind: kind}
	switch {
	case kind == KindEnum:
		if !hasParams {
			return Transform{}, fmt.Errorf("enum transform needs a choice list")
		}
		for _, c := range strings.Split(rest, ",") {
			if c = strings.TrimSpace(c); c != "" {
				t.Choices = append(t.Choices, c)
			}
		}
		if len(t.Choices) == 0 {
			return Transform{}, fmt.Errorf("enum transform needs a choice list")
		}
	case kind.IsShoe():
		if !hasParams {
			break
		}
		genderPart, unitPart, _ := strings.Cut(rest, ":")
		t.Gender = shoeGender(genderPart)
		unit, ok := parseUnit(unitPart)
		if !ok {
			return Transform{}, fmt.Errorf("unknown shoe unit %q", unitPart)
		}
		t.Unit = unit
	case hasParams:
		return Transform{}, fmt.Errorf("transform %q takes no parameters", name)
	}
	return t, nil
}

func shoeGender(s string) domain.Gender {
	g := domain.Gender(strings.ToLower(strings.TrimSpace(s)))
	if g.IsValid() {
		return g
	}
	return ""
}

// String returns the identifier form, so Parse(t.String()) == t.
func (t Transform) String() string {
	name := t.Kind.String()
	switch {
	case t.Kind == KindEnum:
		return name + ":" + strings.Join(t.Choices, ",")
	case t.Kind.IsShoe():
		switch {
		case t.Unit != UnitNone:
			return name + ":" + string(t.Gender) + ":" + string(t.Unit)
		case t.Gender != "":
			return name + ":" + string(t.Gender)
		}
	}
	return name
}

type applyFunc func(t Transform, v any) any

var dispatch = map[Kind]applyFunc{
	KindTrim:        func(_ Transform, v any) any { return mapString(v, strings.TrimSpace) },
	KindLowercase:   func(_ Transform, v any) any { return mapString(v, strings.ToLower) },
	KindUppercase:   func(_ Transform, v any) any { return mapString(v, strings.ToUpper) },
	KindParseNumber: func(_ Transform, v any) any { return ParseNumber(v) },
	KindCentimeters: func(_ Transform, v any) any { return ToCentimeters(v) },
	KindGender:      func(_ Transform, v any) any { return NormalizeGender(v) },
	KindEnum:        func(t Transform, v any) any { return EnumSanitize(v, t.Choices) },
	KindShoeMin:     func(t Transform, v any) any { return ToUKShoe(v, t.Gender, t.Unit, false) },
	KindShoeMax:     func(t Transform, v any) any { return ToUKShoe(v, t.Gender, t.Unit, true) },
	KindSplitList:   func(_ Transform, v any) any { return SplitList(v) },
}

// Apply runs the transform. Unknown kinds pass the value through.
func (t Transform) Apply(v any) any {
	fn, ok := dispatch[t.Kind]
	if !ok {
		return v
	}
	return fn(t, v)
}

// Apply parses id and applies it to v.
func Apply(v any, id string) (any, error) {
	t, err := Parse(id)
	if err != nil {
		return nil, err
	}
	return t.Apply(v), nil
}

func mapString(v any, fn func(string) string) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	return fn(s)
}

// asText returns v as a trimmed string. Numbers are formatted; nil and
// unsupported types report false.
func asText(v any) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "", false
	case string:
		x = strings.TrimSpace(x)
		return x, x != ""
	case float64, float32, int, int64, int32:
		return fmt.Sprint(x), true
	}
	return "", false
}
