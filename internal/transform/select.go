package transform

import (
	"slices"

	"github.com/heartmarshall/modelboard-ingest/internal/domain"
)

// UnitFromHeader reads a shoe size system out of a source column header,
// e.g. "Shoe (EU)" -> eu. Returns UnitNone when the header names none.
func UnitFromHeader(header string) ShoeUnit {
	for _, tok := range domain.Tokens(header) {
		if unit, ok := parseUnit(tok); ok && unit != UnitNone {
			return unit
		}
	}
	return UnitNone
}

// Select picks the transform applied to a target column. The schema wins
// over the mapping where they disagree:
//   - length columns always use toCentimeters
//   - enum columns always canonicalize against the column values; an enum
//     transform from the mapping may narrow the choices, never extend them
//   - shoe columns use the shoe transform unless the mapping requests a
//     different numeric transform; gender always comes from the upload context
//   - other numeric columns ignore a requested text transform and parse
//     numbers
//   - otherwise the requested transform, or a default for the column type
//
// requested may be empty. sourceHeader is the header the value was read
// from and feeds the shoe unit hint.
func Select(desc domain.FieldDescriptor, requested string, gender domain.Gender, sourceHeader string) (Transform, error) {
	var req *Transform
	if requested != "" {
		t, err := Parse(requested)
		if err != nil {
			return Transform{}, err
		}
		req = &t
	}
	if req != nil && desc.Type == domain.FieldNumeric && !req.Kind.IsNumeric() {
		req = nil
	}

	switch {
	case desc.Length:
		return Transform{Kind: KindCentimeters}, nil

	case desc.Type == domain.FieldEnum:
		choices := desc.Values
		if req != nil && req.Kind == KindEnum {
			if narrowed := intersect(req.Choices, desc.Values); len(narrowed) > 0 {
				choices = narrowed
			}
		}
		return Transform{Kind: KindEnum, Choices: choices}, nil

	case desc.Shoe != domain.ShoeNone:
		if req != nil && !req.Kind.IsShoe() {
			// parseNumber or toCentimeters
			return *req, nil
		}
		t := Transform{Kind: KindShoeMin}
		if desc.Shoe == domain.ShoeMax {
			t.Kind = KindShoeMax
		}
		if req != nil {
			t.Kind = req.Kind
			t.Unit = req.Unit
		}
		if t.Unit == UnitNone {
			t.Unit = UnitFromHeader(sourceHeader)
		}
		t.Gender = gender
		return t, nil
	}

	if req != nil {
		return *req, nil
	}
	switch desc.Type {
	case domain.FieldNumeric:
		return Transform{Kind: KindParseNumber}, nil
	case domain.FieldArray:
		return Transform{Kind: KindSplitList}, nil
	default:
		return Transform{Kind: KindTrim}, nil
	}
}

func intersect(requested, allowed []string) []string {
	var out []string
	for _, c := range requested {
		if slices.Contains(allowed, c) && !slices.Contains(out, c) {
			out = append(out, c)
		}
	}
	return out
}
