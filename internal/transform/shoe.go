package transform

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/heartmarshall/modelboard-ingest/internal/domain"
)

type shoeOffsets struct{ eu, us float64 }

var (
	femaleOffsets  = shoeOffsets{eu: 33, us: 2}
	maleOffsets    = shoeOffsets{eu: 34, us: 1}
	unknownOffsets = shoeOffsets{
		eu: (femaleOffsets.eu + maleOffsets.eu) / 2,
		us: (femaleOffsets.us + maleOffsets.us) / 2,
	}
)

func offsetsFor(g domain.Gender) shoeOffsets {
	switch g {
	case domain.GenderFemale:
		return femaleOffsets
	case domain.GenderMale:
		return maleOffsets
	}
	return unknownOffsets
}

var shoeToken = regexp.MustCompile(`[a-z]+|\d+(?:\.\d+)?`)

type shoeValue struct {
	n    float64
	unit ShoeUnit
}

// ToUKShoe converts a shoe size cell to UK sizes and returns the minimum
// (or maximum when upper is set) of the values found. Explicit UK values are
// preferred verbatim; otherwise EU and US values are converted with
// gender-dependent offsets. Bare numbers use the unit hint, UK by default.
func ToUKShoe(v any, gender domain.Gender, hint ShoeUnit, upper bool) any {
	s, ok := asText(v)
	if !ok {
		return nil
	}
	values := scanShoeValues(strings.ToLower(normalizeMarks(s)))
	if len(values) == 0 {
		return nil
	}

	if hint == UnitNone {
		hint = UnitUK
	}
	offsets := offsetsFor(gender)

	var uk, converted []float64
	for _, sv := range values {
		unit := sv.unit
		if unit == UnitNone {
			unit = hint
		}
		switch unit {
		case UnitUK:
			uk = append(uk, sv.n)
		case UnitEU:
			converted = append(converted, sv.n-offsets.eu)
		case UnitUS:
			converted = append(converted, sv.n-offsets.us)
		}
	}

	set := uk
	if len(set) == 0 {
		set = converted
	}
	out := set[0]
	for _, n := range set[1:] {
		if (upper && n > out) || (!upper && n < out) {
			out = n
		}
	}
	if out <= 0 {
		return nil
	}
	return out
}

func isShoeSeparator(r rune) bool {
	switch r {
	case '/', '\\', '|', ';', ',', '(', ')':
		return true
	}
	return false
}

// scanShoeValues splits the cell at separators ("7 / EU 41") and scans each
// part on its own, so a unit marker never reaches across a separator.
func scanShoeValues(s string) []shoeValue {
	var out []shoeValue
	for _, part := range strings.FieldsFunc(s, isShoeSeparator) {
		out = append(out, scanShoePart(part)...)
	}
	return out
}

// scanShoePart pairs each number with the unit marker adjacent to it. When
// the part starts with a marker, markers prefix their numbers ("EU 40-41");
// otherwise they follow them ("7 UK 40 EU"). A run of numbers without a
// marker on the preferred side takes the marker on the other side, if any.
func scanShoePart(s string) []shoeValue {
	type token struct {
		unit   ShoeUnit
		n      float64
		number bool
	}
	var tokens []token
	for _, raw := range shoeToken.FindAllString(s, -1) {
		if raw[0] >= '0' && raw[0] <= '9' {
			n, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				continue
			}
			tokens = append(tokens, token{n: n, number: true})
			continue
		}
		if unit, ok := parseUnit(raw); ok && unit != UnitNone {
			tokens = append(tokens, token{unit: unit})
		}
	}
	if len(tokens) == 0 {
		return nil
	}
	prefix := !tokens[0].number

	var out []shoeValue
	for i := 0; i < len(tokens); {
		if !tokens[i].number {
			i++
			continue
		}
		j := i
		for j < len(tokens) && tokens[j].number {
			j++
		}
		var before, after ShoeUnit
		if i > 0 {
			before = tokens[i-1].unit
		}
		if j < len(tokens) {
			after = tokens[j].unit
		}
		unit := after
		if prefix || unit == UnitNone {
			unit = before
		}
		if unit == UnitNone {
			unit = after
		}
		for _, t := range tokens[i:j] {
			out = append(out, shoeValue{n: t.n, unit: unit})
		}
		i = j
	}
	return out
}
