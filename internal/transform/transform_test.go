package transform

import (
	"reflect"
	"testing"
)

func TestParse_RoundTrip(t *testing.T) {
	ids := []string{
		"trim", "lowercase", "uppercase", "parseNumber", "toCentimeters",
		"normalizeGender", "splitList", "enum:black,brown",
		"toUkShoeMin", "toUkShoeMax:female", "toUkShoeMin:male:eu", "toUkShoeMax::us",
	}
	for _, id := range ids {
		tr, err := Parse(id)
		if err != nil {
			t.Errorf("Parse(%q) unexpected error: %v", id, err)
			continue
		}
		if got := tr.String(); got != id {
			t.Errorf("Parse(%q).String() = %q", id, got)
		}
	}
}

func TestParse_Normalizes(t *testing.T) {
	tr, err := Parse(" TRIM ")
	if err != nil || tr.Kind != KindTrim {
		t.Fatalf("Parse(TRIM) = %+v, %v", tr, err)
	}

	tr, err = Parse("enum: blonde , , red")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(tr.Choices, []string{"blonde", "red"}) {
		t.Errorf("choices = %v", tr.Choices)
	}

	tr, err = Parse("toUkShoeMin:robot:EUR")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tr.Gender != "" || tr.Unit != UnitEU {
		t.Errorf("shoe params = %q/%q, want unknown/eu", tr.Gender, tr.Unit)
	}
}

func TestParse_Errors(t *testing.T) {
	for _, id := range []string{"", "bogus", "enum", "enum:", "enum: , ", "trim:x", "toUkShoeMax:female:mars"} {
		if _, err := Parse(id); err == nil {
			t.Errorf("Parse(%q) expected error", id)
		}
	}
}

func TestApply_TextPassThrough(t *testing.T) {
	got, err := Apply("  Jane ", "trim")
	if err != nil || got != "Jane" {
		t.Errorf("trim = %v, %v", got, err)
	}
	got, _ = Apply("Jane", "uppercase")
	if got != "JANE" {
		t.Errorf("uppercase = %v", got)
	}
	got, _ = Apply(42.0, "lowercase")
	if got != 42.0 {
		t.Errorf("lowercase on a number should pass through, got %v", got)
	}
	got, _ = Apply(nil, "trim")
	if got != nil {
		t.Errorf("trim(nil) = %v, want nil", got)
	}
}

func TestApply_UnknownTransform(t *testing.T) {
	if _, err := Apply("x", "reverse"); err == nil {
		t.Fatal("expected error for unknown transform")
	}
}

func TestNormalizeGender(t *testing.T) {
	tests := []struct {
		in   any
		want any
	}{
		{"M", "male"},
		{"man", "male"},
		{"F", "female"},
		{"Woman", "female"},
		{"trans", "transgender"},
		{"Non-Binary", "non-binary"},
		{"nb", "non-binary"},
		{"Trans Man", "transman"},
		{"transwoman", "transwoman"},
		{"robot", nil},
		{"", nil},
		{nil, nil},
	}
	for _, tt := range tests {
		if got := NormalizeGender(tt.in); got != tt.want {
			t.Errorf("NormalizeGender(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSplitList(t *testing.T) {
	got := SplitList("Swimming; tennis | Dance,  swimming ,")
	want := []string{"Swimming", "tennis", "Dance"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SplitList = %v, want %v", got, want)
	}
	if got := SplitList(" ; "); got != nil {
		t.Errorf("SplitList(empty) = %v, want nil", got)
	}
}

func TestUnitFromHeader(t *testing.T) {
	tests := []struct {
		header string
		want   ShoeUnit
	}{
		{"Shoe(EU)", UnitEU},
		{"Shoe Size UK", UnitUK},
		{"shoe_us", UnitUS},
		{"Shoe", UnitNone},
		{"Shoes (Euro)", UnitEU},
		{"Schuhgröße EU", UnitEU},
	}
	for _, tt := range tests {
		if got := UnitFromHeader(tt.header); got != tt.want {
			t.Errorf("UnitFromHeader(%q) = %q, want %q", tt.header, got, tt.want)
		}
	}
}

func TestKindString(t *testing.T) {
	if KindCentimeters.String() != "toCentimeters" {
		t.Errorf("KindCentimeters.String() = %q", KindCentimeters.String())
	}
	if Kind(99).String() != "Kind(99)" {
		t.Errorf("Kind(99).String() = %q", Kind(99).String())
	}
}
