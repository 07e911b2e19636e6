package transform

import (
	"testing"

	"github.com/heartmarshall/modelboard-ingest/internal/domain"
)

func TestEnumSanitize(t *testing.T) {
	tests := []struct {
		in   any
		want any
	}{
		{"Dark Blond", "dark_blonde"},
		{"dark-blonde", "dark_blonde"},
		{"DARKBLOND", "dark_blonde"},
		{"blond", "blonde"},
		{"Gray", "grey"},
		{"Strawberry Blond", "strawberry_blonde"},
		{" light brown ", "light_brown"},
		{"purple", nil},
		{"", nil},
		{nil, nil},
	}
	for _, tt := range tests {
		if got := EnumSanitize(tt.in, domain.HairColours); got != tt.want {
			t.Errorf("EnumSanitize(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestEnumSanitize_TotalOverAliases(t *testing.T) {
	for _, choices := range [][]string{domain.HairColours, domain.EyeColours} {
		for _, choice := range choices {
			for _, alias := range EnumAliases(choice) {
				if got := EnumSanitize(alias, choices); got != choice {
					t.Errorf("EnumSanitize(%q) = %v, want %q", alias, got, choice)
				}
			}
		}
	}
}

func TestEnumAliases(t *testing.T) {
	want := map[string]bool{
		"dark_blonde": true, "dark_blond": true,
		"darkblonde": true, "darkblond": true,
	}
	got := EnumAliases("dark_blonde")
	if len(got) != len(want) {
		t.Fatalf("EnumAliases = %v", got)
	}
	for _, a := range got {
		if !want[a] {
			t.Errorf("unexpected alias %q", a)
		}
	}
}

func TestEnumSanitize_EarlierChoiceWins(t *testing.T) {
	if got := EnumSanitize("gray", []string{"grey", "gray"}); got != "grey" {
		t.Errorf("EnumSanitize = %v, want grey", got)
	}
}
