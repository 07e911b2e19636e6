package transform

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

var (
	nonNumeric   = regexp.MustCompile(`[^0-9.\-]`)
	leadingFloat = regexp.MustCompile(`^[-+]?(\d+\.?\d*|\.\d+)`)
	decimalComma = regexp.MustCompile(`(\d),(\d)`)

	cmPattern     = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:cms?|centimet(?:er|re)s?)\b`)
	feetPattern   = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:'|ft\b|feet\b|foot\b)\s*(?:(\d+(?:\.\d+)?)\s*(?:"|in\b|inch(?:es)?\b)?)?`)
	inchesPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:"|in\b|inch(?:es)?\b)`)
)

var vulgarFractions = map[rune]string{
	'¼': "25", '½': "5", '¾': "75",
	'⅓': "333", '⅔': "667",
	'⅕': "2", '⅖': "4", '⅗': "6", '⅘': "8",
	'⅛': "125", '⅜': "375", '⅝': "625", '⅞': "875",
}

var primeReplacer = strings.NewReplacer(
	"′", "'", "’", "'", "‘", "'", "´", "'", "`", "'",
	"″", `"`, "“", `"`, "”", `"`,
)

// normalizeMarks rewrites unicode fractions as decimals ("7½" -> "7.5",
// "½" -> "0.5"), unicode primes and quotes as ASCII ' and ", and decimal
// commas as dots.
func normalizeMarks(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 4)
	for _, r := range s {
		digits, ok := vulgarFractions[r]
		if !ok {
			b.WriteRune(r)
			continue
		}
		out := b.String()
		trimmed := strings.TrimRight(out, " ")
		if trimmed != "" && unicode.IsDigit(rune(trimmed[len(trimmed)-1])) {
			b.Reset()
			b.WriteString(trimmed)
			b.WriteString("." + digits)
		} else {
			b.WriteString("0." + digits)
		}
	}
	out := strings.ReplaceAll(primeReplacer.Replace(b.String()), "''", `"`)
	return decimalComma.ReplaceAllString(out, "$1.$2")
}

// ParseNumber strips everything except digits, '.' and '-' and parses the
// leading float of what remains. Returns nil for empty or unparseable input.
func ParseNumber(v any) any {
	switch x := v.(type) {
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil
		}
		return x
	case int:
		return float64(x)
	case int64:
		return float64(x)
	}
	s, ok := asText(v)
	if !ok {
		return nil
	}
	f, ok := leadingNumber(nonNumeric.ReplaceAllString(s, ""))
	if !ok {
		return nil
	}
	return f
}

func leadingNumber(s string) (float64, bool) {
	m := leadingFloat.FindString(s)
	if m == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// ToCentimeters parses a human-written length and returns whole centimeters.
// Precedence: explicit cm, feet and inches, bare inches, then the bare
// number taken as centimeters.
func ToCentimeters(v any) any {
	if f, ok := v.(float64); ok {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil
		}
		return math.Round(f)
	}
	s, ok := asText(v)
	if !ok {
		return nil
	}
	s = strings.ToLower(normalizeMarks(s))

	if m := cmPattern.FindStringSubmatch(s); m != nil {
		cm, _ := strconv.ParseFloat(m[1], 64)
		return math.Round(cm)
	}
	if m := feetPattern.FindStringSubmatch(s); m != nil {
		ft, _ := strconv.ParseFloat(m[1], 64)
		var in float64
		if m[2] != "" {
			in, _ = strconv.ParseFloat(m[2], 64)
		}
		return math.Round((ft*12 + in) * 2.54)
	}
	if m := inchesPattern.FindStringSubmatch(s); m != nil {
		in, _ := strconv.ParseFloat(m[1], 64)
		return math.Round(in * 2.54)
	}

	f, ok := leadingNumber(nonNumeric.ReplaceAllString(s, ""))
	if !ok {
		return nil
	}
	return math.Round(f)
}
