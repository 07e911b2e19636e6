package inference

import (
	"strings"

	"github.com/heartmarshall/modelboard-ingest/internal/domain"
)

// SourceID returns the stable source identifier for an upload: the
// filename stem, lowercased, with separator runs collapsed to "_".
func SourceID(filename string) string {
	return domain.NormalizeKey(stem(filename))
}

// ParseGender accepts a canonical gender tag as submitted by a client,
// tolerating case and "_"/" " in place of "-".
func ParseGender(s string) (domain.Gender, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer("_", "-", " ", "-").Replace(s)
	g := domain.Gender(s)
	return g, g.IsValid()
}

// InferContext derives the context of an upload. A non-empty override wins
// over filename inference. A missing gender is a user input error: callers
// must ask for a selection rather than default.
func InferContext(filename, genderOverride string) (domain.InferredContext, error) {
	sourceID := SourceID(filename)
	if sourceID == "" {
		return domain.InferredContext{}, domain.UserInputError("a filename is required")
	}

	var gender domain.Gender
	if strings.TrimSpace(genderOverride) != "" {
		g, ok := ParseGender(genderOverride)
		if !ok {
			return domain.InferredContext{}, domain.UserInputError("unknown gender %q", genderOverride)
		}
		gender = g
	} else {
		g := InferGender(filename)
		if g == nil {
			return domain.InferredContext{}, domain.UserInputError(
				"could not infer gender from %q; select one of %s",
				filename, strings.Join(domain.GenderValues(), ", "))
		}
		gender = *g
	}

	return domain.InferredContext{
		Gender:        gender,
		BoardCategory: InferBoardCategory(filename),
		SourceID:      sourceID,
	}, nil
}
