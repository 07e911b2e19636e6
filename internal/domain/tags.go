package domain

// Gender is the gender category a board file is filed under.
type Gender string

const (
	GenderMale        Gender = "male"
	GenderFemale      Gender = "female"
	GenderTransgender Gender = "transgender"
	GenderNonBinary   Gender = "non-binary"
	GenderTransman    Gender = "transman"
	GenderTranswoman  Gender = "transwoman"
)

// Genders lists every gender tag in canonical order.
var Genders = []Gender{
	GenderMale, GenderFemale, GenderTransgender,
	GenderNonBinary, GenderTransman, GenderTranswoman,
}

func (g Gender) String() string { return string(g) }

func (g Gender) IsValid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderTransgender, GenderNonBinary, GenderTransman, GenderTranswoman:
		return true
	}
	return false
}

// BoardCategory is the agency board a file belongs to.
type BoardCategory string

const (
	BoardBigAndTall  BoardCategory = "big_and_tall"
	BoardNewFace     BoardCategory = "a_new_face"
	BoardDevelopment BoardCategory = "development"
	BoardMainboard   BoardCategory = "mainboard"
	BoardCommercial  BoardCategory = "commercial"
	BoardCurve       BoardCategory = "curve"
	BoardPetite      BoardCategory = "petite"
	BoardFitness     BoardCategory = "fitness"
	BoardClassic     BoardCategory = "classic"
	BoardInfluencer  BoardCategory = "influencer"
	BoardDirect      BoardCategory = "direct"
)

// BoardCategories lists every board tag in inference precedence order.
var BoardCategories = []BoardCategory{
	BoardBigAndTall, BoardNewFace, BoardDevelopment, BoardMainboard,
	BoardCommercial, BoardCurve, BoardPetite, BoardFitness,
	BoardClassic, BoardInfluencer, BoardDirect,
}

func (b BoardCategory) String() string { return string(b) }

func (b BoardCategory) IsValid() bool {
	for _, c := range BoardCategories {
		if c == b {
			return true
		}
	}
	return false
}

func stringsOf[T ~string](in []T) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = string(v)
	}
	return out
}
