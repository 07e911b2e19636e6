package domain

import "sort"

// FieldType is the value type of a target column.
type FieldType string

const (
	FieldText    FieldType = "text"
	FieldNumeric FieldType = "numeric"
	FieldURL     FieldType = "url"
	FieldEnum    FieldType = "enum"
	FieldArray   FieldType = "array"
)

// ShoeBound marks a column holding one end of a UK shoe size range.
type ShoeBound int

const (
	ShoeNone ShoeBound = iota
	ShoeMin
	ShoeMax
)

// FieldDescriptor describes one target column. Descriptors are used to
// prompt the mapping proposer and to pick default transforms.
type FieldDescriptor struct {
	Type        FieldType `json:"type"`
	Values      []string  `json:"values,omitempty"`
	Description string    `json:"description"`

	Length bool      `json:"-"`
	Shoe   ShoeBound `json:"-"`
}

// Target tables.
const (
	TableModels   = "models"
	TableMedia    = "model_media"
	TableAgencies = "model_agencies"
)

// Columns of the models table referenced by code.
const (
	ColName                  = "name"
	ColInstagram             = "instagram_handle"
	ColGender                = "gender"
	ColBoardCategory         = "model_board_category"
	ColDataSource            = "data_source"
	ColRecommendationUpdated = "recommendation_updated"
	ColMediaLink             = "link"
)

// MediaLinkKey is the only key allowed in Mapping.MediaMappings.
const MediaLinkKey = TableMedia + "." + ColMediaLink

// HairColours is the closed set of hair colour values.
var HairColours = []string{
	"black", "dark_brown", "brown", "light_brown", "dark_blonde", "blonde",
	"light_blonde", "strawberry_blonde", "red", "auburn", "grey", "white",
	"bald", "other",
}

// EyeColours is the closed set of eye colour values.
var EyeColours = []string{"blue", "green", "brown", "hazel", "grey", "black", "other"}

var modelFields = map[string]FieldDescriptor{
	ColName:               {Type: FieldText, Description: "Full name of the model"},
	ColInstagram:          {Type: FieldText, Description: "Instagram handle or profile URL"},
	"email":               {Type: FieldText, Description: "Contact email address"},
	"phone":               {Type: FieldText, Description: "Contact phone number"},
	"city":                {Type: FieldText, Description: "City the model is based in"},
	"nationality":         {Type: FieldText, Description: "Nationality"},
	"date_of_birth":       {Type: FieldText, Description: "Date of birth as written in the source"},
	"portfolio_url":       {Type: FieldURL, Description: "Link to the agency portfolio page"},
	"instagram_followers": {Type: FieldNumeric, Description: "Instagram follower count"},
	"height":              {Type: FieldNumeric, Description: "Height in centimeters", Length: true},
	"bust":                {Type: FieldNumeric, Description: "Bust or chest in centimeters", Length: true},
	"waist":               {Type: FieldNumeric, Description: "Waist in centimeters", Length: true},
	"hips":                {Type: FieldNumeric, Description: "Hips in centimeters", Length: true},
	"inside_leg":          {Type: FieldNumeric, Description: "Inside leg in centimeters", Length: true},
	"shoe_size":           {Type: FieldNumeric, Description: "Shoe size on the UK size scale (lower bound of a range)", Shoe: ShoeMin},
	"shoe_size_max":       {Type: FieldNumeric, Description: "Shoe size on the UK size scale (upper bound of a range)", Shoe: ShoeMax},
	"hair_colour":         {Type: FieldEnum, Values: HairColours, Description: "Hair colour"},
	"eye_colour":          {Type: FieldEnum, Values: EyeColours, Description: "Eye colour"},
	"skills":              {Type: FieldArray, Description: "Skills, sports or special talents"},
}

var mediaFields = map[string]FieldDescriptor{
	ColMediaLink: {Type: FieldURL, Description: "Image or video URL; a cell may contain several"},
}

// systemFields are written by the system and never accepted from a mapping.
var systemFields = map[string]bool{
	ColGender:                true,
	ColBoardCategory:         true,
	ColDataSource:            true,
	ColRecommendationUpdated: true,
}

var reservedFields = map[string]bool{
	"id":         true,
	"model_id":   true,
	"created_at": true,
	"updated_at": true,
}

// LookupField returns the descriptor of a mappable column.
func LookupField(table, column string) (FieldDescriptor, bool) {
	var fields map[string]FieldDescriptor
	switch table {
	case TableModels:
		fields = modelFields
	case TableMedia:
		fields = mediaFields
	default:
		return FieldDescriptor{}, false
	}
	d, ok := fields[column]
	return d, ok
}

// IsKnownTable reports whether table can appear in a mapping.
func IsKnownTable(table string) bool {
	return table == TableModels || table == TableMedia
}

// IsSystemField reports whether column is controlled by the system.
func IsSystemField(column string) bool { return systemFields[column] }

// IsReservedField reports whether column is managed by the store.
func IsReservedField(column string) bool { return reservedFields[column] }

// Descriptors returns the mappable columns of every target table, keyed by
// table then column. The returned maps are copies.
func Descriptors() map[string]map[string]FieldDescriptor {
	out := map[string]map[string]FieldDescriptor{
		TableModels: make(map[string]FieldDescriptor, len(modelFields)),
		TableMedia:  make(map[string]FieldDescriptor, len(mediaFields)),
	}
	for k, v := range modelFields {
		out[TableModels][k] = v
	}
	for k, v := range mediaFields {
		out[TableMedia][k] = v
	}
	return out
}

// ModelColumns returns the mappable models columns in sorted order.
func ModelColumns() []string {
	cols := make([]string, 0, len(modelFields))
	for k := range modelFields {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols
}

// GenderValues and BoardValues expose the tag sets as plain strings.
func GenderValues() []string { return stringsOf(Genders) }

func BoardValues() []string { return stringsOf(BoardCategories) }
