package proposer

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/heartmarshall/modelboard-ingest/internal/domain"
)

// SystemPrompt is sent as the system message on every call.
const SystemPrompt = `You map spreadsheet columns of talent agency "model" records onto a fixed database schema.

Output ONLY one JSON object with this exact shape:
{
  "targetTables": ["models", "model_media"],
  "fieldMappings": {
    "models.<column>": {"from": "<source header>" | ["<header>", "<fallback header>"], "transform": "<optional>", "default": <optional>}
  },
  "mediaMappings": {
    "model_media.link": {"from": ["<header with image or video URLs>"]}
  },
  "notes": "<short rationale>"
}

Rules:
- Keys of fieldMappings are "models.<column>" using only the columns listed in the schema.
- "from" names headers exactly as they appear in the sheet; list fallbacks in priority order.
- Never map gender, model_board_category, data_source, recommendation_updated, id or created_at. They are set by the system.
- Omit "transform" for length, shoe size and enum columns; they are converted automatically.
- Other transforms: trim, lowercase, uppercase, parseNumber, normalizeGender, splitList.
- Map every column that clearly has a home; skip columns that do not.
- mediaMappings may only contain "model_media.link". A cell may hold several URLs.
- When a previous mapping and feedback are given, change only what the feedback asks for.
- No markdown, no explanations outside the JSON.`

type promptPayload struct {
	Filename string                                       `json:"filename"`
	Context  promptContext                                `json:"context"`
	Schema   map[string]map[string]domain.FieldDescriptor `json:"schema"`
	Headers  []string                                     `json:"headers"`
	Sample   []map[string]string                          `json:"sampleRows"`
}

type promptContext struct {
	Gender        string `json:"gender"`
	BoardCategory string `json:"boardCategory,omitempty"`
}

// BuildUserPrompt renders the per-request part of the prompt.
func BuildUserPrompt(req Request) (string, error) {
	payload := promptPayload{
		Filename: req.Filename,
		Context: promptContext{
			Gender:        string(req.Context.Gender),
			BoardCategory: req.Context.Board(),
		},
		Schema:  req.Descriptors,
		Headers: req.Headers,
		Sample:  make([]map[string]string, 0, len(req.Sample)),
	}
	for _, row := range req.Sample {
		payload.Sample = append(payload.Sample, row.Values)
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal prompt payload: %w", err)
	}

	var b strings.Builder
	b.WriteString("Propose a mapping for this sheet.\n\n")
	b.Write(data)

	if req.Previous != nil {
		prev, err := json.MarshalIndent(req.Previous, "", "  ")
		if err != nil {
			return "", fmt.Errorf("marshal previous mapping: %w", err)
		}
		b.WriteString("\n\nPrevious mapping:\n")
		b.Write(prev)
	}
	if fb := strings.TrimSpace(req.Feedback); fb != "" {
		b.WriteString("\n\nReviewer feedback:\n")
		b.WriteString(fb)
	}
	return b.String(), nil
}
