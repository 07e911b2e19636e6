package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/heartmarshall/modelboard-ingest/internal/domain"
)

type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func writeJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// fail prints err as a failure envelope and returns it so the process
// exits non-zero.
func fail(err error) error {
	out := envelope{Message: err.Error()}

	var shape *domain.MappingShapeError
	var conflict *domain.ConflictError
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &shape):
		out.Data = map[string]string{"reason": fmt.Sprint(shape.Reason), "snippet": shape.Snippet}
	case errors.As(err, &conflict):
		out.Data = map[string]any{"sourceId": conflict.SourceID, "existing": conflict.Existing}
	case errors.As(err, &verr):
		out.Data = map[string]any{"fields": verr.Errors}
	}
	_ = writeJSON(out)
	return err
}
