package mappingparser

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/heartmarshall/modelboard-ingest/internal/domain"
	"github.com/heartmarshall/modelboard-ingest/internal/transform"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

var errNoObject = errors.New("no JSON object found in proposer output")

// Extract recovers a mapping from proposer output. Failures are returned
// as *domain.MappingShapeError carrying the offending text.
func Extract(raw string) (domain.Mapping, error) {
	obj, text, ok := parseObject(raw)
	if !ok {
		return domain.Mapping{}, domain.NewMappingShapeError(raw, errNoObject)
	}

	m := coerce(obj)
	if err := Validate(m); err != nil {
		return domain.Mapping{}, domain.NewMappingShapeError(text, err)
	}
	return m, nil
}

// Validate checks a mapping against the target schema. It is applied to
// every mapping before use, including ones sent back by clients.
func Validate(m domain.Mapping) error {
	var errs []domain.FieldError

	if err := validate.Struct(m); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("validate mapping: %w", err)
		}
		for _, fe := range verrs {
			errs = append(errs, domain.FieldError{
				Field:   fe.Namespace(),
				Message: fmt.Sprintf("failed %q", fe.Tag()),
			})
		}
	}

	for _, t := range m.TargetTables {
		if !domain.IsKnownTable(t) {
			errs = append(errs, domain.FieldError{Field: "targetTables", Message: fmt.Sprintf("unknown table %q", t)})
		}
	}

	for _, key := range m.FieldKeys() {
		errs = append(errs, checkFieldKey(key, m.FieldMappings[key])...)
	}

	for key, spec := range m.MediaMappings {
		if key != domain.MediaLinkKey {
			errs = append(errs, domain.FieldError{Field: "mediaMappings." + key, Message: "only " + domain.MediaLinkKey + " is allowed"})
			continue
		}
		if len(spec.From) == 0 {
			errs = append(errs, domain.FieldError{Field: "mediaMappings." + key, Message: "from is required"})
		}
	}

	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}

func checkFieldKey(key string, spec domain.FieldSpec) []domain.FieldError {
	field := "fieldMappings." + key
	table, column, ok := domain.SplitKey(key)
	switch {
	case !ok:
		return []domain.FieldError{{Field: field, Message: "key must be table.column"}}
	case table != domain.TableModels:
		return []domain.FieldError{{Field: field, Message: fmt.Sprintf("table %q cannot be mapped here", table)}}
	case domain.IsSystemField(column):
		return []domain.FieldError{{Field: field, Message: "system field is set automatically"}}
	case domain.IsReservedField(column):
		return []domain.FieldError{{Field: field, Message: "reserved field"}}
	}
	if _, ok := domain.LookupField(table, column); !ok {
		return []domain.FieldError{{Field: field, Message: fmt.Sprintf("unknown column %q", column)}}
	}

	var errs []domain.FieldError
	if len(spec.From) == 0 && spec.Default == nil {
		errs = append(errs, domain.FieldError{Field: field, Message: "needs from or default"})
	}
	if strings.TrimSpace(spec.Transform) != "" {
		if _, err := transform.Parse(spec.Transform); err != nil {
			errs = append(errs, domain.FieldError{Field: field + ".transform", Message: err.Error()})
		}
	}
	return errs
}
