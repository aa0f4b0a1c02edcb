// internal/common/validation/record.go
package validation

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	commonerrors "returns-insights/internal/common/errors"
	"returns-insights/internal/models"
)

// recordSchema is the shape a finalized return record must satisfy
// before it reaches storage. It guards the same constraints the typed
// checks enforce, plus field-level bounds.
var recordSchema = map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"product_name", "purchase_location", "purchase_price", "return_reason"},
	"properties": map[string]interface{}{
		"product_name": map[string]interface{}{
			"type":      "string",
			"minLength": 1,
			"maxLength": 255,
		},
		"purchase_location": map[string]interface{}{
			"type":      "string",
			"minLength": 1,
			"maxLength": 255,
		},
		"purchase_price": map[string]interface{}{
			"type":             "number",
			"exclusiveMinimum": 0,
		},
		"original_price": map[string]interface{}{
			"type":    "number",
			"minimum": 0,
		},
		"discount_percent": map[string]interface{}{
			"type":    "number",
			"minimum": 0,
			"maximum": 100,
		},
		"return_reason": map[string]interface{}{
			"type":      "string",
			"minLength": 1,
			"maxLength": 1000,
		},
	},
}

// ValidateRecord checks a finalized record against the schema. It
// returns a validation error naming the failing fields, never a raw
// schema message.
func ValidateRecord(rec models.ReturnRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return commonerrors.NewValidationFailedError("record", err.Error())
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return commonerrors.NewValidationFailedError("record", err.Error())
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(recordSchema),
		gojsonschema.NewGoLoader(payload),
	)
	if err != nil {
		return commonerrors.NewValidationFailedError("record", err.Error())
	}
	if result.Valid() {
		return nil
	}

	details := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		details = append(details, fmt.Sprintf("%s: %s", desc.Field(), desc.Description()))
	}
	return commonerrors.NewValidationFailedError("record", strings.Join(details, "; "))
}
