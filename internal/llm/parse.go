package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/gesthor/ocr-service/internal/common"
)

// ParseTicketJSON turns the provider's raw content into a generic document,
// distinguishing "not JSON at all" (ErrStructuringParse) from "JSON that
// does not match the ticket schema" (ErrSchemaValidation, with every
// violation listed).
func ParseTicketJSON(raw []byte) (map[string]any, error) {
	content := StripCodeFences(string(raw))

	var doc map[string]any
	if err := json.Unmarshal([]byte(content), &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrStructuringParse, err)
	}

	if err := validateAgainstSchema(BuildTicketJSONSchema(), doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// validateAgainstSchema validates doc against the schema map, flattening the
// full cause tree so a caller sees all problems at once.
func validateAgainstSchema(schemaMap map[string]any, doc any) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("ticket.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("ticket.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}

	if err := schema.Validate(doc); err != nil {
		var ve *jsonschema.ValidationError
		if ok := asValidationError(err, &ve); ok {
			return fmt.Errorf("%w: %s", common.ErrSchemaValidation, strings.Join(flattenCauses(ve), "; "))
		}
		return fmt.Errorf("%w: %v", common.ErrSchemaValidation, err)
	}
	return nil
}

func asValidationError(err error, target **jsonschema.ValidationError) bool {
	ve, ok := err.(*jsonschema.ValidationError)
	if ok {
		*target = ve
	}
	return ok
}

// flattenCauses walks the validation tree collecting leaf messages with
// their instance locations.
func flattenCauses(ve *jsonschema.ValidationError) []string {
	if len(ve.Causes) == 0 {
		loc := ve.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		return []string{fmt.Sprintf("%s: %s", loc, ve.Message)}
	}
	var out []string
	for _, c := range ve.Causes {
		out = append(out, flattenCauses(c)...)
	}
	return out
}
