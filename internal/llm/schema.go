package llm

// BuildTicketJSONSchema returns the ticket shape as a JSON-Schema
// (draft 2020-12 subset) generic map. It is deliberately lenient on types
// the validator can coerce (decimal strings for money fields) and strict on
// structure, so one validation pass can report every problem at once.
func BuildTicketJSONSchema() map[string]any {
	item := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"name":       map[string]any{"type": "string"},
			"price":      moneyProp(),
			"unit_price": moneyProp(),
			"quantity":   moneyProp(),
			"subtotal":   moneyProp(),
		},
		"required": []string{"name"},
	}

	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"establishment": map[string]any{"type": "string"},
			"date":          map[string]any{"type": "string"},
			"time":          map[string]any{"type": "string"},
			"total":         moneyProp(),
			"vat":           moneyProp(),
			"category":      map[string]any{"type": []string{"integer", "number", "string", "null"}},
			"items":         map[string]any{"type": "array", "items": item},
			"confidence":    map[string]any{"type": "number"},
		},
		"required": []string{"establishment", "total", "vat", "confidence"},
	}
}

// moneyProp accepts a number or a decimal string (with dot or comma);
// coercion to float happens in the ticket validator.
func moneyProp() map[string]any {
	return map[string]any{
		"type":    []string{"number", "string"},
		"pattern": `^\s*-?\d+([.,]\d+)?\s*$`,
	}
}
