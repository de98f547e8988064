package ticket

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gesthor/ocr-service/constants"
	"github.com/gesthor/ocr-service/internal/common"
)

// CategoryPolicy decides what happens to the model-provided category code.
type CategoryPolicy int

const (
	// CategoryOverride pins every ticket to constants.PlaceholderCategory,
	// matching the deployed behavior downstream consumers rely on.
	CategoryOverride CategoryPolicy = iota
	// CategoryPassthrough keeps the model's value when present.
	CategoryPassthrough
)

// fieldErrors accumulates problems so a caller sees every missing or
// malformed field at once, not just the first.
type fieldErrors []string

func (fe *fieldErrors) addf(format string, args ...any) {
	*fe = append(*fe, fmt.Sprintf(format, args...))
}

// Validate coerces a schema-checked document into a Ticket, applying
// required-field checks, numeric-string coercion, the category policy and
// confidence clamping.
func Validate(doc map[string]any, policy CategoryPolicy) (*Ticket, error) {
	var fe fieldErrors
	t := &Ticket{Items: []Item{}}

	t.Establishment = strings.TrimSpace(stringField(doc, "establishment", &fe))
	if t.Establishment == "" {
		fe.addf("establishment: must be a non-empty string")
	}

	t.Date = strings.TrimSpace(optionalString(doc, "date", &fe))
	t.Time = strings.TrimSpace(optionalString(doc, "time", &fe))

	t.Total = requiredFloat(doc, "total", &fe)
	if t.Total < 0 {
		fe.addf("total: must not be negative")
	}
	t.VAT = requiredFloat(doc, "vat", &fe)
	if t.VAT < 0 {
		fe.addf("vat: must not be negative")
	}

	t.Confidence = clamp01(requiredFloat(doc, "confidence", &fe))

	if raw, ok := doc["items"]; ok && raw != nil {
		list, ok := raw.([]any)
		if !ok {
			fe.addf("items: must be an array")
		} else {
			for i, el := range list {
				item, itemErrs := validateItem(el, i)
				fe = append(fe, itemErrs...)
				if len(itemErrs) == 0 {
					t.Items = append(t.Items, item)
				}
			}
		}
	}

	switch policy {
	case CategoryPassthrough:
		if raw, ok := doc["category"]; ok && raw != nil {
			if code, err := coerceInt(raw); err != nil {
				fe.addf("category: %v", err)
			} else {
				t.Category = &code
			}
		}
	default:
		code := constants.PlaceholderCategory
		t.Category = &code
	}

	if len(fe) > 0 {
		return nil, fmt.Errorf("%w: %s", common.ErrSchemaValidation, strings.Join(fe, "; "))
	}
	return t, nil
}

func validateItem(el any, idx int) (Item, fieldErrors) {
	var fe fieldErrors
	m, ok := el.(map[string]any)
	if !ok {
		fe.addf("items[%d]: must be an object", idx)
		return Item{}, fe
	}

	var item Item
	if name, ok := m["name"].(string); ok && strings.TrimSpace(name) != "" {
		item.Name = strings.TrimSpace(name)
	} else {
		fe.addf("items[%d].name: must be a non-empty string", idx)
	}

	// The model is asked for "price"; tolerate "unit_price" as well.
	priceRaw, ok := m["price"]
	if !ok {
		priceRaw = m["unit_price"]
	}
	item.UnitPrice = itemFloat(priceRaw, fmt.Sprintf("items[%d].price", idx), &fe)
	item.Quantity = itemFloat(m["quantity"], fmt.Sprintf("items[%d].quantity", idx), &fe)
	item.Subtotal = itemFloat(m["subtotal"], fmt.Sprintf("items[%d].subtotal", idx), &fe)

	return item, fe
}

func stringField(doc map[string]any, key string, fe *fieldErrors) string {
	raw, ok := doc[key]
	if !ok || raw == nil {
		fe.addf("%s: is required", key)
		return ""
	}
	s, ok := raw.(string)
	if !ok {
		fe.addf("%s: must be a string", key)
		return ""
	}
	return s
}

func optionalString(doc map[string]any, key string, fe *fieldErrors) string {
	raw, ok := doc[key]
	if !ok || raw == nil {
		return ""
	}
	s, ok := raw.(string)
	if !ok {
		fe.addf("%s: must be a string", key)
		return ""
	}
	return s
}

func requiredFloat(doc map[string]any, key string, fe *fieldErrors) float64 {
	raw, ok := doc[key]
	if !ok || raw == nil {
		fe.addf("%s: is required", key)
		return 0
	}
	f, err := coerceFloat(raw)
	if err != nil {
		fe.addf("%s: %v", key, err)
		return 0
	}
	return f
}

func itemFloat(raw any, field string, fe *fieldErrors) float64 {
	if raw == nil {
		fe.addf("%s: is required", field)
		return 0
	}
	f, err := coerceFloat(raw)
	if err != nil {
		fe.addf("%s: %v", field, err)
		return 0
	}
	return f
}

// coerceFloat accepts JSON numbers and decimal strings, including the
// comma decimal separator common on European receipts.
func coerceFloat(raw any) (float64, error) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(v), ",", ".")
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("cannot parse %q as a number", v)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("must be a number")
	}
}

func coerceInt(raw any) (int, error) {
	switch v := raw.(type) {
	case float64:
		return int(v), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, fmt.Errorf("cannot parse %q as an integer", v)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("must be an integer")
	}
}

func clamp01(f float64) float64 {
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	default:
		return f
	}
}
