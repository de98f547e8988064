// Package ticket defines the canonical extraction output and the validator
// that coerces model JSON into it.
package ticket

import "github.com/gesthor/ocr-service/constants"

// Item is one receipt line. Subtotal is the provider's own figure and is
// never cross-checked against UnitPrice*Quantity; receipts legitimately
// carry rounding, per-unit discounts and weight-priced lines.
type Item struct {
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  float64 `json:"quantity"`
	Subtotal  float64 `json:"subtotal"`
}

// Ticket is the canonical record produced once per request. It is never
// mutated after validation and is serialized straight into the response.
type Ticket struct {
	Establishment string  `json:"establishment"`
	Date          string  `json:"date,omitempty"`
	Time          string  `json:"time,omitempty"`
	Total         float64 `json:"total"`
	VAT           float64 `json:"vat"`
	Category      *int    `json:"category,omitempty"`
	Items         []Item  `json:"items"`
	Confidence    float64 `json:"confidence"`
}

// Demo returns the fixed canned ticket served in demo mode.
func Demo() *Ticket {
	category := constants.PlaceholderCategory
	return &Ticket{
		Establishment: "DEMO_TEST",
		Date:          "2023-10-26",
		Time:          "18:16",
		Total:         111.11,
		VAT:           22.22,
		Category:      &category,
		Items: []Item{{
			Name:      "DEMO_TEST",
			UnitPrice: 4.4,
			Quantity:  5.5,
			Subtotal:  3.3,
		}},
		Confidence: 0.99,
	}
}
