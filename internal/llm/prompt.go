package llm

import "strings"

// ExtractionSystemPrompt is the fixed structuring instruction. The shape it
// names is the contract the ticket validator enforces; change them together.
const ExtractionSystemPrompt = "You are an expert at purchase receipts. " +
	"Extract exactly this structure as JSON:\n" +
	"{ establishment: str, date: str, time: str, total: float, vat: float, category: int,\n" +
	"  items: [ { name: str, price: float, quantity: float, subtotal: float } ], confidence: float }\n" +
	"confidence is your own trust in the extraction, between 0 and 1. " +
	"Return ONLY the JSON object, nothing else."

// ChatSystemPrompt is the persona for the chat-assist passthrough.
const ChatSystemPrompt = "You are a clear and helpful assistant working for Gesthor. " +
	"You cover the financial needs of customers in Spain, giving them prices in " +
	"euros and practical recommendations."

// BuildExtractionUserPrompt packages recovered text for the text-only call.
func BuildExtractionUserPrompt(text string) string {
	var b strings.Builder
	b.WriteString("OCR text:\n")
	b.WriteString(strings.TrimSpace(text))
	b.WriteString("\nReturn only the structured JSON.")
	return b.String()
}

// StripCodeFences removes a markdown ```json fence some models wrap around
// their answer despite the instruction.
func StripCodeFences(content string) string {
	s := strings.TrimSpace(content)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
