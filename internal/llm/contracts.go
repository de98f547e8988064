package llm

import "context"

// TicketExtractor is the structuring surface the pipeline depends on. Both
// methods return the provider's raw JSON content; parsing and validation
// happen in ParseTicketJSON and the ticket validator, never in the client.
type TicketExtractor interface {
	// ExtractFromText structures recovered document text.
	ExtractFromText(ctx context.Context, text string) ([]byte, error)
	// ExtractFromImage sends a compact JPEG straight to a vision-capable
	// model, fusing text recovery and structuring into one round trip.
	ExtractFromImage(ctx context.Context, jpeg []byte) ([]byte, error)
}

// ChatCompleter is the stateless chat-assist surface.
type ChatCompleter interface {
	Chat(ctx context.Context, message string) (string, error)
}
