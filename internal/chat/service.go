// Package chat is the stateless chat-assist passthrough: one persona, one
// completion call, no history.
package chat

import (
	"context"
	"log/slog"
	"time"

	"github.com/gesthor/ocr-service/internal/common"
	"github.com/gesthor/ocr-service/internal/llm"
)

const demoReply = "Welcome to Gesthor, demo mode is active."

type Service struct {
	Completer llm.ChatCompleter
	Logger    *slog.Logger
}

func NewService(completer llm.ChatCompleter, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{Completer: completer, Logger: logger}
}

// Reply forwards a user message to the assistant persona. In demo mode the
// caller passes demo=true and no provider call is made.
func (s *Service) Reply(ctx context.Context, message string, demo bool) (string, error) {
	if demo {
		return demoReply, nil
	}

	start := time.Now()
	reply, err := s.Completer.Chat(ctx, message)
	if err != nil {
		ce := common.Classify(err)
		s.Logger.Error("chat.failed", "kind", ce.Kind, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return "", ce
	}
	return reply, nil
}
