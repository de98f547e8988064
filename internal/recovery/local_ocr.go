package recovery

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gesthor/ocr-service/internal/common"
	"github.com/gesthor/ocr-service/internal/imageprep"
	"github.com/gesthor/ocr-service/internal/ocr"
)

// LocalOCR normalizes the image and feeds it to the local tesseract engine.
type LocalOCR struct {
	Engine *ocr.Engine
	Logger *slog.Logger
}

func NewLocalOCR(engine *ocr.Engine, logger *slog.Logger) *LocalOCR {
	if logger == nil {
		logger = slog.Default()
	}
	return &LocalOCR{Engine: engine, Logger: logger}
}

func (s *LocalOCR) Recover(ctx context.Context, art Artifact) (Outcome, error) {
	img, err := imageprep.Normalize(art.Data)
	if err != nil {
		return Outcome{}, fmt.Errorf("normalize %q: %w", art.Filename, err)
	}

	text, err := s.Engine.RecognizeImage(ctx, img)
	if err != nil {
		return Outcome{}, fmt.Errorf("%w: %v", common.ErrOCREngine, err)
	}

	s.Logger.Debug("recovery.local_ocr.ok", "file", art.Filename, "text_bytes", len(text))
	return Outcome{Text: text}, nil
}
