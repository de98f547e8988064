package recovery

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/gesthor/ocr-service/internal/imageprep"
	"github.com/gesthor/ocr-service/internal/llm"
)

const visionJPEGQuality = 85

// RemoteVision re-encodes the original photo as a compact JPEG and sends it
// to a vision-capable model; the response is already ticket JSON, so text
// recovery and structuring are fused into one round trip. The binarized
// image is deliberately not used here: hosted models do better on the
// untouched photo.
type RemoteVision struct {
	Extractor llm.TicketExtractor
	Logger    *slog.Logger
}

func NewRemoteVision(extractor llm.TicketExtractor, logger *slog.Logger) *RemoteVision {
	if logger == nil {
		logger = slog.Default()
	}
	return &RemoteVision{Extractor: extractor, Logger: logger}
}

func (s *RemoteVision) Recover(ctx context.Context, art Artifact) (Outcome, error) {
	img, err := imageprep.Decode(art.Data)
	if err != nil {
		return Outcome{}, fmt.Errorf("decode %q: %w", art.Filename, err)
	}

	var buf bytes.Buffer
	if err := imageprep.EncodeJPEG(&buf, img, visionJPEGQuality); err != nil {
		return Outcome{}, fmt.Errorf("re-encode %q: %w", art.Filename, err)
	}

	raw, err := s.Extractor.ExtractFromImage(ctx, buf.Bytes())
	if err != nil {
		return Outcome{}, err
	}

	s.Logger.Debug("recovery.vision.ok", "file", art.Filename, "jpeg_bytes", buf.Len())
	return Outcome{RawTicket: raw}, nil
}
