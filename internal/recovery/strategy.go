// Package recovery produces a text transcript (or, for the vision strategy,
// fused ticket JSON) from an uploaded artifact. The strategy set is closed:
// local OCR, remote vision, document text.
package recovery

import (
	"context"
	"path/filepath"

	"github.com/gesthor/ocr-service/constants"
)

// Artifact is the uploaded file as handed over by the HTTP layer.
type Artifact struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Ext returns the artifact's normalized filename extension.
func (a Artifact) Ext() string {
	return constants.NormalizeExt(filepath.Ext(a.Filename))
}

// Format returns the coarse type the pipeline dispatches on.
func (a Artifact) Format() constants.Format {
	return constants.MapExtToFormat(a.Ext())
}

// Outcome is what a strategy recovered. Exactly one field is set: Text for
// the local-OCR and document strategies, RawTicket for the fused vision
// strategy.
type Outcome struct {
	Text      string
	RawTicket []byte
}

// Strategy recovers text (or fused ticket JSON) from an artifact. The
// strategy is chosen once per request by the mode controller, never by
// content sniffing.
type Strategy interface {
	Recover(ctx context.Context, art Artifact) (Outcome, error)
}
