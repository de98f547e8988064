// Package pipeline coordinates text recovery, structuring and validation
// for one extraction request, and classifies every failure before it
// crosses the boundary.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gesthor/ocr-service/constants"
	"github.com/gesthor/ocr-service/internal/common"
	"github.com/gesthor/ocr-service/internal/llm"
	"github.com/gesthor/ocr-service/internal/recovery"
	"github.com/gesthor/ocr-service/internal/ticket"
)

// Options selects the path through the pipeline for a single request.
// They are passed explicitly so concurrent requests can run with different
// modes; the pipeline holds no mutable state.
type Options struct {
	// DemoMode short-circuits everything and returns the canned ticket.
	DemoMode bool
	// OCRLocal selects local tesseract over remote vision for images.
	OCRLocal bool
	// CategoryPassthrough keeps the model's category instead of the
	// placeholder override.
	CategoryPassthrough bool
}

func (o Options) categoryPolicy() ticket.CategoryPolicy {
	if o.CategoryPassthrough {
		return ticket.CategoryPassthrough
	}
	return ticket.CategoryOverride
}

// Pipeline wires the strategies and the structuring adapter. Fields are
// exported so tests can substitute fakes.
type Pipeline struct {
	Logger    *slog.Logger
	LocalOCR  recovery.Strategy
	Vision    recovery.Strategy
	Document  recovery.Strategy
	Extractor llm.TicketExtractor
}

// New assembles the production pipeline.
func New(logger *slog.Logger, local *recovery.LocalOCR, extractor llm.TicketExtractor) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		Logger:    logger,
		LocalOCR:  local,
		Vision:    recovery.NewRemoteVision(extractor, logger),
		Document:  recovery.NewDocumentText(logger),
		Extractor: extractor,
	}
}

// Process runs the decision table for one artifact and returns the
// validated Ticket. Every error is already classified into the
// three-category taxonomy; callers never see raw stage failures.
func (p *Pipeline) Process(ctx context.Context, art recovery.Artifact, opts Options) (*ticket.Ticket, error) {
	rid := common.RequestIDFromContext(ctx)
	start := time.Now()

	if opts.DemoMode {
		p.Logger.Info("pipeline.demo.hit", "req_id", rid, "file", art.Filename)
		return ticket.Demo(), nil
	}

	t, err := p.process(ctx, art, opts)
	if err != nil {
		ce := common.Classify(err)
		p.Logger.Error("pipeline.failed",
			"req_id", rid,
			"file", art.Filename,
			"kind", ce.Kind,
			"error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, ce
	}

	p.Logger.Info("pipeline.ok",
		"req_id", rid,
		"file", art.Filename,
		"establishment", t.Establishment,
		"total", t.Total,
		"items", len(t.Items),
		"confidence", t.Confidence,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return t, nil
}

func (p *Pipeline) process(ctx context.Context, art recovery.Artifact, opts Options) (*ticket.Ticket, error) {
	var raw []byte

	switch art.Format() {
	case constants.IMAGE:
		if opts.OCRLocal {
			out, err := p.LocalOCR.Recover(ctx, art)
			if err != nil {
				return nil, err
			}
			raw, err = p.Extractor.ExtractFromText(ctx, out.Text)
			if err != nil {
				return nil, err
			}
		} else {
			out, err := p.Vision.Recover(ctx, art)
			if err != nil {
				return nil, err
			}
			raw = out.RawTicket
		}
	case constants.PDF, constants.TEXT:
		out, err := p.Document.Recover(ctx, art)
		if err != nil {
			return nil, err
		}
		raw, err = p.Extractor.ExtractFromText(ctx, out.Text)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: %q", common.ErrUnsupportedFile, art.Ext())
	}

	doc, err := llm.ParseTicketJSON(raw)
	if err != nil {
		return nil, err
	}
	return ticket.Validate(doc, opts.categoryPolicy())
}
