// Package ocr runs a local tesseract binary over normalized receipt images.
package ocr

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Tesseract runs with automatic engine-mode selection and "uniform block of
// text" page segmentation; receipts are a single dense column.
const (
	defaultOEM = 3
	defaultPSM = 6
)

type Config struct {
	Tesseract   string // binary name or absolute path; if empty -> "tesseract"
	Lang        string // default "eng"
	TessdataDir string

	PSM int
	OEM int
}

// Engine invokes tesseract through a Runner so tests never need the binary.
type Engine struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

// NewEngine builds an Engine. Pass a nil runner to execute the real binary.
func NewEngine(cfg Config, runner Runner, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if runner == nil {
		runner = execRunner{}
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.Lang == "" {
		cfg.Lang = "eng"
	}
	if cfg.PSM == 0 {
		cfg.PSM = defaultPSM
	}
	if cfg.OEM == 0 {
		cfg.OEM = defaultOEM
	}
	return &Engine{cfg: cfg, runner: runner, logger: logger}
}

// RecognizeImage writes the binarized image to a temp PNG, runs tesseract
// over it and returns the recovered text with surrounding whitespace
// trimmed. Engine failures surface as wrapped ErrOCREngine from the caller's
// point of view via the recovery layer.
func (e *Engine) RecognizeImage(ctx context.Context, img *image.Gray) (string, error) {
	tmpDir, err := os.MkdirTemp("", "ocr-page-*")
	if err != nil {
		return "", fmt.Errorf("temp dir: %w", err)
	}
	defer func() {
		if rmErr := os.RemoveAll(tmpDir); rmErr != nil {
			e.logger.Warn("ocr.tmp.cleanup_failed", "dir", tmpDir, "error", rmErr)
		}
	}()

	path := filepath.Join(tmpDir, "page.png")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("temp file: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("encode page: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close page: %w", err)
	}

	return e.recognizeFile(ctx, path)
}

func (e *Engine) recognizeFile(ctx context.Context, path string) (string, error) {
	args := []string{path, "stdout",
		"-l", e.cfg.Lang,
		"--oem", strconv.Itoa(e.cfg.OEM),
		"--psm", strconv.Itoa(e.cfg.PSM),
	}
	if e.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", e.cfg.TessdataDir)
	}

	out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, args...)
	if err != nil {
		return "", fmt.Errorf("tesseract: %w (stderr: %s)", err, truncate(string(errb), 512))
	}
	return strings.TrimSpace(string(out)), nil
}
