package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/gesthor/ocr-service/internal/chat"
	"github.com/gesthor/ocr-service/internal/common"
	"github.com/gesthor/ocr-service/internal/llm/openai"
	"github.com/gesthor/ocr-service/internal/ocr"
	"github.com/gesthor/ocr-service/internal/pipeline"
	"github.com/gesthor/ocr-service/internal/recovery"
	"github.com/gesthor/ocr-service/internal/server"
)

func main() {
	fs := ff.NewFlagSet("ocraid")
	var (
		envFile  = fs.StringLong("env-file", ".env", "env file to load before reading config")
		addr     = fs.StringLong("addr", "", "listen address (overrides ADDR)")
		demo     = fs.BoolLong("demo", "force demo mode on")
		logLevel = fs.StringLong("log-level", "info", "log level: debug, info, warn, error")
	)
	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("OCRAID"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Missing .env is fine; env vars may come from the environment itself.
	_ = godotenv.Load(*envFile)

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(*logLevel),
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *demo {
		cfg.Pipeline.DemoMode = true
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("config.invalid", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine := ocr.NewEngine(ocr.Config{
		Tesseract:   cfg.OCR.Tesseract,
		Lang:        cfg.OCR.Lang,
		TessdataDir: cfg.OCR.TessdataDir,
	}, nil, logger)

	client := openai.NewClient(openai.Config{
		APIKey:        cfg.LLM.APIKey,
		BaseURL:       cfg.LLM.BaseURL,
		Model:         cfg.LLM.Model,
		Temperature:   cfg.LLM.Temperature,
		MaxTokens:     cfg.LLM.MaxTokens,
		ChatMaxTokens: cfg.LLM.ChatMaxTokens,
		Timeout:       cfg.LLM.Timeout,
	}, logger)

	pipe := pipeline.New(logger, recovery.NewLocalOCR(engine, logger), client)
	chatSvc := chat.NewService(client, logger)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           server.New(cfg, pipe, chatSvc, logger).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server.listening",
			"addr", cfg.Server.Addr,
			"demo", cfg.Pipeline.DemoMode,
			"ocr_local", cfg.Pipeline.OCRLocal,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server.serve_failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("server.shutting_down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server.shutdown_failed", "error", err)
		os.Exit(1)
	}
	logger.Info("server.stopped")
}

func parseLevel(s string) slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
