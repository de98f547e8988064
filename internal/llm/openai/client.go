// Package openai implements the structuring and chat surfaces over a hosted
// OpenAI-compatible chat/completions endpoint.
package openai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gesthor/ocr-service/internal/common"
	"github.com/gesthor/ocr-service/internal/llm"
)

// ExtractFromText implements llm.TicketExtractor for recovered document
// text. The response is capped at cfg.MaxTokens; oversized inputs are
// truncated by the provider, not here.
func (c *Client) ExtractFromText(ctx context.Context, text string) ([]byte, error) {
	body := map[string]any{
		"model":       c.cfg.Model,
		"temperature": c.cfg.Temperature,
		"max_tokens":  c.cfg.MaxTokens,
		"messages": []map[string]any{
			{"role": "system", "content": llm.ExtractionSystemPrompt},
			{"role": "user", "content": llm.BuildExtractionUserPrompt(text)},
		},
	}
	return c.completionContent(ctx, "extract_text", body)
}

// ExtractFromImage implements the fused vision call: the JPEG is embedded
// as a base64 data URL and the model answers with ticket JSON directly.
func (c *Client) ExtractFromImage(ctx context.Context, jpeg []byte) ([]byte, error) {
	dataURL := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(jpeg)
	body := map[string]any{
		"model":       c.cfg.Model,
		"temperature": c.cfg.Temperature,
		"messages": []map[string]any{
			{"role": "system", "content": llm.ExtractionSystemPrompt},
			{"role": "user", "content": []map[string]any{
				{"type": "text", "text": "Return only the structured JSON."},
				{"type": "image_url", "image_url": map[string]any{"url": dataURL}},
			}},
		},
	}
	return c.completionContent(ctx, "extract_image", body)
}

// Chat implements llm.ChatCompleter with the fixed assistant persona.
func (c *Client) Chat(ctx context.Context, message string) (string, error) {
	body := map[string]any{
		"model":       c.cfg.Model,
		"temperature": c.cfg.Temperature,
		"max_tokens":  c.cfg.ChatMaxTokens,
		"messages": []map[string]any{
			{"role": "system", "content": llm.ChatSystemPrompt},
			{"role": "user", "content": message},
		},
	}
	raw, err := c.completionContent(ctx, "chat", body)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func (c *Client) completionContent(ctx context.Context, op string, body map[string]any) ([]byte, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.log.Info("llm."+op+".start",
		"req_id", rid,
		"model", c.cfg.Model,
		"temp", c.cfg.Temperature,
	)

	raw, err := c.post(ctx, strings.TrimRight(c.cfg.BaseURL, "/")+"/chat/completions", body)
	if err != nil {
		c.log.Error("llm."+op+".http_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, err
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		c.log.Error("llm."+op+".decode_error",
			"req_id", rid, "error", err, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, fmt.Errorf("decode completion response: %w", err)
	}
	if len(cc.Choices) == 0 {
		c.log.Error("llm."+op+".no_choices",
			"req_id", rid,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, fmt.Errorf("no choices in completion response")
	}

	content := strings.TrimSpace(cc.Choices[0].Message.Content)
	c.log.Info("llm."+op+".ok",
		"req_id", rid,
		"content_bytes", len(content),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return []byte(content), nil
}

// post sends the request and classifies transport failures, rate limits and
// provider-side errors as ErrProviderUnavailable so the caller can tell the
// user to retry later.
func (c *Client) post(ctx context.Context, url string, body map[string]any) ([]byte, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrProviderUnavailable, err)
	}
	defer func(body io.ReadCloser) {
		if cerr := body.Close(); cerr != nil {
			c.log.Warn("llm.http.body_close_error", "error", cerr)
		}
	}(resp.Body)

	raw, _ := io.ReadAll(resp.Body)

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: status %d", common.ErrProviderUnavailable, resp.StatusCode)
	case resp.StatusCode/100 != 2:
		return nil, fmt.Errorf("completion status %d: %s", resp.StatusCode, truncate(string(raw), 512))
	}
	return raw, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
