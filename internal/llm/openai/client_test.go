package openai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"

	"github.com/gesthor/ocr-service/internal/common"
)

func TestOpenAI(t *testing.T) {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
	RegisterFailHandler(Fail)
	RunSpecs(t, "OpenAI Client Suite")
}

func completionResponse(content string) map[string]any {
	return map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	}
}

var _ = Describe("Client", func() {
	var (
		server *ghttp.Server
		client *Client
	)

	BeforeEach(func() {
		server = ghttp.NewServer()
		client = NewClient(Config{
			APIKey:        "test-key",
			BaseURL:       server.URL(),
			Model:         "gpt-4o-mini",
			MaxTokens:     1000,
			ChatMaxTokens: 500,
		}, nil)
	})

	AfterEach(func() {
		server.Close()
	})

	Describe("ExtractFromText", func() {
		When("the provider answers with ticket JSON", func() {
			var captured map[string]any

			BeforeEach(func() {
				server.AppendHandlers(ghttp.CombineHandlers(
					ghttp.VerifyRequest("POST", "/chat/completions"),
					ghttp.VerifyHeaderKV("Authorization", "Bearer test-key"),
					func(w http.ResponseWriter, r *http.Request) {
						body, err := io.ReadAll(r.Body)
						Expect(err).NotTo(HaveOccurred())
						Expect(json.Unmarshal(body, &captured)).To(Succeed())
					},
					ghttp.RespondWithJSONEncoded(http.StatusOK,
						completionResponse("  {\"establishment\":\"Bar Pepe\"}  ")),
				))
			})

			It("should return the trimmed content", func() {
				raw, err := client.ExtractFromText(context.Background(), "TOTAL 12,50")
				Expect(err).NotTo(HaveOccurred())
				Expect(string(raw)).To(Equal(`{"establishment":"Bar Pepe"}`))
			})

			It("should send the model, temperature and token cap", func() {
				_, err := client.ExtractFromText(context.Background(), "TOTAL 12,50")
				Expect(err).NotTo(HaveOccurred())
				Expect(captured["model"]).To(Equal("gpt-4o-mini"))
				Expect(captured["temperature"]).To(BeNumerically("~", 0.7, 0.001))
				Expect(captured["max_tokens"]).To(BeNumerically("==", 1000))
			})

			It("should put the recovered text in the user message", func() {
				_, err := client.ExtractFromText(context.Background(), "TOTAL 12,50")
				Expect(err).NotTo(HaveOccurred())
				messages := captured["messages"].([]any)
				Expect(messages).To(HaveLen(2))
				user := messages[1].(map[string]any)
				Expect(user["role"]).To(Equal("user"))
				Expect(user["content"]).To(ContainSubstring("TOTAL 12,50"))
			})
		})

		When("the provider is rate limiting", func() {
			BeforeEach(func() {
				server.AppendHandlers(ghttp.RespondWith(http.StatusTooManyRequests, "slow down"))
			})

			It("should classify the failure as provider unavailable", func() {
				_, err := client.ExtractFromText(context.Background(), "x")
				Expect(err).To(HaveOccurred())
				Expect(errors.Is(err, common.ErrProviderUnavailable)).To(BeTrue())
			})
		})

		When("the provider returns a server error", func() {
			BeforeEach(func() {
				server.AppendHandlers(ghttp.RespondWith(http.StatusBadGateway, "boom"))
			})

			It("should classify the failure as provider unavailable", func() {
				_, err := client.ExtractFromText(context.Background(), "x")
				Expect(errors.Is(err, common.ErrProviderUnavailable)).To(BeTrue())
			})
		})

		When("the provider rejects the request", func() {
			BeforeEach(func() {
				server.AppendHandlers(ghttp.RespondWith(http.StatusBadRequest, "bad request"))
			})

			It("should not mark the failure as provider unavailable", func() {
				_, err := client.ExtractFromText(context.Background(), "x")
				Expect(err).To(HaveOccurred())
				Expect(errors.Is(err, common.ErrProviderUnavailable)).To(BeFalse())
			})
		})

		When("the provider is unreachable", func() {
			BeforeEach(func() {
				server.Close()
			})

			It("should classify the failure as provider unavailable", func() {
				_, err := client.ExtractFromText(context.Background(), "x")
				Expect(errors.Is(err, common.ErrProviderUnavailable)).To(BeTrue())
			})
		})

		When("the response has no choices", func() {
			BeforeEach(func() {
				server.AppendHandlers(ghttp.RespondWithJSONEncoded(http.StatusOK,
					map[string]any{"choices": []any{}}))
			})

			It("should return an error", func() {
				_, err := client.ExtractFromText(context.Background(), "x")
				Expect(err).To(MatchError(ContainSubstring("no choices")))
			})
		})
	})

	Describe("ExtractFromImage", func() {
		var captured map[string]any

		BeforeEach(func() {
			server.AppendHandlers(ghttp.CombineHandlers(
				ghttp.VerifyRequest("POST", "/chat/completions"),
				func(w http.ResponseWriter, r *http.Request) {
					body, err := io.ReadAll(r.Body)
					Expect(err).NotTo(HaveOccurred())
					Expect(json.Unmarshal(body, &captured)).To(Succeed())
				},
				ghttp.RespondWithJSONEncoded(http.StatusOK,
					completionResponse(`{"establishment":"Bar Pepe"}`)),
			))
		})

		It("should embed the image as a base64 data URL", func() {
			_, err := client.ExtractFromImage(context.Background(), []byte{0xff, 0xd8, 0xff})
			Expect(err).NotTo(HaveOccurred())

			messages := captured["messages"].([]any)
			user := messages[1].(map[string]any)
			parts := user["content"].([]any)
			Expect(parts).To(HaveLen(2))
			imagePart := parts[1].(map[string]any)
			Expect(imagePart["type"]).To(Equal("image_url"))
			url := imagePart["image_url"].(map[string]any)["url"].(string)
			Expect(url).To(HavePrefix("data:image/jpeg;base64,"))
		})

		It("should not cap the response tokens", func() {
			_, err := client.ExtractFromImage(context.Background(), []byte{0xff})
			Expect(err).NotTo(HaveOccurred())
			Expect(captured).NotTo(HaveKey("max_tokens"))
		})
	})

	Describe("Chat", func() {
		var captured map[string]any

		BeforeEach(func() {
			server.AppendHandlers(ghttp.CombineHandlers(
				ghttp.VerifyRequest("POST", "/chat/completions"),
				func(w http.ResponseWriter, r *http.Request) {
					body, err := io.ReadAll(r.Body)
					Expect(err).NotTo(HaveOccurred())
					Expect(json.Unmarshal(body, &captured)).To(Succeed())
				},
				ghttp.RespondWithJSONEncoded(http.StatusOK,
					completionResponse("Hola, soy el asistente de Gesthor.")),
			))
		})

		It("should return the assistant reply", func() {
			reply, err := client.Chat(context.Background(), "hola")
			Expect(err).NotTo(HaveOccurred())
			Expect(reply).To(Equal("Hola, soy el asistente de Gesthor."))
		})

		It("should use the chat token cap", func() {
			_, err := client.Chat(context.Background(), "hola")
			Expect(err).NotTo(HaveOccurred())
			Expect(captured["max_tokens"]).To(BeNumerically("==", 500))
		})
	})
})
