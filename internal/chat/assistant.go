// Package chat forwards investor questions to a hosted generative model.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"deediq/internal/apperror"
)

// APIVersion is the Gemini API version the assistant speaks.
const APIVersion = "v1beta"

// Context describes what the user is looking at when they ask.
type Context struct {
	Page             string         `json:"page,omitempty"`
	CurrentMarket    *CurrentMarket `json:"currentMarket,omitempty"`
	ComparingMarkets bool           `json:"comparingMarkets,omitempty"`
	UsingCalculator  bool           `json:"usingCalculator,omitempty"`
}

type CurrentMarket struct {
	City string `json:"city"`
}

type Assistant struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client

	client    *genai.Client
	clientErr error
}

type Option func(*Assistant)

// WithBaseURL points the assistant at another endpoint, e.g. a test server.
func WithBaseURL(u string) Option {
	return func(a *Assistant) { a.baseURL = strings.TrimRight(u, "/") + "/" }
}

func WithHTTPClient(c *http.Client) Option {
	return func(a *Assistant) { a.httpClient = c }
}

// New builds an assistant for model. Without an API key no client is built
// and every Ask answers Unavailable.
func New(apiKey, model string, opts ...Option) *Assistant {
	if model == "" {
		model = "gemini-pro"
	}
	a := &Assistant{
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(a)
	}
	if apiKey != "" {
		a.client, a.clientErr = genai.NewClient(context.Background(), &genai.ClientConfig{
			APIKey:     apiKey,
			Backend:    genai.BackendGeminiAPI,
			HTTPClient: a.httpClient,
			HTTPOptions: genai.HTTPOptions{
				BaseURL:    a.baseURL,
				APIVersion: APIVersion,
			},
		})
	}
	return a
}

// Ask sends message with its page context and returns the model's answer.
// A missing API key or a rate-limited upstream is reported as Unavailable.
func (a *Assistant) Ask(ctx context.Context, message string, pageCtx *Context) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", apperror.Invalid("Message is required")
	}
	if a.apiKey == "" {
		return "", apperror.Unreachable("AI service is not configured. Please contact the administrator.")
	}
	if a.clientErr != nil {
		return "", fmt.Errorf("create model client: %w", a.clientErr)
	}

	resp, err := a.client.Models.GenerateContent(ctx, a.model, genai.Text(BuildPrompt(message, pageCtx)), &genai.GenerateContentConfig{
		Temperature:     genai.Ptr[float32](0.7),
		TopK:            genai.Ptr[float32](40),
		TopP:            genai.Ptr[float32](0.95),
		MaxOutputTokens: 1024,
	})
	if err != nil {
		if rateLimited(err) {
			return "", apperror.Unreachable("Rate limit exceeded. Please try again in a moment.")
		}
		log.Printf("Model API error: %v", err)
		return "", fmt.Errorf("call model: %w", err)
	}

	if text := firstText(resp); text != "" {
		return text, nil
	}
	return "", fmt.Errorf("no response from model")
}

func rateLimited(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusTooManyRequests
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return apiErrPtr.Code == http.StatusTooManyRequests
	}
	return false
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	for _, p := range resp.Candidates[0].Content.Parts {
		if p != nil && p.Text != "" {
			return p.Text
		}
	}
	return ""
}

const persona = `You are DeedIQ AI, an expert real estate investment assistant. You help users analyze housing markets, understand investment metrics, and make informed property investment decisions.

Your expertise includes:
- Real estate market analysis and trends
- Investment metrics (IRR, Cash-on-Cash returns, CAP rates)
- Property valuation and comparison
- Rental property analysis
- Mortgage and financing options
- Market appreciation and depreciation analysis

`

// BuildPrompt assembles the model prompt for message.
func BuildPrompt(message string, pageCtx *Context) string {
	var b strings.Builder
	b.WriteString(persona)

	if pageCtx != nil {
		b.WriteString("Current Context:\n")
		if pageCtx.Page != "" {
			fmt.Fprintf(&b, "- User is on page: %s\n", pageCtx.Page)
		}
		if pageCtx.CurrentMarket != nil {
			fmt.Fprintf(&b, "- Currently viewing market: %s\n", pageCtx.CurrentMarket.City)
		}
		if pageCtx.ComparingMarkets {
			b.WriteString("- User is comparing multiple markets\n")
		}
		if pageCtx.UsingCalculator {
			b.WriteString("- User is using the Property Investment Calculator\n")
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "User Question: %s\n\n", message)
	b.WriteString("Please provide a helpful, concise, and accurate response. Use specific numbers and examples when relevant. Keep responses under 200 words unless the question requires more detail.")
	return b.String()
}
