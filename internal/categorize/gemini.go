package categorize

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/genai"
)

// DefaultModelName is the Gemini model used when none is configured.
const DefaultModelName = "gemini-2.5-flash"

// DefaultTimeout bounds a single classification call.
const DefaultTimeout = 60 * time.Second

// GeminiBackend implements TextBackend with the Gemini API.
type GeminiBackend struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

// NewGeminiBackend creates a Gemini client. An empty apiKey lets the SDK fall
// back to GOOGLE_API_KEY / GEMINI_API_KEY or Vertex AI settings from the
// environment.
func NewGeminiBackend(ctx context.Context, apiKey, model string, timeout time.Duration) (*GeminiBackend, error) {
	cfg := &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1beta"},
	}
	if apiKey != "" {
		cfg.APIKey = apiKey
		cfg.Backend = genai.BackendGeminiAPI
	}
	return newGeminiBackend(ctx, cfg, model, timeout)
}

func newGeminiBackend(ctx context.Context, cfg *genai.ClientConfig, model string, timeout time.Duration) (*GeminiBackend, error) {
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("NewGeminiBackend: create genai client: %w", err)
	}
	if model == "" {
		model = DefaultModelName
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &GeminiBackend{client: client, model: model, timeout: timeout}, nil
}

// Generate sends prompt with the system instruction at temperature 0. A
// response without text, such as a blocked or truncated candidate, is an
// empty answer rather than an error.
func (g *GeminiBackend) Generate(ctx context.Context, system, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		Temperature:       genai.Ptr[float32](0),
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), config)
	if err != nil {
		return "", fmt.Errorf("GeminiBackend.Generate: generate content: %w", err)
	}

	return resp.Text(), nil
}
