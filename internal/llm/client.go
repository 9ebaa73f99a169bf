package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Client generates JSON responses for screening and JD drafting.
type Client interface {
	// GenerateJSON sends a text prompt and returns the JSON body of the reply.
	GenerateJSON(ctx context.Context, prompt string, task Task) (string, error)
	// GenerateJSONWithDocument sends a document ahead of the prompt.
	GenerateJSONWithDocument(ctx context.Context, prompt string, doc Document, task Task) (string, error)
	// Model returns the provider model name used for task.
	Model(task Task) string
	Close() error
}

// Document is binary content passed to the model alongside a prompt.
type Document struct {
	MIMEType string
	Data     []byte
}

// ErrBlocked is returned when the provider refuses to answer a prompt.
var ErrBlocked = errors.New("response blocked by provider")

// NewClient creates a client for the configured provider.
func NewClient(ctx context.Context, config *Config, apiKey string) (Client, error) {
	if config == nil {
		config = DefaultConfig()
	}

	switch config.Provider {
	case ProviderGemini:
		return NewGeminiClient(ctx, config, apiKey)
	default:
		return nil, fmt.Errorf("unsupported LLM provider %q", config.Provider)
	}
}

// GeminiClient implements Client for Google Gemini
type GeminiClient struct {
	client *genai.Client
	config *Config
}

// NewGeminiClient creates a new Gemini client
func NewGeminiClient(ctx context.Context, config *Config, apiKey string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiClient{client: client, config: config}, nil
}

// GenerateJSON implements Client.
func (c *GeminiClient) GenerateJSON(ctx context.Context, prompt string, task Task) (string, error) {
	return c.generate(ctx, task, genai.Text(prompt))
}

// GenerateJSONWithDocument sends the document as an inline blob ahead of the prompt.
func (c *GeminiClient) GenerateJSONWithDocument(ctx context.Context, prompt string, doc Document, task Task) (string, error) {
	if len(doc.Data) == 0 {
		return "", fmt.Errorf("document is empty")
	}
	mimeType := doc.MIMEType
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return c.generate(ctx, task, genai.Blob{MIMEType: mimeType, Data: doc.Data}, genai.Text(prompt))
}

func (c *GeminiClient) generate(ctx context.Context, task Task, parts ...genai.Part) (string, error) {
	settings, ok := c.config.Settings(task)
	if !ok {
		return "", fmt.Errorf("no model configured for %s", task)
	}

	model := c.client.GenerativeModel(settings.Model)
	model.SetTemperature(settings.Temperature)
	model.ResponseMIMEType = "application/json"

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", fmt.Errorf("%s call to %s failed: %w", task, settings.Model, err)
	}

	text, err := responseText(resp)
	if err != nil {
		return "", fmt.Errorf("%s call to %s: %w", task, settings.Model, err)
	}
	return CleanJSONBlock(text), nil
}

// Model implements Client.
func (c *GeminiClient) Model(task Task) string {
	s, _ := c.config.Settings(task)
	return s.Model
}

// Close releases resources held by the client
func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// responseText joins the text parts of the first candidate. Safety stops and
// prompt-level blocks are reported as ErrBlocked.
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", fmt.Errorf("empty response")
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockReasonUnspecified {
		return "", fmt.Errorf("%w: %s", ErrBlocked, resp.PromptFeedback.BlockReason)
	}
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates in response")
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return "", fmt.Errorf("%w: safety", ErrBlocked)
	}
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("no content in response")
	}

	var b strings.Builder
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("no text parts in response")
	}
	return b.String(), nil
}
