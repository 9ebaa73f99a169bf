package lifecycle

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/talent-pipeline/internal/llm"
	"github.com/jonathan/talent-pipeline/internal/types"
)

// MockLLMClient implements llm.Client for testing
type MockLLMClient struct {
	GenerateJSONFunc func(ctx context.Context, prompt string, task llm.Task) (string, error)
}

func (m *MockLLMClient) GenerateJSON(ctx context.Context, prompt string, task llm.Task) (string, error) {
	if m.GenerateJSONFunc != nil {
		return m.GenerateJSONFunc(ctx, prompt, task)
	}
	return "", errors.New("not configured")
}

func (m *MockLLMClient) GenerateJSONWithDocument(context.Context, string, llm.Document, llm.Task) (string, error) {
	return "", errors.New("not supported")
}

func (m *MockLLMClient) Model(llm.Task) string { return "mock-model" }

func (m *MockLLMClient) Close() error { return nil }

func testOffer() *types.Offer {
	return &types.Offer{
		ID:                uuid.New(),
		JobTitle:          "Site Reliability Engineer",
		Skills:            []string{"Go", "Kubernetes"},
		PositionAvailable: 2,
		City:              "Pune",
		Country:           "India",
		EmploymentType:    types.EmploymentFullTime,
	}
}

func TestLLMGenerator_Generate(t *testing.T) {
	var gotPrompt string
	client := &MockLLMClient{
		GenerateJSONFunc: func(_ context.Context, prompt string, task llm.Task) (string, error) {
			gotPrompt = prompt
			assert.Equal(t, llm.TaskJDGeneration, task)
			return "```json\n" + `{"jobSummary": "Keep Acme up.", "responsibilities": ["On-call"], "requirements": ["Go"], "benefits": ["Remote"], "additionalInfo": "Hybrid"}` + "\n```", nil
		},
	}

	out, err := NewLLMGenerator(client, nil).Generate(context.Background(), testOffer(), types.GenerateJDRequest{
		CompanyName: "Acme",
		Department:  "Infrastructure",
	})
	require.NoError(t, err)
	assert.Equal(t, "Keep Acme up.", out.JobSummary)
	assert.Equal(t, []string{"On-call"}, out.Responsibilities)
	assert.Equal(t, "mock-model", out.Model)
	assert.Contains(t, out.Raw, "Keep Acme up.")

	assert.Contains(t, gotPrompt, "Acme")
	assert.Contains(t, gotPrompt, "Site Reliability Engineer")
	assert.Contains(t, gotPrompt, "Go, Kubernetes")
	assert.Contains(t, gotPrompt, "Pune, India")
	assert.Contains(t, gotPrompt, "Department: Infrastructure")
	assert.Contains(t, gotPrompt, "Reporting manager: Not specified")
}

func TestLLMGenerator_InvalidResponse(t *testing.T) {
	responses := []string{
		"Sorry, I cannot help with that.",
		`{"jobSummary": "x", "responsibilities": [], "requirements": ["Go"]}`,
		`{"jobSummary": "", "responsibilities": ["a"], "requirements": ["b"]}`,
	}
	for _, resp := range responses {
		client := &MockLLMClient{
			GenerateJSONFunc: func(context.Context, string, llm.Task) (string, error) { return resp, nil },
		}
		_, err := NewLLMGenerator(client, nil).Generate(context.Background(), testOffer(), types.GenerateJDRequest{CompanyName: "Acme"})
		assert.Error(t, err, "response %q", resp)
	}
}

func TestLLMGenerator_CallError(t *testing.T) {
	client := &MockLLMClient{
		GenerateJSONFunc: func(context.Context, string, llm.Task) (string, error) {
			return "", errors.New("quota exceeded")
		},
	}
	_, err := NewLLMGenerator(client, nil).Generate(context.Background(), testOffer(), types.GenerateJDRequest{CompanyName: "Acme"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}
