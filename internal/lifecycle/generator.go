package lifecycle

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/jonathan/talent-pipeline/internal/llm"
	"github.com/jonathan/talent-pipeline/internal/logger"
	"github.com/jonathan/talent-pipeline/internal/prompts"
	"github.com/jonathan/talent-pipeline/internal/schemas"
	"github.com/jonathan/talent-pipeline/internal/types"
)

// GeneratedJD is the narrative content of an AI-authored JD.
type GeneratedJD struct {
	JobSummary       string   `json:"jobSummary"`
	Responsibilities []string `json:"responsibilities"`
	Requirements     []string `json:"requirements"`
	Benefits         []string `json:"benefits"`
	AdditionalInfo   string   `json:"additionalInfo"`

	// Raw is the cleaned model response, kept as provenance.
	Raw   string `json:"-"`
	Model string `json:"-"`
}

// JDGenerator writes a JD from an offer and company context.
type JDGenerator interface {
	Generate(ctx context.Context, offer *types.Offer, req types.GenerateJDRequest) (*GeneratedJD, error)
}

// LLMGenerator implements JDGenerator with an llm.Client.
type LLMGenerator struct {
	client llm.Client
	logger *zap.Logger
}

// NewLLMGenerator creates a generator backed by client.
func NewLLMGenerator(client llm.Client, log *zap.Logger) *LLMGenerator {
	return &LLMGenerator{client: client, logger: logger.OrNop(log)}
}

// Generate implements JDGenerator.
func (g *LLMGenerator) Generate(ctx context.Context, offer *types.Offer, req types.GenerateJDRequest) (*GeneratedJD, error) {
	prompt, err := prompts.Render(prompts.GenerateJD, map[string]string{
		"CompanyName":         req.CompanyName,
		"JobTitle":            offer.JobTitle,
		"EmploymentType":      orDefault(string(offer.EmploymentType)),
		"Location":            orDefault(joinNonEmpty(", ", offer.Location, offer.City, offer.State, offer.Country)),
		"Experience":          orDefault(offer.Experience),
		"Openings":            strconv.Itoa(offer.PositionAvailable),
		"Skills":              orDefault(strings.Join(offer.Skills, ", ")),
		"PreferredSkills":     orDefault(strings.Join(offer.PreferredSkills, ", ")),
		"Description":         orDefault(offer.Description),
		"Department":          orDefault(req.Department),
		"ReportingManager":    orDefault(req.ReportingManager),
		"KeyResponsibilities": orDefault(req.KeyResponsibilities),
		"Qualifications":      orDefault(req.Qualifications),
		"Benefits":            orDefault(req.Benefits),
		"AdditionalNotes":     orDefault(req.AdditionalNotes),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load JD prompt: %w", err)
	}

	raw, err := g.client.GenerateJSON(ctx, prompt, llm.TaskJDGeneration)
	if err != nil {
		return nil, fmt.Errorf("failed to generate job description: %w", err)
	}
	g.logger.Debug("JD generation response",
		zap.String(logger.FieldOfferID, offer.ID.String()),
		zap.String(logger.FieldModel, g.client.Model(llm.TaskJDGeneration)),
		zap.String("response", logger.Truncate(raw, 300)))

	cleaned := llm.StripControlChars(llm.CleanJSONBlock(raw))
	if err := schemas.Validate(schemas.JDGeneration, cleaned); err != nil {
		return nil, fmt.Errorf("generated job description is invalid: %w", err)
	}
	var out GeneratedJD
	if err := json.Unmarshal([]byte(cleaned), &out); err != nil {
		return nil, fmt.Errorf("failed to parse generated job description: %w", err)
	}
	out.Raw = cleaned
	out.Model = g.client.Model(llm.TaskJDGeneration)
	return &out, nil
}

func orDefault(s string) string {
	if strings.TrimSpace(s) == "" {
		return "Not specified"
	}
	return s
}

func joinNonEmpty(sep string, parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}

// NewPublicToken returns a random 32-character hex token for public JD links.
func NewPublicToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate public token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
