package screening

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"github.com/jonathan/talent-pipeline/internal/fetch"
	"github.com/jonathan/talent-pipeline/internal/llm"
	"github.com/jonathan/talent-pipeline/internal/logger"
	"github.com/jonathan/talent-pipeline/internal/prompts"
	"github.com/jonathan/talent-pipeline/internal/schemas"
)

// maxResumeRunes bounds the resume text placed in a prompt.
const maxResumeRunes = 30000

const logPreviewRunes = 300

// LLMClassifier implements Classifier on top of an llm.Client.
type LLMClassifier struct {
	client llm.Client
	logger *zap.Logger
}

// NewLLMClassifier creates a classifier backed by client.
func NewLLMClassifier(client llm.Client, log *zap.Logger) *LLMClassifier {
	return &LLMClassifier{client: client, logger: logger.OrNop(log)}
}

// Extract implements Classifier. Text documents are embedded in the prompt;
// binary documents are attached inline.
func (c *LLMClassifier) Extract(ctx context.Context, doc *fetch.Document) (*Extraction, error) {
	data := map[string]string{
		"DocumentNote": "The document is attached.",
		"DocumentText": "",
	}
	if doc.IsText() {
		data["DocumentNote"] = "The document text is reproduced below."
		data["DocumentText"] = "DOCUMENT:\n" + truncateRunes(llm.StripControlChars(doc.Text), maxResumeRunes)
	}

	prompt, err := prompts.Render(prompts.ExtractResume, data)
	if err != nil {
		return nil, &ClassifierError{Stage: StageExtraction, Message: "prompt unavailable", Cause: err}
	}

	var raw string
	if doc.IsText() {
		raw, err = c.client.GenerateJSON(ctx, prompt, llm.TaskExtraction)
	} else {
		raw, err = c.client.GenerateJSONWithDocument(ctx, prompt, llm.Document{MIMEType: doc.ContentType, Data: doc.Data}, llm.TaskExtraction)
	}
	if err != nil {
		return nil, &ClassifierError{Stage: StageExtraction, Message: "classifier call failed", Cause: err}
	}
	c.logger.Debug("extraction response",
		zap.String(logger.FieldModel, c.client.Model(llm.TaskExtraction)),
		zap.String("response", logger.Truncate(raw, logPreviewRunes)))

	var out Extraction
	if err := decodeResponse(StageExtraction, schemas.ResumeExtraction, raw, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Evaluate implements Classifier.
func (c *LLMClassifier) Evaluate(ctx context.Context, req EvaluationRequest) (*Evaluation, error) {
	prompt, err := prompts.Render(prompts.EvaluateResume, map[string]string{
		"JobSummary":       orNotSpecified(req.JobSummary),
		"Responsibilities": bulletList(req.Responsibilities),
		"Requirements":     bulletList(req.Requirements.Requirements),
		"CandidateID":      req.CandidateRef,
		"ResumeText":       truncateRunes(llm.StripControlChars(req.ExtractedText), maxResumeRunes),
	})
	if err != nil {
		return nil, &ClassifierError{Stage: StageEvaluation, Message: "prompt unavailable", Cause: err}
	}

	raw, err := c.client.GenerateJSON(ctx, prompt, llm.TaskEvaluation)
	if err != nil {
		return nil, &ClassifierError{Stage: StageEvaluation, Message: "classifier call failed", Cause: err}
	}
	c.logger.Debug("evaluation response",
		zap.String(logger.FieldModel, c.client.Model(llm.TaskEvaluation)),
		zap.String("response", logger.Truncate(raw, logPreviewRunes)))

	var out Evaluation
	if err := decodeResponse(StageEvaluation, schemas.ResumeEvaluation, raw, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// decodeResponse strips control characters, validates against the schema and
// decodes into out.
func decodeResponse(stage Stage, schema schemas.Name, raw string, out any) error {
	cleaned := llm.StripControlChars(llm.CleanJSONBlock(raw))
	if err := schemas.Validate(schema, cleaned); err != nil {
		return &ClassifierError{Stage: stage, Message: "malformed classifier response", Cause: err}
	}
	if err := json.Unmarshal([]byte(cleaned), out); err != nil {
		return &ClassifierError{Stage: stage, Message: "malformed classifier response", Cause: err}
	}
	return nil
}

func bulletList(items []string) string {
	var lines []string
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			lines = append(lines, "- "+item)
		}
	}
	if len(lines) == 0 {
		return "Not specified"
	}
	return strings.Join(lines, "\n")
}

func orNotSpecified(s string) string {
	if strings.TrimSpace(s) == "" {
		return "Not specified"
	}
	return s
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
