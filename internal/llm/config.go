// Package llm provides LLM configuration and a provider-neutral client used by
// resume screening and JD generation.
package llm

import "maps"

// Task identifies what a model call is for. Each task has its own model and
// sampling temperature.
type Task string

const (
	// TaskExtraction classifies a document and transcribes resume text.
	TaskExtraction Task = "extraction"
	// TaskEvaluation scores a resume against a job description.
	TaskEvaluation Task = "evaluation"
	// TaskJDGeneration drafts a job description from an offer.
	TaskJDGeneration Task = "jd_generation"
)

// Provider represents an LLM provider
type Provider string

// ProviderGemini is the Google Gemini provider
const ProviderGemini Provider = "gemini"

// TaskSettings selects the model and temperature for one task.
type TaskSettings struct {
	Model       string
	Temperature float32
}

// Config holds the per-task model configuration.
type Config struct {
	Provider Provider
	Tasks    map[Task]TaskSettings
}

// DefaultConfig returns the Gemini models used when nothing is overridden.
// Screening tasks run at or near zero temperature.
func DefaultConfig() *Config {
	return &Config{
		Provider: ProviderGemini,
		Tasks: map[Task]TaskSettings{
			TaskExtraction:   {Model: "gemini-2.5-flash-lite", Temperature: 0},
			TaskEvaluation:   {Model: "gemini-2.5-flash", Temperature: 0.1},
			TaskJDGeneration: {Model: "gemini-2.5-pro", Temperature: 0.7},
		},
	}
}

// Settings returns the settings for task. A task without its own entry uses
// the evaluation settings.
func (c *Config) Settings(task Task) (TaskSettings, bool) {
	if s, ok := c.Tasks[task]; ok && s.Model != "" {
		return s, true
	}
	if s, ok := c.Tasks[TaskEvaluation]; ok && s.Model != "" {
		return s, true
	}
	return TaskSettings{}, false
}

// WithModel returns a copy of c that uses model for task. An empty model
// leaves c's choice in place.
func (c *Config) WithModel(task Task, model string) *Config {
	next := &Config{Provider: c.Provider, Tasks: maps.Clone(c.Tasks)}
	if next.Tasks == nil {
		next.Tasks = make(map[Task]TaskSettings)
	}
	if model == "" {
		return next
	}
	s := next.Tasks[task]
	s.Model = model
	next.Tasks[task] = s
	return next
}
