package diagnosis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/remedyd/internal/engine"
)

const diagnosisPrompt = `You are an expert infrastructure engineer. Analyze this alert and provide a diagnosis.

Alert:
- Message: %s
- Host: %s
- Severity: %s
- Source: %s
- Labels: %s

Respond with ONLY a JSON object:
{
  "root_cause": "brief description of the root cause",
  "confidence": 0-100,
  "affected_components": ["component", ...],
  "recommendations": [
    {
      "command": "exact shell command to execute",
      "description": "what the command does",
      "risk": "none|low|medium|high|critical",
      "rollback": "command to undo the change, or empty"
    }
  ]
}

Focus on safe, effective remediation that can be automated.`

// llmResponse is the shape the model is asked to produce.
type llmResponse struct {
	RootCause          string                  `json:"root_cause"`
	Confidence         int                     `json:"confidence"`
	AffectedComponents []string                `json:"affected_components"`
	Recommendations    []engine.Recommendation `json:"recommendations"`
}

// LLMDiagnoser asks a language model for root-cause analysis. On any
// model or parse failure it falls back to the offline rules, so a flaky
// provider degrades quality rather than availability.
type LLMDiagnoser struct {
	model    llms.Model
	fallback *RulesDiagnoser
	logger   *zap.Logger
}

// NewLLMDiagnoser creates an OpenAI-compatible diagnoser.
func NewLLMDiagnoser(model, apiKey string, logger *zap.Logger) (*LLMDiagnoser, error) {
	if model == "" {
		return nil, errors.New("model is required")
	}
	if apiKey == "" {
		return nil, errors.New("api key is required")
	}

	llm, err := openai.New(
		openai.WithModel(model),
		openai.WithToken(apiKey),
	)
	if err != nil {
		return nil, fmt.Errorf("creating OpenAI client: %w", err)
	}

	return NewLLMDiagnoserWithModel(llm, logger), nil
}

// NewLLMDiagnoserWithModel wraps an existing langchaingo model.
func NewLLMDiagnoserWithModel(model llms.Model, logger *zap.Logger) *LLMDiagnoser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LLMDiagnoser{
		model:    model,
		fallback: NewRulesDiagnoser(logger),
		logger:   logger,
	}
}

// Diagnose asks the model for a structured diagnosis.
func (d *LLMDiagnoser) Diagnose(ctx context.Context, alert engine.Alert) (*engine.Diagnosis, error) {
	labels, _ := json.Marshal(alert.Labels)
	prompt := fmt.Sprintf(diagnosisPrompt,
		alert.Message, alert.Host, alert.Severity, alert.Source, string(labels))

	completion, err := llms.GenerateFromSinglePrompt(ctx, d.model, prompt,
		llms.WithTemperature(0.1),
		llms.WithJSONMode(),
	)
	if err != nil {
		d.logger.Warn("model diagnosis failed, using offline rules",
			zap.String("alert_id", alert.ID),
			zap.Error(err),
		)
		return d.fallback.Diagnose(ctx, alert)
	}

	parsed, err := parseResponse(completion)
	if err != nil {
		d.logger.Warn("unparseable model response, using offline rules",
			zap.String("alert_id", alert.ID),
			zap.Error(err),
		)
		return d.fallback.Diagnose(ctx, alert)
	}

	if parsed.Confidence < 0 {
		parsed.Confidence = 0
	}
	if parsed.Confidence > 100 {
		parsed.Confidence = 100
	}

	return &engine.Diagnosis{
		ID:                 uuid.New().String(),
		AlertID:            alert.ID,
		RootCause:          parsed.RootCause,
		Confidence:         parsed.Confidence,
		AffectedComponents: parsed.AffectedComponents,
		Recommendations:    parsed.Recommendations,
	}, nil
}

// parseResponse extracts the JSON object from a completion, tolerating
// markdown code fences some models wrap around JSON output.
func parseResponse(completion string) (*llmResponse, error) {
	text := strings.TrimSpace(completion)
	if start := strings.Index(text, "{"); start >= 0 {
		if end := strings.LastIndex(text, "}"); end > start {
			text = text[start : end+1]
		}
	}

	var parsed llmResponse
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return nil, fmt.Errorf("decoding model response: %w", err)
	}
	if parsed.RootCause == "" {
		return nil, errors.New("model response missing root cause")
	}
	return &parsed, nil
}
