// Package flow runs the named prompt flows: a template is rendered, sent to
// the configured model in JSON mode, and the answer parsed into a typed
// result.
package flow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"farmer_assist/pkg/core/llm"
	"farmer_assist/pkg/core/metrics"
	"farmer_assist/pkg/core/prompt"
	"farmer_assist/pkg/core/tracing"
	"farmer_assist/pkg/core/utils"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

var (
	// ErrInvalidInput wraps every input validation failure.
	ErrInvalidInput = errors.New("invalid input")
	// ErrEmptyQuery is returned when the farmer's question is blank.
	ErrEmptyQuery = fmt.Errorf("%w: query is empty", ErrInvalidInput)
	// ErrNoInput is returned when a diagnosis has neither photo nor text.
	ErrNoInput = fmt.Errorf("%w: a photo or a text query is required", ErrInvalidInput)
	// ErrEmptyText is returned when nothing speakable is left after cleaning.
	ErrEmptyText = fmt.Errorf("%w: no text to speak", ErrInvalidInput)
	// ErrNoOutput is returned when the model answered with nothing usable.
	ErrNoOutput = errors.New("model returned no output")
)

// Executor sends a prompt to whichever model serves agentType.
type Executor interface {
	ExecutePrompt(ctx context.Context, agentType string, prompt string, systemPrompt string, options map[string]interface{}) (string, error)
}

// SpeechSource hands out speech synthesizers by provider name.
type SpeechSource interface {
	Synthesizer(name string) (llm.Synthesizer, error)
}

// SpeechConfig selects the synthesizer and voice for TextToSpeech.
type SpeechConfig struct {
	Provider string
	Voice    string
}

// Runner holds what every flow needs to reach a model.
type Runner struct {
	exec    Executor
	prompts *prompt.Registry
	speech  SpeechSource
	voice   SpeechConfig
	logger  *zap.Logger
}

func NewRunner(exec Executor, prompts *prompt.Registry, speech SpeechSource, voice SpeechConfig, logger *zap.Logger) *Runner {
	if prompts == nil {
		prompts = prompt.Get()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{exec: exec, prompts: prompts, speech: speech, voice: voice, logger: logger.Named("flow")}
}

// Flow describes one prompt flow. Prepare turns the input into template
// variables plus any media to attach. Fallback, when set, converts a reply
// that is not JSON into a result instead of failing. Results must carry the
// required properties of the template's response schema.
type Flow[In any, Out any] struct {
	Name     string
	PromptID string
	Agent    string
	Prepare  func(In) (*prompt.PromptExecutionContext, []llm.Media, error)
	Fallback func(raw string) Out
}

// Run executes the flow once. There is no retry.
func (f Flow[In, Out]) Run(ctx context.Context, r *Runner, in In) (out Out, err error) {
	start := time.Now()
	ctx, span := tracing.Tracer().Start(ctx, "flow."+f.Name)
	span.SetAttributes(attribute.String("flow.prompt_id", f.PromptID), attribute.String("flow.agent", f.Agent))
	defer func() {
		status := "ok"
		if err != nil {
			status = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		metrics.FlowRequestsTotal.WithLabelValues(f.Name, status).Inc()
		metrics.FlowDuration.WithLabelValues(f.Name).Observe(time.Since(start).Seconds())
		span.End()
	}()

	vars, media, err := f.Prepare(in)
	if err != nil {
		return out, err
	}

	pt, err := r.prompts.GetPrompt(f.PromptID)
	if err != nil {
		return out, fmt.Errorf("flow %s: %w", f.Name, err)
	}
	userPrompt, err := prompt.RenderUserPrompt(pt, vars)
	if err != nil {
		return out, fmt.Errorf("flow %s: %w", f.Name, err)
	}
	required, err := r.requiredFields(pt)
	if err != nil {
		return out, fmt.Errorf("flow %s: %w", f.Name, err)
	}

	options := map[string]interface{}{llm.OptResponseFormat: llm.JSONResponse()}
	if len(media) > 0 {
		options[llm.OptMedia] = media
	}

	raw, err := r.exec.ExecutePrompt(ctx, f.Agent, userPrompt, pt.SystemPrompt, options)
	if err != nil {
		return out, fmt.Errorf("flow %s: %w", f.Name, err)
	}

	cleaned := utils.CleanMarkdown(raw)
	if cleaned == "" {
		return out, fmt.Errorf("flow %s: %w", f.Name, ErrNoOutput)
	}

	var parsed Out
	if strings.Contains(cleaned, "{") {
		if _, perr := utils.SmartParse(raw, &parsed); perr == nil && complete(parsed, required) == nil {
			return parsed, nil
		}
	}

	// Prose answers are accepted as the primary field; broken JSON is not.
	if f.Fallback == nil || strings.HasPrefix(cleaned, "{") {
		r.logger.Warn("unusable model output", zap.String("flow", f.Name), zap.Int("length", len(raw)))
		return out, fmt.Errorf("flow %s: %w", f.Name, ErrNoOutput)
	}
	r.logger.Debug("model output was not JSON, using raw text", zap.String("flow", f.Name))
	out = f.Fallback(cleaned)
	if err := complete(out, required); err != nil {
		return out, fmt.Errorf("flow %s: %w", f.Name, err)
	}
	return out, nil
}

// requiredFields returns the properties the template's response schema
// requires. Templates without a schema fall back to the result's json tags.
func (r *Runner) requiredFields(pt *prompt.PromptTemplate) ([]string, error) {
	if pt.ResponseSchemaID == "" {
		return nil, nil
	}
	schema, err := r.prompts.GetSchema(pt.ResponseSchemaID)
	if err != nil {
		return nil, err
	}
	return schema.Required, nil
}

func complete(v any, required []string) error {
	if err := utils.RequireFields(v, required...); err != nil {
		return fmt.Errorf("%w: %v", ErrNoOutput, err)
	}
	return nil
}
