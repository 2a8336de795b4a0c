package flow

import (
	"context"
	"fmt"
	"strings"

	"farmer_assist/pkg/core/i18n"
	"farmer_assist/pkg/core/llm"
	"farmer_assist/pkg/core/metrics"
	"farmer_assist/pkg/core/prompt"
	"farmer_assist/pkg/core/tracing"
	"farmer_assist/pkg/core/utils"

	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// Agent types, matching the keys of config/models.yaml.
const (
	AgentDiagnosis = "diagnosis"
	AgentMarket    = "market"
	AgentSchemes   = "schemes"
	AgentSpeech    = "speech"
)

type AnalyzePlantImageInput struct {
	PhotoDataURI string `json:"photoDataUri,omitempty"`
	TextQuery    string `json:"textQuery,omitempty"`
	Language     string `json:"language"`
}

type AnalyzePlantImageOutput struct {
	Diagnosis string `json:"diagnosis"`
}

var analyzePlantImage = Flow[AnalyzePlantImageInput, AnalyzePlantImageOutput]{
	Name:     "analyzePlantImage",
	PromptID: prompt.PromptIDs.DiagnosePlant,
	Agent:    AgentDiagnosis,
	Prepare: func(in AnalyzePlantImageInput) (*prompt.PromptExecutionContext, []llm.Media, error) {
		query := strings.TrimSpace(in.TextQuery)
		if query == "" && in.PhotoDataURI == "" {
			return nil, nil, ErrNoInput
		}

		ctx := prompt.NewContext().
			Set("Language", languageName(in.Language)).
			Set("TextQuery", query)

		var media []llm.Media
		if in.PhotoDataURI != "" {
			m, err := llm.ParseDataURI(in.PhotoDataURI)
			if err != nil {
				return nil, nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
			}
			media = append(media, m)
			ctx.Set("HasPhoto", true)
		}
		return ctx, media, nil
	},
	Fallback: func(raw string) AnalyzePlantImageOutput {
		return AnalyzePlantImageOutput{Diagnosis: raw}
	},
}

// AnalyzePlantImage diagnoses diseases or pests from a photo, a question, or both.
func (r *Runner) AnalyzePlantImage(ctx context.Context, in AnalyzePlantImageInput) (AnalyzePlantImageOutput, error) {
	return analyzePlantImage.Run(ctx, r, in)
}

type GetMarketInsightsInput struct {
	CropQuery  string `json:"cropQuery"`
	Location   string `json:"location"`
	MarketData string `json:"marketData"` // JSON document with a records array
	Language   string `json:"language"`
}

type GetMarketInsightsOutput struct {
	MarketSummary string `json:"marketSummary"`
}

var getMarketInsights = Flow[GetMarketInsightsInput, GetMarketInsightsOutput]{
	Name:     "getMarketInsights",
	PromptID: prompt.PromptIDs.MarketInsights,
	Agent:    AgentMarket,
	Prepare: func(in GetMarketInsightsInput) (*prompt.PromptExecutionContext, []llm.Media, error) {
		query := strings.TrimSpace(in.CropQuery)
		if query == "" {
			return nil, nil, ErrEmptyQuery
		}
		location := strings.TrimSpace(in.Location)
		if location == "" {
			return nil, nil, fmt.Errorf("%w: location is required", ErrInvalidInput)
		}
		data := strings.TrimSpace(in.MarketData)
		if data == "" {
			data = `{"records":[]}`
		}
		return prompt.NewContext().
			Set("CropQuery", query).
			Set("Location", location).
			Set("MarketData", data).
			Set("Language", languageName(in.Language)), nil, nil
	},
	Fallback: func(raw string) GetMarketInsightsOutput {
		return GetMarketInsightsOutput{MarketSummary: raw}
	},
}

// GetMarketInsights summarizes prices for the crop in the farmer's question
// and recommends whether to sell.
func (r *Runner) GetMarketInsights(ctx context.Context, in GetMarketInsightsInput) (GetMarketInsightsOutput, error) {
	return getMarketInsights.Run(ctx, r, in)
}

type SchemeDocument struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type GetSchemeInformationInput struct {
	SchemeQuery     string           `json:"schemeQuery"`
	SchemeDocuments []SchemeDocument `json:"schemeDocuments"`
	Language        string           `json:"language"`
	State           string           `json:"state"`
	District        string           `json:"district"`
	Age             *int             `json:"age,omitempty"`
}

type GetSchemeInformationOutput struct {
	SchemeInformation    string `json:"schemeInformation"`
	OtherRelevantSchemes string `json:"otherRelevantSchemes,omitempty"`
}

var getSchemeInformation = Flow[GetSchemeInformationInput, GetSchemeInformationOutput]{
	Name:     "getSchemeInformation",
	PromptID: prompt.PromptIDs.SchemeInformation,
	Agent:    AgentSchemes,
	Prepare: func(in GetSchemeInformationInput) (*prompt.PromptExecutionContext, []llm.Media, error) {
		query := strings.TrimSpace(in.SchemeQuery)
		if query == "" {
			return nil, nil, ErrEmptyQuery
		}
		if len(in.SchemeDocuments) == 0 {
			return nil, nil, fmt.Errorf("%w: at least one scheme document is required", ErrInvalidInput)
		}
		ctx := prompt.NewContext().
			Set("SchemeQuery", query).
			Set("Documents", in.SchemeDocuments).
			Set("State", strings.TrimSpace(in.State)).
			Set("District", strings.TrimSpace(in.District)).
			Set("Language", languageName(in.Language))
		if in.Age != nil {
			if *in.Age < 0 || *in.Age > 130 {
				return nil, nil, fmt.Errorf("%w: age %d out of range", ErrInvalidInput, *in.Age)
			}
			if *in.Age > 0 {
				ctx.Set("Age", *in.Age)
			}
		}
		return ctx, nil, nil
	},
	Fallback: func(raw string) GetSchemeInformationOutput {
		return GetSchemeInformationOutput{SchemeInformation: raw}
	},
}

// GetSchemeInformation answers a scheme question from the supplied documents
// and lists other schemes the farmer may qualify for.
func (r *Runner) GetSchemeInformation(ctx context.Context, in GetSchemeInformationInput) (GetSchemeInformationOutput, error) {
	return getSchemeInformation.Run(ctx, r, in)
}

type TextToSpeechInput struct {
	Text     string `json:"text"`
	Language string `json:"language,omitempty"`
}

type TextToSpeechOutput struct {
	AudioDataURI string `json:"audioDataUri"`
}

// TextToSpeech cleans text for reading aloud and synthesizes it.
func (r *Runner) TextToSpeech(ctx context.Context, in TextToSpeechInput) (out TextToSpeechOutput, err error) {
	const name = "textToSpeech"
	ctx, span := tracing.Tracer().Start(ctx, "flow."+name)
	defer func() {
		status := "ok"
		if err != nil {
			status = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		metrics.FlowRequestsTotal.WithLabelValues(name, status).Inc()
		span.End()
	}()

	text := utils.CleanForSpeech(in.Text)
	if text == "" {
		return out, ErrEmptyText
	}
	if r.speech == nil {
		return out, fmt.Errorf("flow %s: no speech provider configured", name)
	}

	synth, err := r.speech.Synthesizer(r.voice.Provider)
	if err != nil {
		return out, fmt.Errorf("flow %s: %w", name, err)
	}

	lang, _ := i18n.Resolve(in.Language)
	r.logger.Debug("synthesizing speech",
		zap.String("provider", r.voice.Provider),
		zap.String("locale", lang.Locale),
		zap.Int("chars", len(text)))

	audio, err := synth.Synthesize(ctx, text, r.voice.Voice, lang.Locale)
	if err != nil {
		return out, fmt.Errorf("flow %s: %w", name, err)
	}
	if len(audio.Data) == 0 {
		return out, fmt.Errorf("flow %s: %w", name, ErrNoOutput)
	}
	return TextToSpeechOutput{AudioDataURI: audio.DataURI()}, nil
}

func languageName(s string) string {
	lang, _ := i18n.Resolve(s)
	return lang.Name
}
