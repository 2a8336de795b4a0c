package llm

import (
	"context"
	"strings"
)

// Provider is the interface for all LLM providers.
type Provider interface {
	GenerateResponse(ctx context.Context, prompt string, systemPrompt string, options map[string]interface{}) (string, error)
	// AdaptInstructions transforms raw instructions into model-specific formats
	AdaptInstructions(rawInstructions string) string
}

// Option keys understood by the providers.
const (
	OptModel          = "model"
	OptResponseFormat = "response_format"
	OptMedia          = "media"
	OptTemperature    = "temperature"
)

const defaultTemperature float32 = 0.1

// JSONResponse is the response_format value that asks for a JSON object.
func JSONResponse() map[string]interface{} {
	return map[string]interface{}{"type": "json_object"}
}

// wantsJSON reports whether the caller asked for JSON, falling back to a
// keyword heuristic on the prompts.
func wantsJSON(prompt, systemPrompt string, options map[string]interface{}) bool {
	if val, ok := options[OptResponseFormat].(map[string]interface{}); ok {
		return val["type"] == "json_object"
	}
	return strings.Contains(strings.ToLower(systemPrompt), "json") || strings.Contains(strings.ToLower(prompt), "json")
}

func modelFrom(options map[string]interface{}, fallback string) string {
	if val, ok := options[OptModel].(string); ok && val != "" {
		return val
	}
	return fallback
}

func mediaFrom(options map[string]interface{}) []Media {
	media, _ := options[OptMedia].([]Media)
	return media
}

func temperatureFrom(options map[string]interface{}) float32 {
	switch v := options[OptTemperature].(type) {
	case float32:
		return v
	case float64:
		return float32(v)
	}
	return defaultTemperature
}
