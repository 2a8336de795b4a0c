package llm

import (
	"context"
	"fmt"
	"strings"

	legacygenai "github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiLegacyProvider talks to Gemini through the older generative-ai-go
// SDK. It is registered as "gemini-legacy" for deployments pinned to it.
type GeminiLegacyProvider struct {
	Model  string
	APIKey string
}

var _ Provider = (*GeminiLegacyProvider)(nil)

func (p *GeminiLegacyProvider) GenerateResponse(ctx context.Context, prompt string, systemPrompt string, options map[string]interface{}) (string, error) {
	apiKey, err := geminiAPIKey(p.APIKey)
	if err != nil {
		return "", err
	}

	client, err := legacygenai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return "", fmt.Errorf("failed to create Gemini client: %w", err)
	}
	defer client.Close()

	name := p.Model
	if name == "" {
		name = "gemini-1.5-flash"
	}
	model := client.GenerativeModel(modelFrom(options, name))
	model.SetTemperature(temperatureFrom(options))
	if wantsJSON(prompt, systemPrompt, options) {
		model.ResponseMIMEType = "application/json"
	}
	if systemPrompt != "" {
		model.SystemInstruction = &legacygenai.Content{
			Parts: []legacygenai.Part{legacygenai.Text(systemPrompt)},
		}
	}

	var parts []legacygenai.Part
	for _, m := range mediaFrom(options) {
		parts = append(parts, legacygenai.Blob{MIMEType: m.MIMEType, Data: m.Data})
	}
	parts = append(parts, legacygenai.Text(prompt))

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", fmt.Errorf("gemini generation failed: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", nil
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(legacygenai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	return sb.String(), nil
}

func (p *GeminiLegacyProvider) AdaptInstructions(raw string) string {
	return raw
}
