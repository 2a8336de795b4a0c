package llm

import (
	"context"
	"errors"
	"fmt"
	"os"

	"google.golang.org/genai"
)

// GeminiProvider implements the Provider interface for Google's Gemini models.
type GeminiProvider struct {
	Model  string // e.g. "gemini-2.0-flash"
	APIKey string // falls back to GEMINI_API_KEY / GOOGLE_API_KEY
}

// Ensure interface compliance
var _ Provider = (*GeminiProvider)(nil)

func geminiAPIKey(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		return key, nil
	}
	if key := os.Getenv("GOOGLE_API_KEY"); key != "" {
		return key, nil
	}
	return "", errors.New("GEMINI_API_KEY environment variable not set")
}

func newGeminiClient(ctx context.Context, explicitKey string) (*genai.Client, error) {
	apiKey, err := geminiAPIKey(explicitKey)
	if err != nil {
		return nil, err
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return client, nil
}

// GenerateResponse sends a generateContent request to the Gemini API. Media
// passed under OptMedia is attached ahead of the text prompt.
func (p *GeminiProvider) GenerateResponse(ctx context.Context, prompt string, systemPrompt string, options map[string]interface{}) (string, error) {
	client, err := newGeminiClient(ctx, p.APIKey)
	if err != nil {
		return "", err
	}

	model := p.Model
	if model == "" {
		model = "gemini-2.0-flash"
	}
	model = modelFrom(options, model)

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(temperatureFrom(options)),
	}
	if wantsJSON(prompt, systemPrompt, options) {
		config.ResponseMIMEType = "application/json"
	}
	if systemPrompt != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: systemPrompt}},
		}
	}

	media := mediaFrom(options)
	parts := make([]*genai.Part, 0, len(media)+1)
	for _, m := range media {
		parts = append(parts, genai.NewPartFromBytes(m.Data, m.MIMEType))
	}
	parts = append(parts, genai.NewPartFromText(prompt))
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	result, err := client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return "", fmt.Errorf("gemini generation failed: %w", err)
	}

	return result.Text(), nil
}

func (p *GeminiProvider) AdaptInstructions(raw string) string {
	return raw
}

// GeminiSynthesizer produces speech with the Gemini TTS models.
type GeminiSynthesizer struct {
	Model  string
	Voice  string
	APIKey string
}

var _ Synthesizer = (*GeminiSynthesizer)(nil)

func (s *GeminiSynthesizer) Synthesize(ctx context.Context, text, voice, locale string) (Audio, error) {
	client, err := newGeminiClient(ctx, s.APIKey)
	if err != nil {
		return Audio{}, err
	}

	model := s.Model
	if model == "" {
		model = "gemini-2.5-flash-preview-tts"
	}
	if voice == "" {
		voice = s.Voice
	}
	if voice == "" {
		voice = "Algenib"
	}

	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig: &genai.SpeechConfig{
			LanguageCode: locale,
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: voice},
			},
		},
	}

	result, err := client.Models.GenerateContent(ctx, model, genai.Text(text), config)
	if err != nil {
		return Audio{}, fmt.Errorf("gemini speech synthesis failed: %w", err)
	}

	for _, cand := range result.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part.InlineData == nil || len(part.InlineData.Data) == 0 {
				continue
			}
			blob := part.InlineData
			if isRawPCM(blob.MIMEType) {
				wav := EncodeWAV(blob.Data, pcmRate(blob.MIMEType), pcmChannels, pcmBitsPerSample)
				return Audio{MIMEType: "audio/wav", Data: wav}, nil
			}
			return Audio{MIMEType: blob.MIMEType, Data: blob.Data}, nil
		}
	}
	return Audio{}, errors.New("gemini returned no audio")
}
