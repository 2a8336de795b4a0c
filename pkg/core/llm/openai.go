package llm

import (
	"context"
	"fmt"
	"io"
	"os"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAICompatProvider serves every vendor that exposes an OpenAI-style
// chat completions endpoint.
type OpenAICompatProvider struct {
	Name         string
	BaseURL      string
	APIKeyEnvs   []string
	DefaultModel string
	// Style is prepended to system instructions by AdaptInstructions.
	Style string
}

var _ Provider = (*OpenAICompatProvider)(nil)

func NewOpenAIProvider() *OpenAICompatProvider {
	return &OpenAICompatProvider{Name: "openai", APIKeyEnvs: []string{"OPENAI_API_KEY"}, DefaultModel: openai.GPT4oMini}
}

func NewDeepSeekProvider() *OpenAICompatProvider {
	return &OpenAICompatProvider{
		Name:         "deepseek",
		BaseURL:      "https://api.deepseek.com/v1",
		APIKeyEnvs:   []string{"DEEPSEEK_API_KEY"},
		DefaultModel: "deepseek-chat",
	}
}

func NewQwenProvider() *OpenAICompatProvider {
	return &OpenAICompatProvider{
		Name:         "qwen",
		BaseURL:      "https://dashscope.aliyuncs.com/compatible-mode/v1",
		APIKeyEnvs:   []string{"DASHSCOPE_API_KEY", "QWEN_API_KEY"},
		DefaultModel: "qwen-max",
	}
}

func NewKimiProvider() *OpenAICompatProvider {
	return &OpenAICompatProvider{
		Name:         "kimi",
		BaseURL:      "https://api.moonshot.cn/v1",
		APIKeyEnvs:   []string{"MOONSHOT_API_KEY"},
		DefaultModel: "moonshot-v1-8k",
	}
}

func NewDoubaoProvider() *OpenAICompatProvider {
	return &OpenAICompatProvider{
		Name:         "doubao",
		BaseURL:      "https://ark.cn-beijing.volces.com/api/v3",
		APIKeyEnvs:   []string{"ARK_API_KEY"},
		DefaultModel: "doubao-pro-32k",
	}
}

func (p *OpenAICompatProvider) client() (*openai.Client, error) {
	var apiKey string
	for _, env := range p.APIKeyEnvs {
		if apiKey = os.Getenv(env); apiKey != "" {
			break
		}
	}
	if apiKey == "" {
		return nil, fmt.Errorf("%s API key missing: set %v", p.Name, p.APIKeyEnvs)
	}

	cfg := openai.DefaultConfig(apiKey)
	if p.BaseURL != "" {
		cfg.BaseURL = p.BaseURL
	}
	return openai.NewClientWithConfig(cfg), nil
}

func (p *OpenAICompatProvider) GenerateResponse(ctx context.Context, prompt string, systemPrompt string, options map[string]interface{}) (string, error) {
	client, err := p.client()
	if err != nil {
		return "", err
	}

	var messages []openai.ChatCompletionMessage
	if systemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: systemPrompt})
	}

	user := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser}
	if media := mediaFrom(options); len(media) > 0 {
		user.MultiContent = []openai.ChatMessagePart{{Type: openai.ChatMessagePartTypeText, Text: prompt}}
		for _, m := range media {
			user.MultiContent = append(user.MultiContent, openai.ChatMessagePart{
				Type:     openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{URL: m.DataURI(), Detail: openai.ImageURLDetailAuto},
			})
		}
	} else {
		user.Content = prompt
	}
	messages = append(messages, user)

	req := openai.ChatCompletionRequest{
		Model:       modelFrom(options, p.DefaultModel),
		Messages:    messages,
		Temperature: temperatureFrom(options),
	}
	if wantsJSON(prompt, systemPrompt, options) {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject}
	}

	resp, err := client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("%s completion failed: %w", p.Name, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s returned no choices", p.Name)
	}
	return resp.Choices[0].Message.Content, nil
}

func (p *OpenAICompatProvider) AdaptInstructions(raw string) string {
	if p.Style == "" || raw == "" {
		return raw
	}
	return p.Style + raw
}

// OpenAISynthesizer uses the OpenAI speech endpoint and requests WAV output.
type OpenAISynthesizer struct {
	Model string
	Voice string
}

var _ Synthesizer = (*OpenAISynthesizer)(nil)

// The OpenAI speech API infers the language from the input text.
func (s *OpenAISynthesizer) Synthesize(ctx context.Context, text, voice, _ string) (Audio, error) {
	client, err := NewOpenAIProvider().client()
	if err != nil {
		return Audio{}, err
	}

	model := openai.TTSModel1
	if s.Model != "" {
		model = openai.SpeechModel(s.Model)
	}
	if voice == "" {
		voice = s.Voice
	}
	if voice == "" {
		voice = string(openai.VoiceAlloy)
	}

	resp, err := client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          model,
		Input:          text,
		Voice:          openai.SpeechVoice(voice),
		ResponseFormat: openai.SpeechResponseFormatWav,
	})
	if err != nil {
		return Audio{}, fmt.Errorf("openai speech synthesis failed: %w", err)
	}
	defer resp.Close()

	data, err := io.ReadAll(resp)
	if err != nil {
		return Audio{}, fmt.Errorf("failed to read speech audio: %w", err)
	}
	return Audio{MIMEType: "audio/wav", Data: data}, nil
}
