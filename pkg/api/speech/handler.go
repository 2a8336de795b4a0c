package speech

import (
	"context"
	"net/http"

	"farmer_assist/pkg/api/httpx"
	"farmer_assist/pkg/core/flow"

	"go.uber.org/zap"
)

// Speaker is satisfied by *flow.Runner.
type Speaker interface {
	TextToSpeech(ctx context.Context, in flow.TextToSpeechInput) (flow.TextToSpeechOutput, error)
}

type Request struct {
	Text     string `json:"text"`
	Language string `json:"language,omitempty"`
}

// Handler serves text-to-speech requests.
type Handler struct {
	speaker Speaker
	logger  *zap.Logger
}

func NewHandler(speaker Speaker, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{speaker: speaker, logger: logger.Named("speech")}
}

func (h *Handler) Speak(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := httpx.Decode(w, r, &req); err != nil {
		httpx.RespondError(w, err.Error(), http.StatusBadRequest)
		return
	}
	out, err := h.speaker.TextToSpeech(r.Context(), flow.TextToSpeechInput{Text: req.Text, Language: req.Language})
	if err != nil {
		httpx.Fail(w, h.logger, err)
		return
	}
	httpx.RespondJSON(w, out, http.StatusOK)
}

// Optional voices text for endpoints that accept "speak": true. A speech
// failure is logged and yields "" so the text answer still goes out.
func Optional(ctx context.Context, s Speaker, logger *zap.Logger, text, language string) string {
	if s == nil || text == "" {
		return ""
	}
	out, err := s.TextToSpeech(ctx, flow.TextToSpeechInput{Text: text, Language: language})
	if err != nil {
		if logger != nil {
			logger.Warn("speech synthesis failed", zap.Error(err))
		}
		return ""
	}
	return out.AudioDataURI
}
