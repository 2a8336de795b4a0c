package assistant

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"farmer_assist/pkg/api/httpx"
	"farmer_assist/pkg/core/prompt"
	"farmer_assist/pkg/core/utils"

	"go.uber.org/zap"
)

const agentType = "assistant"

// Executor is satisfied by *agent.Manager.
type Executor interface {
	ExecutePrompt(ctx context.Context, agentType, prompt, systemPrompt string, options map[string]interface{}) (string, error)
}

// Handler provides HTTP handlers for AI Assistant functionality
type Handler struct {
	exec    Executor
	prompts *prompt.Registry
	logger  *zap.Logger
}

// NewHandler creates a new assistant handler
func NewHandler(exec Executor, prompts *prompt.Registry, logger *zap.Logger) *Handler {
	if prompts == nil {
		prompts = prompt.Get()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{exec: exec, prompts: prompts, logger: logger.Named("assistant")}
}

// NavigationRequest represents the user's natural language query
type NavigationRequest struct {
	Message        string `json:"message"`
	CurrentSection string `json:"current_section,omitempty"`
}

// NavigationResponse contains the LLM's parsed intent
type NavigationResponse struct {
	Intent        string           `json:"intent"` // "navigate", "query", "chat"
	TargetSection string           `json:"target_section,omitempty"`
	SectionLabel  string           `json:"section_label,omitempty"`
	Confidence    float64          `json:"confidence"`
	Explanation   string           `json:"explanation"`
	Suggestions   []NavigationHint `json:"suggestions,omitempty"`
}

// NavigationHint provides alternative navigation suggestions
type NavigationHint struct {
	SectionID string `json:"section_id"`
	Label     string `json:"label"`
	Relevance string `json:"relevance"`
}

// NavigationRegistry defines all navigable sections for LLM context
const NavigationRegistry = `
Available sections in the farmer assistance app:

CROPS:
- diagnose: Crop Diagnosis - Upload a photo of a sick plant or describe the problem to get a diagnosis and remedy
- history: Diagnosis History - Previous diagnoses with their photos

MARKET:
- market: Market Prices - Today's mandi prices for a crop in a district, with a spoken summary
- exchange: Seed & Tool Exchange - Buy or sell seeds, fertilizer and equipment with other farmers

SUPPORT:
- schemes: Government Schemes - Subsidies, loans, insurance and eligibility for central and state schemes
- emergency: Emergency - Alert nearby authorities and farmers about fire, flood or a medical emergency
- food-call: Food Call - Tell workers in the field that a meal is ready
- notifications: Notifications - Alerts and announcements for your area

OTHER:
- home: Home - Main menu
- admin: Admin Broadcast - Send a message to all farmers, a state or a district
- settings: Settings - Language and profile
`

var validSections = map[string]string{
	"diagnose":      "Crop Diagnosis",
	"history":       "Diagnosis History",
	"market":        "Market Prices",
	"exchange":      "Seed & Tool Exchange",
	"schemes":       "Government Schemes",
	"emergency":     "Emergency",
	"food-call":     "Food Call",
	"notifications": "Notifications",
	"home":          "Home",
	"admin":         "Admin Broadcast",
	"settings":      "Settings",
}

// HandleNavigationIntent parses user message and returns navigation intent
func (h *Handler) HandleNavigationIntent(w http.ResponseWriter, r *http.Request) {
	var req NavigationRequest
	if err := httpx.Decode(w, r, &req); err != nil {
		httpx.RespondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		httpx.RespondError(w, "message is required", http.StatusBadRequest)
		return
	}

	navResp, err := h.askModel(r.Context(), req)
	if err != nil {
		h.logger.Warn("navigation model unavailable, using keywords", zap.Error(err))
		navResp = fallbackKeywordMatch(req.Message)
	}
	httpx.RespondJSON(w, navResp, http.StatusOK)
}

func (h *Handler) askModel(ctx context.Context, req NavigationRequest) (NavigationResponse, error) {
	pt, err := h.prompts.GetPrompt(prompt.PromptIDs.AssistantNavigation)
	if err != nil {
		return NavigationResponse{}, err
	}
	pctx := prompt.NewContext().
		Set("Sections", NavigationRegistry).
		Set("Message", req.Message)
	if req.CurrentSection != "" {
		pctx.Set("CurrentSection", req.CurrentSection)
	}
	userPrompt, err := prompt.RenderUserPrompt(pt, pctx)
	if err != nil {
		return NavigationResponse{}, err
	}

	resp, err := h.exec.ExecutePrompt(ctx, agentType, userPrompt, pt.SystemPrompt, nil)
	if err != nil {
		return NavigationResponse{}, err
	}

	var navResp NavigationResponse
	if _, err := utils.SmartParse(resp, &navResp); err != nil || navResp.Intent == "" {
		// Return raw response if parsing fails
		return NavigationResponse{
			Intent:      "chat",
			Explanation: strings.TrimSpace(resp),
			Confidence:  0.5,
		}, nil
	}

	if navResp.TargetSection != "" {
		label, ok := validSections[navResp.TargetSection]
		if !ok {
			navResp.Intent = "chat"
			navResp.TargetSection = ""
			navResp.SectionLabel = ""
		} else if navResp.SectionLabel == "" {
			navResp.SectionLabel = label
		}
	}
	return navResp, nil
}

type keyword struct {
	word  string
	id    string
	label string
}

// Checked in order; longer phrases come before the words they contain.
var keywords = []keyword{
	{"history", "history", "Diagnosis History"},
	{"ಇತಿಹಾಸ", "history", "Diagnosis History"},
	{"इतिहास", "history", "Diagnosis History"},
	{"diagnos", "diagnose", "Crop Diagnosis"},
	{"disease", "diagnose", "Crop Diagnosis"},
	{"pest", "diagnose", "Crop Diagnosis"},
	{"leaf", "diagnose", "Crop Diagnosis"},
	{"ರೋಗ", "diagnose", "Crop Diagnosis"},
	{"रोग", "diagnose", "Crop Diagnosis"},
	{"बीमारी", "diagnose", "Crop Diagnosis"},
	{"price", "market", "Market Prices"},
	{"market", "market", "Market Prices"},
	{"mandi", "market", "Market Prices"},
	{"ಬೆಲೆ", "market", "Market Prices"},
	{"ಮಾರುಕಟ್ಟೆ", "market", "Market Prices"},
	{"भाव", "market", "Market Prices"},
	{"कीमत", "market", "Market Prices"},
	{"मंडी", "market", "Market Prices"},
	{"scheme", "schemes", "Government Schemes"},
	{"subsidy", "schemes", "Government Schemes"},
	{"loan", "schemes", "Government Schemes"},
	{"insurance", "schemes", "Government Schemes"},
	{"ಯೋಜನೆ", "schemes", "Government Schemes"},
	{"ಸಬ್ಸಿಡಿ", "schemes", "Government Schemes"},
	{"योजना", "schemes", "Government Schemes"},
	{"emergency", "emergency", "Emergency"},
	{"fire", "emergency", "Emergency"},
	{"flood", "emergency", "Emergency"},
	{"ತುರ್ತು", "emergency", "Emergency"},
	{"ಬೆಂಕಿ", "emergency", "Emergency"},
	{"आपातकाल", "emergency", "Emergency"},
	{"आग", "emergency", "Emergency"},
	{"बाढ़", "emergency", "Emergency"},
	{"food", "food-call", "Food Call"},
	{"lunch", "food-call", "Food Call"},
	{"dinner", "food-call", "Food Call"},
	{"breakfast", "food-call", "Food Call"},
	{"ಊಟ", "food-call", "Food Call"},
	{"खाना", "food-call", "Food Call"},
	{"exchange", "exchange", "Seed & Tool Exchange"},
	{"seed", "exchange", "Seed & Tool Exchange"},
	{"fertilizer", "exchange", "Seed & Tool Exchange"},
	{"tractor", "exchange", "Seed & Tool Exchange"},
	{"ಬೀಜ", "exchange", "Seed & Tool Exchange"},
	{"ಗೊಬ್ಬರ", "exchange", "Seed & Tool Exchange"},
	{"बीज", "exchange", "Seed & Tool Exchange"},
	{"खाद", "exchange", "Seed & Tool Exchange"},
	{"notification", "notifications", "Notifications"},
	{"alert", "notifications", "Notifications"},
	{"broadcast", "admin", "Admin Broadcast"},
	{"settings", "settings", "Settings"},
	{"language", "settings", "Settings"},
	{"ಭಾಷೆ", "settings", "Settings"},
	{"भाषा", "settings", "Settings"},
	{"home", "home", "Home"},
}

// fallbackKeywordMatch provides basic keyword-based navigation when LLM is unavailable
func fallbackKeywordMatch(message string) NavigationResponse {
	msg := strings.ToLower(message)

	for _, kw := range keywords {
		if strings.Contains(msg, kw.word) {
			return NavigationResponse{
				Intent:        "navigate",
				TargetSection: kw.id,
				SectionLabel:  kw.label,
				Confidence:    0.8,
				Explanation:   fmt.Sprintf("Matched keyword '%s', opening %s", kw.word, kw.label),
			}
		}
	}

	return NavigationResponse{
		Intent:      "chat",
		Confidence:  1.0,
		Explanation: "No navigation intent detected",
	}
}
