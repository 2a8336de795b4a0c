package config

import (
	"net/http"

	"farmer_assist/pkg/api/httpx"
	"farmer_assist/pkg/core/agent"
	"farmer_assist/pkg/core/i18n"
)

type Response struct {
	ActiveProvider  string          `json:"active_provider"`
	Available       []string        `json:"available"`
	Languages       []i18n.Language `json:"languages"`
	DefaultLanguage string          `json:"default_language"`
}

type SwitchRequest struct {
	Provider string `json:"provider"`
}

// Handler holds dependencies for config endpoints
type Handler struct {
	AgentMgr *agent.Manager
}

// NewHandler creates a new config handler
func NewHandler(agentMgr *agent.Manager) *Handler {
	return &Handler{
		AgentMgr: agentMgr,
	}
}

func (h *Handler) HandleConfig(w http.ResponseWriter, r *http.Request) {
	httpx.RespondJSON(w, h.current(), http.StatusOK)
}

func (h *Handler) HandleSwitch(w http.ResponseWriter, r *http.Request) {
	var req SwitchRequest
	if err := httpx.Decode(w, r, &req); err != nil {
		httpx.RespondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.AgentMgr.SetGlobalProvider(req.Provider); err != nil {
		httpx.RespondError(w, err.Error(), http.StatusBadRequest)
		return
	}
	httpx.RespondJSON(w, h.current(), http.StatusOK)
}

func (h *Handler) current() Response {
	return Response{
		ActiveProvider:  h.AgentMgr.GetActiveProvider(),
		Available:       h.AgentMgr.Available(),
		Languages:       i18n.All(),
		DefaultLanguage: i18n.Default.Code,
	}
}
