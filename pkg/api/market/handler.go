package market

import (
	"context"
	"net/http"
	"strings"

	"farmer_assist/pkg/api/httpx"
	"farmer_assist/pkg/api/speech"
	coreMarket "farmer_assist/pkg/core/market"

	"go.uber.org/zap"
)

// Service is satisfied by *market.Service.
type Service interface {
	Lookup(ctx context.Context, q coreMarket.Query) (*coreMarket.Response, error)
	Insights(ctx context.Context, req coreMarket.InsightRequest) (*coreMarket.InsightResult, error)
}

type InsightsRequest struct {
	Query     string `json:"query"`
	Location  string `json:"location"`
	Commodity string `json:"commodity,omitempty"`
	Language  string `json:"language,omitempty"`
	Speak     bool   `json:"speak,omitempty"`
}

type InsightsResponse struct {
	MarketSummary string               `json:"marketSummary"`
	MarketData    *coreMarket.Response `json:"marketData"`
	AudioDataURI  string               `json:"audioDataUri,omitempty"`
}

type Handler struct {
	svc     Service
	speaker speech.Speaker
	logger  *zap.Logger
}

func NewHandler(svc Service, speaker speech.Speaker, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, speaker: speaker, logger: logger.Named("market_api")}
}

// Prices returns raw mandi prices for ?district=&commodity=&limit=.
func (h *Handler) Prices(w http.ResponseWriter, r *http.Request) {
	q := coreMarket.Query{
		District:  strings.TrimSpace(r.URL.Query().Get("district")),
		Commodity: strings.TrimSpace(r.URL.Query().Get("commodity")),
		Limit:     httpx.ParseIntQuery(r, "limit", 0),
	}
	if q.District == "" {
		httpx.RespondError(w, "district is required", http.StatusBadRequest)
		return
	}
	resp, err := h.svc.Lookup(r.Context(), q)
	if err != nil {
		httpx.Fail(w, h.logger, err)
		return
	}
	httpx.RespondJSON(w, resp, http.StatusOK)
}

// Insights answers a price question in the farmer's language.
func (h *Handler) Insights(w http.ResponseWriter, r *http.Request) {
	var req InsightsRequest
	if err := httpx.Decode(w, r, &req); err != nil {
		httpx.RespondError(w, err.Error(), http.StatusBadRequest)
		return
	}

	res, err := h.svc.Insights(r.Context(), coreMarket.InsightRequest{
		Query:     req.Query,
		Location:  req.Location,
		Commodity: req.Commodity,
		Language:  req.Language,
	})
	if err != nil {
		httpx.Fail(w, h.logger, err)
		return
	}

	out := InsightsResponse{MarketSummary: res.Summary, MarketData: res.Data}
	if req.Speak {
		out.AudioDataURI = speech.Optional(r.Context(), h.speaker, h.logger, res.Summary, req.Language)
	}
	httpx.RespondJSON(w, out, http.StatusOK)
}
