package exchange

import (
	"net/http"
	"strings"

	"farmer_assist/pkg/api/httpx"
	"farmer_assist/pkg/core/auth"
	coreExchange "farmer_assist/pkg/core/exchange"
	"farmer_assist/pkg/core/store"
	"farmer_assist/pkg/models"

	"go.uber.org/zap"
)

type Handler struct {
	svc    *coreExchange.Service
	logger *zap.Logger
}

func NewHandler(svc *coreExchange.Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger.Named("exchange_api")}
}

// List accepts ?kind=buy|sell&type=seed|fertilizer|equipment&q=&limit=.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	items, err := h.svc.List(r.Context(), store.ListingFilter{
		Kind:  models.ListingKind(strings.ToLower(q.Get("kind"))),
		Type:  models.ListingType(strings.ToLower(q.Get("type"))),
		Query: q.Get("q"),
		Limit: httpx.ParseIntQuery(r, "limit", 0),
	})
	if err != nil {
		httpx.Fail(w, h.logger, err)
		return
	}
	httpx.RespondJSON(w, items, http.StatusOK)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in models.Listing
	if err := httpx.Decode(w, r, &in); err != nil {
		httpx.RespondError(w, err.Error(), http.StatusBadRequest)
		return
	}
	owner := ""
	if u := auth.UserFromContext(r.Context()); u != nil {
		owner = u.ID
	}
	l, err := h.svc.Create(r.Context(), owner, in)
	if err != nil {
		httpx.Fail(w, h.logger, err)
		return
	}
	httpx.RespondJSON(w, l, http.StatusCreated)
}
