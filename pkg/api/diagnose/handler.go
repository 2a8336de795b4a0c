package diagnose

import (
	"context"
	"net/http"

	"farmer_assist/pkg/api/httpx"
	"farmer_assist/pkg/core/auth"
	"farmer_assist/pkg/core/diagnosis"
	"farmer_assist/pkg/models"

	"go.uber.org/zap"
)

// Service is satisfied by *diagnosis.Service.
type Service interface {
	Diagnose(ctx context.Context, userID string, req diagnosis.Request) (*diagnosis.Result, error)
	History(ctx context.Context, userID string, limit int) ([]models.Diagnosis, error)
}

type Handler struct {
	svc    Service
	logger *zap.Logger
}

func NewHandler(svc Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger.Named("diagnose_api")}
}

// Diagnose expects an authenticated user.
func (h *Handler) Diagnose(w http.ResponseWriter, r *http.Request) {
	var req diagnosis.Request
	if err := httpx.Decode(w, r, &req); err != nil {
		httpx.RespondError(w, err.Error(), http.StatusBadRequest)
		return
	}
	user := auth.UserFromContext(r.Context())
	if user == nil {
		httpx.Fail(w, h.logger, auth.ErrUnauthenticated)
		return
	}

	res, err := h.svc.Diagnose(r.Context(), user.ID, req)
	if err != nil {
		httpx.Fail(w, h.logger, err)
		return
	}
	httpx.RespondJSON(w, res, http.StatusOK)
}

// History lists the caller's previous diagnoses, newest first.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	if user == nil {
		httpx.Fail(w, h.logger, auth.ErrUnauthenticated)
		return
	}
	items, err := h.svc.History(r.Context(), user.ID, httpx.ParseIntQuery(r, "limit", 0))
	if err != nil {
		httpx.Fail(w, h.logger, err)
		return
	}
	httpx.RespondJSON(w, items, http.StatusOK)
}
