package auth

import (
	"net/http"

	"farmer_assist/pkg/api/httpx"
	coreAuth "farmer_assist/pkg/core/auth"

	"go.uber.org/zap"
)

type StartRequest struct {
	Phone string `json:"phone"`
}

type StartResponse struct {
	VerificationID string `json:"verificationId"`
}

type VerifyRequest struct {
	VerificationID string `json:"verificationId"`
	Code           string `json:"code"`
	DisplayName    string `json:"displayName"`
}

type Handler struct {
	svc    *coreAuth.Service
	logger *zap.Logger
}

func NewHandler(svc *coreAuth.Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger.Named("auth_api")}
}

func (h *Handler) Anonymous(w http.ResponseWriter, r *http.Request) {
	sess, err := h.svc.SignInAnonymously(r.Context())
	if err != nil {
		httpx.Fail(w, h.logger, err)
		return
	}
	httpx.RespondJSON(w, sess, http.StatusCreated)
}

func (h *Handler) StartPhone(w http.ResponseWriter, r *http.Request) {
	var req StartRequest
	if err := httpx.Decode(w, r, &req); err != nil {
		httpx.RespondError(w, err.Error(), http.StatusBadRequest)
		return
	}
	id, err := h.svc.StartPhoneSignIn(r.Context(), req.Phone)
	if err != nil {
		httpx.Fail(w, h.logger, err)
		return
	}
	httpx.RespondJSON(w, StartResponse{VerificationID: id}, http.StatusAccepted)
}

func (h *Handler) VerifyPhone(w http.ResponseWriter, r *http.Request) {
	var req VerifyRequest
	if err := httpx.Decode(w, r, &req); err != nil {
		httpx.RespondError(w, err.Error(), http.StatusBadRequest)
		return
	}
	sess, err := h.svc.VerifyPhoneSignIn(r.Context(), req.VerificationID, req.Code, req.DisplayName)
	if err != nil {
		httpx.Fail(w, h.logger, err)
		return
	}
	httpx.RespondJSON(w, sess, http.StatusOK)
}

// Me returns the signed-in user.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user := coreAuth.UserFromContext(r.Context())
	if user == nil {
		httpx.Fail(w, h.logger, coreAuth.ErrUnauthenticated)
		return
	}
	httpx.RespondJSON(w, user, http.StatusOK)
}

func (h *Handler) SignOut(w http.ResponseWriter, r *http.Request) {
	if token := coreAuth.BearerToken(r); token != "" {
		h.svc.SignOut(token)
	}
	w.WriteHeader(http.StatusNoContent)
}
