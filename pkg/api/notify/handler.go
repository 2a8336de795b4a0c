package notify

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"farmer_assist/pkg/api/httpx"
	"farmer_assist/pkg/core/auth"
	coreNotify "farmer_assist/pkg/core/notify"

	"go.uber.org/zap"
)

// KeepAlive is how often an idle stream gets a comment line.
var KeepAlive = 25 * time.Second

type Handler struct {
	svc    *coreNotify.Service
	logger *zap.Logger
}

func NewHandler(svc *coreNotify.Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger.Named("notify_api")}
}

func senderID(r *http.Request) string {
	if u := auth.UserFromContext(r.Context()); u != nil {
		return u.ID
	}
	return ""
}

func (h *Handler) Emergency(w http.ResponseWriter, r *http.Request) {
	var a coreNotify.Alert
	if err := httpx.Decode(w, r, &a); err != nil {
		httpx.RespondError(w, err.Error(), http.StatusBadRequest)
		return
	}
	receipt, err := h.svc.SendEmergency(r.Context(), senderID(r), a)
	if err != nil {
		httpx.Fail(w, h.logger, err)
		return
	}
	httpx.RespondJSON(w, receipt, http.StatusCreated)
}

func (h *Handler) FoodCall(w http.ResponseWriter, r *http.Request) {
	var a coreNotify.Alert
	if err := httpx.Decode(w, r, &a); err != nil {
		httpx.RespondError(w, err.Error(), http.StatusBadRequest)
		return
	}
	receipt, err := h.svc.SendFoodCall(r.Context(), senderID(r), a)
	if err != nil {
		httpx.Fail(w, h.logger, err)
		return
	}
	httpx.RespondJSON(w, receipt, http.StatusCreated)
}

func (h *Handler) Broadcast(w http.ResponseWriter, r *http.Request) {
	var b coreNotify.Broadcast
	if err := httpx.Decode(w, r, &b); err != nil {
		httpx.RespondError(w, err.Error(), http.StatusBadRequest)
		return
	}
	receipt, err := h.svc.SendBroadcast(r.Context(), senderID(r), b)
	if err != nil {
		httpx.Fail(w, h.logger, err)
		return
	}
	httpx.RespondJSON(w, receipt, http.StatusCreated)
}

func (h *Handler) Regions(w http.ResponseWriter, r *http.Request) {
	httpx.RespondJSON(w, map[string]any{
		"regions":        coreNotify.Regions(),
		"emergencyTypes": coreNotify.EmergencyKinds,
		"foodCallTypes":  coreNotify.FoodCallKinds,
	}, http.StatusOK)
}

func (h *Handler) Recent(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	items, err := h.svc.Recent(r.Context(), q.Get("state"), q.Get("district"), httpx.ParseIntQuery(r, "limit", 20))
	if err != nil {
		httpx.Fail(w, h.logger, err)
		return
	}
	httpx.RespondJSON(w, items, http.StatusOK)
}

// Stream pushes notifications reaching ?state=&district= as server-sent
// events until the client disconnects.
func (h *Handler) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		httpx.RespondError(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	// Streams outlive the server's write timeout.
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	q := r.URL.Query()
	sub := h.svc.Hub().Subscribe(q.Get("state"), q.Get("district"))
	defer sub.Cancel()

	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	ticker := time.NewTicker(KeepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case n, open := <-sub.C:
			if !open {
				return
			}
			data, err := json.Marshal(n)
			if err != nil {
				h.logger.Error("failed to encode notification", zap.Error(err))
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", n.Category, data)
			flusher.Flush()
		}
	}
}
