// Package httpx holds the JSON request and response helpers shared by the
// API handlers.
package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"farmer_assist/pkg/core/auth"
	"farmer_assist/pkg/core/exchange"
	"farmer_assist/pkg/core/flow"
	"farmer_assist/pkg/core/notify"
	"farmer_assist/pkg/core/store"

	"go.uber.org/zap"
)

// MaxBodyBytes bounds request bodies. A 4MB photo grows by a third when
// base64 encoded.
const MaxBodyBytes = 6 << 20

func RespondJSON(w http.ResponseWriter, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zap.L().Error("json encode error", zap.Error(err))
	}
}

func RespondError(w http.ResponseWriter, message string, status int) {
	RespondJSON(w, map[string]string{"error": message}, status)
}

// Fail writes err with the status its sentinel maps to. Unexpected errors are
// logged and reported without detail.
func Fail(w http.ResponseWriter, logger *zap.Logger, err error) {
	status, msg := Classify(err)
	if status >= http.StatusInternalServerError && logger != nil {
		logger.Error("request failed", zap.Error(err))
	}
	RespondError(w, msg, status)
}

// Classify maps an error to an HTTP status and the message shown to the user.
func Classify(err error) (int, string) {
	switch {
	case errors.Is(err, flow.ErrEmptyQuery):
		return http.StatusBadRequest, "Please enter your question."
	case errors.Is(err, flow.ErrNoInput):
		return http.StatusBadRequest, "Please upload a photo or describe the problem."
	case errors.Is(err, flow.ErrInvalidInput),
		errors.Is(err, exchange.ErrInvalidListing),
		errors.Is(err, notify.ErrUnknownKind),
		errors.Is(err, notify.ErrMessageRequired),
		errors.Is(err, notify.ErrUnknownRegion),
		errors.Is(err, notify.ErrInvalidAudience),
		errors.Is(err, auth.ErrInvalidPhone),
		errors.Is(err, auth.ErrNameRequired),
		errors.Is(err, auth.ErrInvalidOTP),
		errors.Is(err, auth.ErrOTPExpired),
		errors.Is(err, auth.ErrUnknownVerification):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, auth.ErrTooManyAttempts):
		return http.StatusTooManyRequests, err.Error()
	case errors.Is(err, auth.ErrUnauthenticated):
		return http.StatusUnauthorized, err.Error()
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, flow.ErrNoOutput):
		return http.StatusBadGateway, "The assistant did not return an answer. Please try again."
	default:
		return http.StatusInternalServerError, "Something went wrong. Please try again."
	}
}

// Decode reads a JSON body into v.
func Decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("request body is empty")
		}
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func ParseIntQuery(r *http.Request, name string, defaultValue int) int {
	if v := r.URL.Query().Get(name); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}
