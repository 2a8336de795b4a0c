package httpx

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"farmer_assist/pkg/core/auth"
	"farmer_assist/pkg/core/flow"
	"farmer_assist/pkg/core/store"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{flow.ErrEmptyQuery, http.StatusBadRequest},
		{fmt.Errorf("wrapped: %w", flow.ErrInvalidInput), http.StatusBadRequest},
		{auth.ErrTooManyAttempts, http.StatusTooManyRequests},
		{auth.ErrUnauthenticated, http.StatusUnauthorized},
		{fmt.Errorf("user x: %w", store.ErrNotFound), http.StatusNotFound},
		{flow.ErrNoOutput, http.StatusBadGateway},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got, _ := Classify(tt.err); got != tt.status {
			t.Errorf("Classify(%v) = %d, want %d", tt.err, got, tt.status)
		}
	}
	if _, msg := Classify(flow.ErrEmptyQuery); msg != "Please enter your question." {
		t.Errorf("empty query message = %q", msg)
	}
}

func TestFail_HidesInternalDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	Fail(rec, nil, errors.New("pq: password authentication failed"))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "password") {
		t.Errorf("internal error leaked: %s", rec.Body.String())
	}
}

func TestDecode(t *testing.T) {
	var v struct{ A int }
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	if err := Decode(httptest.NewRecorder(), r, &v); err == nil {
		t.Error("expected error for empty body")
	}
	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"A": 3}`))
	if err := Decode(httptest.NewRecorder(), r, &v); err != nil || v.A != 3 {
		t.Errorf("Decode = %v, %+v", err, v)
	}
}
