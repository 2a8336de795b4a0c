package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"farmer_assist/pkg/core/prompt"
)

type stubExec struct {
	reply string
	err   error
	user  string
}

func (s *stubExec) ExecutePrompt(_ context.Context, _, p, _ string, _ map[string]interface{}) (string, error) {
	s.user = p
	return s.reply, s.err
}

func newHandler(t *testing.T, exec Executor) *Handler {
	t.Helper()
	reg := prompt.NewRegistry()
	if _, err := prompt.LoadDefaultsInto(reg); err != nil {
		t.Fatal(err)
	}
	return NewHandler(exec, reg, nil)
}

func navigate(t *testing.T, h *Handler, body string) NavigationResponse {
	t.Helper()
	rec := httptest.NewRecorder()
	h.HandleNavigationIntent(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var out NavigationResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	return out
}

func TestNavigation_KeywordFallback(t *testing.T) {
	h := newHandler(t, &stubExec{err: errors.New("no api key")})

	tests := []struct {
		message string
		section string
	}{
		{"Show my diagnosis history", "history"},
		{"ಟೊಮೆಟೊ ಬೆಲೆ ಎಷ್ಟು?", "market"},
		{"मुझे योजना के बारे में बताओ", "schemes"},
		{"There is a fire in the field", "emergency"},
		{"Lunch is ready", "food-call"},
	}
	for _, tt := range tests {
		got := navigate(t, h, `{"message":"`+tt.message+`"}`)
		if got.Intent != "navigate" || got.TargetSection != tt.section {
			t.Errorf("%q -> %s/%s, want navigate/%s", tt.message, got.Intent, got.TargetSection, tt.section)
		}
	}

	if got := navigate(t, h, `{"message":"good morning"}`); got.Intent != "chat" {
		t.Errorf("intent = %s, want chat", got.Intent)
	}
}

func TestNavigation_ModelAnswer(t *testing.T) {
	exec := &stubExec{reply: `{"intent":"navigate","target_section":"schemes","confidence":0.9,"explanation":"ok"}`}
	h := newHandler(t, exec)

	got := navigate(t, h, `{"message":"subsidy for drip","current_section":"market"}`)
	if got.TargetSection != "schemes" || got.SectionLabel != "Government Schemes" {
		t.Errorf("got %+v", got)
	}
	if !strings.Contains(exec.user, "Farmer's current section: market") {
		t.Errorf("current section not passed:\n%s", exec.user)
	}

	exec.reply = `{"intent":"navigate","target_section":"stocks"}`
	if got := navigate(t, h, `{"message":"x"}`); got.Intent != "chat" || got.TargetSection != "" {
		t.Errorf("unknown section not rejected: %+v", got)
	}

	exec.reply = "Namaskara! How can I help?"
	if got := navigate(t, h, `{"message":"hello"}`); got.Intent != "chat" || got.Explanation != "Namaskara! How can I help?" {
		t.Errorf("prose reply: %+v", got)
	}
}

func TestNavigation_RejectsEmptyMessage(t *testing.T) {
	h := newHandler(t, &stubExec{})
	rec := httptest.NewRecorder()
	h.HandleNavigationIntent(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"message":" "}`)))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d", rec.Code)
	}
}
