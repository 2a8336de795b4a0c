package app

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"farmer_assist/pkg/core/llm"
	"farmer_assist/pkg/core/settings"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cannedProvider answers every prompt with one JSON object carrying the
// fields of every flow's output.
type cannedProvider struct {
	prompts []string
}

const cannedReply = `{
  "diagnosis": "Leaf blight. Spray copper oxychloride.",
  "marketSummary": "Tomato sells at 1200 rupees per quintal in Mysuru.",
  "schemeInformation": "1. Policy Name: Kisan Credit Card",
  "otherRelevantSchemes": "PMFBY",
  "intent": "navigate",
  "target_section": "market",
  "confidence": 0.9,
  "explanation": "Opening market prices"
}`

func (p *cannedProvider) GenerateResponse(_ context.Context, prompt, _ string, _ map[string]interface{}) (string, error) {
	p.prompts = append(p.prompts, prompt)
	return "```json\n" + cannedReply + "\n```", nil
}

func (p *cannedProvider) AdaptInstructions(raw string) string { return raw }

type cannedSynth struct{}

func (cannedSynth) Synthesize(context.Context, string, string, string) (llm.Audio, error) {
	return llm.Audio{MIMEType: "audio/wav", Data: []byte("RIFF")}, nil
}

type testApp struct {
	*App
	handler  http.Handler
	provider *cannedProvider
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	cfg := settings.Default()
	cfg.ModelsFile = filepath.Join(t.TempDir(), "models.yaml")
	cfg.ResourcesDir = ""

	provider := &cannedProvider{}
	a, err := New(context.Background(), cfg, nil, Options{
		Providers:    map[string]llm.Provider{"gemini": provider},
		Synthesizers: map[string]llm.Synthesizer{"gemini": cannedSynth{}},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return &testApp{App: a, handler: a.Server().Handler(), provider: provider}
}

func (ta *testApp) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ta.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	ta := newTestApp(t)
	rec := ta.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"database":"memory"`)
}

func TestDiagnoseFlow(t *testing.T) {
	ta := newTestApp(t)

	rec := ta.do(t, http.MethodPost, "/api/diagnose", "", map[string]string{"textQuery": "spots"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ta.do(t, http.MethodPost, "/api/auth/anonymous", "", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	token := decode[struct{ Token string }](t, rec).Token
	require.NotEmpty(t, token)

	rec = ta.do(t, http.MethodPost, "/api/diagnose", token, map[string]string{"textQuery": " "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Please upload a photo or describe the problem.")

	rec = ta.do(t, http.MethodPost, "/api/diagnose", token, map[string]string{
		"photoDataUri": "data:image/png;base64,aGVsbG8=",
		"textQuery":    "brown spots on tomato leaves",
		"language":     "en",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[struct {
		Diagnosis string
		Saved     bool
	}](t, rec)
	assert.Equal(t, "Leaf blight. Spray copper oxychloride.", res.Diagnosis)
	assert.True(t, res.Saved)

	rec = ta.do(t, http.MethodGet, "/api/diagnose/history", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	hist := decode[[]map[string]any](t, rec)
	require.Len(t, hist, 1)
	assert.Equal(t, "brown spots on tomato leaves", hist[0]["query"])
	assert.NotEmpty(t, hist[0]["timestamp"])
}

func TestMarketEndpoints(t *testing.T) {
	ta := newTestApp(t)

	rec := ta.do(t, http.MethodPost, "/api/market/insights", "", map[string]any{"query": "", "location": "Mysuru"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Please enter your question.")

	rec = ta.do(t, http.MethodPost, "/api/market/insights", "", map[string]any{
		"query": "What is the price of tomato?", "location": "Mysuru", "language": "kn", "speak": true,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	out := decode[struct {
		MarketSummary string `json:"marketSummary"`
		MarketData    struct {
			IsDummyData bool `json:"isDummyData"`
			Records     []struct {
				Commodity string `json:"commodity"`
			} `json:"records"`
		} `json:"marketData"`
		AudioDataURI string `json:"audioDataUri"`
	}](t, rec)
	assert.True(t, out.MarketData.IsDummyData, "no API key configured")
	require.NotEmpty(t, out.MarketData.Records)
	assert.Equal(t, "Tomato", out.MarketData.Records[0].Commodity)
	assert.Equal(t, "data:audio/wav;base64,UklGRg==", out.AudioDataURI)

	rec = ta.do(t, http.MethodGet, "/api/market/prices", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ta.do(t, http.MethodGet, "/api/market/prices?district=Pune", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"isDummyData":true`)
}

func TestSchemeQuery(t *testing.T) {
	ta := newTestApp(t)

	rec := ta.do(t, http.MethodPost, "/api/schemes/query", "", map[string]any{"query": "  "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ta.do(t, http.MethodPost, "/api/schemes/query", "", map[string]any{
		"query": "crop loan for seeds", "state": "Karnataka", "district": "Mandya", "age": 40,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	out := decode[struct {
		SchemeInformation    string   `json:"schemeInformation"`
		OtherRelevantSchemes string   `json:"otherRelevantSchemes"`
		Sources              []string `json:"sources"`
	}](t, rec)
	assert.Equal(t, "1. Policy Name: Kisan Credit Card", out.SchemeInformation)
	assert.Equal(t, "PMFBY", out.OtherRelevantSchemes)
	assert.Contains(t, out.Sources, "kcc")
	assert.NotContains(t, out.Sources, "nanaji-deshmukh", "Maharashtra scheme excluded for Karnataka")

	last := ta.provider.prompts[len(ta.provider.prompts)-1]
	assert.Contains(t, last, "Mandya, Karnataka aged 40")

	rec = ta.do(t, http.MethodGet, "/api/schemes?state=Maharashtra", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "krishi-bhagya")
}

func TestNotifyAndExchange(t *testing.T) {
	ta := newTestApp(t)

	rec := ta.do(t, http.MethodPost, "/api/notify/emergency", "", map[string]string{"type": "Fire"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "Fire notification has been broadcast to nearby authorities and farmers.")

	rec = ta.do(t, http.MethodPost, "/api/notify/food-call", "", map[string]string{"type": "Other"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ta.do(t, http.MethodGet, "/api/notify/recent", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]map[string]any](t, rec), 1)

	rec = ta.do(t, http.MethodPost, "/api/admin/notify", "", map[string]string{"message": "hi"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ta.do(t, http.MethodGet, "/api/exchange/listings?kind=sell", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]map[string]any](t, rec), 4)

	rec = ta.do(t, http.MethodGet, "/api/exchange/listings?type=rocket", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAssistantConfigAndSpeech(t *testing.T) {
	ta := newTestApp(t)

	rec := ta.do(t, http.MethodPost, "/api/assistant/navigate", "", map[string]string{"message": "show me tomato prices"})
	require.Equal(t, http.StatusOK, rec.Code)
	nav := decode[map[string]any](t, rec)
	assert.Equal(t, "navigate", nav["intent"])
	assert.Equal(t, "market", nav["target_section"])
	assert.Equal(t, "Market Prices", nav["section_label"])

	rec = ta.do(t, http.MethodGet, "/api/config", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"active_provider":"gemini"`)

	rec = ta.do(t, http.MethodPost, "/api/config/switch", "", map[string]string{"provider": "nope"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ta.do(t, http.MethodPost, "/api/speech", "", map[string]string{"text": "Hello **farmer**"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(decode[map[string]string](t, rec)["audioDataUri"], "data:audio/wav;base64,"))

	rec = ta.do(t, http.MethodPost, "/api/speech", "", map[string]string{"text": "https://example.com"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServerStopEndsNotificationStreams(t *testing.T) {
	ta := newTestApp(t)
	srv := ta.Server()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	served := make(chan error, 1)
	go func() { served <- srv.Serve(l) }()

	resp, err := http.Get("http://" + l.Addr().String() + "/api/notify/stream")
	require.NoError(t, err)
	defer resp.Body.Close()
	line, err := bufio.NewReader(resp.Body).ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, ": connected\n", line)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	start := time.Now()
	require.NoError(t, srv.Stop(ctx))
	assert.Less(t, time.Since(start), time.Second)
	assert.ErrorIs(t, <-served, http.ErrServerClosed)
}
