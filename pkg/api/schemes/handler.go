package schemes

import (
	"context"
	"net/http"
	"strings"

	"farmer_assist/pkg/api/httpx"
	"farmer_assist/pkg/api/speech"
	"farmer_assist/pkg/core/flow"
	"farmer_assist/pkg/core/knowledge"

	"go.uber.org/zap"
)

// Answerer is satisfied by *flow.Runner.
type Answerer interface {
	GetSchemeInformation(ctx context.Context, in flow.GetSchemeInformationInput) (flow.GetSchemeInformationOutput, error)
}

type QueryRequest struct {
	Query    string `json:"query"`
	Language string `json:"language,omitempty"`
	State    string `json:"state,omitempty"`
	District string `json:"district,omitempty"`
	Age      *int   `json:"age,omitempty"`
	Speak    bool   `json:"speak,omitempty"`
}

type QueryResponse struct {
	SchemeInformation    string   `json:"schemeInformation"`
	OtherRelevantSchemes string   `json:"otherRelevantSchemes,omitempty"`
	Sources              []string `json:"sources"`
	AudioDataURI         string   `json:"audioDataUri,omitempty"`
}

type Handler struct {
	docs     knowledge.Store
	answerer Answerer
	speaker  speech.Speaker
	logger   *zap.Logger
}

func NewHandler(docs knowledge.Store, answerer Answerer, speaker speech.Speaker, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{docs: docs, answerer: answerer, speaker: speaker, logger: logger.Named("schemes_api")}
}

// List returns the scheme catalogue, ranked by ?q= and limited to schemes
// open to ?state=&district=.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	docs := h.docs.Search(q.Get("q"), q.Get("state"), q.Get("district"), httpx.ParseIntQuery(r, "limit", 0))
	httpx.RespondJSON(w, docs, http.StatusOK)
}

// Query answers a scheme question from the documents open to the farmer.
func (h *Handler) Query(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := httpx.Decode(w, r, &req); err != nil {
		httpx.RespondError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		httpx.Fail(w, h.logger, flow.ErrEmptyQuery)
		return
	}

	docs := h.docs.Search(req.Query, req.State, req.District, 0)
	in := flow.GetSchemeInformationInput{
		SchemeQuery: req.Query,
		Language:    req.Language,
		State:       req.State,
		District:    req.District,
		Age:         req.Age,
	}
	sources := make([]string, 0, len(docs))
	for _, d := range docs {
		in.SchemeDocuments = append(in.SchemeDocuments, flow.SchemeDocument{Title: d.Title, Content: d.Content})
		sources = append(sources, d.ID)
	}

	out, err := h.answerer.GetSchemeInformation(r.Context(), in)
	if err != nil {
		httpx.Fail(w, h.logger, err)
		return
	}

	resp := QueryResponse{
		SchemeInformation:    out.SchemeInformation,
		OtherRelevantSchemes: out.OtherRelevantSchemes,
		Sources:              sources,
	}
	if req.Speak {
		resp.AudioDataURI = speech.Optional(r.Context(), h.speaker, h.logger, out.SchemeInformation, req.Language)
	}
	httpx.RespondJSON(w, resp, http.StatusOK)
}
