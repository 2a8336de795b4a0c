package market

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"farmer_assist/pkg/core/flow"
	"farmer_assist/pkg/core/metrics"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

//go:embed fallback.json
var fallbackJSON []byte

// FallbackRecords returns the bundled dataset served when the API fails.
func FallbackRecords() []Record {
	var recs []Record
	if err := json.Unmarshal(fallbackJSON, &recs); err != nil {
		panic(fmt.Sprintf("market: bad fallback dataset: %v", err))
	}
	return recs
}

// Fetcher is satisfied by *Client.
type Fetcher interface {
	Fetch(ctx context.Context, q Query) (*Response, error)
}

// Analyzer produces the market summary; *flow.Runner satisfies it.
type Analyzer interface {
	GetMarketInsights(ctx context.Context, in flow.GetMarketInsightsInput) (flow.GetMarketInsightsOutput, error)
}

type Service struct {
	client   Fetcher
	analyzer Analyzer
	fallback []Record
	group    singleflight.Group
	logger   *zap.Logger
}

func NewService(client Fetcher, analyzer Analyzer, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		client:   client,
		analyzer: analyzer,
		fallback: FallbackRecords(),
		logger:   logger.Named("market"),
	}
}

// Lookup returns live records for q, or the fallback dataset when the API
// cannot be used. An empty live result is returned as is. Identical lookups
// in flight at the same time share one request.
func (s *Service) Lookup(ctx context.Context, q Query) (*Response, error) {
	v, err, _ := s.group.Do(q.key(), func() (interface{}, error) {
		// Detached so one caller hanging up does not fail the others.
		return s.lookup(context.WithoutCancel(ctx), q), nil
	})
	if err != nil {
		return nil, err
	}
	shared := v.(*Response)
	out := *shared
	out.Records = make([]Record, len(shared.Records))
	copy(out.Records, shared.Records)
	return &out, nil
}

func (s *Service) lookup(ctx context.Context, q Query) *Response {
	if s.client != nil {
		resp, err := s.client.Fetch(ctx, q)
		if err == nil {
			return resp
		}
		reason := "api_error"
		if errors.Is(err, ErrMissingAPIKey) {
			reason = "missing_api_key"
		}
		metrics.MarketFallbackTotal.WithLabelValues(reason).Inc()
		s.logger.Warn("market API unavailable, serving fallback data",
			zap.String("district", q.District), zap.Error(err))
	} else {
		metrics.MarketFallbackTotal.WithLabelValues("no_client").Inc()
	}
	return s.Fallback(q)
}

// Fallback filters the bundled dataset by district (case-insensitive). When
// no record matches, the whole dataset is returned so the model can report
// the nearest market. A commodity narrows the result only if it matches.
func (s *Service) Fallback(q Query) *Response {
	recs := filter(s.fallback, func(r Record) bool { return equalFold(r.District, q.District) })
	if len(recs) == 0 {
		recs = append([]Record(nil), s.fallback...)
	}
	if q.Commodity != "" {
		if byCrop := filter(recs, func(r Record) bool { return matchesCommodity(r.Commodity, q.Commodity) }); len(byCrop) > 0 {
			recs = byCrop
		}
	}
	return &Response{Total: len(recs), Count: len(recs), Records: recs, IsDummyData: true}
}

// InsightRequest is a farmer's market question.
type InsightRequest struct {
	Query     string
	Location  string
	Commodity string
	Language  string
	Limit     int
}

type InsightResult struct {
	Summary string    `json:"marketSummary"`
	Data    *Response `json:"marketData"`
}

// Insights looks up prices for the location and asks the model to summarize
// them. The commodity is guessed from the question when not given.
func (s *Service) Insights(ctx context.Context, req InsightRequest) (*InsightResult, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, flow.ErrEmptyQuery
	}
	if strings.TrimSpace(req.Location) == "" {
		return nil, fmt.Errorf("%w: location is required", flow.ErrInvalidInput)
	}
	if s.analyzer == nil {
		return nil, errors.New("market insights are not configured")
	}

	commodity := req.Commodity
	if commodity == "" {
		commodity = DetectCommodity(req.Query)
	}
	data, err := s.Lookup(ctx, Query{District: req.Location, Commodity: commodity, Limit: req.Limit})
	if err != nil {
		return nil, err
	}
	marketData, err := data.JSON()
	if err != nil {
		return nil, fmt.Errorf("failed to encode market data: %w", err)
	}

	out, err := s.analyzer.GetMarketInsights(ctx, flow.GetMarketInsightsInput{
		CropQuery:  req.Query,
		Location:   req.Location,
		MarketData: marketData,
		Language:   req.Language,
	})
	if err != nil {
		return nil, err
	}
	return &InsightResult{Summary: out.MarketSummary, Data: data}, nil
}

// knownCommodities maps words farmers use to the API's commodity names.
var knownCommodities = []struct {
	word      string
	commodity string
}{
	{"tomato", "Tomato"},
	{"onion", "Onion"},
	{"potato", "Potato"},
	{"ragi", "Ragi (Finger Millet)"},
	{"paddy", "Paddy(Dhan)(Common)"},
	{"rice", "Paddy(Dhan)(Common)"},
	{"maize", "Maize"},
	{"corn", "Maize"},
	{"groundnut", "Groundnut"},
	{"coconut", "Coconut"},
	{"jaggery", "Jaggery"},
	{"arecanut", "Arecanut(Betelnut/Supari)"},
	{"orange", "Orange"},
	{"ಟೊಮೆಟೊ", "Tomato"},
	{"ಈರುಳ್ಳಿ", "Onion"},
	{"ರಾಗಿ", "Ragi (Finger Millet)"},
	{"टमाटर", "Tomato"},
	{"प्याज", "Onion"},
	{"आलू", "Potato"},
}

// DetectCommodity returns the API commodity named in a question, or "".
func DetectCommodity(question string) string {
	q := strings.ToLower(question)
	for _, k := range knownCommodities {
		if strings.Contains(q, k.word) {
			return k.commodity
		}
	}
	return ""
}

func matchesCommodity(recordCommodity, wanted string) bool {
	a, b := strings.ToLower(recordCommodity), strings.ToLower(strings.TrimSpace(wanted))
	return a == b || strings.Contains(a, b)
}

func filter(recs []Record, keep func(Record) bool) []Record {
	var out []Record
	for _, r := range recs {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

func equalFold(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
