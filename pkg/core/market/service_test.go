package market

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"farmer_assist/pkg/core/flow"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFetcher struct {
	resp  *Response
	err   error
	calls atomic.Int32
	gate  chan struct{}
}

func (f *stubFetcher) Fetch(ctx context.Context, q Query) (*Response, error) {
	f.calls.Add(1)
	if f.gate != nil {
		<-f.gate
	}
	return f.resp, f.err
}

type stubAnalyzer struct {
	in  flow.GetMarketInsightsInput
	out string
	err error
}

func (a *stubAnalyzer) GetMarketInsights(_ context.Context, in flow.GetMarketInsightsInput) (flow.GetMarketInsightsOutput, error) {
	a.in = in
	return flow.GetMarketInsightsOutput{MarketSummary: a.out}, a.err
}

func TestLookup_FallsBackOnAPIError(t *testing.T) {
	svc := NewService(&stubFetcher{err: errors.New("connection refused")}, nil, nil)

	resp, err := svc.Lookup(context.Background(), Query{District: "mysuru"})
	require.NoError(t, err)
	assert.True(t, resp.IsDummyData)
	require.NotEmpty(t, resp.Records)
	for _, r := range resp.Records {
		assert.Equal(t, "Mysuru", r.District)
	}
}

func TestLookup_MissingKeyUsesFallback(t *testing.T) {
	svc := NewService(NewClient("", 0), nil, nil)
	resp, err := svc.Lookup(context.Background(), Query{District: "Kolar"})
	require.NoError(t, err)
	assert.True(t, resp.IsDummyData)
	require.Len(t, resp.Records, 1)
	assert.Equal(t, "Tomato", resp.Records[0].Commodity)
}

func TestLookup_UnknownDistrictReturnsWholeDataset(t *testing.T) {
	svc := NewService(nil, nil, nil)
	resp, err := svc.Lookup(context.Background(), Query{District: "Atlantis"})
	require.NoError(t, err)
	assert.True(t, resp.IsDummyData)
	if diff := cmp.Diff(FallbackRecords(), resp.Records); diff != "" {
		t.Errorf("fallback mismatch (-want +got):\n%s", diff)
	}
}

func TestLookup_EmptyLiveResultIsKept(t *testing.T) {
	svc := NewService(&stubFetcher{resp: &Response{Records: []Record{}}}, nil, nil)
	resp, err := svc.Lookup(context.Background(), Query{District: "Mysuru"})
	require.NoError(t, err)
	assert.False(t, resp.IsDummyData)
	assert.Empty(t, resp.Records)
	assert.NotNil(t, resp.Records)

	data, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"records":[]`)
}

func TestFallback_CommodityNarrowing(t *testing.T) {
	svc := NewService(nil, nil, nil)

	resp := svc.Fallback(Query{District: "Mysuru", Commodity: "onion"})
	require.Len(t, resp.Records, 1)
	assert.Equal(t, "Onion", resp.Records[0].Commodity)

	resp = svc.Fallback(Query{District: "Mysuru", Commodity: "saffron"})
	assert.Len(t, resp.Records, 3, "unmatched commodity keeps the district records")
}

func TestLookup_CoalescesConcurrentCalls(t *testing.T) {
	fetcher := &stubFetcher{resp: &Response{Records: []Record{{District: "Pune", Commodity: "Onion"}}}, gate: make(chan struct{})}
	svc := NewService(fetcher, nil, nil)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := svc.Lookup(context.Background(), Query{District: "Pune"})
			assert.NoError(t, err)
			assert.Len(t, resp.Records, 1)
		}()
	}
	time.Sleep(100 * time.Millisecond)
	close(fetcher.gate)
	wg.Wait()

	assert.Equal(t, int32(1), fetcher.calls.Load())
}

func TestInsights(t *testing.T) {
	analyzer := &stubAnalyzer{out: "The current modal price of tomato is 1400 per quintal."}
	svc := NewService(&stubFetcher{err: errors.New("down")}, analyzer, nil)

	_, err := svc.Insights(context.Background(), InsightRequest{Query: "  ", Location: "Mysuru"})
	assert.ErrorIs(t, err, flow.ErrEmptyQuery)

	_, err = svc.Insights(context.Background(), InsightRequest{Query: "tomato"})
	assert.ErrorIs(t, err, flow.ErrInvalidInput)

	res, err := svc.Insights(context.Background(), InsightRequest{Query: "What is the tomato price?", Location: "Mysuru", Language: "en"})
	require.NoError(t, err)
	assert.Equal(t, analyzer.out, res.Summary)
	assert.True(t, res.Data.IsDummyData)
	require.Len(t, res.Data.Records, 1)
	assert.Contains(t, analyzer.in.MarketData, `"isDummyData":true`)
	assert.Contains(t, analyzer.in.MarketData, `"commodity":"Tomato"`)
	assert.Equal(t, "Mysuru", analyzer.in.Location)
}

func TestDetectCommodity(t *testing.T) {
	assert.Equal(t, "Onion", DetectCommodity("Should I sell my ONION today?"))
	assert.Equal(t, "Tomato", DetectCommodity("ಟೊಮೆಟೊ ಬೆಲೆ ಏನು"))
	assert.Equal(t, "", DetectCommodity("what is the weather"))
}
