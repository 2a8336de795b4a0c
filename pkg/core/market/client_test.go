package market

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientFetch_BuildsQuery(t *testing.T) {
	var got *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"total":1,"count":1,"records":[{"state":"Karnataka","district":"Mysuru","market":"Mysuru","commodity":"Tomato","modal_price":1400,"min_price":"1,200"}]}`))
	}))
	defer srv.Close()

	c := NewClient("secret", 0)
	c.BaseURL = srv.URL + "/resource/"

	resp, err := c.Fetch(context.Background(), Query{District: "Mysuru", Commodity: "Tomato"})
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, "/resource/"+DefaultResourceID, got.URL.Path)
	q := got.URL.Query()
	assert.Equal(t, "secret", q.Get("api-key"))
	assert.Equal(t, "json", q.Get("format"))
	assert.Equal(t, "0", q.Get("offset"))
	assert.Equal(t, "10", q.Get("limit"))
	assert.Equal(t, "Mysuru", q.Get("filters[district]"))
	assert.Equal(t, "Tomato", q.Get("filters[commodity]"))
	assert.Equal(t, "application/json", got.Header.Get("Accept"))

	require.Len(t, resp.Records, 1)
	assert.Equal(t, Price("1400"), resp.Records[0].ModalPrice)
	f, ok := resp.Records[0].MinPrice.Float()
	assert.True(t, ok)
	assert.Equal(t, 1200.0, f)
	assert.False(t, resp.IsDummyData)
}

func TestClientFetch_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid api key", http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewClient("bad", 0)
	c.BaseURL = srv.URL
	_, err := c.Fetch(context.Background(), Query{District: "Mysuru", Limit: 5})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "403"), err.Error())

	_, err = NewClient("", 0).Fetch(context.Background(), Query{})
	assert.True(t, errors.Is(err, ErrMissingAPIKey))
}

func TestClientURL_Limit(t *testing.T) {
	c := &Client{APIKey: "k", Limit: 25}
	u, err := c.URL(Query{})
	require.NoError(t, err)
	assert.Contains(t, u, "limit=25")
	assert.NotContains(t, u, "filters")

	u, _ = c.URL(Query{Limit: 3})
	assert.Contains(t, u, "limit=3")
}
