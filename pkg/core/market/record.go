// Package market fetches mandi prices from the data.gov.in daily price
// resource, falling back to a bundled dataset when the API is unreachable.
package market

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Price is a per-quintal rupee amount. The API sends prices as strings but
// numbers are accepted too; it is re-encoded as a string.
type Price string

func (p *Price) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*p = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = Price(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("price must be a string or number: %w", err)
	}
	*p = Price(n.String())
	return nil
}

// Float parses the price; ok is false for blank or malformed values.
func (p Price) Float() (float64, bool) {
	f, err := strconv.ParseFloat(strings.ReplaceAll(string(p), ",", ""), 64)
	return f, err == nil
}

// Record is one row of the daily price resource.
type Record struct {
	State          string `json:"state"`
	District       string `json:"district"`
	Market         string `json:"market"`
	Commodity      string `json:"commodity"`
	Variety        string `json:"variety,omitempty"`
	Grade          string `json:"grade,omitempty"`
	ArrivalDate    string `json:"arrival_date,omitempty"`
	MinPrice       Price  `json:"min_price,omitempty"`
	MaxPrice       Price  `json:"max_price,omitempty"`
	ModalPrice     Price  `json:"modal_price"`
	YesterdayPrice Price  `json:"yesterday_price,omitempty"`
	Last5DaysMin   Price  `json:"last_5_days_min,omitempty"`
	Last5DaysMax   Price  `json:"last_5_days_max,omitempty"`
}

// Response mirrors the API envelope. IsDummyData marks fallback data.
type Response struct {
	Total       int      `json:"total,omitempty"`
	Count       int      `json:"count,omitempty"`
	Records     []Record `json:"records"`
	IsDummyData bool     `json:"isDummyData,omitempty"`
}

// JSON renders the response the way the insight prompt expects it.
func (r *Response) JSON() (string, error) {
	if r.Records == nil {
		r.Records = []Record{}
	}
	data, err := json.Marshal(r)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Query selects records. District is matched exactly by the API and
// case-insensitively against the fallback data.
type Query struct {
	District  string
	Commodity string
	Limit     int
}

func (q Query) key() string {
	return strings.ToLower(strings.TrimSpace(q.District)) + "|" +
		strings.ToLower(strings.TrimSpace(q.Commodity)) + "|" + strconv.Itoa(q.Limit)
}
