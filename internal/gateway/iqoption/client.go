// Package iqoption binds the engine to an IQ Option style brokerage bridge.
// The bridge exposes order placement and the recently-closed list over REST
// and streams settlement events over a websocket.
package iqoption

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"tradinglions/internal/gateway/broker"
	"tradinglions/internal/pkg/circuit"
	"tradinglions/internal/pkg/convert"
	"tradinglions/internal/types"
)

// Options configures the REST client.
type Options struct {
	APIURL         string
	Token          string
	TimeoutSeconds int
	// BreakerThreshold consecutive poll failures open the breaker.
	BreakerThreshold int
	BreakerCooldown  time.Duration
}

// Client talks to the bridge REST API. It implements broker.Client and
// broker.MarketData.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	token      string
	breaker    *circuit.Breaker
}

var errBreakerOpen = errors.New("iqoption: breaker open, polls suspended")

func NewClient(opts Options) (*Client, error) {
	raw := strings.TrimSpace(opts.APIURL)
	if raw == "" {
		return nil, fmt.Errorf("iqoption: api_url is required")
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("iqoption: parse api_url: %w", err)
	}
	timeout := time.Duration(opts.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	threshold := opts.BreakerThreshold
	if threshold <= 0 {
		threshold = 5
	}
	cooldown := opts.BreakerCooldown
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	return &Client{
		baseURL:    parsed,
		httpClient: &http.Client{Timeout: timeout},
		token:      strings.TrimSpace(opts.Token),
		breaker:    circuit.NewBreaker("iqoption-poll", threshold, cooldown),
	}, nil
}

// SetHTTPClient replaces the transport, for tests.
func (c *Client) SetHTTPClient(client *http.Client) { c.httpClient = client }

func (c *Client) Name() string { return "iqoption" }

type placePayload struct {
	Asset     string  `json:"asset"`
	Direction string  `json:"direction"`
	Amount    float64 `json:"amount"`
	Duration  int     `json:"duration"`
	RequestID string  `json:"request_id,omitempty"`
}

type placeResponse struct {
	Success bool            `json:"success"`
	ID      json.RawMessage `json:"id"`
	Message string          `json:"message,omitempty"`
}

// PlaceOption submits one binary option. The returned raw reference keeps
// whatever shape the bridge produced; normalization happens at resolution.
func (c *Client) PlaceOption(ctx context.Context, req broker.PlaceRequest) (broker.PlaceResult, error) {
	if c == nil || c.httpClient == nil {
		return broker.PlaceResult{}, fmt.Errorf("iqoption: client not initialized")
	}
	payload := placePayload{
		Asset:     req.Asset,
		Direction: string(req.Direction),
		Amount:    req.Stake,
		Duration:  req.Duration,
		RequestID: req.RequestID,
	}
	var resp placeResponse
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/options", payload, &resp); err != nil {
		return broker.PlaceResult{}, err
	}
	if !resp.Success {
		if resp.Message != "" {
			return broker.PlaceResult{}, fmt.Errorf("iqoption: order rejected: %s", resp.Message)
		}
		return broker.PlaceResult{Accepted: false}, nil
	}
	return broker.PlaceResult{Accepted: true, RawRef: decodeLoose(resp.ID)}, nil
}

// RecentlyClosed returns the newest settled options, guarded by the breaker
// so a flapping endpoint stops being hammered every pass.
func (c *Client) RecentlyClosed(ctx context.Context, limit int) ([]broker.ClosedOption, error) {
	if c == nil || c.httpClient == nil {
		return nil, fmt.Errorf("iqoption: client not initialized")
	}
	if !c.breaker.Allow() {
		return nil, errBreakerOpen
	}
	if limit <= 0 {
		limit = 50
	}
	var raw json.RawMessage
	err := c.doRequest(ctx, http.MethodGet, fmt.Sprintf("/api/v1/options/closed?limit=%d", limit), nil, &raw)
	if err != nil {
		c.breaker.RecordFailure()
		return nil, err
	}
	c.breaker.RecordSuccess()
	return parseClosedList(raw), nil
}

// parseClosedList tolerates both a bare list and the envelope shape
// {"msg": {"closed_options": [...]}} older bridges emit.
func parseClosedList(raw json.RawMessage) []broker.ClosedOption {
	var entries []map[string]any
	if err := json.Unmarshal(raw, &entries); err != nil {
		var envelope map[string]any
		if err := json.Unmarshal(raw, &envelope); err != nil {
			return nil
		}
		body := envelope
		if msg, ok := envelope["msg"].(map[string]any); ok {
			body = msg
		}
		list, ok := body["closed_options"].([]any)
		if !ok {
			list, ok = body["closed"].([]any)
		}
		if !ok {
			return nil
		}
		for _, item := range list {
			if m, ok := item.(map[string]any); ok {
				entries = append(entries, m)
			}
		}
	}
	out := make([]broker.ClosedOption, 0, len(entries))
	for _, entry := range entries {
		out = append(out, parseClosedEntry(entry))
	}
	return out
}

func parseClosedEntry(entry map[string]any) broker.ClosedOption {
	id := entry["option_id"]
	if id == nil {
		id = entry["id"]
	}
	result := convert.String(entry["result"])
	if result == "" {
		result = convert.String(entry["win"])
	}
	profit, _ := convert.Float(entry["profit_amount"])
	winAmount, _ := convert.Float(entry["win_amount"])
	amount, _ := convert.Float(entry["amount"])
	value, _ := convert.Float(entry["value"])
	closedAt, _ := convert.Int64(firstPresent(entry, "actual_expire", "expiration_time", "close_time"))
	return broker.ClosedOption{
		RawID:        id,
		Asset:        convert.String(firstPresent(entry, "active", "asset")),
		Result:       result,
		ProfitAmount: profit,
		WinAmount:    winAmount,
		Amount:       amount,
		Value:        value,
		ClosedAt:     closedAt,
		Raw:          entry,
	}
}

func firstPresent(entry map[string]any, keys ...string) any {
	for _, key := range keys {
		if v, ok := entry[key]; ok && v != nil {
			return v
		}
	}
	return nil
}

type profitResponse struct {
	Turbo   float64 `json:"turbo"`
	Binary  float64 `json:"binary"`
	Digital float64 `json:"digital"`
}

// Payout returns the current payout ratio for asset, preferring turbo over
// binary over digital, matching the broker's own product priority.
func (c *Client) Payout(ctx context.Context, asset string) (float64, error) {
	if c == nil || c.httpClient == nil {
		return 0, fmt.Errorf("iqoption: client not initialized")
	}
	var resp profitResponse
	path := "/api/v1/instruments/" + url.PathEscape(asset) + "/profit"
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return 0, err
	}
	for _, v := range []float64{resp.Turbo, resp.Binary, resp.Digital} {
		if v > 0 {
			return v, nil
		}
	}
	return 0, nil
}

// Candles fetches the latest count bars for asset at tf.
func (c *Client) Candles(ctx context.Context, asset string, tf types.Timeframe, count int) ([]types.Candle, error) {
	if c == nil || c.httpClient == nil {
		return nil, fmt.Errorf("iqoption: client not initialized")
	}
	if count <= 0 {
		count = 3
	}
	path := fmt.Sprintf("/api/v1/candles?asset=%s&interval=%d&count=%d", url.QueryEscape(asset), int(tf), count)
	var entries []map[string]any
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &entries); err != nil {
		return nil, err
	}
	out := make([]types.Candle, 0, len(entries))
	for _, entry := range entries {
		out = append(out, parseCandle(entry))
	}
	return out, nil
}

// parseCandle tolerates the bridge's max/min aliases for high/low.
func parseCandle(entry map[string]any) types.Candle {
	from, _ := convert.Int64(firstPresent(entry, "from", "time"))
	open, _ := convert.Float(entry["open"])
	high, ok := convert.Float(entry["high"])
	if !ok {
		high, _ = convert.Float(entry["max"])
	}
	low, ok := convert.Float(entry["low"])
	if !ok {
		low, _ = convert.Float(entry["min"])
	}
	cl, _ := convert.Float(entry["close"])
	vol, _ := convert.Float(entry["volume"])
	return types.Candle{From: from, Open: open, High: high, Low: low, Close: cl, Volume: vol}
}

func decodeLoose(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return strings.TrimSpace(string(raw))
	}
	return v
}

func (c *Client) doRequest(ctx context.Context, method, path string, payload any, out any) error {
	endpoint, err := c.resolveEndpoint(path)
	if err != nil {
		return err
	}
	var body io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("iqoption: encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), body)
	if err != nil {
		return fmt.Errorf("iqoption: build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("iqoption: request %s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if len(data) == 0 {
			return fmt.Errorf("iqoption: %s returned %s", path, resp.Status)
		}
		return fmt.Errorf("iqoption: %s returned %s: %s", path, resp.Status, strings.TrimSpace(string(data)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("iqoption: decode response: %w", err)
	}
	return nil
}

func (c *Client) resolveEndpoint(path string) (*url.URL, error) {
	if c.baseURL == nil {
		return nil, fmt.Errorf("iqoption: api url not set")
	}
	trimmed := strings.TrimSpace(path)
	query := ""
	if idx := strings.Index(trimmed, "?"); idx >= 0 {
		query = trimmed[idx+1:]
		trimmed = trimmed[:idx]
	}
	if !strings.HasPrefix(trimmed, "/") {
		trimmed = "/" + trimmed
	}
	base := *c.baseURL
	base.Path = strings.TrimSuffix(base.Path, "/") + trimmed
	base.RawQuery = query
	base.Fragment = ""
	return &base, nil
}
