package decision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"tradinglions/internal/types"
)

// Gate is an external admission check consulted with the fully built
// candidate before an order is allowed through.
type Gate interface {
	Score(ctx context.Context, c types.Candidate) (float64, error)
}

// NopGate admits everything with full confidence.
type NopGate struct{}

func (NopGate) Score(context.Context, types.Candidate) (float64, error) { return 1, nil }

// HTTPGate asks a scoring service for a win probability. The candidate is
// posted as JSON and the response must carry {"prob_win": <0..1>}.
type HTTPGate struct {
	URL    string
	Client *http.Client
}

func NewHTTPGate(url string) *HTTPGate {
	return &HTTPGate{
		URL:    url,
		Client: &http.Client{Timeout: 5 * time.Second},
	}
}

func (g *HTTPGate) Score(ctx context.Context, c types.Candidate) (float64, error) {
	body, err := json.Marshal(c)
	if err != nil {
		return 0, fmt.Errorf("encode candidate: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.URL, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.Client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return 0, fmt.Errorf("gate returned status %d", resp.StatusCode)
	}

	var out struct {
		ProbWin float64 `json:"prob_win"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("decode gate response: %w", err)
	}
	return out.ProbWin, nil
}
