package types

// Signal is a directional pattern detected on the latest closed candle.
type Signal struct {
	Pattern   string    `json:"pattern"`
	Direction Direction `json:"direction"`
	Strength  float64   `json:"strength"`
	Reason    string    `json:"reason,omitempty"`
}

// Candidate is a scored entry proposal for one asset, ready for admission.
type Candidate struct {
	Asset     string         `json:"asset"`
	Direction Direction      `json:"direction"`
	Score     float64        `json:"score"`
	Regime    string         `json:"regime"`
	Reason    string         `json:"reason"`
	Pattern   string         `json:"pattern"`
	Payout    float64        `json:"payout"`
	Price     float64        `json:"price"`
	Context   map[string]any `json:"context,omitempty"`
}
