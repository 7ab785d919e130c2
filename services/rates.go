package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"
)

// RateClient talks to the public exchange-rate API. Best effort: the service
// is unauthenticated and rate limited on its side, so every call carries a
// timeout and failures leave the last known rate in place.
type RateClient struct {
	BaseURL string
	Client  *http.Client
}

func NewRateClient() *RateClient {
	base := os.Getenv("RATE_API_URL")
	if base == "" {
		base = "https://api.exchangerate-api.com/v4"
	}
	return &RateClient{
		BaseURL: base,
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// FetchRate returns the conversion rate from base to target.
func (s *RateClient) FetchRate(ctx context.Context, base, target string) (float64, error) {
	req, _ := http.NewRequestWithContext(ctx, "GET", s.BaseURL+"/latest/"+base, nil)

	resp, err := s.Client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("rate source returned %d", resp.StatusCode)
	}

	var result struct {
		Rates map[string]float64 `json:"rates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return 0, err
	}

	rate, ok := result.Rates[target]
	if !ok {
		return 0, fmt.Errorf("no rate for %s in %s response", target, base)
	}
	if rate <= 0 {
		return 0, fmt.Errorf("rate source returned %v for %s", rate, target)
	}
	return rate, nil
}
