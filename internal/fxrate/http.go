package fxrate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultBaseURL is a free ECB-backed rate API.
const DefaultBaseURL = "https://api.frankfurter.app"

// HTTPProvider fetches rates from a frankfurter-compatible endpoint:
// GET {base}/latest?from=CAD&to=CNY → {"base":"CAD","date":"...","rates":{"CNY":5.21}}
type HTTPProvider struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPProvider creates a provider. An empty baseURL uses DefaultBaseURL.
func NewHTTPProvider(baseURL string, httpClient *http.Client) *HTTPProvider {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPProvider{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

type latestResponse struct {
	Base  string                     `json:"base"`
	Date  string                     `json:"date"`
	Rates map[string]decimal.Decimal `json:"rates"`
}

// LatestRate implements Provider.
func (p *HTTPProvider) LatestRate(ctx context.Context, from, to string) (decimal.Decimal, error) {
	query := url.Values{
		"from": {strings.ToUpper(from)},
		"to":   {strings.ToUpper(to)},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/latest?"+query.Encode(), nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("rate request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return decimal.Zero, fmt.Errorf("rate request failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload latestResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return decimal.Zero, fmt.Errorf("failed to decode rate response: %w", err)
	}

	rate, ok := payload.Rates[strings.ToUpper(to)]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s/%s missing from response", ErrRateUnavailable, from, to)
	}
	return rate, nil
}
