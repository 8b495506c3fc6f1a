package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"currency-wallet/config"
	"currency-wallet/pkg/apperror"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// APIRateSource implements ports.RateSource against the exchangerate-api.com
// v6 standard endpoint: GET {base_url}/{api_key}/latest/{from}.
type APIRateSource struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	log        zerolog.Logger
}

// latestResponse is the v6 "latest" payload. Error responses carry
// result=error plus an error-type string.
type latestResponse struct {
	Result          string             `json:"result"`
	BaseCode        string             `json:"base_code"`
	ConversionRates map[string]float64 `json:"conversion_rates"`
	ErrorType       string             `json:"error-type,omitempty"`
}

// NewAPIRateSource creates a live rate source from the rates configuration.
func NewAPIRateSource(cfg config.RatesConfig, log zerolog.Logger) *APIRateSource {
	return &APIRateSource{
		baseURL:    strings.TrimRight(cfg.APIURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        log,
	}
}

// Convert fetches the latest rates for from and applies the to rate.
func (s *APIRateSource) Convert(ctx context.Context, from, to string, amount decimal.Decimal) (decimal.Decimal, error) {
	from = strings.ToUpper(from)
	to = strings.ToUpper(to)
	if from == to {
		return amount, nil
	}

	url := fmt.Sprintf("%s/%s/latest/%s", s.baseURL, s.apiKey, from)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("building rate request: %w", err)
	}

	start := time.Now()
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("fetching rates: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return decimal.Zero, fmt.Errorf("rate API status %d: %s", resp.StatusCode, string(body))
	}

	var payload latestResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return decimal.Zero, fmt.Errorf("decoding rate response: %w", err)
	}
	if payload.Result != "success" {
		if payload.ErrorType == "unsupported-code" {
			return decimal.Zero, apperror.ErrUnsupportedPair(from, to)
		}
		return decimal.Zero, fmt.Errorf("rate API result %q (%s)", payload.Result, payload.ErrorType)
	}

	rate, ok := payload.ConversionRates[to]
	if !ok {
		return decimal.Zero, apperror.ErrUnsupportedPair(from, to)
	}

	s.log.Debug().
		Str("from", from).
		Str("to", to).
		Float64("rate", rate).
		Dur("elapsed", time.Since(start)).
		Msg("fetched live exchange rate")

	return amount.Mul(decimal.NewFromFloat(rate)), nil
}
