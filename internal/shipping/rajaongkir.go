package shipping

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"pustaka-be/internal/config"
	"pustaka-be/internal/logger"
	"pustaka-be/internal/metrics"
)

const defaultRajaOngkirBaseURL = "https://rajaongkir.komerce.id"

// RateClient talks to the carrier-rate service.
type RateClient interface {
	// CalculateDomesticCost returns the available courier services for a
	// route, cheapest first.
	CalculateDomesticCost(ctx context.Context, originID, destinationID, weightGrams int, courier string) ([]Rate, error)

	// SearchDestinations looks up delivery areas matching the search term.
	SearchDestinations(ctx context.Context, search string, limit int) ([]Destination, error)
}

type rajaOngkirClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewRajaOngkirClient(cfg *config.Config) RateClient {
	if cfg.RajaongkirAPIKey == "" {
		logger.L().Warn("RajaOngkir API key is empty")
	}

	baseURL := cfg.RajaongkirBaseURL
	if baseURL == "" {
		baseURL = defaultRajaOngkirBaseURL
	}

	return &rajaOngkirClient{
		baseURL: baseURL,
		apiKey:  cfg.RajaongkirAPIKey,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

func (c *rajaOngkirClient) CalculateDomesticCost(ctx context.Context, originID, destinationID, weightGrams int, courier string) ([]Rate, error) {
	log := logger.FromCtx(ctx).With(
		zap.Int("origin", originID),
		zap.Int("destination", destinationID),
		zap.Int("weight", weightGrams),
		zap.String("courier", courier),
	)

	form := url.Values{}
	form.Set("origin", strconv.Itoa(originID))
	form.Set("destination", strconv.Itoa(destinationID))
	form.Set("weight", strconv.Itoa(weightGrams))
	form.Set("courier", courier)
	form.Set("price", "lowest")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/v1/calculate/domestic-cost", strings.NewReader(form.Encode()))
	if err != nil {
		log.Error("failed building rate request", zap.Error(err))
		return nil, err
	}
	req.Header.Set("key", c.apiKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	metrics.CarrierCalls.Inc()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.CarrierFailures.Inc()
		log.Error("rate request failed", zap.Error(err))
		return nil, err
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read rajaongkir response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		log.Error("rajaongkir returned non-success status",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("response", bodyBytes),
		)
		return nil, fmt.Errorf("rajaongkir error: %s", string(bodyBytes))
	}

	var res struct {
		Data []Rate `json:"data"`
	}
	if err := json.Unmarshal(bodyBytes, &res); err != nil {
		log.Error("failed decoding rajaongkir response", zap.Error(err))
		return nil, err
	}

	return res.Data, nil
}

func (c *rajaOngkirClient) SearchDestinations(ctx context.Context, search string, limit int) ([]Destination, error) {
	log := logger.FromCtx(ctx).With(zap.String("search", search))

	if limit <= 0 {
		limit = 20
	}

	u := fmt.Sprintf("%s/api/v1/destination/domestic-destination?search=%s&limit=%d",
		c.baseURL, url.QueryEscape(search), limit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		log.Error("failed building destination request", zap.Error(err))
		return nil, err
	}
	req.Header.Set("key", c.apiKey)

	metrics.CarrierCalls.Inc()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.CarrierFailures.Inc()
		log.Error("destination request failed", zap.Error(err))
		return nil, err
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read rajaongkir response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		log.Error("rajaongkir returned non-success status",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("response", bodyBytes),
		)
		return nil, fmt.Errorf("rajaongkir error: %s", string(bodyBytes))
	}

	var res struct {
		Data []Destination `json:"data"`
	}
	if err := json.Unmarshal(bodyBytes, &res); err != nil {
		log.Error("failed decoding rajaongkir response", zap.Error(err))
		return nil, err
	}

	return res.Data, nil
}
