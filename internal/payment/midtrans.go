package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"pustaka-be/internal/config"
	"pustaka-be/internal/logger"
	"pustaka-be/internal/metrics"
)

const (
	midtransSnapSandboxURL = "https://app.sandbox.midtrans.com"
	midtransSnapProdURL    = "https://app.midtrans.com"
	midtransAPISandboxURL  = "https://api.sandbox.midtrans.com"
	midtransAPIProdURL     = "https://api.midtrans.com"
)

type midtransGateway struct {
	serverKey  string
	snapURL    string
	apiURL     string
	httpClient *http.Client
}

func NewMidtransGateway(cfg *config.Config) Gateway {
	if cfg.MidtransServerKey == "" {
		logger.L().Warn("Midtrans server key is empty")
	}

	snapURL, apiURL := midtransSnapSandboxURL, midtransAPISandboxURL
	if cfg.MidtransIsProduction {
		snapURL, apiURL = midtransSnapProdURL, midtransAPIProdURL
	}

	return &midtransGateway{
		serverKey: cfg.MidtransServerKey,
		snapURL:   snapURL,
		apiURL:    apiURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

func (m *midtransGateway) CreateSnapToken(ctx context.Context, transactionID string, items []ItemLine, customer CustomerInfo, grossAmount int) (string, *json.RawMessage, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("transaction_id", transactionID),
		zap.Int("gross_amount", grossAmount),
	)

	body := map[string]interface{}{
		"transaction_details": map[string]interface{}{
			"order_id":     transactionID,
			"gross_amount": grossAmount,
		},
		"item_details":     items,
		"customer_details": customer,
		"credit_card": map[string]interface{}{
			"secure": true,
		},
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		log.Error("failed to marshal snap request", zap.Error(err))
		return "", nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		m.snapURL+"/snap/v1/transactions", bytes.NewBuffer(jsonBody))
	if err != nil {
		log.Error("failed building snap request", zap.Error(err))
		return "", nil, err
	}
	req.SetBasicAuth(m.serverKey, "")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	log.Info("opening payment session at Midtrans")

	metrics.GatewayCalls.Inc()
	resp, err := m.httpClient.Do(req)
	if err != nil {
		metrics.GatewayFailures.Inc()
		log.Error("snap request failed", zap.Error(err))
		return "", nil, fmt.Errorf("%w: %v", ErrGatewaySessionFailed, err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read midtrans response: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		log.Error("Midtrans returned non-success status",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("response", bodyBytes),
		)
		return "", nil, fmt.Errorf("%w: %s", ErrGatewaySessionFailed, string(bodyBytes))
	}

	var res struct {
		Token       string `json:"token"`
		RedirectURL string `json:"redirect_url"`
	}
	if err := json.Unmarshal(bodyBytes, &res); err != nil {
		log.Error("failed decoding snap response", zap.Error(err))
		return "", nil, err
	}
	if res.Token == "" {
		return "", nil, fmt.Errorf("%w: empty token", ErrGatewaySessionFailed)
	}

	log.Info("payment session opened", zap.String("redirect_url", res.RedirectURL))

	raw := json.RawMessage(bodyBytes)
	return res.Token, &raw, nil
}

func (m *midtransGateway) GetTransactionStatus(ctx context.Context, transactionID string) (*GatewayStatus, error) {
	log := logger.FromCtx(ctx).With(zap.String("transaction_id", transactionID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/v2/%s/status", m.apiURL, transactionID), nil)
	if err != nil {
		log.Error("failed building status request", zap.Error(err))
		return nil, err
	}
	req.SetBasicAuth(m.serverKey, "")
	req.Header.Set("Accept", "application/json")

	metrics.GatewayCalls.Inc()
	resp, err := m.httpClient.Do(req)
	if err != nil {
		metrics.GatewayFailures.Inc()
		log.Error("status request failed", zap.Error(err))
		return nil, err
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read midtrans response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		log.Warn("transaction unknown at gateway")
		return nil, ErrTransactionNotFound
	}
	if resp.StatusCode != http.StatusOK {
		log.Error("Midtrans returned non-success status",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("response", bodyBytes),
		)
		return nil, fmt.Errorf("midtrans error: %s", string(bodyBytes))
	}

	var res struct {
		StatusCode        string `json:"status_code"`
		TransactionStatus string `json:"transaction_status"`
		SettlementTime    string `json:"settlement_time"`
	}
	if err := json.Unmarshal(bodyBytes, &res); err != nil {
		log.Error("failed decoding status response", zap.Error(err))
		return nil, err
	}

	// The status endpoint sometimes reports a missing transaction with a
	// 200 envelope carrying status_code 404.
	if res.StatusCode == "404" {
		return nil, ErrTransactionNotFound
	}

	status := &GatewayStatus{TransactionStatus: res.TransactionStatus}
	if res.SettlementTime != "" {
		if t, err := time.Parse("2006-01-02 15:04:05", res.SettlementTime); err == nil {
			status.SettlementTime = &t
		}
	}
	return status, nil
}
