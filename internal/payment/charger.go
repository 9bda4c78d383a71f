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
)

// ChargeStatus is the gateway's verdict on a charge attempt.
type ChargeStatus string

const (
	ChargeSucceeded ChargeStatus = "succeeded"
	ChargePending   ChargeStatus = "pending"
	ChargeFailed    ChargeStatus = "failed"
)

// Payer identifies who is being charged.
type Payer struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ChargeResult is the gateway response. Pending charges carry a redirect
// URL the buyer must follow; failed ones carry the reason.
type ChargeResult struct {
	Status        ChargeStatus `json:"status"`
	RedirectURL   string       `json:"redirectUrl,omitempty"`
	FailureReason string       `json:"failureReason,omitempty"`
}

// Charger is the external charge capability. Implementations may be slow
// or redirecting; callers bound every attempt with a context deadline.
type Charger interface {
	CreateCharge(ctx context.Context, amount float64, reference string, payer Payer) (ChargeResult, error)
}

type chargeRequest struct {
	Amount    float64 `json:"amount"`
	Reference string  `json:"reference"`
	Payer     Payer   `json:"payer"`
}

// GatewayClient talks to the payment gateway over HTTP.
type GatewayClient struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewGatewayClient builds a gateway client. The http client timeout is a
// hard backstop; per-call deadlines come from the caller's context.
func NewGatewayClient(baseURL string, timeout time.Duration, logger *zap.Logger) *GatewayClient {
	return &GatewayClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

func (g *GatewayClient) CreateCharge(ctx context.Context, amount float64, reference string, payer Payer) (ChargeResult, error) {
	body, err := json.Marshal(chargeRequest{Amount: amount, Reference: reference, Payer: payer})
	if err != nil {
		return ChargeResult{}, fmt.Errorf("failed to marshal charge request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/charges", bytes.NewReader(body))
	if err != nil {
		return ChargeResult{}, fmt.Errorf("failed to build charge request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return ChargeResult{}, fmt.Errorf("charge request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return ChargeResult{}, fmt.Errorf("gateway error: status %d", resp.StatusCode)
	}

	// A 4xx is the gateway declining the charge, not failing. Surface it as
	// a failed result so the caller rolls the hold back.
	if resp.StatusCode >= 400 {
		result := ChargeResult{Status: ChargeFailed, FailureReason: declineReason(resp.Body, resp.StatusCode)}
		g.logger.Debug("Charge declined",
			zap.String("reference", reference),
			zap.Int("status_code", resp.StatusCode),
			zap.String("reason", result.FailureReason),
		)
		return result, nil
	}

	var result ChargeResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return ChargeResult{}, fmt.Errorf("failed to decode charge response: %w", err)
	}

	g.logger.Debug("Charge attempted",
		zap.String("reference", reference),
		zap.Float64("amount", amount),
		zap.String("status", string(result.Status)),
	)

	return result, nil
}

// declineReason pulls a readable reason out of a decline body. Gateways
// disagree on the field name; fall back to the status code.
func declineReason(body io.Reader, statusCode int) string {
	var decline struct {
		FailureReason string `json:"failureReason"`
		Error         string `json:"error"`
		Message       string `json:"message"`
	}
	_ = json.NewDecoder(body).Decode(&decline)

	for _, reason := range []string{decline.FailureReason, decline.Error, decline.Message} {
		if reason != "" {
			return reason
		}
	}
	return fmt.Sprintf("charge declined: status %d", statusCode)
}
