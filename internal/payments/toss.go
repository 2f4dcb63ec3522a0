package payments

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const ProviderToss = "toss"

const tossBaseURL = "https://api.tosspayments.com"

// TossAdapter talks to the Toss Payments core API. Checkout itself happens
// in the client widget; the server only hands out the order data and
// confirms the payment afterwards.
type TossAdapter struct {
	ClientKey  string
	SecretKey  string
	SuccessURL string
	FailURL    string
	BaseURL    string
	httpClient *http.Client
}

func NewTossAdapter(clientKey, secretKey, successURL, failURL string) *TossAdapter {
	return &TossAdapter{
		ClientKey:  clientKey,
		SecretKey:  secretKey,
		SuccessURL: successURL,
		FailURL:    failURL,
		BaseURL:    tossBaseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

func (t *TossAdapter) authHeader() string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(t.SecretKey+":"))
}

func (t *TossAdapter) InitiatePayment(_ context.Context, req PaymentRequest) (PaymentResponse, error) {
	if req.OrderID == "" || req.Amount <= 0 {
		return PaymentResponse{}, fmt.Errorf("toss initiate requires order id and positive amount")
	}

	return PaymentResponse{
		Data: map[string]string{
			"client_key":    t.ClientKey,
			"order_id":      req.OrderID,
			"order_name":    req.ProductName,
			"amount":        strconv.FormatInt(req.Amount, 10),
			"customer_name": req.CustomerName,
			"success_url":   t.SuccessURL,
			"fail_url":      t.FailURL,
		},
	}, nil
}

func (t *TossAdapter) VerifyPayment(ctx context.Context, req PaymentVerifyRequest) (PaymentVerifyResponse, error) {
	paymentKey := strings.TrimSpace(req.Data["payment_key"])
	if paymentKey == "" {
		return PaymentVerifyResponse{Success: false}, fmt.Errorf("toss confirm requires payment_key")
	}

	payload := map[string]any{
		"paymentKey": paymentKey,
		"orderId":    req.OrderID,
		"amount":     req.Amount,
	}
	body, _ := json.Marshal(payload)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.BaseURL+"/v1/payments/confirm", bytes.NewBuffer(body))
	if err != nil {
		return PaymentVerifyResponse{Success: false}, err
	}
	httpReq.Header.Set("Authorization", t.authHeader())
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Idempotency-Key", req.OrderID)

	resp, err := t.httpClient.Do(httpReq)
	if err != nil {
		return PaymentVerifyResponse{Success: false}, fmt.Errorf("toss confirm request: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)

	var res struct {
		PaymentKey  string `json:"paymentKey"`
		OrderID     string `json:"orderId"`
		Status      string `json:"status"` // READY, IN_PROGRESS, WAITING_FOR_DEPOSIT, DONE, CANCELED, PARTIAL_CANCELED, ABORTED, EXPIRED
		TotalAmount int64  `json:"totalAmount"`
		Code        string `json:"code"`
		Message     string `json:"message"`
	}
	if err := json.Unmarshal(raw, &res); err != nil {
		return PaymentVerifyResponse{Success: false}, fmt.Errorf("toss confirm decode: http=%d err=%w body=%s", resp.StatusCode, err, string(raw))
	}

	rawInfo := map[string]any{
		"http_status": resp.StatusCode,
		"body":        json.RawMessage(raw),
	}

	if resp.StatusCode != http.StatusOK {
		// Rejected confirms (bad key, amount mismatch, card declined) are final.
		return PaymentVerifyResponse{
			Success:     false,
			State:       res.Code,
			Terminal:    resp.StatusCode < http.StatusInternalServerError,
			ProviderRef: paymentKey,
			Raw:         rawInfo,
		}, nil
	}

	state := strings.ToUpper(strings.TrimSpace(res.Status))
	success := state == "DONE" && res.TotalAmount == req.Amount

	terminal := false
	switch state {
	case "DONE", "CANCELED", "PARTIAL_CANCELED", "ABORTED", "EXPIRED":
		terminal = true
	}

	return PaymentVerifyResponse{
		Success:     success,
		State:       state,
		Terminal:    terminal,
		ProviderRef: paymentKey,
		Raw:         rawInfo,
	}, nil
}
