package paymentsrepo

import (
	"context"
	"errors"
	"time"
)

var ErrPaymentNotFound = errors.New("payment not found")

const (
	StatusPending = "pending"
	StatusPaid    = "paid"
	StatusFailed  = "failed"
)

// Payment is one checkout attempt for an ad purchase.
type Payment struct {
	ID          int64     `json:"id"`
	OrderID     string    `json:"order_id"` // sent to the provider
	UserID      int64     `json:"user_id"`
	AdID        int64     `json:"ad_id"`
	Provider    string    `json:"provider"`
	ProviderRef *string   `json:"provider_ref"` // toss paymentKey
	Amount      int64     `json:"amount"`       // KRW
	Days        int       `json:"days"`
	Status      string    `json:"status"`
	GatewayResp any       `json:"gateway_response,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Store interface {
	Create(ctx context.Context, p *Payment) error
	GetByOrderID(ctx context.Context, orderID string) (*Payment, error)
	MarkPaid(ctx context.Context, paymentID int64, providerRef string, raw any) error
	SetStatus(ctx context.Context, paymentID int64, status string) error
}

type PaymentLog struct {
	ID        int64     `json:"id"`
	PaymentID int64     `json:"payment_id"`
	LogType   string    `json:"log_type"` // request, response, error
	Payload   any       `json:"payload,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type LogsStore interface {
	InsertPaymentLog(ctx context.Context, paymentID int64, logType string, payload any) error
}
