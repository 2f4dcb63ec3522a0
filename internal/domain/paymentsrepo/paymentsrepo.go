package paymentsrepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Gwonyeong/doll-backend/internal/db"
	"github.com/jackc/pgx/v5"
)

type Repository struct{ q db.Querier }

func NewRepository(q db.Querier) Store { return &Repository{q: q} }

func (r *Repository) Create(ctx context.Context, p *Payment) error {
	if p.Status == "" {
		p.Status = StatusPending
	}
	if err := r.q.QueryRow(ctx, `
		INSERT INTO payments (order_id, user_id, ad_id, provider, amount, days, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`, p.OrderID, p.UserID, p.AdID, p.Provider, p.Amount, p.Days, p.Status).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return fmt.Errorf("create payment: %w", err)
	}
	return nil
}

func (r *Repository) GetByOrderID(ctx context.Context, orderID string) (*Payment, error) {
	var p Payment
	var raw []byte
	err := r.q.QueryRow(ctx, `
		SELECT id, order_id, user_id, ad_id, provider, provider_ref, amount, days, status,
		       gateway_response, created_at, updated_at
		FROM payments WHERE order_id = $1
	`, orderID).Scan(
		&p.ID, &p.OrderID, &p.UserID, &p.AdID, &p.Provider, &p.ProviderRef, &p.Amount, &p.Days,
		&p.Status, &raw, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("get payment: %w", err)
	}
	if len(raw) > 0 {
		p.GatewayResp = json.RawMessage(raw)
	}
	return &p, nil
}

// MarkPaid only moves pending payments; an already paid row is left alone.
func (r *Repository) MarkPaid(ctx context.Context, paymentID int64, providerRef string, raw any) error {
	b, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("marshal gateway response: %w", err)
	}
	tag, err := r.q.Exec(ctx, `
		UPDATE payments
		SET status = 'paid', provider_ref = $2, gateway_response = $3, updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
	`, paymentID, providerRef, b)
	if err != nil {
		return fmt.Errorf("mark payment paid: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPaymentNotFound
	}
	return nil
}

func (r *Repository) SetStatus(ctx context.Context, paymentID int64, status string) error {
	_, err := r.q.Exec(ctx, `UPDATE payments SET status = $2, updated_at = NOW() WHERE id = $1`, paymentID, status)
	if err != nil {
		return fmt.Errorf("set payment status: %w", err)
	}
	return nil
}
