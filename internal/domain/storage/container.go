package storage

import (
	"context"
	"fmt"

	"github.com/Gwonyeong/doll-backend/internal/db"
	"github.com/Gwonyeong/doll-backend/internal/domain/ads"
	"github.com/Gwonyeong/doll-backend/internal/domain/paymentsrepo"
	"github.com/Gwonyeong/doll-backend/internal/domain/pushtokens"
	"github.com/Gwonyeong/doll-backend/internal/domain/reports"
	"github.com/Gwonyeong/doll-backend/internal/domain/reviews"
	"github.com/Gwonyeong/doll-backend/internal/domain/stores"
	"github.com/Gwonyeong/doll-backend/internal/domain/unlocks"
	"github.com/Gwonyeong/doll-backend/internal/domain/users"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Container struct {
	pool       *pgxpool.Pool // needed by WithPaymentTx
	Users      users.Store
	Stores     stores.Store
	Reviews    reviews.Store
	Unlocks    unlocks.Store
	Ads        ads.Store
	Payments   paymentsrepo.Store
	PayLogs    paymentsrepo.LogsStore
	PushTokens pushtokens.Store
	Reports    reports.Store

	// Ping checks the database connection. Nil when there is no pool.
	Ping func(ctx context.Context) error

	// Tx overrides WithPaymentTx. Tests set it to run the unit of work
	// against in-memory stores.
	Tx func(ctx context.Context, fn func(s *PaymentTx) error) error
}

func NewContainer(pool *pgxpool.Pool) *Container {
	return &Container{
		pool:       pool,
		Ping:       pool.Ping,
		Users:      users.NewRepository(pool),
		Stores:     stores.NewRepository(pool),
		Reviews:    reviews.NewRepository(pool),
		Unlocks:    unlocks.NewRepository(pool),
		Ads:        ads.NewRepository(pool),
		Payments:   paymentsrepo.NewRepository(pool),
		PayLogs:    paymentsrepo.NewLogsRepository(pool),
		PushTokens: pushtokens.NewRepository(pool),
		Reports:    reports.NewRepository(pool),
	}
}

// PaymentTx is a tx-scoped set of repos for confirming a purchase.
type PaymentTx struct {
	Payments paymentsrepo.Store
	PayLogs  paymentsrepo.LogsStore
	Ads      ads.Store
}

// WithPaymentTx runs a payment unit-of-work atomically.
func (c *Container) WithPaymentTx(ctx context.Context, fn func(s *PaymentTx) error) error {
	if c.Tx != nil {
		return c.Tx(ctx, fn)
	}
	if c.pool == nil {
		return fmt.Errorf("storage container pool is nil")
	}

	tx, err := c.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}

	defer func() {
		_ = tx.Rollback(ctx) // no-op after commit
	}()

	s := newPaymentTx(tx)
	if err := fn(s); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func newPaymentTx(q db.Querier) *PaymentTx {
	return &PaymentTx{
		Payments: paymentsrepo.NewRepository(q),
		PayLogs:  paymentsrepo.NewLogsRepository(q),
		Ads:      ads.NewRepository(q),
	}
}
