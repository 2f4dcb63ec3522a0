package paymentsrepo

import (
	"context"
	"encoding/json"

	"github.com/Gwonyeong/doll-backend/internal/db"
)

type LogsRepository struct{ q db.Querier }

func NewLogsRepository(q db.Querier) *LogsRepository { return &LogsRepository{q: q} }

func (r *LogsRepository) InsertPaymentLog(ctx context.Context, paymentID int64, logType string, payload any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = r.q.Exec(ctx, `
		INSERT INTO payment_logs (payment_id, log_type, payload)
		VALUES ($1, $2, $3)
	`, paymentID, logType, b)
	return err
}
