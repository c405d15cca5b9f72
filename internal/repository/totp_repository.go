package repository

import (
	"context"
	"time"
)

type TotpRepository struct {
	db DBTX
}

func NewTotpRepository(db DBTX) *TotpRepository {
	return &TotpRepository{db: db}
}

func (r *TotpRepository) CleanTotpLog(ctx context.Context, before time.Time) (int64, error) {
	const query = `DELETE FROM totp_log WHERE date_time < $1`

	res, err := r.db.ExecContext(ctx, query, before.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
