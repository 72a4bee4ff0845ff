package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/DevinHarlan/lotboard/internal/database"
	"github.com/DevinHarlan/lotboard/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

const emailLogColumns = `id, recipient, subject, email_type, status, error, created_at`

type EmailLogRepository struct {
	pool *pgxpool.Pool
}

func NewEmailLogRepository(db *database.DB) *EmailLogRepository {
	return &EmailLogRepository{pool: db.Pool}
}

func (r *EmailLogRepository) Create(ctx context.Context, log *models.EmailLog) (*models.EmailLog, error) {
	log.ID = uuid.New().String()
	log.CreatedAt = time.Now()

	query := `
		INSERT INTO email_logs (id, recipient, subject, email_type, status, error, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + emailLogColumns

	var out models.EmailLog
	var errMsg *string

	err := r.pool.QueryRow(ctx, query,
		log.ID, log.Recipient, log.Subject, log.EmailType, log.Status, nullable(log.Error), log.CreatedAt,
	).Scan(&out.ID, &out.Recipient, &out.Subject, &out.EmailType, &out.Status, &errMsg, &out.CreatedAt)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	if errMsg != nil {
		out.Error = *errMsg
	}

	return &out, nil
}

func (r *EmailLogRepository) List(ctx context.Context, limit, offset int) ([]*models.EmailLog, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT ` + emailLogColumns + ` FROM email_logs ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query email logs: %w", err)
	}
	defer rows.Close()

	logs := make([]*models.EmailLog, 0)

	for rows.Next() {
		var l models.EmailLog
		var errMsg *string
		if err := rows.Scan(&l.ID, &l.Recipient, &l.Subject, &l.EmailType, &l.Status, &errMsg, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan email log: %w", err)
		}
		if errMsg != nil {
			l.Error = *errMsg
		}
		logs = append(logs, &l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return logs, nil
}

// DeleteOlderThan prunes log rows past the retention window and returns the
// number of rows removed.
func (r *EmailLogRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.pool.Exec(ctx, `DELETE FROM email_logs WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, database.MapPostgresError(err)
	}
	return result.RowsAffected(), nil
}
