package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/DevinHarlan/lotboard/internal/database"
	"github.com/DevinHarlan/lotboard/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const requestColumns = `id, user_id, user_name, user_email, phone, address,
	identification_document, selfie_with_id, status, admin_notes,
	submitted_at, reviewed_at, reviewed_by, created_at, updated_at`

type VerificationRequestRepository struct {
	pool *pgxpool.Pool
}

func NewVerificationRequestRepository(db *database.DB) *VerificationRequestRepository {
	return &VerificationRequestRepository{pool: db.Pool}
}

func scanRequestRow(scanner rowScanner) (*models.VerificationRequest, error) {
	var req models.VerificationRequest
	var adminNotes *string

	err := scanner.Scan(
		&req.ID, &req.UserID, &req.UserName, &req.UserEmail, &req.Phone, &req.Address,
		&req.IdentificationDocument, &req.SelfieWithID, &req.Status, &adminNotes,
		&req.SubmittedAt, &req.ReviewedAt, &req.ReviewedBy, &req.CreatedAt, &req.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	if adminNotes != nil {
		req.AdminNotes = *adminNotes
	}

	return &req, nil
}

func scanRequestRows(rows pgx.Rows) ([]*models.VerificationRequest, error) {
	defer rows.Close()

	requests := make([]*models.VerificationRequest, 0)

	for rows.Next() {
		req, err := scanRequestRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan verification request: %w", err)
		}
		requests = append(requests, req)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return requests, nil
}

func (r *VerificationRequestRepository) GetByID(ctx context.Context, id string) (*models.VerificationRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM verification_requests WHERE id = $1`

	return scanRequestRow(r.pool.QueryRow(ctx, query, id))
}

func (r *VerificationRequestRepository) GetByUserID(ctx context.Context, userID string) (*models.VerificationRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM verification_requests WHERE user_id = $1`

	return scanRequestRow(r.pool.QueryRow(ctx, query, userID))
}

// Upsert creates the user's verification request, or, when one already
// exists, rewrites it in place: status back to pending, submission time
// restamped, prior review fields cleared. The unique index on user_id is
// what makes a resubmission an update instead of a duplicate row.
func (r *VerificationRequestRepository) Upsert(ctx context.Context, req *models.VerificationRequest) (*models.VerificationRequest, error) {
	now := time.Now()

	query := `
		INSERT INTO verification_requests
			(id, user_id, user_name, user_email, phone, address,
			 identification_document, selfie_with_id, status, admin_notes,
			 submitted_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, '', $10, $10, $10)
		ON CONFLICT (user_id) DO UPDATE SET
			user_name = EXCLUDED.user_name,
			user_email = EXCLUDED.user_email,
			phone = EXCLUDED.phone,
			address = EXCLUDED.address,
			identification_document = EXCLUDED.identification_document,
			selfie_with_id = EXCLUDED.selfie_with_id,
			status = 'pending',
			admin_notes = '',
			submitted_at = EXCLUDED.submitted_at,
			reviewed_at = NULL,
			reviewed_by = NULL,
			updated_at = EXCLUDED.updated_at
		RETURNING ` + requestColumns

	return scanRequestRow(r.pool.QueryRow(ctx, query,
		uuid.New().String(), req.UserID, req.UserName, req.UserEmail, req.Phone, req.Address,
		req.IdentificationDocument, req.SelfieWithID, models.RequestPending, now,
	))
}

// UpdateReview applies an admin decision with a compare-and-swap on status:
// the row is only written if it still carries the status the admin last
// read. A mismatch surfaces as ErrStatusChanged.
func (r *VerificationRequestRepository) UpdateReview(
	ctx context.Context,
	id string,
	expectedStatus, newStatus models.RequestStatus,
	adminNotes, reviewedBy string,
) (*models.VerificationRequest, error) {
	now := time.Now()

	query := `
		UPDATE verification_requests
		SET status = $1, admin_notes = $2, reviewed_at = $3, reviewed_by = $4, updated_at = $3
		WHERE id = $5 AND status = $6
		RETURNING ` + requestColumns

	req, err := scanRequestRow(r.pool.QueryRow(ctx, query,
		newStatus, adminNotes, now, reviewedBy, id, expectedStatus,
	))
	if err == nil {
		return req, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}

	// No row matched: distinguish a missing request from a lost race.
	if _, getErr := r.GetByID(ctx, id); getErr == nil {
		return nil, models.ErrStatusChanged
	}
	return nil, models.ErrNotFound
}

func (r *VerificationRequestRepository) List(ctx context.Context, status models.RequestStatus, limit, offset int) ([]*models.VerificationRequest, error) {
	if status != "" {
		query := `SELECT ` + requestColumns + `
			FROM verification_requests WHERE status = $1
			ORDER BY submitted_at DESC LIMIT $2 OFFSET $3`

		rows, err := r.pool.Query(ctx, query, status, limit, offset)
		if err != nil {
			return nil, fmt.Errorf("failed to query verification requests: %w", err)
		}
		return scanRequestRows(rows)
	}

	query := `SELECT ` + requestColumns + `
		FROM verification_requests ORDER BY submitted_at DESC LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query verification requests: %w", err)
	}
	return scanRequestRows(rows)
}

func (r *VerificationRequestRepository) CountByStatus(ctx context.Context, status models.RequestStatus) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM verification_requests WHERE status = $1`, status).Scan(&count)
	if err != nil {
		return 0, database.MapPostgresError(err)
	}
	return count, nil
}

// CountForUser supports the one-request-per-user invariant checks in tests.
func (r *VerificationRequestRepository) CountForUser(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM verification_requests WHERE user_id = $1`, userID).Scan(&count)
	if err != nil {
		return 0, database.MapPostgresError(err)
	}
	return count, nil
}

func (r *VerificationRequestRepository) Delete(ctx context.Context, id string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM verification_requests WHERE id = $1`, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
