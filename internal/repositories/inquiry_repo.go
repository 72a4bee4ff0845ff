package repositories

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/DevinHarlan/lotboard/internal/database"
	"github.com/DevinHarlan/lotboard/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

const inquiryColumns = `i.id, i.property_id, i.name, i.email, i.phone, i.message, i.status, i.created_at`

type InquiryRepository struct {
	pool *pgxpool.Pool
}

func NewInquiryRepository(db *database.DB) *InquiryRepository {
	return &InquiryRepository{pool: db.Pool}
}

// InquiryFilter narrows List and Count queries. OwnerID scopes through the
// owning property, for non-admin callers.
type InquiryFilter struct {
	PropertyID string
	OwnerID    string
	Status     models.InquiryStatus
	Limit      int
	Offset     int
}

func (f InquiryFilter) where() (string, []interface{}) {
	clauses := make([]string, 0, 3)
	args := make([]interface{}, 0, 3)

	if f.PropertyID != "" {
		args = append(args, f.PropertyID)
		clauses = append(clauses, fmt.Sprintf("i.property_id = $%d", len(args)))
	}
	if f.OwnerID != "" {
		args = append(args, f.OwnerID)
		clauses = append(clauses, fmt.Sprintf("p.owner_id = $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		clauses = append(clauses, fmt.Sprintf("i.status = $%d", len(args)))
	}

	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func (r *InquiryRepository) Create(ctx context.Context, inquiry *models.Inquiry) (*models.Inquiry, error) {
	inquiry.ID = uuid.New().String()
	inquiry.CreatedAt = time.Now()

	if inquiry.Status == "" {
		inquiry.Status = models.InquiryPending
	}

	query := `
		INSERT INTO inquiries (id, property_id, name, email, phone, message, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, property_id, name, email, phone, message, status, created_at`

	var out models.Inquiry
	var phone *string

	err := r.pool.QueryRow(ctx, query,
		inquiry.ID, inquiry.PropertyID, inquiry.Name, inquiry.Email,
		nullable(inquiry.Phone), inquiry.Message, inquiry.Status, inquiry.CreatedAt,
	).Scan(&out.ID, &out.PropertyID, &out.Name, &out.Email, &phone, &out.Message, &out.Status, &out.CreatedAt)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	if phone != nil {
		out.Phone = *phone
	}

	return &out, nil
}

func (r *InquiryRepository) List(ctx context.Context, filter InquiryFilter) ([]*models.Inquiry, error) {
	where, args := filter.where()

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT ` + inquiryColumns + ` FROM inquiries i
		JOIN properties p ON p.id = i.property_id` + where +
		fmt.Sprintf(" ORDER BY i.created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, filter.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query inquiries: %w", err)
	}
	defer rows.Close()

	inquiries := make([]*models.Inquiry, 0)

	for rows.Next() {
		var i models.Inquiry
		var phone *string
		if err := rows.Scan(&i.ID, &i.PropertyID, &i.Name, &i.Email, &phone, &i.Message, &i.Status, &i.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan inquiry: %w", err)
		}
		if phone != nil {
			i.Phone = *phone
		}
		inquiries = append(inquiries, &i)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return inquiries, nil
}

func (r *InquiryRepository) Count(ctx context.Context, filter InquiryFilter) (int64, error) {
	where, args := filter.where()

	query := `SELECT COUNT(*) FROM inquiries i JOIN properties p ON p.id = i.property_id` + where

	var count int64
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, database.MapPostgresError(err)
	}
	return count, nil
}

// MarkResponded flags an inquiry as handled. A non-empty ownerID restricts
// the write to inquiries on that owner's properties.
func (r *InquiryRepository) MarkResponded(ctx context.Context, id, ownerID string) error {
	query := `UPDATE inquiries SET status = $1 WHERE id = $2`
	args := []interface{}{models.InquiryResponded, id}

	if ownerID != "" {
		query += ` AND property_id IN (SELECT id FROM properties WHERE owner_id = $3)`
		args = append(args, ownerID)
	}

	result, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
