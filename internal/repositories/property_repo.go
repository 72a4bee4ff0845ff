package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/DevinHarlan/lotboard/internal/database"
	"github.com/DevinHarlan/lotboard/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const propertyColumns = `id, owner_id, title, slug, description, property_type, listing_type,
	price, area, neighborhood, address, latitude, longitude,
	images, amenities, features, contact_phone, contact_email,
	status, admin_notes, featured, created_at, updated_at`

type PropertyRepository struct {
	pool *pgxpool.Pool
}

func NewPropertyRepository(db *database.DB) *PropertyRepository {
	return &PropertyRepository{pool: db.Pool}
}

// PropertyFilter narrows List queries. Zero fields are unconstrained.
type PropertyFilter struct {
	OwnerID      string
	Status       models.PropertyStatus
	OwnerOrStatus bool // rows owned by OwnerID OR carrying Status
	PropertyType models.PropertyType
	ListingType  models.ListingType
	Neighborhood string
	MinPrice     float64
	MaxPrice     float64
	FeaturedOnly bool
	Limit        int
	Offset       int
}

func scanPropertyRow(scanner rowScanner) (*models.Property, error) {
	var p models.Property
	var images, amenities, features []byte
	var adminNotes, contactPhone, contactEmail *string

	err := scanner.Scan(
		&p.ID, &p.OwnerID, &p.Title, &p.Slug, &p.Description, &p.PropertyType, &p.ListingType,
		&p.Price, &p.Area, &p.Neighborhood, &p.Address, &p.Latitude, &p.Longitude,
		&images, &amenities, &features, &contactPhone, &contactEmail,
		&p.Status, &adminNotes, &p.Featured, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	if len(images) > 0 {
		if err := json.Unmarshal(images, &p.Images); err != nil {
			return nil, fmt.Errorf("failed to decode images: %w", err)
		}
	}
	if len(amenities) > 0 {
		if err := json.Unmarshal(amenities, &p.Amenities); err != nil {
			return nil, fmt.Errorf("failed to decode amenities: %w", err)
		}
	}
	if len(features) > 0 {
		if err := json.Unmarshal(features, &p.Features); err != nil {
			return nil, fmt.Errorf("failed to decode features: %w", err)
		}
	}
	if adminNotes != nil {
		p.AdminNotes = *adminNotes
	}
	if contactPhone != nil {
		p.ContactPhone = *contactPhone
	}
	if contactEmail != nil {
		p.ContactEmail = *contactEmail
	}

	return &p, nil
}

func scanPropertyRows(rows pgx.Rows) ([]*models.Property, error) {
	defer rows.Close()

	properties := make([]*models.Property, 0)

	for rows.Next() {
		p, err := scanPropertyRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan property: %w", err)
		}
		properties = append(properties, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return properties, nil
}

func jsonValue(v interface{}) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

func (r *PropertyRepository) GetByID(ctx context.Context, id string) (*models.Property, error) {
	query := `SELECT ` + propertyColumns + ` FROM properties WHERE id = $1`

	return scanPropertyRow(r.pool.QueryRow(ctx, query, id))
}

func (r *PropertyRepository) GetBySlug(ctx context.Context, slug string) (*models.Property, error) {
	query := `SELECT ` + propertyColumns + ` FROM properties WHERE slug = $1`

	return scanPropertyRow(r.pool.QueryRow(ctx, query, slug))
}

func (r *PropertyRepository) Create(ctx context.Context, p *models.Property) (*models.Property, error) {
	p.ID = uuid.New().String()

	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now

	if p.Status == "" {
		p.Status = models.PropertyPending
	}

	images, err := jsonValue(p.Images)
	if err != nil {
		return nil, fmt.Errorf("failed to encode images: %w", err)
	}
	amenities, err := jsonValue(p.Amenities)
	if err != nil {
		return nil, fmt.Errorf("failed to encode amenities: %w", err)
	}
	features, err := jsonValue(p.Features)
	if err != nil {
		return nil, fmt.Errorf("failed to encode features: %w", err)
	}

	query := `
		INSERT INTO properties
			(id, owner_id, title, slug, description, property_type, listing_type,
			 price, area, neighborhood, address, latitude, longitude,
			 images, amenities, features, contact_phone, contact_email,
			 status, admin_notes, featured, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
			 $14, $15, $16, $17, $18, $19, '', false, $20, $20)
		RETURNING ` + propertyColumns

	return scanPropertyRow(r.pool.QueryRow(ctx, query,
		p.ID, p.OwnerID, p.Title, p.Slug, p.Description, p.PropertyType, p.ListingType,
		p.Price, p.Area, p.Neighborhood, p.Address, p.Latitude, p.Longitude,
		images, amenities, features, nullable(p.ContactPhone), nullable(p.ContactEmail),
		p.Status, now,
	))
}

// UpdateListing writes the owner-editable listing fields. Moderation fields
// (status, admin_notes, featured) are untouched here.
func (r *PropertyRepository) UpdateListing(ctx context.Context, id string, p *models.Property) (*models.Property, error) {
	images, err := jsonValue(p.Images)
	if err != nil {
		return nil, fmt.Errorf("failed to encode images: %w", err)
	}
	amenities, err := jsonValue(p.Amenities)
	if err != nil {
		return nil, fmt.Errorf("failed to encode amenities: %w", err)
	}
	features, err := jsonValue(p.Features)
	if err != nil {
		return nil, fmt.Errorf("failed to encode features: %w", err)
	}

	query := `
		UPDATE properties SET
			title = $1, description = $2, listing_type = $3, price = $4, area = $5,
			neighborhood = $6, address = $7, latitude = $8, longitude = $9,
			images = $10, amenities = $11, features = $12,
			contact_phone = $13, contact_email = $14, updated_at = $15
		WHERE id = $16
		RETURNING ` + propertyColumns

	return scanPropertyRow(r.pool.QueryRow(ctx, query,
		p.Title, p.Description, p.ListingType, p.Price, p.Area,
		p.Neighborhood, p.Address, p.Latitude, p.Longitude,
		images, amenities, features,
		nullable(p.ContactPhone), nullable(p.ContactEmail), time.Now(), id,
	))
}

// UpdateModeration applies an admin status decision with a compare-and-swap
// on the previous status. featured is only written when non-nil.
func (r *PropertyRepository) UpdateModeration(
	ctx context.Context,
	id string,
	expectedStatus, newStatus models.PropertyStatus,
	adminNotes string,
	featured *bool,
) (*models.Property, error) {
	query := `
		UPDATE properties
		SET status = $1, admin_notes = $2, featured = COALESCE($3, featured), updated_at = $4
		WHERE id = $5 AND status = $6
		RETURNING ` + propertyColumns

	p, err := scanPropertyRow(r.pool.QueryRow(ctx, query,
		newStatus, adminNotes, featured, time.Now(), id, expectedStatus,
	))
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}

	if _, getErr := r.GetByID(ctx, id); getErr == nil {
		return nil, models.ErrStatusChanged
	}
	return nil, models.ErrNotFound
}

func (r *PropertyRepository) Delete(ctx context.Context, id string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM properties WHERE id = $1`, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (f PropertyFilter) where() (string, []interface{}) {
	clauses := make([]string, 0, 6)
	args := make([]interface{}, 0, 6)

	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	switch {
	case f.OwnerOrStatus && f.OwnerID != "" && f.Status != "":
		clauses = append(clauses, fmt.Sprintf("(owner_id = %s OR status = %s)", arg(f.OwnerID), arg(f.Status)))
	default:
		if f.OwnerID != "" {
			clauses = append(clauses, "owner_id = "+arg(f.OwnerID))
		}
		if f.Status != "" {
			clauses = append(clauses, "status = "+arg(f.Status))
		}
	}

	if f.PropertyType != "" {
		clauses = append(clauses, "property_type = "+arg(f.PropertyType))
	}
	if f.ListingType != "" {
		clauses = append(clauses, "listing_type = "+arg(f.ListingType))
	}
	if f.Neighborhood != "" {
		clauses = append(clauses, "neighborhood = "+arg(f.Neighborhood))
	}
	if f.MinPrice > 0 {
		clauses = append(clauses, "price >= "+arg(f.MinPrice))
	}
	if f.MaxPrice > 0 {
		clauses = append(clauses, "price <= "+arg(f.MaxPrice))
	}
	if f.FeaturedOnly {
		clauses = append(clauses, "featured = true")
	}

	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func (r *PropertyRepository) List(ctx context.Context, filter PropertyFilter) ([]*models.Property, error) {
	where, args := filter.where()

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}

	query := `SELECT ` + propertyColumns + ` FROM properties` + where +
		fmt.Sprintf(" ORDER BY featured DESC, created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, filter.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query properties: %w", err)
	}

	return scanPropertyRows(rows)
}

func (r *PropertyRepository) Count(ctx context.Context, filter PropertyFilter) (int64, error) {
	where, args := filter.where()

	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM properties`+where, args...).Scan(&count)
	if err != nil {
		return 0, database.MapPostgresError(err)
	}
	return count, nil
}
