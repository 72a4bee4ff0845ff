package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"github.com/DevinHarlan/lotboard/internal/access"
	"github.com/DevinHarlan/lotboard/internal/models"
	"github.com/DevinHarlan/lotboard/internal/repositories"
	"github.com/google/uuid"
)

// PropertyListOptions carries caller-supplied listing filters. Visibility
// scoping is layered on top from the access policy, not from the caller.
type PropertyListOptions struct {
	PropertyType models.PropertyType
	ListingType  models.ListingType
	Neighborhood string
	MinPrice     float64
	MaxPrice     float64
	FeaturedOnly bool
	Limit        int
	Offset       int
}

// PropertyService handles listing business logic for owners and visitors
type PropertyService struct {
	properties  PropertyRepository
	revalidator PageRevalidator
	logger      *slog.Logger
}

// NewPropertyService creates a new PropertyService
func NewPropertyService(properties PropertyRepository, revalidator PageRevalidator, logger *slog.Logger) *PropertyService {
	return &PropertyService{
		properties:  properties,
		revalidator: revalidator,
		logger:      logger,
	}
}

// Create stores a new listing for the actor. Only verified users and admins
// may list; new listings always start pending review.
func (s *PropertyService) Create(ctx context.Context, actor access.Actor, property *models.Property) (*models.Property, error) {
	if !access.CanCreateProperty(actor) {
		if actor.ID == "" {
			return nil, models.ErrUnauthorized
		}
		return nil, models.ErrNotVerified
	}

	if err := validateProperty(property); err != nil {
		return nil, err
	}

	property.OwnerID = actor.ID
	property.Status = models.PropertyPending
	property.AdminNotes = ""
	property.Featured = false
	property.Slug = makeSlug(property.Title)

	created, err := s.properties.Create(ctx, property)
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			// Slug collision, retry once with a fresh suffix
			property.Slug = makeSlug(property.Title)
			if created, err = s.properties.Create(ctx, property); err == nil {
				return created, nil
			}
		}
		s.logger.Error("failed to create property", slog.String("owner_id", actor.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("property created",
		slog.String("property_id", created.ID),
		slog.String("owner_id", actor.ID))

	return created, nil
}

// Get returns one listing, subject to visibility rules
func (s *PropertyService) Get(ctx context.Context, actor access.Actor, id string) (*models.Property, error) {
	property, err := s.properties.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get property", slog.String("property_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if !access.CanReadProperty(actor, property) {
		// Hidden listings look absent to unauthorized readers
		return nil, models.ErrNotFound
	}

	return property, nil
}

// GetBySlug returns one listing by its public slug, subject to visibility rules
func (s *PropertyService) GetBySlug(ctx context.Context, actor access.Actor, slug string) (*models.Property, error) {
	property, err := s.properties.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get property by slug", slog.String("slug", slug), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if !access.CanReadProperty(actor, property) {
		return nil, models.ErrNotFound
	}

	return property, nil
}

// List returns listings visible to the actor with the given filters applied.
// The access policy decides the visibility scope: admins see everything,
// owners see their own plus approved, visitors see approved only.
func (s *PropertyService) List(ctx context.Context, actor access.Actor, opts PropertyListOptions) ([]*models.Property, error) {
	filter := repositories.PropertyFilter{
		PropertyType: opts.PropertyType,
		ListingType:  opts.ListingType,
		Neighborhood: opts.Neighborhood,
		MinPrice:     opts.MinPrice,
		MaxPrice:     opts.MaxPrice,
		FeaturedOnly: opts.FeaturedOnly,
		Limit:        opts.Limit,
		Offset:       opts.Offset,
	}

	decision := access.PropertyReadScope(actor)
	if decision.Denied() {
		return nil, models.ErrForbidden
	}
	if scope, ok := decision.Filter(); ok {
		filter.OwnerID = scope.OwnerID
		filter.Status = scope.Status
		filter.OwnerOrStatus = scope.OwnerOrStatus
	}

	properties, err := s.properties.List(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list properties", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return properties, nil
}

// Update rewrites the listing fields of a property. Only the owner or an
// admin may edit; moderation fields are out of reach here. Editing an
// approved listing sends it back to pending review and drops its cached
// public page.
func (s *PropertyService) Update(ctx context.Context, actor access.Actor, id string, updates *models.Property) (*models.Property, error) {
	existing, err := s.properties.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get property", slog.String("property_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if !access.CanUpdateProperty(actor, existing) {
		if actor.ID == "" {
			return nil, models.ErrUnauthorized
		}
		return nil, models.ErrForbidden
	}

	applyListingUpdates(existing, updates)

	if err := validateProperty(existing); err != nil {
		return nil, err
	}

	updated, err := s.properties.UpdateListing(ctx, id, existing)
	if err != nil {
		s.logger.Error("failed to update property", slog.String("property_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	// An edited approved listing must be re-reviewed before going public again
	if updated.Status == models.PropertyApproved && !actor.IsAdmin() {
		reviewed, err := s.properties.UpdateModeration(ctx, id, models.PropertyApproved, models.PropertyPending, updated.AdminNotes, nil)
		if err != nil {
			s.logger.Error("failed to reset edited property to pending",
				slog.String("property_id", id), slog.Any("error", err))
			return updated, &models.CascadeError{Entity: "property", ID: id, Err: err}
		}
		updated = reviewed

		if err := s.revalidator.InvalidateProperty(ctx, updated.Slug); err != nil {
			s.logger.Error("failed to invalidate edited property page",
				slog.String("slug", updated.Slug), slog.Any("error", err))
			return updated, &models.CascadeError{Entity: "property_page_cache", ID: updated.Slug, Err: err}
		}
		if err := s.revalidator.InvalidateSitemap(ctx); err != nil {
			s.logger.Error("failed to invalidate sitemap after edit",
				slog.String("property_id", id), slog.Any("error", err))
			return updated, &models.CascadeError{Entity: "sitemap_cache", ID: id, Err: err}
		}
	}

	return updated, nil
}

// Delete removes a listing and drops its cached public page
func (s *PropertyService) Delete(ctx context.Context, actor access.Actor, id string) error {
	existing, err := s.properties.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to get property", slog.String("property_id", id), slog.Any("error", err))
		return models.ErrInternalServer
	}

	if !access.CanDeleteProperty(actor, existing) {
		if actor.ID == "" {
			return models.ErrUnauthorized
		}
		return models.ErrForbidden
	}

	wasVisible := existing.Status == models.PropertyApproved

	if err := s.properties.Delete(ctx, id); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to delete property", slog.String("property_id", id), slog.Any("error", err))
		return models.ErrInternalServer
	}

	if wasVisible {
		if err := s.revalidator.InvalidateProperty(ctx, existing.Slug); err != nil {
			s.logger.Error("failed to invalidate deleted property page",
				slog.String("slug", existing.Slug), slog.Any("error", err))
			return &models.CascadeError{Entity: "property_page_cache", ID: existing.Slug, Err: err}
		}
		if err := s.revalidator.InvalidateSitemap(ctx); err != nil {
			s.logger.Error("failed to invalidate sitemap after delete",
				slog.String("property_id", id), slog.Any("error", err))
			return &models.CascadeError{Entity: "sitemap_cache", ID: id, Err: err}
		}
	}

	s.logger.Info("property deleted",
		slog.String("property_id", id),
		slog.String("actor_id", actor.ID))

	return nil
}

func validateProperty(p *models.Property) error {
	if p.Title == "" || p.Price <= 0 {
		return models.ErrBadRequest
	}
	if !p.PropertyType.Valid() || !p.ListingType.Valid() {
		return models.ErrBadRequest
	}
	if err := p.Features.Validate(p.PropertyType); err != nil {
		return models.ErrBadRequest
	}
	for _, amenity := range p.Amenities {
		if !models.ValidAmenity(p.PropertyType, amenity) {
			return models.ErrBadRequest
		}
	}
	return nil
}

func applyListingUpdates(existing, updates *models.Property) {
	if updates.Title != "" {
		existing.Title = updates.Title
	}
	if updates.Description != "" {
		existing.Description = updates.Description
	}
	if updates.ListingType != "" {
		existing.ListingType = updates.ListingType
	}
	if updates.Price > 0 {
		existing.Price = updates.Price
	}
	if updates.Area > 0 {
		existing.Area = updates.Area
	}
	if updates.Neighborhood != "" {
		existing.Neighborhood = updates.Neighborhood
	}
	if updates.Address != "" {
		existing.Address = updates.Address
	}
	if updates.Latitude != 0 {
		existing.Latitude = updates.Latitude
	}
	if updates.Longitude != 0 {
		existing.Longitude = updates.Longitude
	}
	if updates.Images != nil {
		existing.Images = updates.Images
	}
	if updates.Amenities != nil {
		existing.Amenities = updates.Amenities
	}
	if updates.Features.Residential != nil || updates.Features.Commercial != nil ||
		updates.Features.Industrial != nil || updates.Features.Land != nil {
		existing.Features = updates.Features
	}
	if updates.ContactPhone != "" {
		existing.ContactPhone = updates.ContactPhone
	}
	if updates.ContactEmail != "" {
		existing.ContactEmail = updates.ContactEmail
	}
}

// makeSlug builds a URL slug from the title plus a short random suffix so
// identical titles do not collide.
func makeSlug(title string) string {
	var b strings.Builder
	lastDash := true

	for _, r := range strings.ToLower(title) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastDash = false
		case !lastDash:
			b.WriteRune('-')
			lastDash = true
		}
	}

	slug := strings.Trim(b.String(), "-")
	if slug == "" {
		slug = "listing"
	}
	if len(slug) > 60 {
		slug = strings.Trim(slug[:60], "-")
	}

	suffix := strings.Split(uuid.New().String(), "-")[0]
	return fmt.Sprintf("%s-%s", slug, suffix)
}
