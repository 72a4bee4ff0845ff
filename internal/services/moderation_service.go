package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/DevinHarlan/lotboard/internal/access"
	"github.com/DevinHarlan/lotboard/internal/models"
	"github.com/DevinHarlan/lotboard/internal/repositories"
	pkglogger "github.com/DevinHarlan/lotboard/pkg/logger"
)

// PropertyRepository defines the interface for property data access
type PropertyRepository interface {
	GetByID(ctx context.Context, id string) (*models.Property, error)
	GetBySlug(ctx context.Context, slug string) (*models.Property, error)
	Create(ctx context.Context, property *models.Property) (*models.Property, error)
	UpdateListing(ctx context.Context, id string, property *models.Property) (*models.Property, error)
	UpdateModeration(ctx context.Context, id string, expectedStatus, newStatus models.PropertyStatus, adminNotes string, featured *bool) (*models.Property, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter repositories.PropertyFilter) ([]*models.Property, error)
	Count(ctx context.Context, filter repositories.PropertyFilter) (int64, error)
}

// PageRevalidator is the subset of the cache layer used by moderation
type PageRevalidator interface {
	InvalidateProperty(ctx context.Context, slug string) error
	InvalidateSitemap(ctx context.Context) error
}

// PropertyNotifier is the subset of Notifier used by moderation
type PropertyNotifier interface {
	NotifyPropertyStatus(ctx context.Context, owner *models.User, property *models.Property) error
}

// ModeratePropertyInput carries an admin status decision on a listing
type ModeratePropertyInput struct {
	ExpectedStatus models.PropertyStatus // status the admin last saw
	NewStatus      models.PropertyStatus
	AdminNotes     string
	Featured       *bool
}

// ModerationService runs the listing moderation workflow: admin status
// decisions, the public cache invalidation they imply and owner notification.
type ModerationService struct {
	properties  PropertyRepository
	users       UserRepository
	revalidator PageRevalidator
	notifier    PropertyNotifier
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
}

// NewModerationService creates a new ModerationService
func NewModerationService(
	properties PropertyRepository,
	users UserRepository,
	revalidator PageRevalidator,
	notifier PropertyNotifier,
	logger *slog.Logger,
	auditLogger *pkglogger.AuditLogger,
) *ModerationService {
	return &ModerationService{
		properties:  properties,
		users:       users,
		revalidator: revalidator,
		notifier:    notifier,
		logger:      logger,
		auditLogger: auditLogger,
	}
}

// Transition applies an admin status decision to a listing.
//
// The caller passes the property it already holds, and the decision is
// diffed against that snapshot: a status equal to the current one is a no-op
// with no cache invalidation and no owner email. Admins may re-route freely
// among pending, approved and rejected; sold is terminal. The update is a
// compare-and-swap against the snapshot status, so racing admins cannot both
// win. When the transition moves the listing into or out of public
// visibility, the cached detail page and the sitemap are invalidated before
// returning; an invalidation failure is returned as a CascadeError alongside
// the committed property. The owner notification is part of the transition,
// and its failure is only logged.
func (s *ModerationService) Transition(ctx context.Context, actor access.Actor, previous *models.Property, input ModeratePropertyInput) (*models.Property, error) {
	if !access.CanModerateProperty(actor) {
		if actor.ID == "" {
			return nil, models.ErrUnauthorized
		}
		return nil, models.ErrForbidden
	}

	if !input.NewStatus.Valid() {
		return nil, models.ErrBadRequest
	}

	// Same-status decision is idempotent: no mutation, no side effects
	if previous.Status == input.NewStatus {
		return previous, nil
	}

	// Sold is terminal
	if previous.Status == models.PropertySold {
		return nil, models.ErrInvalidStatus
	}

	expected := input.ExpectedStatus
	if expected == "" {
		expected = previous.Status
	}

	updated, err := s.properties.UpdateModeration(ctx, previous.ID, expected, input.NewStatus, input.AdminNotes, input.Featured)
	if err != nil {
		if errors.Is(err, models.ErrStatusChanged) {
			s.logger.Info("concurrent moderation detected", slog.String("property_id", previous.ID))
			return nil, models.ErrStatusChanged
		}
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to update property status", slog.String("property_id", previous.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.auditLogger.LogModerationDecision(actor.ID, updated.ID, string(previous.Status), string(updated.Status))

	if cascadeErr := s.revalidate(ctx, previous.Status, updated); cascadeErr != nil {
		s.notifyOwner(ctx, updated)
		return updated, cascadeErr
	}

	s.notifyOwner(ctx, updated)

	s.logger.Info("property moderated",
		slog.String("property_id", updated.ID),
		slog.String("from_status", string(previous.Status)),
		slog.String("to_status", string(updated.Status)))

	return updated, nil
}

// revalidate drops cached public pages when the listing entered or left
// public visibility.
func (s *ModerationService) revalidate(ctx context.Context, previousStatus models.PropertyStatus, property *models.Property) error {
	wasVisible := previousStatus == models.PropertyApproved
	isVisible := property.Status == models.PropertyApproved
	if !wasVisible && !isVisible {
		return nil
	}

	if err := s.revalidator.InvalidateProperty(ctx, property.Slug); err != nil {
		s.logger.Error("property page invalidation failed",
			slog.String("property_id", property.ID),
			slog.String("slug", property.Slug),
			slog.Any("error", err))
		return &models.CascadeError{Entity: "property_page_cache", ID: property.Slug, Err: err}
	}

	if err := s.revalidator.InvalidateSitemap(ctx); err != nil {
		s.logger.Error("sitemap invalidation failed",
			slog.String("property_id", property.ID),
			slog.Any("error", err))
		return &models.CascadeError{Entity: "sitemap_cache", ID: property.ID, Err: err}
	}

	return nil
}

func (s *ModerationService) notifyOwner(ctx context.Context, property *models.Property) {
	owner, err := s.users.GetByID(ctx, property.OwnerID)
	if err != nil {
		s.logger.Error("failed to load owner for status notice",
			slog.String("property_id", property.ID),
			slog.String("owner_id", property.OwnerID),
			slog.Any("error", err))
		return
	}

	if err := s.notifier.NotifyPropertyStatus(ctx, owner, property); err != nil {
		// Already recorded as failed in the email log
		s.logger.Warn("property status notification failed",
			slog.String("property_id", property.ID),
			slog.Any("error", err))
	}
}

// ResendStatusNotification re-sends the current status email to the owner.
// The transition itself already notifies; this exists for admins to retry
// after a delivery failure.
func (s *ModerationService) ResendStatusNotification(ctx context.Context, actor access.Actor, propertyID string) error {
	if !access.CanModerateProperty(actor) {
		if actor.ID == "" {
			return models.ErrUnauthorized
		}
		return models.ErrForbidden
	}

	property, err := s.properties.GetByID(ctx, propertyID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to load property", slog.String("property_id", propertyID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	if property.Status == models.PropertyPending {
		return models.ErrInvalidStatus
	}

	owner, err := s.users.GetByID(ctx, property.OwnerID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to load owner", slog.String("owner_id", property.OwnerID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	if err := s.notifier.NotifyPropertyStatus(ctx, owner, property); err != nil {
		// Recorded as failed in the email log; the resend endpoint does
		// surface the failure so the admin knows to retry again
		return models.ErrInternalServer
	}

	return nil
}
