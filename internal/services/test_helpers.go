package services

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/DevinHarlan/lotboard/internal/models"
	"github.com/DevinHarlan/lotboard/internal/repositories"
	pkglogger "github.com/DevinHarlan/lotboard/pkg/logger"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testAuditLogger() *pkglogger.AuditLogger {
	return pkglogger.NewAuditLogger(testLogger())
}

// MockUserRepository implements UserRepository for testing
type MockUserRepository struct {
	GetByIDFunc               func(ctx context.Context, id string) (*models.User, error)
	GetByEmailFunc            func(ctx context.Context, email string) (*models.User, error)
	ListFunc                  func(ctx context.Context, limit, offset int) ([]*models.User, error)
	ListAdminsFunc            func(ctx context.Context) ([]*models.User, error)
	CreateFunc                func(ctx context.Context, user *models.User) (*models.User, error)
	UpdateFunc                func(ctx context.Context, id string, user *models.User) (*models.User, error)
	SetVerificationStatusFunc func(ctx context.Context, id string, status models.VerificationStatus) error
	DeleteFunc                func(ctx context.Context, id string) error
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) List(ctx context.Context, limit, offset int) ([]*models.User, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}
	return []*models.User{}, nil
}

func (m *MockUserRepository) ListAdmins(ctx context.Context) ([]*models.User, error) {
	if m.ListAdminsFunc != nil {
		return m.ListAdminsFunc(ctx)
	}
	return []*models.User{}, nil
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user)
	}
	return nil, models.ErrInternalServer
}

func (m *MockUserRepository) Update(ctx context.Context, id string, user *models.User) (*models.User, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, user)
	}
	return nil, models.ErrInternalServer
}

func (m *MockUserRepository) SetVerificationStatus(ctx context.Context, id string, status models.VerificationStatus) error {
	if m.SetVerificationStatusFunc != nil {
		return m.SetVerificationStatusFunc(ctx, id, status)
	}
	return nil
}

func (m *MockUserRepository) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

// MockVerificationRequestRepository implements VerificationRequestRepository for testing
type MockVerificationRequestRepository struct {
	GetByIDFunc       func(ctx context.Context, id string) (*models.VerificationRequest, error)
	GetByUserIDFunc   func(ctx context.Context, userID string) (*models.VerificationRequest, error)
	UpsertFunc        func(ctx context.Context, request *models.VerificationRequest) (*models.VerificationRequest, error)
	UpdateReviewFunc  func(ctx context.Context, id string, expectedStatus, newStatus models.RequestStatus, adminNotes, reviewedBy string) (*models.VerificationRequest, error)
	ListFunc          func(ctx context.Context, status models.RequestStatus, limit, offset int) ([]*models.VerificationRequest, error)
	CountByStatusFunc func(ctx context.Context, status models.RequestStatus) (int64, error)
	DeleteFunc        func(ctx context.Context, id string) error
}

func (m *MockVerificationRequestRepository) GetByID(ctx context.Context, id string) (*models.VerificationRequest, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockVerificationRequestRepository) GetByUserID(ctx context.Context, userID string) (*models.VerificationRequest, error) {
	if m.GetByUserIDFunc != nil {
		return m.GetByUserIDFunc(ctx, userID)
	}
	return nil, models.ErrNotFound
}

func (m *MockVerificationRequestRepository) Upsert(ctx context.Context, request *models.VerificationRequest) (*models.VerificationRequest, error) {
	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, request)
	}
	return nil, models.ErrInternalServer
}

func (m *MockVerificationRequestRepository) UpdateReview(ctx context.Context, id string, expectedStatus, newStatus models.RequestStatus, adminNotes, reviewedBy string) (*models.VerificationRequest, error) {
	if m.UpdateReviewFunc != nil {
		return m.UpdateReviewFunc(ctx, id, expectedStatus, newStatus, adminNotes, reviewedBy)
	}
	return nil, models.ErrInternalServer
}

func (m *MockVerificationRequestRepository) List(ctx context.Context, status models.RequestStatus, limit, offset int) ([]*models.VerificationRequest, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, status, limit, offset)
	}
	return []*models.VerificationRequest{}, nil
}

func (m *MockVerificationRequestRepository) CountByStatus(ctx context.Context, status models.RequestStatus) (int64, error) {
	if m.CountByStatusFunc != nil {
		return m.CountByStatusFunc(ctx, status)
	}
	return 0, nil
}

func (m *MockVerificationRequestRepository) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

// MockPropertyRepository implements PropertyRepository for testing
type MockPropertyRepository struct {
	GetByIDFunc          func(ctx context.Context, id string) (*models.Property, error)
	GetBySlugFunc        func(ctx context.Context, slug string) (*models.Property, error)
	CreateFunc           func(ctx context.Context, property *models.Property) (*models.Property, error)
	UpdateListingFunc    func(ctx context.Context, id string, property *models.Property) (*models.Property, error)
	UpdateModerationFunc func(ctx context.Context, id string, expectedStatus, newStatus models.PropertyStatus, adminNotes string, featured *bool) (*models.Property, error)
	DeleteFunc           func(ctx context.Context, id string) error
	ListFunc             func(ctx context.Context, filter repositories.PropertyFilter) ([]*models.Property, error)
	CountFunc            func(ctx context.Context, filter repositories.PropertyFilter) (int64, error)
}

func (m *MockPropertyRepository) GetByID(ctx context.Context, id string) (*models.Property, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockPropertyRepository) GetBySlug(ctx context.Context, slug string) (*models.Property, error) {
	if m.GetBySlugFunc != nil {
		return m.GetBySlugFunc(ctx, slug)
	}
	return nil, models.ErrNotFound
}

func (m *MockPropertyRepository) Create(ctx context.Context, property *models.Property) (*models.Property, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, property)
	}
	return nil, models.ErrInternalServer
}

func (m *MockPropertyRepository) UpdateListing(ctx context.Context, id string, property *models.Property) (*models.Property, error) {
	if m.UpdateListingFunc != nil {
		return m.UpdateListingFunc(ctx, id, property)
	}
	return nil, models.ErrInternalServer
}

func (m *MockPropertyRepository) UpdateModeration(ctx context.Context, id string, expectedStatus, newStatus models.PropertyStatus, adminNotes string, featured *bool) (*models.Property, error) {
	if m.UpdateModerationFunc != nil {
		return m.UpdateModerationFunc(ctx, id, expectedStatus, newStatus, adminNotes, featured)
	}
	return nil, models.ErrInternalServer
}

func (m *MockPropertyRepository) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

func (m *MockPropertyRepository) List(ctx context.Context, filter repositories.PropertyFilter) ([]*models.Property, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter)
	}
	return []*models.Property{}, nil
}

func (m *MockPropertyRepository) Count(ctx context.Context, filter repositories.PropertyFilter) (int64, error) {
	if m.CountFunc != nil {
		return m.CountFunc(ctx, filter)
	}
	return 0, nil
}

// MockInquiryRepository implements InquiryRepository for testing
type MockInquiryRepository struct {
	CreateFunc        func(ctx context.Context, inquiry *models.Inquiry) (*models.Inquiry, error)
	ListFunc          func(ctx context.Context, filter repositories.InquiryFilter) ([]*models.Inquiry, error)
	CountFunc         func(ctx context.Context, filter repositories.InquiryFilter) (int64, error)
	MarkRespondedFunc func(ctx context.Context, id, ownerID string) error
}

func (m *MockInquiryRepository) Create(ctx context.Context, inquiry *models.Inquiry) (*models.Inquiry, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, inquiry)
	}
	return nil, models.ErrInternalServer
}

func (m *MockInquiryRepository) List(ctx context.Context, filter repositories.InquiryFilter) ([]*models.Inquiry, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter)
	}
	return []*models.Inquiry{}, nil
}

func (m *MockInquiryRepository) Count(ctx context.Context, filter repositories.InquiryFilter) (int64, error) {
	if m.CountFunc != nil {
		return m.CountFunc(ctx, filter)
	}
	return 0, nil
}

func (m *MockInquiryRepository) MarkResponded(ctx context.Context, id, ownerID string) error {
	if m.MarkRespondedFunc != nil {
		return m.MarkRespondedFunc(ctx, id, ownerID)
	}
	return nil
}

// MockEmailLogRepository implements EmailLogRepository for testing
type MockEmailLogRepository struct {
	CreateFunc func(ctx context.Context, log *models.EmailLog) (*models.EmailLog, error)

	// Created collects every log row written, for assertions
	mu      sync.Mutex
	Created []*models.EmailLog
}

func (m *MockEmailLogRepository) Create(ctx context.Context, log *models.EmailLog) (*models.EmailLog, error) {
	m.mu.Lock()
	m.Created = append(m.Created, log)
	m.mu.Unlock()
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, log)
	}
	return log, nil
}

// MockMailer implements Mailer for testing
type MockMailer struct {
	SendFunc func(ctx context.Context, to, subject, htmlBody, textBody string) error

	// Sent collects every delivery attempt, for assertions
	mu   sync.Mutex
	Sent []MockSentEmail
}

type MockSentEmail struct {
	To       string
	Subject  string
	HTMLBody string
	TextBody string
}

func (m *MockMailer) Send(ctx context.Context, to, subject, htmlBody, textBody string) error {
	m.mu.Lock()
	m.Sent = append(m.Sent, MockSentEmail{To: to, Subject: subject, HTMLBody: htmlBody, TextBody: textBody})
	m.mu.Unlock()
	if m.SendFunc != nil {
		return m.SendFunc(ctx, to, subject, htmlBody, textBody)
	}
	return nil
}

// MockRevalidator implements PageRevalidator for testing
type MockRevalidator struct {
	InvalidatePropertyFunc func(ctx context.Context, slug string) error
	InvalidateSitemapFunc  func(ctx context.Context) error

	InvalidatedSlugs    []string
	SitemapInvalidations int
}

func (m *MockRevalidator) InvalidateProperty(ctx context.Context, slug string) error {
	m.InvalidatedSlugs = append(m.InvalidatedSlugs, slug)
	if m.InvalidatePropertyFunc != nil {
		return m.InvalidatePropertyFunc(ctx, slug)
	}
	return nil
}

func (m *MockRevalidator) InvalidateSitemap(ctx context.Context) error {
	m.SitemapInvalidations++
	if m.InvalidateSitemapFunc != nil {
		return m.InvalidateSitemapFunc(ctx)
	}
	return nil
}

// NewTestUser builds a plain verified user for tests
func NewTestUser(id, email, name string) *models.User {
	now := time.Now()
	return &models.User{
		ID:                 id,
		Email:              email,
		Name:               name,
		Role:               models.RoleUser,
		VerificationStatus: models.VerificationVerified,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

// NewTestAdmin builds an admin user for tests
func NewTestAdmin(id, email, name string) *models.User {
	u := NewTestUser(id, email, name)
	u.Role = models.RoleAdmin
	return u
}

// NewTestRequest builds a pending verification request for tests
func NewTestRequest(id, userID string) *models.VerificationRequest {
	now := time.Now()
	return &models.VerificationRequest{
		ID:                     id,
		UserID:                 userID,
		UserName:               "Test User",
		UserEmail:              "user@example.com",
		Phone:                  "555-0100",
		Address:                "1 Test St",
		IdentificationDocument: "docs/id-front.jpg",
		SelfieWithID:           "docs/selfie.jpg",
		Status:                 models.RequestPending,
		SubmittedAt:            now,
		CreatedAt:              now,
		UpdatedAt:              now,
	}
}

// NewTestProperty builds a pending residential listing for tests
func NewTestProperty(id, ownerID string) *models.Property {
	now := time.Now()
	return &models.Property{
		ID:           id,
		OwnerID:      ownerID,
		Title:        "Sunny Three Bedroom",
		Slug:         "sunny-three-bedroom-abc123",
		Description:  "A bright family home",
		PropertyType: models.PropertyResidential,
		ListingType:  models.ListingSale,
		Price:        250000,
		Area:         140,
		Neighborhood: "Riverside",
		Features: models.Features{
			Residential: &models.ResidentialFeatures{Bedrooms: 3, Bathrooms: 2},
		},
		Status:    models.PropertyPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// newTestNotifier wires a real Notifier over the mock mailer and log repo so
// workflow tests exercise the actual logging contract.
func newTestNotifier(mailer *MockMailer, logs *MockEmailLogRepository) *Notifier {
	return NewNotifier(mailer, logs, 2*time.Second, testLogger())
}
