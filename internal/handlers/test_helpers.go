package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DevinHarlan/lotboard/internal/access"
	"github.com/DevinHarlan/lotboard/internal/auth"
	"github.com/DevinHarlan/lotboard/internal/models"
	"github.com/DevinHarlan/lotboard/internal/services"
	pkghttp "github.com/DevinHarlan/lotboard/pkg/http"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
)

// NewTestRequest creates an HTTP request with JSON body for testing
func NewTestRequest(t *testing.T, method, url string, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// WithAuthContext adds user claims to request context for testing authenticated endpoints
func WithAuthContext(req *http.Request, userID, email, role string) *http.Request {
	claims := &models.TokenClaims{
		UserID: userID,
		Email:  email,
		Role:   role,
		Type:   "access",
	}
	ctx := context.WithValue(req.Context(), auth.UserContextKey, claims)
	return req.WithContext(ctx)
}

// WithURLParam injects a chi route parameter into the request context
func WithURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

// AssertJSONResponse checks that response has correct status and decodes JSON body
func AssertJSONResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, target interface{}) {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	if target != nil {
		err := json.Unmarshal(w.Body.Bytes(), target)
		assert.NoError(t, err, "Failed to decode response JSON")
	}
}

// AssertErrorResponse checks that response is a valid error response
func AssertErrorResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedError string) {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	var resp pkghttp.ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	assert.NoError(t, err, "Failed to decode error response")
	assert.Equal(t, expectedError, resp.Error, "Error code mismatch")
	assert.NotEmpty(t, resp.Message, "Error message should not be empty")
}

// TestUserStore is a fixed set of users backing the actor resolver in tests
type TestUserStore struct {
	Users map[string]*models.User
}

func (s *TestUserStore) GetByID(ctx context.Context, id string) (*models.User, error) {
	if user, ok := s.Users[id]; ok {
		return user, nil
	}
	return nil, models.ErrNotFound
}

// NewTestResolver builds an ActorResolver over a fixed user set
func NewTestResolver(users ...*models.User) *ActorResolver {
	store := &TestUserStore{Users: make(map[string]*models.User, len(users))}
	for _, user := range users {
		store.Users[user.ID] = user
	}
	return NewActorResolver(store)
}

// Mock services with function fields, one per handler dependency

type MockVerificationService struct {
	SubmitFunc     func(ctx context.Context, actor access.Actor, input services.SubmitVerificationInput) (*models.VerificationRequest, error)
	ReviewFunc     func(ctx context.Context, actor access.Actor, requestID string, input services.ReviewVerificationInput) (*models.VerificationRequest, error)
	GetFunc        func(ctx context.Context, actor access.Actor, requestID string) (*models.VerificationRequest, error)
	GetForUserFunc func(ctx context.Context, actor access.Actor) (*models.VerificationRequest, error)
	ListFunc       func(ctx context.Context, actor access.Actor, status models.RequestStatus, limit, offset int) ([]*models.VerificationRequest, error)
}

func (m *MockVerificationService) Submit(ctx context.Context, actor access.Actor, input services.SubmitVerificationInput) (*models.VerificationRequest, error) {
	return m.SubmitFunc(ctx, actor, input)
}

func (m *MockVerificationService) Review(ctx context.Context, actor access.Actor, requestID string, input services.ReviewVerificationInput) (*models.VerificationRequest, error) {
	return m.ReviewFunc(ctx, actor, requestID, input)
}

func (m *MockVerificationService) Get(ctx context.Context, actor access.Actor, requestID string) (*models.VerificationRequest, error) {
	return m.GetFunc(ctx, actor, requestID)
}

func (m *MockVerificationService) GetForUser(ctx context.Context, actor access.Actor) (*models.VerificationRequest, error) {
	return m.GetForUserFunc(ctx, actor)
}

func (m *MockVerificationService) List(ctx context.Context, actor access.Actor, status models.RequestStatus, limit, offset int) ([]*models.VerificationRequest, error) {
	return m.ListFunc(ctx, actor, status, limit, offset)
}

type MockUserService struct {
	GetFunc    func(ctx context.Context, actor access.Actor, id string) (*models.User, error)
	ListFunc   func(ctx context.Context, actor access.Actor, limit, offset int) ([]*models.User, error)
	UpdateFunc func(ctx context.Context, actor access.Actor, id string, input services.UpdateUserInput) (*models.User, error)
}

func (m *MockUserService) Get(ctx context.Context, actor access.Actor, id string) (*models.User, error) {
	return m.GetFunc(ctx, actor, id)
}

func (m *MockUserService) List(ctx context.Context, actor access.Actor, limit, offset int) ([]*models.User, error) {
	return m.ListFunc(ctx, actor, limit, offset)
}

func (m *MockUserService) Update(ctx context.Context, actor access.Actor, id string, input services.UpdateUserInput) (*models.User, error) {
	return m.UpdateFunc(ctx, actor, id, input)
}

type MockPropertyService struct {
	CreateFunc    func(ctx context.Context, actor access.Actor, property *models.Property) (*models.Property, error)
	GetFunc       func(ctx context.Context, actor access.Actor, id string) (*models.Property, error)
	GetBySlugFunc func(ctx context.Context, actor access.Actor, slug string) (*models.Property, error)
	ListFunc      func(ctx context.Context, actor access.Actor, opts services.PropertyListOptions) ([]*models.Property, error)
	UpdateFunc    func(ctx context.Context, actor access.Actor, id string, updates *models.Property) (*models.Property, error)
	DeleteFunc    func(ctx context.Context, actor access.Actor, id string) error
}

func (m *MockPropertyService) Create(ctx context.Context, actor access.Actor, property *models.Property) (*models.Property, error) {
	return m.CreateFunc(ctx, actor, property)
}

func (m *MockPropertyService) Get(ctx context.Context, actor access.Actor, id string) (*models.Property, error) {
	return m.GetFunc(ctx, actor, id)
}

func (m *MockPropertyService) GetBySlug(ctx context.Context, actor access.Actor, slug string) (*models.Property, error) {
	return m.GetBySlugFunc(ctx, actor, slug)
}

func (m *MockPropertyService) List(ctx context.Context, actor access.Actor, opts services.PropertyListOptions) ([]*models.Property, error) {
	return m.ListFunc(ctx, actor, opts)
}

func (m *MockPropertyService) Update(ctx context.Context, actor access.Actor, id string, updates *models.Property) (*models.Property, error) {
	return m.UpdateFunc(ctx, actor, id, updates)
}

func (m *MockPropertyService) Delete(ctx context.Context, actor access.Actor, id string) error {
	return m.DeleteFunc(ctx, actor, id)
}

type MockModerationService struct {
	TransitionFunc               func(ctx context.Context, actor access.Actor, previous *models.Property, input services.ModeratePropertyInput) (*models.Property, error)
	ResendStatusNotificationFunc func(ctx context.Context, actor access.Actor, propertyID string) error
}

func (m *MockModerationService) Transition(ctx context.Context, actor access.Actor, previous *models.Property, input services.ModeratePropertyInput) (*models.Property, error) {
	return m.TransitionFunc(ctx, actor, previous, input)
}

func (m *MockModerationService) ResendStatusNotification(ctx context.Context, actor access.Actor, propertyID string) error {
	return m.ResendStatusNotificationFunc(ctx, actor, propertyID)
}

// MockPresigner returns a deterministic URL per document key
type MockPresigner struct {
	Err error
}

func (m *MockPresigner) PresignDocument(ctx context.Context, key string) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	return "https://documents.test/" + key + "?signed=1", nil
}
