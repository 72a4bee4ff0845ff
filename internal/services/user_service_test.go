package services

import (
	"context"
	"testing"

	"github.com/DevinHarlan/lotboard/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func newUserFixture() (*UserService, *MockUserRepository) {
	users := &MockUserRepository{}
	return NewUserService(users, testLogger(), testAuditLogger()), users
}

func TestUserService_Get_SelfAndAdminOnly(t *testing.T) {
	svc, users := newUserFixture()

	users.GetByIDFunc = func(ctx context.Context, id string) (*models.User, error) {
		return NewTestUser(id, "user@example.com", "User"), nil
	}

	_, err := svc.Get(context.Background(), userActor("u1"), "u1")
	assert.NoError(t, err)

	_, err = svc.Get(context.Background(), adminActor(), "u1")
	assert.NoError(t, err)

	_, err = svc.Get(context.Background(), userActor("u2"), "u1")
	assert.ErrorIs(t, err, models.ErrForbidden)
}

func TestUserService_List_AdminOnly(t *testing.T) {
	svc, users := newUserFixture()

	users.ListFunc = func(ctx context.Context, limit, offset int) ([]*models.User, error) {
		return []*models.User{NewTestUser("u1", "user@example.com", "User")}, nil
	}

	result, err := svc.List(context.Background(), adminActor(), 20, 0)
	require.NoError(t, err)
	assert.Len(t, result, 1)

	_, err = svc.List(context.Background(), userActor("u1"), 20, 0)
	assert.ErrorIs(t, err, models.ErrForbidden)
}

func TestUserService_Update_SelfServiceFields(t *testing.T) {
	svc, users := newUserFixture()

	users.GetByIDFunc = func(ctx context.Context, id string) (*models.User, error) {
		return NewTestUser(id, "user@example.com", "Old Name"), nil
	}

	var saved *models.User
	users.UpdateFunc = func(ctx context.Context, id string, user *models.User) (*models.User, error) {
		saved = user
		return user, nil
	}

	_, err := svc.Update(context.Background(), userActor("u1"), "u1", UpdateUserInput{
		Name:  strPtr("New Name"),
		Phone: strPtr("555-0199"),
	})

	require.NoError(t, err)
	assert.Equal(t, "New Name", saved.Name)
	assert.Equal(t, "555-0199", saved.Phone)
}

func TestUserService_Update_SelfCannotEscalate(t *testing.T) {
	svc, users := newUserFixture()

	users.GetByIDFunc = func(ctx context.Context, id string) (*models.User, error) {
		t.Fatal("a blocked field must fail the whole request before any read")
		return nil, nil
	}

	// role and verification_status are admin-only, even on one's own record
	_, err := svc.Update(context.Background(), userActor("u1"), "u1", UpdateUserInput{
		Name: strPtr("New Name"),
		Role: strPtr(models.RoleAdmin),
	})
	assert.ErrorIs(t, err, models.ErrForbidden)

	_, err = svc.Update(context.Background(), userActor("u1"), "u1", UpdateUserInput{
		VerificationStatus: strPtr(string(models.VerificationVerified)),
	})
	assert.ErrorIs(t, err, models.ErrForbidden)
}

func TestUserService_Update_AdminWritesProtectedFields(t *testing.T) {
	svc, users := newUserFixture()

	users.GetByIDFunc = func(ctx context.Context, id string) (*models.User, error) {
		u := NewTestUser(id, "user@example.com", "User")
		u.VerificationStatus = models.VerificationPending
		return u, nil
	}

	var saved *models.User
	users.UpdateFunc = func(ctx context.Context, id string, user *models.User) (*models.User, error) {
		saved = user
		return user, nil
	}

	_, err := svc.Update(context.Background(), adminActor(), "u1", UpdateUserInput{
		Role:               strPtr(models.RoleAdmin),
		VerificationStatus: strPtr(string(models.VerificationVerified)),
	})

	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, saved.Role)
	assert.Equal(t, models.VerificationVerified, saved.VerificationStatus)
}

func TestUserService_Update_RejectsInvalidValues(t *testing.T) {
	svc, users := newUserFixture()

	users.GetByIDFunc = func(ctx context.Context, id string) (*models.User, error) {
		return NewTestUser(id, "user@example.com", "User"), nil
	}

	_, err := svc.Update(context.Background(), adminActor(), "u1", UpdateUserInput{Role: strPtr("superuser")})
	assert.ErrorIs(t, err, models.ErrBadRequest)

	_, err = svc.Update(context.Background(), adminActor(), "u1", UpdateUserInput{VerificationStatus: strPtr("golden")})
	assert.ErrorIs(t, err, models.ErrBadRequest)
}
