package services

import (
	"context"
	"testing"

	"github.com/DevinHarlan/lotboard/internal/access"
	"github.com/DevinHarlan/lotboard/internal/models"
	"github.com/DevinHarlan/lotboard/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newInquiryFixture() (*InquiryService, *MockInquiryRepository, *MockPropertyRepository) {
	inquiries := &MockInquiryRepository{}
	properties := &MockPropertyRepository{}
	svc := NewInquiryService(inquiries, properties, testLogger())
	return svc, inquiries, properties
}

func TestInquiryService_Submit_Success(t *testing.T) {
	svc, inquiries, properties := newInquiryFixture()

	approved := NewTestProperty("p1", "u1")
	approved.Status = models.PropertyApproved
	properties.GetByIDFunc = func(ctx context.Context, id string) (*models.Property, error) {
		return approved, nil
	}

	var created *models.Inquiry
	inquiries.CreateFunc = func(ctx context.Context, inquiry *models.Inquiry) (*models.Inquiry, error) {
		created = inquiry
		saved := *inquiry
		saved.ID = "i1"
		return &saved, nil
	}

	result, err := svc.Submit(context.Background(), "p1", SubmitInquiryInput{
		Name:    "Visitor",
		Email:   "visitor@example.com",
		Message: "Is this still available?",
	})

	require.NoError(t, err)
	assert.Equal(t, "i1", result.ID)
	assert.Equal(t, "p1", created.PropertyID)
}

func TestInquiryService_Submit_HiddenListingLooksAbsent(t *testing.T) {
	svc, inquiries, properties := newInquiryFixture()

	properties.GetByIDFunc = func(ctx context.Context, id string) (*models.Property, error) {
		return NewTestProperty("p1", "u1"), nil
	}
	inquiries.CreateFunc = func(ctx context.Context, inquiry *models.Inquiry) (*models.Inquiry, error) {
		t.Fatal("inquiries must not land on non-visible listings")
		return nil, nil
	}

	_, err := svc.Submit(context.Background(), "p1", SubmitInquiryInput{
		Name:    "Visitor",
		Email:   "visitor@example.com",
		Message: "Is this still available?",
	})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestInquiryService_Submit_RequiredFields(t *testing.T) {
	svc, _, _ := newInquiryFixture()

	_, err := svc.Submit(context.Background(), "p1", SubmitInquiryInput{Name: "Visitor"})
	assert.ErrorIs(t, err, models.ErrBadRequest)
}

func TestInquiryService_List_ScopesByActor(t *testing.T) {
	svc, inquiries, _ := newInquiryFixture()

	var gotFilter repositories.InquiryFilter
	inquiries.ListFunc = func(ctx context.Context, filter repositories.InquiryFilter) ([]*models.Inquiry, error) {
		gotFilter = filter
		return []*models.Inquiry{}, nil
	}

	_, err := svc.List(context.Background(), adminActor(), "", 20, 0)
	require.NoError(t, err)
	assert.Empty(t, gotFilter.OwnerID)

	_, err = svc.List(context.Background(), userActor("u1"), "", 20, 0)
	require.NoError(t, err)
	assert.Equal(t, "u1", gotFilter.OwnerID)

	_, err = svc.List(context.Background(), access.Anonymous(), "", 20, 0)
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestInquiryService_MarkResponded_OwnerScopePassedThrough(t *testing.T) {
	svc, inquiries, _ := newInquiryFixture()

	var gotOwnerID string
	inquiries.MarkRespondedFunc = func(ctx context.Context, id, ownerID string) error {
		gotOwnerID = ownerID
		return nil
	}

	err := svc.MarkResponded(context.Background(), userActor("u1"), "i1")
	require.NoError(t, err)
	assert.Equal(t, "u1", gotOwnerID)

	err = svc.MarkResponded(context.Background(), adminActor(), "i1")
	require.NoError(t, err)
	assert.Empty(t, gotOwnerID)
}

func TestInquiryService_MarkResponded_OutOfScopeLooksAbsent(t *testing.T) {
	svc, inquiries, _ := newInquiryFixture()

	inquiries.MarkRespondedFunc = func(ctx context.Context, id, ownerID string) error {
		return models.ErrNotFound
	}

	err := svc.MarkResponded(context.Background(), userActor("u2"), "i1")
	assert.ErrorIs(t, err, models.ErrNotFound)
}
