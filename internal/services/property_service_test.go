package services

import (
	"context"
	"strings"
	"testing"

	"github.com/DevinHarlan/lotboard/internal/access"
	"github.com/DevinHarlan/lotboard/internal/models"
	"github.com/DevinHarlan/lotboard/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func verifiedActor(id string) access.Actor {
	return access.Actor{ID: id, Role: models.RoleUser, VerificationStatus: models.VerificationVerified}
}

func newPropertyFixture() (*PropertyService, *MockPropertyRepository, *MockRevalidator) {
	properties := &MockPropertyRepository{}
	revalidator := &MockRevalidator{}
	svc := NewPropertyService(properties, revalidator, testLogger())
	return svc, properties, revalidator
}

func TestPropertyService_Create_Success(t *testing.T) {
	svc, properties, _ := newPropertyFixture()

	var created *models.Property
	properties.CreateFunc = func(ctx context.Context, property *models.Property) (*models.Property, error) {
		created = property
		return property, nil
	}

	input := NewTestProperty("", "")
	input.Status = models.PropertyApproved // callers cannot pick their status
	input.Featured = true
	input.AdminNotes = "smuggled"

	result, err := svc.Create(context.Background(), verifiedActor("u1"), input)

	require.NoError(t, err)
	assert.Equal(t, "u1", created.OwnerID)
	assert.Equal(t, models.PropertyPending, result.Status)
	assert.False(t, result.Featured)
	assert.Empty(t, result.AdminNotes)
	assert.True(t, strings.HasPrefix(result.Slug, "sunny-three-bedroom-"))
}

func TestPropertyService_Create_UnverifiedUserBlocked(t *testing.T) {
	svc, properties, _ := newPropertyFixture()

	properties.CreateFunc = func(ctx context.Context, property *models.Property) (*models.Property, error) {
		t.Fatal("unverified users must not reach the repository")
		return nil, nil
	}

	actor := access.Actor{ID: "u1", Role: models.RoleUser, VerificationStatus: models.VerificationUnverified}
	_, err := svc.Create(context.Background(), actor, NewTestProperty("", ""))
	assert.ErrorIs(t, err, models.ErrNotVerified)

	_, err = svc.Create(context.Background(), access.Anonymous(), NewTestProperty("", ""))
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestPropertyService_Create_SlugCollisionRetries(t *testing.T) {
	svc, properties, _ := newPropertyFixture()

	var slugs []string
	properties.CreateFunc = func(ctx context.Context, property *models.Property) (*models.Property, error) {
		slugs = append(slugs, property.Slug)
		if len(slugs) == 1 {
			return nil, models.ErrConflict
		}
		return property, nil
	}

	_, err := svc.Create(context.Background(), verifiedActor("u1"), NewTestProperty("", ""))

	require.NoError(t, err)
	require.Len(t, slugs, 2)
	assert.NotEqual(t, slugs[0], slugs[1])
}

func TestPropertyService_Create_ValidationRejectsBadInput(t *testing.T) {
	svc, _, _ := newPropertyFixture()

	tests := []struct {
		name   string
		mutate func(p *models.Property)
	}{
		{"missing title", func(p *models.Property) { p.Title = "" }},
		{"zero price", func(p *models.Property) { p.Price = 0 }},
		{"bad property type", func(p *models.Property) { p.PropertyType = "castle" }},
		{"bad listing type", func(p *models.Property) { p.ListingType = "barter" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewTestProperty("", "")
			tt.mutate(p)
			_, err := svc.Create(context.Background(), verifiedActor("u1"), p)
			assert.ErrorIs(t, err, models.ErrBadRequest)
		})
	}
}

func TestPropertyService_Get_HiddenListingLooksAbsent(t *testing.T) {
	svc, properties, _ := newPropertyFixture()

	pending := NewTestProperty("p1", "u1")
	properties.GetByIDFunc = func(ctx context.Context, id string) (*models.Property, error) {
		return pending, nil
	}

	// Owner and admin see the pending listing
	_, err := svc.Get(context.Background(), verifiedActor("u1"), "p1")
	assert.NoError(t, err)
	_, err = svc.Get(context.Background(), adminActor(), "p1")
	assert.NoError(t, err)

	// Everyone else gets a not-found, not a forbidden
	_, err = svc.Get(context.Background(), verifiedActor("u2"), "p1")
	assert.ErrorIs(t, err, models.ErrNotFound)
	_, err = svc.Get(context.Background(), access.Anonymous(), "p1")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestPropertyService_List_ScopesByActor(t *testing.T) {
	svc, properties, _ := newPropertyFixture()

	var gotFilter repositories.PropertyFilter
	properties.ListFunc = func(ctx context.Context, filter repositories.PropertyFilter) ([]*models.Property, error) {
		gotFilter = filter
		return []*models.Property{}, nil
	}

	_, err := svc.List(context.Background(), access.Anonymous(), PropertyListOptions{})
	require.NoError(t, err)
	assert.Equal(t, models.PropertyApproved, gotFilter.Status)
	assert.Empty(t, gotFilter.OwnerID)
	assert.False(t, gotFilter.OwnerOrStatus)

	_, err = svc.List(context.Background(), verifiedActor("u1"), PropertyListOptions{})
	require.NoError(t, err)
	assert.Equal(t, "u1", gotFilter.OwnerID)
	assert.Equal(t, models.PropertyApproved, gotFilter.Status)
	assert.True(t, gotFilter.OwnerOrStatus)

	_, err = svc.List(context.Background(), adminActor(), PropertyListOptions{})
	require.NoError(t, err)
	assert.Empty(t, gotFilter.OwnerID)
	assert.Empty(t, gotFilter.Status)
}

func TestPropertyService_List_PassesCallerFilters(t *testing.T) {
	svc, properties, _ := newPropertyFixture()

	var gotFilter repositories.PropertyFilter
	properties.ListFunc = func(ctx context.Context, filter repositories.PropertyFilter) ([]*models.Property, error) {
		gotFilter = filter
		return []*models.Property{}, nil
	}

	_, err := svc.List(context.Background(), access.Anonymous(), PropertyListOptions{
		PropertyType: models.PropertyCommercial,
		ListingType:  models.ListingRent,
		Neighborhood: "Riverside",
		MinPrice:     1000,
		MaxPrice:     5000,
		FeaturedOnly: true,
		Limit:        10,
		Offset:       20,
	})

	require.NoError(t, err)
	assert.Equal(t, models.PropertyCommercial, gotFilter.PropertyType)
	assert.Equal(t, models.ListingRent, gotFilter.ListingType)
	assert.Equal(t, "Riverside", gotFilter.Neighborhood)
	assert.Equal(t, float64(1000), gotFilter.MinPrice)
	assert.Equal(t, float64(5000), gotFilter.MaxPrice)
	assert.True(t, gotFilter.FeaturedOnly)
	assert.Equal(t, 10, gotFilter.Limit)
	assert.Equal(t, 20, gotFilter.Offset)
}

func TestPropertyService_Update_OwnerEditResetsApprovedToPending(t *testing.T) {
	svc, properties, revalidator := newPropertyFixture()

	approved := NewTestProperty("p1", "u1")
	approved.Status = models.PropertyApproved

	properties.GetByIDFunc = func(ctx context.Context, id string) (*models.Property, error) {
		return approved, nil
	}
	properties.UpdateListingFunc = func(ctx context.Context, id string, property *models.Property) (*models.Property, error) {
		return property, nil
	}
	properties.UpdateModerationFunc = func(ctx context.Context, id string, expected, newStatus models.PropertyStatus, notes string, featured *bool) (*models.Property, error) {
		assert.Equal(t, models.PropertyApproved, expected)
		assert.Equal(t, models.PropertyPending, newStatus)
		reset := *approved
		reset.Status = newStatus
		return &reset, nil
	}

	result, err := svc.Update(context.Background(), verifiedActor("u1"), "p1", &models.Property{Price: 275000})

	require.NoError(t, err)
	assert.Equal(t, models.PropertyPending, result.Status)
	assert.Equal(t, []string{approved.Slug}, revalidator.InvalidatedSlugs)
	assert.Equal(t, 1, revalidator.SitemapInvalidations)
}

func TestPropertyService_Update_AdminEditKeepsApproved(t *testing.T) {
	svc, properties, revalidator := newPropertyFixture()

	approved := NewTestProperty("p1", "u1")
	approved.Status = models.PropertyApproved

	properties.GetByIDFunc = func(ctx context.Context, id string) (*models.Property, error) {
		return approved, nil
	}
	properties.UpdateListingFunc = func(ctx context.Context, id string, property *models.Property) (*models.Property, error) {
		return property, nil
	}
	properties.UpdateModerationFunc = func(ctx context.Context, id string, expected, newStatus models.PropertyStatus, notes string, featured *bool) (*models.Property, error) {
		t.Fatal("admin edits must not trigger re-review")
		return nil, nil
	}

	result, err := svc.Update(context.Background(), adminActor(), "p1", &models.Property{Price: 275000})

	require.NoError(t, err)
	assert.Equal(t, models.PropertyApproved, result.Status)
	assert.Empty(t, revalidator.InvalidatedSlugs)
}

func TestPropertyService_Update_PendingEditStaysPending(t *testing.T) {
	svc, properties, revalidator := newPropertyFixture()

	pending := NewTestProperty("p1", "u1")
	properties.GetByIDFunc = func(ctx context.Context, id string) (*models.Property, error) {
		return pending, nil
	}
	properties.UpdateListingFunc = func(ctx context.Context, id string, property *models.Property) (*models.Property, error) {
		return property, nil
	}

	result, err := svc.Update(context.Background(), verifiedActor("u1"), "p1", &models.Property{Price: 275000})

	require.NoError(t, err)
	assert.Equal(t, models.PropertyPending, result.Status)
	assert.Equal(t, float64(275000), result.Price)
	assert.Empty(t, revalidator.InvalidatedSlugs)
}

func TestPropertyService_Update_NonOwnerForbidden(t *testing.T) {
	svc, properties, _ := newPropertyFixture()

	properties.GetByIDFunc = func(ctx context.Context, id string) (*models.Property, error) {
		return NewTestProperty("p1", "u1"), nil
	}

	_, err := svc.Update(context.Background(), verifiedActor("u2"), "p1", &models.Property{Price: 1})
	assert.ErrorIs(t, err, models.ErrForbidden)
}

func TestPropertyService_Delete_ApprovedListingDropsCache(t *testing.T) {
	svc, properties, revalidator := newPropertyFixture()

	approved := NewTestProperty("p1", "u1")
	approved.Status = models.PropertyApproved
	properties.GetByIDFunc = func(ctx context.Context, id string) (*models.Property, error) {
		return approved, nil
	}

	err := svc.Delete(context.Background(), verifiedActor("u1"), "p1")

	require.NoError(t, err)
	assert.Equal(t, []string{approved.Slug}, revalidator.InvalidatedSlugs)
	assert.Equal(t, 1, revalidator.SitemapInvalidations)
}

func TestPropertyService_Delete_PendingListingSkipsCache(t *testing.T) {
	svc, properties, revalidator := newPropertyFixture()

	properties.GetByIDFunc = func(ctx context.Context, id string) (*models.Property, error) {
		return NewTestProperty("p1", "u1"), nil
	}

	err := svc.Delete(context.Background(), verifiedActor("u1"), "p1")

	require.NoError(t, err)
	assert.Empty(t, revalidator.InvalidatedSlugs)
	assert.Equal(t, 0, revalidator.SitemapInvalidations)
}

func TestMakeSlug(t *testing.T) {
	tests := []struct {
		title  string
		prefix string
	}{
		{"Sunny Three Bedroom", "sunny-three-bedroom-"},
		{"  Loft!! Downtown  ", "loft-downtown-"},
		{"!!!", "listing-"},
	}

	for _, tt := range tests {
		slug := makeSlug(tt.title)
		assert.True(t, strings.HasPrefix(slug, tt.prefix), "slug %q should start with %q", slug, tt.prefix)
	}

	// Identical titles still get distinct slugs
	assert.NotEqual(t, makeSlug("same title"), makeSlug("same title"))
}
