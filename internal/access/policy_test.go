package access

import (
	"testing"

	"github.com/DevinHarlan/lotboard/internal/models"
	"github.com/stretchr/testify/assert"
)

func adminActor() Actor {
	return Actor{ID: "admin1", Role: models.RoleAdmin, VerificationStatus: models.VerificationVerified}
}

func verifiedActor(id string) Actor {
	return Actor{ID: id, Role: models.RoleUser, VerificationStatus: models.VerificationVerified}
}

func unverifiedActor(id string) Actor {
	return Actor{ID: id, Role: models.RoleUser, VerificationStatus: models.VerificationUnverified}
}

func pendingProperty(ownerID string) *models.Property {
	return &models.Property{ID: "p1", OwnerID: ownerID, Status: models.PropertyPending}
}

func TestCanReadProperty_AnonymousDeniedForPending(t *testing.T) {
	assert.False(t, CanReadProperty(Anonymous(), pendingProperty("u1")))
}

func TestCanReadProperty_AnonymousAllowedForApproved(t *testing.T) {
	p := pendingProperty("u1")
	p.Status = models.PropertyApproved
	assert.True(t, CanReadProperty(Anonymous(), p))
}

func TestCanReadProperty_OwnerSeesOwnPending(t *testing.T) {
	assert.True(t, CanReadProperty(verifiedActor("u2"), pendingProperty("u2")))
}

func TestCanReadProperty_OtherUserDeniedForPending(t *testing.T) {
	assert.False(t, CanReadProperty(verifiedActor("u3"), pendingProperty("u2")))
}

func TestCanReadProperty_AdminSeesEverything(t *testing.T) {
	assert.True(t, CanReadProperty(adminActor(), pendingProperty("u1")))
}

func TestPropertyReadScope_Admin(t *testing.T) {
	assert.True(t, PropertyReadScope(adminActor()).Allowed())
}

func TestPropertyReadScope_Anonymous(t *testing.T) {
	d := PropertyReadScope(Anonymous())
	scope, filtered := d.Filter()
	assert.True(t, filtered)
	assert.Equal(t, models.PropertyApproved, scope.Status)
	assert.Empty(t, scope.OwnerID)
}

func TestPropertyReadScope_UserGetsOwnerException(t *testing.T) {
	d := PropertyReadScope(verifiedActor("u2"))
	scope, filtered := d.Filter()
	assert.True(t, filtered)
	assert.Equal(t, "u2", scope.OwnerID)
	assert.Equal(t, models.PropertyApproved, scope.Status)
	assert.True(t, scope.OwnerOrStatus)
}

func TestCanModerateProperty_AdminOnly(t *testing.T) {
	assert.True(t, CanModerateProperty(adminActor()))
	assert.False(t, CanModerateProperty(verifiedActor("u1")))
	assert.False(t, CanModerateProperty(Anonymous()))
}

func TestCanUpdateProperty_OwnerAndAdmin(t *testing.T) {
	p := pendingProperty("u2")
	assert.True(t, CanUpdateProperty(verifiedActor("u2"), p))
	assert.True(t, CanUpdateProperty(adminActor(), p))
	assert.False(t, CanUpdateProperty(verifiedActor("u9"), p))
	assert.False(t, CanUpdateProperty(Anonymous(), p))
}

func TestCanCreateProperty_RequiresVerification(t *testing.T) {
	assert.True(t, CanCreateProperty(verifiedActor("u1")))
	assert.True(t, CanCreateProperty(adminActor()))
	assert.False(t, CanCreateProperty(unverifiedActor("u1")))
	assert.False(t, CanCreateProperty(Anonymous()))
}

func TestCanReviewVerification_SubjectMayNotSelfApprove(t *testing.T) {
	assert.True(t, CanReviewVerification(adminActor()))
	assert.False(t, CanReviewVerification(verifiedActor("u1")))
}

func TestCanWriteUserField_GatesPrivilegedFields(t *testing.T) {
	self := verifiedActor("u1")
	assert.True(t, CanWriteUserField(self, "name"))
	assert.True(t, CanWriteUserField(self, "phone"))
	assert.False(t, CanWriteUserField(self, "role"))
	assert.False(t, CanWriteUserField(self, "verification_status"))

	assert.True(t, CanWriteUserField(adminActor(), "role"))
	assert.True(t, CanWriteUserField(adminActor(), "verification_status"))
}

func TestCanUpdateUser_SelfOrAdmin(t *testing.T) {
	assert.True(t, CanUpdateUser(verifiedActor("u1"), "u1"))
	assert.False(t, CanUpdateUser(verifiedActor("u1"), "u2"))
	assert.True(t, CanUpdateUser(adminActor(), "u2"))
	assert.False(t, CanUpdateUser(Anonymous(), "u1"))
}

func TestInquiryReadScope(t *testing.T) {
	assert.True(t, InquiryReadScope(adminActor()).Allowed())
	assert.True(t, InquiryReadScope(Anonymous()).Denied())

	scope, filtered := InquiryReadScope(verifiedActor("u5")).Filter()
	assert.True(t, filtered)
	assert.Equal(t, "u5", scope.OwnerID)
}
