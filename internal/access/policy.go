// Package access holds the authorization predicates for the listing board.
// Predicates are pure: they look only at the actor and the entity (or return
// a query scope for list endpoints) and never touch the database.
package access

import (
	"github.com/DevinHarlan/lotboard/internal/models"
)

// Actor is the authenticated principal a predicate is evaluated against.
// The zero value is the anonymous actor.
type Actor struct {
	ID                 string
	Role               string
	VerificationStatus models.VerificationStatus
}

// Anonymous returns the unauthenticated actor.
func Anonymous() Actor {
	return Actor{}
}

// ActorFor builds an Actor from a loaded user record.
func ActorFor(u *models.User) Actor {
	return Actor{
		ID:                 u.ID,
		Role:               u.Role,
		VerificationStatus: u.VerificationStatus,
	}
}

func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}

func (a Actor) IsAnonymous() bool {
	return a.ID == ""
}

// Scope narrows a list query. Zero fields are unconstrained.
type Scope struct {
	OwnerID string
	Status  models.PropertyStatus

	// OwnerOrStatus widens the scope to rows that are either owned by
	// OwnerID or carry Status (the owner exception to approved-only reads).
	OwnerOrStatus bool
}

type decisionKind int

const (
	decisionDeny decisionKind = iota
	decisionAllow
	decisionFiltered
)

// Decision is the outcome of a policy check: unrestricted, denied outright,
// or restricted to a query scope.
type Decision struct {
	kind  decisionKind
	scope Scope
}

func Allow() Decision {
	return Decision{kind: decisionAllow}
}

func Deny() Decision {
	return Decision{kind: decisionDeny}
}

func FilteredBy(s Scope) Decision {
	return Decision{kind: decisionFiltered, scope: s}
}

func (d Decision) Allowed() bool {
	return d.kind == decisionAllow
}

func (d Decision) Denied() bool {
	return d.kind == decisionDeny
}

// Filter returns the scope and whether the decision is a filtered one.
func (d Decision) Filter() (Scope, bool) {
	return d.scope, d.kind == decisionFiltered
}

// PropertyReadScope scopes a property list query. Admins see everything,
// authenticated users see approved listings plus their own in any status,
// and anonymous readers see approved listings only.
func PropertyReadScope(actor Actor) Decision {
	if actor.IsAdmin() {
		return Allow()
	}
	if actor.IsAnonymous() {
		return FilteredBy(Scope{Status: models.PropertyApproved})
	}
	return FilteredBy(Scope{
		OwnerID:       actor.ID,
		Status:        models.PropertyApproved,
		OwnerOrStatus: true,
	})
}

// CanReadProperty decides single-entity property reads. Non-approved
// listings are visible only to their owner and to admins.
func CanReadProperty(actor Actor, p *models.Property) bool {
	if actor.IsAdmin() {
		return true
	}
	if p.OwnerID == actor.ID && !actor.IsAnonymous() {
		return true
	}
	return p.PubliclyVisible()
}

// CanUpdateProperty covers general listing edits: admin, or the owner.
func CanUpdateProperty(actor Actor, p *models.Property) bool {
	if actor.IsAdmin() {
		return true
	}
	return !actor.IsAnonymous() && p.OwnerID == actor.ID
}

// CanModerateProperty gates status, featured and adminNotes writes.
// Ownership alone grants general update rights but never moderation rights.
func CanModerateProperty(actor Actor) bool {
	return actor.IsAdmin()
}

// CanDeleteProperty: admin, or the owner.
func CanDeleteProperty(actor Actor, p *models.Property) bool {
	return CanUpdateProperty(actor, p)
}

// CanCreateProperty is a capability check, separate from row-level access:
// only verified users and admins may list.
func CanCreateProperty(actor Actor) bool {
	if actor.IsAdmin() {
		return true
	}
	return actor.VerificationStatus == models.VerificationVerified
}

// CanReviewVerification gates verification-request updates and deletes.
// The request's own subject may not review it.
func CanReviewVerification(actor Actor) bool {
	return actor.IsAdmin()
}

// CanReadVerificationRequest: admins, or the request's subject.
func CanReadVerificationRequest(actor Actor, r *models.VerificationRequest) bool {
	if actor.IsAdmin() {
		return true
	}
	return !actor.IsAnonymous() && r.UserID == actor.ID
}

// CanUpdateUser: admin, or self-service on one's own record.
func CanUpdateUser(actor Actor, targetUserID string) bool {
	if actor.IsAdmin() {
		return true
	}
	return !actor.IsAnonymous() && actor.ID == targetUserID
}

// Protected user fields that only admins may write, even on self-updates.
// Blocking these here closes the escalation path through a direct PATCH.
var adminOnlyUserFields = map[string]bool{
	"role":                true,
	"verification_status": true,
}

// CanWriteUserField reports whether the actor may set the named user field.
func CanWriteUserField(actor Actor, field string) bool {
	if actor.IsAdmin() {
		return true
	}
	return !adminOnlyUserFields[field]
}

// InquiryReadScope scopes inquiry lists: admins read all, owners read
// inquiries on their own properties.
func InquiryReadScope(actor Actor) Decision {
	if actor.IsAdmin() {
		return Allow()
	}
	if actor.IsAnonymous() {
		return Deny()
	}
	return FilteredBy(Scope{OwnerID: actor.ID})
}
