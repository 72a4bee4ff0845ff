package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/DevinHarlan/lotboard/internal/access"
	"github.com/DevinHarlan/lotboard/internal/auth"
	"github.com/DevinHarlan/lotboard/internal/models"
	pkghttp "github.com/DevinHarlan/lotboard/pkg/http"
)

// UserLoader fetches the current user record for actor resolution
type UserLoader interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// ActorResolver builds the access policy actor for a request. Token claims
// carry the role, but verification status changes between logins, so the
// actor is built from the live user record.
type ActorResolver struct {
	users UserLoader
}

// NewActorResolver creates a new ActorResolver
func NewActorResolver(users UserLoader) *ActorResolver {
	return &ActorResolver{users: users}
}

// Resolve returns the actor for the request, anonymous when no claims are
// present. A token whose user no longer exists resolves to an error.
func (a *ActorResolver) Resolve(r *http.Request) (access.Actor, error) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		return access.Anonymous(), nil
	}

	user, err := a.users.GetByID(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return access.Anonymous(), models.ErrUnauthorized
		}
		return access.Anonymous(), models.ErrInternalServer
	}

	return access.ActorFor(user), nil
}

// writeServiceError maps service-layer sentinel errors onto HTTP responses.
// A CascadeError means the primary write committed but a follow-up failed;
// it never reaches here because handlers report it as partial success.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		pkghttp.WriteNotFound(w, "Resource not found")
	case errors.Is(err, models.ErrUnauthorized):
		pkghttp.WriteUnauthorized(w, "Authentication required")
	case errors.Is(err, models.ErrForbidden):
		pkghttp.WriteForbidden(w, "You cannot access this resource")
	case errors.Is(err, models.ErrNotVerified):
		pkghttp.WriteForbidden(w, "Account verification required")
	case errors.Is(err, models.ErrConflict):
		pkghttp.WriteConflict(w, "Resource already exists")
	case errors.Is(err, models.ErrStatusChanged):
		pkghttp.WriteError(w, http.StatusConflict, "status_changed", "Status changed since your last read, reload and retry")
	case errors.Is(err, models.ErrInvalidStatus):
		pkghttp.WriteError(w, http.StatusUnprocessableEntity, "invalid_status", "The requested status transition is not allowed")
	case errors.Is(err, models.ErrBadRequest):
		pkghttp.WriteBadRequest(w, "Invalid request")
	default:
		pkghttp.WriteInternalError(w, "An unexpected error occurred")
	}
}

// PartialSuccessResponse reports a committed primary write whose follow-up
// step failed. The result field holds the committed entity; the warning tells
// the caller which secondary system is now out of sync.
type PartialSuccessResponse struct {
	Result  interface{} `json:"result"`
	Warning string      `json:"warning"`
	Entity  string      `json:"entity"`
}

// writePartialSuccess reports a transition whose primary write committed but
// whose cascade failed. The status is 200; the change is already applied.
func writePartialSuccess(w http.ResponseWriter, result interface{}, cascadeErr *models.CascadeError) {
	pkghttp.WriteJSON(w, http.StatusOK, PartialSuccessResponse{
		Result:  result,
		Warning: "update applied but a follow-up step failed and will need attention",
		Entity:  cascadeErr.Entity,
	})
}

// paginationParams parses limit and offset query parameters with defaults
func paginationParams(r *http.Request, defaultLimit int) (limit, offset int) {
	limit = defaultLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}
