package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/DevinHarlan/lotboard/internal/access"
	"github.com/DevinHarlan/lotboard/internal/models"
	"github.com/DevinHarlan/lotboard/internal/services"
	pkghttp "github.com/DevinHarlan/lotboard/pkg/http"
	"github.com/go-chi/chi/v5"
)

// UserServiceInterface defines the interface for user business logic
type UserServiceInterface interface {
	Get(ctx context.Context, actor access.Actor, id string) (*models.User, error)
	List(ctx context.Context, actor access.Actor, limit, offset int) ([]*models.User, error)
	Update(ctx context.Context, actor access.Actor, id string, input services.UpdateUserInput) (*models.User, error)
}

// UserHandler handles user-related HTTP requests
type UserHandler struct {
	service  UserServiceInterface
	resolver *ActorResolver
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(service UserServiceInterface, resolver *ActorResolver) *UserHandler {
	return &UserHandler{service: service, resolver: resolver}
}

// UpdateUserRequest represents the request body for a partial user update.
// Role and verification_status are accepted only from admins; the service
// rejects the whole request otherwise.
type UpdateUserRequest struct {
	Name               *string `json:"name" validate:"omitempty,min=1"`
	Phone              *string `json:"phone"`
	Address            *string `json:"address"`
	Role               *string `json:"role" validate:"omitempty,oneof=user admin"`
	VerificationStatus *string `json:"verification_status" validate:"omitempty,oneof=unverified pending verified rejected"`
}

// ListUsersResponse represents a list of users
type ListUsersResponse struct {
	Users []*services.UserResponse `json:"users"`
	Total int                      `json:"total"`
}

// Me returns the authenticated user's own record
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	actor, err := h.resolver.Resolve(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	user, err := h.service.Get(r.Context(), actor, actor.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, services.UserModelToResponse(user))
}

// GetUser retrieves a user by ID
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	if userID == "" {
		pkghttp.WriteBadRequest(w, "User ID is required")
		return
	}

	actor, err := h.resolver.Resolve(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	user, err := h.service.Get(r.Context(), actor, userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, services.UserModelToResponse(user))
}

// ListUsers retrieves users with pagination, admin only
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	actor, err := h.resolver.Resolve(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	limit, offset := paginationParams(r, 50)

	users, err := h.service.List(r.Context(), actor, limit, offset)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp := ListUsersResponse{Users: make([]*services.UserResponse, 0, len(users)), Total: len(users)}
	for _, user := range users {
		resp.Users = append(resp.Users, services.UserModelToResponse(user))
	}

	pkghttp.WriteJSON(w, http.StatusOK, resp)
}

// UpdateUser applies a partial update to a user record
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	if userID == "" {
		pkghttp.WriteBadRequest(w, "User ID is required")
		return
	}

	var req UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	actor, err := h.resolver.Resolve(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	user, err := h.service.Update(r.Context(), actor, userID, services.UpdateUserInput{
		Name:               req.Name,
		Phone:              req.Phone,
		Address:            req.Address,
		Role:               req.Role,
		VerificationStatus: req.VerificationStatus,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, services.UserModelToResponse(user))
}
