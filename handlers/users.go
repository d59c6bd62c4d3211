package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kevinaaaquil/library/middleware"
	"github.com/kevinaaaquil/library/models"
	"github.com/kevinaaaquil/library/store"
	"github.com/kevinaaaquil/library/utils"
)

type UsersHandler struct {
	Users  store.UserStore
	Logger *zap.Logger
}

type CreateUserRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"max=120"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"omitempty,oneof=student librarian admin"`
}

type UserResponse struct {
	ID        string      `json:"id"`
	Email     string      `json:"email"`
	Name      string      `json:"name,omitempty"`
	Role      models.Role `json:"role"`
	CreatedAt string      `json:"createdAt"`
}

type UpdateUserRequest struct {
	Email    *string `json:"email" validate:"omitempty,email"`
	Password *string `json:"password" validate:"omitempty,min=6"`
	Role     *string `json:"role" validate:"omitempty,oneof=student librarian admin"`
}

// CreateUser creates a new user. Only admin can call. Role must be student or librarian (not admin).
func (h *UsersHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	role := models.RoleStudent
	if req.Role != "" {
		role, _ = models.ParseRole(req.Role)
	}
	if role == models.RoleAdmin {
		http.Error(w, `{"error":"cannot create admin user via API"}`, http.StatusBadRequest)
		return
	}
	existing, err := h.Users.UserByEmail(r.Context(), req.Email)
	if err != nil {
		h.Logger.Error("create user lookup", zap.Error(err))
		http.Error(w, `{"error":"failed to create user"}`, http.StatusInternalServerError)
		return
	}
	if existing != nil {
		http.Error(w, `{"error":"email already in use"}`, http.StatusConflict)
		return
	}
	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		http.Error(w, `{"error":"failed to create user"}`, http.StatusInternalServerError)
		return
	}
	user := &models.User{
		Email:     req.Email,
		Name:      strings.TrimSpace(req.Name),
		Password:  hash,
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := h.Users.CreateUser(r.Context(), user); err != nil {
		h.Logger.Error("create user", zap.Error(err))
		http.Error(w, `{"error":"failed to create user"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, userToResponse(user))
}

func userToResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		CreatedAt: u.CreatedAt.Format(time.RFC3339),
	}
}

// ListUsers returns all users (admin only).
func (h *UsersHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Users.ListUsers(r.Context())
	if err != nil {
		h.Logger.Error("list users", zap.Error(err))
		http.Error(w, `{"error":"failed to list users"}`, http.StatusInternalServerError)
		return
	}
	out := make([]UserResponse, 0, len(users))
	for i := range users {
		out = append(out, userToResponse(&users[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

// UpdateUser updates a user by ID (admin only). Body: { "email"?, "password"?, "role"? }
func (h *UsersHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req UpdateUserRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	user, err := h.Users.UserByID(r.Context(), id)
	if err != nil || user == nil {
		http.Error(w, `{"error":"user not found"}`, http.StatusNotFound)
		return
	}
	var newEmail *string
	if req.Email != nil && *req.Email != "" {
		e := strings.TrimSpace(strings.ToLower(*req.Email))
		existing, _ := h.Users.UserByEmail(r.Context(), e)
		if existing != nil && existing.ID != id {
			http.Error(w, `{"error":"email already in use"}`, http.StatusConflict)
			return
		}
		newEmail = &e
	}
	var newHash *string
	if req.Password != nil && *req.Password != "" {
		hash, err := utils.HashPassword(*req.Password)
		if err != nil {
			http.Error(w, `{"error":"failed to update user"}`, http.StatusInternalServerError)
			return
		}
		newHash = &hash
	}
	var newRole *models.Role
	if req.Role != nil && *req.Role != "" {
		role, _ := models.ParseRole(*req.Role)
		if user.Role == models.RoleAdmin && role != models.RoleAdmin {
			if ok := h.otherAdminExists(w, r); !ok {
				return
			}
		}
		newRole = &role
	}
	if err := h.Users.UpdateUser(r.Context(), id, newEmail, newHash, newRole); err != nil {
		h.Logger.Error("update user", zap.String("userId", id), zap.Error(err))
		http.Error(w, `{"error":"failed to update user"}`, http.StatusInternalServerError)
		return
	}
	user, _ = h.Users.UserByID(r.Context(), id)
	writeJSON(w, http.StatusOK, userToResponse(user))
}

// DeleteUser deletes a user by ID (admin only). Prevents deleting self and the last admin.
func (h *UsersHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	currentID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	if currentID == id {
		http.Error(w, `{"error":"cannot delete your own account"}`, http.StatusBadRequest)
		return
	}
	user, err := h.Users.UserByID(r.Context(), id)
	if err != nil || user == nil {
		http.Error(w, `{"error":"user not found"}`, http.StatusNotFound)
		return
	}
	if user.Role == models.RoleAdmin {
		if ok := h.otherAdminExists(w, r); !ok {
			return
		}
	}
	if err := h.Users.DeleteUser(r.Context(), id); err != nil {
		h.Logger.Error("delete user", zap.String("userId", id), zap.Error(err))
		http.Error(w, `{"error":"failed to delete user"}`, http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// otherAdminExists writes the error response itself when the admin is the last one.
func (h *UsersHandler) otherAdminExists(w http.ResponseWriter, r *http.Request) bool {
	count, err := h.Users.CountByRole(r.Context(), models.RoleAdmin)
	if err != nil {
		http.Error(w, `{"error":"failed to count admins"}`, http.StatusInternalServerError)
		return false
	}
	if count <= 1 {
		http.Error(w, `{"error":"cannot remove the last admin user"}`, http.StatusBadRequest)
		return false
	}
	return true
}
