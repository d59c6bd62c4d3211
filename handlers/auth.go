package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kevinaaaquil/library/middleware"
	"github.com/kevinaaaquil/library/models"
	"github.com/kevinaaaquil/library/projection"
	"github.com/kevinaaaquil/library/store"
	"github.com/kevinaaaquil/library/utils"
)

// demoNamespace derives stable user ids from e-mails in demo mode.
var demoNamespace = uuid.MustParse("6f1c7a52-8f0e-4d55-9a3c-5b2f1e0d7c44")

type AuthHandler struct {
	Users     store.UserStore
	JWTSecret string
	TokenTTL  time.Duration
	// Predefined credentials (from config); the admin account is created on their first login.
	DefaultEmail string
	DefaultPass  string
	// DemoLogin accepts any credentials and signs in with the requested role.
	// Existing accounts are signed in without a password check too.
	DemoLogin bool
	Logger    *zap.Logger
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" validate:"omitempty,oneof=student librarian admin"`
}

type LoginResponse struct {
	Token  string      `json:"token"`
	UserID string      `json:"userId"`
	Email  string      `json:"email"`
	Name   string      `json:"name"`
	Role   models.Role `json:"role"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	user, err := h.Users.UserByEmail(r.Context(), req.Email)
	if err != nil {
		h.Logger.Error("login lookup", zap.Error(err))
		http.Error(w, `{"error":"login failed"}`, http.StatusInternalServerError)
		return
	}
	role := models.Role(req.Role)
	switch {
	case h.DemoLogin:
		if user == nil {
			user, err = h.createDemoUser(r, req, role)
			if err != nil {
				h.Logger.Error("demo login", zap.Error(err))
				http.Error(w, `{"error":"login failed"}`, http.StatusInternalServerError)
				return
			}
		}
		if role == "" {
			role = user.Role
		}
	case user == nil:
		if h.DefaultPass == "" || req.Email != strings.ToLower(h.DefaultEmail) || req.Password != h.DefaultPass {
			http.Error(w, `{"error":"invalid email or password"}`, http.StatusUnauthorized)
			return
		}
		user, err = h.ensureDefaultAdmin(r)
		if err != nil {
			h.Logger.Error("default admin", zap.Error(err))
			http.Error(w, `{"error":"login failed"}`, http.StatusInternalServerError)
			return
		}
		role = user.Role
	default:
		if err := utils.CheckPassword(user.Password, req.Password); err != nil {
			http.Error(w, `{"error":"invalid email or password"}`, http.StatusUnauthorized)
			return
		}
		// the role picker is only honoured in demo mode
		role = user.Role
	}

	name := projection.DisplayName(user.Name, user.Email)
	token, err := h.createToken(user.ID, user.Email, name, role)
	if err != nil {
		http.Error(w, `{"error":"could not create token"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, LoginResponse{Token: token, UserID: user.ID, Email: user.Email, Name: name, Role: role})
}

// Me returns the caller's identity from the token.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	v := viewer(r)
	writeJSON(w, http.StatusOK, map[string]any{
		"userId": v.Ref,
		"email":  middleware.EmailFromContext(r.Context()),
		"name":   v.Name,
		"role":   v.Role,
	})
}

func (h *AuthHandler) createDemoUser(r *http.Request, req LoginRequest, role models.Role) (*models.User, error) {
	if role == "" {
		role = models.RoleStudent
	}
	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	u := &models.User{
		ID:        uuid.NewSHA1(demoNamespace, []byte(req.Email)).String(),
		Email:     req.Email,
		Name:      projection.DisplayName("", req.Email),
		Password:  hash,
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := h.Users.CreateUser(r.Context(), u); err != nil {
		return nil, err
	}
	return u, nil
}

func (h *AuthHandler) ensureDefaultAdmin(r *http.Request) (*models.User, error) {
	// Check again in case of race
	user, err := h.Users.UserByEmail(r.Context(), strings.ToLower(h.DefaultEmail))
	if err != nil {
		return nil, err
	}
	if user != nil {
		return user, nil
	}
	hash, err := utils.HashPassword(h.DefaultPass)
	if err != nil {
		return nil, err
	}
	newUser := &models.User{
		Email:     strings.ToLower(h.DefaultEmail),
		Name:      "Administrator",
		Password:  hash,
		Role:      models.RoleAdmin,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := h.Users.CreateUser(r.Context(), newUser); err != nil {
		return nil, err
	}
	return newUser, nil
}

func (h *AuthHandler) createToken(userID, email, name string, role models.Role) (string, error) {
	ttl := h.TokenTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	claims := &middleware.Claims{
		UserID: userID,
		Email:  email,
		Name:   name,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.JWTSecret))
}
