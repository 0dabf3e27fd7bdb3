package handler

import (
	"encoding/json"
	"net/http"

	"pantry-rest-api/internal/middleware"
	"pantry-rest-api/internal/model"
	"pantry-rest-api/internal/repository"
	"pantry-rest-api/internal/service"
	"pantry-rest-api/pkg/apierror"
	"pantry-rest-api/pkg/response"

	"golang.org/x/crypto/bcrypt"
)

// AuthHandler handles registration, the credential check and session
// lifecycle.
type AuthHandler struct {
	tokenService *service.TokenService
	userRepo     repository.UserRepository
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(tokenService *service.TokenService, userRepo repository.UserRepository) *AuthHandler {
	return &AuthHandler{
		tokenService: tokenService,
		userRepo:     userRepo,
	}
}

// RegisterRequest represents the request body for registration.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles POST /auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid request body"))
		return
	}
	defer r.Body.Close()

	if req.Name == "" || req.Email == "" || req.Password == "" {
		response.Error(w, apierror.Validation("name, email and password are required"))
		return
	}

	existing, err := h.userRepo.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		response.Error(w, err)
		return
	}
	if existing != nil {
		response.Error(w, apierror.Conflict("email already registered"))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		response.Error(w, apierror.InternalError("failed to hash password"))
		return
	}

	userID, err := h.userRepo.CreateUser(r.Context(), req.Name, req.Email, string(hash))
	if err != nil {
		response.Error(w, err)
		return
	}

	response.Created(w, map[string]interface{}{
		"user_id": userID,
		"name":    req.Name,
		"email":   req.Email,
	})
}

// LoginRequest represents the request body for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse represents the response for a successful login.
type LoginResponse struct {
	Token     string      `json:"token"`
	ExpiresIn int         `json:"expires_in"`
	User      *model.User `json:"user"`
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid request body"))
		return
	}
	defer r.Body.Close()

	if req.Email == "" || req.Password == "" {
		response.Error(w, apierror.Validation("email and password are required"))
		return
	}

	user, err := h.userRepo.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		response.Error(w, err)
		return
	}
	if user == nil {
		response.Error(w, apierror.Unauthorized("invalid email or password"))
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		response.Error(w, apierror.Unauthorized("invalid email or password"))
		return
	}

	token, err := h.tokenService.GenerateToken(r.Context(), model.Session{
		UserID: user.ID,
		Email:  user.Email,
	})
	if err != nil {
		response.Error(w, apierror.InternalError("failed to create session"))
		return
	}

	response.OK(w, LoginResponse{
		Token:     token,
		ExpiresIn: int(service.TokenTTL.Seconds()),
		User:      user,
	})
}

// Logout handles POST /auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get("X-Token")
	if token == "" {
		response.Error(w, apierror.BadRequest("X-Token header required"))
		return
	}

	if err := h.tokenService.RevokeToken(r.Context(), token); err != nil {
		response.Error(w, apierror.InternalError("failed to revoke session"))
		return
	}

	response.OK(w, map[string]string{"status": "logged_out"})
}

// Refresh handles POST /auth/refresh
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get("X-Token")
	if token == "" {
		response.Error(w, apierror.BadRequest("X-Token header required"))
		return
	}

	if err := h.tokenService.RefreshToken(r.Context(), token); err != nil {
		response.Error(w, apierror.Unauthorized(err.Error()))
		return
	}

	response.OK(w, map[string]interface{}{
		"status":     "refreshed",
		"expires_in": int(service.TokenTTL.Seconds()),
	})
}

// Me handles GET /me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	user, err := h.userRepo.GetUser(r.Context(), userID)
	if err != nil {
		response.Error(w, err)
		return
	}
	if user == nil {
		response.Error(w, apierror.NotFound("user not found"))
		return
	}

	response.OK(w, user)
}
