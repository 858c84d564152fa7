package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/userhub/apiserver/internal/auth"
	"github.com/userhub/apiserver/internal/services"
	"github.com/userhub/apiserver/types"
)

// UserHandler provides the account and user directory endpoints.
type UserHandler struct {
	accounts     *services.AccountService
	tokens       *auth.TokenIssuer
	secureCookie bool
}

// NewUserHandler constructs a UserHandler with the provided dependencies.
func NewUserHandler(accounts *services.AccountService, tokens *auth.TokenIssuer, secureCookie bool) *UserHandler {
	return &UserHandler{
		accounts:     accounts,
		tokens:       tokens,
		secureCookie: secureCookie,
	}
}

// UserRouter registers the user routes on the given router.
func UserRouter(r chi.Router, accounts *services.AccountService, tokens *auth.TokenIssuer, secureCookie bool) {
	handler := NewUserHandler(accounts, tokens, secureCookie)

	r.Post("/", handler.Register)
	r.Post("/login", handler.Login)
	r.Post("/logout", handler.Logout)

	r.Group(func(r chi.Router) {
		r.Use(handler.RequireAuth)
		r.Get("/profile", handler.GetProfile)
		r.Put("/profile", handler.UpdateProfile)

		r.Get("/", handler.ListUsers)
		r.Get("/{id}", handler.GetUserByID)
		r.Put("/{id}", handler.UpdateUser)
		r.Delete("/{id}", handler.DeleteUser)
	})
}

// RequireAuth verifies the session cookie and injects the subject user
// id into the request context.
func (h *UserHandler) RequireAuth(next http.Handler) http.Handler {
	return RequireAuth(h.tokens)(next)
}

// RequireAuth constructs session middleware for other routers.
func RequireAuth(tokens *auth.TokenIssuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, err := auth.SessionTokenFromRequest(r)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			userID, err := tokens.Verify(tokenString)
			if err != nil {
				// The error kinds matter for logs even though the
				// response is uniformly 401.
				log.Printf("session rejected: %v", err)
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			ctx := context.WithValue(r.Context(), contextSubjectKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Register creates a new account and starts a session.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	user, err := h.accounts.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if err := h.startSession(w, user.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create session")
		return
	}
	writeJSON(w, http.StatusCreated, user.Public())
}

// Login verifies credentials and starts a session.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	user, err := h.accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if err := h.startSession(w, user.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create session")
		return
	}
	writeJSON(w, http.StatusOK, user.Public())
}

// Logout clears the session cookie. It succeeds for anonymous callers
// too; there is no session state to check.
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSessionCookie(w, h.secureCookie)
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// GetProfile returns the authenticated user's own profile.
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	principalID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	user, err := h.accounts.GetProfile(r.Context(), principalID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user.Public())
}

// UpdateProfile applies a partial update to the authenticated user's own
// record. Omitted fields are left unchanged.
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	principalID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	user, err := h.accounts.UpdateProfile(r.Context(), principalID, services.ProfileUpdate{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user.Public())
}

// ListUsers returns every user profile. Admin only.
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	if _, err := h.requireAdmin(r); err != nil {
		writeServiceError(w, err)
		return
	}

	users, err := h.accounts.ListUsers(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	profiles := make([]types.PublicProfile, 0, len(users))
	for _, user := range users {
		profiles = append(profiles, user.Public())
	}
	writeJSON(w, http.StatusOK, profiles)
}

// GetUserByID returns an arbitrary user profile. Admin only.
func (h *UserHandler) GetUserByID(w http.ResponseWriter, r *http.Request) {
	if _, err := h.requireAdmin(r); err != nil {
		writeServiceError(w, err)
		return
	}

	targetID, err := targetIDFromURL(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	user, err := h.accounts.GetUserByID(r.Context(), targetID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user.Public())
}

// UpdateUser applies a partial admin update of name, email, and admin
// flag. Admin only.
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	if _, err := h.requireAdmin(r); err != nil {
		writeServiceError(w, err)
		return
	}

	targetID, err := targetIDFromURL(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req AdminUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	user, err := h.accounts.UpdateUser(r.Context(), targetID, services.AdminUpdate{
		Name:    req.Name,
		Email:   req.Email,
		IsAdmin: req.IsAdmin,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user.Public())
}

// DeleteUser removes a user. Admin only; admin targets are refused.
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if _, err := h.requireAdmin(r); err != nil {
		writeServiceError(w, err)
		return
	}

	targetID, err := targetIDFromURL(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	if err := h.accounts.DeleteUser(r.Context(), targetID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "user deleted"})
}

// requireAdmin loads the principal and checks the admin flag. A session
// whose backing record vanished reads as unauthorized, not missing.
func (h *UserHandler) requireAdmin(r *http.Request) (types.User, error) {
	principalID, err := userIDFromContext(r.Context())
	if err != nil {
		return types.User{}, auth.ErrUnauthorized
	}

	principal, err := h.accounts.GetProfile(r.Context(), principalID)
	if err != nil {
		return types.User{}, auth.ErrUnauthorized
	}

	if err := auth.RequireAdmin(principal); err != nil {
		return types.User{}, err
	}
	return principal, nil
}

func (h *UserHandler) startSession(w http.ResponseWriter, userID int) error {
	token, expiresAt, err := h.tokens.Issue(userID)
	if err != nil {
		return err
	}
	auth.SetSessionCookie(w, token, expiresAt, h.secureCookie)
	return nil
}

func targetIDFromURL(r *http.Request) (int, error) {
	return strconv.Atoi(chi.URLParam(r, "id"))
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UpdateProfileRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

type AdminUpdateRequest struct {
	Name    *string `json:"name"`
	Email   *string `json:"email"`
	IsAdmin *bool   `json:"isAdmin"`
}
