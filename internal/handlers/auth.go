package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/tnp-portal/apiserver/internal/apperr"
	"github.com/tnp-portal/apiserver/internal/services"
	"github.com/tnp-portal/apiserver/types"
	"golang.org/x/crypto/bcrypt"
)

// Authenticator verifies bearer tokens and resolves them to active
// accounts. The resolved user is injected into the request context so
// downstream handlers never re-fetch it.
type Authenticator struct {
	users    *services.UserService
	secret   []byte
	tokenTTL time.Duration
}

func NewAuthenticator(users *services.UserService, secret string, ttl time.Duration) *Authenticator {
	return &Authenticator{
		users:    users,
		secret:   []byte(secret),
		tokenTTL: ttl,
	}
}

// RequireAuth rejects requests without a valid token for an active account.
func (a *Authenticator) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString, err := bearerToken(r)
		if err != nil {
			writeError(w, apperr.Unauthorized("unauthorized"))
			return
		}

		userID, err := parseTokenSubject(tokenString, a.secret)
		if err != nil {
			writeError(w, apperr.Unauthorized("unauthorized"))
			return
		}

		user, err := a.users.GetByID(r.Context(), userID)
		if err != nil {
			writeError(w, apperr.Unauthorized("unauthorized"))
			return
		}
		if !user.IsActive {
			writeError(w, apperr.Forbidden("account is deactivated"))
			return
		}

		ctx := context.WithValue(r.Context(), contextUserKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireRoles allows only the listed roles past. Must run after RequireAuth.
func requireRoles(roles ...types.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := currentUser(r.Context())
			if err != nil {
				writeError(w, err)
				return
			}
			for _, role := range roles {
				if user.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeError(w, apperr.Forbidden("insufficient role"))
		})
	}
}

// AuthHandler provides registration, login and credential management.
type AuthHandler struct {
	users    *services.UserService
	activity *services.ActivityService
	auth     *Authenticator
}

func NewAuthHandler(users *services.UserService, activity *services.ActivityService, auth *Authenticator) *AuthHandler {
	return &AuthHandler{users: users, activity: activity, auth: auth}
}

// AuthRouter registers auth routes on the given router.
func AuthRouter(r chi.Router, handler *AuthHandler) {
	r.Post("/register", handler.Register)
	r.Post("/login", handler.Login)
	r.Group(func(r chi.Router) {
		r.Use(handler.auth.RequireAuth)
		r.Post("/logout", handler.Logout)
		r.Get("/verify", handler.Verify)
		r.Post("/change-password", handler.ChangePassword)
	})
}

type RegisterRequest struct {
	Name     string            `json:"name"`
	Email    string            `json:"email"`
	Phone    string            `json:"phone"`
	Password string            `json:"password"`
	Role     types.Role        `json:"role"`
	Details  types.RoleDetails `json:"details"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type AuthResponse struct {
	Token string     `json:"token"`
	User  types.User `json:"user"`
}

// Register creates an account and returns a fresh token.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	var details []apperr.FieldError
	if req.Name == "" {
		details = append(details, apperr.FieldError{Field: "name", Message: "name is required"})
	}
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		details = append(details, apperr.FieldError{Field: "email", Message: "a valid email is required"})
	}
	if len(req.Password) < 8 {
		details = append(details, apperr.FieldError{Field: "password", Message: "password must be at least 8 characters"})
	}
	if len(details) > 0 {
		writeError(w, apperr.Validation("invalid registration payload", details))
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, err)
		return
	}

	user, err := h.users.Register(r.Context(), types.User{
		Name:         req.Name,
		Email:        req.Email,
		Phone:        strings.TrimSpace(req.Phone),
		Role:         req.Role,
		PasswordHash: string(hashed),
		Details:      req.Details,
	}, requestMeta(r))
	if err != nil {
		writeError(w, err)
		return
	}

	token, err := issueToken(user.ID, h.auth.secret, h.auth.tokenTTL)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusCreated, AuthResponse{Token: token, User: user}, "registered")
}

// Login verifies credentials and returns a token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		writeError(w, apperr.BadRequest("email and password are required"))
		return
	}

	user, err := h.users.GetByEmail(r.Context(), req.Email)
	if err != nil {
		if apperr.From(err).Code == apperr.CodeNotFound {
			writeError(w, apperr.Unauthorized("invalid credentials"))
			return
		}
		writeError(w, err)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		writeError(w, apperr.Unauthorized("invalid credentials"))
		return
	}
	if !user.IsActive {
		writeError(w, apperr.Forbidden("account is deactivated"))
		return
	}

	token, err := issueToken(user.ID, h.auth.secret, h.auth.tokenTTL)
	if err != nil {
		writeError(w, err)
		return
	}

	h.activity.Record(r.Context(), user.ID, types.ActionUserLogin, "user", user.ID, requestMeta(r))
	writeData(w, http.StatusOK, AuthResponse{Token: token, User: user}, "logged in")
}

// Logout records the event. Tokens are stateless, clients drop theirs.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	h.activity.Record(r.Context(), user.ID, types.ActionUserLogout, "user", user.ID, requestMeta(r))
	writeData(w, http.StatusOK, nil, "logged out")
}

// Verify echoes the account behind a valid token.
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, user, "")
}

// ChangePassword rotates the caller's password after re-verifying the
// current one.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	var req ChangePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if len(req.NewPassword) < 8 {
		writeError(w, apperr.BadRequest("new password must be at least 8 characters"))
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		writeError(w, apperr.Unauthorized("current password is incorrect"))
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.users.SetPassword(r.Context(), user.ID, string(hashed), requestMeta(r)); err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, nil, "password changed")
}

func requestMeta(r *http.Request) services.Meta {
	return services.Meta{
		IP:        r.RemoteAddr,
		UserAgent: r.UserAgent(),
	}
}

func issueToken(userID int, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.Itoa(userID),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

func parseTokenSubject(tokenString string, secret []byte) (int, error) {
	claims := jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return secret, nil
	})
	if err != nil {
		return 0, err
	}
	if !token.Valid {
		return 0, errors.New("invalid token")
	}
	userID, err := strconv.Atoi(strings.TrimSpace(claims.Subject))
	if err != nil || userID < 1 {
		return 0, errors.New("invalid subject")
	}
	return userID, nil
}

func bearerToken(r *http.Request) (string, error) {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if auth == "" {
		return "", errors.New("missing authorization")
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization")
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", errors.New("invalid authorization")
	}
	return token, nil
}
