package handler

import (
	"net/http"
	"time"

	"vidtube/internal/config"
	"vidtube/internal/httputil"
	"vidtube/internal/model"
	"vidtube/internal/service"
	"vidtube/internal/transport/http/middleware"
)

// RefreshTokenCookie carries the refresh token for browser clients.
const RefreshTokenCookie = "refresh_token"

// multipartOverhead is the allowance for form fields next to the files.
const multipartOverhead = 1 << 20

// AuthHandler groups auth-related HTTP endpoints and their dependencies.
type AuthHandler struct {
	userService *service.UserService
	authService *service.AuthService
	config      *config.Config
}

// NewAuthHandler wires dependencies for authentication endpoints.
func NewAuthHandler(userService *service.UserService, authService *service.AuthService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		authService: authService,
		config:      cfg,
	}
}

// Register handles multipart sign-up with a required avatar and an optional
// cover image.
// POST /users/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	maxFormSize := 2*h.config.Upload.MaxImageBytes + multipartOverhead
	if err := httputil.ParseMultipart(w, r, maxFormSize); err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}

	avatar, err := httputil.FormFile(r, "avatar")
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	cover, err := httputil.FormFile(r, "coverImage")
	if err != nil {
		httputil.CloseFiles(avatar)
		httputil.WriteServiceError(w, r, err)
		return
	}
	defer httputil.CloseFiles(avatar, cover)

	req := model.RegisterRequest{
		UserName: r.FormValue("userName"),
		Email:    r.FormValue("email"),
		FullName: r.FormValue("fullName"),
		Password: r.FormValue("password"),
	}

	user, err := h.userService.Register(r.Context(), &req, avatar, cover)
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}

	httputil.WriteCreated(w, user, "User registered successfully")
}

// Login handles user login
// POST /users/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}

	user, err := h.userService.Login(r.Context(), &req)
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}

	tokenPair, err := h.authService.GenerateTokenPair(r.Context(), user.ID, r.Header.Get("User-Agent"), httputil.ClientIP(r))
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}

	h.setAuthCookies(w, tokenPair)
	httputil.WriteOK(w, model.LoginResponse{
		User:         user,
		AccessToken:  tokenPair.AccessToken,
		RefreshToken: tokenPair.RefreshToken,
		ExpiresIn:    tokenPair.ExpiresIn,
	}, "User logged in successfully")
}

// CurrentUser returns the currently authenticated user
// GET /users/current-user
func (h *AuthHandler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	user, err := h.userService.GetByID(r.Context(), userID)
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}

	httputil.WriteOK(w, user, "Current user fetched successfully")
}

// Refresh rotates the refresh token. The body wins over the cookie.
// POST /users/refresh-token
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req model.RefreshRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	if req.RefreshToken == "" {
		if cookie, err := r.Cookie(RefreshTokenCookie); err == nil {
			req.RefreshToken = cookie.Value
		}
	}

	tokenPair, _, err := h.authService.RefreshTokens(r.Context(), req.RefreshToken, r.Header.Get("User-Agent"), httputil.ClientIP(r))
	if err != nil {
		h.clearAuthCookies(w)
		httputil.WriteServiceError(w, r, err)
		return
	}

	h.setAuthCookies(w, tokenPair)
	httputil.WriteOK(w, tokenPair, "Access token refreshed")
}

// Logout revokes the presented refresh token and clears the session.
// POST /users/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req model.RefreshRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	if req.RefreshToken == "" {
		if cookie, err := r.Cookie(RefreshTokenCookie); err == nil {
			req.RefreshToken = cookie.Value
		}
	}

	if err := h.authService.Logout(r.Context(), userID, req.RefreshToken); err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}

	h.clearAuthCookies(w)
	httputil.WriteOK(w, struct{}{}, "User logged out")
}

// LogoutAll handles logout from all devices
// POST /users/logout-all
func (h *AuthHandler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := h.authService.RevokeAllUserTokens(r.Context(), userID); err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}

	h.clearAuthCookies(w)
	httputil.WriteOK(w, struct{}{}, "Logged out from all devices")
}

// ChangePassword checks the old password before storing the new one.
// POST /users/change-password
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req model.ChangePasswordRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}

	if err := h.userService.ChangePassword(r.Context(), userID, &req); err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}

	httputil.WriteOK(w, struct{}{}, "Password changed successfully")
}

func (h *AuthHandler) setAuthCookies(w http.ResponseWriter, pair *model.TokenPair) {
	http.SetCookie(w, h.cookie(middleware.AccessTokenCookie, pair.AccessToken, h.config.Auth.AccessTokenMaxAge))
	http.SetCookie(w, h.cookie(RefreshTokenCookie, pair.RefreshToken, h.config.Auth.RefreshTokenMaxAge))
}

func (h *AuthHandler) clearAuthCookies(w http.ResponseWriter) {
	for _, name := range []string{middleware.AccessTokenCookie, RefreshTokenCookie} {
		c := h.cookie(name, "", -1)
		c.Expires = time.Unix(0, 0)
		http.SetCookie(w, c)
	}
}

func (h *AuthHandler) cookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.config.Server.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
}
