package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/melkan/community-platform/internal/config"
	"github.com/melkan/community-platform/internal/model"
	"github.com/melkan/community-platform/internal/queue"
	"github.com/melkan/community-platform/internal/repository"
	"github.com/melkan/community-platform/internal/utils"
)

// refreshCookieName is the cookie carrying the refresh token between
// the browser and the refresh/logout endpoints.
const refreshCookieName = "jwt"

const storeTimeout = 5 * time.Second

// AuthHandler bundles dependencies for the session-lifecycle endpoints:
// register, login, refresh and logout.
type AuthHandler struct {
	Cfg   config.Config
	Users UserStore
	// Publish sends an account lifecycle event to the broker. Optional;
	// failures are ignored so the broker never blocks an auth flow.
	Publish func(ctx context.Context, ev queue.AccountEvent) error
}

func NewAuthHandler(cfg config.Config, users UserStore) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: users}
}

// ----- DTOs -----

type registerReq struct {
	FirstName    string       `json:"firstname"`
	LastName     string       `json:"lastname"`
	Username     string       `json:"username"`
	Email        string       `json:"email"`
	Password     string       `json:"password"`
	ProfilePhoto *string      `json:"profilePhoto"`
	Bio          *string      `json:"bio"`
	Location     *string      `json:"location"`
	SocialLinks  *socialLinks `json:"socialLinks"`
	Website      *string      `json:"website"`
}

type loginReq struct {
	Identifier string `json:"identifier"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	Password   string `json:"password"`
}

type sessionResp struct {
	UserInfo    userInfo     `json:"userInfo"`
	Roles       []model.Role `json:"roles"`
	AccessToken string       `json:"accessToken"`
}

// Register creates a new account with the base role only. Duplicate
// username is checked before duplicate email; the first collision
// short-circuits. The response never echoes the stored record.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid body"})
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.FirstName == "" || req.LastName == "" || req.Username == "" || req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "all required fields must be provided"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), storeTimeout)
	defer cancel()

	if _, err := h.Users.FindByUsername(ctx, req.Username); err == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "username already exists"})
	} else if !errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "registration failed"})
	}
	if _, err := h.Users.FindByEmail(ctx, req.Email); err == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "email already exists"})
	} else if !errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "registration failed"})
	}

	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "registration failed"})
	}

	u := &model.User{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		ProfilePhoto: nullable(req.ProfilePhoto),
		Bio:          nullable(req.Bio),
		Location:     nullable(req.Location),
		Website:      nullable(req.Website),
	}
	if req.SocialLinks != nil {
		u.Twitter = nullable(req.SocialLinks.Twitter)
		u.Facebook = nullable(req.SocialLinks.Facebook)
		u.Instagram = nullable(req.SocialLinks.Instagram)
		u.LinkedIn = nullable(req.SocialLinks.LinkedIn)
	}

	id, err := h.Users.Create(ctx, u)
	if err != nil {
		// The store enforces uniqueness too; a concurrent registration
		// can slip past the pre-checks.
		switch {
		case errors.Is(err, repository.ErrUsernameExists):
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "username already exists"})
		case errors.Is(err, repository.ErrEmailExists):
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "email already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "registration failed"})
	}
	u.ID = id

	h.publish(ctx, queue.AccountEvent{
		Type:     queue.EventUserRegistered,
		UserID:   id,
		Username: u.Username,
		Email:    u.Email,
	})

	return c.JSON(http.StatusCreated, echo.Map{
		"success": fmt.Sprintf("new user %s created", u.Username),
	})
}

// Login verifies credentials, issues the access/refresh token pair,
// persists the refresh token on the record (overwriting any prior one)
// and sets the refresh cookie. Unknown identifier and wrong password
// produce the same response so accounts cannot be enumerated.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid body"})
	}
	identifier := strings.TrimSpace(req.Identifier)
	if identifier == "" {
		identifier = strings.TrimSpace(req.Username)
	}
	if identifier == "" {
		identifier = strings.TrimSpace(req.Email)
	}
	if identifier == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "identifier and password are required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), storeTimeout)
	defer cancel()

	u, err := h.Users.FindByUsername(ctx, identifier)
	if errors.Is(err, repository.ErrNotFound) {
		u, err = h.Users.FindByEmail(ctx, identifier)
	}
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"message": "incorrect identifier or password"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "login failed"})
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "incorrect identifier or password"})
	}

	roles := u.Roles()
	access, err := utils.NewAccessToken(h.Cfg.AccessSecret, u, roles, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "login failed"})
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshSecret, u, h.Cfg.RefreshTTLDays)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "login failed"})
	}

	// Last write wins: a concurrent login for the same account simply
	// replaces this token.
	u.RefreshToken = refresh
	if err := h.Users.Save(ctx, u); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "login failed"})
	}

	h.setRefreshCookie(c, refresh)

	return c.JSON(http.StatusOK, sessionResp{
		UserInfo:    sanitizeUser(u),
		Roles:       roles,
		AccessToken: access,
	})
}

// Refresh exchanges a valid refresh cookie for a fresh access token.
// Roles are re-derived from the current record, not from the token, so
// role changes take effect without a new login. The refresh token is
// not rotated here; only a fresh login issues a new one.
func (h *AuthHandler) Refresh(c echo.Context) error {
	cookie, err := c.Cookie(refreshCookieName)
	if err != nil || cookie.Value == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "not authenticated"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), storeTimeout)
	defer cancel()

	u, err := h.Users.FindByRefreshToken(ctx, cookie.Value)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "refresh failed"})
	}

	claims, err := utils.ParseRefreshToken(h.Cfg.RefreshSecret, cookie.Value)
	if err != nil {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
	}
	if uid, err := claims.UserID(); err != nil || uid != u.ID {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
	}

	roles := u.Roles()
	access, err := utils.NewAccessToken(h.Cfg.AccessSecret, u, roles, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "refresh failed"})
	}

	return c.JSON(http.StatusOK, sessionResp{
		UserInfo:    sanitizeUser(u),
		Roles:       roles,
		AccessToken: access,
	})
}

// Logout clears the stored refresh token and the client cookie. It is
// idempotent: every outcome clears the cookie and reports success.
func (h *AuthHandler) Logout(c echo.Context) error {
	cookie, err := c.Cookie(refreshCookieName)
	if err != nil || cookie.Value == "" {
		return c.JSON(http.StatusOK, echo.Map{"message": "no active session"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), storeTimeout)
	defer cancel()

	u, err := h.Users.FindByRefreshToken(ctx, cookie.Value)
	if err != nil {
		h.clearRefreshCookie(c)
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusOK, echo.Map{"message": "already logged out"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "logout failed"})
	}

	u.RefreshToken = ""
	h.clearRefreshCookie(c)
	if err := h.Users.Save(ctx, u); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "logout failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}

// setRefreshCookie installs the refresh token as an HttpOnly,
// cross-site-restricted cookie with the refresh lifetime. Secure is
// always set; an insecure variant is not supported.
func (h *AuthHandler) setRefreshCookie(c echo.Context, token string) {
	c.SetCookie(&http.Cookie{
		Name:     refreshCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   h.Cfg.RefreshTTLDays * 24 * 60 * 60,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	})
}

func (h *AuthHandler) clearRefreshCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	})
}

func (h *AuthHandler) publish(ctx context.Context, ev queue.AccountEvent) {
	if h.Publish == nil {
		return
	}
	ev.OccurredAt = time.Now().UTC().Format(time.RFC3339)
	_ = h.Publish(ctx, ev)
}
