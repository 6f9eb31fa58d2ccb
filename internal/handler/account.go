package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/melkan/community-platform/internal/config"
	"github.com/melkan/community-platform/internal/model"
	"github.com/melkan/community-platform/internal/queue"
	"github.com/melkan/community-platform/internal/repository"
	"github.com/melkan/community-platform/internal/utils"
)

// AccountHandler implements the self-service account endpoints. All of
// them run behind the JWT gate and act on the authenticated subject;
// credential changes additionally require the current password.
type AccountHandler struct {
	Cfg     config.Config
	Users   UserStore
	Publish func(ctx context.Context, ev queue.AccountEvent) error
}

func NewAccountHandler(cfg config.Config, users UserStore) *AccountHandler {
	return &AccountHandler{Cfg: cfg, Users: users}
}

type updatePasswordReq struct {
	Password    string `json:"password"`
	NewPassword string `json:"newPassword"`
}

type updateUsernameReq struct {
	Password string `json:"password"`
	Username string `json:"username"`
}

type updateEmailReq struct {
	Password string `json:"password"`
	Email    string `json:"email"`
}

// getUserID extracts the subject id stored by the JWT middleware.
func getUserID(c echo.Context) (uint64, error) {
	switch t := c.Get("user_id").(type) {
	case uint64:
		return t, nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// loadSubject fetches the authenticated user's record, translating a
// missing record into 404 (the account may have been deleted while the
// access token was still valid).
func (h *AccountHandler) loadSubject(c echo.Context, ctx context.Context) (*model.User, error) {
	uid, err := getUserID(c)
	if err != nil {
		return nil, c.JSON(http.StatusUnauthorized, echo.Map{"message": "not authenticated"})
	}
	u, err := h.Users.FindByID(ctx, uid)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, c.JSON(http.StatusNotFound, echo.Map{"message": "no user matches this account"})
		}
		return nil, c.JSON(http.StatusInternalServerError, echo.Map{"message": "update failed"})
	}
	return u, nil
}

// UpdatePassword replaces the stored hash after verifying the current
// password. The new plaintext is hashed with the configured cost.
func (h *AccountHandler) UpdatePassword(c echo.Context) error {
	var req updatePasswordReq
	if err := c.Bind(&req); err != nil || req.Password == "" || req.NewPassword == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "current and new password are required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), storeTimeout)
	defer cancel()

	u, errResp := h.loadSubject(c, ctx)
	if u == nil {
		return errResp
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "current password does not match"})
	}

	hash, err := utils.HashPassword(req.NewPassword, h.Cfg.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "update failed"})
	}
	u.PasswordHash = hash
	if err := h.Users.Save(ctx, u); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "update failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "password updated"})
}

// UpdateUsername changes the unique handle after verifying the current
// password and checking for collisions.
func (h *AccountHandler) UpdateUsername(c echo.Context) error {
	var req updateUsernameReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid body"})
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Password == "" || req.Username == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "password and username are required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), storeTimeout)
	defer cancel()

	u, errResp := h.loadSubject(c, ctx)
	if u == nil {
		return errResp
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "password does not match"})
	}

	if _, err := h.Users.FindByUsername(ctx, req.Username); err == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "username already exists"})
	} else if !errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "update failed"})
	}

	u.Username = req.Username
	if err := h.Users.Save(ctx, u); err != nil {
		if errors.Is(err, repository.ErrUsernameExists) {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "username already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "update failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"username": u.Username})
}

// UpdateEmail changes the unique email after verifying the current
// password and checking for collisions.
func (h *AccountHandler) UpdateEmail(c echo.Context) error {
	var req updateEmailReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Password == "" || req.Email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "password and email are required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), storeTimeout)
	defer cancel()

	u, errResp := h.loadSubject(c, ctx)
	if u == nil {
		return errResp
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "password does not match"})
	}

	if _, err := h.Users.FindByEmail(ctx, req.Email); err == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "email already exists"})
	} else if !errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "update failed"})
	}

	u.Email = req.Email
	if err := h.Users.Save(ctx, u); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "email already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "update failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"email": u.Email})
}

// UpdateInfo applies a partial profile update. Credential fields must
// go through their dedicated endpoints and are rejected here. The
// response lists only the fields that actually changed.
func (h *AccountHandler) UpdateInfo(c echo.Context) error {
	var updates map[string]interface{}
	if err := c.Bind(&updates); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid body"})
	}
	for _, forbidden := range []string{"password", "email", "username"} {
		if _, ok := updates[forbidden]; ok {
			return c.JSON(http.StatusBadRequest, echo.Map{
				"message": "updating password, email or username is not allowed here",
			})
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), storeTimeout)
	defer cancel()

	u, errResp := h.loadSubject(c, ctx)
	if u == nil {
		return errResp
	}

	changed := map[string]interface{}{}
	applyString := func(key string, dst *string) {
		if v, ok := updates[key].(string); ok && v != *dst {
			*dst = v
			changed[key] = v
		}
	}
	applyOptional := func(key string, dst *model.User, set func(*model.User, string)) {
		if v, ok := updates[key].(string); ok {
			set(dst, v)
			changed[key] = v
		}
	}

	applyString("firstname", &u.FirstName)
	applyString("lastname", &u.LastName)
	applyOptional("profilePhoto", u, func(m *model.User, v string) { m.ProfilePhoto = nullable(&v) })
	applyOptional("bio", u, func(m *model.User, v string) { m.Bio = nullable(&v) })
	applyOptional("location", u, func(m *model.User, v string) { m.Location = nullable(&v) })
	applyOptional("website", u, func(m *model.User, v string) { m.Website = nullable(&v) })

	if links, ok := updates["socialLinks"].(map[string]interface{}); ok {
		applyLink := func(key string, set func(*model.User, string)) {
			if v, ok := links[key].(string); ok {
				set(u, v)
				changed[key] = v
			}
		}
		applyLink("twitter", func(m *model.User, v string) { m.Twitter = nullable(&v) })
		applyLink("facebook", func(m *model.User, v string) { m.Facebook = nullable(&v) })
		applyLink("instagram", func(m *model.User, v string) { m.Instagram = nullable(&v) })
		applyLink("linkedin", func(m *model.User, v string) { m.LinkedIn = nullable(&v) })
	}

	if len(changed) > 0 {
		if err := h.Users.Save(ctx, u); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "update failed"})
		}
	}
	return c.JSON(http.StatusOK, changed)
}

// Delete removes the authenticated user's own account. The subject id
// comes from the verified token, never from the request body.
func (h *AccountHandler) Delete(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "not authenticated"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), storeTimeout)
	defer cancel()

	u, err := h.Users.FindByID(ctx, uid)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "no user matches this account"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "delete failed"})
	}
	if err := h.Users.Delete(ctx, uid); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "delete failed"})
	}

	if h.Publish != nil {
		_ = h.Publish(ctx, queue.AccountEvent{
			Type:       queue.EventUserDeleted,
			UserID:     uid,
			Username:   u.Username,
			Email:      u.Email,
			OccurredAt: time.Now().UTC().Format(time.RFC3339),
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "account deleted"})
}
