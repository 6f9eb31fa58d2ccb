package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"

	custmw "github.com/melkan/community-platform/internal/middleware"
	"github.com/melkan/community-platform/internal/model"
	"github.com/melkan/community-platform/internal/queue"
	"github.com/melkan/community-platform/internal/utils"
)

func newAccountApp(store *fakeStore) (*echo.Echo, *AccountHandler) {
	e := echo.New()
	h := NewAccountHandler(testCfg, store)
	g := e.Group("", custmw.JWTAuth(testCfg.AccessSecret))
	g.PUT("/update-password", h.UpdatePassword)
	g.PUT("/update-username", h.UpdateUsername)
	g.PUT("/update-email", h.UpdateEmail)
	g.PUT("/update-info", h.UpdateInfo)
	g.DELETE("/delete", h.Delete)
	return e, h
}

// seedUser inserts an account directly and returns it with a valid
// bearer token.
func seedUser(t *testing.T, store *fakeStore, username, email, password string) (*model.User, string) {
	t.Helper()
	hash, err := utils.HashPassword(password, testCfg.BcryptCost)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	u := &model.User{
		FirstName:    "Alice",
		LastName:     "Martin",
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	}
	id, err := store.Create(context.Background(), u)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	u.ID = id
	token, err := utils.NewAccessToken(testCfg.AccessSecret, u, u.Roles(), testCfg.AccessTTLMin)
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}
	return u, token
}

func bearer(token string) func(*http.Request) {
	return func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
	}
}

func TestUpdatePasswordRequiresToken(t *testing.T) {
	e, _ := newAccountApp(newFakeStore())
	rec, _ := request(t, e, http.MethodPut, "/update-password",
		map[string]string{"password": "secret1", "newPassword": "secret2"}, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestUpdatePassword(t *testing.T) {
	store := newFakeStore()
	e, _ := newAccountApp(store)
	_, token := seedUser(t, store, "alice", "alice@x.com", "secret1")

	// Wrong current password.
	rec, _ := request(t, e, http.MethodPut, "/update-password",
		map[string]string{"password": "wrong", "newPassword": "secret2"}, bearer(token))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong current password: status = %d, want 401", rec.Code)
	}

	// Missing new password.
	rec, _ = request(t, e, http.MethodPut, "/update-password",
		map[string]string{"password": "secret1"}, bearer(token))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing new password: status = %d, want 400", rec.Code)
	}

	// Success: the stored hash now verifies the new password only.
	rec, _ = request(t, e, http.MethodPut, "/update-password",
		map[string]string{"password": "secret1", "newPassword": "secret2"}, bearer(token))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	u, _ := store.FindByUsername(context.Background(), "alice")
	if !utils.VerifyPassword(u.PasswordHash, "secret2") {
		t.Error("new password does not verify")
	}
	if utils.VerifyPassword(u.PasswordHash, "secret1") {
		t.Error("old password still verifies")
	}
}

func TestUpdateUsername(t *testing.T) {
	store := newFakeStore()
	e, _ := newAccountApp(store)
	_, token := seedUser(t, store, "alice", "alice@x.com", "secret1")
	seedUser(t, store, "bob", "bob@x.com", "secret1")

	// Taken handle.
	rec, _ := request(t, e, http.MethodPut, "/update-username",
		map[string]string{"password": "secret1", "username": "bob"}, bearer(token))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("taken username: status = %d, want 400", rec.Code)
	}

	// Wrong password confirmation.
	rec, _ = request(t, e, http.MethodPut, "/update-username",
		map[string]string{"password": "wrong", "username": "alice2"}, bearer(token))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong password: status = %d, want 401", rec.Code)
	}

	rec, body := request(t, e, http.MethodPut, "/update-username",
		map[string]string{"password": "secret1", "username": "alice2"}, bearer(token))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if body["username"] != "alice2" {
		t.Errorf("body = %v", body)
	}
	if _, err := store.FindByUsername(context.Background(), "alice2"); err != nil {
		t.Error("renamed account not found under new username")
	}
}

func TestUpdateEmail(t *testing.T) {
	store := newFakeStore()
	e, _ := newAccountApp(store)
	_, token := seedUser(t, store, "alice", "alice@x.com", "secret1")
	seedUser(t, store, "bob", "bob@x.com", "secret1")

	rec, _ := request(t, e, http.MethodPut, "/update-email",
		map[string]string{"password": "secret1", "email": "bob@x.com"}, bearer(token))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("taken email: status = %d, want 400", rec.Code)
	}

	rec, body := request(t, e, http.MethodPut, "/update-email",
		map[string]string{"password": "secret1", "email": "new@x.com"}, bearer(token))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if body["email"] != "new@x.com" {
		t.Errorf("body = %v", body)
	}
}

func TestUpdateInfoRejectsCredentialFields(t *testing.T) {
	store := newFakeStore()
	e, _ := newAccountApp(store)
	_, token := seedUser(t, store, "alice", "alice@x.com", "secret1")

	for _, forbidden := range []string{"password", "email", "username"} {
		rec, _ := request(t, e, http.MethodPut, "/update-info",
			map[string]string{forbidden: "x", "bio": "hello"}, bearer(token))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("forbidden field %s: status = %d, want 400", forbidden, rec.Code)
		}
	}
}

func TestUpdateInfoAppliesProfileFields(t *testing.T) {
	store := newFakeStore()
	e, _ := newAccountApp(store)
	_, token := seedUser(t, store, "alice", "alice@x.com", "secret1")

	rec, body := request(t, e, http.MethodPut, "/update-info",
		map[string]interface{}{
			"bio":      "gardener at heart",
			"location": "Lyon",
			"socialLinks": map[string]string{
				"twitter": "@alice",
			},
		}, bearer(token))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if body["bio"] != "gardener at heart" || body["location"] != "Lyon" || body["twitter"] != "@alice" {
		t.Errorf("changed fields = %v", body)
	}

	u, _ := store.FindByUsername(context.Background(), "alice")
	if !u.Bio.Valid || u.Bio.String != "gardener at heart" {
		t.Errorf("bio not persisted: %+v", u.Bio)
	}
	if !u.Twitter.Valid || u.Twitter.String != "@alice" {
		t.Errorf("twitter not persisted: %+v", u.Twitter)
	}
}

func TestDeleteAccount(t *testing.T) {
	store := newFakeStore()
	e, h := newAccountApp(store)
	_, token := seedUser(t, store, "alice", "alice@x.com", "secret1")

	var events []queue.AccountEvent
	h.Publish = func(_ context.Context, ev queue.AccountEvent) error {
		events = append(events, ev)
		return nil
	}

	rec, _ := request(t, e, http.MethodDelete, "/delete", nil, bearer(token))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if _, err := store.FindByUsername(context.Background(), "alice"); err == nil {
		t.Error("account still present after delete")
	}
	if len(events) != 1 || events[0].Type != queue.EventUserDeleted {
		t.Errorf("events = %+v, want one user.deleted", events)
	}

	// The access token outlives the account; a second delete is a 404.
	rec, _ = request(t, e, http.MethodDelete, "/delete", nil, bearer(token))
	if rec.Code != http.StatusNotFound {
		t.Errorf("repeat delete: status = %d, want 404", rec.Code)
	}
}
