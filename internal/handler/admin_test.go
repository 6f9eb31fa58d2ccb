package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"

	custmw "github.com/melkan/community-platform/internal/middleware"
	"github.com/melkan/community-platform/internal/model"
	"github.com/melkan/community-platform/internal/utils"
)

func newAdminApp(store *fakeStore) *echo.Echo {
	e := echo.New()
	h := NewAdminHandler(store)
	g := e.Group("/users", custmw.JWTAuth(testCfg.AccessSecret), custmw.RequireRole(model.RoleAdmin))
	g.GET("", h.ListUsers)
	g.GET("/:id", h.GetUser)
	g.DELETE("/:id", h.DeleteUser)
	return e
}

func seedAdmin(t *testing.T, store *fakeStore) string {
	t.Helper()
	u, _ := seedUser(t, store, "root", "root@x.com", "secret1")
	u.IsAdmin = true
	if err := store.Save(context.Background(), u); err != nil {
		t.Fatalf("Save: %v", err)
	}
	token, err := utils.NewAccessToken(testCfg.AccessSecret, u, u.Roles(), testCfg.AccessTTLMin)
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}
	return token
}

func TestAdminRoutesDenyNonAdmin(t *testing.T) {
	store := newFakeStore()
	e := newAdminApp(store)
	_, token := seedUser(t, store, "alice", "alice@x.com", "secret1")

	rec, _ := request(t, e, http.MethodGet, "/users", nil, bearer(token))
	if rec.Code != http.StatusForbidden {
		t.Errorf("list as non-admin: status = %d, want 403", rec.Code)
	}
}

func TestAdminListUsers(t *testing.T) {
	store := newFakeStore()
	e := newAdminApp(store)
	token := seedAdmin(t, store)
	seedUser(t, store, "alice", "alice@x.com", "secret1")

	rec, _ := request(t, e, http.MethodGet, "/users", nil, bearer(token))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var listed []map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &listed); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(listed) != 2 {
		t.Fatalf("listed %d users, want 2", len(listed))
	}
	for _, entry := range listed {
		for _, key := range []string{"password", "passwordHash", "refreshToken"} {
			if _, ok := entry[key]; ok {
				t.Errorf("listing leaks %q", key)
			}
		}
	}
}

func TestAdminGetUser(t *testing.T) {
	store := newFakeStore()
	e := newAdminApp(store)
	token := seedAdmin(t, store)
	u, _ := seedUser(t, store, "alice", "alice@x.com", "secret1")

	rec, body := request(t, e, http.MethodGet, "/users/2", nil, bearer(token))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if body["username"] != u.Username {
		t.Errorf("username = %v, want %s", body["username"], u.Username)
	}

	rec, _ = request(t, e, http.MethodGet, "/users/999", nil, bearer(token))
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing user: status = %d, want 404", rec.Code)
	}

	rec, _ = request(t, e, http.MethodGet, "/users/abc", nil, bearer(token))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad id: status = %d, want 400", rec.Code)
	}
}

func TestAdminDeleteUser(t *testing.T) {
	store := newFakeStore()
	e := newAdminApp(store)
	token := seedAdmin(t, store)
	seedUser(t, store, "alice", "alice@x.com", "secret1")

	rec, _ := request(t, e, http.MethodDelete, "/users/2", nil, bearer(token))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if _, err := store.FindByUsername(context.Background(), "alice"); err == nil {
		t.Error("account still present after admin delete")
	}

	rec, _ = request(t, e, http.MethodDelete, "/users/2", nil, bearer(token))
	if rec.Code != http.StatusNotFound {
		t.Errorf("repeat delete: status = %d, want 404", rec.Code)
	}
}
