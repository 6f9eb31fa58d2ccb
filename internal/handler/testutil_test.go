package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/melkan/community-platform/internal/config"
	"github.com/melkan/community-platform/internal/model"
	"github.com/melkan/community-platform/internal/repository"
)

// testCfg uses the bcrypt minimum cost so tests stay fast; production
// cost is a deployment concern, not a contract.
var testCfg = config.Config{
	Env:            "test",
	AccessSecret:   "access-secret",
	RefreshSecret:  "refresh-secret",
	AccessTTLMin:   15,
	RefreshTTLDays: 30,
	BcryptCost:     4,
}

// fakeStore is an in-memory UserStore with the same uniqueness and
// not-found semantics as the MySQL repository.
type fakeStore struct {
	mu     sync.Mutex
	nextID uint64
	users  map[uint64]*model.User
}

func newFakeStore() *fakeStore {
	return &fakeStore{users: map[uint64]*model.User{}}
}

func copyUser(u *model.User) *model.User {
	cp := *u
	return &cp
}

func (s *fakeStore) Create(_ context.Context, u *model.User) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ex := range s.users {
		if ex.Username == u.Username {
			return 0, repository.ErrUsernameExists
		}
		if ex.Email == u.Email {
			return 0, repository.ErrEmailExists
		}
	}
	s.nextID++
	cp := copyUser(u)
	cp.ID = s.nextID
	s.users[cp.ID] = cp
	return cp.ID, nil
}

func (s *fakeStore) find(pred func(*model.User) bool) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if pred(u) {
			return copyUser(u), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *fakeStore) FindByUsername(_ context.Context, username string) (*model.User, error) {
	return s.find(func(u *model.User) bool { return u.Username == username })
}

func (s *fakeStore) FindByEmail(_ context.Context, email string) (*model.User, error) {
	return s.find(func(u *model.User) bool { return u.Email == email })
}

func (s *fakeStore) FindByID(_ context.Context, id uint64) (*model.User, error) {
	return s.find(func(u *model.User) bool { return u.ID == id })
}

func (s *fakeStore) FindByRefreshToken(_ context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, repository.ErrNotFound
	}
	return s.find(func(u *model.User) bool { return u.RefreshToken == token })
}

func (s *fakeStore) Save(_ context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.ID]; !ok {
		return repository.ErrNotFound
	}
	for id, ex := range s.users {
		if id == u.ID {
			continue
		}
		if ex.Username == u.Username {
			return repository.ErrUsernameExists
		}
		if ex.Email == u.Email {
			return repository.ErrEmailExists
		}
	}
	s.users[u.ID] = copyUser(u)
	return nil
}

func (s *fakeStore) Delete(_ context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.users, id)
	return nil
}

func (s *fakeStore) List(_ context.Context) ([]*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]uint64, 0, len(s.users))
	for id := range s.users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]*model.User, 0, len(ids))
	for _, id := range ids {
		out = append(out, copyUser(s.users[id]))
	}
	return out, nil
}

// request runs one request through the given Echo app and decodes the
// JSON body into a generic map.
func request(t *testing.T, e *echo.Echo, method, path string, body interface{}, decorate func(*http.Request)) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if decorate != nil {
		decorate(req)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var decoded map[string]interface{}
	_ = json.Unmarshal(rec.Body.Bytes(), &decoded)
	return rec, decoded
}

// findCookie returns the named Set-Cookie value from a response.
func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == name {
			return ck
		}
	}
	return nil
}
