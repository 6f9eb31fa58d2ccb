package handler // handler defines http handlers

import (
	"context"
	"database/sql"

	"github.com/melkan/community-platform/internal/model"
)

// UserStore is the credential-store contract the handlers depend on.
// It is implemented by repository.UserRepo; tests substitute an
// in-memory fake. All operations may fail with a storage error, and
// lookups return repository.ErrNotFound when nothing matches.
// Uniqueness of username and email is enforced by the store, but
// handlers pre-check both so collisions produce a user-facing message
// instead of a bare constraint violation.
type UserStore interface {
	Create(ctx context.Context, u *model.User) (uint64, error)
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByID(ctx context.Context, id uint64) (*model.User, error)
	FindByRefreshToken(ctx context.Context, token string) (*model.User, error)
	Save(ctx context.Context, u *model.User) error
	Delete(ctx context.Context, id uint64) error
	List(ctx context.Context) ([]*model.User, error)
}

// socialLinks mirrors the nested social-profile block of the client
// payloads.
type socialLinks struct {
	Twitter   *string `json:"twitter"`
	Facebook  *string `json:"facebook"`
	Instagram *string `json:"instagram"`
	LinkedIn  *string `json:"linkedin"`
}

// userInfo is the sanitized projection returned to clients. It never
// carries the password hash or the refresh token.
type userInfo struct {
	ID           uint64      `json:"id"`
	Username     string      `json:"username"`
	FirstName    string      `json:"firstname"`
	LastName     string      `json:"lastname"`
	Email        string      `json:"email"`
	ProfilePhoto *string     `json:"profilePhoto"`
	Bio          *string     `json:"bio"`
	Location     *string     `json:"location"`
	SocialLinks  socialLinks `json:"socialLinks"`
	Website      *string     `json:"website"`
}

func sanitizeUser(u *model.User) userInfo {
	return userInfo{
		ID:           u.ID,
		Username:     u.Username,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Email:        u.Email,
		ProfilePhoto: optional(u.ProfilePhoto),
		Bio:          optional(u.Bio),
		Location:     optional(u.Location),
		SocialLinks: socialLinks{
			Twitter:   optional(u.Twitter),
			Facebook:  optional(u.Facebook),
			Instagram: optional(u.Instagram),
			LinkedIn:  optional(u.LinkedIn),
		},
		Website: optional(u.Website),
	}
}

func optional(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

func nullable(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
