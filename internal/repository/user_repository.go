package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/melkan/community-platform/internal/model"
)

// UserRepo is the credential store. It persists account records in the
// `users` table, including the bcrypt password hash, the role flags and
// the single active refresh token per user.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id,firstname,lastname,username,email,password_hash,is_gardener,is_admin," +
	"profile_photo,bio,location,website,twitter,facebook,instagram,linkedin,refresh_token,created_at,updated_at"

func scanUser(row *sql.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Username, &u.Email, &u.PasswordHash,
		&u.IsGardener, &u.IsAdmin,
		&u.ProfilePhoto, &u.Bio, &u.Location, &u.Website,
		&u.Twitter, &u.Facebook, &u.Instagram, &u.LinkedIn,
		&u.RefreshToken, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts a new account record and returns its ID. Unique-key
// violations on username or email are mapped to the package sentinels
// so handlers can report which field collided.
func (r *UserRepo) Create(ctx context.Context, u *model.User) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO users
		 (firstname,lastname,username,email,password_hash,is_gardener,is_admin,
		  profile_photo,bio,location,website,twitter,facebook,instagram,linkedin,refresh_token)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		u.FirstName, u.LastName, u.Username, u.Email, u.PasswordHash,
		u.IsGardener, u.IsAdmin,
		u.ProfilePhoto, u.Bio, u.Location, u.Website,
		u.Twitter, u.Facebook, u.Instagram, u.LinkedIn, u.RefreshToken)
	if err != nil {
		return 0, mapDuplicate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// FindByUsername fetches a user by exact username.
func (r *UserRepo) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE username=? LIMIT 1", username))
}

// FindByEmail fetches a user by normalized email.
func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email))
}

// FindByID fetches a user by id.
func (r *UserRepo) FindByID(ctx context.Context, id uint64) (*model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
}

// FindByRefreshToken fetches the user whose stored refresh token equals
// the given value exactly. Only one record can match because a fresh
// login overwrites the previous token.
func (r *UserRepo) FindByRefreshToken(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, ErrNotFound
	}
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE refresh_token=? LIMIT 1", token))
}

// Save writes every mutable column of the record back. Concurrent
// saves for the same user follow last-write-wins; the refresh token in
// particular is legitimately overwritten by a newer login.
func (r *UserRepo) Save(ctx context.Context, u *model.User) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE users SET
		 firstname=?,lastname=?,username=?,email=?,password_hash=?,is_gardener=?,is_admin=?,
		 profile_photo=?,bio=?,location=?,website=?,twitter=?,facebook=?,instagram=?,linkedin=?,refresh_token=?
		 WHERE id=?`,
		u.FirstName, u.LastName, u.Username, u.Email, u.PasswordHash,
		u.IsGardener, u.IsAdmin,
		u.ProfilePhoto, u.Bio, u.Location, u.Website,
		u.Twitter, u.Facebook, u.Instagram, u.LinkedIn, u.RefreshToken, u.ID)
	return mapDuplicate(err)
}

// Delete removes the account record.
func (r *UserRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM users WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns all account records ordered by id. Used by the
// admin-only user listing.
func (r *UserRepo) List(ctx context.Context) ([]*model.User, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Username, &u.Email, &u.PasswordHash,
			&u.IsGardener, &u.IsAdmin,
			&u.ProfilePhoto, &u.Bio, &u.Location, &u.Website,
			&u.Twitter, &u.Facebook, &u.Instagram, &u.LinkedIn,
			&u.RefreshToken, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		users = append(users, &u)
	}
	return users, rows.Err()
}

// mapDuplicate converts a MySQL duplicate-key error (1062) into the
// matching sentinel. The violated index name tells us which unique
// field collided.
func mapDuplicate(err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	if !strings.Contains(msg, "1062") {
		return err
	}
	if strings.Contains(msg, "email") {
		return ErrEmailExists
	}
	return ErrUsernameExists
}
