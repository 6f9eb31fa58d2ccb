package model

import (
	"database/sql"
	"time"
)

// Role identifies one of the platform's access levels. Every account
// holds RoleUser; RoleGardener and RoleAdmin are granted separately by
// privileged operations.
type Role string

const (
	RoleUser     Role = "user"
	RoleGardener Role = "gardener"
	RoleAdmin    Role = "admin"
)

// User represents an account record as stored in the `users` table.
// Optional profile fields are nullable columns. RefreshToken holds the
// single active refresh token for the account and is empty while the
// user is logged out.
//
// Fields:
//  ID           – primary key identifier of the user.
//  FirstName    – given name, required at registration.
//  LastName     – family name, required at registration.
//  Username     – unique handle.
//  Email        – unique email address.
//  PasswordHash – bcrypt hashed password, never the plaintext.
//  IsGardener   – whether the gardener role is granted.
//  IsAdmin      – whether the admin role is granted.
//  RefreshToken – currently valid refresh token, "" when logged out.
type User struct {
	ID           uint64         // users.id
	FirstName    string         // users.firstname
	LastName     string         // users.lastname
	Username     string         // users.username
	Email        string         // users.email
	PasswordHash string         // users.password_hash
	IsGardener   bool           // users.is_gardener
	IsAdmin      bool           // users.is_admin
	ProfilePhoto sql.NullString // users.profile_photo
	Bio          sql.NullString // users.bio
	Location     sql.NullString // users.location
	Website      sql.NullString // users.website
	Twitter      sql.NullString // users.twitter
	Facebook     sql.NullString // users.facebook
	Instagram    sql.NullString // users.instagram
	LinkedIn     sql.NullString // users.linkedin
	RefreshToken string         // users.refresh_token
	CreatedAt    time.Time      // users.created_at
	UpdatedAt    time.Time      // users.updated_at
}

// Roles derives the user's role list from the record. RoleUser is
// always present; optional roles are appended in a stable order
// (user, gardener, admin).
func (u *User) Roles() []Role {
	roles := []Role{RoleUser}
	if u.IsGardener {
		roles = append(roles, RoleGardener)
	}
	if u.IsAdmin {
		roles = append(roles, RoleAdmin)
	}
	return roles
}

// HasRole reports whether r is a member of the role list.
func HasRole(roles []Role, r Role) bool {
	for _, have := range roles {
		if have == r {
			return true
		}
	}
	return false
}
