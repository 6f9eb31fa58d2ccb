package utils // package utils provides helper functions for token issuing and hashing

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/melkan/community-platform/internal/model"
)

// Two token classes cooperate to form a session. The access token is
// short-lived, carries the role list and is verified on every request;
// it is never stored server-side. The refresh token is long-lived,
// carries identity only (roles are re-derived from the record at
// refresh time so role changes apply without forcing a logout), and is
// persisted verbatim on the user record. Each class is signed with its
// own secret.

// AccessClaims is the payload of an access token.
type AccessClaims struct {
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
	jwt.RegisteredClaims
}

// RefreshClaims is the payload of a refresh token. Deliberately no
// roles.
type RefreshClaims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// ErrUnexpectedSigningMethod is returned when a token was signed with
// anything other than HMAC.
var ErrUnexpectedSigningMethod = errors.New("unexpected token signing method")

// UserID parses the subject claim back into the numeric user id.
func (c *AccessClaims) UserID() (uint64, error) {
	return strconv.ParseUint(c.Subject, 10, 64)
}

// UserID parses the subject claim back into the numeric user id.
func (c *RefreshClaims) UserID() (uint64, error) {
	return strconv.ParseUint(c.Subject, 10, 64)
}

// NewAccessToken signs an HS256 access token for the user. The role
// list is embedded as strings so the authorization gate can enforce
// role requirements without a store round-trip.
func NewAccessToken(secret string, u *model.User, roles []model.Role, ttlMin int) (string, error) {
	now := time.Now().UTC()
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	claims := AccessClaims{
		Username: u.Username,
		Roles:    names,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(u.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(ttlMin) * time.Minute)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// NewRefreshToken signs an HS256 refresh token for the user using the
// refresh secret. TTL is expressed in days.
func NewRefreshToken(secret string, u *model.User, ttlDays int) (string, error) {
	now := time.Now().UTC()
	claims := RefreshClaims{
		Username: u.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(u.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(ttlDays) * 24 * time.Hour)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseAccessToken verifies signature and expiry against the access
// secret and returns the claims. Invalid signatures, wrong secrets and
// expired tokens all surface as errors from the jwt library
// (jwt.ErrTokenSignatureInvalid, jwt.ErrTokenExpired).
func ParseAccessToken(secret, raw string) (*AccessClaims, error) {
	var claims AccessClaims
	tok, err := jwt.ParseWithClaims(raw, &claims, hmacKeyFunc(secret))
	if err != nil {
		return nil, err
	}
	if !tok.Valid {
		return nil, jwt.ErrTokenUnverifiable
	}
	return &claims, nil
}

// ParseRefreshToken verifies signature and expiry against the refresh
// secret and returns the claims.
func ParseRefreshToken(secret, raw string) (*RefreshClaims, error) {
	var claims RefreshClaims
	tok, err := jwt.ParseWithClaims(raw, &claims, hmacKeyFunc(secret))
	if err != nil {
		return nil, err
	}
	if !tok.Valid {
		return nil, jwt.ErrTokenUnverifiable
	}
	return &claims, nil
}

// hmacKeyFunc supplies the signing key and rejects tokens signed with a
// different algorithm family.
func hmacKeyFunc(secret string) jwt.Keyfunc {
	return func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrUnexpectedSigningMethod
		}
		return []byte(secret), nil
	}
}
