// Package repository defines sentinel error values shared by the data
// access layer. Handlers compare against these to pick the right HTTP
// status instead of inspecting driver errors: duplicate unique fields
// become 400 responses with a user-facing message, ErrNotFound becomes
// 404, and anything else is a generic storage failure reported as 500.
package repository

import "errors"

// ErrNotFound is returned when no record matches the lookup. Handlers
// translate this into an HTTP 404 response.
var ErrNotFound = errors.New("record not found")

// ErrUsernameExists is returned when creating or renaming a user would
// collide with an existing username.
var ErrUsernameExists = errors.New("username already exists")

// ErrEmailExists is returned when creating a user or changing an email
// would collide with an existing email address.
var ErrEmailExists = errors.New("email already exists")
