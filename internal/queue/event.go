// Package queue defines message payloads exchanged over the message broker.
package queue

// Event types published on the account.events queue.
const (
	EventUserRegistered = "user.registered"
	EventUserDeleted    = "user.deleted"
)

// AccountEvent is published when an account is created or deleted. It
// carries enough information for downstream consumers (welcome emails,
// audit logging, analytics) without querying the primary database. It
// never contains credentials or tokens.
type AccountEvent struct {
	Type       string `json:"type"`
	UserID     uint64 `json:"user_id"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	OccurredAt string `json:"occurred_at"`
}
