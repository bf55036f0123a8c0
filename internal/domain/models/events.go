package models

import (
	"time"

	"github.com/google/uuid"
)

// Kafka topics published by the auth service.
const (
	TopicUserRegistered  = "auth.user.registered"
	TopicUserVerified    = "auth.user.verified"
	TopicUserLogin       = "auth.user.login"
	TopicPasswordChanged = "auth.user.password_changed"
	TopicUserBlocked     = "auth.user.blocked"
	TopicUserUnblocked   = "auth.user.unblocked"
)

// UserEvent is the envelope published to the auth.* topics. The user id is
// the partition key so per-user ordering is preserved.
type UserEvent struct {
	EventID    uuid.UUID `json:"event_id"`
	UserID     uuid.UUID `json:"user_id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewUserEvent builds an event envelope for the given user.
func NewUserEvent(u *User) UserEvent {
	return UserEvent{
		EventID:    uuid.New(),
		UserID:     u.ID,
		Username:   u.Username,
		Email:      u.Email,
		OccurredAt: time.Now().UTC(),
	}
}
