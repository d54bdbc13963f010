package events

import (
	"time"

	"github.com/spec-kit/account-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserRegistered  EventType = "user_registered"
	EventUserVerified    EventType = "user_verified"
	EventOtpIssued       EventType = "otp_issued"
	EventUserLoggedIn    EventType = "user_logged_in"
	EventUserLoggedOut   EventType = "user_logged_out"
	EventPasswordChanged EventType = "password_changed"
)

// Event represents a lifecycle event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	UserID    string      `json:"user_id"`
	Email     string      `json:"email"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// UserRegisteredPayload payload.
type UserRegisteredPayload struct {
	Role   domain.UserRole   `json:"role"`
	Status domain.UserStatus `json:"status"`
}

// OtpIssuedPayload payload. The code itself is never carried on events.
type OtpIssuedPayload struct {
	OtpType   domain.OtpType `json:"otp_type"`
	ExpiresAt time.Time      `json:"expires_at"`
}

// PasswordChangedPayload payload.
type PasswordChangedPayload struct {
	ViaReset bool `json:"via_reset"`
}
