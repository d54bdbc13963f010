package domain

import "time"

// UserStatus represents lifecycle states for an account.
type UserStatus string

const (
	UserStatusInactive UserStatus = "INACTIVE"
	UserStatusActive   UserStatus = "ACTIVE"
)

// UserRole enumerates privilege levels.
type UserRole string

const (
	RoleAdmin UserRole = "admin"
	RoleUser  UserRole = "user"
)

// OtpType distinguishes what a pending one-time code is for.
type OtpType string

const (
	OtpEmailVerification OtpType = "EMAIL_VERIFICATION"
	OtpForgotPassword    OtpType = "FORGOT_PASSWORD"
)

// User is the domain model for an account. The OTP triple (Otp,
// OtpExpiration, OtpType) is either fully set or fully nil.
type User struct {
	ID            string
	UserName      string
	FirstName     string
	LastName      string
	Email         string
	MobileNo      string
	PasswordHash  string
	Role          UserRole
	Status        UserStatus
	IsLoggedIn    bool
	IsLoggedOut   bool
	Otp           *string
	OtpExpiration *time.Time
	OtpType       *OtpType
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// HasOtp reports whether a complete OTP triple is currently set.
func (u *User) HasOtp() bool {
	return u.Otp != nil && u.OtpExpiration != nil && u.OtpType != nil
}

// SetOtp installs a fresh OTP triple.
func (u *User) SetOtp(code string, expiresAt time.Time, kind OtpType) {
	u.Otp = &code
	u.OtpExpiration = &expiresAt
	u.OtpType = &kind
}

// ClearOtp removes the OTP triple as a unit.
func (u *User) ClearOtp() {
	u.Otp = nil
	u.OtpExpiration = nil
	u.OtpType = nil
}

// Profile is the externally visible view of a user; credentials and OTP
// state never leave the service through it.
type Profile struct {
	ID        string     `json:"id"`
	UserName  string     `json:"user_name"`
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	Email     string     `json:"email"`
	MobileNo  string     `json:"mobile_no"`
	Role      UserRole   `json:"role"`
	Status    UserStatus `json:"status"`
}

// ProfileOf projects a user onto its public view.
func ProfileOf(u *User) Profile {
	return Profile{
		ID:        u.ID,
		UserName:  u.UserName,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		MobileNo:  u.MobileNo,
		Role:      u.Role,
		Status:    u.Status,
	}
}
