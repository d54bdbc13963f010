package dto

// RegisterRequest payload for new accounts.
type RegisterRequest struct {
	UserName  string `json:"user_name" validate:"required"`
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	MobileNo  string `json:"mobile_no" validate:"omitempty,min=7,max=15"`
	Password  string `json:"password" validate:"required,min=8"`
}

// VerifyOtpRequest payload for OTP verification.
type VerifyOtpRequest struct {
	Email string `json:"email" validate:"required,email"`
	Otp   string `json:"otp" validate:"required,len=6,numeric"`
}

// EmailRequest payload for operations keyed by email only.
type EmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ChangePasswordRequest payload for rotating a password in-session.
type ChangePasswordRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

// ResetPasswordRequest payload following a forgot-password OTP.
type ResetPasswordRequest struct {
	Email       string `json:"email" validate:"required,email"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

// UpdateProfileRequest payload; empty fields keep their stored values.
type UpdateProfileRequest struct {
	UserName  string `json:"user_name"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	MobileNo  string `json:"mobile_no"`
}

// MessageResponse is the standard success envelope.
type MessageResponse struct {
	Message string `json:"message"`
}
