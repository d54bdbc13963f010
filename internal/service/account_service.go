package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/account-service/internal/auth"
	"github.com/spec-kit/account-service/internal/config"
	"github.com/spec-kit/account-service/internal/domain"
	"github.com/spec-kit/account-service/internal/events"
	"github.com/spec-kit/account-service/internal/notify"
	"github.com/spec-kit/account-service/internal/otp"
	"github.com/spec-kit/account-service/internal/repository"
	apperrors "github.com/spec-kit/account-service/pkg/util"
)

// RegisterInput carries the fields required to create an account.
type RegisterInput struct {
	UserName  string
	FirstName string
	LastName  string
	Email     string
	MobileNo  string
	Password  string
}

// UpdateProfileInput carries optional profile fields; empty values leave
// the stored value unchanged.
type UpdateProfileInput struct {
	UserName  string
	FirstName string
	LastName  string
	MobileNo  string
}

// AccountService owns every account state transition: registration,
// OTP verification, login/logout and the password flows.
type AccountService struct {
	users       repository.UserRepository
	email       notify.EmailNotifier
	sms         notify.SmsNotifier
	otp         *otp.Generator
	limiter     OtpAttemptLimiter
	dispatcher  events.Dispatcher
	logger      *zap.Logger
	bcryptCost  int
	defaultRole domain.UserRole
}

// AccountDependencies encapsulates collaborator requirements.
type AccountDependencies struct {
	UserRepo   repository.UserRepository
	Email      notify.EmailNotifier
	Sms        notify.SmsNotifier
	Limiter    OtpAttemptLimiter
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewAccountService builds the service.
func NewAccountService(cfg config.AccountConfig, deps AccountDependencies) *AccountService {
	limiter := deps.Limiter
	if limiter == nil {
		limiter = NoopLimiter{}
	}
	role := domain.UserRole(cfg.DefaultRole)
	if role != domain.RoleAdmin && role != domain.RoleUser {
		role = domain.RoleUser
	}
	return &AccountService{
		users:       deps.UserRepo,
		email:       deps.Email,
		sms:         deps.Sms,
		otp:         otp.NewGenerator(cfg.OtpTTL()),
		limiter:     limiter,
		dispatcher:  deps.Dispatcher,
		logger:      deps.Logger,
		bcryptCost:  cfg.BcryptCost,
		defaultRole: role,
	}
}

// NormalizeEmail lower-cases and trims an address; every lifecycle
// operation keys off the canonical form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an INACTIVE account with a fresh verification code,
// or re-issues the code when an unverified account already exists.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (string, error) {
	email := NormalizeEmail(in.Email)

	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return "", apperrors.NewInternalError(err)
	}

	if existing != nil {
		if existing.Status == domain.UserStatusActive {
			return "", apperrors.NewConflict("email already registered", nil)
		}
		// Unverified account: top up the verification code if none is
		// pending, then tell the caller to verify.
		if !existing.HasOtp() {
			if err := s.issueOtp(ctx, existing, domain.OtpEmailVerification); err != nil {
				return "", err
			}
			if err := s.email.SendOtpEmail(ctx, existing.Email, *existing.Otp, existing.FirstName); err != nil {
				return "", apperrors.NewInternalError(err)
			}
		}
		return "", apperrors.NewUnauthorized("email pending verification, check your inbox")
	}

	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return "", apperrors.NewInternalError(err)
	}

	user := &domain.User{
		UserName:     strings.TrimSpace(in.UserName),
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Email:        email,
		MobileNo:     strings.TrimSpace(in.MobileNo),
		PasswordHash: hash,
		Role:         s.defaultRole,
		Status:       domain.UserStatusInactive,
	}

	code, err := s.otp.Code()
	if err != nil {
		return "", apperrors.NewInternalError(err)
	}
	user.SetOtp(code, s.otp.ExpiresAt(time.Now()), domain.OtpEmailVerification)

	if err := s.users.Create(ctx, user); err != nil {
		return "", apperrors.NewInternalError(err)
	}

	if err := s.email.SendOtpEmail(ctx, user.Email, code, user.FirstName); err != nil {
		return "", apperrors.NewInternalError(err)
	}
	s.publish(ctx, events.EventUserRegistered, user, events.UserRegisteredPayload{
		Role:   user.Role,
		Status: user.Status,
	})

	return fmt.Sprintf("%s registered successfully. OTP sent to email.", user.Role), nil
}

// VerifyOtp checks a pending code. On success the OTP triple is cleared;
// a verification code additionally activates the account. A mismatched
// code leaves the triple in place so the user may retry until expiry.
func (s *AccountService) VerifyOtp(ctx context.Context, email, code string) (string, error) {
	user, err := s.getByEmail(ctx, email)
	if err != nil {
		return "", err
	}

	if !user.HasOtp() {
		return "", apperrors.NewUnauthorized("no OTP pending for this account")
	}

	if time.Now().After(*user.OtpExpiration) {
		user.ClearOtp()
		if err := s.users.Update(ctx, user); err != nil {
			return "", apperrors.NewInternalError(err)
		}
		return "", apperrors.NewOtpExpired()
	}

	blocked, err := s.limiter.TooManyAttempts(ctx, user.Email)
	if err != nil {
		s.logger.Warn("otp attempt limiter unavailable", zap.Error(err))
	} else if blocked {
		return "", apperrors.NewUnauthorized("too many OTP attempts, wait for the code to expire")
	}

	if *user.Otp != code {
		if err := s.limiter.RecordFailure(ctx, user.Email); err != nil {
			s.logger.Warn("otp attempt limiter unavailable", zap.Error(err))
		}
		return "", apperrors.NewUnauthorized("incorrect OTP")
	}

	verified := *user.OtpType == domain.OtpEmailVerification
	if verified {
		user.Status = domain.UserStatusActive
	}
	user.ClearOtp()

	if err := s.users.Update(ctx, user); err != nil {
		return "", apperrors.NewInternalError(err)
	}
	if err := s.limiter.Reset(ctx, user.Email); err != nil {
		s.logger.Warn("otp attempt limiter unavailable", zap.Error(err))
	}
	if verified {
		s.publish(ctx, events.EventUserVerified, user, nil)
	}

	return "OTP verified successfully", nil
}

// ResendOtp issues a fresh code matching the account's current state:
// verification for unverified accounts, forgot-password for verified
// accounts with no active session.
func (s *AccountService) ResendOtp(ctx context.Context, email string) (string, error) {
	user, err := s.getByEmail(ctx, email)
	if err != nil {
		return "", err
	}

	switch {
	case user.Status == domain.UserStatusInactive:
		if err := s.issueOtp(ctx, user, domain.OtpEmailVerification); err != nil {
			return "", err
		}
		if err := s.email.SendOtpEmail(ctx, user.Email, *user.Otp, user.FirstName); err != nil {
			return "", apperrors.NewInternalError(err)
		}
		return "new OTP sent to your email for email verification", nil

	case !user.IsLoggedIn:
		if err := s.issueOtp(ctx, user, domain.OtpForgotPassword); err != nil {
			return "", err
		}
		if err := s.email.SendOtpEmail(ctx, user.Email, *user.Otp, user.FirstName); err != nil {
			return "", apperrors.NewInternalError(err)
		}
		return "new OTP sent to your email for forgot password", nil

	default:
		// Not an error: an active session should use change-password.
		return "you are already logged in, use change password instead", nil
	}
}

// Login verifies credentials and marks the session flags. The returned
// profile never carries credentials or OTP state.
func (s *AccountService) Login(ctx context.Context, email, password string) (domain.Profile, error) {
	user, err := s.getByEmail(ctx, email)
	if err != nil {
		return domain.Profile{}, err
	}

	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return domain.Profile{}, apperrors.NewUnauthorized("invalid credentials")
	}

	user.IsLoggedIn = true
	user.IsLoggedOut = false
	if err := s.users.Update(ctx, user); err != nil {
		return domain.Profile{}, apperrors.NewInternalError(err)
	}

	s.publish(ctx, events.EventUserLoggedIn, user, nil)
	return domain.ProfileOf(user), nil
}

// Logout flips the session flags for a verified, not-yet-logged-out user.
func (s *AccountService) Logout(ctx context.Context, email string) (string, error) {
	user, err := s.getByEmail(ctx, email)
	if err != nil {
		return "", err
	}

	if user.Status == domain.UserStatusInactive {
		return "", apperrors.NewUnauthorized("account must log in first")
	}
	if user.IsLoggedOut {
		return "", apperrors.NewUnauthorized("already logged out")
	}

	user.IsLoggedIn = false
	user.IsLoggedOut = true
	if err := s.users.Update(ctx, user); err != nil {
		return "", apperrors.NewInternalError(err)
	}

	s.publish(ctx, events.EventUserLoggedOut, user, nil)
	return "logged out successfully", nil
}

// ForgotPassword issues a reset code for accounts without an active
// session. Email is the required channel; SMS delivery is attempted when
// a mobile number is present and its failure is swallowed.
func (s *AccountService) ForgotPassword(ctx context.Context, email string) (string, error) {
	user, err := s.getByEmail(ctx, email)
	if err != nil {
		return "", err
	}

	if user.IsLoggedIn {
		return "", apperrors.NewUnauthorized("already logged in, use change password instead")
	}

	if err := s.issueOtp(ctx, user, domain.OtpForgotPassword); err != nil {
		return "", err
	}

	if err := s.email.SendOtpEmail(ctx, user.Email, *user.Otp, user.FirstName); err != nil {
		return "", apperrors.NewInternalError(err)
	}

	if user.MobileNo != "" {
		if err := s.sms.SendOtpSms(ctx, user.MobileNo, *user.Otp); err != nil {
			// Best-effort channel: log and carry on.
			s.logger.Warn("otp sms delivery failed",
				zap.String("mobile", user.MobileNo), zap.Error(err))
		}
	}

	return "OTP sent to your email and SMS (if mobile provided)", nil
}

// ResetPassword stores a new password after a forgot-password OTP was
// verified. It trusts the prior VerifyOtp call rather than re-checking
// OTP state itself.
func (s *AccountService) ResetPassword(ctx context.Context, email, newPassword string) (string, error) {
	user, err := s.getByEmail(ctx, email)
	if err != nil {
		return "", err
	}

	if user.IsLoggedIn {
		return "", apperrors.NewUnauthorized("cannot reset password during an active session")
	}

	if auth.ComparePassword(user.PasswordHash, newPassword) == nil {
		return "", apperrors.NewUnauthorized("new password cannot be the same as the old password")
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return "", apperrors.NewInternalError(err)
	}
	user.PasswordHash = hash
	user.ClearOtp()

	if err := s.users.Update(ctx, user); err != nil {
		return "", apperrors.NewInternalError(err)
	}

	s.publish(ctx, events.EventPasswordChanged, user, events.PasswordChangedPayload{ViaReset: true})
	return "password reset successfully, you can now log in", nil
}

// ChangePassword rotates the password of a logged-in user.
func (s *AccountService) ChangePassword(ctx context.Context, email, oldPassword, newPassword string) (string, error) {
	user, err := s.getByEmail(ctx, email)
	if err != nil {
		return "", err
	}

	if !user.IsLoggedIn {
		return "", apperrors.NewUnauthorized("please log in first")
	}
	if err := auth.ComparePassword(user.PasswordHash, oldPassword); err != nil {
		return "", apperrors.NewUnauthorized("invalid old password")
	}
	if auth.ComparePassword(user.PasswordHash, newPassword) == nil {
		return "", apperrors.NewUnauthorized("new password cannot be the same as the old password")
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return "", apperrors.NewInternalError(err)
	}
	user.PasswordHash = hash

	if err := s.users.Update(ctx, user); err != nil {
		return "", apperrors.NewInternalError(err)
	}

	s.publish(ctx, events.EventPasswordChanged, user, events.PasswordChangedPayload{ViaReset: false})
	return "password changed successfully", nil
}

// UpdateProfile merges non-empty trimmed fields into the stored record.
func (s *AccountService) UpdateProfile(ctx context.Context, email string, in UpdateProfileInput) (domain.Profile, error) {
	user, err := s.getByEmail(ctx, email)
	if err != nil {
		return domain.Profile{}, err
	}

	if !user.IsLoggedIn {
		return domain.Profile{}, apperrors.NewUnauthorized("please log in first")
	}

	if v := strings.TrimSpace(in.UserName); v != "" {
		user.UserName = v
	}
	if v := strings.TrimSpace(in.FirstName); v != "" {
		user.FirstName = v
	}
	if v := strings.TrimSpace(in.LastName); v != "" {
		user.LastName = v
	}
	if v := strings.TrimSpace(in.MobileNo); v != "" {
		user.MobileNo = v
	}

	if err := s.users.Update(ctx, user); err != nil {
		return domain.Profile{}, apperrors.NewInternalError(err)
	}
	return domain.ProfileOf(user), nil
}

// GetProfile returns the public view of an account.
func (s *AccountService) GetProfile(ctx context.Context, email string) (domain.Profile, error) {
	user, err := s.getByEmail(ctx, email)
	if err != nil {
		return domain.Profile{}, err
	}
	return domain.ProfileOf(user), nil
}

func (s *AccountService) getByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, err := s.users.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"email": NormalizeEmail(email)})
		}
		return nil, apperrors.NewInternalError(err)
	}
	return user, nil
}

// issueOtp installs and persists a fresh code of the given type.
func (s *AccountService) issueOtp(ctx context.Context, user *domain.User, kind domain.OtpType) error {
	code, err := s.otp.Code()
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	expiresAt := s.otp.ExpiresAt(time.Now())
	user.SetOtp(code, expiresAt, kind)

	if err := s.users.Update(ctx, user); err != nil {
		return apperrors.NewInternalError(err)
	}

	s.publish(ctx, events.EventOtpIssued, user, events.OtpIssuedPayload{
		OtpType:   kind,
		ExpiresAt: expiresAt,
	})
	return nil
}

func (s *AccountService) publish(ctx context.Context, eventType events.EventType, user *domain.User, payload any) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		UserID:    user.ID,
		Email:     user.Email,
		Timestamp: time.Now(),
		Payload:   payload,
	})
}
