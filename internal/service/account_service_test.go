package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/account-service/internal/config"
	"github.com/spec-kit/account-service/internal/domain"
	apperrors "github.com/spec-kit/account-service/pkg/util"
)

func testAccountConfig() config.AccountConfig {
	return config.AccountConfig{
		BcryptCost:    bcrypt.MinCost,
		OtpTTLMinutes: 5,
		DefaultRole:   "user",
	}
}

type testEnv struct {
	svc   *AccountService
	repo  *fakeUserRepo
	email *captureEmailNotifier
	sms   *captureSmsNotifier
}

func newTestEnv(t *testing.T, opts ...func(*AccountDependencies)) *testEnv {
	t.Helper()
	repo := newFakeUserRepo()
	email := &captureEmailNotifier{}
	sms := &captureSmsNotifier{}

	deps := AccountDependencies{
		UserRepo: repo,
		Email:    email,
		Sms:      sms,
		Logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&deps)
	}

	return &testEnv{
		svc:   NewAccountService(testAccountConfig(), deps),
		repo:  repo,
		email: email,
		sms:   sms,
	}
}

func registerInput(email string) RegisterInput {
	return RegisterInput{
		UserName:  "jdoe",
		FirstName: "John",
		LastName:  "Doe",
		Email:     email,
		MobileNo:  "5551234567",
		Password:  "s3cretPassword",
	}
}

func (e *testEnv) register(t *testing.T, email string) *domain.User {
	t.Helper()
	_, err := e.svc.Register(context.Background(), registerInput(email))
	require.NoError(t, err)
	user, err := e.repo.GetByEmail(context.Background(), NormalizeEmail(email))
	require.NoError(t, err)
	return user
}

func (e *testEnv) registerAndVerify(t *testing.T, email string) *domain.User {
	t.Helper()
	e.register(t, email)
	_, err := e.svc.VerifyOtp(context.Background(), email, e.email.lastCode())
	require.NoError(t, err)
	user, err := e.repo.GetByEmail(context.Background(), NormalizeEmail(email))
	require.NoError(t, err)
	return user
}

func TestRegisterCreatesInactiveUserWithOtp(t *testing.T) {
	env := newTestEnv(t)
	before := time.Now()

	msg, err := env.svc.Register(context.Background(), registerInput("a@x.com"))
	require.NoError(t, err)
	assert.Contains(t, msg, "registered successfully")

	user, err := env.repo.GetByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)

	assert.Equal(t, domain.UserStatusInactive, user.Status)
	assert.Equal(t, domain.RoleUser, user.Role)
	require.True(t, user.HasOtp())
	assert.Equal(t, domain.OtpEmailVerification, *user.OtpType)
	assert.Len(t, *user.Otp, 6)
	assert.WithinDuration(t, before.Add(5*time.Minute), *user.OtpExpiration, 5*time.Second)

	// Password is stored hashed, never plain.
	assert.NotEqual(t, "s3cretPassword", user.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("s3cretPassword")))

	require.Len(t, env.email.sent, 1)
	assert.Equal(t, *user.Otp, env.email.sent[0].code)
}

func TestRegisterActiveEmailConflicts(t *testing.T) {
	env := newTestEnv(t)
	env.registerAndVerify(t, "a@x.com")

	_, err := env.svc.Register(context.Background(), registerInput("a@x.com"))
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "CONFLICT"))
}

func TestRegisterPendingVerificationReissuesMissingOtp(t *testing.T) {
	env := newTestEnv(t)
	user := env.register(t, "a@x.com")

	// Simulate the sweeper having cleared the expired code.
	env.repo.mutate(user.ID, func(u *domain.User) { u.ClearOtp() })

	_, err := env.svc.Register(context.Background(), registerInput("a@x.com"))
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "UNAUTHORIZED"))

	refreshed, err := env.repo.GetByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.True(t, refreshed.HasOtp())
	assert.Len(t, env.email.sent, 2)

	// With a code already pending, registering again does not reissue.
	_, err = env.svc.Register(context.Background(), registerInput("a@x.com"))
	require.Error(t, err)
	assert.Len(t, env.email.sent, 2)
}

func TestRegisterNormalizesEmailCase(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "A@X.Com")

	user, err := env.repo.GetByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", user.Email)
}

func TestVerifyOtpActivatesAndClearsTriple(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "a@x.com")
	code := env.email.lastCode()

	msg, err := env.svc.VerifyOtp(context.Background(), "a@x.com", code)
	require.NoError(t, err)
	assert.Contains(t, msg, "verified")

	user, err := env.repo.GetByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, domain.UserStatusActive, user.Status)
	assert.False(t, user.HasOtp())

	// Replaying the same code now fails: no OTP is pending.
	_, err = env.svc.VerifyOtp(context.Background(), "a@x.com", code)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "UNAUTHORIZED"))
}

func TestVerifyOtpExpiredClearsTriple(t *testing.T) {
	env := newTestEnv(t)
	user := env.register(t, "a@x.com")
	code := env.email.lastCode()

	env.repo.mutate(user.ID, func(u *domain.User) {
		past := time.Now().Add(-time.Minute)
		u.OtpExpiration = &past
	})

	// Even the correct code fails once the window has passed.
	_, err := env.svc.VerifyOtp(context.Background(), "a@x.com", code)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "OTP_EXPIRED"))

	refreshed, err := env.repo.GetByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.False(t, refreshed.HasOtp())
	assert.Equal(t, domain.UserStatusInactive, refreshed.Status)
}

func TestVerifyOtpMismatchKeepsTriple(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "a@x.com")
	code := env.email.lastCode()

	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}

	_, err := env.svc.VerifyOtp(context.Background(), "a@x.com", wrong)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "UNAUTHORIZED"))

	// The pending code survives a mismatch, so the real one still works.
	_, err = env.svc.VerifyOtp(context.Background(), "a@x.com", code)
	require.NoError(t, err)
}

func TestVerifyOtpAttemptLimit(t *testing.T) {
	limiter := newMemoryLimiter(3)
	env := newTestEnv(t, func(d *AccountDependencies) { d.Limiter = limiter })
	env.register(t, "a@x.com")
	code := env.email.lastCode()

	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}

	for i := 0; i < 3; i++ {
		_, err := env.svc.VerifyOtp(context.Background(), "a@x.com", wrong)
		require.Error(t, err)
	}

	// The correct code is now rejected too: guesses are exhausted.
	_, err := env.svc.VerifyOtp(context.Background(), "a@x.com", code)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "UNAUTHORIZED"))
}

func TestVerifyOtpUnknownUser(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.svc.VerifyOtp(context.Background(), "nobody@x.com", "123456")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "NOT_FOUND"))
}

func TestLoginSetsSessionFlags(t *testing.T) {
	env := newTestEnv(t)
	env.registerAndVerify(t, "a@x.com")

	_, err := env.svc.Login(context.Background(), "a@x.com", "wrongpassword")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "UNAUTHORIZED"))

	profile, err := env.svc.Login(context.Background(), "a@x.com", "s3cretPassword")
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", profile.Email)
	assert.Equal(t, domain.UserStatusActive, profile.Status)

	user, err := env.repo.GetByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.True(t, user.IsLoggedIn)
	assert.False(t, user.IsLoggedOut)
}

func TestLoginAcceptsCaseVariantEmail(t *testing.T) {
	env := newTestEnv(t)
	env.registerAndVerify(t, "A@X.com")

	_, err := env.svc.Login(context.Background(), "a@x.com", "s3cretPassword")
	require.NoError(t, err)
}

func TestLogoutTwiceFails(t *testing.T) {
	env := newTestEnv(t)
	env.registerAndVerify(t, "a@x.com")
	_, err := env.svc.Login(context.Background(), "a@x.com", "s3cretPassword")
	require.NoError(t, err)

	_, err = env.svc.Logout(context.Background(), "a@x.com")
	require.NoError(t, err)

	_, err = env.svc.Logout(context.Background(), "a@x.com")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "UNAUTHORIZED"))
}

func TestLogoutInactiveUserFails(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "a@x.com")

	_, err := env.svc.Logout(context.Background(), "a@x.com")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "UNAUTHORIZED"))
}

func TestForgotPasswordRejectedWhileLoggedIn(t *testing.T) {
	env := newTestEnv(t)
	env.registerAndVerify(t, "a@x.com")
	_, err := env.svc.Login(context.Background(), "a@x.com", "s3cretPassword")
	require.NoError(t, err)

	_, err = env.svc.ForgotPassword(context.Background(), "a@x.com")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "UNAUTHORIZED"))
}

func TestForgotPasswordIssuesOtpAndSms(t *testing.T) {
	env := newTestEnv(t)
	env.registerAndVerify(t, "a@x.com")

	msg, err := env.svc.ForgotPassword(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.Contains(t, msg, "OTP sent")

	user, err := env.repo.GetByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	require.True(t, user.HasOtp())
	assert.Equal(t, domain.OtpForgotPassword, *user.OtpType)
	assert.Contains(t, env.sms.sent, "5551234567")
}

func TestForgotPasswordSurvivesSmsFailure(t *testing.T) {
	env := newTestEnv(t)
	env.registerAndVerify(t, "a@x.com")
	env.sms.fail = assert.AnError

	_, err := env.svc.ForgotPassword(context.Background(), "a@x.com")
	require.NoError(t, err)
}

func TestResetPasswordFlow(t *testing.T) {
	env := newTestEnv(t)
	env.registerAndVerify(t, "a@x.com")

	_, err := env.svc.ForgotPassword(context.Background(), "a@x.com")
	require.NoError(t, err)
	_, err = env.svc.VerifyOtp(context.Background(), "a@x.com", env.email.lastCode())
	require.NoError(t, err)

	// Forgot-password verification does not change lifecycle status.
	user, err := env.repo.GetByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, domain.UserStatusActive, user.Status)

	_, err = env.svc.ResetPassword(context.Background(), "a@x.com", "s3cretPassword")
	require.Error(t, err, "same password must be rejected")

	_, err = env.svc.ResetPassword(context.Background(), "a@x.com", "brandNewPassword")
	require.NoError(t, err)

	_, err = env.svc.Login(context.Background(), "a@x.com", "brandNewPassword")
	require.NoError(t, err)
}

func TestResetPasswordRejectedWhileLoggedIn(t *testing.T) {
	env := newTestEnv(t)
	env.registerAndVerify(t, "a@x.com")
	_, err := env.svc.Login(context.Background(), "a@x.com", "s3cretPassword")
	require.NoError(t, err)

	_, err = env.svc.ResetPassword(context.Background(), "a@x.com", "brandNewPassword")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "UNAUTHORIZED"))
}

func TestChangePassword(t *testing.T) {
	env := newTestEnv(t)
	env.registerAndVerify(t, "a@x.com")

	// Requires an active session.
	_, err := env.svc.ChangePassword(context.Background(), "a@x.com", "s3cretPassword", "brandNewPassword")
	require.Error(t, err)

	_, err = env.svc.Login(context.Background(), "a@x.com", "s3cretPassword")
	require.NoError(t, err)

	_, err = env.svc.ChangePassword(context.Background(), "a@x.com", "wrongOld", "brandNewPassword")
	require.Error(t, err)

	_, err = env.svc.ChangePassword(context.Background(), "a@x.com", "s3cretPassword", "s3cretPassword")
	require.Error(t, err, "same password must be rejected")

	_, err = env.svc.ChangePassword(context.Background(), "a@x.com", "s3cretPassword", "brandNewPassword")
	require.NoError(t, err)

	user, err := env.repo.GetByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("brandNewPassword")))
}

func TestResendOtpPerState(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "a@x.com")

	msg, err := env.svc.ResendOtp(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.Contains(t, msg, "email verification")

	_, err = env.svc.VerifyOtp(context.Background(), "a@x.com", env.email.lastCode())
	require.NoError(t, err)

	msg, err = env.svc.ResendOtp(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.Contains(t, msg, "forgot password")

	_, err = env.svc.VerifyOtp(context.Background(), "a@x.com", env.email.lastCode())
	require.NoError(t, err)
	_, err = env.svc.Login(context.Background(), "a@x.com", "s3cretPassword")
	require.NoError(t, err)

	// Logged-in users get an informational message, not a code.
	sentBefore := len(env.email.sent)
	msg, err = env.svc.ResendOtp(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.Contains(t, msg, "change password")
	assert.Len(t, env.email.sent, sentBefore)
}

func TestUpdateProfileMergesNonEmptyFields(t *testing.T) {
	env := newTestEnv(t)
	env.registerAndVerify(t, "a@x.com")
	_, err := env.svc.Login(context.Background(), "a@x.com", "s3cretPassword")
	require.NoError(t, err)

	profile, err := env.svc.UpdateProfile(context.Background(), "a@x.com", UpdateProfileInput{
		FirstName: "  Jane ",
		LastName:  "",
		MobileNo:  "5559876543",
	})
	require.NoError(t, err)
	assert.Equal(t, "Jane", profile.FirstName)
	assert.Equal(t, "Doe", profile.LastName, "empty input keeps stored value")
	assert.Equal(t, "5559876543", profile.MobileNo)
}

func TestUpdateProfileRequiresSession(t *testing.T) {
	env := newTestEnv(t)
	env.registerAndVerify(t, "a@x.com")

	_, err := env.svc.UpdateProfile(context.Background(), "a@x.com", UpdateProfileInput{FirstName: "Jane"})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "UNAUTHORIZED"))
}

func TestGetProfileExcludesSecrets(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "a@x.com")

	profile, err := env.svc.GetProfile(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", profile.Email)
	assert.Equal(t, domain.UserStatusInactive, profile.Status)
}
