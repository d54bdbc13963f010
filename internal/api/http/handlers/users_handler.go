package handlers

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/account-service/internal/api/dto"
	"github.com/spec-kit/account-service/internal/service"
	apperrors "github.com/spec-kit/account-service/pkg/util"
)

// UsersHandler exposes the account lifecycle endpoints.
type UsersHandler struct {
	accounts *service.AccountService
	validate *validator.Validate
}

// NewUsersHandler constructs handler.
func NewUsersHandler(accountService *service.AccountService) *UsersHandler {
	return &UsersHandler{
		accounts: accountService,
		validate: validator.New(),
	}
}

func (h *UsersHandler) parseAndValidate(c *fiber.Ctx, req any) error {
	if err := c.BodyParser(req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.validate.Struct(req); err != nil {
		return apperrors.NewValidationError(err.Error(), nil)
	}
	return nil
}

// Register handles POST /user/register.
func (h *UsersHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := h.parseAndValidate(c, &req); err != nil {
		return err
	}

	msg, err := h.accounts.Register(c.UserContext(), service.RegisterInput{
		UserName:  req.UserName,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		MobileNo:  req.MobileNo,
		Password:  req.Password,
	})
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(dto.MessageResponse{Message: msg})
}

// VerifyOtp handles POST /user/verify-otp.
func (h *UsersHandler) VerifyOtp(c *fiber.Ctx) error {
	var req dto.VerifyOtpRequest
	if err := h.parseAndValidate(c, &req); err != nil {
		return err
	}

	msg, err := h.accounts.VerifyOtp(c.UserContext(), req.Email, req.Otp)
	if err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{Message: msg})
}

// ResendOtp handles POST /user/resend-otp.
func (h *UsersHandler) ResendOtp(c *fiber.Ctx) error {
	var req dto.EmailRequest
	if err := h.parseAndValidate(c, &req); err != nil {
		return err
	}

	msg, err := h.accounts.ResendOtp(c.UserContext(), req.Email)
	if err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{Message: msg})
}

// Login handles POST /user/login.
func (h *UsersHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := h.parseAndValidate(c, &req); err != nil {
		return err
	}

	profile, err := h.accounts.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"message": "login successful",
		"user":    profile,
	})
}

// Logout handles POST /user/logout.
func (h *UsersHandler) Logout(c *fiber.Ctx) error {
	var req dto.EmailRequest
	if err := h.parseAndValidate(c, &req); err != nil {
		return err
	}

	msg, err := h.accounts.Logout(c.UserContext(), req.Email)
	if err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{Message: msg})
}

// ForgotPassword handles POST /user/forgotpwd.
func (h *UsersHandler) ForgotPassword(c *fiber.Ctx) error {
	var req dto.EmailRequest
	if err := h.parseAndValidate(c, &req); err != nil {
		return err
	}

	msg, err := h.accounts.ForgotPassword(c.UserContext(), req.Email)
	if err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{Message: msg})
}

// ResetPassword handles POST /user/resetpwd.
func (h *UsersHandler) ResetPassword(c *fiber.Ctx) error {
	var req dto.ResetPasswordRequest
	if err := h.parseAndValidate(c, &req); err != nil {
		return err
	}

	msg, err := h.accounts.ResetPassword(c.UserContext(), req.Email, req.NewPassword)
	if err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{Message: msg})
}

// ChangePassword handles POST /user/changepwd.
func (h *UsersHandler) ChangePassword(c *fiber.Ctx) error {
	var req dto.ChangePasswordRequest
	if err := h.parseAndValidate(c, &req); err != nil {
		return err
	}

	msg, err := h.accounts.ChangePassword(c.UserContext(), req.Email, req.Password, req.NewPassword)
	if err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{Message: msg})
}

// UpdateProfile handles PUT /user/:email.
func (h *UsersHandler) UpdateProfile(c *fiber.Ctx) error {
	email := c.Params("email")
	if email == "" {
		return apperrors.NewValidationError("email is required", nil)
	}

	var req dto.UpdateProfileRequest
	if err := h.parseAndValidate(c, &req); err != nil {
		return err
	}

	profile, err := h.accounts.UpdateProfile(c.UserContext(), email, service.UpdateProfileInput{
		UserName:  req.UserName,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		MobileNo:  req.MobileNo,
	})
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"message": "user updated successfully",
		"user":    profile,
	})
}

// GetProfile handles GET /user/profile?email=...
func (h *UsersHandler) GetProfile(c *fiber.Ctx) error {
	email := c.Query("email")
	if email == "" {
		return apperrors.NewValidationError("email is required", nil)
	}

	profile, err := h.accounts.GetProfile(c.UserContext(), email)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"message": "user profile fetched successfully",
		"user":    profile,
	})
}
