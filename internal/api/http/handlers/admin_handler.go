package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/account-service/internal/api/dto"
	"github.com/spec-kit/account-service/internal/domain"
	"github.com/spec-kit/account-service/internal/service"
	apperrors "github.com/spec-kit/account-service/pkg/util"
)

// AdminHandler exposes the admin query endpoints.
type AdminHandler struct {
	admin    *service.AdminService
	validate *validator.Validate
}

// NewAdminHandler constructs handler.
func NewAdminHandler(adminService *service.AdminService) *AdminHandler {
	return &AdminHandler{
		admin:    adminService,
		validate: validator.New(),
	}
}

// ListUsers handles GET /user/all.
func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 10)
	offset := c.QueryInt("offset", 0)

	users, err := h.admin.ListUsers(c.UserContext(), limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"users": users})
}

// GetUserRole handles GET /user/role?email=...
func (h *AdminHandler) GetUserRole(c *fiber.Ctx) error {
	email := c.Query("email")
	if email == "" {
		return apperrors.NewValidationError("email is required", nil)
	}

	role, err := h.admin.GetUserRole(c.UserContext(), email)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"role": role})
}

// UpdateUser handles PUT /user/update/:id.
func (h *AdminHandler) UpdateUser(c *fiber.Ctx) error {
	id := c.Params("id")

	var req dto.AdminUpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.validate.Struct(&req); err != nil {
		return apperrors.NewValidationError(err.Error(), nil)
	}

	in := service.AdminUpdateInput{
		UserName:  req.UserName,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		MobileNo:  req.MobileNo,
	}
	if req.Role != nil {
		role := domain.UserRole(*req.Role)
		in.Role = &role
	}

	profile, err := h.admin.UpdateUser(c.UserContext(), id, in)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message": "user updated successfully",
		"user":    profile,
	})
}

// DeleteUser handles DELETE /user/delete/:id.
func (h *AdminHandler) DeleteUser(c *fiber.Ctx) error {
	id := c.Params("id")

	if err := h.admin.DeleteUser(c.UserContext(), id); err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{Message: "user deleted successfully"})
}
