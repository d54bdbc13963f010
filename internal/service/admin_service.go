package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/account-service/internal/domain"
	"github.com/spec-kit/account-service/internal/repository"
	apperrors "github.com/spec-kit/account-service/pkg/util"
)

// AdminUpdateInput carries optional fields for an admin record update.
// Nil fields leave the stored value unchanged.
type AdminUpdateInput struct {
	UserName  *string
	FirstName *string
	LastName  *string
	MobileNo  *string
	Role      *domain.UserRole
}

// AdminService is a thin query layer over user records. It enforces
// existence only; lifecycle invariants live in AccountService.
type AdminService struct {
	users repository.UserRepository
}

// NewAdminService builds the service.
func NewAdminService(users repository.UserRepository) *AdminService {
	return &AdminService{users: users}
}

// ListUsers pages through all accounts.
func (s *AdminService) ListUsers(ctx context.Context, limit, offset int) ([]domain.Profile, error) {
	users, err := s.users.List(ctx, limit, offset)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	profiles := make([]domain.Profile, 0, len(users))
	for i := range users {
		profiles = append(profiles, domain.ProfileOf(&users[i]))
	}
	return profiles, nil
}

// GetUserRole looks up the role for an email.
func (s *AdminService) GetUserRole(ctx context.Context, email string) (domain.UserRole, error) {
	user, err := s.users.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", apperrors.NewNotFound("user", nil)
		}
		return "", apperrors.NewInternalError(err)
	}
	return user.Role, nil
}

// UpdateUser applies a partial update by id and returns the updated record.
func (s *AdminService) UpdateUser(ctx context.Context, id string, in AdminUpdateInput) (domain.Profile, error) {
	fields := map[string]any{}
	if in.UserName != nil {
		fields["user_name"] = strings.TrimSpace(*in.UserName)
	}
	if in.FirstName != nil {
		fields["first_name"] = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		fields["last_name"] = strings.TrimSpace(*in.LastName)
	}
	if in.MobileNo != nil {
		fields["mobile_no"] = strings.TrimSpace(*in.MobileNo)
	}
	if in.Role != nil {
		fields["role"] = *in.Role
	}

	if len(fields) > 0 {
		affected, err := s.users.UpdateFields(ctx, id, fields)
		if err != nil {
			return domain.Profile{}, apperrors.NewInternalError(err)
		}
		if affected == 0 {
			return domain.Profile{}, apperrors.NewNotFound("user", map[string]any{"id": id})
		}
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Profile{}, apperrors.NewNotFound("user", map[string]any{"id": id})
		}
		return domain.Profile{}, apperrors.NewInternalError(err)
	}
	return domain.ProfileOf(user), nil
}

// DeleteUser removes an account by id.
func (s *AdminService) DeleteUser(ctx context.Context, id string) error {
	affected, err := s.users.Delete(ctx, id)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	if affected == 0 {
		return apperrors.NewNotFound("user", map[string]any{"id": id})
	}
	return nil
}
