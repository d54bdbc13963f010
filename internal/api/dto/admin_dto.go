package dto

// AdminUpdateUserRequest payload for an admin partial update by id.
type AdminUpdateUserRequest struct {
	UserName  *string `json:"user_name"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	MobileNo  *string `json:"mobile_no"`
	Role      *string `json:"role" validate:"omitempty,oneof=admin user"`
}
