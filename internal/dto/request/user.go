package request

type UpdateNameRequest struct {
	Name string `json:"name" validate:"required,min=1,max=64"`
}

type UpdateRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=admin user"`
}

type UpdatePasswordRequest struct {
	OldPassword        string `json:"oldPassword" validate:"required,min=6"`
	NewPassword        string `json:"newPassword" validate:"required,min=6"`
	NewPasswordConfirm string `json:"newPasswordConfirm" validate:"required,min=6,eqfield=NewPassword"`
}
