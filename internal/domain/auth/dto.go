package auth

import "github.com/cmlabs-hris/hris-payroll/internal/pkg/validator"

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=255"`
}

func (r *LoginRequest) Validate() error {
	return validator.Struct(r)
}

type TokenResponse struct {
	AccessToken          string `json:"access_token"`
	AccessTokenExpiresIn int64  `json:"access_token_expires_in"`
	EmployeeID           string `json:"employee_id"`
	Role                 string `json:"role"`
}
