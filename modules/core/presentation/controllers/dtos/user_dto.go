package dtos

import (
	"time"

	"github.com/bankhub/testcard-portal/modules/core/domain/aggregates/user"
)

type SaveUserDTO struct {
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone" validate:"omitempty"`
	Password  string `json:"password" validate:"omitempty,min=8"`
	Role      int    `json:"role" validate:"required,min=1,max=4"`
	Status    string `json:"status" validate:"omitempty,oneof=active inactive"`
	EnvProd   bool   `json:"envProd"`
	EnvQA     bool   `json:"envQa"`
	EnvTest   bool   `json:"envTest"`
}

func (dto *SaveUserDTO) Ok() (map[string]string, bool) { return validateStruct(dto) }

func (dto *SaveUserDTO) ToEntity(opts ...user.Option) (user.User, error) {
	status := user.Status(dto.Status)
	if dto.Status == "" {
		status = user.StatusActive
	}
	opts = append([]user.Option{
		user.WithPhone(dto.Phone),
		user.WithRole(user.Role(dto.Role)),
		user.WithStatus(status),
		user.WithEnvAccess(user.EnvAccess{Prod: dto.EnvProd, QA: dto.EnvQA, Test: dto.EnvTest}),
	}, opts...)
	u := user.New(dto.Email, dto.FirstName, dto.LastName, opts...)
	if dto.Password != "" {
		return u.SetPassword(dto.Password)
	}
	return u, nil
}

// UserResponse is the wire shape of a user record. Password material never
// leaves the server.
type UserResponse struct {
	ID        uint       `json:"id"`
	Email     string     `json:"email"`
	FirstName string     `json:"firstName"`
	LastName  string     `json:"lastName"`
	FullName  string     `json:"fullName"`
	Phone     string     `json:"phone,omitempty"`
	Role      int        `json:"role"`
	RoleName  string     `json:"roleName"`
	Status    string     `json:"status"`
	EnvProd   bool       `json:"envProd"`
	EnvQA     bool       `json:"envQa"`
	EnvTest   bool       `json:"envTest"`
	LastLogin *time.Time `json:"lastLogin,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

func NewUserResponse(u user.User) *UserResponse {
	return &UserResponse{
		ID:        u.ID(),
		Email:     u.Email(),
		FirstName: u.FirstName(),
		LastName:  u.LastName(),
		FullName:  u.FullName(),
		Phone:     u.Phone(),
		Role:      int(u.Role()),
		RoleName:  u.Role().String(),
		Status:    string(u.Status()),
		EnvProd:   u.EnvAccess().Prod,
		EnvQA:     u.EnvAccess().QA,
		EnvTest:   u.EnvAccess().Test,
		LastLogin: u.LastLogin(),
		CreatedAt: u.CreatedAt(),
	}
}
