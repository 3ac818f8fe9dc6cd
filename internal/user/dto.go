// AngelaMos | 2026
// dto.go

package user

import (
	"time"
)

type CreateUserRequest struct {
	Email string   `json:"email" validate:"required,email,max=255"`
	Name  string   `json:"name"  validate:"required,min=1,max=100"`
	Roles []string `json:"roles" validate:"omitempty,dive,oneof=admin manager user"`
}

type AdminCreateUserRequest struct {
	Email    string   `json:"email"    validate:"required,email,max=255"`
	Name     string   `json:"name"     validate:"required,min=1,max=100"`
	TenantID string   `json:"tenantId" validate:"omitempty,uuid"`
	Roles    []string `json:"roles"    validate:"omitempty,dive,oneof=super_admin admin manager user"`
}

type UpdateUserRequest struct {
	Name      *string   `json:"name,omitempty"      validate:"omitempty,min=1,max=100"`
	AvatarURL *string   `json:"avatarUrl,omitempty" validate:"omitempty,url,max=2048"`
	Roles     *[]string `json:"roles,omitempty"     validate:"omitempty,dive,oneof=admin manager user"`
}

type UpdateRolesRequest struct {
	Roles []string `json:"roles" validate:"required,min=1,dive,oneof=super_admin admin manager user"`
}

type UserResponse struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	Name        string     `json:"name"`
	AvatarURL   string     `json:"avatarUrl,omitempty"`
	Roles       []string   `json:"roles"`
	TenantID    string     `json:"tenantId,omitempty"`
	IsActive    bool       `json:"isActive"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func ToUserResponse(u *User) UserResponse {
	roles := []string(u.Roles)
	if roles == nil {
		roles = []string{}
	}

	resp := UserResponse{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.Name,
		Roles:       roles,
		TenantID:    u.Tenant(),
		IsActive:    u.IsActive,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
	if u.AvatarURL != nil {
		resp.AvatarURL = *u.AvatarURL
	}
	return resp
}

func ToUserResponseList(users []User) []UserResponse {
	responses := make([]UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, ToUserResponse(&users[i]))
	}
	return responses
}
