package converter

import (
	"wellness-appointments/internal/delivery/dto"
	"wellness-appointments/internal/domain/entity"
)

// UserToResponse converts a User entity to UserResponse DTO.
// Falls back to the role id when Role is not preloaded.
func UserToResponse(user *entity.User) *dto.UserResponse {
	if user == nil {
		return nil
	}

	roleName := user.Role.RoleName
	if roleName == "" {
		roleName = entity.RoleName(user.RoleID)
	}

	return &dto.UserResponse{
		ID:         user.ID,
		Email:      user.Email,
		FullName:   user.FullName,
		Department: user.Department,
		Role:       roleName,
		CreatedAt:  user.CreatedAt,
		UpdatedAt:  user.UpdatedAt,
	}
}
