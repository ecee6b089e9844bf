package entity

// Role represents a user role in the system
type Role struct {
	ID          int    `gorm:"primaryKey;autoIncrement" json:"id"`
	RoleName    string `gorm:"type:varchar(50);uniqueIndex;not null" json:"role_name"`
	Description string `gorm:"type:text" json:"description,omitempty"`
}

func (Role) TableName() string {
	return "roles"
}

// Role ID constants
const (
	RoleIDEmployee = 1
	RoleIDEmployer = 2
)

// RoleNames constants
const (
	RoleEmployee = "employee"
	RoleEmployer = "employer"
)

// RoleName returns the role name for a role ID
func RoleName(roleID int) string {
	switch roleID {
	case RoleIDEmployer:
		return RoleEmployer
	default:
		return RoleEmployee
	}
}
