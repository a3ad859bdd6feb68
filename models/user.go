package models

import (
	"time"

	"gorm.io/gorm"
)

type Role string

const (
	RoleAdmin      Role = "ADMIN"
	RoleSupervisor Role = "SUPERVISOR"
	RoleOperator   Role = "OPERATOR"
)

type User struct {
	ID                 uint           `gorm:"primaryKey" json:"id"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`
	Username           string         `gorm:"uniqueIndex;not null;size:100" json:"username"`
	FullName           string         `gorm:"not null;size:200" json:"full_name"`
	PasswordHash       string         `gorm:"not null" json:"-"`
	Role               Role           `gorm:"not null;size:20" json:"role"`
	MustChangePassword bool           `gorm:"not null" json:"must_change_password"`
}

func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u *User) IsSupervisor() bool {
	return u.Role == RoleSupervisor
}

// CanModerateEntries reports whether the user may soft-delete or restore
// downtime entries and read their audit history.
func (u *User) CanModerateEntries() bool {
	return u.IsAdmin() || u.IsSupervisor()
}

func (u *User) CanManageUsers() bool {
	return u.IsAdmin()
}
