package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type UserRole string

const (
	RoleTeacher  UserRole = "teacher"
	RoleObserver UserRole = "observer"
	RoleAdmin    UserRole = "admin"
)

// User mirrors the staff record held by the identity provider. Role and
// organisation fields are resolved from the session token, not stored here.
type User struct {
	ID       string   `json:"id" gorm:"primaryKey;size:255"`
	FullName string   `json:"full_name" gorm:"not null;size:100"`
	Email    string   `json:"email" gorm:"uniqueIndex;not null;size:255"`
	Role     UserRole `json:"role" gorm:"-"`

	// Staff profile
	Department *string `json:"department" gorm:"size:100"`
	Subjects   *string `json:"subjects" gorm:"size:255"`

	// Settings
	Timezone    string         `json:"timezone" gorm:"-"`
	Language    string         `json:"language" gorm:"default:en;size:10"`
	Preferences datatypes.JSON `json:"preferences" gorm:"-"`

	IsActive    bool       `json:"is_active" gorm:"default:true"`
	LastLoginAt *time.Time `json:"last_login_at"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (User) TableName() string {
	return "users"
}
