package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role distinguishes citizens from administrators.
type Role string

const (
	RoleCitizen Role = "citizen"
	RoleAdmin   Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleCitizen || r == RoleAdmin
}

// User represents a registered citizen or administrator.
type User struct {
	ID           string    `json:"_id" bson:"_id" gorm:"type:char(36);primaryKey"`
	Fullname     string    `json:"fullname" bson:"fullname" gorm:"size:255;not null;default:''"`
	Email        string    `json:"email" bson:"email" gorm:"uniqueIndex;size:255;not null"`
	PasswordHash string    `json:"-" bson:"password" gorm:"size:255;not null"` // Never expose in JSON
	Role         Role      `json:"role" bson:"role" gorm:"type:varchar(20);not null;default:'citizen';index"`
	DepartmentID *string   `json:"department,omitempty" bson:"department,omitempty" gorm:"type:char(36);index"`
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time `json:"-" bson:"updatedAt"`
}

// BeforeCreate sets UUID before creating the record.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// IsAdmin reports whether the stored role is admin.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
