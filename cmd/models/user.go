package models

import (
	"time"

	"gorm.io/gorm"
)

// Roles recognized by the authorization policy. Every user carries exactly
// one role.
const (
	RoleAdmin      = "admin"
	RoleManager    = "manager"
	RoleFrontDesk  = "frontdesk"
	RoleTechnician = "technician"
)

func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleManager, RoleFrontDesk, RoleTechnician:
		return true
	}
	return false
}

type User struct {
	gorm.Model
	FullName              string    `gorm:"column:full_name;size:255;not null" json:"full_name"`
	Email                 string    `gorm:"column:email;size:255;uniqueIndex;not null" json:"email"`
	PasswordHash          string    `gorm:"column:password_hash;size:255;not null" json:"-"`
	Role                  string    `gorm:"column:role;size:50;not null;default:frontdesk" json:"role"`
	Active                bool      `gorm:"column:active;default:true" json:"active"`
	RefreshToken          string    `gorm:"column:refresh_token;size:255" json:"-"`
	RefreshTokenExpiredAt time.Time `gorm:"column:refresh_token_expired_at" json:"-"`
}
