package models

import (
	"time"
)

// UserRole defines allowed roles in the system
type UserRole string

const (
	RoleConsumer            UserRole = "consumer"
	RoleMarketing           UserRole = "marketing"
	RoleMarketingSupervisor UserRole = "marketing_supervisor"
	RoleBackofficeAdmin     UserRole = "backoffice_admin"
)

// Roles lists every role a user can register with.
var Roles = []UserRole{RoleConsumer, RoleMarketing, RoleMarketingSupervisor, RoleBackofficeAdmin}

// Valid reports whether r is one of the fixed roles.
func (r UserRole) Valid() bool {
	for _, role := range Roles {
		if r == role {
			return true
		}
	}
	return false
}

// IsStaff is true for every role that works on applications rather than submitting them.
func (r UserRole) IsStaff() bool {
	return r.Valid() && r != RoleConsumer
}

type User struct {
	ID           string    `json:"id" gorm:"primaryKey;size:36" bson:"_id"`
	Username     string    `json:"username" gorm:"uniqueIndex;not null" bson:"username"`
	PasswordHash string    `json:"-" gorm:"not null" bson:"password"`
	Name         string    `json:"name" gorm:"not null" bson:"name"`
	Email        string    `json:"email" gorm:"not null" bson:"email"`
	Role         UserRole  `json:"role" gorm:"not null;size:32" bson:"role"`
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`
}

// PublicUser is the user view returned to callers; it never carries the hash.
type PublicUser struct {
	ID       string   `json:"id"`
	Username string   `json:"username"`
	Name     string   `json:"name"`
	Email    string   `json:"email"`
	Role     UserRole `json:"role"`
}

func (u *User) Public() PublicUser {
	return PublicUser{
		ID:       u.ID,
		Username: u.Username,
		Name:     u.Name,
		Email:    u.Email,
		Role:     u.Role,
	}
}

// OwnerView is the minimal owner projection attached to application reads.
type OwnerView struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}
