package models

import (
	"fmt"
	"strings"
	"time"

	scrypt "github.com/elithrar/simple-scrypt"
)

// Role is the permission level of a user
type Role string

const (
	// RoleUser is a regular user that can like, attend and comment
	RoleUser Role = "user"
	// RoleModerator can additionally create and manage events and decide on role requests
	RoleModerator Role = "moderator"
	// RoleAdmin has every permission
	RoleAdmin Role = "admin"
)

// ApprovalStatus is the state of a request for an elevated role
type ApprovalStatus string

const (
	// ApprovalNone means that the user never asked for another role
	ApprovalNone ApprovalStatus = ""
	// ApprovalPending means that a moderator still has to decide
	ApprovalPending ApprovalStatus = "pending"
	// ApprovalApproved means that the requested role has been granted
	ApprovalApproved ApprovalStatus = "approved"
	// ApprovalRejected means that the request has been declined
	ApprovalRejected ApprovalStatus = "rejected"
)

// User is a person using the app
type User struct {
	ID           string `db:"id" json:"id"`
	Name         string `db:"name" json:"name"`
	Email        string `db:"email" json:"email"`
	ProfileImage string `db:"profile_image" json:"profileImage,omitempty"`
	Role         Role   `db:"role" json:"role"`
	// The role asked for in a pending or decided role request
	RequestedRole  Role           `db:"requested_role" json:"requestedRole,omitempty"`
	ApprovalStatus ApprovalStatus `db:"approval_status" json:"approvalStatus,omitempty"`
	// Empty for accounts that sign in through the identity provider only
	PasswordHash string    `db:"password_hash" json:"passwordHash,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

// NormalizeEmail brings an e-mail address into the form used for uniqueness checks
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CanModerate checks if the user may manage events and decide on role requests
func (u *User) CanModerate() bool {
	return u.Role == RoleModerator || u.Role == RoleAdmin
}

// IsAdmin checks if the user has the admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Public returns a copy of the user without any credential data
func (u User) Public() User {
	u.PasswordHash = ""
	return u
}

// SetPassword sets a new password creating a password hash from the incoming password and storing it in the user's
// PasswordHash property
func (u *User) SetPassword(pass string) error {
	hash, err := scrypt.GenerateFromPassword([]byte(pass), scrypt.DefaultParams)
	if err != nil {
		return fmt.Errorf("SetPassword: Error during password hashing: %v", err)
	}
	u.PasswordHash = string(hash)
	return nil
}

// CheckPassword checks if the given password corresponds to the hash stored in the user struct.
// Users without a password hash never match
func (u *User) CheckPassword(pass string) error {
	if u.PasswordHash == "" {
		return scrypt.ErrMismatchedHashAndPassword
	}
	return scrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(pass))
}
