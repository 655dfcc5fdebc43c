package internal

import "github.com/1752rissy/enterate/internal/models"

// -- Request data -----------------------------------------------------------------------------------------------------

// EventFilter narrows down an event listing
type EventFilter struct {
	// Matched against title, description and location ignoring case and accents
	Search string
	// Exact category name; empty matches all
	Category string
}

// RegisterRequest is sent when a new account is created with a password
type RegisterRequest struct {
	Name            string `json:"name" validate:"required,max=100"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
}

// LoginRequest is sent when signing in with e-mail and password
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// GoogleLoginRequest carries the ID token the client got from Google
type GoogleLoginRequest struct {
	IDToken string `json:"idToken" validate:"required"`
}

// CommentRequest is a new comment on an event
type CommentRequest struct {
	EventID string `json:"-"`
	Content string `json:"content" validate:"required,max=1000"`
}

// RoleRequest asks for an elevated role
type RoleRequest struct {
	Role models.Role `json:"role" validate:"required,oneof=moderator admin"`
}

// InteractionRequest changes a like or an attendance of the current user
type InteractionRequest struct {
	EventID string
	Kind    models.InteractionKind
	Present bool
}

// AwardRequest confirms the attendance of a user and grants the event's points
type AwardRequest struct {
	EventID string
	UserID  string
}
