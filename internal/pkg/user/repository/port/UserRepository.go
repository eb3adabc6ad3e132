package repository

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no user exists for the given id.
var ErrNotFound = errors.New("user repository: not found")

// Profile is the public slice of a user account shown next to a conversation.
// Accounts themselves are owned by the user service; the chat core only reads.
type Profile struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName,omitempty"`
	Image     string `json:"image,omitempty"`
	District  string `json:"district,omitempty"`
	Area      string `json:"area,omitempty"`
}

// UserRepository resolves public profiles for conversation-list display.
type UserRepository interface {
	GetProfile(ctx context.Context, userID string) (*Profile, error)
}
