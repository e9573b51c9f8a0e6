package domain

import "time"

// User models a registered account. PromptIDs is a denormalized back-reference
// list of prompts the user authored; it is mutated exactly when a prompt is
// created or deleted, never independently.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Avatar       string    `json:"avatar,omitempty"`
	Bio          string    `json:"bio,omitempty"`
	PromptIDs    []string  `json:"prompt_ids"`
	CreatedAt    time.Time `json:"created_at"`
}
