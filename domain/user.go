package domain

import "time"

// User represents an authenticated player profile.
type User struct {
	ID          string            `json:"id"`
	Email       string            `json:"email,omitempty"`
	DisplayName string            `json:"display_name,omitempty"`
	Status      string            `json:"status"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

func (u *User) IsActive() bool {
	return u != nil && u.Status == UserStatusActive
}

// Profile is what a player sees about themselves: account details and all-time totals.
type Profile struct {
	User  *User      `json:"user"`
	Stats *UserStats `json:"stats"`
}
