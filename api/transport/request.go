package transport

import (
	"encoding/json"
	"sync"

	"github.com/go-playground/validator/v10"
)

type ProfileUpdateRequest struct {
	Email       string            `json:"email" validate:"omitempty,email,max=320"`
	DisplayName string            `json:"display_name" validate:"max=100"`
	Meta        map[string]string `json:"metadata" validate:"max=20"`
}

type TaskRequest struct {
	Title string `json:"title" validate:"required,max=500"`
}

// TaskListQuery holds the query string of GET /tasks.
type TaskListQuery struct {
	Completed *bool
	Limit     int `validate:"gte=0,lte=100"`
	Offset    int `validate:"gte=0"`
}

type AuthLoginRequest struct {
	UserID string `json:"user_id" validate:"required"`
	TTL    int    `json:"ttl_seconds" validate:"gte=0"`
}

type RefreshRequest struct {
	SessionID string `json:"session_id" validate:"required"`
	TTL       int    `json:"ttl_seconds" validate:"gte=0"`
}

type LogoutRequest struct {
	SessionID string `json:"session_id" validate:"required"`
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Decode unmarshals body into dst and validates its struct tags.
func Decode(body []byte, dst interface{}) error {
	if err := json.Unmarshal(body, dst); err != nil {
		return err
	}
	return Validate(dst)
}

// Validate checks the struct tags of v.
func Validate(v interface{}) error {
	return validatorInstance().Struct(v)
}
