package transport

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/fastygo/questboard/domain"
)

// Envelope is the standard API response wrapper used for both success and error payloads.
type Envelope struct {
	Status string      `json:"status"`
	Code   string      `json:"code,omitempty"`
	Data   interface{} `json:"data,omitempty"`
	Error  interface{} `json:"error,omitempty"`
	Meta   interface{} `json:"meta,omitempty"`
}

// NewSuccess returns a success envelope.
func NewSuccess(data interface{}, meta interface{}) Envelope {
	return Envelope{
		Status: "success",
		Data:   data,
		Meta:   meta,
	}
}

// NewError returns an error envelope with optional metadata.
func NewError(code string, err interface{}, meta interface{}) Envelope {
	return Envelope{
		Status: "error",
		Code:   code,
		Error:  err,
		Meta:   meta,
	}
}

// String returns the JSON representation (best-effort) for logging purposes.
func (e Envelope) String() string {
	out, err := json.Marshal(e)
	if err != nil {
		return "{}"
	}
	return string(out)
}

// CompletionResponse is returned by the completion endpoint. Message is the
// celebratory toast text and is empty when nothing was awarded.
type CompletionResponse struct {
	Task    *domain.Task      `json:"task"`
	Applied bool              `json:"applied"`
	Reward  domain.Reward     `json:"reward"`
	Stats   *domain.UserStats `json:"stats,omitempty"`
	Message string            `json:"message,omitempty"`
}

// ProgressResponse carries the recent-history window, oldest day first.
type ProgressResponse struct {
	Days   []domain.DailyProgress `json:"days"`
	Totals domain.Reward          `json:"totals"`
}

func NewCompletionResponse(c *domain.Completion) CompletionResponse {
	resp := CompletionResponse{
		Task:    c.Task,
		Applied: c.Applied,
		Reward:  c.Reward,
		Stats:   c.Stats,
	}
	if c.Applied {
		resp.Message = fmt.Sprintf("+%d Bonus Point • +%d XP", c.Reward.BonusPoints, c.Reward.XP)
	}
	return resp
}

func NewProgressResponse(days []domain.DailyProgress) ProgressResponse {
	var totals domain.Reward
	for _, d := range days {
		totals = totals.Add(domain.Reward{BonusPoints: d.BonusPoints, XP: d.XP})
	}
	return ProgressResponse{Days: days, Totals: totals}
}

// SessionResponse is returned by login and refresh.
type SessionResponse struct {
	SessionID string    `json:"session_id"`
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
	ExpiresIn int64     `json:"expires_in"`
}

func NewSessionResponse(s *domain.Session, now time.Time) SessionResponse {
	return SessionResponse{
		SessionID: s.ID,
		UserID:    s.UserID,
		ExpiresAt: s.ExpiresAt,
		ExpiresIn: int64(s.TTL(now) / time.Second),
	}
}
