package transport

import (
	"strings"
	"testing"
	"time"

	"github.com/fastygo/questboard/domain"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{name: "valid title", body: `{"title":"Water plants"}`},
		{name: "missing title", body: `{}`, wantErr: true},
		{name: "title too long", body: `{"title":"` + strings.Repeat("x", 501) + `"}`, wantErr: true},
		{name: "malformed json", body: `{"title":`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req TaskRequest
			err := Decode([]byte(tt.body), &req)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Decode() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDecodeProfile(t *testing.T) {
	var req ProfileUpdateRequest
	if err := Decode([]byte(`{"email":"not-an-email"}`), &req); err == nil {
		t.Fatal("expected invalid email to be rejected")
	}
	if err := Decode([]byte(`{"email":"ada@example.com","display_name":"Ada"}`), &req); err != nil {
		t.Fatalf("valid profile rejected: %v", err)
	}
}

func TestNewCompletionResponse(t *testing.T) {
	applied := NewCompletionResponse(&domain.Completion{
		Task:    &domain.Task{ID: "t1", Completed: true},
		Reward:  domain.DefaultReward,
		Applied: true,
	})
	if applied.Message != "+1 Bonus Point • +10 XP" {
		t.Fatalf("message = %q", applied.Message)
	}

	noop := NewCompletionResponse(&domain.Completion{Task: &domain.Task{ID: "t1", Completed: true}})
	if noop.Message != "" || noop.Applied {
		t.Fatalf("no-op response = %+v", noop)
	}
}

func TestNewProgressResponse(t *testing.T) {
	resp := NewProgressResponse([]domain.DailyProgress{
		{Date: "2024-03-09", BonusPoints: 1, XP: 10},
		{Date: "2024-03-10", BonusPoints: 2, XP: 20},
	})
	if resp.Totals != (domain.Reward{BonusPoints: 3, XP: 30}) || len(resp.Days) != 2 {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestNewSessionResponse(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	session := domain.NewSession("s1", "u1", now, 90*time.Minute)

	resp := NewSessionResponse(session, now.Add(30*time.Minute))
	if resp.SessionID != "s1" || resp.UserID != "u1" {
		t.Fatalf("unexpected response %+v", resp)
	}
	if resp.ExpiresIn != 3600 {
		t.Fatalf("expires_in = %d, want 3600", resp.ExpiresIn)
	}
	if got := NewSessionResponse(session, now.Add(2*time.Hour)); got.ExpiresIn != 0 {
		t.Fatalf("expired session expires_in = %d", got.ExpiresIn)
	}
}
