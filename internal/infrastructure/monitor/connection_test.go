package monitor

import (
	"context"
	"errors"
	"testing"
)

func TestRefresh(t *testing.T) {
	healthy := func(context.Context) error { return nil }
	failing := func(context.Context) error { return errors.New("connection refused") }

	tests := []struct {
		name       string
		probes     Probes
		wantOnline bool
		wantBuffer bool
		wantSize   int
	}{
		{
			name: "all healthy",
			probes: Probes{
				Driver:   "sqlite",
				Database: healthy,
				Redis:    healthy,
				Buffer:   func() (int, error) { return 3, nil },
			},
			wantOnline: true,
			wantBuffer: true,
			wantSize:   3,
		},
		{
			name:       "database down",
			probes:     Probes{Database: failing, Redis: healthy},
			wantOnline: false,
		},
		{
			name:       "missing probes",
			probes:     Probes{},
			wantOnline: false,
		},
		{
			name: "buffer error",
			probes: Probes{
				Database: healthy,
				Redis:    healthy,
				Buffer:   func() (int, error) { return 0, errors.New("closed") },
			},
			wantOnline: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New(tt.probes, 0, nil)
			m.Refresh()
			status := m.GetStatus()
			if m.IsOnline() != tt.wantOnline {
				t.Fatalf("online = %v, want %v (%+v)", m.IsOnline(), tt.wantOnline, status)
			}
			if status.Buffer.Online != tt.wantBuffer || status.Pending != tt.wantSize {
				t.Fatalf("buffer = %+v/%d", status.Buffer, status.Pending)
			}
			if !status.Database.Online && status.Database.Error == "" {
				t.Fatalf("offline database without error: %+v", status.Database)
			}
			if status.Driver != tt.probes.Driver || status.LastCheck.IsZero() {
				t.Fatalf("unexpected status %+v", status)
			}
		})
	}
}

func TestStopIsIdempotent(t *testing.T) {
	m := New(Probes{}, 0, nil)
	m.Stop()
	m.Stop()
}
