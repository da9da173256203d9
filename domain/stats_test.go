package domain

import (
	"strings"
	"testing"
	"time"
)

func TestWindowDays(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}

	tests := []struct {
		name  string
		now   time.Time
		loc   *time.Location
		n     int
		first string
		last  string
	}{
		{
			name:  "utc midday",
			now:   time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC),
			loc:   time.UTC,
			n:     7,
			first: "2024-03-04",
			last:  "2024-03-10",
		},
		{
			name:  "crosses month boundary",
			now:   time.Date(2024, 3, 2, 8, 0, 0, 0, time.UTC),
			loc:   time.UTC,
			n:     7,
			first: "2024-02-25",
			last:  "2024-03-02",
		},
		{
			name:  "late utc evening is already tomorrow in berlin",
			now:   time.Date(2024, 6, 30, 23, 30, 0, 0, time.UTC),
			loc:   berlin,
			n:     7,
			first: "2024-06-25",
			last:  "2024-07-01",
		},
		{
			name:  "spans dst change",
			now:   time.Date(2024, 3, 31, 10, 0, 0, 0, berlin),
			loc:   berlin,
			n:     7,
			first: "2024-03-25",
			last:  "2024-03-31",
		},
		{
			name:  "nil location means utc",
			now:   time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC),
			loc:   nil,
			n:     7,
			first: "2024-01-01",
			last:  "2024-01-07",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			days := WindowDays(tt.now, tt.loc, tt.n)
			if len(days) != tt.n {
				t.Fatalf("expected %d days, got %d", tt.n, len(days))
			}
			if days[0] != tt.first || days[len(days)-1] != tt.last {
				t.Fatalf("window = %v, want %s..%s", days, tt.first, tt.last)
			}
			for i := 1; i < len(days); i++ {
				if days[i] <= days[i-1] {
					t.Fatalf("days not strictly ascending: %v", days)
				}
			}
		})
	}
}

func TestWindowDaysNonPositive(t *testing.T) {
	if days := WindowDays(time.Now(), time.UTC, 0); days != nil {
		t.Fatalf("expected nil window, got %v", days)
	}
}

func TestFillWindow(t *testing.T) {
	days := WindowDays(time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC), time.UTC, ProgressWindowDays)

	t.Run("no rows", func(t *testing.T) {
		window := FillWindow("u1", days, nil)
		if len(window) != ProgressWindowDays {
			t.Fatalf("expected %d entries, got %d", ProgressWindowDays, len(window))
		}
		for i, entry := range window {
			if entry.Date != days[i] {
				t.Fatalf("entry %d date = %s, want %s", i, entry.Date, days[i])
			}
			if entry.BonusPoints != 0 || entry.XP != 0 {
				t.Fatalf("entry %d expected zero values, got %+v", i, entry)
			}
			if entry.UserID != "u1" {
				t.Fatalf("entry %d user = %q", i, entry.UserID)
			}
		}
	})

	t.Run("more rows than days", func(t *testing.T) {
		var rows []DailyProgress
		for d := 1; d <= 10; d++ {
			rows = append(rows, DailyProgress{
				UserID:      "u1",
				Date:        time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC).Format(DateLayout),
				BonusPoints: d,
				XP:          d * 10,
			})
		}
		window := FillWindow("u1", days, rows)
		if len(window) != ProgressWindowDays {
			t.Fatalf("expected %d entries, got %d", ProgressWindowDays, len(window))
		}
		if window[0].Date != "2024-03-04" || window[0].BonusPoints != 4 {
			t.Fatalf("unexpected first entry %+v", window[0])
		}
		if window[6].Date != "2024-03-10" || window[6].XP != 100 {
			t.Fatalf("unexpected last entry %+v", window[6])
		}
	})

	t.Run("sparse rows", func(t *testing.T) {
		rows := []DailyProgress{{UserID: "u1", Date: "2024-03-08", BonusPoints: 3, XP: 20}}
		window := FillWindow("u1", days, rows)
		var got []string
		for _, entry := range window {
			if entry.BonusPoints > 0 {
				got = append(got, entry.Date)
			}
		}
		if strings.Join(got, ",") != "2024-03-08" {
			t.Fatalf("non-zero days = %v", got)
		}
	})
}

func TestDay(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	at := time.Date(2024, 5, 1, 20, 0, 0, 0, time.UTC)
	if got := Day(at, time.UTC); got != "2024-05-01" {
		t.Fatalf("utc day = %s", got)
	}
	if got := Day(at, tokyo); got != "2024-05-02" {
		t.Fatalf("tokyo day = %s", got)
	}
}

func TestUserStatsTotals(t *testing.T) {
	var nilStats *UserStats
	if !nilStats.Totals().IsZero() {
		t.Fatal("nil stats should have zero totals")
	}
	stats := &UserStats{TotalBonusPoints: 3, TotalXP: 20}
	if got := stats.Totals().Add(DefaultReward); got != (Reward{BonusPoints: 4, XP: 30}) {
		t.Fatalf("totals + default = %+v", got)
	}
}
