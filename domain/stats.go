package domain

import "time"

// DateLayout is the calendar day format shared by storage and transport.
const DateLayout = "2006-01-02"

// ProgressWindowDays is the length of the recent-history window.
const ProgressWindowDays = 7

// UserStats holds all-time reward totals for a single user.
type UserStats struct {
	UserID           string    `json:"user_id"`
	TotalBonusPoints int       `json:"total_bonus_points"`
	TotalXP          int       `json:"total_xp"`
	LastActivityDate string    `json:"last_activity_date,omitempty"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// DailyProgress holds reward totals for one user on one calendar day.
type DailyProgress struct {
	UserID      string `json:"user_id,omitempty"`
	Date        string `json:"date"`
	BonusPoints int    `json:"bonus_points"`
	XP          int    `json:"xp"`
}

// Totals returns the stats totals as a Reward.
func (s *UserStats) Totals() Reward {
	if s == nil {
		return Reward{}
	}
	return Reward{BonusPoints: s.TotalBonusPoints, XP: s.TotalXP}
}

// EmptyStats is the zero-valued aggregate for a user with no completions yet.
func EmptyStats(userID string) *UserStats {
	return &UserStats{UserID: userID}
}

// Day formats t as a calendar day in loc.
func Day(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(DateLayout)
}

// WindowDays returns the n consecutive calendar days ending on the day of now, oldest first.
func WindowDays(now time.Time, loc *time.Location, n int) []string {
	if loc == nil {
		loc = time.UTC
	}
	if n <= 0 {
		return nil
	}
	local := now.In(loc)
	// Noon avoids DST transitions shifting the calendar day.
	anchor := time.Date(local.Year(), local.Month(), local.Day(), 12, 0, 0, 0, loc)
	days := make([]string, n)
	for i := 0; i < n; i++ {
		days[i] = anchor.AddDate(0, 0, i-(n-1)).Format(DateLayout)
	}
	return days
}

// FillWindow maps rows onto days, synthesising zero entries for missing days.
// Rows outside days are ignored; the result always has len(days) entries.
func FillWindow(userID string, days []string, rows []DailyProgress) []DailyProgress {
	byDate := make(map[string]DailyProgress, len(rows))
	for _, row := range rows {
		byDate[row.Date] = row
	}
	out := make([]DailyProgress, len(days))
	for i, day := range days {
		if row, ok := byDate[day]; ok {
			out[i] = row
			continue
		}
		out[i] = DailyProgress{UserID: userID, Date: day}
	}
	return out
}
