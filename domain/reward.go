package domain

// Reward is the (bonus points, experience) pair granted for a completed task.
type Reward struct {
	BonusPoints int `json:"bonus_points"`
	XP          int `json:"xp"`
}

// DefaultReward is the fixed schedule applied to every completion.
var DefaultReward = Reward{BonusPoints: 1, XP: 10}

func (r Reward) IsZero() bool {
	return r.BonusPoints == 0 && r.XP == 0
}

// Add returns the component-wise sum of both rewards.
func (r Reward) Add(other Reward) Reward {
	return Reward{
		BonusPoints: r.BonusPoints + other.BonusPoints,
		XP:          r.XP + other.XP,
	}
}

// Completion is the outcome of completing a task.
// Applied is false when the task had already been completed and nothing was written.
type Completion struct {
	Task    *Task      `json:"task"`
	Reward  Reward     `json:"reward"`
	Applied bool       `json:"applied"`
	Stats   *UserStats `json:"stats,omitempty"`
}
