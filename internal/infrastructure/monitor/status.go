package monitor

import "time"

// Dependency is the outcome of the last probe against one backing service.
type Dependency struct {
	Online bool   `json:"online"`
	Error  string `json:"error,omitempty"`
}

// Status is a point-in-time snapshot of every watched dependency.
type Status struct {
	Driver    string     `json:"driver"`
	Database  Dependency `json:"database"`
	Redis     Dependency `json:"redis"`
	Buffer    Dependency `json:"buffer"`
	Pending   int        `json:"pending"`
	LastCheck time.Time  `json:"last_check"`
}

// Healthy reports whether the store and Redis both answered.
func (s Status) Healthy() bool {
	return s.Database.Online && s.Redis.Online
}

func dependency(err error) Dependency {
	if err != nil {
		return Dependency{Error: err.Error()}
	}
	return Dependency{Online: true}
}
