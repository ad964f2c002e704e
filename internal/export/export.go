package export

import (
	"context"
	"time"
)

// Record is one appended row summarizing a completed session.
type Record struct {
	LoginTime       time.Time
	LogoutTime      time.Time
	Identity        string
	DurationMinutes int
	LoginCount      int
	Transcript      string
}

// Recorder abstracts the tabular sink for session records. Implementations
// must append exactly one row per call or fail as a whole; there is no
// partial-success state.
type Recorder interface {
	// CountLogins returns the number of rows already recorded for identity.
	CountLogins(ctx context.Context, identity string) (int, error)
	Append(ctx context.Context, rec Record) error
}

// DurationMinutes returns the whole minutes between login and logout,
// clamped at zero.
func DurationMinutes(login, logout time.Time) int {
	d := logout.Sub(login)
	if d < 0 {
		return 0
	}
	return int(d.Minutes())
}

// NextLoginCount is best-effort: when the prior count cannot be read the
// session still exports, counted as the first login.
func NextLoginCount(ctx context.Context, r Recorder, identity string) int {
	prior, err := r.CountLogins(ctx, identity)
	if err != nil {
		return 1
	}
	return prior + 1
}
