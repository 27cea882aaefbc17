package janitor

import (
	"slices"
	"time"

	"github.com/rezl/SubmissionStatementBot/settings"
)

// Tracker binds one subreddit to its settings and the small amount of
// mutable state that survives between cycles: the stale-check timer and the
// identifiers of on-topic prompts still being monitored. It is touched only
// by the single processing goroutine.
type Tracker struct {
	Subreddit string
	Settings  settings.Settings

	timeUnmoderatedLastChecked time.Time
	monitored                  []string
}

func NewTracker(subreddit string, s settings.Settings) *Tracker {
	return &Tracker{
		Subreddit: subreddit,
		Settings:  s,
	}
}

// Track starts monitoring a bot comment by fullname. Duplicates are ignored
// so a reply is tracked at most once.
func (t *Tracker) Track(fullname string) {
	if slices.Contains(t.monitored, fullname) {
		return
	}
	t.monitored = append(t.monitored, fullname)
}

func (t *Tracker) Untrack(fullname string) {
	t.monitored = slices.DeleteFunc(t.monitored, func(id string) bool {
		return id == fullname
	})
}

// Monitored returns a copy of the tracked fullnames, safe to iterate while
// untracking.
func (t *Tracker) Monitored() []string {
	return slices.Clone(t.monitored)
}

func (t *Tracker) MonitoredCount() int {
	return len(t.monitored)
}

// ShouldCheckUnmoderated rate-limits the stale-post sweep to once per
// configured frequency.
func (t *Tracker) ShouldCheckUnmoderated(now time.Time) bool {
	return now.Sub(t.timeUnmoderatedLastChecked) >= t.Settings.StaleCheckFrequency
}

func (t *Tracker) MarkUnmoderatedChecked(now time.Time) {
	t.timeUnmoderatedLastChecked = now
}
