package janitor

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/rezl/SubmissionStatementBot/reddit"
)

// PollInterval derives the cycle interval from the trackers' configured
// check frequencies. The tightest frequency wins so no subreddit is polled
// slower than its settings ask for.
func PollInterval(trackers []*Tracker) time.Duration {
	interval := time.Duration(0)
	for _, tr := range trackers {
		f := tr.Settings.PostCheckFrequency
		if f > 0 && (interval == 0 || f < interval) {
			interval = f
		}
	}
	if interval == 0 {
		interval = 5 * time.Minute
	}
	return interval
}

// Run polls forever until the context is cancelled. One cycle processes
// every tracker sequentially; a slow cycle simply delays the next tick.
func (j *Janitor) Run(ctx context.Context, trackers []*Tracker, interval time.Duration) {
	j.logger.Info("starting janitor", "subreddits", len(trackers), "interval", interval.String())
	j.RunCycle(ctx, trackers)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			j.logger.Info("stopping janitor")
			return
		case <-ticker.C:
			j.RunCycle(ctx, trackers)
		}
	}
}

// RunCycle runs one polling pass over all subreddits. A failure in one
// subreddit is alerted and does not stop the others.
func (j *Janitor) RunCycle(ctx context.Context, trackers []*Tracker) {
	for _, tr := range trackers {
		if err := j.processSubreddit(ctx, tr); err != nil {
			cycleErrors.Inc()
			j.reportError(ctx, errors.Wrapf(err, "process r/%s", tr.Subreddit))
		}
	}
}

func (j *Janitor) processSubreddit(ctx context.Context, tr *Tracker) error {
	posts, err := j.fetchNewPosts(ctx, tr)
	if err != nil {
		return errors.Wrap(err, "fetch new posts")
	}
	for _, info := range posts {
		if err := j.evaluatePost(ctx, tr, info); err != nil {
			postErrors.WithLabelValues(tr.Subreddit).Inc()
			j.reportError(ctx, errors.Wrapf(err, "handle post %s", info.Permalink))
		}
	}

	// prompt aging runs every cycle, independent of new-post fetching
	j.ageMonitoredReplies(ctx, tr)

	if tr.ShouldCheckUnmoderated(j.now()) {
		tr.MarkUnmoderatedChecked(j.now())
		if err := j.handleStaleUnmoderated(ctx, tr); err != nil {
			return errors.Wrap(err, "handle stale unmoderated")
		}
	}
	return nil
}

func (j *Janitor) evaluatePost(ctx context.Context, tr *Tracker, info *reddit.Post) error {
	comments, err := j.src.Comments(ctx, tr.Subreddit, info.ID)
	if err != nil {
		return errors.Wrap(err, "fetch comments")
	}
	return j.HandlePost(ctx, tr, NewPost(info, comments))
}

// fetchNewPosts pulls the new-post feed and keeps posts young enough to
// still need attention. The feed can deliver slightly out of order, so the
// scan only stops after a run of consecutive old posts.
func (j *Janitor) fetchNewPosts(ctx context.Context, tr *Tracker) ([]*reddit.Post, error) {
	listed, err := j.src.NewPosts(ctx, tr.Subreddit)
	if err != nil {
		return nil, err
	}

	now := j.now()
	var out []*reddit.Post
	consecutiveOld := 0
	for _, p := range listed {
		if now.Sub(p.Created) > tr.Settings.PostCheckThreshold {
			consecutiveOld++
			if consecutiveOld >= tr.Settings.ConsecutiveOldPosts {
				break
			}
			continue
		}
		consecutiveOld = 0
		out = append(out, p)
	}
	return out, nil
}

// handleStaleUnmoderated reports posts that have sat in the moderation queue
// past the staleness threshold. A post already reported by the bot is
// skipped.
func (j *Janitor) handleStaleUnmoderated(ctx context.Context, tr *Tracker) error {
	if !tr.Settings.ReportStaleUnmoderated {
		return nil
	}
	posts, err := j.src.UnmoderatedPosts(ctx, tr.Subreddit)
	if err != nil {
		return errors.Wrap(err, "fetch unmoderated posts")
	}

	now := j.now()
	reason := fmt.Sprintf("This post is over %d hours old and has not been moderated. Please take a look!",
		int(tr.Settings.StaleCheckThreshold.Hours()))
	for _, p := range posts {
		if now.Sub(p.Created) < tr.Settings.StaleCheckThreshold {
			continue
		}
		if p.ReportedBy(j.botUser) {
			continue
		}
		if err := j.actions.ReportContent(ctx, p.Fullname, reason); err != nil {
			j.reportError(ctx, errors.Wrapf(err, "report stale post %s", p.Permalink))
		}
	}
	return nil
}
