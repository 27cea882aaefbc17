package janitor

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/rezl/SubmissionStatementBot/matchers"
	"github.com/rezl/SubmissionStatementBot/reddit"
)

// Prompts that survive this long without being resolved or flagged are
// treated as stable and dropped from tracking without removal.
const monitoredReplyMaxAge = 24 * time.Hour

// checkOnTopic nudges posters whose submission statement never mentions any
// of the community's subject keywords. It runs only while the statement
// window is still open, and it always backs off once a moderator approves
// the post or the statement is edited on topic.
func (j *Janitor) checkOnTopic(ctx context.Context, tr *Tracker, post *Post, ss *reddit.Comment, verdict Verdict) error {
	s := tr.Settings
	if !s.OnTopicReminder || len(s.OnTopicKeywords) == 0 || s.OnTopicResponse == "" {
		return nil
	}
	if verdict == Missing {
		return nil
	}

	var prompt *reddit.Comment
	for _, r := range ss.Replies {
		if r.Author == j.botUser && strings.Contains(r.Body, OnTopicPromptMarker) {
			prompt = r
			break
		}
	}
	// A removed prompt is a settled false positive. Reposting would re-nag
	// a poster the community already vindicated.
	if prompt != nil && prompt.Removed {
		tr.Untrack(prompt.Fullname)
		return nil
	}

	onTopic := matchers.ContainsAnyKeyword(ss.Body, s.OnTopicKeywords)
	switch {
	case post.ModeratorApproved():
		return j.resolvePrompt(ctx, tr, prompt, "post approved")
	case onTopic:
		return j.resolvePrompt(ctx, tr, prompt, "statement on topic")
	case prompt != nil && prompt.Score < s.OnTopicRemovalScore:
		return j.resolvePrompt(ctx, tr, prompt, "prompt voted down")
	case prompt != nil && prompt.Score > s.OnTopicReportScore:
		if prompt.ReportedBy(j.botUser) {
			return nil
		}
		return errors.Wrap(j.actions.ReportContent(ctx, prompt.Fullname, reasonPromptUpvoted), "report on-topic prompt")
	case prompt == nil:
		j.logger.Info("posting on-topic prompt", "post", post.Info.Permalink)
		created, err := j.actions.ReplyToContent(ctx, ss.Fullname, onTopicPromptText(s, ss), reddit.ReplyOptions{})
		if err != nil {
			return errors.Wrap(err, "post on-topic prompt")
		}
		if created != nil && s.TrackOnTopicReplies {
			tr.Track(created.Fullname)
		}
	}
	return nil
}

// resolvePrompt removes an outstanding prompt, if any, and stops tracking
// it. The concern it raised is considered settled.
func (j *Janitor) resolvePrompt(ctx context.Context, tr *Tracker, prompt *reddit.Comment, note string) error {
	if prompt == nil {
		return nil
	}
	if err := j.actions.RemoveComment(ctx, prompt.Fullname, note); err != nil {
		return errors.Wrap(err, "remove on-topic prompt")
	}
	tr.Untrack(prompt.Fullname)
	return nil
}

// ageMonitoredReplies re-evaluates every tracked prompt against current
// remote state. Each prompt leaves tracking exactly once: when its comment
// or post disappears, when community score or post approval resolves it, or
// when it ages out untouched.
func (j *Janitor) ageMonitoredReplies(ctx context.Context, tr *Tracker) {
	s := tr.Settings
	for _, fullname := range tr.Monitored() {
		comment, err := j.src.Comment(ctx, fullname)
		if err != nil {
			j.reportError(ctx, errors.Wrapf(err, "fetch monitored reply %s", fullname))
			continue
		}
		if comment == nil || comment.Removed || comment.Deleted {
			tr.Untrack(fullname)
			continue
		}
		if comment.Score < s.OnTopicRemovalScore {
			if err := j.actions.RemoveComment(ctx, fullname, "prompt voted down"); err != nil {
				j.reportError(ctx, errors.Wrapf(err, "remove monitored reply %s", fullname))
				continue
			}
			tr.Untrack(fullname)
			continue
		}

		parent, err := j.src.PostInfo(ctx, comment.PostFullname)
		if err != nil {
			j.reportError(ctx, errors.Wrapf(err, "fetch parent of monitored reply %s", fullname))
			continue
		}
		if parent == nil || parent.Removed {
			tr.Untrack(fullname)
			continue
		}
		if parent.Approved {
			if err := j.actions.RemoveComment(ctx, fullname, "post approved"); err != nil {
				j.reportError(ctx, errors.Wrapf(err, "remove monitored reply %s", fullname))
				continue
			}
			tr.Untrack(fullname)
			continue
		}

		if j.now().Sub(comment.Created) > monitoredReplyMaxAge {
			// stable and accepted; leave the comment up
			tr.Untrack(fullname)
		}
	}
	monitoredReplies.WithLabelValues(tr.Subreddit).Set(float64(tr.MonitoredCount()))
}
