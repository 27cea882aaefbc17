package janitor

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/pkg/errors"

	"github.com/rezl/SubmissionStatementBot/reddit"
	"github.com/rezl/SubmissionStatementBot/settings"
)

// Source is the read-only platform surface the janitor consumes.
type Source interface {
	NewPosts(ctx context.Context, subreddit string) ([]*reddit.Post, error)
	UnmoderatedPosts(ctx context.Context, subreddit string) ([]*reddit.Post, error)
	Comments(ctx context.Context, subreddit, postID string) ([]*reddit.Comment, error)
	Comment(ctx context.Context, fullname string) (*reddit.Comment, error)
	PostInfo(ctx context.Context, fullname string) (*reddit.Post, error)
}

// Dispatcher issues side-effecting moderation calls. The concrete
// implementation throttles, retries, and honors dry-run mode.
type Dispatcher interface {
	ReplyToContent(ctx context.Context, parentFullname, body string, opts reddit.ReplyOptions) (*reddit.Comment, error)
	RemoveContent(ctx context.Context, fullname, externalReason, internalNote string) error
	RemoveComment(ctx context.Context, fullname, internalNote string) error
	ReportContent(ctx context.Context, fullname, reason string) error
	EditContent(ctx context.Context, fullname, body string) error
}

// AlertSink surfaces unexpected failures to moderators. Best-effort only.
type AlertSink interface {
	SendErrorMessage(ctx context.Context, msg string)
}

// Janitor drives the whole enforcement lifecycle for posts. It keeps no
// per-post state between polls: the bot's own prior comments on the remote
// side are the record of what was already handled, which makes repeated
// evaluation and process restarts safe.
type Janitor struct {
	logger  *slog.Logger
	src     Source
	actions Dispatcher
	alerts  AlertSink
	botUser string
	now     func() time.Time
}

func New(logger *slog.Logger, src Source, actions Dispatcher, alerts AlertSink, botUser string) *Janitor {
	return &Janitor{
		logger:  logger,
		src:     src,
		actions: actions,
		alerts:  alerts,
		botUser: botUser,
		now:     time.Now,
	}
}

// HandlePost runs one full evaluation of a post against its subreddit's
// settings. The verdict is recomputed from current remote state; prior bot
// comments gate every action so a second run against unchanged remote state
// issues nothing.
func (j *Janitor) HandlePost(ctx context.Context, tr *Tracker, post *Post) error {
	s := tr.Settings
	logger := j.logger.With("subreddit", tr.Subreddit, "post", post.Info.Permalink)
	postsChecked.WithLabelValues(tr.Subreddit).Inc()

	if post.Removed() {
		return nil
	}

	// The low-effort gate runs first and never waits for the time limit.
	// An approved post is a moderator's explicit call, so it is exempt.
	if !post.ModeratorApproved() && post.HasLowEffortFlair(s) && !post.SubmittedDuringCasualWindow(s.CasualWindow) {
		logger.Info("removing low effort post outside casual window", "flair", post.Info.FlairText)
		return j.actions.RemoveContent(ctx, post.Info.Fullname, s.CasualHourRemovalReason, "low effort flair outside casual hours")
	}

	// Self posts and excluded flairs carry no statement requirement.
	if post.Info.IsSelf || post.HasExcludedFlair(s) {
		return j.stampFlairPrefix(ctx, s, post)
	}

	// An existing pin means the post was fully handled on a prior poll.
	if pin := post.FindCommentContaining(s.BotPrefix, false); pin != nil {
		if pin.Author == j.botUser {
			return j.reconcilePin(ctx, s, post, pin)
		}
		return nil
	}

	// A link post can satisfy the requirement with its own inline text.
	ssOptional := false
	if inline := strings.TrimSpace(post.Info.SelfText); inline != "" {
		if utf8.RuneCountInString(inline) >= s.SubmissionStatementMinLength {
			ssOptional = true
		} else if post.FindCommentContaining(InlineGuidanceMarker, false) == nil {
			logger.Info("posting inline body guidance")
			if _, err := j.actions.ReplyToContent(ctx, post.Info.Fullname, inlineGuidanceText(s), reddit.ReplyOptions{}); err != nil {
				return errors.Wrap(err, "post inline guidance")
			}
		}
	}

	ss := post.SubmissionStatement()
	verdict := Classify(ss, s.SubmissionStatementMinLength)
	logger.Debug("evaluated post", "verdict", verdict.String(), "ss_optional", ssOptional)

	if !post.OlderThan(s.SubmissionStatementTimeLimit, j.now()) {
		if ssOptional {
			return nil
		}
		if err := j.checkOnTopic(ctx, tr, post, ss, verdict); err != nil {
			return err
		}
		return j.finalReminder(ctx, s, post, ss, verdict)
	}

	// Time limit elapsed: tidy up interim bot comments, then enforce.
	if err := j.cleanupBotComments(ctx, s, post); err != nil {
		return err
	}

	switch verdict {
	case Missing:
		if ssOptional {
			return nil
		}
		return j.enforceMissing(ctx, s, post)
	case TooShort:
		if s.PinSubmissionStatement {
			if err := j.pinStatement(ctx, s, post, ss); err != nil {
				return err
			}
		}
		if ssOptional {
			return nil
		}
		return j.enforceTooShort(ctx, s, post)
	case Valid:
		if s.PinSubmissionStatement {
			return j.pinStatement(ctx, s, post, ss)
		}
		return nil
	}
	return nil
}

func (j *Janitor) enforceMissing(ctx context.Context, s settings.Settings, post *Post) error {
	switch {
	case post.ModeratorApproved():
		if post.Info.ReportedBy(j.botUser) {
			return nil
		}
		return errors.Wrap(j.actions.ReportContent(ctx, post.Info.Fullname, reasonApprovedNoSS), "report approved post")
	case s.ReportTimeout:
		if post.Info.ReportedBy(j.botUser) {
			return nil
		}
		return errors.Wrap(j.actions.ReportContent(ctx, post.Info.Fullname, reasonTimeoutNoSS), "report timeout")
	default:
		return errors.Wrap(j.actions.RemoveContent(ctx, post.Info.Fullname, s.RemovalReason, "no submission statement"), "remove post")
	}
}

func (j *Janitor) enforceTooShort(ctx context.Context, s settings.Settings, post *Post) error {
	switch {
	case post.ModeratorApproved():
		if post.Info.ReportedBy(j.botUser) {
			return nil
		}
		return errors.Wrap(j.actions.ReportContent(ctx, post.Info.Fullname, reasonApprovedShort), "report approved post")
	case s.ReportInsufficientLength:
		if post.Info.ReportedBy(j.botUser) {
			return nil
		}
		return errors.Wrap(j.actions.ReportContent(ctx, post.Info.Fullname, reasonTooShort), "report short statement")
	default:
		return errors.Wrap(j.actions.RemoveContent(ctx, post.Info.Fullname, s.RemovalReason, "submission statement too short"), "remove post")
	}
}

// pinStatement posts the distinguished, locked quote of the submission
// statement. Reaching this with no statement resolved is an invalid state.
func (j *Janitor) pinStatement(ctx context.Context, s settings.Settings, post *Post, ss *reddit.Comment) error {
	if ss == nil {
		return errors.Errorf("no submission statement to pin on %s", post.Info.Permalink)
	}
	text := s.PinText(ss.Author, ss.Body, ss.Permalink)
	_, err := j.actions.ReplyToContent(ctx, post.Info.Fullname, text, reddit.ReplyOptions{Pin: true, Lock: true})
	return errors.Wrap(err, "pin submission statement")
}

// reconcilePin keeps a bot-authored pin in sync with the statement it
// quotes, so a poster editing their statement is reflected in the pin.
func (j *Janitor) reconcilePin(ctx context.Context, s settings.Settings, post *Post, pin *reddit.Comment) error {
	ss := post.SubmissionStatement()
	if ss == nil {
		return nil
	}
	want := s.PinText(ss.Author, ss.Body, ss.Permalink)
	if pin.Body == want {
		return nil
	}
	j.logger.Info("reconciling edited submission statement", "post", post.Info.Permalink)
	return errors.Wrap(j.actions.EditContent(ctx, pin.Fullname, want), "reconcile pin")
}

// stampFlairPrefix leaves the configured one-time prefix comment on posts
// whose flair has one.
func (j *Janitor) stampFlairPrefix(ctx context.Context, s settings.Settings, post *Post) error {
	if post.Info.FlairText == "" || len(s.FlairPrefixText) == 0 {
		return nil
	}
	text, ok := s.FlairPrefixText[strings.ToLower(post.Info.FlairText)]
	if !ok || text == "" {
		return nil
	}
	if post.FindCommentContaining(text, false) != nil {
		return nil
	}
	_, err := j.actions.ReplyToContent(ctx, post.Info.Fullname, text, reddit.ReplyOptions{Pin: true})
	return errors.Wrap(err, "stamp flair prefix")
}

// finalReminder fires once, in the second half of the statement window, when
// the statement is still missing or too short.
func (j *Janitor) finalReminder(ctx context.Context, s settings.Settings, post *Post, ss *reddit.Comment, verdict Verdict) error {
	if !s.FinalReminder {
		return nil
	}
	if !post.OlderThan(s.SubmissionStatementTimeLimit/2, j.now()) {
		return nil
	}
	if post.FindCommentContaining(FinalReminderMarker, false) != nil {
		return nil
	}

	var text string
	switch verdict {
	case Valid:
		return nil
	case Missing:
		text = finalReminderMissingText(s)
	case TooShort:
		text = finalReminderTooShortText(s, ss)
	}
	j.logger.Info("posting final reminder", "post", post.Info.Permalink, "verdict", verdict.String())
	_, err := j.actions.ReplyToContent(ctx, post.Info.Fullname, text, reddit.ReplyOptions{})
	return errors.Wrap(err, "post final reminder")
}

// cleanupBotComments removes interim bot comments (reminders, guidance)
// before enforcement, leaving any statement pin in place.
func (j *Janitor) cleanupBotComments(ctx context.Context, s settings.Settings, post *Post) error {
	for _, c := range post.Comments {
		if c.Author != j.botUser || c.Removed || c.Deleted {
			continue
		}
		if strings.Contains(c.Body, s.BotPrefix) {
			continue
		}
		if err := j.actions.RemoveComment(ctx, c.Fullname, "interim bot comment"); err != nil {
			return errors.Wrap(err, "clean up bot comment")
		}
	}
	return nil
}

func (j *Janitor) reportError(ctx context.Context, err error) {
	j.logger.Error("janitor error", "error", err)
	j.alerts.SendErrorMessage(ctx, err.Error())
}
