package reddit

import (
	"context"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/pkg/errors"
	"golang.org/x/time/rate"
)

const (
	// replies longer than this are rejected by Reddit outright
	maxReplyChars = 10000

	defaultThrottle   = 5 * time.Second
	defaultMaxRetries = 3
	defaultRetryDelay = 10 * time.Second
)

// AlertSink surfaces unexpected failures to moderators out-of-band. It must
// never block or fail the calling code.
type AlertSink interface {
	SendErrorMessage(ctx context.Context, msg string)
}

// MutationAPI is the raw side-effecting surface of the platform client.
type MutationAPI interface {
	Reply(ctx context.Context, parentFullname, body string) (*Comment, error)
	Report(ctx context.Context, fullname, reason string) error
	Remove(ctx context.Context, fullname, modNote string) error
	Edit(ctx context.Context, fullname, body string) error
	Distinguish(ctx context.Context, fullname string, sticky bool) error
	Lock(ctx context.Context, fullname string) error
	IgnoreReports(ctx context.Context, fullname string) error
}

// ReplyOptions control the moderator decorations applied to a bot reply.
type ReplyOptions struct {
	Pin           bool
	Lock          bool
	IgnoreReports bool
}

// Actions wraps every side-effecting Reddit call with a shared throttle,
// fixed-delay retries for transient failures, and a dry-run switch. All
// collaborators arrive through the constructor; there is no ambient state.
type Actions struct {
	logger     *slog.Logger
	api        MutationAPI
	alerts     AlertSink
	limiter    *rate.Limiter
	dryRun     bool
	maxRetries int
	retryDelay time.Duration
	sleep      func(time.Duration)
}

func NewActions(logger *slog.Logger, api MutationAPI, alerts AlertSink, dryRun bool) *Actions {
	return &Actions{
		logger:     logger,
		api:        api,
		alerts:     alerts,
		limiter:    rate.NewLimiter(rate.Every(defaultThrottle), 1),
		dryRun:     dryRun,
		maxRetries: defaultMaxRetries,
		retryDelay: defaultRetryDelay,
		sleep:      time.Sleep,
	}
}

// call runs one mutation with throttling and retries. Every failed attempt is
// alerted; only transient failures are retried, and exhausting retries
// returns the last failure to the caller.
func (a *Actions) call(ctx context.Context, action string, fn func() error) error {
	if a.dryRun {
		a.logger.Info("dry run, skipping action", "action", action)
		actionDryRunCount.WithLabelValues(action).Inc()
		return nil
	}

	var lastErr error
	for attempt := 1; attempt <= a.maxRetries; attempt++ {
		if err := a.limiter.Wait(ctx); err != nil {
			return err
		}
		err := fn()
		if err == nil {
			actionCount.WithLabelValues(action).Inc()
			return nil
		}
		lastErr = err
		msg := fmt.Sprintf("reddit %s failed (attempt %d/%d): %v", action, attempt, a.maxRetries, err)
		a.logger.Warn("reddit call failed", "action", action, "attempt", attempt, "error", err)
		a.alerts.SendErrorMessage(ctx, msg)
		if !IsTransient(err) {
			break
		}
		if attempt < a.maxRetries {
			actionRetryCount.WithLabelValues(action).Inc()
			a.sleep(a.retryDelay)
		}
	}
	return errors.Wrap(lastErr, action)
}

// truncate cuts s to at most max bytes without splitting a rune.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}

// ReplyToContent posts a bot reply under the given thing, distinguishes it,
// and optionally pins, locks, or mutes reports on it. Returns the created
// comment, or nil in dry-run mode.
func (a *Actions) ReplyToContent(ctx context.Context, parentFullname, body string, opts ReplyOptions) (*Comment, error) {
	if len(body) > maxReplyChars {
		a.logger.Warn("reply truncated", "parent", parentFullname, "chars", len(body))
		body = truncate(body, maxReplyChars)
	}

	var created *Comment
	err := a.call(ctx, "reply", func() error {
		c, err := a.api.Reply(ctx, parentFullname, body)
		if err != nil {
			return err
		}
		created = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	if created == nil {
		// dry run
		return nil, nil
	}

	if err := a.call(ctx, "distinguish", func() error {
		return a.api.Distinguish(ctx, created.Fullname, opts.Pin)
	}); err != nil {
		return created, err
	}
	if opts.Lock {
		if err := a.call(ctx, "lock", func() error {
			return a.api.Lock(ctx, created.Fullname)
		}); err != nil {
			return created, err
		}
	}
	if opts.IgnoreReports {
		if err := a.call(ctx, "ignore_reports", func() error {
			return a.api.IgnoreReports(ctx, created.Fullname)
		}); err != nil {
			return created, err
		}
	}
	return created, nil
}

// RemoveContent removes a post or comment and stickies a distinguished reply
// explaining the removal.
func (a *Actions) RemoveContent(ctx context.Context, fullname, externalReason, internalNote string) error {
	a.logger.Info("removing content", "fullname", fullname, "reason", internalNote)
	if err := a.call(ctx, "remove", func() error {
		return a.api.Remove(ctx, fullname, internalNote)
	}); err != nil {
		return err
	}
	_, err := a.ReplyToContent(ctx, fullname, externalReason, ReplyOptions{Pin: true})
	return err
}

// RemoveComment removes a comment without leaving a reply.
func (a *Actions) RemoveComment(ctx context.Context, fullname, internalNote string) error {
	a.logger.Info("removing comment", "fullname", fullname, "reason", internalNote)
	return a.call(ctx, "remove", func() error {
		return a.api.Remove(ctx, fullname, internalNote)
	})
}

// ReportContent files a report for moderator attention.
func (a *Actions) ReportContent(ctx context.Context, fullname, reason string) error {
	a.logger.Info("reporting content", "fullname", fullname, "reason", reason)
	return a.call(ctx, "report", func() error {
		return a.api.Report(ctx, fullname, reason)
	})
}

// EditContent replaces the body of a bot-authored comment.
func (a *Actions) EditContent(ctx context.Context, fullname, body string) error {
	a.logger.Info("editing content", "fullname", fullname)
	return a.call(ctx, "edit", func() error {
		return a.api.Edit(ctx, fullname, body)
	})
}
