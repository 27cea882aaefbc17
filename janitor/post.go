package janitor

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rezl/SubmissionStatementBot/matchers"
	"github.com/rezl/SubmissionStatementBot/reddit"
	"github.com/rezl/SubmissionStatementBot/settings"
)

// Post is a read-oriented view over one submission and its current comment
// tree. It is rebuilt from remote state on every evaluation and never mutates
// anything.
type Post struct {
	Info     *reddit.Post
	Comments []*reddit.Comment // top-level, native order, with nested replies
}

func NewPost(info *reddit.Post, comments []*reddit.Comment) *Post {
	return &Post{Info: info, Comments: comments}
}

func (p *Post) HasLowEffortFlair(s settings.Settings) bool {
	return flairIn(p.Info.FlairText, s.LowEffortFlair)
}

func (p *Post) HasExcludedFlair(s settings.Settings) bool {
	return flairIn(p.Info.FlairText, s.ExcludedFlair)
}

func flairIn(flair string, set []string) bool {
	if flair == "" {
		return false
	}
	lowered := strings.ToLower(flair)
	for _, f := range set {
		if lowered == f {
			return true
		}
	}
	return false
}

func (p *Post) SubmittedDuringCasualWindow(w settings.CasualWindow) bool {
	return w.Contains(p.Info.Created)
}

// OlderThan reports whether the post's age exceeds d at the given instant.
func (p *Post) OlderThan(d time.Duration, now time.Time) bool {
	return p.Info.Created.Add(d).Before(now)
}

func (p *Post) ModeratorApproved() bool {
	return p.Info.Approved
}

func (p *Post) Removed() bool {
	return p.Info.Removed
}

// FindCommentContaining scans the whole comment tree in native order for the
// first comment whose body contains text. Comments with a deleted author or
// a removed body are skipped unless includeDeleted is set.
func (p *Post) FindCommentContaining(text string, includeDeleted bool) *reddit.Comment {
	return findInComments(p.Comments, text, includeDeleted)
}

func findInComments(comments []*reddit.Comment, text string, includeDeleted bool) *reddit.Comment {
	for _, c := range comments {
		if includeDeleted || (!c.Deleted && !c.Removed) {
			if strings.Contains(c.Body, text) {
				return c
			}
		}
		if found := findInComments(c.Replies, text, includeDeleted); found != nil {
			return found
		}
	}
	return nil
}

// SubmissionStatement selects the canonical submission statement from the
// poster's top-level comments. A candidate that labels itself as the
// statement wins immediately, first in feed order; otherwise the longest
// candidate wins, ties keeping the earliest seen.
func (p *Post) SubmissionStatement() *reddit.Comment {
	var longest *reddit.Comment
	for _, c := range p.Comments {
		if !c.IsSubmitter || !c.TopLevel() {
			continue
		}
		if matchers.HasStatementMarker(c.Body) {
			return c
		}
		if longest == nil || utf8.RuneCountInString(c.Body) > utf8.RuneCountInString(longest.Body) {
			longest = c
		}
	}
	return longest
}
