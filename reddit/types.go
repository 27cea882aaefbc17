package reddit

import (
	"strings"
	"time"

	"github.com/rezl/SubmissionStatementBot/models"
)

const deletedAuthor = "[deleted]"

// Post is a read-only snapshot of one submission, rebuilt from the wire
// format on every poll. Decisions are always computed from current remote
// state, never from a cached copy.
type Post struct {
	ID        string
	Fullname  string
	Title     string
	Author    string
	Subreddit string
	Permalink string
	FlairText string
	SelfText  string
	IsSelf    bool
	Approved  bool
	Removed   bool
	Score     int
	Created   time.Time
	// ModReports holds [reason, moderator] pairs from the mod view.
	ModReports [][]string
}

// ReportedBy reports whether the given user already filed a mod report on
// this post. Used to avoid duplicate reports across polls.
func (p *Post) ReportedBy(user string) bool {
	return reportedBy(p.ModReports, user)
}

func reportedBy(reports [][]string, user string) bool {
	for _, r := range reports {
		if len(r) >= 2 && r[1] == user {
			return true
		}
	}
	return false
}

// Comment is a snapshot of one comment. Replies preserves the platform's
// native ordering.
type Comment struct {
	ID           string
	Fullname     string
	Author       string
	Body         string
	Subreddit    string
	Permalink    string
	ParentID     string
	PostFullname string
	Score        int
	IsSubmitter  bool
	Removed      bool
	Deleted      bool
	Created      time.Time
	Replies      []*Comment
	ModReports   [][]string
}

// ReportedBy reports whether the given user already filed a mod report on
// this comment.
func (c *Comment) ReportedBy(user string) bool {
	return reportedBy(c.ModReports, user)
}

// TopLevel reports whether the comment replies directly to the post.
func (c *Comment) TopLevel() bool {
	return strings.HasPrefix(c.ParentID, "t3_")
}

func postFromWire(p models.RedditPost) *Post {
	return &Post{
		ID:         p.ID,
		Fullname:   p.Name,
		Title:      p.Title,
		Author:     p.Author,
		Subreddit:  p.Subreddit,
		Permalink:  p.Permalink,
		FlairText:  p.LinkFlairText,
		SelfText:   p.Selftext,
		IsSelf:     p.IsSelf,
		Approved:   p.Approved,
		Removed:    p.Removed,
		Score:      p.Score,
		Created:    time.Unix(int64(p.CreatedUTC), 0).UTC(),
		ModReports: p.ModReports,
	}
}

func commentFromWire(c models.RedditComment) *Comment {
	out := &Comment{
		ID:           c.ID,
		Fullname:     c.Name,
		Author:       c.Author,
		Body:         c.Body,
		Subreddit:    c.Subreddit,
		Permalink:    c.Permalink,
		ParentID:     c.ParentID,
		PostFullname: c.LinkID,
		Score:        c.Score,
		IsSubmitter:  c.IsSubmitter,
		Removed:      c.Removed,
		Deleted:      c.Author == deletedAuthor || c.Author == "",
		Created:      time.Unix(int64(c.CreatedUTC), 0).UTC(),
		ModReports:   c.ModReports,
	}
	return out
}
