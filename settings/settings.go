package settings

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Subreddit names are restricted identifiers; anything else is rejected
// before it can reach the Reddit API.
var subredditNameRe = regexp.MustCompile(`^[A-Za-z0-9_]{2,21}$`)

// CasualWindow is a weekly time-of-week range, evaluated in UTC.
type CasualWindow struct {
	StartWeekday time.Weekday
	StartHour    int
	EndWeekday   time.Weekday
	EndHour      int
}

// Contains reports whether t (converted to UTC) falls inside the window.
// Granularity is whole hours, matching how the window is announced to users.
func (w CasualWindow) Contains(t time.Time) bool {
	t = t.UTC()
	idx := int(t.Weekday())*24 + t.Hour()
	start := int(w.StartWeekday)*24 + w.StartHour
	end := int(w.EndWeekday)*24 + w.EndHour
	if start <= end {
		return idx >= start && idx < end
	}
	// window wraps over the end of the week
	return idx >= start || idx < end
}

// Settings is the immutable per-subreddit configuration bundle. One value is
// selected per subreddit at startup and never mutated afterwards.
type Settings struct {
	// flair gating
	LowEffortFlair []string // lower case flair text
	ExcludedFlair  []string // flairs exempt from the submission statement requirement
	CasualWindow   CasualWindow

	// polling cadence
	PostCheckFrequency  time.Duration
	PostCheckThreshold  time.Duration
	ConsecutiveOldPosts int
	StaleCheckFrequency time.Duration
	StaleCheckThreshold time.Duration

	// submission statement rules
	SubmissionStatementTimeLimit time.Duration
	SubmissionStatementMinLength int
	ReportInsufficientLength     bool
	ReportTimeout                bool
	ReportStaleUnmoderated       bool
	PinSubmissionStatement       bool
	FinalReminder                bool

	// BotPrefix opens every pinned submission statement quote. It doubles as
	// the marker the bot scans for to know a post was already serviced, so the
	// writer and the reader can never drift apart.
	BotPrefix string

	// on-topic monitoring
	OnTopicReminder     bool
	OnTopicKeywords     []string // lower case
	OnTopicResponse     string
	OnTopicRemovalScore int // prompt score below this is treated as a false positive
	OnTopicReportScore  int // prompt score above this is surfaced to moderators
	TrackOnTopicReplies bool

	// user-facing templates
	RemovalReason           string
	CasualHourRemovalReason string
	RuleDescription         string

	// FlairPrefixText maps lower-cased flair text to a comment stamped once on
	// self posts carrying that flair.
	FlairPrefixText map[string]string
}

// PinHeader renders the opening line of a pinned submission statement quote.
func (s Settings) PinHeader(author string) string {
	return fmt.Sprintf("%s /u/%s:", s.BotPrefix, author)
}

// PinText builds the distinguished comment quoting the poster's submission
// statement, so readers see it even when comments are sorted oddly.
func (s Settings) PinText(author, body, permalink string) string {
	header := s.PinHeader(author) + "\n\n---\n\n"
	footer := fmt.Sprintf("\n\n---\n\n Please reply to OP's comment here: https://old.reddit.com%s", permalink)
	return header + body + footer
}

func DefaultSettings() Settings {
	minLength := 150
	return Settings{
		LowEffortFlair: []string{"casual friday", "low effort", "humor", "humour"},
		CasualWindow: CasualWindow{
			StartWeekday: time.Friday,
			StartHour:    0,
			EndWeekday:   time.Saturday,
			EndHour:      8,
		},

		PostCheckFrequency:  5 * time.Minute,
		PostCheckThreshold:  2 * time.Hour,
		ConsecutiveOldPosts: 5,
		StaleCheckFrequency: time.Hour,
		StaleCheckThreshold: 12 * time.Hour,

		SubmissionStatementTimeLimit: 30 * time.Minute,
		SubmissionStatementMinLength: minLength,
		ReportStaleUnmoderated:       true,
		PinSubmissionStatement:       true,
		BotPrefix:                    "The following submission statement was provided by",

		OnTopicRemovalScore: -3,
		OnTopicReportScore:  5,

		RemovalReason: fmt.Sprintf("Your post has been removed for not including a submission statement, "+
			"meaning post text or a comment on your own post that provides context for the link. "+
			"If you still wish to share your post you must resubmit your link "+
			"accompanied by a submission statement of at least %d characters. "+
			"\n\n"+
			"This is a bot. Replies will not receive responses. "+
			"Please message the moderators if you feel this was an error.", minLength),
		CasualHourRemovalReason: "Your post has been removed because it was flaired as either " +
			"Casual Friday, Humor, or Low Effort and it was not posted " +
			"during Casual Friday. " +
			"\n\n" +
			"On-topic memes, jokes, short videos, image posts, posts requiring " +
			"low effort to consume, and other less substantial posts must be " +
			"flaired as either Casual Friday, Humor, or Low Effort, " +
			"and they are only allowed on Casual Fridays. " +
			"(That means 00:00 Friday - 08:00 Saturday UTC.) " +
			"\n\n" +
			"Clickbait, misinformation, and other similar low-quality content " +
			"is not allowed at any time, not even on Fridays. " +
			"\n\n" +
			"This is a bot. Replies will not receive responses. " +
			"Please message the moderators if you feel this was an error.",
		RuleDescription: "Submission statements must clearly explain why the linked content is" +
			" relevant to this community. They should contain a summary or description of the" +
			" content and must be at least 150 characters in length. They must be" +
			" original and not overly composed of quoted text from the source. If a" +
			" statement is not added within thirty minutes of posting it will be removed.",
	}
}

func collapseSettings() Settings {
	s := DefaultSettings()
	s.ReportTimeout = true
	s.FinalReminder = true
	s.OnTopicReminder = true
	s.TrackOnTopicReplies = true
	s.OnTopicResponse = "collapse"
	s.OnTopicKeywords = []string{
		"bioaccumulation",
		"biomass",
		"carrying capacity",
		"cascading failure",
		"clathrate",
		"collapse",
		"depopulation",
		"energy balance",
		"eroei",
		"feedback loop",
		"future of humanity",
		"geoengineering",
		"heuristic",
		"industrial civilization",
		"infinite growth",
		"irreversible",
		"limits to growth",
		"long now",
		"ltg",
		"mass starvation",
		"nthe",
		"overpopulation",
		"overshoot",
		"overshot",
		"peak everything",
		"peak oil",
		"perverse incentive",
		"runaway",
		"supply chain",
		"systematic error",
		"systemic problem",
		"tipping point",
		"uncontrolled",
		"unsurvivable without",
		"wet bulb",
		"wicked problem",
	}
	s.RuleDescription = "Submission statements must clearly explain why the linked content is" +
		" collapse-related. They should contain a summary or description of the" +
		" content and must be at least 150 characters in length. They must be" +
		" original and not overly composed of quoted text from the source. If a" +
		" statement is not added within thirty minutes of posting it will be removed."
	return s
}

func futurologySettings() Settings {
	s := DefaultSettings()
	s.LowEffortFlair = nil
	s.SubmissionStatementMinLength = 300
	s.ReportInsufficientLength = true
	s.RemovalReason = "We require that posters seed their post with an initial comment, a " +
		"Submission Statement, that suggests a line of future-focused discussion for the " +
		"topic posted. We want this submission statement to elaborate on the topic being " +
		"posted and suggest how it might be discussed in relation to the future, and ask " +
		"that it is a minimum of 300 characters. Could you please repost with a Submission " +
		"Statement, thanks."
	return s
}

var registry = map[string]func() Settings{
	"collapse":   collapseSettings,
	"futurology": futurologySettings,
}

// ForSubreddit resolves the settings bundle for a subreddit. Malformed names
// are rejected outright; valid but unknown names fall back to defaults.
func ForSubreddit(name string) (Settings, error) {
	if !subredditNameRe.MatchString(name) {
		return Settings{}, fmt.Errorf("invalid subreddit name %q", name)
	}
	if build, ok := registry[strings.ToLower(name)]; ok {
		return build(), nil
	}
	return DefaultSettings(), nil
}
