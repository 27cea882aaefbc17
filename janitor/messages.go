package janitor

import (
	"fmt"

	"github.com/rezl/SubmissionStatementBot/reddit"
	"github.com/rezl/SubmissionStatementBot/settings"
)

// Marker phrases embedded verbatim in bot comments. The writer and the
// already-handled scans share these constants so they cannot drift apart.
const (
	// FinalReminderMarker identifies the one-time reminder posted in the
	// second half of the submission statement window.
	FinalReminderMarker = "your post will be removed when the time limit expires"

	// InlineGuidanceMarker identifies the guidance reply left on link posts
	// whose inline body text is below the minimum length.
	InlineGuidanceMarker = "the text included in your link post is too short to count as a submission statement"

	// OnTopicPromptMarker identifies on-topic prompts attached to submission
	// statements.
	OnTopicPromptMarker = "does not make clear how this post relates to"
)

const botSignature = "\n\nThis is a bot. Replies will not receive responses. " +
	"Please message the moderators if you feel this was an error."

const (
	reasonApprovedNoSS  = "Moderator approved post, but there is no submission statement. Please double check."
	reasonApprovedShort = "Moderator approved post, but the submission statement is too short. Please double check."
	reasonTimeoutNoSS   = "No submission statement was added within the time limit. Please take a look."
	reasonTooShort      = "Submission statement is too short"
	reasonPromptUpvoted = "On-topic prompt is highly upvoted; the submission statement may be off topic. Please review."
)

func finalReminderMissingText(s settings.Settings) string {
	return fmt.Sprintf("This post does not appear to have a submission statement yet; %s.\n\n%s%s",
		FinalReminderMarker, s.RuleDescription, botSignature)
}

func finalReminderTooShortText(s settings.Settings, ss *reddit.Comment) string {
	return fmt.Sprintf("The [submission statement](https://old.reddit.com%s) on this post is "+
		"below the required %d characters; %s.\n\n> %s\n\n%s%s",
		ss.Permalink, s.SubmissionStatementMinLength, FinalReminderMarker, ss.Body,
		s.RuleDescription, botSignature)
}

func inlineGuidanceText(s settings.Settings) string {
	return fmt.Sprintf("Hi, %s. You can either edit your post to extend its text to at least "+
		"%d characters, or add a submission statement as a comment on your own post instead.%s",
		InlineGuidanceMarker, s.SubmissionStatementMinLength, botSignature)
}

func onTopicPromptText(s settings.Settings, ss *reddit.Comment) string {
	return fmt.Sprintf("Hi /u/%s, your submission statement %s %s. Please edit your statement "+
		"to make the connection clear, or reply here to confirm the post is on topic. "+
		"A moderator may review it otherwise.%s",
		ss.Author, OnTopicPromptMarker, s.OnTopicResponse, botSignature)
}
