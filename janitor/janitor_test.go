package janitor

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezl/SubmissionStatementBot/reddit"
	"github.com/rezl/SubmissionStatementBot/settings"
)

const testBot = "ssjanitor"

type recordedReply struct {
	parent string
	body   string
	opts   reddit.ReplyOptions
}

type recordedRemoval struct {
	fullname string
	external string
	note     string
}

type recordedReport struct {
	fullname string
	reason   string
}

type recordedEdit struct {
	fullname string
	body     string
}

type fakeDispatcher struct {
	replies         []recordedReply
	removals        []recordedRemoval
	commentRemovals []string
	reports         []recordedReport
	edits           []recordedEdit
	nextID          int
}

func (d *fakeDispatcher) ReplyToContent(ctx context.Context, parent, body string, opts reddit.ReplyOptions) (*reddit.Comment, error) {
	d.replies = append(d.replies, recordedReply{parent: parent, body: body, opts: opts})
	d.nextID++
	return &reddit.Comment{
		ID:       fmt.Sprintf("bot%d", d.nextID),
		Fullname: fmt.Sprintf("t1_bot%d", d.nextID),
		Author:   testBot,
		Body:     body,
		ParentID: parent,
	}, nil
}

func (d *fakeDispatcher) RemoveContent(ctx context.Context, fullname, external, note string) error {
	d.removals = append(d.removals, recordedRemoval{fullname: fullname, external: external, note: note})
	return nil
}

func (d *fakeDispatcher) RemoveComment(ctx context.Context, fullname, note string) error {
	d.commentRemovals = append(d.commentRemovals, fullname)
	return nil
}

func (d *fakeDispatcher) ReportContent(ctx context.Context, fullname, reason string) error {
	d.reports = append(d.reports, recordedReport{fullname: fullname, reason: reason})
	return nil
}

func (d *fakeDispatcher) EditContent(ctx context.Context, fullname, body string) error {
	d.edits = append(d.edits, recordedEdit{fullname: fullname, body: body})
	return nil
}

func (d *fakeDispatcher) callCount() int {
	return len(d.replies) + len(d.removals) + len(d.commentRemovals) + len(d.reports) + len(d.edits)
}

type fakeAlerts struct {
	msgs []string
}

func (a *fakeAlerts) SendErrorMessage(ctx context.Context, msg string) {
	a.msgs = append(a.msgs, msg)
}

type fakeSource struct {
	newPosts    map[string][]*reddit.Post
	unmoderated map[string][]*reddit.Post
	comments    map[string][]*reddit.Comment
	commentByID map[string]*reddit.Comment
	postByID    map[string]*reddit.Post
	newPostsErr error
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		newPosts:    map[string][]*reddit.Post{},
		unmoderated: map[string][]*reddit.Post{},
		comments:    map[string][]*reddit.Comment{},
		commentByID: map[string]*reddit.Comment{},
		postByID:    map[string]*reddit.Post{},
	}
}

func (s *fakeSource) NewPosts(ctx context.Context, subreddit string) ([]*reddit.Post, error) {
	if s.newPostsErr != nil {
		return nil, s.newPostsErr
	}
	return s.newPosts[subreddit], nil
}

func (s *fakeSource) UnmoderatedPosts(ctx context.Context, subreddit string) ([]*reddit.Post, error) {
	return s.unmoderated[subreddit], nil
}

func (s *fakeSource) Comments(ctx context.Context, subreddit, postID string) ([]*reddit.Comment, error) {
	return s.comments[postID], nil
}

func (s *fakeSource) Comment(ctx context.Context, fullname string) (*reddit.Comment, error) {
	return s.commentByID[fullname], nil
}

func (s *fakeSource) PostInfo(ctx context.Context, fullname string) (*reddit.Post, error) {
	return s.postByID[fullname], nil
}

func newTestJanitor(src Source, now time.Time) (*Janitor, *fakeDispatcher, *fakeAlerts) {
	dispatcher := &fakeDispatcher{}
	alerts := &fakeAlerts{}
	j := New(slog.Default(), src, dispatcher, alerts, testBot)
	j.now = func() time.Time { return now }
	return j, dispatcher, alerts
}

func linkPost(id string, created time.Time) *reddit.Post {
	return &reddit.Post{
		ID:        id,
		Fullname:  "t3_" + id,
		Title:     "some article",
		Author:    "poster",
		Subreddit: "collapse",
		Permalink: "/r/collapse/comments/" + id + "/some_article/",
		Created:   created,
	}
}

func opComment(postID, id, body string, created time.Time) *reddit.Comment {
	return &reddit.Comment{
		ID:           id,
		Fullname:     "t1_" + id,
		Author:       "poster",
		Body:         body,
		Permalink:    "/r/collapse/comments/" + postID + "/some_article/" + id + "/",
		ParentID:     "t3_" + postID,
		PostFullname: "t3_" + postID,
		IsSubmitter:  true,
		Created:      created,
	}
}

func botComment(postID, id, body string) *reddit.Comment {
	return &reddit.Comment{
		ID:           id,
		Fullname:     "t1_" + id,
		Author:       testBot,
		Body:         body,
		ParentID:     "t3_" + postID,
		PostFullname: "t3_" + postID,
	}
}

func testSettings() settings.Settings {
	s := settings.DefaultSettings()
	s.SubmissionStatementMinLength = 20
	return s
}

func longBody(n int) string {
	body := make([]byte, n)
	for i := range body {
		body[i] = 'a'
	}
	return string(body)
}

func TestHandlePost_SelfPostNeverRequiresStatement(t *testing.T) {
	now := time.Date(2023, 6, 12, 12, 0, 0, 0, time.UTC)
	post := linkPost("abc", now.Add(-24*time.Hour))
	post.IsSelf = true

	j, dispatcher, _ := newTestJanitor(newFakeSource(), now)
	tr := NewTracker("collapse", testSettings())

	err := j.HandlePost(context.Background(), tr, NewPost(post, nil))
	require.NoError(t, err)
	assert.Zero(t, dispatcher.callCount())
}

func TestHandlePost_LowEffortOutsideCasualWindowRemoved(t *testing.T) {
	// Thursday 23:00 UTC is outside the Friday 00:00 - Saturday 08:00 window
	created := time.Date(2023, 6, 8, 23, 0, 0, 0, time.UTC)
	now := created.Add(5 * time.Minute)
	post := linkPost("abc", created)
	post.FlairText = "Humor"

	j, dispatcher, _ := newTestJanitor(newFakeSource(), now)
	tr := NewTracker("collapse", testSettings())

	err := j.HandlePost(context.Background(), tr, NewPost(post, nil))
	require.NoError(t, err)
	require.Len(t, dispatcher.removals, 1)
	assert.Equal(t, tr.Settings.CasualHourRemovalReason, dispatcher.removals[0].external)
}

func TestHandlePost_LowEffortInsideCasualWindowKept(t *testing.T) {
	// Friday 10:00 UTC is inside the casual window
	created := time.Date(2023, 6, 9, 10, 0, 0, 0, time.UTC)
	now := created.Add(5 * time.Minute)
	post := linkPost("abc", created)
	post.FlairText = "humor"

	j, dispatcher, _ := newTestJanitor(newFakeSource(), now)
	tr := NewTracker("collapse", testSettings())

	err := j.HandlePost(context.Background(), tr, NewPost(post, nil))
	require.NoError(t, err)
	assert.Empty(t, dispatcher.removals)
}

func TestHandlePost_ApprovedPostSkipsLowEffortGate(t *testing.T) {
	created := time.Date(2023, 6, 8, 23, 0, 0, 0, time.UTC)
	now := created.Add(5 * time.Minute)
	post := linkPost("abc", created)
	post.FlairText = "humor"
	post.Approved = true

	j, dispatcher, _ := newTestJanitor(newFakeSource(), now)
	tr := NewTracker("collapse", testSettings())

	err := j.HandlePost(context.Background(), tr, NewPost(post, nil))
	require.NoError(t, err)
	assert.Empty(t, dispatcher.removals)
}

func TestHandlePost_MissingStatementRemovedAfterTimeout(t *testing.T) {
	now := time.Date(2023, 6, 12, 12, 0, 0, 0, time.UTC)
	post := linkPost("abc", now.Add(-time.Hour))

	j, dispatcher, _ := newTestJanitor(newFakeSource(), now)
	tr := NewTracker("collapse", testSettings())

	err := j.HandlePost(context.Background(), tr, NewPost(post, nil))
	require.NoError(t, err)
	require.Len(t, dispatcher.removals, 1)
	assert.Equal(t, "t3_abc", dispatcher.removals[0].fullname)
	assert.Equal(t, tr.Settings.RemovalReason, dispatcher.removals[0].external)
}

func TestHandlePost_MissingStatementNoActionWithinTimeLimit(t *testing.T) {
	now := time.Date(2023, 6, 12, 12, 0, 0, 0, time.UTC)
	post := linkPost("abc", now.Add(-5*time.Minute))

	j, dispatcher, _ := newTestJanitor(newFakeSource(), now)
	tr := NewTracker("collapse", testSettings())

	err := j.HandlePost(context.Background(), tr, NewPost(post, nil))
	require.NoError(t, err)
	assert.Zero(t, dispatcher.callCount())
}

func TestHandlePost_ApprovedMissingStatementReported(t *testing.T) {
	now := time.Date(2023, 6, 12, 12, 0, 0, 0, time.UTC)
	post := linkPost("abc", now.Add(-time.Hour))
	post.Approved = true

	j, dispatcher, _ := newTestJanitor(newFakeSource(), now)
	tr := NewTracker("collapse", testSettings())

	err := j.HandlePost(context.Background(), tr, NewPost(post, nil))
	require.NoError(t, err)
	assert.Empty(t, dispatcher.removals)
	require.Len(t, dispatcher.reports, 1)
	assert.Equal(t, reasonApprovedNoSS, dispatcher.reports[0].reason)
}

func TestHandlePost_ValidStatementPinned(t *testing.T) {
	now := time.Date(2023, 6, 12, 12, 0, 0, 0, time.UTC)
	post := linkPost("abc", now.Add(-time.Hour))
	ss := opComment("abc", "ss1", longBody(40), now.Add(-50*time.Minute))

	j, dispatcher, _ := newTestJanitor(newFakeSource(), now)
	tr := NewTracker("collapse", testSettings())

	err := j.HandlePost(context.Background(), tr, NewPost(post, []*reddit.Comment{ss}))
	require.NoError(t, err)
	assert.Empty(t, dispatcher.removals)
	require.Len(t, dispatcher.replies, 1)
	assert.Equal(t, "t3_abc", dispatcher.replies[0].parent)
	assert.True(t, dispatcher.replies[0].opts.Pin)
	assert.True(t, dispatcher.replies[0].opts.Lock)
	assert.Contains(t, dispatcher.replies[0].body, tr.Settings.BotPrefix)
	assert.Contains(t, dispatcher.replies[0].body, ss.Body)
}

func TestHandlePost_TooShortStatementRemoved(t *testing.T) {
	now := time.Date(2023, 6, 12, 12, 0, 0, 0, time.UTC)
	post := linkPost("abc", now.Add(-time.Hour))
	ss := opComment("abc", "ss1", "too short", now.Add(-50*time.Minute))

	j, dispatcher, _ := newTestJanitor(newFakeSource(), now)
	s := testSettings()
	s.PinSubmissionStatement = false
	tr := NewTracker("collapse", s)

	err := j.HandlePost(context.Background(), tr, NewPost(post, []*reddit.Comment{ss}))
	require.NoError(t, err)
	require.Len(t, dispatcher.removals, 1)
	assert.Equal(t, "submission statement too short", dispatcher.removals[0].note)
}

func TestHandlePost_TooShortStatementReportedWhenConfigured(t *testing.T) {
	now := time.Date(2023, 6, 12, 12, 0, 0, 0, time.UTC)
	post := linkPost("abc", now.Add(-time.Hour))
	ss := opComment("abc", "ss1", "too short", now.Add(-50*time.Minute))

	j, dispatcher, _ := newTestJanitor(newFakeSource(), now)
	s := testSettings()
	s.PinSubmissionStatement = false
	s.ReportInsufficientLength = true
	tr := NewTracker("collapse", s)

	err := j.HandlePost(context.Background(), tr, NewPost(post, []*reddit.Comment{ss}))
	require.NoError(t, err)
	assert.Empty(t, dispatcher.removals)
	require.Len(t, dispatcher.reports, 1)
	assert.Equal(t, reasonTooShort, dispatcher.reports[0].reason)
}

func TestHandlePost_MinimumLengthBoundary(t *testing.T) {
	now := time.Date(2023, 6, 12, 12, 0, 0, 0, time.UTC)
	s := testSettings()
	s.PinSubmissionStatement = false

	exact := opComment("abc", "ss1", longBody(s.SubmissionStatementMinLength), now.Add(-50*time.Minute))
	short := opComment("abc", "ss1", longBody(s.SubmissionStatementMinLength-1), now.Add(-50*time.Minute))

	assert.Equal(t, Valid, Classify(exact, s.SubmissionStatementMinLength))
	assert.Equal(t, TooShort, Classify(short, s.SubmissionStatementMinLength))

	// a statement of exactly the minimum length is never enforced against
	post := linkPost("abc", now.Add(-time.Hour))
	j, dispatcher, _ := newTestJanitor(newFakeSource(), now)
	tr := NewTracker("collapse", s)
	err := j.HandlePost(context.Background(), tr, NewPost(post, []*reddit.Comment{exact}))
	require.NoError(t, err)
	assert.Zero(t, dispatcher.callCount())
}

func TestHandlePost_Idempotent(t *testing.T) {
	now := time.Date(2023, 6, 12, 12, 0, 0, 0, time.UTC)
	post := linkPost("abc", now.Add(-time.Hour))
	ss := opComment("abc", "ss1", longBody(40), now.Add(-50*time.Minute))

	j, first, _ := newTestJanitor(newFakeSource(), now)
	tr := NewTracker("collapse", testSettings())

	err := j.HandlePost(context.Background(), tr, NewPost(post, []*reddit.Comment{ss}))
	require.NoError(t, err)
	require.Len(t, first.replies, 1)

	// second run against the same remote state, now including the bot's pin
	pin := botComment("abc", "pin1", first.replies[0].body)
	j2, second, _ := newTestJanitor(newFakeSource(), now)
	err = j2.HandlePost(context.Background(), tr, NewPost(post, []*reddit.Comment{ss, pin}))
	require.NoError(t, err)
	assert.Zero(t, second.callCount())
}

func TestHandlePost_PinReconciledAfterStatementEdit(t *testing.T) {
	now := time.Date(2023, 6, 12, 12, 0, 0, 0, time.UTC)
	post := linkPost("abc", now.Add(-time.Hour))
	ss := opComment("abc", "ss1", longBody(40), now.Add(-50*time.Minute))

	tr := NewTracker("collapse", testSettings())
	stalePin := botComment("abc", "pin1", tr.Settings.PinText(ss.Author, "old statement text before the edit", ss.Permalink))

	j, dispatcher, _ := newTestJanitor(newFakeSource(), now)
	err := j.HandlePost(context.Background(), tr, NewPost(post, []*reddit.Comment{ss, stalePin}))
	require.NoError(t, err)
	require.Len(t, dispatcher.edits, 1)
	assert.Equal(t, "t1_pin1", dispatcher.edits[0].fullname)
	assert.Contains(t, dispatcher.edits[0].body, ss.Body)
}

func TestHandlePost_ForeignPinNotEdited(t *testing.T) {
	now := time.Date(2023, 6, 12, 12, 0, 0, 0, time.UTC)
	post := linkPost("abc", now.Add(-time.Hour))
	ss := opComment("abc", "ss1", longBody(40), now.Add(-50*time.Minute))

	tr := NewTracker("collapse", testSettings())
	foreignPin := botComment("abc", "pin1", tr.Settings.PinText(ss.Author, "something else", ss.Permalink))
	foreignPin.Author = "some_human_mod"

	j, dispatcher, _ := newTestJanitor(newFakeSource(), now)
	err := j.HandlePost(context.Background(), tr, NewPost(post, []*reddit.Comment{ss, foreignPin}))
	require.NoError(t, err)
	assert.Zero(t, dispatcher.callCount())
}

func TestHandlePost_InlineBodyLongEnoughMakesStatementOptional(t *testing.T) {
	now := time.Date(2023, 6, 12, 12, 0, 0, 0, time.UTC)
	post := linkPost("abc", now.Add(-time.Hour))
	post.SelfText = longBody(40)

	j, dispatcher, _ := newTestJanitor(newFakeSource(), now)
	tr := NewTracker("collapse", testSettings())

	err := j.HandlePost(context.Background(), tr, NewPost(post, nil))
	require.NoError(t, err)
	assert.Zero(t, dispatcher.callCount())
}

func TestHandlePost_ShortInlineBodyGetsGuidanceOnce(t *testing.T) {
	now := time.Date(2023, 6, 12, 12, 0, 0, 0, time.UTC)
	post := linkPost("abc", now.Add(-5*time.Minute))
	post.SelfText = "short blurb"

	j, dispatcher, _ := newTestJanitor(newFakeSource(), now)
	tr := NewTracker("collapse", testSettings())

	err := j.HandlePost(context.Background(), tr, NewPost(post, nil))
	require.NoError(t, err)
	require.Len(t, dispatcher.replies, 1)
	assert.Contains(t, dispatcher.replies[0].body, InlineGuidanceMarker)

	guidance := botComment("abc", "g1", dispatcher.replies[0].body)
	j2, second, _ := newTestJanitor(newFakeSource(), now)
	err = j2.HandlePost(context.Background(), tr, NewPost(post, []*reddit.Comment{guidance}))
	require.NoError(t, err)
	assert.Zero(t, second.callCount())
}

func TestHandlePost_FinalReminder(t *testing.T) {
	now := time.Date(2023, 6, 12, 12, 0, 0, 0, time.UTC)
	s := testSettings()
	s.FinalReminder = true
	tr := NewTracker("collapse", s)

	// first half of the window: no reminder yet
	early := linkPost("abc", now.Add(-10*time.Minute))
	j, dispatcher, _ := newTestJanitor(newFakeSource(), now)
	require.NoError(t, j.HandlePost(context.Background(), tr, NewPost(early, nil)))
	assert.Empty(t, dispatcher.replies)

	// second half: reminder posted once
	late := linkPost("abc", now.Add(-20*time.Minute))
	require.NoError(t, j.HandlePost(context.Background(), tr, NewPost(late, nil)))
	require.Len(t, dispatcher.replies, 1)
	assert.Contains(t, dispatcher.replies[0].body, FinalReminderMarker)

	reminder := botComment("abc", "r1", dispatcher.replies[0].body)
	j2, second, _ := newTestJanitor(newFakeSource(), now)
	require.NoError(t, j2.HandlePost(context.Background(), tr, NewPost(late, []*reddit.Comment{reminder})))
	assert.Zero(t, second.callCount())
}

func TestHandlePost_FinalReminderQuotesShortStatement(t *testing.T) {
	now := time.Date(2023, 6, 12, 12, 0, 0, 0, time.UTC)
	s := testSettings()
	s.FinalReminder = true
	tr := NewTracker("collapse", s)

	post := linkPost("abc", now.Add(-20*time.Minute))
	ss := opComment("abc", "ss1", "too short", now.Add(-15*time.Minute))

	j, dispatcher, _ := newTestJanitor(newFakeSource(), now)
	require.NoError(t, j.HandlePost(context.Background(), tr, NewPost(post, []*reddit.Comment{ss})))
	require.Len(t, dispatcher.replies, 1)
	assert.Contains(t, dispatcher.replies[0].body, ss.Body)
	assert.Contains(t, dispatcher.replies[0].body, ss.Permalink)
}

func TestHandlePost_CleanupRemovesInterimBotComments(t *testing.T) {
	now := time.Date(2023, 6, 12, 12, 0, 0, 0, time.UTC)
	post := linkPost("abc", now.Add(-time.Hour))
	ss := opComment("abc", "ss1", longBody(40), now.Add(-50*time.Minute))
	reminder := botComment("abc", "r1", finalReminderMissingText(testSettings()))

	j, dispatcher, _ := newTestJanitor(newFakeSource(), now)
	tr := NewTracker("collapse", testSettings())

	err := j.HandlePost(context.Background(), tr, NewPost(post, []*reddit.Comment{ss, reminder}))
	require.NoError(t, err)
	assert.Contains(t, dispatcher.commentRemovals, "t1_r1")
}

func TestHandlePost_RemovedPostLeftAlone(t *testing.T) {
	now := time.Date(2023, 6, 12, 12, 0, 0, 0, time.UTC)
	post := linkPost("abc", now.Add(-time.Hour))
	post.Removed = true

	j, dispatcher, _ := newTestJanitor(newFakeSource(), now)
	tr := NewTracker("collapse", testSettings())

	err := j.HandlePost(context.Background(), tr, NewPost(post, nil))
	require.NoError(t, err)
	assert.Zero(t, dispatcher.callCount())
}
