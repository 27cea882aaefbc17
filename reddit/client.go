package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/rezl/SubmissionStatementBot/models"
)

const (
	defaultBaseURL = "https://oauth.reddit.com"
	defaultAuthURL = "https://www.reddit.com/api/v1/access_token"
)

type Credentials struct {
	ClientID     string
	ClientSecret string
	Username     string
	Password     string
	UserAgent    string
}

// Client talks to the Reddit API with a script-app OAuth session. Reads go
// through a retrying HTTP client; mutations go through a plain one, because
// retry policy for side-effecting calls belongs to the Actions dispatcher.
type Client struct {
	logger  *slog.Logger
	creds   Credentials
	reads   *http.Client
	writes  *http.Client
	baseURL string
	authURL string

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

func NewClient(logger *slog.Logger, creds Credentials, reads, writes *http.Client) *Client {
	return &Client{
		logger:  logger,
		creds:   creds,
		reads:   reads,
		writes:  writes,
		baseURL: defaultBaseURL,
		authURL: defaultAuthURL,
	}
}

func (c *Client) ensureToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" && time.Now().Before(c.tokenExpiry) {
		return c.token, nil
	}

	form := url.Values{}
	form.Set("grant_type", "password")
	form.Set("username", c.creds.Username)
	form.Set("password", c.creds.Password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.authURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(c.creds.ClientID, c.creds.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", c.creds.UserAgent)

	resp, err := c.writes.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "fetch access token")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 300))
		return "", &APIError{StatusCode: resp.StatusCode, Detail: string(body)}
	}

	var token models.TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return "", errors.Wrap(err, "decode access token")
	}
	if token.AccessToken == "" {
		return "", errors.New("empty access token in response")
	}

	c.token = token.AccessToken
	// refresh a minute early so in-flight calls never race expiry
	c.tokenExpiry = time.Now().Add(time.Duration(token.ExpiresIn-60) * time.Second)
	c.logger.Debug("refreshed reddit access token", "expires_in", token.ExpiresIn)
	return c.token, nil
}

func (c *Client) do(ctx context.Context, client *http.Client, method, path string, form url.Values) ([]byte, error) {
	token, err := c.ensureToken(ctx)
	if err != nil {
		return nil, err
	}

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("User-Agent", c.creds.UserAgent)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail := string(raw)
		if len(detail) > 300 {
			detail = detail[:300] + "..."
		}
		if resp.StatusCode == http.StatusUnauthorized {
			// session expired server-side; next call re-authenticates
			c.mu.Lock()
			c.token = ""
			c.mu.Unlock()
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Detail: detail}
	}
	return raw, nil
}

func (c *Client) getListing(ctx context.Context, path string) (*models.Listing, error) {
	raw, err := c.do(ctx, c.reads, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	var listing models.Listing
	if err := json.Unmarshal(raw, &listing); err != nil {
		return nil, errors.Wrapf(err, "decode listing %s", path)
	}
	return &listing, nil
}

// NewPosts returns the subreddit's newest submissions, most recent first.
func (c *Client) NewPosts(ctx context.Context, subreddit string) ([]*Post, error) {
	listing, err := c.getListing(ctx, fmt.Sprintf("/r/%s/new.json?limit=100&raw_json=1", subreddit))
	if err != nil {
		return nil, err
	}
	return postsFromListing(listing), nil
}

// UnmoderatedPosts returns the subreddit's unmoderated queue.
func (c *Client) UnmoderatedPosts(ctx context.Context, subreddit string) ([]*Post, error) {
	listing, err := c.getListing(ctx, fmt.Sprintf("/r/%s/about/unmoderated.json?limit=100&raw_json=1", subreddit))
	if err != nil {
		return nil, err
	}
	return postsFromListing(listing), nil
}

// Comments returns the post's comment tree in the platform's native order.
// Top-level comments carry their nested replies.
func (c *Client) Comments(ctx context.Context, subreddit, postID string) ([]*Comment, error) {
	path := fmt.Sprintf("/r/%s/comments/%s.json?limit=500&raw_json=1", subreddit, postID)
	raw, err := c.do(ctx, c.reads, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	// the endpoint returns a two-element array: [post listing, comment listing]
	var listings []models.Listing
	if err := json.Unmarshal(raw, &listings); err != nil {
		return nil, errors.Wrapf(err, "decode comments for %s", postID)
	}
	if len(listings) < 2 {
		return nil, nil
	}
	return commentsFromListing(listings[1]), nil
}

// Comment fetches a single comment by fullname. Returns nil without error
// when the comment no longer exists.
func (c *Client) Comment(ctx context.Context, fullname string) (*Comment, error) {
	listing, err := c.getListing(ctx, "/api/info.json?raw_json=1&id="+url.QueryEscape(fullname))
	if err != nil {
		return nil, err
	}
	for _, thing := range listing.Data.Children {
		if thing.Kind != "t1" {
			continue
		}
		var wire models.RedditComment
		if err := json.Unmarshal(thing.Data, &wire); err != nil {
			return nil, errors.Wrapf(err, "decode comment %s", fullname)
		}
		return commentFromWire(wire), nil
	}
	return nil, nil
}

// PostInfo fetches a single post by fullname. Returns nil without error when
// the post no longer exists.
func (c *Client) PostInfo(ctx context.Context, fullname string) (*Post, error) {
	listing, err := c.getListing(ctx, "/api/info.json?raw_json=1&id="+url.QueryEscape(fullname))
	if err != nil {
		return nil, err
	}
	for _, thing := range listing.Data.Children {
		if thing.Kind != "t3" {
			continue
		}
		var wire models.RedditPost
		if err := json.Unmarshal(thing.Data, &wire); err != nil {
			return nil, errors.Wrapf(err, "decode post %s", fullname)
		}
		return postFromWire(wire), nil
	}
	return nil, nil
}

// Reply posts a comment under the given thing and returns the created
// comment.
func (c *Client) Reply(ctx context.Context, parentFullname, body string) (*Comment, error) {
	form := url.Values{}
	form.Set("api_type", "json")
	form.Set("thing_id", parentFullname)
	form.Set("text", body)

	raw, err := c.do(ctx, c.writes, http.MethodPost, "/api/comment", form)
	if err != nil {
		return nil, err
	}

	var resp struct {
		JSON struct {
			Errors [][]string `json:"errors"`
			Data   struct {
				Things []models.Thing `json:"things"`
			} `json:"data"`
		} `json:"json"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, errors.Wrap(err, "decode reply response")
	}
	if len(resp.JSON.Errors) > 0 {
		return nil, fmt.Errorf("reply rejected: %v", resp.JSON.Errors[0])
	}
	for _, thing := range resp.JSON.Data.Things {
		if thing.Kind != "t1" {
			continue
		}
		var wire models.RedditComment
		if err := json.Unmarshal(thing.Data, &wire); err != nil {
			return nil, errors.Wrap(err, "decode created comment")
		}
		return commentFromWire(wire), nil
	}
	return nil, errors.New("reply response contained no comment")
}

func (c *Client) Report(ctx context.Context, fullname, reason string) error {
	form := url.Values{}
	form.Set("api_type", "json")
	form.Set("thing_id", fullname)
	form.Set("reason", reason)
	_, err := c.do(ctx, c.writes, http.MethodPost, "/api/report", form)
	return err
}

func (c *Client) Remove(ctx context.Context, fullname, modNote string) error {
	form := url.Values{}
	form.Set("id", fullname)
	form.Set("spam", "false")
	if modNote != "" {
		form.Set("mod_note", modNote)
	}
	_, err := c.do(ctx, c.writes, http.MethodPost, "/api/remove", form)
	return err
}

func (c *Client) Edit(ctx context.Context, fullname, body string) error {
	form := url.Values{}
	form.Set("api_type", "json")
	form.Set("thing_id", fullname)
	form.Set("text", body)
	_, err := c.do(ctx, c.writes, http.MethodPost, "/api/editusertext", form)
	return err
}

func (c *Client) Distinguish(ctx context.Context, fullname string, sticky bool) error {
	form := url.Values{}
	form.Set("api_type", "json")
	form.Set("id", fullname)
	form.Set("how", "yes")
	form.Set("sticky", strconv.FormatBool(sticky))
	_, err := c.do(ctx, c.writes, http.MethodPost, "/api/distinguish", form)
	return err
}

func (c *Client) Lock(ctx context.Context, fullname string) error {
	form := url.Values{}
	form.Set("id", fullname)
	_, err := c.do(ctx, c.writes, http.MethodPost, "/api/lock", form)
	return err
}

func (c *Client) IgnoreReports(ctx context.Context, fullname string) error {
	form := url.Values{}
	form.Set("id", fullname)
	_, err := c.do(ctx, c.writes, http.MethodPost, "/api/ignore_reports", form)
	return err
}

func postsFromListing(listing *models.Listing) []*Post {
	out := make([]*Post, 0, len(listing.Data.Children))
	for _, thing := range listing.Data.Children {
		if thing.Kind != "t3" {
			continue
		}
		var wire models.RedditPost
		if err := json.Unmarshal(thing.Data, &wire); err != nil {
			continue
		}
		out = append(out, postFromWire(wire))
	}
	return out
}

func commentsFromListing(listing models.Listing) []*Comment {
	var out []*Comment
	for _, thing := range listing.Data.Children {
		// "more" stubs and anything unexpected are skipped
		if thing.Kind != "t1" {
			continue
		}
		var wire models.RedditComment
		if err := json.Unmarshal(thing.Data, &wire); err != nil {
			continue
		}
		comment := commentFromWire(wire)
		if len(wire.Replies) > 0 && wire.Replies[0] == '{' {
			var nested models.Listing
			if err := json.Unmarshal(wire.Replies, &nested); err == nil {
				comment.Replies = commentsFromListing(nested)
			}
		}
		out = append(out, comment)
	}
	return out
}
