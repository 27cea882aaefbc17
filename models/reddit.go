package models

import "encoding/json"

// Listing is the envelope Reddit wraps around every feed response.
type Listing struct {
	Data struct {
		After    string  `json:"after"`
		Children []Thing `json:"children"`
	} `json:"data"`
}

type Thing struct {
	Kind string          `json:"kind"` // "t1" comment, "t3" post
	Data json.RawMessage `json:"data"`
}

type RedditPost struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"` // fullname, e.g. t3_abc123
	Title         string  `json:"title"`
	Selftext      string  `json:"selftext"`
	Author        string  `json:"author"`
	Subreddit     string  `json:"subreddit"`
	Permalink     string  `json:"permalink"`
	CreatedUTC    float64 `json:"created_utc"`
	LinkFlairText string  `json:"link_flair_text"`
	IsSelf        bool    `json:"is_self"`
	Approved      bool    `json:"approved"`
	Removed       bool    `json:"removed"`
	Score         int     `json:"score"`
	NumComments   int     `json:"num_comments"`
	// ModReports entries are [reason, moderator] pairs, only visible to mods.
	ModReports [][]string `json:"mod_reports"`
}

type RedditComment struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"` // fullname, e.g. t1_def456
	Author      string  `json:"author"`
	Body        string  `json:"body"`
	Subreddit   string  `json:"subreddit"`
	Permalink   string  `json:"permalink"`
	CreatedUTC  float64 `json:"created_utc"`
	Score       int     `json:"score"`
	IsSubmitter bool    `json:"is_submitter"`
	Removed     bool    `json:"removed"`
	ParentID    string  `json:"parent_id"`
	LinkID      string  `json:"link_id"`
	// ModReports entries are [reason, moderator] pairs, only visible to mods.
	ModReports [][]string `json:"mod_reports"`
	// Replies is "" when a comment has no children, a nested Listing otherwise.
	Replies json.RawMessage `json:"replies"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	Scope       string `json:"scope"`
}
