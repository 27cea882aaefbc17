package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
)

type AppConfig struct {
	RedditClientID     string
	RedditClientSecret string
	RedditUsername     string
	RedditPassword     string
	RedditUserAgent    string
	Subreddits         []string
	DiscordWebhookURL  string
	ProxyURL           string
	MetricsAddr        string
	DryRun             bool
	LogLevel           slog.Level
}

var Config AppConfig

func LoadConfig() {
	cfg := AppConfig{}

	cfg.RedditClientID = loadRequired("REDDIT_CLIENT_ID")
	cfg.RedditClientSecret = loadRequired("REDDIT_CLIENT_SECRET")
	cfg.RedditUsername = loadRequired("REDDIT_USERNAME")
	cfg.RedditPassword = loadRequired("REDDIT_PASSWORD")
	cfg.RedditUserAgent = loadOptional("REDDIT_USER_AGENT", "SubmissionStatementBot (by /u/"+cfg.RedditUsername+")")
	cfg.Subreddits = splitList(loadRequired("SUBREDDITS"))
	cfg.DiscordWebhookURL = loadOptional("DISCORD_WEBHOOK_URL", "")
	cfg.ProxyURL = loadOptional("PROXY_URL", "")
	cfg.MetricsAddr = loadOptional("METRICS_ADDR", "")

	dryRun, err := strconv.ParseBool(loadOptional("DRY_RUN", "false"))
	if err != nil {
		slog.Error("Invalid DRY_RUN", "error", err)
		dryRun = false
	}
	cfg.DryRun = dryRun

	lvlString := loadOptional("LOG_LEVEL", "INFO")
	cfg.LogLevel, err = parseLogLevel(lvlString)
	if err != nil {
		slog.Error("Invalid LOG_LEVEL", "error", err)
		cfg.LogLevel = slog.LevelInfo
	}

	Config = cfg
}

func parseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	var err = level.UnmarshalText([]byte(s))
	return level, err
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func loadRequired(key string) string {
	value := os.Getenv(key)
	if value == "" {
		slog.Error("Required env var not set", "key", key)
		os.Exit(1)
	}
	return value
}

func loadOptional(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
