package main

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/proxy"

	"github.com/rezl/SubmissionStatementBot/config"
	"github.com/rezl/SubmissionStatementBot/janitor"
	"github.com/rezl/SubmissionStatementBot/notifiers"
	"github.com/rezl/SubmissionStatementBot/reddit"
	"github.com/rezl/SubmissionStatementBot/settings"
)

func main() {
	config.LoadConfig()

	opts := slog.HandlerOptions{Level: config.Config.LogLevel}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &opts))
	slog.SetDefault(logger)

	transport, err := proxyTransport(config.Config.ProxyURL)
	if err != nil {
		slog.Error("failed to create proxy transport", "error", err)
		os.Exit(1)
	}

	client := reddit.NewClient(
		logger,
		reddit.Credentials{
			ClientID:     config.Config.RedditClientID,
			ClientSecret: config.Config.RedditClientSecret,
			Username:     config.Config.RedditUsername,
			Password:     config.Config.RedditPassword,
			UserAgent:    config.Config.RedditUserAgent,
		},
		reddit.NewReadClient(logger, transport),
		reddit.NewWriteClient(transport),
	)

	discord := notifiers.NewDiscord(logger, config.Config.DiscordWebhookURL)
	actions := reddit.NewActions(logger, client, discord, config.Config.DryRun)
	if config.Config.DryRun {
		slog.Info("dry run enabled, no actions will reach reddit")
	}

	trackers := make([]*janitor.Tracker, 0, len(config.Config.Subreddits))
	for _, name := range config.Config.Subreddits {
		s, err := settings.ForSubreddit(name)
		if err != nil {
			slog.Error("rejecting configured subreddit", "subreddit", name, "error", err)
			os.Exit(1)
		}
		trackers = append(trackers, janitor.NewTracker(name, s))
	}
	if len(trackers) == 0 {
		slog.Error("no subreddits configured")
		os.Exit(1)
	}

	if config.Config.MetricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			slog.Info("serving metrics", "addr", config.Config.MetricsAddr)
			if err := http.ListenAndServe(config.Config.MetricsAddr, mux); err != nil {
				slog.Error("metrics server stopped", "error", err)
			}
		}()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		<-sigCh
		slog.Info("Shutting down...")
		cancel()
	}()

	bot := janitor.New(logger, client, actions, discord, config.Config.RedditUsername)
	bot.Run(ctx, trackers, janitor.PollInterval(trackers))
}

func proxyTransport(proxyURL string) (http.RoundTripper, error) {
	if proxyURL == "" {
		return nil, nil
	}

	parsedURL, err := url.Parse(proxyURL)
	if err != nil {
		return nil, err
	}
	if parsedURL.Scheme != "socks5" {
		return nil, nil
	}

	// SOCKS5 proxy with authentication
	var auth *proxy.Auth
	if parsedURL.User != nil {
		password, _ := parsedURL.User.Password()
		auth = &proxy.Auth{
			User:     parsedURL.User.Username(),
			Password: password,
		}
	}

	dialer, err := proxy.SOCKS5("tcp", parsedURL.Host, auth, proxy.Direct)
	if err != nil {
		return nil, err
	}

	slog.Info("using SOCKS5 proxy", "proxy", parsedURL.Host)
	return &http.Transport{
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			return dialer.Dial(network, addr)
		},
	}, nil
}
