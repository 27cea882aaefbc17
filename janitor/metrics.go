package janitor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var postsChecked = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "ssbot_posts_checked_total",
	Help: "Number of post evaluations performed",
}, []string{"subreddit"})

var postErrors = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "ssbot_post_errors_total",
	Help: "Number of post evaluations that failed and were skipped",
}, []string{"subreddit"})

var cycleErrors = promauto.NewCounter(prometheus.CounterOpts{
	Name: "ssbot_cycle_errors_total",
	Help: "Number of subreddit passes that failed",
})

var monitoredReplies = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Name: "ssbot_monitored_replies",
	Help: "On-topic prompts currently tracked for score-based aging",
}, []string{"subreddit"})
