package reddit

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var actionCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "ssbot_actions_total",
	Help: "Number of moderation actions issued to Reddit",
}, []string{"action"})

var actionDryRunCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "ssbot_actions_dry_run_total",
	Help: "Number of moderation actions suppressed by dry-run mode",
}, []string{"action"})

var actionRetryCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "ssbot_action_retries_total",
	Help: "Number of retried action attempts after transient failures",
}, []string{"action"})
