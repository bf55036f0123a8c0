package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal counts HTTP requests by method and path.
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_service_requests_total",
		Help: "The total number of HTTP requests",
	}, []string{"method", "path", "status"})

	// RequestDuration observes request handling time.
	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "auth_service_request_duration_seconds",
		Help:    "The request duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	// LoginAttemptsTotal counts login attempts by outcome.
	LoginAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_service_login_attempts_total",
		Help: "The total number of login attempts",
	}, []string{"status"})

	// RegistrationsTotal counts registration attempts by outcome.
	RegistrationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_service_registrations_total",
		Help: "The total number of registration attempts",
	}, []string{"status"})

	// TokenRefreshTotal counts refresh-token exchanges by outcome.
	TokenRefreshTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_service_token_refresh_total",
		Help: "The total number of token refreshes",
	}, []string{"status"})

	// MailDispatchTotal counts outgoing mail deliveries by outcome.
	MailDispatchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_service_mail_dispatch_total",
		Help: "The total number of dispatched mails",
	}, []string{"kind", "status"})

	// RateLimitExceededTotal counts rejected requests due to rate limits.
	RateLimitExceededTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "auth_service_rate_limit_exceeded_total",
		Help: "The total number of rate limit exceeded events",
	})
)
