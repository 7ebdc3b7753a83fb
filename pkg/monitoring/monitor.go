package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	ChallengesCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "duel_challenges_created_total",
			Help: "Total number of duel challenges created",
		},
	)

	ChallengesFinished = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "duel_challenges_finished_total",
			Help: "Total number of duel challenges finished with both attempts",
		},
	)

	ChallengesExpired = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "duel_challenges_expired_total",
			Help: "Total number of duel challenges force-resolved by expiry",
		},
	)

	BotSubmissions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "duel_bot_submissions_total",
			Help: "Total number of synthetic submissions by scripted opponents",
		},
	)
)

func Init() {
	prometheus.MustRegister(RequestCounter)
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(ChallengesCreated)
	prometheus.MustRegister(ChallengesFinished)
	prometheus.MustRegister(ChallengesExpired)
	prometheus.MustRegister(BotSubmissions)
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		RequestCounter.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
