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

	// GenerationRuns 课程生成任务计数，result: started/completed/failed/cancelled
	GenerationRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "course_generation_runs_total",
			Help: "Total number of course generation runs by result",
		},
		[]string{"result"},
	)

	// GenerationFallbacks 管线降级计数，kind: expand/reading/video/image
	GenerationFallbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "course_generation_fallbacks_total",
			Help: "Total number of fallback substitutions during generation",
		},
		[]string{"kind"},
	)

	// ExternalCallDuration 外部服务调用耗时，service: llm/youtube/unsplash
	ExternalCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "external_call_duration_seconds",
			Help:    "Duration of external service calls",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"service"},
	)
)

func Init() {
	prometheus.MustRegister(RequestCounter)
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(GenerationRuns)
	prometheus.MustRegister(GenerationFallbacks)
	prometheus.MustRegister(ExternalCallDuration)
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

// ObserveExternalCall 记录一次外部调用耗时
func ObserveExternalCall(service string, start time.Time) {
	ExternalCallDuration.WithLabelValues(service).Observe(time.Since(start).Seconds())
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
