package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTPRequests counts handled requests by route and status.
	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "medverify_http_requests_total",
		Help: "HTTP requests handled, partitioned by method, route and status.",
	}, []string{"method", "route", "status"})

	// HTTPDuration observes request latency by route.
	HTTPDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "medverify_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	// Uploads counts video uploads by outcome.
	Uploads = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "medverify_uploads_total",
		Help: "Video uploads, partitioned by result.",
	}, []string{"result"})

	// UploadedBytes sums the size of stored videos.
	UploadedBytes = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "medverify_uploaded_bytes_total",
		Help: "Bytes written to object storage by uploads.",
	})

	// Presigns counts presigned link generation by signing mode and outcome.
	Presigns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "medverify_presign_total",
		Help: "Presigned URLs generated, partitioned by mode and result.",
	}, []string{"mode", "result"})

	// LinkCache counts presigned link cache lookups.
	LinkCache = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "medverify_link_cache_total",
		Help: "Presigned link cache lookups, partitioned by result.",
	}, []string{"result"})

	// Emails counts notification attempts per provider.
	Emails = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "medverify_emails_total",
		Help: "Email send attempts, partitioned by provider and result.",
	}, []string{"provider", "result"})

	// OrphanedObjects counts stored objects whose metadata insert failed.
	OrphanedObjects = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "medverify_orphaned_objects_total",
		Help: "Objects written to storage without a matching video record.",
	})
)

var initOnce sync.Once

// InitMetrics registers all collectors with the default registry. Safe to call
// more than once.
func InitMetrics() {
	initOnce.Do(func() {
		prometheus.MustRegister(
			HTTPRequests,
			HTTPDuration,
			Uploads,
			UploadedBytes,
			Presigns,
			LinkCache,
			Emails,
			OrphanedObjects,
		)
	})
}

// Middleware records request counts and latency using the matched route
// template so path parameters do not explode label cardinality.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		HTTPDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// Register attaches the Prometheus metrics endpoint to the router.
func Register(router *gin.Engine, path string) {
	router.GET(path, gin.WrapH(promhttp.Handler()))
}
