// Package metrics provides Prometheus instrumentation for the storefront API.
//
// The HTTP collectors are fed by Middleware; the business counters are
// incremented by the services that own the events.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "storefront"

var (
	// RequestDuration tracks how long each HTTP request takes
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	// RequestTotal counts all HTTP requests
	RequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	// OrdersPlaced counts successful checkouts by payment method
	OrdersPlaced = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "orders",
			Name:      "placed_total",
			Help:      "Orders placed, by payment method.",
		},
		[]string{"payment_method"},
	)

	// OrderStatusChanges counts staff and customer status transitions
	OrderStatusChanges = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "orders",
			Name:      "status_changes_total",
			Help:      "Order status transitions, by target status.",
		},
		[]string{"to"},
	)

	// CartsMerged counts anonymous carts folded into a customer cart at login
	CartsMerged = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "carts",
		Name:      "merged_total",
		Help:      "Anonymous carts merged into customer carts on login.",
	})

	// Registry holds every collector exposed on /metrics
	Registry = prometheus.NewRegistry()
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		RequestDuration,
		RequestTotal,
		OrdersPlaced,
		OrderStatusChanges,
		CartsMerged,
	)
}

// Middleware records duration and count for every request, labelled by route template
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		RequestDuration.WithLabelValues(c.Request.Method, route, status).Observe(time.Since(start).Seconds())
		RequestTotal.WithLabelValues(c.Request.Method, route, status).Inc()
	}
}

// Handler serves the registry in the Prometheus exposition format
func Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
	return gin.WrapH(h)
}
