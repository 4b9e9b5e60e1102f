// Package metrics exposes Prometheus metrics for documents and HTTP traffic.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/bizdocs/backend/internal/domain/document"
	"github.com/bizdocs/backend/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metric names
const (
	MetricDocumentsCreated    = "bizdocs_documents_created_total"
	MetricDocumentsDeleted    = "bizdocs_documents_deleted_total"
	MetricConversions         = "bizdocs_conversions_total"
	MetricDocumentsSent       = "bizdocs_documents_sent_total"
	MetricInvoicesPaid        = "bizdocs_invoices_paid_total"
	MetricInvoicesPaidAmount  = "bizdocs_invoices_paid_amount_total"
	MetricHTTPRequests        = "bizdocs_http_requests_total"
	MetricHTTPRequestDuration = "bizdocs_http_request_duration_seconds"
)

var _ shared.EventHandler = (*Recorder)(nil)

// Recorder holds the application metrics on its own registry
type Recorder struct {
	registry *prometheus.Registry

	documentsCreated   *prometheus.CounterVec
	documentsDeleted   *prometheus.CounterVec
	conversions        *prometheus.CounterVec
	documentsSent      *prometheus.CounterVec
	invoicesPaid       prometheus.Counter
	invoicesPaidAmount prometheus.Counter
	httpRequests       *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec
}

// NewRecorder creates a recorder with Go runtime and process collectors registered
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		documentsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricDocumentsCreated,
			Help: "Documents created, by type",
		}, []string{"type"}),
		documentsDeleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricDocumentsDeleted,
			Help: "Documents deleted, by type and whether a regeneration replaced them",
		}, []string{"type", "replaced"}),
		conversions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricConversions,
			Help: "Documents derived from another document, by target type",
		}, []string{"target"}),
		documentsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricDocumentsSent,
			Help: "Documents delivered by email, by type",
		}, []string{"type"}),
		invoicesPaid: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricInvoicesPaid,
			Help: "Invoices marked paid",
		}),
		invoicesPaidAmount: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricInvoicesPaidAmount,
			Help: "Gross amount of invoices marked paid",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricHTTPRequests,
			Help: "HTTP requests, by route and status",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    MetricHTTPRequestDuration,
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.documentsCreated,
		r.documentsDeleted,
		r.conversions,
		r.documentsSent,
		r.invoicesPaid,
		r.invoicesPaidAmount,
		r.httpRequests,
		r.httpDuration,
	)
	return r
}

// Registry returns the underlying registry
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the metrics in the Prometheus exposition format
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Handle updates the document counters from a committed event
func (r *Recorder) Handle(_ context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *document.DocumentCreatedEvent:
		r.documentsCreated.WithLabelValues(string(e.DocumentType)).Inc()
	case *document.DocumentDeletedEvent:
		r.documentsDeleted.WithLabelValues(string(e.DocumentType), strconv.FormatBool(e.Replaced)).Inc()
	case *document.DocumentConvertedEvent:
		r.conversions.WithLabelValues(string(e.TargetType)).Inc()
	case *document.DocumentSentEvent:
		r.documentsSent.WithLabelValues(string(e.DocumentType)).Inc()
	case *document.InvoicePaidEvent:
		r.invoicesPaid.Inc()
		if e.AmountGross.IsPositive() {
			r.invoicesPaidAmount.Add(e.AmountGross.InexactFloat64())
		}
	}
	return nil
}

// EventTypes lists the document events the recorder counts
func (r *Recorder) EventTypes() []string {
	return []string{
		document.EventTypeDocumentCreated,
		document.EventTypeDocumentDeleted,
		document.EventTypeDocumentConverted,
		document.EventTypeDocumentSent,
		document.EventTypeInvoicePaid,
	}
}

// GinMiddleware records request counts and latency per route template
func (r *Recorder) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		r.httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		r.httpDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
