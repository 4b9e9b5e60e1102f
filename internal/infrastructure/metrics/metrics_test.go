package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bizdocs/backend/internal/domain/document"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newInvoice(t *testing.T) *document.Document {
	t.Helper()
	clientID := uuid.New()
	doc, err := document.NewDocument(document.NewDocumentParams{
		Type:     document.TypeInvoice,
		VATRate:  decimal.NewFromInt(20),
		ClientID: &clientID,
	})
	require.NoError(t, err)
	_, err = doc.AddLine(document.SystemActor, document.LineInput{
		Designation: "Pose",
		Category:    document.CategoryLabor,
		UnitPrice:   decimal.NewNullDecimal(decimal.NewFromInt(100)),
	})
	require.NoError(t, err)
	require.NoError(t, doc.AssignNumber("F-2026-0001"))
	return doc
}

func TestRecorder_Handle(t *testing.T) {
	r := NewRecorder()
	ctx := t.Context()
	invoice := newInvoice(t)
	credit, err := invoice.DeriveAs(document.TypeCreditNote, document.SystemActor, "")
	require.NoError(t, err)

	require.NoError(t, r.Handle(ctx, document.NewDocumentCreatedEvent(invoice)))
	require.NoError(t, r.Handle(ctx, document.NewDocumentCreatedEvent(invoice)))
	require.NoError(t, r.Handle(ctx, document.NewDocumentConvertedEvent(invoice, credit)))
	require.NoError(t, r.Handle(ctx, document.NewDocumentSentEvent(invoice)))
	require.NoError(t, r.Handle(ctx, document.NewInvoicePaidEvent(invoice)))
	require.NoError(t, r.Handle(ctx, document.NewDocumentDeletedEvent(invoice, true)))
	require.NoError(t, r.Handle(ctx, document.NewDocumentUpdatedEvent(invoice)))

	assert.Equal(t, 2.0, testutil.ToFloat64(r.documentsCreated.WithLabelValues("invoice")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.conversions.WithLabelValues("credit_note")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.documentsSent.WithLabelValues("invoice")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.invoicesPaid))
	assert.Equal(t, 120.0, testutil.ToFloat64(r.invoicesPaidAmount))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.documentsDeleted.WithLabelValues("invoice", "true")))
	assert.NotContains(t, r.EventTypes(), document.EventTypeDocumentUpdated)
}

func TestRecorder_HTTP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := NewRecorder()

	router := gin.New()
	router.Use(r.GinMiddleware())
	router.GET("/api/v1/documents/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/metrics", gin.WrapH(r.Handler()))

	for range 3 {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/documents/"+uuid.NewString(), nil))
		require.Equal(t, http.StatusOK, w.Code)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	assert.Equal(t, 3.0, testutil.ToFloat64(r.httpRequests.WithLabelValues("GET", "/api/v1/documents/:id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.httpRequests.WithLabelValues("GET", "unmatched", "404")))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.True(t, strings.Contains(body, MetricHTTPRequests))
	assert.True(t, strings.Contains(body, "go_goroutines"))
}
