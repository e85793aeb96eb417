package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordGateDecision(t *testing.T) {
	before := testutil.ToFloat64(gateDecisions.WithLabelValues("ai_chat", "quota_exceeded"))
	RecordGateDecision("ai_chat", "quota_exceeded")
	after := testutil.ToFloat64(gateDecisions.WithLabelValues("ai_chat", "quota_exceeded"))
	assert.Equal(t, before+1, after)
}

func TestRecordUsage_IgnoresNonPositive(t *testing.T) {
	before := testutil.ToFloat64(usageUnits.WithLabelValues("image_generation"))
	RecordUsage("image_generation", 0)
	RecordUsage("image_generation", -3)
	RecordUsage("image_generation", 2)
	assert.Equal(t, before+2, testutil.ToFloat64(usageUnits.WithLabelValues("image_generation")))
}

func TestGinMiddleware_UsesRoutePattern(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(GinMiddleware())
	r.GET("/api/organizations/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/metrics", gin.WrapH(Handler()))

	req := httptest.NewRequest(http.MethodGet, "/api/organizations/abc", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusNoContent, w.Code)

	count := testutil.ToFloat64(httpRequests.WithLabelValues(http.MethodGet, "/api/organizations/:id", "204"))
	assert.GreaterOrEqual(t, count, float64(1))

	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "armour_nexus_http_requests_total")
}
