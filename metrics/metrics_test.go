package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"student-manager-go/db"
	"student-manager-go/models"
)

func TestInstrumentedStoreCountsOperations(t *testing.T) {
	c := NewCollector("test")
	store := c.Instrument(db.NewMemoryStore())
	ctx := context.Background()

	rec, err := store.Insert(ctx, models.Draft{Name: "Ana"})
	require.NoError(t, err)
	_, err = store.Update(ctx, rec.ID, models.Draft{Name: "Ana B"})
	require.NoError(t, err)
	_, err = store.Update(ctx, 99, models.Draft{})
	require.ErrorIs(t, err, db.ErrNotFound)
	_, err = store.List(ctx)
	require.NoError(t, err)
	require.NoError(t, store.Delete(ctx, rec.ID))

	assert.Equal(t, 1.0, testutil.ToFloat64(c.StoreOperations.WithLabelValues("insert", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.StoreOperations.WithLabelValues("update", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.StoreOperations.WithLabelValues("update", "not_found")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.StoreOperations.WithLabelValues("list", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.StoreOperations.WithLabelValues("delete", "ok")))
}

func TestMiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c := NewCollector("test")
	r := gin.New()
	r.Use(c.Middleware())
	r.GET("/api/students/:id", func(ctx *gin.Context) { ctx.Status(http.StatusNoContent) })
	r.GET("/metrics", gin.WrapH(c.Handler()))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/students/3", nil))
	require.Equal(t, http.StatusNoContent, w.Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.HTTPRequestsTotal.WithLabelValues("GET", "/api/students/:id", "204")))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "test_http_requests_total")
}
