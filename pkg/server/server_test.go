package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hyponcloud/hyponcloud/pkg/storage"
	"github.com/hyponcloud/hyponcloud/pkg/storage/storagemock"
	"github.com/hyponcloud/hyponcloud/pkg/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestStatusEndpoints(t *testing.T) {
	t.Run("No Data Yet", func(t *testing.T) {
		m := &mockMonitor{}
		m.On("Latest").Return(types.Status{}, false)
		srv := newTestServer(m, nil)

		for _, path := range []string{"/api/status", "/api/overview", "/api/plants", "/api/plants/p1/inverters"} {
			w := serve(srv, httptest.NewRequest(http.MethodGet, path, nil))
			assert.Equal(t, http.StatusServiceUnavailable, w.Code, path)
			assert.Equal(t, "60", w.Header().Get("Retry-After"), path)
		}
	})

	t.Run("Status", func(t *testing.T) {
		m := &mockMonitor{}
		m.On("Latest").Return(testStatus(), true)
		srv := newTestServer(m, nil)

		w := serve(srv, httptest.NewRequest(http.MethodGet, "/api/status", nil))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
		assert.Equal(t, "private, max-age=60", w.Header().Get("Cache-Control"))

		var got types.Status
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, "admin-1", got.Account.ID)
		assert.Len(t, got.Plants, 2)
		assert.Contains(t, got.Errors, "plant:p2")
	})

	t.Run("Overview", func(t *testing.T) {
		m := &mockMonitor{}
		m.On("Latest").Return(testStatus(), true)
		srv := newTestServer(m, nil)

		w := serve(srv, httptest.NewRequest(http.MethodGet, "/api/overview", nil))
		require.Equal(t, http.StatusOK, w.Code)

		var got types.OverviewSnapshot
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, 4200, got.Overview.Power)
		assert.Equal(t, "KW", got.Overview.CapacityCompany)
		assert.True(t, got.Timestamp.Equal(testNow.Add(-time.Minute)))
	})

	t.Run("Plants", func(t *testing.T) {
		m := &mockMonitor{}
		m.On("Latest").Return(testStatus(), true)
		srv := newTestServer(m, nil)

		w := serve(srv, httptest.NewRequest(http.MethodGet, "/api/plants", nil))
		require.Equal(t, http.StatusOK, w.Code)

		var got []types.PlantData
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		require.Len(t, got, 2)
		assert.Equal(t, "p1", got[0].PlantID)
		assert.Equal(t, "Barn", got[1].PlantName)
	})

	t.Run("Plants Empty", func(t *testing.T) {
		m := &mockMonitor{}
		m.On("Latest").Return(types.Status{Timestamp: testNow}, true)
		srv := newTestServer(m, nil)

		w := serve(srv, httptest.NewRequest(http.MethodGet, "/api/plants", nil))
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, "[]", w.Body.String())
	})
}

func TestHandlePlant(t *testing.T) {
	t.Run("From Latest", func(t *testing.T) {
		m := &mockMonitor{}
		m.On("Latest").Return(testStatus(), true)
		db := &storagemock.MockDatabase{}
		srv := newTestServer(m, db)

		w := serve(srv, httptest.NewRequest(http.MethodGet, "/api/plants/p1", nil))
		require.Equal(t, http.StatusOK, w.Code)

		var got types.PlantSnapshot
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, "Roof", got.Plant.PlantName)
		assert.Len(t, got.Inverters, 2)
		db.AssertNotCalled(t, "GetLatestPlantSnapshot", mock.Anything, mock.Anything)
	})

	t.Run("Falls Back To Storage", func(t *testing.T) {
		m := &mockMonitor{}
		m.On("Latest").Return(testStatus(), true)
		db := storage.NewMemory()
		require.NoError(t, db.InsertPlantSnapshot(context.Background(), types.PlantSnapshot{
			Timestamp: testNow.Add(-48 * time.Hour),
			Plant:     types.PlantData{PlantID: "old", PlantName: "Shed"},
		}))
		srv := newTestServer(m, db)

		w := serve(srv, httptest.NewRequest(http.MethodGet, "/api/plants/old", nil))
		require.Equal(t, http.StatusOK, w.Code)

		var got types.PlantSnapshot
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, "Shed", got.Plant.PlantName)
	})

	t.Run("Before First Collection", func(t *testing.T) {
		m := &mockMonitor{}
		m.On("Latest").Return(types.Status{}, false)
		db := storage.NewMemory()
		require.NoError(t, db.InsertPlantSnapshot(context.Background(), types.PlantSnapshot{
			Timestamp: testNow,
			Plant:     types.PlantData{PlantID: "p1", PlantName: "Roof"},
		}))
		srv := newTestServer(m, db)

		w := serve(srv, httptest.NewRequest(http.MethodGet, "/api/plants/p1", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Not Found", func(t *testing.T) {
		m := &mockMonitor{}
		m.On("Latest").Return(testStatus(), true)
		srv := newTestServer(m, nil)

		w := serve(srv, httptest.NewRequest(http.MethodGet, "/api/plants/missing", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.JSONEq(t, `{"error":"plant not found"}`, w.Body.String())
	})

	t.Run("Storage Error", func(t *testing.T) {
		m := &mockMonitor{}
		m.On("Latest").Return(testStatus(), true)
		db := &storagemock.MockDatabase{}
		db.On("GetLatestPlantSnapshot", mock.Anything, "missing").Return(types.PlantSnapshot{}, errors.New("boom"))
		srv := newTestServer(m, db)

		w := serve(srv, httptest.NewRequest(http.MethodGet, "/api/plants/missing", nil))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "boom")
	})
}

func TestHandleInverters(t *testing.T) {
	m := &mockMonitor{}
	m.On("Latest").Return(testStatus(), true)
	srv := newTestServer(m, nil)

	t.Run("Success", func(t *testing.T) {
		w := serve(srv, httptest.NewRequest(http.MethodGet, "/api/plants/p1/inverters", nil))
		require.Equal(t, http.StatusOK, w.Code)

		var got []types.InverterData
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		require.Len(t, got, 2)
		assert.Equal(t, "INV1", got[0].SN)
		assert.Equal(t, "p1", got[0].PlantID)
	})

	t.Run("Collection Failed", func(t *testing.T) {
		w := serve(srv, httptest.NewRequest(http.MethodGet, "/api/plants/p2/inverters", nil))
		assert.Equal(t, http.StatusBadGateway, w.Code)
		assert.Contains(t, w.Body.String(), "rate limit")
	})

	t.Run("Unknown Plant", func(t *testing.T) {
		w := serve(srv, httptest.NewRequest(http.MethodGet, "/api/plants/p3/inverters", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Account Error Is Not A Plant Error", func(t *testing.T) {
		status := testStatus()
		status.Plants = append(status.Plants, types.PlantSnapshot{
			Plant:     types.PlantData{PlantID: types.StatusErrorAccount},
			Inverters: []types.InverterData{{SN: "INV9"}},
		})
		status.Errors[types.StatusErrorAccount] = "admin down"
		m := &mockMonitor{}
		m.On("Latest").Return(status, true)
		srv := newTestServer(m, nil)

		w := serve(srv, httptest.NewRequest(http.MethodGet, "/api/plants/account/inverters", nil))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "INV9")
	})

	t.Run("No Inverters", func(t *testing.T) {
		status := testStatus()
		status.Errors = nil
		m := &mockMonitor{}
		m.On("Latest").Return(status, true)
		srv := newTestServer(m, nil)

		w := serve(srv, httptest.NewRequest(http.MethodGet, "/api/plants/p2/inverters", nil))
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, "[]", w.Body.String())
	})
}

func TestHealthzAndMetrics(t *testing.T) {
	m := &mockMonitor{}
	gauge := prometheus.NewGauge(prometheus.GaugeOpts{Name: "hypon_test_gauge", Help: "test"})
	gauge.Set(42)
	m.Registry().MustRegister(gauge)
	srv := newTestServer(m, nil)
	srv.bypassAuth = false

	t.Run("Healthz", func(t *testing.T) {
		w := serve(srv, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "ok", w.Body.String())
		assert.Equal(t, "test", w.Header().Get("Server"))
	})

	t.Run("Metrics Without Auth", func(t *testing.T) {
		w := serve(srv, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "hypon_test_gauge 42")
	})

	t.Run("Metrics Wrong Method", func(t *testing.T) {
		w := serve(srv, httptest.NewRequest(http.MethodPost, "/metrics", nil))
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	})
}

func TestSecurityHeaders(t *testing.T) {
	m := &mockMonitor{}
	m.On("Latest").Return(testStatus(), true)
	srv := newTestServer(m, nil)

	w := serve(srv, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Contains(t, w.Header().Get("Strict-Transport-Security"), "max-age=")
	assert.Equal(t, "default-src 'none'; frame-ancestors 'none'", w.Header().Get("Content-Security-Policy"))
	assert.Contains(t, w.Header().Values("Vary"), "Authorization")

	w = serve(srv, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.NotContains(t, w.Header().Values("Vary"), "Authorization")
}
