package server

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/hyponcloud/hyponcloud/pkg/log"
	"github.com/hyponcloud/hyponcloud/pkg/storage"
	"github.com/hyponcloud/hyponcloud/pkg/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/mock"
)

func init() {
	log.SetDefaultLogLevel(slog.LevelError)
}

type mockMonitor struct {
	mock.Mock
	registry *prometheus.Registry
}

func (m *mockMonitor) Latest() (types.Status, bool) {
	args := m.Called()
	return args.Get(0).(types.Status), args.Bool(1)
}

func (m *mockMonitor) Collect(ctx context.Context) (types.Status, error) {
	args := m.Called(ctx)
	return args.Get(0).(types.Status), args.Error(1)
}

func (m *mockMonitor) Registry() *prometheus.Registry {
	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
	}
	return m.registry
}

var testNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func newTestServer(m Monitor, db storage.Database) *Server {
	if db == nil {
		db = storage.NewMemory()
	}
	return &Server{
		monitor:    m,
		storage:    db,
		listenAddr: ":8080",
		bypassAuth: true,
		serverName: "test",
		now:        func() time.Time { return testNow },
	}
}

func testStatus() types.Status {
	return types.Status{
		Timestamp: testNow.Add(-time.Minute),
		Account:   types.AdminInfo{ID: "admin-1", Username: "owner"},
		Overview: types.OverviewData{
			Capacity:        10.5,
			CapacityCompany: "KW",
			Power:           4200,
			Company:         "W",
			Percent:         40,
			EToday:          12.5,
			NormalDevNum:    2,
		},
		Plants: []types.PlantSnapshot{
			{
				Timestamp: testNow.Add(-time.Minute),
				Plant:     types.PlantData{PlantID: "p1", PlantName: "Roof", Power: 3000},
				Inverters: []types.InverterData{
					{PlantID: "p1", SN: "INV1", Model: "HMS-800", Power: 1500},
					{PlantID: "p1", SN: "INV2", Model: "HMS-800", Power: 1500},
				},
			},
			{
				Timestamp: testNow.Add(-time.Minute),
				Plant:     types.PlantData{PlantID: "p2", PlantName: "Barn", Power: 1200},
			},
		},
		Errors: map[string]string{types.PlantErrorKey("p2"): "hypon: get inverters: rate limit exceeded"},
	}
}

func serve(srv *Server, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	srv.setupHandler().ServeHTTP(w, req)
	return w
}
