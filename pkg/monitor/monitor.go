package monitor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/hyponcloud/hyponcloud/pkg/hypon"
	"github.com/hyponcloud/hyponcloud/pkg/log"
	"github.com/hyponcloud/hyponcloud/pkg/storage"
	"github.com/hyponcloud/hyponcloud/pkg/types"
	"github.com/levenlabs/go-lflag"
	"github.com/prometheus/client_golang/prometheus"
)

// DefaultPollInterval is how often Run collects by default.
const DefaultPollInterval = 5 * time.Minute

// Source is the subset of *hypon.Client the Monitor collects from.
type Source interface {
	GetOverview(ctx context.Context, opts ...hypon.RequestOption) (types.OverviewData, error)
	GetPlants(ctx context.Context, opts ...hypon.RequestOption) ([]types.PlantData, error)
	GetInverters(ctx context.Context, plantID string, opts ...hypon.RequestOption) ([]types.InverterData, error)
	GetAdminInfo(ctx context.Context, opts ...hypon.RequestOption) (types.AdminInfo, error)
}

var _ Source = (*hypon.Client)(nil)

// Monitor periodically collects the state of an account, persists it and
// exposes it as Prometheus metrics.
type Monitor struct {
	source   Source
	storage  storage.Database
	interval time.Duration

	registry *prometheus.Registry
	metrics  *metrics

	// collectMu serializes collections
	collectMu sync.Mutex

	mu     sync.RWMutex
	latest types.Status
	ok     bool

	now func() time.Time
}

// New returns a Monitor collecting from src into db every interval.
func New(src Source, db storage.Database, interval time.Duration) *Monitor {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	m := &Monitor{
		source:   src,
		storage:  db,
		interval: interval,
		registry: prometheus.NewRegistry(),
		metrics:  newMetrics(),
		now:      time.Now,
	}
	m.metrics.register(m.registry)
	return m
}

// Configured returns a Monitor whose poll interval comes from flags.
func Configured(src Source, db storage.Database) *Monitor {
	m := New(src, db, DefaultPollInterval)

	interval := lflag.Duration("poll-interval", DefaultPollInterval, "How often to collect from the Hypontech cloud")

	lflag.Do(func() {
		if *interval > 0 {
			m.interval = *interval
		}
	})

	return m
}

// Registry returns the registry holding the Monitor's metrics.
func (m *Monitor) Registry() *prometheus.Registry {
	return m.registry
}

// Latest returns the result of the last successful collection.
func (m *Monitor) Latest() (types.Status, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.latest, m.ok
}

// Collect fetches the account, its overview, its plants and their inverters.
// The overview and plant list are required; a plant whose inverters cannot be
// fetched is reported in Status.Errors and is not persisted. On success the
// result is persisted, published as metrics and returned by Latest.
func (m *Monitor) Collect(ctx context.Context) (types.Status, error) {
	m.collectMu.Lock()
	defer m.collectMu.Unlock()

	start := m.now()
	status := types.Status{
		Timestamp: start.UTC().Truncate(time.Second),
		Errors:    map[string]string{},
	}

	account, err := m.source.GetAdminInfo(ctx)
	if err != nil {
		log.Ctx(ctx).WarnContext(ctx, "failed to get admin info", slog.Any("error", err))
		m.metrics.collectErrors.WithLabelValues(stageAccount).Inc()
		status.Errors[types.StatusErrorAccount] = err.Error()
		if prev, ok := m.Latest(); ok {
			account = prev.Account
		}
	}
	status.Account = account

	status.Overview, err = m.source.GetOverview(ctx)
	if err != nil {
		m.metrics.collectErrors.WithLabelValues(stageOverview).Inc()
		return types.Status{}, fmt.Errorf("failed to get overview: %w", err)
	}

	plants, err := m.source.GetPlants(ctx)
	if err != nil {
		m.metrics.collectErrors.WithLabelValues(stagePlants).Inc()
		return types.Status{}, fmt.Errorf("failed to get plants: %w", err)
	}

	status.Plants = make([]types.PlantSnapshot, 0, len(plants))
	for _, plant := range plants {
		snapshot := types.PlantSnapshot{
			Timestamp: status.Timestamp,
			Plant:     plant,
		}
		inverters, err := m.source.GetInverters(ctx, plant.PlantID)
		if err != nil {
			if ctx.Err() != nil {
				return types.Status{}, fmt.Errorf("failed to get inverters: %w", err)
			}
			log.Ctx(ctx).WarnContext(
				ctx,
				"failed to get inverters, skipping plant",
				slog.String("plantID", plant.PlantID),
				slog.Any("error", err),
			)
			m.metrics.collectErrors.WithLabelValues(stageInverters).Inc()
			status.Errors[types.PlantErrorKey(plant.PlantID)] = err.Error()
		} else {
			snapshot.Inverters = inverters
		}
		status.Plants = append(status.Plants, snapshot)
	}

	m.persist(ctx, status)
	m.metrics.observe(status)

	m.mu.Lock()
	m.latest = status
	m.ok = true
	m.mu.Unlock()

	log.Ctx(ctx).InfoContext(
		ctx,
		"collected hypon status",
		slog.Int("plants", len(status.Plants)),
		slog.Int("errors", len(status.Errors)),
		slog.Int("power", status.Overview.Power),
		slog.Duration("took", m.now().Sub(start)),
	)
	return status, nil
}

// persist stores status. Storage failures are logged and counted but do not
// fail the collection.
func (m *Monitor) persist(ctx context.Context, status types.Status) {
	if m.storage == nil {
		return
	}
	err := m.storage.InsertOverview(ctx, types.OverviewSnapshot{
		Timestamp: status.Timestamp,
		Overview:  status.Overview,
	})
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to store overview", slog.Any("error", err))
		m.metrics.collectErrors.WithLabelValues(stageStorage).Inc()
	}
	for _, ps := range status.Plants {
		if _, failed := status.PlantError(ps.Plant.PlantID); failed {
			continue
		}
		if err := m.storage.InsertPlantSnapshot(ctx, ps); err != nil {
			log.Ctx(ctx).ErrorContext(ctx, "failed to store plant snapshot", slog.String("plantID", ps.Plant.PlantID), slog.Any("error", err))
			m.metrics.collectErrors.WithLabelValues(stageStorage).Inc()
		}
	}
}

// Run collects immediately and then every poll interval until ctx is done.
// Failed collections are logged and retried on the next tick.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	log.Ctx(ctx).InfoContext(ctx, "starting monitor", slog.Duration("interval", m.interval))
	for {
		if _, err := m.Collect(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Ctx(ctx).ErrorContext(ctx, "collection failed", slog.Any("error", err))
		}
		select {
		case <-ctx.Done():
			log.Ctx(ctx).InfoContext(ctx, "monitor stopped")
			return
		case <-ticker.C:
		}
	}
}

// Close releases the source when it holds resources.
func (m *Monitor) Close() error {
	if c, ok := m.source.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
