package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/hyponcloud/hyponcloud/pkg/types"
)

// maxMemoryHistory bounds each in-memory series, about a week of snapshots
// at one per minute.
const maxMemoryHistory = 7 * 24 * 60

// MemoryProvider implements the Database interface in process memory. It
// follows the same keying as FirestoreProvider: snapshots with the same
// second replace each other.
type MemoryProvider struct {
	mu       sync.RWMutex
	overview []types.OverviewSnapshot
	plants   map[string][]types.PlantSnapshot
	latest   map[string]types.PlantSnapshot
}

// NewMemory returns an empty MemoryProvider.
func NewMemory() *MemoryProvider {
	return &MemoryProvider{
		plants: map[string][]types.PlantSnapshot{},
		latest: map[string]types.PlantSnapshot{},
	}
}

// insertSeries inserts v into the time ordered series s, replacing an entry
// with the same document ID, and drops the oldest entries over the limit.
func insertSeries[T any](s []T, v T, ts func(T) time.Time) []T {
	id := docID(ts(v))
	i := sort.Search(len(s), func(i int) bool {
		return docID(ts(s[i])) >= id
	})
	if i < len(s) && docID(ts(s[i])) == id {
		s[i] = v
		return s
	}
	s = append(s, v)
	copy(s[i+1:], s[i:])
	s[i] = v
	if len(s) > maxMemoryHistory {
		s = s[len(s)-maxMemoryHistory:]
	}
	return s
}

func rangeSeries[T any](s []T, start, end time.Time, ts func(T) time.Time) []T {
	startID, endID := docID(start), docID(end)
	var out []T
	for _, v := range s {
		id := docID(ts(v))
		if id >= startID && id < endID {
			out = append(out, v)
		}
	}
	return out
}

func overviewTime(s types.OverviewSnapshot) time.Time { return s.Timestamp }
func plantTime(s types.PlantSnapshot) time.Time       { return s.Timestamp }

func (m *MemoryProvider) InsertOverview(ctx context.Context, snapshot types.OverviewSnapshot) error {
	if snapshot.Timestamp.IsZero() {
		return fmt.Errorf("overview snapshot missing timestamp")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.overview = insertSeries(m.overview, snapshot, overviewTime)
	return nil
}

func (m *MemoryProvider) GetOverviewHistory(ctx context.Context, start, end time.Time) ([]types.OverviewSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return rangeSeries(m.overview, start, end, overviewTime), nil
}

func (m *MemoryProvider) InsertPlantSnapshot(ctx context.Context, snapshot types.PlantSnapshot) error {
	if snapshot.Timestamp.IsZero() {
		return fmt.Errorf("plant snapshot missing timestamp")
	}
	plantID := snapshot.Plant.PlantID
	if plantID == "" {
		return fmt.Errorf("plantID cannot be empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.plants[plantID] = insertSeries(m.plants[plantID], snapshot, plantTime)
	m.latest[plantID] = snapshot
	return nil
}

func (m *MemoryProvider) GetLatestPlantSnapshot(ctx context.Context, plantID string) (types.PlantSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.latest[plantID]
	if !ok {
		return types.PlantSnapshot{}, fmt.Errorf("%w: plant %s", ErrNotFound, plantID)
	}
	return s, nil
}

func (m *MemoryProvider) GetPlantHistory(ctx context.Context, plantID string, start, end time.Time) ([]types.PlantSnapshot, error) {
	if plantID == "" {
		return nil, fmt.Errorf("plantID cannot be empty")
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return rangeSeries(m.plants[plantID], start, end, plantTime), nil
}

func (m *MemoryProvider) Close() error {
	return nil
}
