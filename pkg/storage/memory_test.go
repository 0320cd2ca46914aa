package storage

import (
	"context"
	"testing"
	"time"

	"github.com/hyponcloud/hyponcloud/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryProvider(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("Overview", func(t *testing.T) {
		m := NewMemory()
		for i, power := range []int{300, 100, 200} {
			require.NoError(t, m.InsertOverview(ctx, types.OverviewSnapshot{
				Timestamp: now.Add(time.Duration(2-i) * time.Minute),
				Overview:  types.OverviewData{Power: power},
			}))
		}

		history, err := m.GetOverviewHistory(ctx, now, now.Add(time.Hour))
		require.NoError(t, err)
		require.Len(t, history, 3)
		assert.Equal(t, 200, history[0].Overview.Power)
		assert.Equal(t, 100, history[1].Overview.Power)
		assert.Equal(t, 300, history[2].Overview.Power)

		t.Run("RangeFiltering", func(t *testing.T) {
			history, err := m.GetOverviewHistory(ctx, now.Add(time.Minute), now.Add(2*time.Minute))
			require.NoError(t, err)
			require.Len(t, history, 1, "end is exclusive")
			assert.Equal(t, 100, history[0].Overview.Power)
		})

		t.Run("SameSecondOverwrites", func(t *testing.T) {
			require.NoError(t, m.InsertOverview(ctx, types.OverviewSnapshot{
				Timestamp: now.Add(500 * time.Millisecond),
				Overview:  types.OverviewData{Power: 999},
			}))
			history, err := m.GetOverviewHistory(ctx, now, now.Add(time.Hour))
			require.NoError(t, err)
			require.Len(t, history, 3)
			assert.Equal(t, 999, history[0].Overview.Power)
		})

		t.Run("MissingTimestamp", func(t *testing.T) {
			assert.Error(t, m.InsertOverview(ctx, types.OverviewSnapshot{}))
		})
	})

	t.Run("Plants", func(t *testing.T) {
		m := NewMemory()
		_, err := m.GetLatestPlantSnapshot(ctx, "p1")
		assert.ErrorIs(t, err, ErrNotFound)

		s1 := types.PlantSnapshot{
			Timestamp: now,
			Plant:     types.PlantData{PlantID: "p1", Power: 10},
			Inverters: []types.InverterData{{PlantID: "p1", SN: "A"}},
		}
		s2 := types.PlantSnapshot{
			Timestamp: now.Add(time.Minute),
			Plant:     types.PlantData{PlantID: "p1", Power: 20},
		}
		other := types.PlantSnapshot{
			Timestamp: now,
			Plant:     types.PlantData{PlantID: "p2", Power: 5},
		}
		require.NoError(t, m.InsertPlantSnapshot(ctx, s1))
		require.NoError(t, m.InsertPlantSnapshot(ctx, s2))
		require.NoError(t, m.InsertPlantSnapshot(ctx, other))

		latest, err := m.GetLatestPlantSnapshot(ctx, "p1")
		require.NoError(t, err)
		assert.Equal(t, s2, latest)

		history, err := m.GetPlantHistory(ctx, "p1", now.Add(-time.Hour), now.Add(time.Hour))
		require.NoError(t, err)
		assert.Equal(t, []types.PlantSnapshot{s1, s2}, history)

		history, err = m.GetPlantHistory(ctx, "missing", now.Add(-time.Hour), now.Add(time.Hour))
		require.NoError(t, err)
		assert.Empty(t, history)

		assert.Error(t, m.InsertPlantSnapshot(ctx, types.PlantSnapshot{Timestamp: now}))
		_, err = m.GetPlantHistory(ctx, "", now, now)
		assert.Error(t, err)
	})

	t.Run("Limit", func(t *testing.T) {
		m := NewMemory()
		for i := 0; i < maxMemoryHistory+10; i++ {
			require.NoError(t, m.InsertOverview(ctx, types.OverviewSnapshot{
				Timestamp: now.Add(time.Duration(i) * time.Second),
				Overview:  types.OverviewData{Power: i},
			}))
		}
		history, err := m.GetOverviewHistory(ctx, now, now.Add(24*time.Hour))
		require.NoError(t, err)
		require.Len(t, history, maxMemoryHistory)
		assert.Equal(t, 10, history[0].Overview.Power)
	})

	assert.NoError(t, NewMemory().Close())
}
