package storage

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/hyponcloud/hyponcloud/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFirestoreProvider(t *testing.T) {
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}

	// Use a random database for isolation
	randDB := fmt.Sprintf("test-db-%d", time.Now().UnixNano())
	f := &FirestoreProvider{
		projectID: "test-project-id",
		database:  randDB,
		emulator:  os.Getenv("FIRESTORE_EMULATOR_HOST"),
	}

	ctx := context.Background()
	require.NoError(t, f.Validate())
	require.NoError(t, f.Init(ctx))
	defer f.Close()

	t.Run("Overview", func(t *testing.T) {
		now := time.Now().Truncate(time.Second).UTC() // RFC3339 doc IDs have second precision
		o1 := types.OverviewSnapshot{Timestamp: now.Add(-time.Hour), Overview: types.OverviewData{Power: 100, Company: "W"}}
		o2 := types.OverviewSnapshot{Timestamp: now, Overview: types.OverviewData{Power: 200, Company: "W"}}
		old := types.OverviewSnapshot{Timestamp: now.Add(-3 * time.Hour), Overview: types.OverviewData{Power: 1}}
		require.NoError(t, f.InsertOverview(ctx, o1))
		require.NoError(t, f.InsertOverview(ctx, o2))
		require.NoError(t, f.InsertOverview(ctx, old))

		history, err := f.GetOverviewHistory(ctx, now.Add(-2*time.Hour), now.Add(time.Minute))
		require.NoError(t, err)
		require.Len(t, history, 2)
		assert.Equal(t, 100, history[0].Overview.Power)
		assert.True(t, history[0].Timestamp.Equal(o1.Timestamp))
		assert.Equal(t, 200, history[1].Overview.Power)
	})

	t.Run("Plants", func(t *testing.T) {
		now := time.Now().Truncate(time.Second).UTC()
		_, err := f.GetLatestPlantSnapshot(ctx, "plant-1")
		assert.ErrorIs(t, err, ErrNotFound)

		s1 := types.PlantSnapshot{
			Timestamp: now.Add(-time.Minute),
			Plant:     types.PlantData{PlantID: "plant-1", PlantName: "Roof", Power: 10},
			Inverters: []types.InverterData{{PlantID: "plant-1", SN: "SN1", Power: 10}},
		}
		s2 := types.PlantSnapshot{
			Timestamp: now,
			Plant:     types.PlantData{PlantID: "plant-1", PlantName: "Roof", Power: 20},
			Inverters: []types.InverterData{{PlantID: "plant-1", SN: "SN1", Power: 20}},
		}
		require.NoError(t, f.InsertPlantSnapshot(ctx, s1))
		require.NoError(t, f.InsertPlantSnapshot(ctx, s2))

		latest, err := f.GetLatestPlantSnapshot(ctx, "plant-1")
		require.NoError(t, err)
		assert.Equal(t, 20, latest.Plant.Power)
		require.Len(t, latest.Inverters, 1)
		assert.Equal(t, "SN1", latest.Inverters[0].SN)

		history, err := f.GetPlantHistory(ctx, "plant-1", now.Add(-time.Hour), now.Add(time.Minute))
		require.NoError(t, err)
		require.Len(t, history, 2)
		assert.Equal(t, 10, history[0].Plant.Power)
		assert.Equal(t, 20, history[1].Plant.Power)
	})

	t.Run("EmptyPlantID", func(t *testing.T) {
		_, err := f.GetLatestPlantSnapshot(ctx, "")
		assert.ErrorContains(t, err, "plantID cannot be empty")
	})
}

func TestFirestoreValidate(t *testing.T) {
	assert.NoError(t, (&FirestoreProvider{}).Validate())
	assert.Error(t, (&FirestoreProvider{emulator: "localhost:8087"}).Validate())
	assert.NoError(t, (&FirestoreProvider{emulator: "localhost:8087", projectID: "p"}).Validate())
}
