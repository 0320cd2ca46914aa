package storagemock

import (
	"context"
	"time"

	"github.com/hyponcloud/hyponcloud/pkg/storage"
	"github.com/hyponcloud/hyponcloud/pkg/types"
	"github.com/stretchr/testify/mock"
)

type MockDatabase struct {
	mock.Mock
}

var _ storage.Database = (*MockDatabase)(nil)

func (m *MockDatabase) InsertOverview(ctx context.Context, snapshot types.OverviewSnapshot) error {
	args := m.Called(ctx, snapshot)
	return args.Error(0)
}

func (m *MockDatabase) GetOverviewHistory(ctx context.Context, start, end time.Time) ([]types.OverviewSnapshot, error) {
	args := m.Called(ctx, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.OverviewSnapshot), args.Error(1)
}

func (m *MockDatabase) InsertPlantSnapshot(ctx context.Context, snapshot types.PlantSnapshot) error {
	args := m.Called(ctx, snapshot)
	return args.Error(0)
}

func (m *MockDatabase) GetLatestPlantSnapshot(ctx context.Context, plantID string) (types.PlantSnapshot, error) {
	args := m.Called(ctx, plantID)
	return args.Get(0).(types.PlantSnapshot), args.Error(1)
}

func (m *MockDatabase) GetPlantHistory(ctx context.Context, plantID string, start, end time.Time) ([]types.PlantSnapshot, error) {
	args := m.Called(ctx, plantID, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.PlantSnapshot), args.Error(1)
}

func (m *MockDatabase) Close() error {
	args := m.Called()
	return args.Error(0)
}
