package storage

import (
	"context"
	"errors"
	"time"

	"github.com/hyponcloud/hyponcloud/pkg/types"
)

var (
	ErrNotFound = errors.New("not found")
)

// Database persists collected snapshots of the account.
type Database interface {
	// Overview
	InsertOverview(ctx context.Context, snapshot types.OverviewSnapshot) error
	GetOverviewHistory(ctx context.Context, start, end time.Time) ([]types.OverviewSnapshot, error)

	// Plants
	// InsertPlantSnapshot appends to the plant's history and replaces its
	// latest snapshot.
	InsertPlantSnapshot(ctx context.Context, snapshot types.PlantSnapshot) error
	GetLatestPlantSnapshot(ctx context.Context, plantID string) (types.PlantSnapshot, error)
	GetPlantHistory(ctx context.Context, plantID string, start, end time.Time) ([]types.PlantSnapshot, error)

	// Lifecycle
	Close() error
}

// docID formats t the way history documents are keyed. IDs sort in time
// order and have second precision.
func docID(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
