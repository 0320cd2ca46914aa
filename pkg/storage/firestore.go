package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/hyponcloud/hyponcloud/pkg/log"
	"github.com/hyponcloud/hyponcloud/pkg/types"
	"github.com/levenlabs/go-lflag"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	overviewHistoryCollection = "overview_history"
	plantsCollection          = "plants"
	plantHistoryCollection    = "history"
)

// FirestoreProvider implements the Database interface using Google Cloud Firestore.
// Snapshots are stored as JSON blobs keyed by their RFC3339 timestamp:
//
//	overview_history/{timestamp}
//	plants/{plantID}                    latest snapshot
//	plants/{plantID}/history/{timestamp}
type FirestoreProvider struct {
	client    *firestore.Client
	projectID string
	database  string
	emulator  string
}

// configuredFirestore sets up the Firestore provider.
// It registers flags for configuration.
func configuredFirestore() *FirestoreProvider {
	projectID := lflag.String("firestore-project-id", "", "Google Cloud Project ID for Firestore")
	database := lflag.String("firestore-database", "", "Google Cloud Firestore Database")
	emulator := lflag.String("firestore-emulator", "", "Use Firestore emulator")

	f := &FirestoreProvider{}

	lflag.Do(func() {
		f.projectID = *projectID
		f.database = *database
		f.emulator = *emulator

		// set this because that's how firestore client expects it
		if *emulator != "" {
			os.Setenv("FIRESTORE_EMULATOR_HOST", *emulator)
		}
	})

	return f
}

// Validate checks if the provider is properly configured.
func (f *FirestoreProvider) Validate() error {
	// the emulator cannot detect a project
	if f.emulator != "" && f.projectID == "" {
		return errors.New("firestore-project-id is required with firestore-emulator")
	}
	return nil
}

// Init initializes the Firestore client.
// This must be called before using the provider methods.
func (f *FirestoreProvider) Init(ctx context.Context) error {
	projectID := f.projectID
	if projectID == "" {
		projectID = firestore.DetectProjectID
	}
	database := f.database
	if database == "" {
		database = firestore.DefaultDatabaseID
	}
	client, err := firestore.NewClientWithDatabase(ctx, projectID, database)
	if err != nil {
		return fmt.Errorf("failed to create firestore client (project=%s, database=%s): %w", projectID, database, err)
	}
	f.client = client
	return nil
}

// Close closes the Firestore client connection.
func (f *FirestoreProvider) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}

func (f *FirestoreProvider) plantDoc(plantID string) (*firestore.DocumentRef, error) {
	if plantID == "" {
		return nil, fmt.Errorf("plantID cannot be empty")
	}
	return f.client.Collection(plantsCollection).Doc(plantID), nil
}

func snapshotFields(v interface{}, ts time.Time) (map[string]interface{}, error) {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"json":      string(jsonBytes),
		"timestamp": ts,
		"version":   types.CurrentSnapshotVersion,
	}, nil
}

// decodeSnapshot unmarshals the json field of doc into v.
func decodeSnapshot(ctx context.Context, doc *firestore.DocumentSnapshot, v interface{}) error {
	val, err := doc.DataAt("json")
	if err != nil {
		log.Ctx(ctx).WarnContext(ctx, "snapshot doc missing json", slog.String("docPath", doc.Ref.Path), slog.Any("err", err))
		return fmt.Errorf("document %s missing 'json' field: %w", doc.Ref.ID, err)
	}
	jsonStr, ok := val.(string)
	if !ok {
		log.Ctx(ctx).WarnContext(ctx, "snapshot doc json not string", slog.String("docPath", doc.Ref.Path))
		return fmt.Errorf("document %s 'json' field is not string", doc.Ref.ID)
	}
	if err := json.Unmarshal([]byte(jsonStr), v); err != nil {
		log.Ctx(ctx).WarnContext(ctx, "failed to unmarshal snapshot", slog.String("docPath", doc.Ref.Path), slog.Any("err", err))
		return fmt.Errorf("failed to unmarshal document (id=%s): %w", doc.Ref.ID, err)
	}
	return nil
}

// queryRange iterates the documents of coll whose IDs fall in [start, end)
// in ascending order.
func queryRange(ctx context.Context, coll *firestore.CollectionRef, start, end time.Time, fn func(doc *firestore.DocumentSnapshot) error) error {
	iter := coll.
		Where(firestore.DocumentID, ">=", coll.Doc(docID(start))).
		Where(firestore.DocumentID, "<", coll.Doc(docID(end))).
		OrderBy(firestore.DocumentID, firestore.Asc).
		Documents(ctx)
	defer iter.Stop()

	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			return nil
		}
		if err != nil {
			return fmt.Errorf("error iterating %s: %w", coll.ID, err)
		}
		if err := fn(doc); err != nil {
			return err
		}
	}
}

// InsertOverview adds an overview snapshot to the "overview_history" collection.
// The document ID is the RFC3339 timestamp for efficient range queries.
func (f *FirestoreProvider) InsertOverview(ctx context.Context, snapshot types.OverviewSnapshot) error {
	if snapshot.Timestamp.IsZero() {
		return fmt.Errorf("overview snapshot missing timestamp")
	}
	fields, err := snapshotFields(snapshot, snapshot.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to marshal overview: %w", err)
	}
	_, err = f.client.Collection(overviewHistoryCollection).Doc(docID(snapshot.Timestamp)).Set(ctx, fields)
	if err != nil {
		return fmt.Errorf("failed to insert overview: %w", err)
	}
	return nil
}

// GetOverviewHistory retrieves overview snapshots within the specified time range.
func (f *FirestoreProvider) GetOverviewHistory(ctx context.Context, start, end time.Time) ([]types.OverviewSnapshot, error) {
	var snapshots []types.OverviewSnapshot
	err := queryRange(ctx, f.client.Collection(overviewHistoryCollection), start, end, func(doc *firestore.DocumentSnapshot) error {
		var s types.OverviewSnapshot
		if err := decodeSnapshot(ctx, doc, &s); err != nil {
			return err
		}
		snapshots = append(snapshots, s)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snapshots, nil
}

// InsertPlantSnapshot writes the snapshot to the plant's history and replaces
// the plant document with it. Both writes are committed atomically.
func (f *FirestoreProvider) InsertPlantSnapshot(ctx context.Context, snapshot types.PlantSnapshot) error {
	if snapshot.Timestamp.IsZero() {
		return fmt.Errorf("plant snapshot missing timestamp")
	}
	doc, err := f.plantDoc(snapshot.Plant.PlantID)
	if err != nil {
		return err
	}
	fields, err := snapshotFields(snapshot, snapshot.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to marshal plant snapshot: %w", err)
	}

	err = f.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if err := tx.Set(doc.Collection(plantHistoryCollection).Doc(docID(snapshot.Timestamp)), fields); err != nil {
			return err
		}
		return tx.Set(doc, fields)
	})
	if err != nil {
		return fmt.Errorf("failed to insert plant snapshot (plantID=%s): %w", snapshot.Plant.PlantID, err)
	}
	return nil
}

// GetLatestPlantSnapshot retrieves the most recent snapshot of a plant.
func (f *FirestoreProvider) GetLatestPlantSnapshot(ctx context.Context, plantID string) (types.PlantSnapshot, error) {
	ref, err := f.plantDoc(plantID)
	if err != nil {
		return types.PlantSnapshot{}, err
	}
	doc, err := ref.Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return types.PlantSnapshot{}, fmt.Errorf("%w: plant %s", ErrNotFound, plantID)
		}
		return types.PlantSnapshot{}, fmt.Errorf("failed to get plant %s: %w", plantID, err)
	}
	var s types.PlantSnapshot
	if err := decodeSnapshot(ctx, doc, &s); err != nil {
		return types.PlantSnapshot{}, err
	}
	return s, nil
}

// GetPlantHistory retrieves snapshots of a plant within the specified time range.
func (f *FirestoreProvider) GetPlantHistory(ctx context.Context, plantID string, start, end time.Time) ([]types.PlantSnapshot, error) {
	ref, err := f.plantDoc(plantID)
	if err != nil {
		return nil, err
	}
	var snapshots []types.PlantSnapshot
	err = queryRange(ctx, ref.Collection(plantHistoryCollection), start, end, func(doc *firestore.DocumentSnapshot) error {
		var s types.PlantSnapshot
		if err := decodeSnapshot(ctx, doc, &s); err != nil {
			return err
		}
		snapshots = append(snapshots, s)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snapshots, nil
}
