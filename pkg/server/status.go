package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/hyponcloud/hyponcloud/pkg/log"
	"github.com/hyponcloud/hyponcloud/pkg/storage"
	"github.com/hyponcloud/hyponcloud/pkg/types"
)

// latest returns the last collected status or answers 503 when nothing has
// been collected yet.
func (s *Server) latest(w http.ResponseWriter) (types.Status, bool) {
	status, ok := s.monitor.Latest()
	if !ok {
		w.Header().Set("Retry-After", "60")
		writeJSONError(w, "no data collected yet", http.StatusServiceUnavailable)
		return types.Status{}, false
	}
	w.Header().Set("Cache-Control", "private, max-age=60")
	return status, true
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status, ok := s.latest(w)
	if !ok {
		return
	}
	writeJSON(w, status)
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	status, ok := s.latest(w)
	if !ok {
		return
	}
	writeJSON(w, types.OverviewSnapshot{
		Timestamp: status.Timestamp,
		Overview:  status.Overview,
	})
}

func (s *Server) handlePlants(w http.ResponseWriter, r *http.Request) {
	status, ok := s.latest(w)
	if !ok {
		return
	}
	plants := make([]types.PlantData, 0, len(status.Plants))
	for _, ps := range status.Plants {
		plants = append(plants, ps.Plant)
	}
	writeJSON(w, plants)
}

// handlePlant answers from the last collection and falls back to storage for
// plants the cloud no longer lists.
func (s *Server) handlePlant(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	plantID := r.PathValue("plantID")

	if status, ok := s.monitor.Latest(); ok {
		if ps, ok := status.Plant(plantID); ok {
			writeJSON(w, ps)
			return
		}
	}

	ps, err := s.storage.GetLatestPlantSnapshot(ctx, plantID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeJSONError(w, "plant not found", http.StatusNotFound)
			return
		}
		log.Ctx(ctx).ErrorContext(ctx, "failed to get plant snapshot", slog.String("plantID", plantID), slog.Any("error", err))
		writeJSONError(w, "failed to get plant", http.StatusInternalServerError)
		return
	}
	writeJSON(w, ps)
}

func (s *Server) handleInverters(w http.ResponseWriter, r *http.Request) {
	status, ok := s.latest(w)
	if !ok {
		return
	}
	plantID := r.PathValue("plantID")
	ps, ok := status.Plant(plantID)
	if !ok {
		writeJSONError(w, "plant not found", http.StatusNotFound)
		return
	}
	if msg, failed := status.PlantError(plantID); failed {
		writeJSONError(w, "inverters unavailable: "+msg, http.StatusBadGateway)
		return
	}
	inverters := ps.Inverters
	if inverters == nil {
		inverters = []types.InverterData{}
	}
	writeJSON(w, inverters)
}
