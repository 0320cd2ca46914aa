package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/hyponcloud/hyponcloud/pkg/log"
	"github.com/hyponcloud/hyponcloud/pkg/types"
)

const (
	defaultHistoryRange = 24 * time.Hour
	maxHistoryRange     = 7 * 24 * time.Hour
)

func (s *Server) handleOverviewHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start, end, err := s.parseTimeRange(r)
	if err != nil {
		writeJSONError(w, "invalid time range: "+err.Error(), http.StatusBadRequest)
		return
	}

	history, err := s.storage.GetOverviewHistory(ctx, start, end)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to get overview history", slog.Any("error", err))
		writeJSONError(w, "failed to get overview history", http.StatusInternalServerError)
		return
	}
	if history == nil {
		history = []types.OverviewSnapshot{}
	}

	s.setHistoryCacheControl(w, end)
	writeJSON(w, history)
}

func (s *Server) handlePlantHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	plantID := r.PathValue("plantID")
	start, end, err := s.parseTimeRange(r)
	if err != nil {
		writeJSONError(w, "invalid time range: "+err.Error(), http.StatusBadRequest)
		return
	}

	history, err := s.storage.GetPlantHistory(ctx, plantID, start, end)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to get plant history", slog.String("plantID", plantID), slog.Any("error", err))
		writeJSONError(w, "failed to get plant history", http.StatusInternalServerError)
		return
	}
	if history == nil {
		history = []types.PlantSnapshot{}
	}

	s.setHistoryCacheControl(w, end)
	writeJSON(w, history)
}

// setHistoryCacheControl caches ranges that ended before today for a day and
// anything else for a minute.
func (s *Server) setHistoryCacheControl(w http.ResponseWriter, end time.Time) {
	today := s.now().Truncate(24 * time.Hour)
	if end.Before(today) {
		w.Header().Set("Cache-Control", "private, max-age=86400")
	} else {
		w.Header().Set("Cache-Control", "private, max-age=60")
	}
}

func (s *Server) parseTimeRange(r *http.Request) (time.Time, time.Time, error) {
	startStr := r.URL.Query().Get("start")
	endStr := r.URL.Query().Get("end")

	if startStr == "" && endStr == "" {
		// Default to last 24 hours if not specified
		end := s.now()
		start := end.Add(-defaultHistoryRange)
		return start, end, nil
	}
	if startStr == "" || endStr == "" {
		return time.Time{}, time.Time{}, fmt.Errorf("start and end must be given together")
	}

	start, err := time.Parse(time.RFC3339, startStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid start time: %w", err)
	}

	end, err := time.Parse(time.RFC3339, endStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid end time: %w", err)
	}

	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("start time must be before end time")
	}

	if end.Sub(start) > maxHistoryRange {
		return time.Time{}, time.Time{}, fmt.Errorf("time range cannot exceed %s", maxHistoryRange)
	}

	return start, end, nil
}
