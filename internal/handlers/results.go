package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gabriel-vasile/mimetype"

	"photosorter/internal/logger"
	"photosorter/internal/model"
	"photosorter/internal/services"
)

// CategoryView is one category bucket in the results listing.
type CategoryView struct {
	Category model.Category          `json:"category"`
	Count    int                     `json:"count"`
	Images   []model.ClassifiedImage `json:"images"`
}

// ResultsData is the full categorized listing plus the run counters.
type ResultsData struct {
	Categories []CategoryView `json:"categories"`
	Stats      model.RunStats `json:"stats"`
	Percent    int            `json:"percent"`
	Running    bool           `json:"running"`
}

// GetResultsHandler lists classified images grouped by category in display order.
func GetResultsHandler(manager *services.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store := manager.GetStore()

		var categories []CategoryView
		for _, c := range model.Categories() {
			images := store.ByCategory(c)
			if images == nil {
				images = []model.ClassifiedImage{}
			}
			categories = append(categories, CategoryView{
				Category: c,
				Count:    len(images),
				Images:   images,
			})
		}

		stats := manager.Stats()
		data := ResultsData{
			Categories: categories,
			Stats:      stats,
			Percent:    stats.Percent(),
			Running:    manager.Busy(),
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(data); err != nil {
			logger.Error("Error encoding JSON response: %v", err)
		}
	}
}

// ViewResultHandler serves the image bytes of a single classified result.
func ViewResultHandler(manager *services.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Query().Get("id")
		if id == "" {
			http.Error(w, "Id parameter is required", http.StatusBadRequest)
			return
		}

		data, err := manager.GetStore().Read(id)
		if err != nil {
			http.Error(w, "Image not found", http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", mimetype.Detect(data).String())
		w.Write(data)
	}
}

// DeleteResultHandler removes a single classified result and releases its
// image file. An unknown id is not an error.
func DeleteResultHandler(manager *services.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Query().Get("id")
		if id == "" {
			http.Error(w, "Id parameter is required", http.StatusBadRequest)
			return
		}

		removed := manager.GetStore().Remove(id)
		if removed {
			logger.Info("Deleted result: %s", id)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"status": "deleted", "id": id, "existed": removed})
	}
}

// ClearResultsHandler removes every classified result and releases all image files.
func ClearResultsHandler(manager *services.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		manager.GetStore().Clear()
		logger.Info("All results cleared")
		w.WriteHeader(http.StatusNoContent)
	}
}

// GetStatsHandler returns the current run counters and per-category totals.
func GetStatsHandler(manager *services.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats := manager.Stats()
		counts := manager.GetStore().CategoryCounts()

		response := map[string]interface{}{
			"stats":      stats,
			"percent":    stats.Percent(),
			"running":    manager.Busy(),
			"categories": counts,
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(response); err != nil {
			logger.Error("Error encoding JSON response: %v", err)
		}
	}
}

// GetRunsHandler returns the recent run history from the journal.
func GetRunsHandler(manager *services.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		repo := manager.GetRunRepository()
		if repo == nil {
			http.Error(w, "Run journal not available", http.StatusInternalServerError)
			return
		}

		runs, err := repo.Recent(50)
		if err != nil {
			logger.Error("Failed to list runs: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if runs == nil {
			runs = []model.Run{}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(runs)
	}
}
