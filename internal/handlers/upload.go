package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"photosorter/internal/config"
	"photosorter/internal/logger"
	"photosorter/internal/services"
	"photosorter/internal/services/ai"
	"photosorter/internal/services/pipeline"
)

// UploadResponse tells the client what happened to its selection.
type UploadResponse struct {
	RunID    string `json:"runId"`
	Accepted int    `json:"accepted"`
	Skipped  int    `json:"skipped"`
}

// UploadHandler accepts a multipart selection of files (drag-and-drop, file
// picker and folder picker all arrive here), keeps the image-typed ones and
// starts a classification run. A run already in flight is canceled and
// replaced. With the model unavailable the request is refused with 503.
func UploadHandler(manager *services.Manager, cfg *config.Config, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		if err := r.ParseMultipartForm(cfg.MaxUploadSize << 20); err != nil {
			logger.Warning("Invalid upload request: %v", err)
			http.Error(w, "Invalid multipart request", http.StatusBadRequest)
			return
		}
		defer r.MultipartForm.RemoveAll()

		var inputs []pipeline.Input
		for _, header := range r.MultipartForm.File["images"] {
			file, err := header.Open()
			if err != nil {
				logger.Error("Failed to open uploaded part %s: %v", header.Filename, err)
				http.Error(w, "Error reading upload", http.StatusBadRequest)
				return
			}
			data, err := io.ReadAll(file)
			file.Close()
			if err != nil {
				logger.Error("Failed to read uploaded part %s: %v", header.Filename, err)
				http.Error(w, "Error reading upload", http.StatusBadRequest)
				return
			}
			inputs = append(inputs, pipeline.Input{Name: header.Filename, Data: data})
		}

		// Non-image files are dropped silently, they never count as failures.
		filtered := pipeline.FilterImages(inputs)

		stats, err := manager.StartRun(filtered)
		if err != nil {
			if errors.Is(err, ai.ErrModelUnavailable) {
				http.Error(w, "Detection model unavailable", http.StatusServiceUnavailable)
				return
			}
			logger.Error("Failed to start run: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		logger.Info("Upload accepted: %d images, %d skipped", len(filtered), len(inputs)-len(filtered))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(UploadResponse{
			RunID:    stats.RunID,
			Accepted: len(filtered),
			Skipped:  len(inputs) - len(filtered),
		})
	}
}
