package routes

import (
	"net/http"
	"os"
	"path/filepath"

	"photosorter/internal/config"
	"photosorter/internal/handlers"
	"photosorter/internal/logger"
	"photosorter/internal/middleware"
	"photosorter/internal/services"
)

// dynamicHTMLHandler serves /path as /static/path.html if the file exists; otherwise 404.
func dynamicHTMLHandler(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path

	if path == "/" {
		path = "/index"
	}

	filePath := filepath.Join("static", path+".html")

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		http.NotFound(w, r)
		return
	}

	http.ServeFile(w, r, filePath)
}

// SetupRoutes registers HTTP routes, static file serving and API endpoints,
// and wraps the mux with the request logging middleware.
func SetupRoutes(manager *services.Manager, cfg *config.Config, logger *logger.Logger) http.Handler {
	mux := http.NewServeMux()

	// Static files
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir("static"))))

	// API endpoints
	mux.HandleFunc("/api/upload", handlers.UploadHandler(manager, cfg, logger))
	mux.HandleFunc("/api/progress", handlers.ProgressWebsocketHandler(manager, logger))
	mux.HandleFunc("/api/results", handlers.GetResultsHandler(manager, logger))
	mux.HandleFunc("/api/results/view", handlers.ViewResultHandler(manager))
	mux.HandleFunc("/api/results/delete", handlers.DeleteResultHandler(manager, logger))
	mux.HandleFunc("/api/results/clear", handlers.ClearResultsHandler(manager, logger))
	mux.HandleFunc("/api/results/stats", handlers.GetStatsHandler(manager, logger))
	mux.HandleFunc("/api/runs", handlers.GetRunsHandler(manager, logger))

	// Log endpoints
	mux.HandleFunc("/logs/info", handlers.ShowInfoLogsHandler(cfg))
	mux.HandleFunc("/logs/warning", handlers.ShowWarningLogsHandler(cfg))
	mux.HandleFunc("/logs/error", handlers.ShowErrorLogsHandler(cfg))

	mux.HandleFunc("/logs/info/clear", handlers.ClearInfoLogsHandler(logger))
	mux.HandleFunc("/logs/warning/clear", handlers.ClearWarningLogsHandler(logger))
	mux.HandleFunc("/logs/error/clear", handlers.ClearErrorLogsHandler(logger))

	// Automatic HTML handler mapping for example: /gallery -> /static/gallery.html
	mux.HandleFunc("/", dynamicHTMLHandler)

	// Apply middleware
	return middleware.RequestLogMiddleware(logger, mux)
}
