package api

import (
	"net/http"

	"github.com/amatoti/outreach/internal/campaign"
	"github.com/amatoti/outreach/internal/logger"
)

// ListLogsHandler handles GET /api/v1/logs, returning every recorded send
// attempt in append order.
func ListLogsHandler(session *campaign.Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entries := session.Log().Entries()
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"count":   len(entries),
			"entries": entries,
		})
	}
}

// ExportLogsHandler handles GET /api/v1/logs/export, serving the log as a
// downloadable CSV with the persisted column set.
func ExportLogsHandler(session *campaign.Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := session.Log().ExportCSV()
		if err != nil {
			respondError(w, http.StatusInternalServerError, "could not export log")
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="outreach_log.csv"`)
		w.WriteHeader(http.StatusOK)
		w.Write(data)
	}
}

// ClearLogsHandler handles DELETE /api/v1/logs. The persisted file is removed
// and the in-memory log reset to zero rows.
func ClearLogsHandler(session *campaign.Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromContext(r.Context())
		if err := session.Log().Clear(); err != nil {
			log.Error().Err(err).Msg("could not clear outreach log")
			respondError(w, http.StatusInternalServerError, "could not clear log")
			return
		}
		log.Info().Msg("outreach log cleared")
		respondJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
	}
}
