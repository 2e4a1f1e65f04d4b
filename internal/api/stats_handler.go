package api

import (
	"net/http"

	"github.com/amatoti/outreach/internal/campaign"
)

// StatsHandler handles GET /api/v1/stats: the loaded-contacts count and
// sent/failed totals shown on the original tool's home page.
func StatsHandler(session *campaign.Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sent, failed := session.Log().Counts()
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"contacts_loaded": len(session.Contacts()),
			"emails_sent":     sent,
			"failures":        failed,
			"has_attachment":  session.Attachment() != nil,
		})
	}
}
