package api

import (
	"net/http"

	"github.com/amatoti/outreach/internal/campaign"
	"github.com/amatoti/outreach/internal/contacts"
	"github.com/amatoti/outreach/internal/logger"
)

// UploadContactsHandler handles POST /api/v1/contacts. It accepts a multipart
// upload under the "file" field (CSV or spreadsheet), loads it into the
// session and reports how many rows survived the empty-email filter. A parse
// error leaves the previously loaded list untouched.
func UploadContactsHandler(session *campaign.Session, maxBytes int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromContext(r.Context())

		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		if err := r.ParseMultipartForm(maxBytes); err != nil {
			respondError(w, http.StatusBadRequest, "invalid multipart upload")
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			respondError(w, http.StatusBadRequest, "missing file field")
			return
		}
		defer file.Close()

		list, err := contacts.Load(file, header.Filename)
		if err != nil {
			log.Warn().Err(err).Str("filename", header.Filename).Msg("contact list rejected")
			respondError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}

		session.SetContacts(list)
		log.Info().Int("count", len(list)).Str("filename", header.Filename).Msg("contact list loaded")
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"loaded":   len(list),
			"filename": header.Filename,
		})
	}
}

// ListContactsHandler handles GET /api/v1/contacts. The optional "q" query
// parameter filters by case-insensitive substring over agency, city and email.
func ListContactsHandler(session *campaign.Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list := contacts.Filter(session.Contacts(), r.URL.Query().Get("q"))
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"count":    len(list),
			"contacts": list,
		})
	}
}
