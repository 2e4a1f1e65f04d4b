package api

import (
	"io"
	"net/http"

	"github.com/amatoti/outreach/internal/campaign"
	"github.com/amatoti/outreach/internal/logger"
	"github.com/amatoti/outreach/internal/mailer"
)

// UploadAttachmentHandler handles POST /api/v1/attachment. The uploaded file
// (typically a CV) is held in memory and attached to every email in
// subsequent runs.
func UploadAttachmentHandler(session *campaign.Session, maxBytes int64) http.HandlerFunc {
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

		content, err := io.ReadAll(file)
		if err != nil {
			respondError(w, http.StatusBadRequest, "could not read upload")
			return
		}
		if len(content) == 0 {
			respondError(w, http.StatusBadRequest, "attachment is empty")
			return
		}

		session.SetAttachment(&mailer.Attachment{
			Filename: header.Filename,
			Content:  content,
		})
		log.Info().Str("filename", header.Filename).Int("bytes", len(content)).Msg("attachment uploaded")
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"filename": header.Filename,
			"bytes":    len(content),
		})
	}
}

// ClearAttachmentHandler handles DELETE /api/v1/attachment. Subsequent runs
// send without an attachment.
func ClearAttachmentHandler(session *campaign.Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session.SetAttachment(nil)
		respondJSON(w, http.StatusNoContent, nil)
	}
}
