package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/amatoti/outreach/internal/campaign"
	"github.com/amatoti/outreach/internal/render"
)

// templateRequest is the JSON body for replacing the message template.
type templateRequest struct {
	Template string `json:"template"`
}

// GetTemplateHandler handles GET /api/v1/template.
func GetTemplateHandler(session *campaign.Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"template": session.Template()})
	}
}

// PutTemplateHandler handles PUT /api/v1/template. Templates referencing
// unrecognized placeholders are rejected here so a run cannot start with a
// template that would fail on every row.
func PutTemplateHandler(session *campaign.Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req templateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Template == "" {
			respondError(w, http.StatusBadRequest, "template must not be empty")
			return
		}
		if err := render.Validate(req.Template); err != nil {
			respondError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}

		session.SetTemplate(req.Template)
		respondJSON(w, http.StatusOK, map[string]string{"template": req.Template})
	}
}

// PreviewTemplateHandler handles POST /api/v1/template/preview. It renders
// the session template against the first loaded contact, the same preview the
// original tool shows before a run.
func PreviewTemplateHandler(session *campaign.Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		preview, err := render.Preview(session.Template(), session.Contacts())
		if err != nil {
			var unknown *render.UnknownPlaceholderError
			if errors.As(err, &unknown) {
				respondError(w, http.StatusUnprocessableEntity, err.Error())
				return
			}
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		respondJSON(w, http.StatusOK, map[string]string{"preview": preview})
	}
}
