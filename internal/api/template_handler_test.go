package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/amatoti/outreach/internal/campaign"
)

func TestGetTemplateHandler_Default(t *testing.T) {
	session := newTestSession(t)
	handler := GetTemplateHandler(session)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/template", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var resp map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["template"] != campaign.DefaultTemplate {
		t.Error("expected the default template on a fresh session")
	}
}

func TestPutTemplateHandler_Success(t *testing.T) {
	session := newTestSession(t)
	handler := PutTemplateHandler(session)

	body := `{"template":"Dear {AgencyName} in {City}"}`
	req := httptest.NewRequest(http.MethodPut, "/api/v1/template", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d; body: %s", rec.Code, rec.Body.String())
	}
	if session.Template() != "Dear {AgencyName} in {City}" {
		t.Errorf("expected template stored in session, got %q", session.Template())
	}
}

func TestPutTemplateHandler_Rejections(t *testing.T) {
	session := newTestSession(t)
	handler := PutTemplateHandler(session)
	prior := session.Template()

	tests := []struct {
		name string
		body string
		code int
	}{
		{"invalid json", `{"template":`, http.StatusBadRequest},
		{"empty template", `{"template":""}`, http.StatusBadRequest},
		{"unknown placeholder", `{"template":"Dear {Recruiter}"}`, http.StatusUnprocessableEntity},
		{"email not substitutable", `{"template":"Reply to {Email}"}`, http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodPut, "/api/v1/template", strings.NewReader(tt.body))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != tt.code {
			t.Errorf("%s: expected status %d, got %d; body: %s", tt.name, tt.code, rec.Code, rec.Body.String())
		}
	}
	if session.Template() != prior {
		t.Error("expected template unchanged after rejected updates")
	}
}

func TestPreviewTemplateHandler(t *testing.T) {
	session := newTestSession(t)
	seedContacts(session)
	session.SetTemplate("Dear {AgencyName} in {City}")
	handler := PreviewTemplateHandler(session)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/template/preview", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d; body: %s", rec.Code, rec.Body.String())
	}

	var resp map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["preview"] != "Dear Acme Recruiting in Cape Town" {
		t.Errorf("unexpected preview: %q", resp["preview"])
	}
}

func TestPreviewTemplateHandler_UnknownPlaceholder(t *testing.T) {
	session := newTestSession(t)
	seedContacts(session)
	session.SetTemplate("Hi {Recruiter}")
	handler := PreviewTemplateHandler(session)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/template/preview", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d; body: %s", rec.Code, rec.Body.String())
	}
}

func TestPreviewTemplateHandler_NoContacts(t *testing.T) {
	session := newTestSession(t)
	handler := PreviewTemplateHandler(session)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/template/preview", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 with no contacts loaded, got %d", rec.Code)
	}
}
