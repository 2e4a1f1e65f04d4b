package api

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/amatoti/outreach/internal/campaign"
	"github.com/amatoti/outreach/internal/config"
	"github.com/amatoti/outreach/internal/contacts"
	"github.com/amatoti/outreach/internal/outlog"
)

// testAppConfig mirrors the shipped defaults plus a gmail preset.
func testAppConfig() *config.Config {
	return &config.Config{
		API: config.APIConfig{Host: "127.0.0.1", Port: 8080},
		SMTP: config.SMTPConfig{
			DefaultHost:     "smtp.gmail.com",
			DefaultPort:     587,
			DefaultStartTLS: true,
			Presets: map[string]config.Preset{
				"gmail": {Host: "smtp.gmail.com", Port: 587, StartTLS: true},
			},
		},
		Outreach: config.OutreachConfig{
			LogPath:          "logs/outreach_log.csv",
			DefaultBatchSize: 20,
			MaxBatchSize:     500,
			DefaultDelayMin:  5,
			DefaultDelayMax:  12,
			MaxUploadBytes:   10 << 20,
		},
	}
}

func newTestSession(t *testing.T) *campaign.Session {
	t.Helper()
	log := outlog.Open(filepath.Join(t.TempDir(), "log.csv"), zerolog.Nop())
	return campaign.NewSession(log)
}

// multipartBody builds a multipart request body with one file field.
func multipartBody(t *testing.T, field, filename string, content []byte) (io.Reader, string) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return &buf, w.FormDataContentType()
}

func uploadFile(t *testing.T, handler http.HandlerFunc, path, field, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()

	body, contentType := multipartBody(t, field, filename, content)
	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func seedContacts(session *campaign.Session) {
	session.SetContacts([]contacts.Contact{
		{AgencyName: "Acme Recruiting", Email: "jobs@acme.com", City: "Cape Town"},
		{AgencyName: "Beta Talent", Email: "hello@beta.co.za", City: "Bloemfontein"},
	})
}
