package campaign

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/amatoti/outreach/internal/contacts"
	"github.com/amatoti/outreach/internal/mailer"
	"github.com/amatoti/outreach/internal/outlog"
)

// mockSender records every message and fails on configured recipients.
type mockSender struct {
	sent   []*mailer.Message
	failOn map[string]error
}

func (m *mockSender) Send(_ context.Context, msg *mailer.Message) error {
	m.sent = append(m.sent, msg)
	if err, ok := m.failOn[msg.To]; ok {
		return err
	}
	return nil
}

func testRunner(t *testing.T, list []contacts.Contact) (*Runner, *Session, *mockSender) {
	t.Helper()

	log := outlog.Open(filepath.Join(t.TempDir(), "log.csv"), zerolog.Nop())
	session := NewSession(log)
	session.SetContacts(list)
	session.SetTemplate("Dear {AgencyName}")

	sender := &mockSender{failOn: map[string]error{}}
	r := NewRunner(session, zerolog.Nop())
	r.newSender = func(_ mailer.Config) (mailer.Sender, error) { return sender, nil }
	r.sleep = func(time.Duration) {}
	r.randFloat = func() float64 { return 0 }
	return r, session, sender
}

func testConfig(batch int) RunConfig {
	return RunConfig{
		Host:            "smtp.example.com",
		Port:            587,
		Username:        "user@example.com",
		Password:        "secret",
		SubjectTemplate: "Application: {AgencyName}",
		BatchSize:       batch,
	}
}

func someContacts(n int) []contacts.Contact {
	list := make([]contacts.Contact, n)
	for i := range list {
		list[i] = contacts.Contact{
			AgencyName: "Agency" + string(rune('A'+i)),
			Email:      string(rune('a'+i)) + "@x.com",
			City:       "City",
		}
	}
	return list
}

func TestRun_AttemptsMinOfBatchAndRows(t *testing.T) {
	tests := []struct {
		rows  int
		batch int
		want  int
	}{
		{rows: 5, batch: 3, want: 3},
		{rows: 2, batch: 10, want: 2},
		{rows: 4, batch: 4, want: 4},
	}

	for _, tt := range tests {
		r, _, sender := testRunner(t, someContacts(tt.rows))
		res, err := r.Run(context.Background(), testConfig(tt.batch))
		if err != nil {
			t.Fatalf("rows=%d batch=%d: unexpected error %v", tt.rows, tt.batch, err)
		}
		if res.Attempted != tt.want {
			t.Errorf("rows=%d batch=%d: expected %d attempts, got %d", tt.rows, tt.batch, tt.want, res.Attempted)
		}
		if len(sender.sent) != tt.want {
			t.Errorf("rows=%d batch=%d: expected %d dispatches, got %d", tt.rows, tt.batch, tt.want, len(sender.sent))
		}
	}
}

func TestRun_CountsAndLogEntries(t *testing.T) {
	r, session, sender := testRunner(t, someContacts(4))
	sender.failOn["b@x.com"] = errors.New("550 mailbox unavailable")

	res, err := r.Run(context.Background(), testConfig(4))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.Sent+res.Failed != res.Attempted {
		t.Errorf("sent(%d)+failed(%d) != attempted(%d)", res.Sent, res.Failed, res.Attempted)
	}
	if res.Sent != 3 || res.Failed != 1 {
		t.Errorf("expected 3 sent / 1 failed, got %d / %d", res.Sent, res.Failed)
	}

	// Exactly one log entry per attempted row, in order.
	entries := session.Log().Entries()
	if len(entries) != res.Attempted {
		t.Fatalf("expected %d log entries, got %d", res.Attempted, len(entries))
	}
	for i, e := range entries {
		if e.Email != someContacts(4)[i].Email {
			t.Errorf("entry %d: expected email %s, got %s", i, someContacts(4)[i].Email, e.Email)
		}
	}
	if entries[1].Status != outlog.StatusFailed {
		t.Errorf("expected FAILED status for b@x.com, got %s", entries[1].Status)
	}
	if entries[1].Error == "" {
		t.Error("expected non-empty error string on FAILED entry")
	}
	if entries[0].Status != outlog.StatusSent || entries[0].Error != "" {
		t.Errorf("expected SENT with empty error, got %s / %q", entries[0].Status, entries[0].Error)
	}
	// Preview is recorded for failures too.
	if entries[1].MessagePreview == "" {
		t.Error("expected preview on FAILED entry")
	}
}

func TestRun_FailureNeverAbortsBatch(t *testing.T) {
	r, _, sender := testRunner(t, someContacts(3))
	sender.failOn["a@x.com"] = errors.New("connection refused")

	res, err := r.Run(context.Background(), testConfig(3))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Attempted != 3 {
		t.Fatalf("expected all 3 rows attempted after first failed, got %d", res.Attempted)
	}
	if sender.sent[2].To != "c@x.com" {
		t.Errorf("expected last dispatch to c@x.com, got %s", sender.sent[2].To)
	}
}

func TestRun_AppliesFilter(t *testing.T) {
	list := []contacts.Contact{
		{AgencyName: "Acme Recruiting", Email: "a@x.com"},
		{AgencyName: "Beta", Email: "b@x.com"},
		{AgencyName: "Acme Talent", Email: "c@x.com"},
	}
	r, _, sender := testRunner(t, list)

	cfg := testConfig(10)
	cfg.Filter = "acme"
	res, err := r.Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Attempted != 2 {
		t.Fatalf("expected 2 attempts after filter, got %d", res.Attempted)
	}
	if sender.sent[0].To != "a@x.com" || sender.sent[1].To != "c@x.com" {
		t.Errorf("filter selected wrong rows: %s, %s", sender.sent[0].To, sender.sent[1].To)
	}
}

func TestRun_RenderErrorIsRowFailure(t *testing.T) {
	r, session, sender := testRunner(t, someContacts(2))
	session.SetTemplate("Dear {Recruiter}") // unrecognized placeholder

	res, err := r.Run(context.Background(), testConfig(2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Failed != 2 || res.Sent != 0 {
		t.Errorf("expected 2 failed / 0 sent, got %d / %d", res.Failed, res.Sent)
	}
	if len(sender.sent) != 0 {
		t.Errorf("expected no dispatches for render failures, got %d", len(sender.sent))
	}
	for _, e := range session.Log().Entries() {
		if e.Status != outlog.StatusFailed || e.Error == "" {
			t.Errorf("expected FAILED entry with error, got %+v", e)
		}
	}
}

func TestRun_SubjectRenderedPerRow(t *testing.T) {
	r, _, sender := testRunner(t, someContacts(2))

	if _, err := r.Run(context.Background(), testConfig(2)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sender.sent[0].Subject != "Application: AgencyA" {
		t.Errorf("expected subject 'Application: AgencyA', got %q", sender.sent[0].Subject)
	}
	if sender.sent[1].Subject != "Application: AgencyB" {
		t.Errorf("expected subject 'Application: AgencyB', got %q", sender.sent[1].Subject)
	}
}

func TestRun_TemplateReadFreshPerRow(t *testing.T) {
	r, session, sender := testRunner(t, someContacts(2))

	// Edit the template mid-run; the next row must observe the new value
	// because no snapshot is taken at loop start.
	r.OnProgress = func(done, total int) {
		if done == 1 {
			session.SetTemplate("Updated {AgencyName}")
		}
	}

	if _, err := r.Run(context.Background(), testConfig(2)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sender.sent[0].Body != "Dear AgencyA" {
		t.Errorf("first row: expected original template, got %q", sender.sent[0].Body)
	}
	if sender.sent[1].Body != "Updated AgencyB" {
		t.Errorf("second row: expected edited template, got %q", sender.sent[1].Body)
	}
}

func TestRun_SleepsAfterEveryRowIncludingLast(t *testing.T) {
	r, _, _ := testRunner(t, someContacts(3))

	var sleeps []time.Duration
	r.sleep = func(d time.Duration) { sleeps = append(sleeps, d) }

	cfg := testConfig(3)
	cfg.DelayMin = 2
	cfg.DelayMax = 2
	if _, err := r.Run(context.Background(), cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(sleeps) != 3 {
		t.Fatalf("expected 3 sleeps (one per row, last included), got %d", len(sleeps))
	}
	for i, d := range sleeps {
		if d != 2*time.Second {
			t.Errorf("sleep %d: expected 2s, got %v", i, d)
		}
	}
}

func TestDelay_Bounds(t *testing.T) {
	r, _, _ := testRunner(t, someContacts(1))

	tests := []struct {
		name     string
		min, max float64
		rnd      float64
		want     time.Duration
	}{
		{"lower bound", 5, 12, 0, 5 * time.Second},
		{"upper bound", 5, 12, 1, 12 * time.Second},
		{"negative min clamps to zero", -3, 2, 0, 0},
		{"min greater than max widens upper bound", 12, 5, 1, 12 * time.Second},
		{"both negative never samples below zero", -5, -2, 0, 0},
	}

	for _, tt := range tests {
		r.randFloat = func() float64 { return tt.rnd }
		if got := r.delay(tt.min, tt.max); got != tt.want {
			t.Errorf("%s: delay(%v, %v) with rnd=%v: expected %v, got %v",
				tt.name, tt.min, tt.max, tt.rnd, tt.want, got)
		}
	}
}

func TestRun_Progress(t *testing.T) {
	r, session, _ := testRunner(t, someContacts(2))

	var progress []float64
	r.OnProgress = func(done, total int) {
		progress = append(progress, float64(done)/float64(total))
	}

	// Batch size larger than the row set: progress is computed over the
	// rows actually attempted, so it tops out at 1.0.
	if _, err := r.Run(context.Background(), testConfig(10)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(progress) != 2 {
		t.Fatalf("expected 2 progress reports, got %d", len(progress))
	}
	if progress[0] != 0.5 || progress[1] != 1.0 {
		t.Errorf("expected [0.5 1.0], got %v", progress)
	}
	if session.Progress() != 1.0 {
		t.Errorf("expected session progress 1.0, got %v", session.Progress())
	}
}

func TestRun_Cancellation(t *testing.T) {
	r, _, _ := testRunner(t, someContacts(5))

	ctx, cancel := context.WithCancel(context.Background())
	r.OnProgress = func(done, total int) {
		if done == 2 {
			cancel()
		}
	}

	res, err := r.Run(ctx, testConfig(5))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if res.Attempted != 2 {
		t.Errorf("expected 2 rows attempted before cancellation, got %d", res.Attempted)
	}
}

func TestRun_Validation(t *testing.T) {
	r, _, _ := testRunner(t, someContacts(1))

	if _, err := r.Run(context.Background(), testConfig(0)); err == nil {
		t.Error("expected error for batch size 0, got nil")
	}

	empty, _, _ := testRunner(t, nil)
	if _, err := empty.Run(context.Background(), testConfig(5)); err == nil {
		t.Error("expected error for empty contact list, got nil")
	}
}

func TestValidateRunConfig(t *testing.T) {
	base := testConfig(20)

	if err := ValidateRunConfig(base, 500); err != nil {
		t.Errorf("expected valid config, got %v", err)
	}

	noHost := base
	noHost.Host = ""
	if err := ValidateRunConfig(noHost, 500); err == nil {
		t.Error("expected error for missing host")
	}

	noCreds := base
	noCreds.Password = ""
	if err := ValidateRunConfig(noCreds, 500); err == nil {
		t.Error("expected error for missing credentials")
	}

	tooBig := base
	tooBig.BatchSize = 501
	if err := ValidateRunConfig(tooBig, 500); err == nil {
		t.Error("expected error for batch size over the cap")
	}

	badPort := base
	badPort.Port = 0
	if err := ValidateRunConfig(badPort, 500); err == nil {
		t.Error("expected error for port 0")
	}
}
