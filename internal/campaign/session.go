// Package campaign holds the per-session application state and the send loop
// that works through a batch of contacts.
package campaign

import (
	"sync"

	"github.com/amatoti/outreach/internal/contacts"
	"github.com/amatoti/outreach/internal/mailer"
	"github.com/amatoti/outreach/internal/metrics"
	"github.com/amatoti/outreach/internal/outlog"
)

// DefaultTemplate is the message template a fresh session starts with.
const DefaultTemplate = `Dear {AgencyName} Recruitment Team,

My name is Aviwe Matoti, a postgraduate student in Business and Financial Analytics. I have experience in data analytics, financial modeling, and data-driven decision-making.

Please find my CV attached for your consideration.

Kind regards,
Aviwe Matoti
Bloemfontein, South Africa
`

// Session is the explicit application-state struct behind the UI boundary:
// the loaded contact list, the live message template, the uploaded attachment
// and the outreach log. It is constructed once per process and mutated only
// by boundary actions; the send loop reads it.
type Session struct {
	mu         sync.RWMutex
	contacts   []contacts.Contact
	template   string
	attachment *mailer.Attachment
	log        *outlog.Log
	progress   float64
}

// NewSession creates a session around an opened outreach log.
func NewSession(log *outlog.Log) *Session {
	return &Session{
		template: DefaultTemplate,
		log:      log,
	}
}

// SetContacts replaces the loaded contact list.
func (s *Session) SetContacts(list []contacts.Contact) {
	s.mu.Lock()
	s.contacts = list
	s.mu.Unlock()
	metrics.ContactsLoaded.Set(float64(len(list)))
}

// Contacts returns the loaded contact list. The slice is shared; rows are
// immutable after load so callers must not modify them.
func (s *Session) Contacts() []contacts.Contact {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.contacts
}

// SetTemplate replaces the message template. A run in progress observes the
// new value on its next row; no snapshot is taken at loop start.
func (s *Session) SetTemplate(t string) {
	s.mu.Lock()
	s.template = t
	s.mu.Unlock()
}

// Template returns the current message template.
func (s *Session) Template() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.template
}

// SetAttachment replaces the attachment sent with every email, or clears it
// when att is nil.
func (s *Session) SetAttachment(att *mailer.Attachment) {
	s.mu.Lock()
	s.attachment = att
	s.mu.Unlock()
}

// Attachment returns the current attachment, nil when none is uploaded.
func (s *Session) Attachment() *mailer.Attachment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.attachment
}

// Log returns the session's outreach log.
func (s *Session) Log() *outlog.Log {
	return s.log
}

// Progress returns the fraction of the most recent run that has completed,
// in [0, 1].
func (s *Session) Progress() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.progress
}

func (s *Session) setProgress(p float64) {
	s.mu.Lock()
	s.progress = p
	s.mu.Unlock()
}
