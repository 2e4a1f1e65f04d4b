package campaign

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/amatoti/outreach/internal/contacts"
	"github.com/amatoti/outreach/internal/mailer"
	"github.com/amatoti/outreach/internal/metrics"
	"github.com/amatoti/outreach/internal/outlog"
	"github.com/amatoti/outreach/internal/render"
)

// RunConfig is the immutable configuration for one send run. Password lives
// only in memory for the duration of the run and is never logged.
type RunConfig struct {
	Host            string
	Port            int
	StartTLS        bool
	Username        string
	Password        string
	From            string
	SubjectTemplate string
	BatchSize       int
	DelayMin        float64 // seconds
	DelayMax        float64 // seconds
	Filter          string
	Timeout         time.Duration
}

// Result is the aggregate outcome of a run. Sent+Failed always equals
// Attempted.
type Result struct {
	Attempted int `json:"attempted"`
	Sent      int `json:"sent"`
	Failed    int `json:"failed"`
}

// SenderFactory builds the Sender used for a run from its connection
// parameters. Swappable for tests.
type SenderFactory func(cfg mailer.Config) (mailer.Sender, error)

// Runner works through a bounded batch of contacts sequentially: render,
// dispatch, log, sleep. A single row's failure never aborts the batch.
type Runner struct {
	session    *Session
	newSender  SenderFactory
	sleep      func(time.Duration)
	randFloat  func() float64
	log        zerolog.Logger
	OnProgress func(done, total int)
}

// NewRunner creates a Runner bound to a session. The default sender factory
// builds a real SMTP sender.
func NewRunner(session *Session, logger zerolog.Logger) *Runner {
	return &Runner{
		session: session,
		newSender: func(cfg mailer.Config) (mailer.Sender, error) {
			return mailer.NewSMTPSender(cfg, logger)
		},
		sleep:     time.Sleep,
		randFloat: rand.Float64,
		log:       logger,
	}
}

// Run executes one send run against the session's current contact list.
// At most cfg.BatchSize rows of the (optionally filtered) list are attempted,
// in order. Each attempted row produces exactly one log entry. The run stops
// early only when ctx is cancelled; rows already attempted keep their
// entries.
func (r *Runner) Run(ctx context.Context, cfg RunConfig) (Result, error) {
	var res Result

	if cfg.BatchSize < 1 {
		return res, fmt.Errorf("campaign: batch size must be at least 1, got %d", cfg.BatchSize)
	}

	rows := contacts.Filter(r.session.Contacts(), cfg.Filter)
	if len(rows) == 0 {
		return res, fmt.Errorf("campaign: no contacts to send to")
	}

	sender, err := r.newSender(mailer.Config{
		Host:     cfg.Host,
		Port:     cfg.Port,
		StartTLS: cfg.StartTLS,
		Username: cfg.Username,
		Password: cfg.Password,
		Timeout:  cfg.Timeout,
	})
	if err != nil {
		return res, fmt.Errorf("campaign: configure sender: %w", err)
	}

	total := len(rows)
	if cfg.BatchSize < total {
		total = cfg.BatchSize
	}

	metrics.RunsTotal.Inc()
	r.session.setProgress(0)
	r.log.Info().
		Int("batch", total).
		Int("filtered", len(rows)).
		Str("host", cfg.Host).
		Msg("send run started")

	for i, row := range rows[:total] {
		if err := ctx.Err(); err != nil {
			r.log.Warn().Int("attempted", res.Attempted).Msg("send run cancelled")
			return res, err
		}

		r.sendOne(ctx, sender, cfg, row, &res)

		res.Attempted++
		r.session.setProgress(float64(i+1) / float64(total))
		if r.OnProgress != nil {
			r.OnProgress(i+1, total)
		}

		// The original tool sleeps after every row, the last included,
		// to space sends out against spam heuristics.
		r.sleep(r.delay(cfg.DelayMin, cfg.DelayMax))
	}

	r.log.Info().
		Int("sent", res.Sent).
		Int("failed", res.Failed).
		Msg("send run finished")
	return res, nil
}

// sendOne renders and dispatches a single row and records its log entry.
// Render failures count as FAILED entries exactly like dispatch failures.
func (r *Runner) sendOne(ctx context.Context, sender mailer.Sender, cfg RunConfig, row contacts.Contact, res *Result) {
	entry := outlog.Entry{
		Timestamp: time.Now(),
		Agency:    row.AgencyName,
		Email:     row.Email,
	}

	// The template is re-read from shared state for every row, so edits
	// made while a run is in flight take effect on the next row.
	body, err := render.Render(r.session.Template(), row)
	if err == nil {
		entry.MessagePreview = body

		var subject string
		subject, err = render.Render(cfg.SubjectTemplate, row)
		if err == nil {
			err = sender.Send(ctx, &mailer.Message{
				From:       cfg.From,
				To:         row.Email,
				Subject:    subject,
				Body:       body,
				Attachment: r.session.Attachment(),
			})
		}
	}

	if err != nil {
		entry.Status = outlog.StatusFailed
		entry.Error = err.Error()
		res.Failed++
		r.log.Warn().
			Str("agency", row.AgencyName).
			Str("email", row.Email).
			Str("error", entry.Error).
			Msg("send failed")
	} else {
		entry.Status = outlog.StatusSent
		res.Sent++
		r.log.Info().
			Str("agency", row.AgencyName).
			Str("email", row.Email).
			Msg("sent")
	}

	// Persistence failure is non-fatal; the in-memory log stays
	// authoritative and outlog has already warned.
	_ = r.session.Log().Append(entry)
}

// delay samples the inter-send pause uniformly from
// [max(0, min), max(min, max)] seconds. The degenerate min > max case widens
// the upper bound to min, so a sample never falls outside [0, max(min, max)].
func (r *Runner) delay(min, max float64) time.Duration {
	lo := min
	if lo < 0 {
		lo = 0
	}
	hi := max
	if min > hi {
		hi = min
	}
	if hi < lo {
		hi = lo
	}
	sec := lo + r.randFloat()*(hi-lo)
	return time.Duration(sec * float64(time.Second))
}

// ValidateRunConfig checks the parts of a run configuration the UI boundary
// must reject before a run starts.
func ValidateRunConfig(cfg RunConfig, maxBatch int) error {
	if strings.TrimSpace(cfg.Host) == "" {
		return fmt.Errorf("campaign: smtp host is required")
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return fmt.Errorf("campaign: invalid smtp port %d", cfg.Port)
	}
	if strings.TrimSpace(cfg.Username) == "" || cfg.Password == "" {
		return fmt.Errorf("campaign: smtp credentials are required")
	}
	if cfg.BatchSize < 1 || cfg.BatchSize > maxBatch {
		return fmt.Errorf("campaign: batch size must be between 1 and %d, got %d", maxBatch, cfg.BatchSize)
	}
	return nil
}
