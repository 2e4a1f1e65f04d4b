package api

import (
	"encoding/json"
	"net/http"

	"github.com/amatoti/outreach/internal/campaign"
	"github.com/amatoti/outreach/internal/config"
	"github.com/amatoti/outreach/internal/logger"
)

// sendRequest is the JSON body for starting a send run. Credentials are used
// for this run only; they are never persisted or echoed back.
type sendRequest struct {
	Provider        string  `json:"provider"` // optional preset name, e.g. "gmail"
	Host            string  `json:"host"`
	Port            int     `json:"port"`
	StartTLS        *bool   `json:"starttls"`
	Username        string  `json:"username"`
	Password        string  `json:"password"`
	From            string  `json:"from"`
	SubjectTemplate string  `json:"subject_template"`
	BatchSize       int     `json:"batch_size"`
	DelayMin        *float64 `json:"delay_min"`
	DelayMax        *float64 `json:"delay_max"`
	Filter          string  `json:"filter"`
}

// SendHandler handles POST /api/v1/send. The run executes synchronously: the
// response is written only after the whole batch has been worked through, and
// carries the aggregate counts. Per-row delivery failures are log entries,
// not HTTP errors.
func SendHandler(session *campaign.Session, runner *campaign.Runner, cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromContext(r.Context())

		var req sendRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		runCfg, err := buildRunConfig(req, cfg)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := campaign.ValidateRunConfig(runCfg, cfg.Outreach.MaxBatchSize); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		if len(session.Contacts()) == 0 {
			respondError(w, http.StatusConflict, "no contact list loaded")
			return
		}

		result, err := runner.Run(r.Context(), runCfg)
		if err != nil && result.Attempted == 0 {
			log.Warn().Err(err).Msg("send run could not start")
			respondError(w, http.StatusBadGateway, err.Error())
			return
		}
		// A cancelled run still reports the rows it attempted.
		respondJSON(w, http.StatusOK, result)
	}
}

// buildRunConfig merges the request with configured defaults and presets.
func buildRunConfig(req sendRequest, cfg *config.Config) (campaign.RunConfig, error) {
	run := campaign.RunConfig{
		Host:            req.Host,
		Port:            req.Port,
		StartTLS:        cfg.SMTP.DefaultStartTLS,
		Username:        req.Username,
		Password:        req.Password,
		From:            req.From,
		SubjectTemplate: req.SubjectTemplate,
		BatchSize:       req.BatchSize,
		DelayMin:        cfg.Outreach.DefaultDelayMin,
		DelayMax:        cfg.Outreach.DefaultDelayMax,
		Filter:          req.Filter,
		Timeout:         cfg.SMTP.DialTimeout,
	}

	if req.Provider != "" {
		preset, ok := cfg.SMTP.Presets[req.Provider]
		if !ok {
			return run, &unknownProviderError{name: req.Provider}
		}
		run.Host = preset.Host
		run.Port = preset.Port
		run.StartTLS = preset.StartTLS
	}

	if run.Host == "" {
		run.Host = cfg.SMTP.DefaultHost
	}
	if run.Port == 0 {
		run.Port = cfg.SMTP.DefaultPort
	}
	if req.StartTLS != nil {
		run.StartTLS = *req.StartTLS
	}
	if run.BatchSize == 0 {
		run.BatchSize = cfg.Outreach.DefaultBatchSize
	}
	if req.DelayMin != nil {
		run.DelayMin = *req.DelayMin
	}
	if req.DelayMax != nil {
		run.DelayMax = *req.DelayMax
	}
	if run.SubjectTemplate == "" {
		run.SubjectTemplate = "Application: {AgencyName}"
	}
	return run, nil
}

type unknownProviderError struct {
	name string
}

func (e *unknownProviderError) Error() string {
	return "unknown provider preset: " + e.name
}

// ProgressHandler handles GET /api/v1/send/progress, reporting the fraction
// of the most recent run that has completed.
func ProgressHandler(session *campaign.Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]float64{"progress": session.Progress()})
	}
}
