package httpapi

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"ssh-vanity/internal/config"
	"ssh-vanity/internal/domain"
	"ssh-vanity/internal/export"
	"ssh-vanity/internal/jobs"
)

// Searcher is the coordinator surface the API drives.
type Searcher interface {
	Start(domain.JobConfig) (domain.Run, error)
	Stop()
	Reset()
	Snapshot() domain.Run
	Stats() domain.Stats
	Events(sinceSeq int64) []jobs.Event
	LastSeq() int64
}

// KeySaver writes a found key pair to a folder.
type KeySaver interface {
	Save(dir string, pair domain.KeyPair) (export.Result, error)
}

// DiagnosticsRunner checks the host before a search.
type DiagnosticsRunner interface {
	Run(saveDir string) domain.DiagnosticReport
}

// Handler serves the search API.
type Handler struct {
	search      Searcher
	store       config.Store
	keys        KeySaver
	diagnostics DiagnosticsRunner
}

// NewHandler wires the API to its collaborators.
func NewHandler(search Searcher, store config.Store, keys KeySaver, diagnostics DiagnosticsRunner) *Handler {
	return &Handler{search: search, store: store, keys: keys, diagnostics: diagnostics}
}

// RunView is the polled search snapshot.
type RunView struct {
	Run     domain.Run   `json:"run"`
	Stats   domain.Stats `json:"stats"`
	Elapsed string       `json:"elapsed"`
	ETA     string       `json:"eta"`
	LastSeq int64        `json:"lastSeq"`
}

// Health reports liveness.
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// GetSettings returns the persisted form settings.
func (h *Handler) GetSettings(c *gin.Context) {
	settings, err := h.store.Load()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, settings)
}

// SaveSettings replaces the persisted form settings.
func (h *Handler) SaveSettings(c *gin.Context) {
	var settings domain.Settings
	if err := c.ShouldBindJSON(&settings); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid settings body"})
		return
	}
	if err := h.store.Save(settings); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, settings)
}

// ResetSettings clears stored settings and returns the defaults.
func (h *Handler) ResetSettings(c *gin.Context) {
	if err := h.store.Clear(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, config.DefaultSettings())
}

// Diagnostics runs host checks against the configured save folder.
func (h *Handler) Diagnostics(c *gin.Context) {
	settings, err := h.store.Load()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.diagnostics.Run(config.SaveDir(settings)))
}

// CurrentRun returns the run snapshot with display stats.
func (h *Handler) CurrentRun(c *gin.Context) {
	c.JSON(http.StatusOK, h.view())
}

// StartSearch starts a run from the request body, or from stored settings
// when the body is empty.
func (h *Handler) StartSearch(c *gin.Context) {
	var cfg domain.JobConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		if !errors.Is(err, io.EOF) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid search config body"})
			return
		}
		settings, err := h.store.Load()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		cfg = config.JobConfig(settings)
	}

	run, err := h.search.Start(cfg)
	if err != nil {
		writeStartError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, run)
}

// StopSearch stops the active run. Stopping while idle is not an error.
func (h *Handler) StopSearch(c *gin.Context) {
	h.search.Stop()
	c.JSON(http.StatusOK, h.search.Snapshot())
}

// ResetSearch stops any run and clears the result and counters.
func (h *Handler) ResetSearch(c *gin.Context) {
	h.search.Reset()
	c.JSON(http.StatusOK, h.search.Snapshot())
}

// RunEvents returns events after ?since=.
func (h *Handler) RunEvents(c *gin.Context) {
	var since int64
	if raw := c.Query("since"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || v < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "since must be a non-negative integer"})
			return
		}
		since = v
	}

	events := h.search.Events(since)
	if events == nil {
		events = []jobs.Event{}
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

type saveRequest struct {
	Dir string `json:"dir"`
}

// SaveKeys writes the found key pair to the requested or configured folder.
func (h *Handler) SaveKeys(c *gin.Context) {
	var req saveRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid save body"})
		return
	}

	run := h.search.Snapshot()
	if run.Result == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "no key has been found"})
		return
	}

	dir := req.Dir
	if dir == "" {
		settings, err := h.store.Load()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		dir = config.SaveDir(settings)
	}

	res, err := h.keys.Save(dir, *run.Result)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) view() RunView {
	run := h.search.Snapshot()
	stats := h.search.Stats()
	return RunView{
		Run:     run,
		Stats:   stats,
		Elapsed: jobs.FormatElapsed(stats.Elapsed),
		ETA:     jobs.FormatETA(stats.ETA),
		LastSeq: h.search.LastSeq(),
	}
}

func writeStartError(c *gin.Context, err error) {
	var validation *domain.ValidationError
	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"error": validation.Message, "field": validation.Field})
	case errors.Is(err, jobs.ErrAlreadyRunning):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
