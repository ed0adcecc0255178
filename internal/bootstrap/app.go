package bootstrap

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	goruntime "runtime"
	"strings"
	"sync"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/logger"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"

	"ssh-vanity/internal/config"
	"ssh-vanity/internal/diagnostics"
	"ssh-vanity/internal/domain"
	"ssh-vanity/internal/export"
	"ssh-vanity/internal/jobs"

	wailsruntime "github.com/wailsapp/wails/v2/pkg/runtime"
)

// EventName is the runtime event carrying coordinator events to the UI.
const EventName = "search:event"

// searcher isolates the coordinator behind an interface.
type searcher interface {
	Start(domain.JobConfig) (domain.Run, error)
	Stop()
	Reset()
	Snapshot() domain.Run
	Stats() domain.Stats
	Events(sinceSeq int64) []jobs.Event
	LastSeq() int64
	Subscribe(jobs.Observer) func()
}

type keySaver interface {
	Save(dir string, pair domain.KeyPair) (export.Result, error)
}

type diagnosticsRunner interface {
	Run(saveDir string) domain.DiagnosticReport
}

// App wires configuration, the search coordinator, and UI runtime callbacks.
type App struct {
	Settings    domain.Settings
	Store       config.Store
	Search      searcher
	Keys        keySaver
	Diagnostics domain.DiagnosticReport
	assets      fs.FS
	checker     diagnosticsRunner
	logPath     string
	emit        func(ctx context.Context, name string, data ...interface{})

	mu          sync.Mutex
	runtimeCtx  context.Context
	unsubscribe func()
}

// RunView is the polled search state for the UI.
type RunView struct {
	Run     domain.Run   `json:"run"`
	Stats   domain.Stats `json:"stats"`
	Elapsed string       `json:"elapsed"`
	ETA     string       `json:"eta"`
	LastSeq int64        `json:"lastSeq"`
}

// New builds the application with persisted settings and startup diagnostics.
func New() (*App, error) {
	return NewWithAssets(nil)
}

// NewWithAssets builds the application and optionally configures embedded frontend assets.
func NewWithAssets(assets fs.FS) (*App, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve user home: %w", err)
	}
	appDir := filepath.Join(homeDir, ".ssh-vanity")

	store := config.NewJSONStore(filepath.Join(appDir, "settings.json"))
	settings, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	checker := diagnostics.NewChecker()
	report := checker.Run(config.SaveDir(settings))

	app := &App{
		Settings:    settings,
		Store:       store,
		Search:      jobs.NewCoordinator(jobs.Options{Logger: slog.Default().With("component", "search")}),
		Keys:        export.NewExporter(),
		Diagnostics: report,
		assets:      assets,
		checker:     checker,
		logPath:     filepath.Join(appDir, "app.log"),
	}
	app.attach()
	return app, nil
}

// attach forwards coordinator events to the runtime.
func (a *App) attach() {
	if a.emit == nil {
		a.emit = wailsruntime.EventsEmit
	}
	a.unsubscribe = a.Search.Subscribe(jobs.ObserverFunc(a.forward))
}

// Run starts the Wails desktop application and binds backend methods.
func (a *App) Run() error {
	assetOptions := &assetserver.Options{}
	if a.assets != nil {
		assetOptions.Assets = a.assets
	} else {
		assetOptions.Handler = http.FileServer(http.Dir("./frontend"))
	}

	var appLogger logger.Logger = logger.NewDefaultLogger()
	if a.logPath != "" {
		if err := os.MkdirAll(filepath.Dir(a.logPath), 0o755); err == nil {
			appLogger = logger.NewFileLogger(a.logPath)
		}
	}

	return wails.Run(&options.App{
		Title:       "SSH Vanity",
		Width:       980,
		Height:      720,
		AssetServer: assetOptions,
		Logger:      appLogger,
		LogLevel:    logger.INFO,
		OnStartup:   a.Startup,
		OnShutdown:  a.Shutdown,
		Bind:        []interface{}{a},
	})
}

// Startup stores Wails runtime context for push events.
func (a *App) Startup(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.runtimeCtx = ctx
}

// Shutdown stops any running search and detaches from the runtime.
func (a *App) Shutdown(context.Context) {
	a.Search.Stop()

	a.mu.Lock()
	defer a.mu.Unlock()
	a.runtimeCtx = nil
	if a.unsubscribe != nil {
		a.unsubscribe()
		a.unsubscribe = nil
	}
}

// GetDiagnostics returns the latest cached diagnostics report.
func (a *App) GetDiagnostics() domain.DiagnosticReport {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.Diagnostics
}

// RefreshDiagnostics reloads settings and reruns host checks.
func (a *App) RefreshDiagnostics() (domain.DiagnosticReport, error) {
	settings, err := a.Store.Load()
	if err != nil {
		return domain.DiagnosticReport{}, fmt.Errorf("load settings: %w", err)
	}
	return a.refreshDiagnostics(settings), nil
}

// GetSettings loads and returns the latest persisted settings.
func (a *App) GetSettings() (domain.Settings, error) {
	settings, err := a.Store.Load()
	if err != nil {
		return domain.Settings{}, fmt.Errorf("load settings: %w", err)
	}

	a.mu.Lock()
	a.Settings = settings
	a.mu.Unlock()

	return settings, nil
}

// SaveSettings normalizes and persists settings, then refreshes diagnostics.
func (a *App) SaveSettings(settings domain.Settings) (domain.Settings, error) {
	normalized := normalizeSettings(settings)
	if err := a.Store.Save(normalized); err != nil {
		return domain.Settings{}, fmt.Errorf("save settings: %w", err)
	}
	a.refreshDiagnostics(normalized)
	return normalized, nil
}

// StartSearch persists the form settings and starts a run from them.
func (a *App) StartSearch(settings domain.Settings) (domain.Run, error) {
	normalized, err := a.SaveSettings(settings)
	if err != nil {
		return domain.Run{}, err
	}
	return a.Search.Start(config.JobConfig(normalized))
}

// StopSearch stops the running search. It is a no-op when idle.
func (a *App) StopSearch() domain.Run {
	a.Search.Stop()
	return a.Search.Snapshot()
}

// ResetSearch stops any run, clears its result and counters, and restores
// default settings.
func (a *App) ResetSearch() (domain.Settings, error) {
	a.Search.Reset()
	if err := a.Store.Clear(); err != nil {
		return domain.Settings{}, fmt.Errorf("clear settings: %w", err)
	}
	settings := config.DefaultSettings()
	a.refreshDiagnostics(settings)
	return settings, nil
}

// CurrentRun returns the run snapshot with formatted display stats.
func (a *App) CurrentRun() RunView {
	stats := a.Search.Stats()
	return RunView{
		Run:     a.Search.Snapshot(),
		Stats:   stats,
		Elapsed: jobs.FormatElapsed(stats.Elapsed),
		ETA:     jobs.FormatETA(stats.ETA),
		LastSeq: a.Search.LastSeq(),
	}
}

// RunEvents returns all events with sequence greater than sinceSeq.
func (a *App) RunEvents(sinceSeq int64) []jobs.Event {
	return a.Search.Events(sinceSeq)
}

// SaveKeys writes the found key pair to dir, or to the configured save folder.
func (a *App) SaveKeys(dir string) (export.Result, error) {
	run := a.Search.Snapshot()
	if run.Result == nil {
		return export.Result{}, fmt.Errorf("no key has been found")
	}

	target := strings.TrimSpace(dir)
	if target == "" {
		a.mu.Lock()
		target = config.SaveDir(a.Settings)
		a.mu.Unlock()
	}
	return a.Keys.Save(target, *run.Result)
}

// PickSaveDirectory opens a native directory picker for the save folder.
func (a *App) PickSaveDirectory() (string, error) {
	ctx, err := a.runtimeContext()
	if err != nil {
		return "", err
	}

	path, err := wailsruntime.OpenDirectoryDialog(ctx, wailsruntime.OpenDialogOptions{
		Title: "Select save folder",
	})
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(path), nil
}

// CopyToClipboard places one rendered key on the system clipboard.
func (a *App) CopyToClipboard(text string) error {
	ctx, err := a.runtimeContext()
	if err != nil {
		return err
	}
	return wailsruntime.ClipboardSetText(ctx, text)
}

// OpenSaveFolder opens the given path (or configured save folder) in the file manager.
func (a *App) OpenSaveFolder(path string) error {
	target := strings.TrimSpace(path)
	if target == "" {
		a.mu.Lock()
		target = config.SaveDir(a.Settings)
		a.mu.Unlock()
	}

	info, err := os.Stat(target)
	if err != nil {
		return fmt.Errorf("resolve save folder: %w", err)
	}

	openPath := target
	if !info.IsDir() {
		openPath = filepath.Dir(target)
	}

	return openInFileManager(openPath)
}

// forward emits a coordinator event when the runtime is attached.
func (a *App) forward(event jobs.Event) {
	a.mu.Lock()
	ctx := a.runtimeCtx
	a.mu.Unlock()
	if ctx != nil {
		a.emit(ctx, EventName, event)
	}
}

func (a *App) refreshDiagnostics(settings domain.Settings) domain.DiagnosticReport {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Settings = settings
	if a.checker != nil {
		a.Diagnostics = a.checker.Run(config.SaveDir(settings))
	}
	return a.Diagnostics
}

// runtimeContext returns current Wails runtime context for dialog APIs.
func (a *App) runtimeContext() (context.Context, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.runtimeCtx == nil {
		return nil, fmt.Errorf("runtime context is not initialized")
	}
	return a.runtimeCtx, nil
}

// normalizeSettings trims user inputs and applies default matching modes.
func normalizeSettings(settings domain.Settings) domain.Settings {
	settings.Keywords = strings.TrimSpace(settings.Keywords)
	settings.WorkersCount = strings.TrimSpace(settings.WorkersCount)
	settings.SaveTo = strings.TrimSpace(settings.SaveTo)
	if settings.KeywordMatching != string(domain.MatchAll) {
		settings.KeywordMatching = string(domain.MatchAny)
	}
	if settings.FieldMatching != string(domain.MatchAll) {
		settings.FieldMatching = string(domain.MatchAny)
	}
	if settings.Fields == nil {
		settings.Fields = []string{}
	}
	return settings
}

// openInFileManager launches the platform file explorer for the provided path.
func openInFileManager(path string) error {
	var cmd *exec.Cmd
	switch goruntime.GOOS {
	case "darwin":
		cmd = exec.Command("open", path)
	case "windows":
		cmd = exec.Command("explorer", filepath.Clean(path))
	default:
		cmd = exec.Command("xdg-open", path)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("launch file manager: %w", err)
	}
	return nil
}
