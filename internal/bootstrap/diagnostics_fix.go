package bootstrap

import (
	"fmt"
	"os"
	"strings"

	"ssh-vanity/internal/config"
	"ssh-vanity/internal/domain"
)

// FixDiagnostic applies a remediation for one failed diagnostic item. Only
// the save folder can be repaired; the other checks describe the host.
func (a *App) FixDiagnostic(itemID string) (domain.DiagnosticReport, error) {
	if a.Store == nil {
		return domain.DiagnosticReport{}, fmt.Errorf("settings store is not configured")
	}

	id := strings.TrimSpace(itemID)
	if id == "" {
		return domain.DiagnosticReport{}, fmt.Errorf("diagnostic item id is required")
	}

	settings, err := a.Store.Load()
	if err != nil {
		return domain.DiagnosticReport{}, fmt.Errorf("load settings: %w", err)
	}
	settings = normalizeSettings(settings)

	settingsChanged := false
	var fixErr error

	switch id {
	case "save_dir":
		settings, settingsChanged, fixErr = fixSaveDir(settings, os.MkdirAll)
	default:
		return domain.DiagnosticReport{}, fmt.Errorf("unsupported diagnostic item id: %s", id)
	}

	if settingsChanged {
		if saveErr := a.Store.Save(settings); saveErr != nil {
			report := a.refreshDiagnostics(settings)
			return report, fmt.Errorf("save settings after fix: %w", saveErr)
		}
	}

	report := a.refreshDiagnostics(settings)
	if fixErr != nil {
		return report, fixErr
	}
	return report, nil
}

// fixSaveDir creates the save folder, falling back to the default folder
// when the configured one is empty or cannot be created.
func fixSaveDir(settings domain.Settings, mkdirAll func(string, os.FileMode) error) (domain.Settings, bool, error) {
	saveDir := strings.TrimSpace(settings.SaveTo)
	changed := false
	if saveDir == "" {
		saveDir = config.DefaultSaveTo
		settings.SaveTo = saveDir
		changed = true
	}

	if err := mkdirAll(saveDir, 0o700); err != nil {
		if saveDir == config.DefaultSaveTo {
			return settings, changed, fmt.Errorf("create save folder %s: %w", saveDir, err)
		}
		settings.SaveTo = config.DefaultSaveTo
		if err := mkdirAll(config.DefaultSaveTo, 0o700); err != nil {
			return settings, true, fmt.Errorf("create save folder %s: %w", config.DefaultSaveTo, err)
		}
		return settings, true, nil
	}

	return settings, changed, nil
}
