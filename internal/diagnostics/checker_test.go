package diagnostics

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"ssh-vanity/internal/domain"
)

func fillRandom(p []byte) (int, error) {
	for i := range p {
		p[i] = byte(i + 1)
	}
	return len(p), nil
}

// TestCheckerRunAllPass validates happy-path diagnostics report.
func TestCheckerRunAllPass(t *testing.T) {
	saveDir := filepath.Join(t.TempDir(), "found-keys")
	checker := NewCheckerForTests(
		func() int { return 8 },
		fillRandom,
		SelfTest,
		os.MkdirAll,
		os.CreateTemp,
		os.Remove,
	)

	report := checker.Run(saveDir)
	if report.HasFailures {
		t.Fatalf("expected no failures, got %+v", report.Items)
	}
	assertStatusByID(t, report, "cpu", domain.DiagnosticStatusPass)
	assertStatusByID(t, report, "keygen", domain.DiagnosticStatusPass)

	entries, err := os.ReadDir(saveDir)
	if err != nil {
		t.Fatalf("read save dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("write check left files behind: %v", entries)
	}
}

// TestCheckerRunFailures validates failure reporting.
func TestCheckerRunFailures(t *testing.T) {
	checker := NewCheckerForTests(
		func() int { return 1 },
		func([]byte) (int, error) { return 0, errors.New("no entropy") },
		func() error { return errors.New("bad render") },
		os.MkdirAll,
		os.CreateTemp,
		os.Remove,
	)

	report := checker.Run("")
	if !report.HasFailures {
		t.Fatal("expected failures")
	}

	assertStatusByID(t, report, "cpu", domain.DiagnosticStatusWarn)
	assertStatusByID(t, report, "random", domain.DiagnosticStatusFail)
	assertStatusByID(t, report, "keygen", domain.DiagnosticStatusFail)
	assertStatusByID(t, report, "save_dir", domain.DiagnosticStatusFail)
}

// TestCheckerRunZeroRandomFails rejects a source that only returns zeros.
func TestCheckerRunZeroRandomFails(t *testing.T) {
	checker := NewCheckerForTests(
		func() int { return 4 },
		func(p []byte) (int, error) { return len(p), nil },
		SelfTest,
		os.MkdirAll,
		os.CreateTemp,
		os.Remove,
	)

	report := checker.Run(t.TempDir())
	assertStatusByID(t, report, "random", domain.DiagnosticStatusFail)
}

// TestCheckerRunUnwritableSaveDir validates the write probe.
func TestCheckerRunUnwritableSaveDir(t *testing.T) {
	checker := NewCheckerForTests(
		func() int { return 4 },
		fillRandom,
		SelfTest,
		os.MkdirAll,
		func(string, string) (*os.File, error) { return nil, os.ErrPermission },
		os.Remove,
	)

	report := checker.Run(t.TempDir())
	assertStatusByID(t, report, "save_dir", domain.DiagnosticStatusFail)
}

func TestSelfTest(t *testing.T) {
	if err := SelfTest(); err != nil {
		t.Fatalf("SelfTest() error = %v", err)
	}
}

// assertStatusByID checks status for one diagnostic item by ID.
func assertStatusByID(t *testing.T, report domain.DiagnosticReport, id string, want domain.DiagnosticStatus) {
	t.Helper()
	for _, item := range report.Items {
		if item.ID == id {
			if item.Status != want {
				t.Fatalf("item %s: got %s, want %s", id, item.Status, want)
			}
			return
		}
	}
	t.Fatalf("diagnostic item not found: %s", id)
}
