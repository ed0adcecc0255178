package diagnostics

import (
	"bytes"
	"crypto/rand"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"ssh-vanity/internal/domain"
	"ssh-vanity/internal/export"
	"ssh-vanity/internal/keygen"
)

// Checker validates the host can run a search and store its result.
type Checker struct {
	numCPU     func() int
	randRead   func([]byte) (int, error)
	selfTest   func() error
	mkdirAll   func(string, os.FileMode) error
	createTemp func(string, string) (*os.File, error)
	remove     func(string) error
}

// NewChecker builds a checker using real OS dependencies.
func NewChecker() *Checker {
	return &Checker{
		numCPU:     runtime.NumCPU,
		randRead:   rand.Read,
		selfTest:   SelfTest,
		mkdirAll:   os.MkdirAll,
		createTemp: os.CreateTemp,
		remove:     os.Remove,
	}
}

// Run executes all startup checks and returns a combined report.
func (c *Checker) Run(saveDir string) domain.DiagnosticReport {
	items := []domain.DiagnosticItem{
		c.checkCPUs(),
		c.checkRandom(),
		c.checkKeygen(),
		c.checkSaveDir(saveDir),
	}

	hasFailures := false
	for _, item := range items {
		if item.Status == domain.DiagnosticStatusFail {
			hasFailures = true
			break
		}
	}

	return domain.DiagnosticReport{
		GeneratedAt: time.Now().UTC(),
		HasFailures: hasFailures,
		Items:       items,
	}
}

func (c *Checker) checkCPUs() domain.DiagnosticItem {
	item := domain.DiagnosticItem{ID: "cpu", Name: "Logical CPUs"}

	n := c.numCPU()
	item.Message = fmt.Sprintf("%d logical CPUs available", n)
	if n < 2 {
		item.Status = domain.DiagnosticStatusWarn
		item.Hint = "Searches run one worker per CPU; expect long waits for longer keywords."
		return item
	}
	item.Status = domain.DiagnosticStatusPass
	return item
}

// checkRandom reads from the system random source used to seed engines.
func (c *Checker) checkRandom() domain.DiagnosticItem {
	item := domain.DiagnosticItem{ID: "random", Name: "Random source"}

	buf := make([]byte, 32)
	if _, err := io.ReadFull(readerFunc(c.randRead), buf); err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Cannot read system randomness: %v", err)
		item.Hint = "Key generation requires a working operating system random source."
		return item
	}
	if bytes.Equal(buf, make([]byte, len(buf))) {
		item.Status = domain.DiagnosticStatusFail
		item.Message = "System random source returned only zero bytes."
		item.Hint = "Key generation requires a working operating system random source."
		return item
	}

	item.Status = domain.DiagnosticStatusPass
	item.Message = "System random source is readable."
	return item
}

func (c *Checker) checkKeygen() domain.DiagnosticItem {
	item := domain.DiagnosticItem{ID: "keygen", Name: "Key rendering"}

	if err := c.selfTest(); err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("ed25519 self-test failed: %v", err)
		return item
	}
	item.Status = domain.DiagnosticStatusPass
	item.Message = "ed25519 keys render and parse as OpenSSH."
	return item
}

// checkSaveDir validates save folder existence and write access.
func (c *Checker) checkSaveDir(saveDir string) domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   "save_dir",
		Name: "Save folder",
	}

	if strings.TrimSpace(saveDir) == "" {
		item.Status = domain.DiagnosticStatusFail
		item.Message = "Save folder is empty."
		item.Hint = "Set a folder where found keys can be written."
		return item
	}

	if err := c.mkdirAll(saveDir, 0o755); err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Cannot create save folder: %s", saveDir)
		item.Hint = "Choose a writable location or adjust filesystem permissions."
		return item
	}

	tmpFile, err := c.createTemp(saveDir, ".write-check-*")
	if err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Save folder is not writable: %s", saveDir)
		item.Hint = "Choose a writable folder for found keys."
		return item
	}

	tmpPath := tmpFile.Name()
	_ = tmpFile.Close()
	_ = c.remove(tmpPath)

	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("Writable folder: %s", filepath.Clean(saveDir))
	return item
}

// SelfTest renders a key from a fixed seed and parses both halves back.
func SelfTest() error {
	seed := make([]byte, 32)
	for i := range seed {
		seed[i] = byte(i)
	}
	candidate, err := keygen.NewCandidate(seed)
	if err != nil {
		return err
	}
	pair, err := candidate.KeyPair()
	if err != nil {
		return err
	}

	return export.Verify(*pair)
}

type readerFunc func([]byte) (int, error)

func (f readerFunc) Read(p []byte) (int, error) { return f(p) }

// NewCheckerForTests creates checker with injectable dependencies.
func NewCheckerForTests(
	numCPU func() int,
	randRead func([]byte) (int, error),
	selfTest func() error,
	mkdirAll func(string, os.FileMode) error,
	createTemp func(string, string) (*os.File, error),
	remove func(string) error,
) *Checker {
	return &Checker{
		numCPU:     numCPU,
		randRead:   randRead,
		selfTest:   selfTest,
		mkdirAll:   mkdirAll,
		createTemp: createTemp,
		remove:     remove,
	}
}
