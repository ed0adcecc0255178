package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"ssh-vanity/internal/domain"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

// TestLoadFileFull reads every section of a run file.
func TestLoadFileFull(t *testing.T) {
	path := writeFile(t, `
keywords: [cafe, beef]
search:
  fields: [public-key, sha384-fingerprint]
  matching:
    all-keywords: true
    all-fields: false
runtime:
  threads: 3
output:
  save-to: out
`)

	f, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	cfg := f.JobConfig()
	if cfg.WorkerCount != 3 || cfg.KeywordMatchMode != domain.MatchAll || cfg.FieldMatchMode != domain.MatchAny {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if len(cfg.Fields) != 2 || cfg.Fields[1] != domain.FieldSha384Fingerprint {
		t.Fatalf("fields = %v", cfg.Fields)
	}
	if f.SaveDir() != "out" {
		t.Fatalf("save dir = %q", f.SaveDir())
	}
}

// TestLoadFileDefaults fills omitted sections.
func TestLoadFileDefaults(t *testing.T) {
	f, err := LoadFile(writeFile(t, "keywords: [abc]\n"))
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	cfg := f.JobConfig()
	if cfg.WorkerCount != runtime.NumCPU() {
		t.Fatalf("workers = %d, want %d", cfg.WorkerCount, runtime.NumCPU())
	}
	if len(cfg.Fields) != len(DefaultFields()) {
		t.Fatalf("fields = %v, want defaults", cfg.Fields)
	}
	if f.SaveDir() != DefaultSaveTo {
		t.Fatalf("save dir = %q", f.SaveDir())
	}
}

// TestLoadFileRejectsBadInput covers unknown keys, fields and missing keywords.
func TestLoadFileRejectsBadInput(t *testing.T) {
	cases := map[string]string{
		"unknown key":   "keywords: [abc]\nturbo: true\n",
		"unknown field": "keywords: [abc]\nsearch:\n  fields: [md5-fingerprint]\n",
		"no keywords":   "runtime:\n  threads: 2\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := LoadFile(writeFile(t, body)); err == nil {
				t.Fatal("expected error")
			}
		})
	}

	_, err := LoadFile(writeFile(t, "keywords: []\n"))
	if !errors.Is(err, domain.ErrInvalidConfig) {
		t.Fatalf("error = %v, want ErrInvalidConfig", err)
	}
}

// TestLoadFileSearchesWorkingDirectory falls back to config.yml.
func TestLoadFileSearchesWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })

	if _, err := LoadFile(""); !errors.Is(err, ErrNoConfigFile) {
		t.Fatalf("error = %v, want ErrNoConfigFile", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "config.yml"), []byte("keywords: [xyz]\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	f, err := LoadFile("")
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if f.Keywords[0] != "xyz" {
		t.Fatalf("keywords = %v", f.Keywords)
	}
}

func TestOverview(t *testing.T) {
	f := DefaultFile()
	f.Keywords = []string{"abc"}
	out := f.Overview()
	for _, want := range []string{"abc", "public-key", "All keywords: false", "Save folder: found-keys"} {
		if !strings.Contains(out, want) {
			t.Errorf("overview missing %q:\n%s", want, out)
		}
	}
}
