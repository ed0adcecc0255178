package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"ssh-vanity/internal/domain"
)

// DefaultFileNames are tried in order when no run file is given.
var DefaultFileNames = []string{"config.yaml", "config.yml"}

// ErrNoConfigFile is returned when no run file path was given and none of
// DefaultFileNames exists.
var ErrNoConfigFile = errors.New("no configuration file found, tried config.yaml and config.yml")

// File is the YAML run file read by the command line search.
type File struct {
	Keywords []string      `yaml:"keywords"`
	Search   SearchSection `yaml:"search"`
	Runtime  RuntimeConfig `yaml:"runtime"`
	Output   OutputConfig  `yaml:"output"`
}

// SearchSection selects fields and matching modes.
type SearchSection struct {
	Fields   []domain.Field `yaml:"fields"`
	Matching Matching       `yaml:"matching"`
}

// Matching holds the any/all switches.
type Matching struct {
	AllKeywords bool `yaml:"all-keywords"`
	AllFields   bool `yaml:"all-fields"`
}

// RuntimeConfig sizes the worker pool.
type RuntimeConfig struct {
	Threads int `yaml:"threads"`
}

// OutputConfig says where found keys are written.
type OutputConfig struct {
	SaveTo string `yaml:"save-to"`
}

// DefaultFile returns a run file with every optional section defaulted.
func DefaultFile() File {
	return File{
		Search:  SearchSection{Fields: DefaultFields()},
		Runtime: RuntimeConfig{Threads: runtime.NumCPU()},
		Output:  OutputConfig{SaveTo: DefaultSaveTo},
	}
}

// LoadFile reads a run file. An empty path tries DefaultFileNames in the
// working directory.
func LoadFile(path string) (File, error) {
	if path == "" {
		for _, name := range DefaultFileNames {
			if _, err := os.Stat(name); err == nil {
				path = name
				break
			}
		}
		if path == "" {
			return File{}, ErrNoConfigFile
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return File{}, err
	}
	defer f.Close()

	cfg := DefaultFile()
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return File{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.JobConfig().Validate(); err != nil {
		return File{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// JobConfig converts the run file into a search config.
func (f File) JobConfig() domain.JobConfig {
	cfg := domain.JobConfig{
		Keywords:         f.Keywords,
		Fields:           f.Search.Fields,
		KeywordMatchMode: domain.MatchAny,
		FieldMatchMode:   domain.MatchAny,
		WorkerCount:      f.Runtime.Threads,
		BatchSize:        domain.DefaultBatchSize,
	}
	if f.Search.Matching.AllKeywords {
		cfg.KeywordMatchMode = domain.MatchAll
	}
	if f.Search.Matching.AllFields {
		cfg.FieldMatchMode = domain.MatchAll
	}
	return cfg.Normalize()
}

// SaveDir returns the folder found keys go to.
func (f File) SaveDir() string {
	if dir := strings.TrimSpace(f.Output.SaveTo); dir != "" {
		return dir
	}
	return DefaultSaveTo
}

// Overview renders the effective configuration for display before a run.
func (f File) Overview() string {
	cfg := f.JobConfig()
	fields := make([]string, 0, len(cfg.Fields))
	for _, field := range cfg.Fields {
		fields = append(fields, string(field))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Keywords:\n  %s\n", strings.Join(cfg.Keywords, ", "))
	fmt.Fprintf(&b, "Search fields:\n  %s\n", strings.Join(fields, ", "))
	fmt.Fprintf(&b, "Matching:\n  All keywords: %t\n  All fields: %t\n",
		cfg.KeywordMatchMode == domain.MatchAll, cfg.FieldMatchMode == domain.MatchAll)
	fmt.Fprintf(&b, "Threads: %d\n", cfg.WorkerCount)
	fmt.Fprintf(&b, "Save folder: %s", f.SaveDir())
	return b.String()
}
