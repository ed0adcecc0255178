package domain

import (
	"errors"
	"testing"
)

// TestNormalizeTrimsAndClamps checks keyword cleanup and numeric defaults.
func TestNormalizeTrimsAndClamps(t *testing.T) {
	cfg := JobConfig{
		Keywords:    []string{"  abc ", "", "   ", "XyZ"},
		Fields:      []Field{FieldPublicKey},
		WorkerCount: -3,
	}.Normalize()

	if len(cfg.Keywords) != 2 || cfg.Keywords[0] != "abc" || cfg.Keywords[1] != "XyZ" {
		t.Fatalf("keywords = %q, want [abc XyZ]", cfg.Keywords)
	}
	if cfg.WorkerCount != 1 {
		t.Fatalf("workers = %d, want 1", cfg.WorkerCount)
	}
	if cfg.BatchSize != DefaultBatchSize {
		t.Fatalf("batch size = %d, want %d", cfg.BatchSize, DefaultBatchSize)
	}
	if cfg.KeywordMatchMode != MatchAny || cfg.FieldMatchMode != MatchAny {
		t.Fatalf("modes = %s/%s, want any/any", cfg.KeywordMatchMode, cfg.FieldMatchMode)
	}
}

// TestValidateRejectsEmptyMembers covers both required members.
func TestValidateRejectsEmptyMembers(t *testing.T) {
	cases := map[string]JobConfig{
		"keywords": {Fields: []Field{FieldPublicKey}},
		"fields":   {Keywords: []string{"abc"}},
	}
	for want, cfg := range cases {
		err := cfg.Validate()
		if !errors.Is(err, ErrInvalidConfig) {
			t.Fatalf("%s: error = %v, want ErrInvalidConfig", want, err)
		}
		var vErr *ValidationError
		if !errors.As(err, &vErr) || vErr.Field != want {
			t.Fatalf("%s: error = %#v", want, err)
		}
	}
}

// TestValidateRejectsUnknownField guards the closed field set.
func TestValidateRejectsUnknownField(t *testing.T) {
	cfg := JobConfig{Keywords: []string{"abc"}, Fields: []Field{"md5-fingerprint"}}
	if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("error = %v, want ErrInvalidConfig", err)
	}
}
