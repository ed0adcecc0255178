package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidConfig is matched by every ValidationError.
var ErrInvalidConfig = errors.New("invalid search config")

// ValidationError reports a JobConfig that cannot start a run.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error formats the failing member and reason.
func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Is lets errors.Is match ErrInvalidConfig.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidConfig
}

// Normalize trims keywords, drops blanks and clamps numeric members.
func (c JobConfig) Normalize() JobConfig {
	keywords := make([]string, 0, len(c.Keywords))
	for _, keyword := range c.Keywords {
		keyword = strings.TrimSpace(keyword)
		if keyword != "" {
			keywords = append(keywords, keyword)
		}
	}

	out := JobConfig{
		Keywords:         keywords,
		Fields:           append([]Field(nil), c.Fields...),
		KeywordMatchMode: c.KeywordMatchMode,
		FieldMatchMode:   c.FieldMatchMode,
		WorkerCount:      c.WorkerCount,
		BatchSize:        c.BatchSize,
	}
	if out.KeywordMatchMode != MatchAll {
		out.KeywordMatchMode = MatchAny
	}
	if out.FieldMatchMode != MatchAll {
		out.FieldMatchMode = MatchAny
	}
	if out.WorkerCount < 1 {
		out.WorkerCount = 1
	}
	if out.BatchSize < 1 {
		out.BatchSize = DefaultBatchSize
	}
	return out
}

// Validate checks the members a run cannot start without.
func (c JobConfig) Validate() error {
	if len(c.Keywords) == 0 {
		return &ValidationError{Field: "keywords", Message: "enter at least one keyword"}
	}
	if len(c.Fields) == 0 {
		return &ValidationError{Field: "fields", Message: "select at least one field"}
	}
	for _, field := range c.Fields {
		if !field.Valid() {
			return &ValidationError{Field: "fields", Message: fmt.Sprintf("unknown field %q", field)}
		}
	}
	return nil
}
