package config

import (
	"runtime"
	"strconv"

	"ssh-vanity/internal/domain"
)

// DefaultSaveTo is the folder found keys are written to when none is set.
const DefaultSaveTo = "found-keys"

// DefaultFields returns the fields searched on first launch.
func DefaultFields() []domain.Field {
	return []domain.Field{domain.FieldPublicKey, domain.FieldSha256Fingerprint}
}

// DefaultSettings returns baseline form values for first launch and reset.
func DefaultSettings() domain.Settings {
	fields := DefaultFields()
	names := make([]string, 0, len(fields))
	for _, field := range fields {
		names = append(names, string(field))
	}

	return domain.Settings{
		Keywords:        "",
		WorkersCount:    strconv.Itoa(runtime.NumCPU()),
		Fields:          names,
		KeywordMatching: string(domain.MatchAny),
		FieldMatching:   string(domain.MatchAll),
		SaveTo:          DefaultSaveTo,
	}
}
