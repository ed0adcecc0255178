package config

import (
	"strconv"
	"strings"

	"ssh-vanity/internal/domain"
)

// ParseKeywords splits a comma separated keyword list, dropping blanks.
func ParseKeywords(input string) []string {
	parts := strings.Split(input, ",")
	keywords := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			keywords = append(keywords, part)
		}
	}
	return keywords
}

// JobConfig converts form settings into a search config. Worker counts that
// do not parse fall back to one worker, matching Normalize.
func JobConfig(s domain.Settings) domain.JobConfig {
	workers, err := strconv.Atoi(strings.TrimSpace(s.WorkersCount))
	if err != nil || workers < 1 {
		workers = 1
	}

	fields := make([]domain.Field, 0, len(s.Fields))
	for _, field := range s.Fields {
		fields = append(fields, domain.Field(field))
	}

	return domain.JobConfig{
		Keywords:         ParseKeywords(s.Keywords),
		Fields:           fields,
		KeywordMatchMode: matchMode(s.KeywordMatching),
		FieldMatchMode:   matchMode(s.FieldMatching),
		WorkerCount:      workers,
		BatchSize:        domain.DefaultBatchSize,
	}.Normalize()
}

// SaveDir returns the folder found keys go to.
func SaveDir(s domain.Settings) string {
	if dir := strings.TrimSpace(s.SaveTo); dir != "" {
		return dir
	}
	return DefaultSaveTo
}

func matchMode(value string) domain.MatchMode {
	if strings.EqualFold(strings.TrimSpace(value), string(domain.MatchAll)) {
		return domain.MatchAll
	}
	return domain.MatchAny
}
