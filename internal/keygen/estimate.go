package keygen

import (
	"math"
	"strings"

	"ssh-vanity/internal/domain"
)

// randomSpan is the number of base64 characters in each rendering that vary
// between keys. Fixed headers are not counted.
var randomSpan = map[domain.Field]int{
	domain.FieldPublicKey:         43,
	domain.FieldPrivateKey:        140,
	domain.FieldSha1Fingerprint:   27,
	domain.FieldSha256Fingerprint: 43,
	domain.FieldSha384Fingerprint: 64,
	domain.FieldSha512Fingerprint: 86,
}

const base64Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

// ExpectedAttempts estimates how many keys a search needs on average.
// It returns +Inf when a keyword can never appear in a selected field.
func ExpectedAttempts(cfg domain.JobConfig) float64 {
	p := fieldsProbability(cfg)
	if p <= 0 {
		return math.Inf(1)
	}
	return 1 / p
}

func fieldsProbability(cfg domain.JobConfig) float64 {
	if len(cfg.Fields) == 0 || len(cfg.Keywords) == 0 {
		return 0
	}
	probs := make([]float64, 0, len(cfg.Fields))
	for _, field := range cfg.Fields {
		probs = append(probs, keywordsProbability(cfg, randomSpan[field]))
	}
	return combine(probs, cfg.FieldMatchMode == domain.MatchAll)
}

func keywordsProbability(cfg domain.JobConfig, span int) float64 {
	probs := make([]float64, 0, len(cfg.Keywords))
	for _, keyword := range cfg.Keywords {
		probs = append(probs, keywordProbability(strings.TrimSpace(keyword), span))
	}
	return combine(probs, cfg.KeywordMatchMode == domain.MatchAll)
}

// keywordProbability is the chance keyword shows up somewhere in span random
// base64 characters, compared case-insensitively.
func keywordProbability(keyword string, span int) float64 {
	n := len(keyword)
	if n == 0 || n > span {
		return 0
	}

	p := 1.0
	for _, r := range keyword {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			p *= 2.0 / 64
		case strings.ContainsRune(base64Alphabet, r):
			p *= 1.0 / 64
		default:
			return 0
		}
	}

	positions := float64(span - n + 1)
	return math.Min(1, p*positions)
}

func combine(probs []float64, all bool) float64 {
	if all {
		out := 1.0
		for _, p := range probs {
			out *= p
		}
		return out
	}
	miss := 1.0
	for _, p := range probs {
		miss *= 1 - p
	}
	return 1 - miss
}
