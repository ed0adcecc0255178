package keygen

import (
	"errors"
	"strings"

	ahocorasick "github.com/petar-dambovaliev/aho-corasick"

	"ssh-vanity/internal/domain"
)

var (
	// ErrNoKeywords is returned when an engine is built without keywords.
	ErrNoKeywords = errors.New("no keywords configured")
	// ErrNoFields is returned when an engine is built without fields.
	ErrNoFields = errors.New("no search fields configured")
)

// Matcher evaluates the any/all keyword and field predicate. Keywords are
// compiled into one ASCII case-insensitive automaton.
type Matcher struct {
	automaton   ahocorasick.AhoCorasick
	patterns    int
	fields      []domain.Field
	allKeywords bool
	allFields   bool
}

// NewMatcher builds a case-insensitive matcher from cfg.
func NewMatcher(cfg domain.JobConfig) (*Matcher, error) {
	keywords := make([]string, 0, len(cfg.Keywords))
	seen := make(map[string]struct{}, len(cfg.Keywords))
	for _, keyword := range cfg.Keywords {
		keyword = strings.TrimSpace(keyword)
		if keyword == "" {
			continue
		}
		// Duplicates would leave a pattern id that never matches in all mode.
		folded := asciiLower(keyword)
		if _, dup := seen[folded]; dup {
			continue
		}
		seen[folded] = struct{}{}
		keywords = append(keywords, keyword)
	}
	if len(keywords) == 0 {
		return nil, ErrNoKeywords
	}
	if len(cfg.Fields) == 0 {
		return nil, ErrNoFields
	}
	for _, field := range cfg.Fields {
		if !field.Valid() {
			return nil, &domain.ValidationError{Field: "fields", Message: "unknown field " + string(field)}
		}
	}

	builder := ahocorasick.NewAhoCorasickBuilder(ahocorasick.Opts{
		AsciiCaseInsensitive: true,
		MatchKind:            ahocorasick.StandardMatch,
		DFA:                  true,
	})

	return &Matcher{
		automaton:   builder.Build(keywords),
		patterns:    len(keywords),
		fields:      append([]domain.Field(nil), cfg.Fields...),
		allKeywords: cfg.KeywordMatchMode == domain.MatchAll,
		allFields:   cfg.FieldMatchMode == domain.MatchAll,
	}, nil
}

// Match reports whether the candidate satisfies the predicate.
func (m *Matcher) Match(c *Candidate) (bool, error) {
	for _, field := range m.fields {
		text, err := c.Render(field)
		if err != nil {
			return false, err
		}
		ok := m.MatchText(text)
		if ok && !m.allFields {
			return true, nil
		}
		if !ok && m.allFields {
			return false, nil
		}
	}
	return m.allFields, nil
}

// MatchText applies the keyword half of the predicate to one rendered field.
func (m *Matcher) MatchText(text string) bool {
	matches := m.automaton.FindAll(text)
	if !m.allKeywords {
		return len(matches) > 0
	}
	if len(matches) < m.patterns {
		return false
	}

	found := make([]bool, m.patterns)
	remaining := m.patterns
	for _, match := range matches {
		id := match.Pattern()
		if !found[id] {
			found[id] = true
			remaining--
			if remaining == 0 {
				return true
			}
		}
	}
	return false
}

// asciiLower folds A-Z only, matching the automaton's case rules.
func asciiLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if 'A' <= c && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
