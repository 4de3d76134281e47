// Package secrets redacts credentials from command output before it is
// written to the audit log. Remediation commands routinely echo
// environment dumps, connection strings and service configs; nothing of
// that may land in audit storage verbatim.
package secrets

import (
	"fmt"
	"regexp"
	"sort"
)

// DefaultRedaction replaces each detected secret.
const DefaultRedaction = "[REDACTED]"

// Rule is one secret detection pattern.
type Rule struct {
	ID          string
	Description string
	Pattern     string
}

// Scrubber redacts secrets from text using a fixed rule set. Safe for
// concurrent use; all state is immutable after construction.
type Scrubber struct {
	rules     []compiledRule
	redaction string
}

type compiledRule struct {
	id      string
	pattern *regexp.Regexp
}

// span is a half-open byte range to redact.
type span struct {
	start, end int
}

// New compiles the given rules. With no rules, DefaultRules are used.
func New(rules []Rule, redaction string) (*Scrubber, error) {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	if redaction == "" {
		redaction = DefaultRedaction
	}

	compiled := make([]compiledRule, 0, len(rules))
	for _, rule := range rules {
		re, err := regexp.Compile(rule.Pattern)
		if err != nil {
			return nil, fmt.Errorf("compiling rule %s: %w", rule.ID, err)
		}
		compiled = append(compiled, compiledRule{id: rule.ID, pattern: re})
	}

	return &Scrubber{rules: compiled, redaction: redaction}, nil
}

// MustNew compiles the default rules, panicking on error. The default
// rule set is static, so a panic here is a programming error.
func MustNew() *Scrubber {
	s, err := New(nil, "")
	if err != nil {
		panic(err)
	}
	return s
}

// Scrub replaces every secret match in content with the redaction
// string. Overlapping matches from different rules are merged so the
// output never contains a partial secret.
func (s *Scrubber) Scrub(content string) string {
	if content == "" {
		return content
	}

	var spans []span
	for _, rule := range s.rules {
		for _, m := range rule.pattern.FindAllStringIndex(content, -1) {
			spans = append(spans, span{start: m[0], end: m[1]})
		}
	}
	if len(spans) == 0 {
		return content
	}

	merged := mergeSpans(spans)

	// Replace back to front so earlier offsets stay valid.
	out := content
	for i := len(merged) - 1; i >= 0; i-- {
		out = out[:merged[i].start] + s.redaction + out[merged[i].end:]
	}
	return out
}

// Detect reports the rule IDs that matched, without redacting.
func (s *Scrubber) Detect(content string) []string {
	var ids []string
	for _, rule := range s.rules {
		if rule.pattern.MatchString(content) {
			ids = append(ids, rule.id)
		}
	}
	return ids
}

func mergeSpans(spans []span) []span {
	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })

	merged := spans[:1]
	for _, curr := range spans[1:] {
		last := &merged[len(merged)-1]
		if curr.start <= last.end {
			if curr.end > last.end {
				last.end = curr.end
			}
			continue
		}
		merged = append(merged, curr)
	}
	return merged
}
