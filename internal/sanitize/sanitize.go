// Package sanitize neutralizes prompt-injection attempts in scraped content
// before it is interpolated into any model prompt. Every untrusted string
// must pass through Clean, and prompt templates must wrap the result with
// WrapUntrusted so the model sees an unambiguous trust boundary.
package sanitize

import (
	"regexp"
	"strings"
)

// Sentinel tokens delimit untrusted spans inside prompt templates. They do
// not occur in ordinary language; Clean strips any occurrence inside
// untrusted input so content cannot forge a fake boundary.
const (
	BeginContent = "<<<CONTENT>>>"
	EndContent   = "<<<END_CONTENT>>>"
)

// Placeholder replaces each recognized injection pattern. Fixed width,
// carries zero attacker-controlled bytes.
const Placeholder = "[filtered]"

// TruncationMarker is appended when Clean shortens content to the length
// ceiling.
const TruncationMarker = "...[truncated]"

// injectionPatterns match instructions that try to redirect the model's
// role, escape the content delimiters, or inject fake role markers.
// Case-insensitive. Order does not matter; all are applied.
var injectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)ignore\s+(all\s+|any\s+)?(previous|prior|above)\s+(instructions?|prompts?|context)`),
	regexp.MustCompile(`(?i)disregard\s+(all\s+|any\s+)?(previous|prior|above|the)\s+(instructions?|prompts?|rules?)`),
	regexp.MustCompile(`(?i)forget\s+(everything|all|your)\s+(you\s+know|instructions?|rules?|training)`),
	regexp.MustCompile(`(?i)you\s+are\s+(now|no\s+longer)\s+`),
	regexp.MustCompile(`(?i)(new|updated|real)\s+(system\s+)?instructions?\s*:`),
	regexp.MustCompile(`(?i)^\s*(system|assistant|user|developer)\s*:`),
	regexp.MustCompile(`(?im)^\s*(system|assistant|developer)\s*:`),
	regexp.MustCompile(`(?i)\[\s*/?(system|inst|assistant)\s*\]`),
	regexp.MustCompile(`(?i)<\s*/?\s*(system|instructions?|prompt)\s*>`),
	regexp.MustCompile(`(?i)act\s+as\s+(if\s+you\s+are\s+)?(a\s+|an\s+)?(different|new)\s+`),
	regexp.MustCompile(`(?i)respond\s+only\s+with\s+your\s+(system\s+prompt|instructions)`),
}

// Clean neutralizes injection patterns in untrusted text and truncates it to
// maxLen runes. Detected injections are not an error: they are replaced and
// the run proceeds (the sanitized output never reveals what was removed).
// maxLen <= 0 means no length ceiling.
func Clean(s string, maxLen int) string {
	// Sentinel forgery first, so a pattern match cannot re-introduce one.
	s = strings.ReplaceAll(s, BeginContent, Placeholder)
	s = strings.ReplaceAll(s, EndContent, Placeholder)

	for _, re := range injectionPatterns {
		s = re.ReplaceAllString(s, Placeholder)
	}

	if maxLen > 0 {
		runes := []rune(s)
		if len(runes) > maxLen {
			s = string(runes[:maxLen]) + TruncationMarker
		}
	}
	return s
}

// WrapUntrusted wraps already-cleaned content in the sentinel delimiters for
// inclusion in a prompt template. Callers must pass the string through Clean
// first; WrapUntrusted does not sanitize.
func WrapUntrusted(s string) string {
	var b strings.Builder
	b.Grow(len(s) + len(BeginContent) + len(EndContent) + 2)
	b.WriteString(BeginContent)
	b.WriteByte('\n')
	b.WriteString(s)
	b.WriteByte('\n')
	b.WriteString(EndContent)
	return b.String()
}
