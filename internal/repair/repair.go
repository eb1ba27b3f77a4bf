// Package repair converts minor model output drift (code fences, trailing
// prose, a missing field) into a recoverable path: one bounded re-ask with
// the broken output and the expected shape, never an open-ended retry.
package repair

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"trendsift/internal/provider"
)

const fixSystemPrompt = "You are a JSON repair tool. You receive malformed JSON and the schema it should satisfy. Respond with corrected JSON only: no prose, no code fences, no commentary."

// Error reports a failed repair attempt and carries both the original parse
// failure and the error from the repair call itself.
type Error struct {
	Original error
	Repair   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("repair failed: %v (original parse error: %v)", e.Repair, e.Original)
}

func (e *Error) Unwrap() []error { return []error{e.Original, e.Repair} }

// Fix sends the broken model output back through the fallback router with a
// correction instruction, exactly once. It returns the extracted JSON from
// the repaired response and the tier that produced it. The caller remains
// responsible for validating the result against its schema; a second
// failure there must not re-enter Fix.
func Fix(ctx context.Context, logger *zap.Logger, router *provider.Router, schemaHint, badOutput string, originalErr error) (string, string, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var prompt strings.Builder
	prompt.WriteString("The following output was supposed to be JSON matching this shape:\n\n")
	prompt.WriteString(schemaHint)
	prompt.WriteString("\n\nIt failed to parse")
	if originalErr != nil {
		fmt.Fprintf(&prompt, " (%v)", originalErr)
	}
	prompt.WriteString(". Broken output:\n\n")
	prompt.WriteString(badOutput)
	prompt.WriteString("\n\nEmit the corrected JSON only.")

	logger.Info("attempting response repair",
		zap.Int("broken_len", len(badOutput)),
		zap.NamedError("parse_error", originalErr))

	fixed, tier, err := router.Complete(ctx, fixSystemPrompt, prompt.String())
	if err != nil {
		return "", "", &Error{Original: originalErr, Repair: err}
	}

	extracted := ExtractJSON(fixed)
	if extracted == "" {
		return "", "", &Error{Original: originalErr, Repair: errors.New("repaired response contains no JSON")}
	}

	logger.Info("response repair produced candidate JSON", zap.String("tier", tier))
	return extracted, tier, nil
}

// ExtractJSON finds the first complete JSON object or array in a model
// response, tolerating markdown code fences and surrounding prose. Returns
// "" when no balanced value is present.
func ExtractJSON(response string) string {
	// Strip a code fence if the whole payload is fenced.
	if idx := strings.Index(response, "```"); idx != -1 {
		rest := response[idx+3:]
		rest = strings.TrimPrefix(rest, "json")
		if end := strings.Index(rest, "```"); end != -1 {
			if inner := extractBalanced(rest[:end]); inner != "" {
				return inner
			}
		}
	}
	return extractBalanced(response)
}

// extractBalanced scans for the first balanced {...} or [...] span,
// respecting JSON string literals so braces inside strings do not
// terminate the scan early.
func extractBalanced(s string) string {
	start := -1
	var open, close byte
	for i := 0; i < len(s); i++ {
		if s[i] == '{' {
			start, open, close = i, '{', '}'
			break
		}
		if s[i] == '[' {
			start, open, close = i, '[', ']'
			break
		}
	}
	if start == -1 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}
