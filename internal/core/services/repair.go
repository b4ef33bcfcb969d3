package services

import (
	"regexp"
	"strings"
)

// Textual repair for near-valid model output. The repair path only runs
// after a parse failure: already-valid output is accepted unmodified and
// never passes through here.

var (
	invalidEscapeRe = regexp.MustCompile(`\\([^"\\/bfnrtu])`)
	objectJoinRe    = regexp.MustCompile(`}\s*{`)
	doubleCommaRe   = regexp.MustCompile(`,\s*,`)
	trailingCommaRe = regexp.MustCompile(`,\s*([}\]])`)
	controlCharRe   = regexp.MustCompile(`[\x00-\x1f]`)
)

// extractArray returns the slice of s from the first '[' through the last
// ']', stripping commentary the model may have added before or after the
// array. When no closing bracket follows the opening one, the tail from
// '[' onward is returned so the balancing repairs can close it. Returns ""
// when no array is present at all.
func extractArray(s string) string {
	start := strings.IndexByte(s, '[')
	if start < 0 {
		return ""
	}
	end := strings.LastIndexByte(s, ']')
	if end <= start {
		return s[start:]
	}
	return s[start : end+1]
}

// repairJSON applies a best-effort textual repair to malformed output:
// strips code fences and surrounding commentary, removes control
// characters and invalid escapes, fixes comma damage, and closes
// unterminated strings, objects and arrays.
func repairJSON(s string) string {
	text := strings.TrimSpace(s)
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")

	// Smart quotes confuse the decoder more often than they appear in
	// real dialogue.
	text = strings.ReplaceAll(text, "“", `"`)
	text = strings.ReplaceAll(text, "”", `"`)

	if arr := extractArray(text); arr != "" {
		text = arr
	}

	text = controlCharRe.ReplaceAllString(text, "")
	text = invalidEscapeRe.ReplaceAllString(text, "$1")
	text = objectJoinRe.ReplaceAllString(text, "},{")
	text = doubleCommaRe.ReplaceAllString(text, ",")

	// Close an unterminated string if the model stopped mid-value.
	if unescapedQuotes(text)%2 != 0 {
		text += `"`
	}

	// Balance braces and brackets.
	if open, closed := strings.Count(text, "{"), strings.Count(text, "}"); open > closed {
		text += strings.Repeat("}", open-closed)
	}
	if open, closed := strings.Count(text, "["), strings.Count(text, "]"); open > closed {
		text += strings.Repeat("]", open-closed)
	}

	text = trailingCommaRe.ReplaceAllString(text, "$1")

	return strings.TrimSpace(text)
}

// unescapedQuotes counts '"' bytes that open or close a string, skipping
// quotes preceded by an odd run of backslashes. Output truncated right
// after an escaped quote would otherwise look balanced by raw byte count.
func unescapedQuotes(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] != '"' {
			continue
		}
		backslashes := 0
		for j := i - 1; j >= 0 && s[j] == '\\'; j-- {
			backslashes++
		}
		if backslashes%2 == 0 {
			n++
		}
	}
	return n
}
