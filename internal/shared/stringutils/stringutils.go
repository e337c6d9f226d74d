package stringutils

import (
	"hash/fnv"
	"regexp"
	"strconv"
	"strings"
)

var (
	reThink   = regexp.MustCompile(`(?s)<think>.*?</think>`)
	reControl = regexp.MustCompile(`(?s)<\|[^|]*\|>|\[/?(?:INST|SYS|SYSTEM)\]`)
)

// Truncate shortens a string to at most n characters, adding "..." if it was truncated.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// Head returns at most the first n bytes of s with surrounding whitespace trimmed.
func Head(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// StripThink removes <think>…</think> blocks that some models embed.
func StripThink(s string) string {
	return reThink.ReplaceAllString(s, "")
}

// StripControlMarkup removes structural tokens a model may leak into its
// output: special-token delimiters like <|im_end|> and instruction-template
// tags like [INST].
func StripControlMarkup(s string) string {
	return strings.TrimSpace(reControl.ReplaceAllString(s, ""))
}

// Sanitize applies all output cleanups in order.
func Sanitize(s string) string {
	return StripControlMarkup(StripThink(s))
}

// HashText returns a short stable digest of s (FNV-1a 64), suitable for
// equality caching but not for security.
func HashText(s string) string {
	h := fnv.New64a()
	h.Write([]byte(s))
	return strconv.FormatUint(h.Sum64(), 16)
}
