package engine

import "strings"

// Verdict is the tri-state result of parsing a free-text yes/no oracle
// answer. Ambiguous always maps to the conservative branch: ambiguity never
// triggers a reply.
type Verdict int

const (
	VerdictAmbiguous Verdict = iota
	VerdictYes
	VerdictNo
)

// ParseVerdict interprets an oracle answer as yes/no.
//
// Accepted patterns are exact or prefix matches of "YES"/"NO",
// case-insensitive, after trimming whitespace and leading punctuation.
// Anything else is Ambiguous. Do not widen the accepted patterns without a
// test per pattern.
func ParseVerdict(answer string) Verdict {
	s := strings.ToUpper(strings.TrimSpace(answer))
	s = strings.TrimLeft(s, "\"'*`.,:;!- ")

	switch {
	case strings.HasPrefix(s, "YES"):
		return VerdictYes
	case strings.HasPrefix(s, "NO"):
		return VerdictNo
	default:
		return VerdictAmbiguous
	}
}
