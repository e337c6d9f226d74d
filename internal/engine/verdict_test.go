package engine

import "testing"

func TestParseVerdict_PlainYes(t *testing.T) {
	if got := ParseVerdict("YES"); got != VerdictYes {
		t.Errorf("expected yes, got %v", got)
	}
}

func TestParseVerdict_LowercaseYes(t *testing.T) {
	if got := ParseVerdict("yes"); got != VerdictYes {
		t.Errorf("expected yes, got %v", got)
	}
}

func TestParseVerdict_YesWithTrailingText(t *testing.T) {
	if got := ParseVerdict("Yes, the topic has moved on."); got != VerdictYes {
		t.Errorf("expected yes, got %v", got)
	}
}

func TestParseVerdict_QuotedYes(t *testing.T) {
	if got := ParseVerdict(`"YES"`); got != VerdictYes {
		t.Errorf("expected yes, got %v", got)
	}
}

func TestParseVerdict_PlainNo(t *testing.T) {
	if got := ParseVerdict("NO"); got != VerdictNo {
		t.Errorf("expected no, got %v", got)
	}
}

func TestParseVerdict_NoWithPunctuation(t *testing.T) {
	if got := ParseVerdict("  - no."); got != VerdictNo {
		t.Errorf("expected no, got %v", got)
	}
}

func TestParseVerdict_Empty(t *testing.T) {
	if got := ParseVerdict(""); got != VerdictAmbiguous {
		t.Errorf("expected ambiguous, got %v", got)
	}
}

func TestParseVerdict_Whitespace(t *testing.T) {
	if got := ParseVerdict("   \n\t "); got != VerdictAmbiguous {
		t.Errorf("expected ambiguous, got %v", got)
	}
}

func TestParseVerdict_FreeText(t *testing.T) {
	if got := ParseVerdict("I think it depends on the context"); got != VerdictAmbiguous {
		t.Errorf("expected ambiguous, got %v", got)
	}
}

func TestParseVerdict_YesBuriedMidSentence(t *testing.T) {
	// The accepted patterns are prefix-only: a yes buried in prose must
	// not count.
	if got := ParseVerdict("The answer is yes"); got != VerdictAmbiguous {
		t.Errorf("expected ambiguous, got %v", got)
	}
}
