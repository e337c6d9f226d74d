package stringutils

import "testing"

func TestTruncate(t *testing.T) {
	if got := Truncate("hello", 10); got != "hello" {
		t.Errorf("short string must pass through, got %q", got)
	}
	if got := Truncate("hello world", 5); got != "hello..." {
		t.Errorf("got %q", got)
	}
}

func TestHead(t *testing.T) {
	if got := Head("  padded  ", 20); got != "padded" {
		t.Errorf("got %q", got)
	}
	if got := Head("abcdef", 3); got != "abc" {
		t.Errorf("got %q", got)
	}
}

func TestStripThink(t *testing.T) {
	in := "before <think>internal\nreasoning</think> after"
	if got := StripThink(in); got != "before  after" {
		t.Errorf("got %q", got)
	}
}

func TestStripControlMarkup(t *testing.T) {
	in := "<|im_start|>hello [INST] world [/INST]<|im_end|>"
	if got := StripControlMarkup(in); got != "hello  world" {
		t.Errorf("got %q", got)
	}
}

func TestSanitize(t *testing.T) {
	in := "<think>hmm</think>  answer [SYS]"
	if got := Sanitize(in); got != "answer" {
		t.Errorf("got %q", got)
	}
}

func TestHashText_StableAndDistinct(t *testing.T) {
	a1 := HashText("topic one")
	a2 := HashText("topic one")
	b := HashText("topic two")
	if a1 != a2 {
		t.Error("hash must be stable")
	}
	if a1 == b {
		t.Error("different inputs must hash differently")
	}
}
