package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writePersona(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write persona: %v", err)
	}
}

func TestLoadPersonaDir(t *testing.T) {
	dir := t.TempDir()
	writePersona(t, dir, "devrel.yaml", "name: DevRel\ndescription: Advocates for users.\nstrategy: oracle_decides\n")
	writePersona(t, dir, "helper.yml", "name: Helper\nobservationDelaySeconds: 10\n")
	writePersona(t, dir, "notes.txt", "not a persona")

	got, err := LoadPersonaDir(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 personas, got %d: %v", len(got), got)
	}
	if got["devrel"].Name != "DevRel" || got["devrel"].Strategy != "oracle_decides" {
		t.Errorf("devrel not parsed: %+v", got["devrel"])
	}
	if got["helper"].ObservationDelaySecs == nil || *got["helper"].ObservationDelaySecs != 10 {
		t.Errorf("helper delay not parsed: %+v", got["helper"])
	}
}

func TestLoadPersonaDir_SkipsBadFiles(t *testing.T) {
	dir := t.TempDir()
	writePersona(t, dir, "good.yaml", "name: Good\n")
	writePersona(t, dir, "bad.yaml", "name: [unclosed\n")

	got, err := LoadPersonaDir(dir)
	if err != nil {
		t.Fatalf("one bad file must not fail the load: %v", err)
	}
	if len(got) != 1 || got["good"].Name != "Good" {
		t.Errorf("expected only the good persona, got %v", got)
	}
}

func TestLoadPersonaDir_MissingDir(t *testing.T) {
	got, err := LoadPersonaDir(filepath.Join(t.TempDir(), "nope"))
	if err != nil {
		t.Fatalf("missing dir must yield empty map, got error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty map, got %v", got)
	}
}
