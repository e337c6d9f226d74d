package roles

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDelayStore_PutGetRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "delays.json")
	s := NewDelayStore(path)

	if _, ok := s.Get("Observer"); ok {
		t.Fatal("empty store must miss")
	}
	if err := s.Put("Observer", 42*time.Second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	d, ok := s.Get("Observer")
	if !ok || d != 42*time.Second {
		t.Errorf("expected 42s, got %v ok=%v", d, ok)
	}
}

func TestDelayStore_SurvivesReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "delays.json")
	s := NewDelayStore(path)
	if err := s.Put("Observer", 15*time.Second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	reloaded := NewDelayStore(path)
	d, ok := reloaded.Get("Observer")
	if !ok || d != 15*time.Second {
		t.Errorf("expected persisted 15s, got %v ok=%v", d, ok)
	}
}

func TestDelayStore_CorruptFileDiscarded(t *testing.T) {
	path := filepath.Join(t.TempDir(), "delays.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	s := NewDelayStore(path)
	if _, ok := s.Get("Observer"); ok {
		t.Error("corrupt file must load as empty")
	}
	if err := s.Put("Observer", time.Second); err != nil {
		t.Errorf("store must stay writable after corrupt load: %v", err)
	}
}
