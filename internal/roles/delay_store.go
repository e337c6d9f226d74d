package roles

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// DelayStore persists oracle-chosen observation delays keyed by persona name
// so restarts do not re-ask the oracle. The file is an opaque name → millis
// map with no other schema.
type DelayStore struct {
	path string

	mu     sync.Mutex
	delays map[string]int64 // persona name → delay in ms
}

// NewDelayStore loads (or initialises) the delay cache at path.
func NewDelayStore(path string) *DelayStore {
	s := &DelayStore{path: path, delays: map[string]int64{}}

	data, err := os.ReadFile(path)
	if err == nil {
		// A corrupt file is discarded; delays will be re-chosen.
		_ = json.Unmarshal(data, &s.delays)
	}
	return s
}

// Get returns the cached delay for persona, if any.
func (s *DelayStore) Get(persona string) (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ms, ok := s.delays[persona]
	if !ok {
		return 0, false
	}
	return time.Duration(ms) * time.Millisecond, true
}

// Put records the delay for persona and writes the file.
func (s *DelayStore) Put(persona string, d time.Duration) error {
	s.mu.Lock()
	s.delays[persona] = d.Milliseconds()
	data, err := json.MarshalIndent(s.delays, "", "  ")
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("marshal delays: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create delay store dir: %w", err)
	}
	if err := os.WriteFile(s.path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write delay store %s: %w", s.path, err)
	}
	return nil
}
