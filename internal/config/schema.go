// Package config defines the configuration schema for chorus.
//
// JSON keys use camelCase. The file lives at ~/.chorus/config.json and is
// created by `chorus onboard`.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/chorusbot/chorus/internal/config/channel"
)

// OracleConfig holds credentials and tuning for the language-model gateway.
// Any OpenAI-compatible chat-completions endpoint works.
type OracleConfig struct {
	APIKey       string            `json:"apiKey"`
	APIBase      string            `json:"apiBase,omitempty"`
	Model        string            `json:"model"`
	MaxTokens    int               `json:"maxTokens"`
	Temperature  float64           `json:"temperature"`
	TimeoutSecs  int               `json:"timeoutSeconds"`
	RatePerSec   float64           `json:"ratePerSecond"` // 0 = unlimited
	ExtraHeaders map[string]string `json:"extraHeaders,omitempty"`
}

func defaultOracleConfig() OracleConfig {
	return OracleConfig{
		APIBase:     "https://api.openai.com/v1",
		Model:       "gpt-4o-mini",
		MaxTokens:   1024,
		Temperature: 0.7,
		TimeoutSecs: 30,
		RatePerSec:  2,
	}
}

// PersonaConfig is the file-level override block for one persona.
// Empty fields fall back to the registry defaults for that persona id.
type PersonaConfig struct {
	Name                   string `json:"name,omitempty" yaml:"name"`
	Description            string `json:"description,omitempty" yaml:"description"`
	Strategy               string `json:"strategy,omitempty" yaml:"strategy"` // "always_on_user_question" | "oracle_decides"
	ObservationDelaySecs   *int   `json:"observationDelaySeconds,omitempty" yaml:"observationDelaySeconds"`
	DecisionPrompt         string `json:"decisionPrompt,omitempty" yaml:"decisionPrompt"`
	MaxObservationMessages int    `json:"maxObservationMessages,omitempty" yaml:"maxObservationMessages"`
	RefreshBeforeReply     *bool  `json:"refreshBeforeReply,omitempty" yaml:"refreshBeforeReply"`
}

// EngineConfig tunes the shared orchestration engine.
type EngineConfig struct {
	QueueSize         int `json:"queueSize"`
	Workers           int `json:"workers"`
	HistoryLimit      int `json:"historyLimit"`      // per-conversation buffer cap
	HistoryExpiryMins int `json:"historyExpiryMins"` // stored-message age limit
	JanitorPeriodSecs int `json:"janitorPeriodSeconds"`
}

func defaultEngineConfig() EngineConfig {
	return EngineConfig{
		QueueSize:         64,
		Workers:           4,
		HistoryLimit:      200,
		HistoryExpiryMins: 24 * 60,
		JanitorPeriodSecs: 60,
	}
}

// Config is the root configuration object.
type Config struct {
	Oracle      OracleConfig             `json:"oracle"`
	Engine      EngineConfig             `json:"engine"`
	Personas    map[string]PersonaConfig `json:"personas"`
	PersonasDir string                   `json:"personasDir,omitempty"` // extra YAML persona definitions
	Channels    channel.ChannelsConfig   `json:"channels"`
	BusSize     int                      `json:"busSize"`
}

// DefaultConfig returns a Config populated with built-in defaults.
func DefaultConfig() Config {
	return Config{
		Oracle:   defaultOracleConfig(),
		Engine:   defaultEngineConfig(),
		Personas: map[string]PersonaConfig{},
		Channels: channel.DefaultChannelsConfig(),
		BusSize:  100,
	}
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(strings.TrimPrefix(path, "~"), "/"))
	}
	return path
}
