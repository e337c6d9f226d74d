package roles

import (
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/chorusbot/chorus/internal/config"
)

const (
	defaultObservationDelay = 30 * time.Second
	defaultMaxObservation   = 20

	genericDecisionPrompt = "You are observing a group conversation. " +
		"Answer YES if you have something genuinely useful to add, NO otherwise."
)

// envOverride mirrors RoleConfig as raw strings so each environment variable
// can be validated and dropped individually instead of failing the whole
// merge. Variables are read with the prefix CHORUS_PERSONA_<ID>_.
type envOverride struct {
	Name                   string `envconfig:"NAME"`
	Description            string `envconfig:"DESCRIPTION"`
	Strategy               string `envconfig:"STRATEGY"`
	ObservationDelaySecs   string `envconfig:"OBSERVATION_DELAY_SECONDS"`
	DecisionPrompt         string `envconfig:"DECISION_PROMPT"`
	MaxObservationMessages string `envconfig:"MAX_OBSERVATION_MESSAGES"`
	RefreshBeforeReply     string `envconfig:"REFRESH_BEFORE_REPLY"`
}

// Registry resolves persona ids to RoleConfigs by layering built-in
// defaults, file-level configuration, caller overrides, and environment
// overrides (highest priority). Resolution is deterministic and
// side-effect-free besides logging.
type Registry struct {
	builtins map[string]RoleConfig
	file     map[string]config.PersonaConfig
}

// NewRegistry creates a Registry. file holds persona blocks from the config
// file and any personas directory; it may be nil.
func NewRegistry(file map[string]config.PersonaConfig) *Registry {
	return &Registry{
		builtins: builtinRoles(),
		file:     file,
	}
}

// PersonaIDs returns every persona id known to the registry, built-ins first.
func (r *Registry) PersonaIDs() []string {
	seen := map[string]bool{}
	var ids []string
	for id := range r.builtins {
		ids = append(ids, id)
		seen[id] = true
	}
	for id := range r.file {
		if !seen[id] {
			ids = append(ids, id)
		}
	}
	return ids
}

// Resolve returns the effective RoleConfig for personaID.
//
// Merge order: built-in defaults → file config → caller overrides →
// environment overrides. After each layer the merged result is validated;
// an invalid merge is discarded and the last valid base is kept, so a
// misconfigured persona degrades gracefully instead of crashing the bot.
// Unknown persona ids resolve to a generic fallback persona.
func (r *Registry) Resolve(personaID string, overrides *config.PersonaConfig) RoleConfig {
	base, ok := r.builtins[personaID]
	if !ok {
		base = genericFallback(personaID)
		if _, inFile := r.file[personaID]; !inFile && overrides == nil {
			slog.Warn("roles: unknown persona, using generic fallback", "persona", personaID)
		}
	}

	valid := base

	if fc, ok := r.file[personaID]; ok {
		merged := applyPersonaConfig(valid, fc)
		valid = keepIfValid(valid, merged, personaID, "file")
	}

	if overrides != nil {
		merged := applyPersonaConfig(valid, *overrides)
		valid = keepIfValid(valid, merged, personaID, "overrides")
	}

	valid = applyEnvOverrides(valid, personaID)

	return valid
}

func keepIfValid(last, merged RoleConfig, personaID, layer string) RoleConfig {
	if err := merged.Validate(); err != nil {
		slog.Warn("roles: discarding invalid merge", "persona", personaID, "layer", layer, "err", err)
		return last
	}
	return merged
}

// applyPersonaConfig overlays the non-empty fields of pc onto rc.
func applyPersonaConfig(rc RoleConfig, pc config.PersonaConfig) RoleConfig {
	if pc.Name != "" {
		rc.Name = pc.Name
	}
	if pc.Description != "" {
		rc.Description = pc.Description
	}
	if pc.Strategy != "" {
		rc.Strategy = Strategy(pc.Strategy)
	}
	if pc.ObservationDelaySecs != nil {
		rc.ObservationDelay = time.Duration(*pc.ObservationDelaySecs) * time.Second
	}
	if pc.DecisionPrompt != "" {
		rc.DecisionPrompt = pc.DecisionPrompt
	}
	if pc.MaxObservationMessages > 0 {
		rc.MaxObservationMessages = pc.MaxObservationMessages
	}
	if pc.RefreshBeforeReply != nil {
		rc.RefreshBeforeReply = *pc.RefreshBeforeReply
	}
	return rc
}

// applyEnvOverrides reads CHORUS_PERSONA_<ID>_* variables and applies them
// field by field. Each field is validated on its own; invalid values are
// logged and dropped rather than propagated.
func applyEnvOverrides(rc RoleConfig, personaID string) RoleConfig {
	var ov envOverride
	prefix := "CHORUS_PERSONA_" + strings.ToUpper(strings.ReplaceAll(personaID, "-", "_"))
	if err := envconfig.Process(prefix, &ov); err != nil {
		slog.Warn("roles: reading env overrides", "persona", personaID, "err", err)
		return rc
	}

	out := rc
	if ov.Name != "" {
		out.Name = ov.Name
	}
	if ov.Description != "" {
		out.Description = ov.Description
	}
	if ov.Strategy != "" {
		if ValidStrategy(Strategy(ov.Strategy)) {
			out.Strategy = Strategy(ov.Strategy)
		} else {
			slog.Warn("roles: dropping invalid env strategy", "persona", personaID, "value", ov.Strategy)
		}
	}
	if ov.ObservationDelaySecs != "" {
		if secs, err := strconv.Atoi(ov.ObservationDelaySecs); err == nil && secs >= 0 {
			out.ObservationDelay = time.Duration(secs) * time.Second
		} else {
			slog.Warn("roles: dropping invalid env observation delay", "persona", personaID, "value", ov.ObservationDelaySecs)
		}
	}
	if ov.DecisionPrompt != "" {
		out.DecisionPrompt = ov.DecisionPrompt
	}
	if ov.MaxObservationMessages != "" {
		if n, err := strconv.Atoi(ov.MaxObservationMessages); err == nil && n > 0 {
			out.MaxObservationMessages = n
		} else {
			slog.Warn("roles: dropping invalid env max observation messages", "persona", personaID, "value", ov.MaxObservationMessages)
		}
	}
	if ov.RefreshBeforeReply != "" {
		if b, err := strconv.ParseBool(ov.RefreshBeforeReply); err == nil {
			out.RefreshBeforeReply = b
		} else {
			slog.Warn("roles: dropping invalid env refresh flag", "persona", personaID, "value", ov.RefreshBeforeReply)
		}
	}

	if err := out.Validate(); err != nil {
		slog.Warn("roles: discarding invalid merge", "persona", personaID, "layer", "env", "err", err)
		return rc
	}
	return out
}

// genericFallback is the role used for persona ids with no configuration at
// all: oracle-decides, mid-range delay, generic decision prompt.
func genericFallback(personaID string) RoleConfig {
	return RoleConfig{
		Name:                   personaID,
		Description:            "A thoughtful conversation participant who chimes in when genuinely helpful.",
		Strategy:               StrategyOracleDecides,
		ObservationDelay:       defaultObservationDelay,
		DecisionPrompt:         genericDecisionPrompt,
		MaxObservationMessages: defaultMaxObservation,
	}
}

// builtinRoles returns the personas shipped with chorus.
func builtinRoles() map[string]RoleConfig {
	return map[string]RoleConfig{
		"expert": {
			Name:                   "Expert",
			Description:            "A domain expert who answers direct questions precisely and concisely.",
			Strategy:               StrategyAlwaysOnUserQuestion,
			ObservationDelay:       0,
			MaxObservationMessages: defaultMaxObservation,
		},
		"observer": {
			Name:                   "Observer",
			Description:            "A quiet participant who only speaks up when the discussion clearly needs it.",
			Strategy:               StrategyOracleDecides,
			ObservationDelay:       defaultObservationDelay,
			DecisionPrompt:         genericDecisionPrompt,
			MaxObservationMessages: defaultMaxObservation,
		},
		"summarizer": {
			Name:        "Summarizer",
			Description: "A deep thinker who waits for a discussion to develop, then distils it.",
			Strategy:    StrategyOracleDecides,
			// Longer delay so there is something worth summarising.
			ObservationDelay: 2 * defaultObservationDelay,
			DecisionPrompt: "Answer YES only if the conversation has accumulated enough " +
				"substance that a summary or synthesis would help. Otherwise answer NO.",
			MaxObservationMessages: 2 * defaultMaxObservation,
			RefreshBeforeReply:     true,
		},
	}
}
