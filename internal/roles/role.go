// Package roles resolves persona behavioural contracts: participation
// strategy, observation delay, decision prompt, and history depth.
package roles

import (
	"fmt"
	"time"
)

// Strategy selects how a persona decides to participate.
type Strategy string

const (
	// StrategyAlwaysOnUserQuestion replies immediately to every fresh
	// non-bot question, with no oracle participation decision.
	StrategyAlwaysOnUserQuestion Strategy = "always_on_user_question"
	// StrategyOracleDecides schedules a delayed observation and asks the
	// oracle whether to participate.
	StrategyOracleDecides Strategy = "oracle_decides"
)

// ValidStrategy reports whether s names a known strategy.
func ValidStrategy(s Strategy) bool {
	return s == StrategyAlwaysOnUserQuestion || s == StrategyOracleDecides
}

// RoleConfig is a persona's immutable behavioural contract.
// Built once at bot start, read-only afterwards.
type RoleConfig struct {
	Name                   string
	Description            string // oracle-readable persona statement
	Strategy               Strategy
	ObservationDelay       time.Duration // 0 = immediate
	DecisionPrompt         string        // required iff Strategy == StrategyOracleDecides
	MaxObservationMessages int           // history depth cap
	RefreshBeforeReply     bool
}

// Validate checks the structural requirements for a usable role.
func (rc RoleConfig) Validate() error {
	if rc.Name == "" {
		return fmt.Errorf("role: name is required")
	}
	if rc.Description == "" {
		return fmt.Errorf("role %s: description is required", rc.Name)
	}
	if !ValidStrategy(rc.Strategy) {
		return fmt.Errorf("role %s: unknown strategy %q", rc.Name, rc.Strategy)
	}
	if rc.ObservationDelay < 0 {
		return fmt.Errorf("role %s: negative observation delay", rc.Name)
	}
	if rc.Strategy == StrategyOracleDecides && rc.DecisionPrompt == "" {
		return fmt.Errorf("role %s: oracle_decides requires a decision prompt", rc.Name)
	}
	return nil
}
