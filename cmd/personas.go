package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/chorusbot/chorus/internal/config"
	"github.com/chorusbot/chorus/internal/roles"
)

var personasCmd = &cobra.Command{
	Use:   "personas",
	Short: "List resolved personas and their strategies",
	RunE:  runPersonas,
}

func runPersonas(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(config.ConfigPath())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	personas := make(map[string]config.PersonaConfig, len(cfg.Personas))
	for id, pc := range cfg.Personas {
		personas[id] = pc
	}
	if cfg.PersonasDir != "" {
		extra, err := config.LoadPersonaDir(config.ExpandHome(cfg.PersonasDir))
		if err != nil {
			return fmt.Errorf("load personas dir: %w", err)
		}
		for id, pc := range extra {
			if _, exists := personas[id]; !exists {
				personas[id] = pc
			}
		}
	}

	registry := roles.NewRegistry(personas)
	ids := registry.PersonaIDs()
	sort.Strings(ids)

	if len(ids) == 0 {
		fmt.Println("No personas configured. Run `chorus onboard` to create templates.")
		return nil
	}

	fmt.Printf("%s Personas\n\n", logo)
	for _, id := range ids {
		rc := registry.Resolve(id, nil)
		delay := "immediate"
		if rc.ObservationDelay > 0 {
			delay = rc.ObservationDelay.String()
		}
		fmt.Printf("  %-12s %-24s strategy=%s delay=%s\n", id, rc.Name, rc.Strategy, delay)
	}
	return nil
}
