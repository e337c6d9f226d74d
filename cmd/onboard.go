package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/chorusbot/chorus/internal/config"
)

var onboardCmd = &cobra.Command{
	Use:   "onboard",
	Short: "Initialize configuration and persona templates",
	RunE:  runOnboard,
}

func runOnboard(_ *cobra.Command, _ []string) error {
	cfgPath := config.ConfigPath()

	if _, err := os.Stat(cfgPath); err == nil {
		fmt.Printf("Config already exists at %s\n", cfgPath)
		fmt.Printf("Press Enter to refresh (keep existing values) or Ctrl+C to cancel: ")
		fmt.Scanln()
		existing, loadErr := config.Load(cfgPath)
		if loadErr != nil {
			def := config.DefaultConfig()
			existing = &def
		}
		if err := config.Save(existing, cfgPath); err != nil {
			return err
		}
		fmt.Printf("✓ Config refreshed at %s\n", cfgPath)
	} else {
		cfg := config.DefaultConfig()
		cfg.PersonasDir = filepath.Join(config.DataDir(), "personas")
		if err := config.Save(&cfg, cfgPath); err != nil {
			return err
		}
		fmt.Printf("✓ Created config at %s\n", cfgPath)
	}

	personasDir := filepath.Join(config.DataDir(), "personas")
	if err := os.MkdirAll(personasDir, 0o755); err != nil {
		return fmt.Errorf("create personas dir: %w", err)
	}
	fmt.Printf("✓ Personas at %s\n", personasDir)

	createPersonaTemplates(personasDir)

	fmt.Printf("\n%s chorus is ready!\n\n", logo)
	fmt.Println("Next steps:")
	fmt.Printf("  1. Add your oracle API key to %s\n", cfgPath)
	fmt.Println("  2. Enable a channel (telegram, discord, slack) in the config")
	fmt.Printf("  3. Run: chorus gateway\n")
	return nil
}

func createPersonaTemplates(dir string) {
	templates := map[string]string{
		"expert.yaml": `name: Expert
description: >
  A domain expert who answers direct questions immediately and weighs in
  on technical discussions when they have something to add.
strategy: always_on_user_question
`,
		"observer.yaml": `name: Observer
description: >
  A quiet participant who follows the conversation and only speaks when a
  topic shift or open question makes a contribution genuinely useful.
strategy: oracle_decides
maxObservationMessages: 30
`,
	}

	for filename, content := range templates {
		p := filepath.Join(dir, filename)
		if _, err := os.Stat(p); os.IsNotExist(err) {
			_ = os.WriteFile(p, []byte(content), 0o644)
			fmt.Printf("  Created personas/%s\n", filename)
		}
	}
}
