package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/chorusbot/chorus/internal/config"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show chorus status",
	RunE:  runStatus,
}

func runStatus(_ *cobra.Command, _ []string) error {
	cfgPath := config.ConfigPath()

	fmt.Printf("%s chorus Status\n\n", logo)

	_, statErr := os.Stat(cfgPath)
	cfgMark := "✗"
	if statErr == nil {
		cfgMark = "✓"
	}
	fmt.Printf("Config:    %s %s\n", cfgPath, cfgMark)

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Printf("  (could not load config: %v)\n", err)
		return nil
	}

	oracleMark := "(not set)"
	if cfg.Oracle.APIKey != "" {
		oracleMark = "✓"
	}
	fmt.Printf("Oracle:    %s %s\n", cfg.Oracle.Model, oracleMark)
	fmt.Printf("Engine:    queue=%d workers=%d history=%d msgs / %d min\n\n",
		cfg.Engine.QueueSize, cfg.Engine.Workers,
		cfg.Engine.HistoryLimit, cfg.Engine.HistoryExpiryMins)

	fmt.Println("Channels:")
	printChannelLine("telegram", cfg.Channels.Telegram.Enabled)
	printChannelLine("discord", cfg.Channels.Discord.Enabled)
	printChannelLine("slack", cfg.Channels.Slack.Enabled)
	printChannelLine("cli", true)

	fmt.Printf("\nPersonas:  %d inline", len(cfg.Personas))
	if cfg.PersonasDir != "" {
		fmt.Printf(", dir %s", cfg.PersonasDir)
	}
	fmt.Println()
	fmt.Println("Run `chorus personas` for the resolved persona list.")
	return nil
}

func printChannelLine(name string, enabled bool) {
	mark := "(disabled)"
	if enabled {
		mark = "✓"
	}
	fmt.Printf("  %-10s %s\n", name, mark)
}
