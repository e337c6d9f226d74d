package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chorusbot/chorus/internal/config"
)

var channelsCmd = &cobra.Command{
	Use:   "channels",
	Short: "Show configured chat channels",
	RunE:  runChannels,
}

func runChannels(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(config.ConfigPath())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	fmt.Printf("%s Channels\n\n", logo)

	tg := cfg.Channels.Telegram
	printChannelDetail("telegram", tg.Enabled, tg.Token != "", len(tg.AllowFrom))
	dc := cfg.Channels.Discord
	printChannelDetail("discord", dc.Enabled, dc.Token != "", len(dc.AllowFrom))
	sl := cfg.Channels.Slack
	printChannelDetail("slack", sl.Enabled, sl.BotToken != "" && sl.AppToken != "", len(sl.AllowFrom))
	fmt.Printf("  %-10s always on\n", "cli")
	return nil
}

func printChannelDetail(name string, enabled, hasCreds bool, allowed int) {
	state := "disabled"
	if enabled {
		state = "enabled"
	}
	creds := "no credentials"
	if hasCreds {
		creds = "credentials set"
	}
	scope := "open to all senders"
	if allowed > 0 {
		scope = fmt.Sprintf("%d allowed sender(s)", allowed)
	}
	fmt.Printf("  %-10s %-9s %-16s %s\n", name, state, creds, scope)
}
