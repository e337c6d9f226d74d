package channels

import (
	"context"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/chorusbot/chorus/internal/bus"
	"github.com/chorusbot/chorus/internal/config"
	"github.com/chorusbot/chorus/internal/engine"
)

// Manager owns all enabled channels and resolves adapters for the engine.
type Manager struct {
	channels map[string]Channel
}

// NewManager creates a Manager and initialises all enabled channels.
// The CLIChannel is always registered so a gateway without platform
// credentials is still usable interactively.
func NewManager(cfg *config.Config, b bus.Bus) *Manager {
	m := &Manager{channels: make(map[string]Channel)}

	cli := NewCLIChannel(b)
	m.channels[cli.Name()] = cli
	slog.Info("channel enabled", "name", cli.Name())

	if cfg.Channels.Telegram.Enabled {
		ch := NewTelegramChannel(&cfg.Channels.Telegram, b)
		m.channels[ch.Name()] = ch
		slog.Info("channel enabled", "name", ch.Name())
	}
	if cfg.Channels.Discord.Enabled {
		ch := NewDiscordChannel(&cfg.Channels.Discord, b)
		m.channels[ch.Name()] = ch
		slog.Info("channel enabled", "name", ch.Name())
	}
	if cfg.Channels.Slack.Enabled {
		ch := NewSlackChannel(&cfg.Channels.Slack, b)
		m.channels[ch.Name()] = ch
		slog.Info("channel enabled", "name", ch.Name())
	}

	return m
}

// Adapter implements engine.AdapterRegistry.
func (m *Manager) Adapter(channel string) (engine.ChatAdapter, bool) {
	ch, ok := m.channels[channel]
	if !ok {
		return nil, false
	}
	return ch, true
}

// EnabledChannels returns the names of all enabled channels, sorted.
func (m *Manager) EnabledChannels() []string {
	names := make([]string, 0, len(m.channels))
	for name := range m.channels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// StartAll runs every channel until ctx is cancelled.
func (m *Manager) StartAll(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, ch := range m.channels {
		ch := ch
		g.Go(func() error { return ch.Start(gctx) })
	}
	return g.Wait()
}
