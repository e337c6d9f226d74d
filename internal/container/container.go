// Package container wires core chorus services using go.uber.org/dig.
package container

import (
	"fmt"
	"sort"
	"time"

	"go.uber.org/dig"

	"github.com/chorusbot/chorus/internal/attach"
	"github.com/chorusbot/chorus/internal/bus"
	"github.com/chorusbot/chorus/internal/channels"
	"github.com/chorusbot/chorus/internal/config"
	"github.com/chorusbot/chorus/internal/engine"
	"github.com/chorusbot/chorus/internal/history"
	"github.com/chorusbot/chorus/internal/janitor"
	"github.com/chorusbot/chorus/internal/providers"
	"github.com/chorusbot/chorus/internal/roles"
)

// Container holds the resolved core service singletons.
// Callers use the typed getter methods; they never need to import dig directly.
type Container struct {
	oracle       providers.Oracle
	msgBus       *bus.MessageBus
	store        *history.Store
	registry     *roles.Registry
	chanMgr      *channels.Manager
	orchestrator *engine.Orchestrator
	janitorSvc   *janitor.Janitor
}

func (c *Container) Oracle() providers.Oracle           { return c.oracle }
func (c *Container) MessageBus() *bus.MessageBus        { return c.msgBus }
func (c *Container) Store() *history.Store              { return c.store }
func (c *Container) Roles() *roles.Registry             { return c.registry }
func (c *Container) Channels() *channels.Manager        { return c.chanMgr }
func (c *Container) Orchestrator() *engine.Orchestrator { return c.orchestrator }
func (c *Container) Janitor() *janitor.Janitor          { return c.janitorSvc }

// New builds and wires all core services from cfg.
func New(cfg *config.Config) (*Container, error) {
	d := dig.New()

	if err := d.Provide(func() *config.Config { return cfg }); err != nil {
		return nil, err
	}
	if err := d.Provide(newOracle); err != nil {
		return nil, err
	}
	if err := d.Provide(newMessageBus); err != nil {
		return nil, err
	}
	if err := d.Provide(newStore); err != nil {
		return nil, err
	}
	if err := d.Provide(newRoleRegistry); err != nil {
		return nil, err
	}
	if err := d.Provide(newDelayStore); err != nil {
		return nil, err
	}
	if err := d.Provide(newChannelManager); err != nil {
		return nil, err
	}
	if err := d.Provide(newProcessor); err != nil {
		return nil, err
	}
	if err := d.Provide(newBots); err != nil {
		return nil, err
	}
	if err := d.Provide(newOrchestrator); err != nil {
		return nil, err
	}
	if err := d.Provide(newJanitor); err != nil {
		return nil, err
	}

	var result *Container
	err := d.Invoke(func(
		oracle providers.Oracle,
		msgBus *bus.MessageBus,
		store *history.Store,
		registry *roles.Registry,
		chanMgr *channels.Manager,
		orchestrator *engine.Orchestrator,
		janitorSvc *janitor.Janitor,
	) {
		result = &Container{
			oracle:       oracle,
			msgBus:       msgBus,
			store:        store,
			registry:     registry,
			chanMgr:      chanMgr,
			orchestrator: orchestrator,
			janitorSvc:   janitorSvc,
		}
	})
	return result, err
}

func newOracle(cfg *config.Config) (providers.Oracle, error) {
	if cfg.Oracle.APIKey == "" {
		return nil, fmt.Errorf("no oracle API key configured — edit %s", config.ConfigPath())
	}
	return providers.NewOpenAIProvider(cfg.Oracle), nil
}

func newMessageBus(cfg *config.Config) *bus.MessageBus {
	size := cfg.BusSize
	if size <= 0 {
		size = 100
	}
	return bus.NewMessageBus(size)
}

func newStore(cfg *config.Config) *history.Store {
	return history.NewStore(
		cfg.Engine.HistoryLimit,
		time.Duration(cfg.Engine.HistoryExpiryMins)*time.Minute,
	)
}

func newRoleRegistry(cfg *config.Config) (*roles.Registry, error) {
	personas := make(map[string]config.PersonaConfig, len(cfg.Personas))
	for id, pc := range cfg.Personas {
		personas[id] = pc
	}
	if cfg.PersonasDir != "" {
		extra, err := config.LoadPersonaDir(config.ExpandHome(cfg.PersonasDir))
		if err != nil {
			return nil, fmt.Errorf("load personas dir: %w", err)
		}
		// Inline config wins over directory definitions.
		for id, pc := range extra {
			if _, exists := personas[id]; !exists {
				personas[id] = pc
			}
		}
	}
	return roles.NewRegistry(personas), nil
}

func newDelayStore() *roles.DelayStore {
	return roles.NewDelayStore(config.DataDir() + "/delays.json")
}

func newChannelManager(cfg *config.Config, b *bus.MessageBus) *channels.Manager {
	return channels.NewManager(cfg, b)
}

func newProcessor() attach.Processor {
	return attach.NewLinkProcessor()
}

func newBots(
	cfg *config.Config,
	registry *roles.Registry,
	oracle providers.Oracle,
	store *history.Store,
	chanMgr *channels.Manager,
	processor attach.Processor,
	delays *roles.DelayStore,
) []*engine.Bot {
	ids := registry.PersonaIDs()
	sort.Strings(ids)

	bots := make([]*engine.Bot, 0, len(ids))
	for _, id := range ids {
		role := registry.Resolve(id, nil)
		bots = append(bots, engine.NewBot(
			engine.BotConfig{
				PersonaID: id,
				Role:      role,
				QueueSize: cfg.Engine.QueueSize,
				Workers:   cfg.Engine.Workers,
			},
			oracle, store, nil, chanMgr, processor, delays,
		))
	}
	return bots
}

func newOrchestrator(b *bus.MessageBus, bots []*engine.Bot, chanMgr *channels.Manager) *engine.Orchestrator {
	return engine.NewOrchestrator(b, bots, chanMgr)
}

func newJanitor(cfg *config.Config, bots []*engine.Bot) *janitor.Janitor {
	period := time.Duration(cfg.Engine.JanitorPeriodSecs) * time.Second
	targets := make([]janitor.Sweepable, 0, len(bots))
	for _, b := range bots {
		targets = append(targets, b)
	}
	return janitor.New(period, targets...)
}
