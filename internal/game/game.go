// Package game wires the world, handlers and tick systems into one server.
package game

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/emberfall/server/internal/account"
	"github.com/emberfall/server/internal/chat"
	"github.com/emberfall/server/internal/combat"
	"github.com/emberfall/server/internal/config"
	"github.com/emberfall/server/internal/core/ecs"
	"github.com/emberfall/server/internal/core/event"
	coresys "github.com/emberfall/server/internal/core/system"
	"github.com/emberfall/server/internal/data"
	"github.com/emberfall/server/internal/handler"
	"github.com/emberfall/server/internal/lobby"
	"github.com/emberfall/server/internal/net"
	"github.com/emberfall/server/internal/persist"
	"github.com/emberfall/server/internal/protocol"
	"github.com/emberfall/server/internal/scripting"
	"github.com/emberfall/server/internal/session"
	"github.com/emberfall/server/internal/skill"
	"github.com/emberfall/server/internal/system"
	"github.com/emberfall/server/internal/unit"
	"github.com/emberfall/server/internal/world"
	"go.uber.org/zap"
)

// Options carries the stores chosen at boot.
type Options struct {
	Accounts account.Store
	Meta     *persist.Metadata
	ChatLog  system.ChatLog // nil disables the chat archive
	Now      func() time.Time
}

// Game owns all simulation state. Everything except the hub is touched only
// from the goroutine calling Tick.
type Game struct {
	cfg    *config.Config
	log    *zap.Logger
	hub    *net.Hub
	store  *net.SessionStore
	runner *coresys.Runner
	deps   *handler.Deps
	lua    *scripting.Engine

	persistence *system.PersistenceSystem
	archive     *system.ChatArchiveSystem
}

// pcgStream separates the PCG stream word from the persisted seed.
const pcgStream = 0x9e3779b97f4a7c15

// newRand derives every combat and damage roll from seed alone, so a run
// replays the same rolls for the same inputs.
func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^pcgStream))
}

func New(cfg *config.Config, opts Options, log *zap.Logger) (*Game, error) {
	tables, err := data.Load(cfg.Server.DataDir)
	if err != nil {
		return nil, fmt.Errorf("load data: %w", err)
	}
	lua, err := scripting.NewEngine(cfg.Server.ScriptsDir, log)
	if err != nil {
		return nil, err
	}

	meta := opts.Meta
	rnd := newRand(meta.Seed(func() uint64 { return uint64(time.Now().UnixNano()) }))

	ecsWorld := ecs.NewWorld()
	ws := world.NewState(ecsWorld, tables.Zones, unit.NewNextUid(meta.NextUid))
	n, err := ws.SpawnZoneVillains(tables.Villains)
	if err != nil {
		lua.Close()
		return nil, fmt.Errorf("spawn villains: %w", err)
	}
	log.Info("zones loaded", zap.Int("zones", tables.Zones.Count()), zap.Int("villains", n))

	mode := &session.Mode{}
	mode.Start()
	deps := &handler.Deps{
		Config:   cfg,
		Log:      log,
		Clients:  session.NewTable(),
		Mode:     mode,
		World:    ws,
		Tables:   tables,
		Accounts: opts.Accounts,
		Saves:    persist.NewCharacterStore(cfg.Server.SaveRoot),
		Chat:     chat.NewManager(cfg.Simulation.ChatHistory, meta),
		Lobbies:  lobby.NewManager(cfg.Simulation.LobbyCapacity, meta),
		Out:      handler.NewOutbox(log),
		Now:      opts.Now,
	}

	bus := event.NewBus()
	sink := system.NewCombatSink(deps, bus, cfg.Simulation.CorpseTimer)
	resolver := combat.NewResolver(rnd, scripting.NewRewards(lua, tables, rnd))
	deps.Skills = skill.NewEngine(ws, tables.Skills, resolver, rnd, sink, log)

	router := protocol.NewRouter(log)
	handler.RegisterAll(router, deps)

	g := &Game{
		cfg:   cfg,
		log:   log,
		hub:   net.NewHub(cfg.Network, log),
		store: net.NewSessionStore(),
		deps:  deps,
		lua:   lua,
	}
	g.persistence = system.NewPersistenceSystem(ws, deps.Saves, opts.Accounts, meta,
		cfg.Server.SaveRoot, cfg.Simulation.AutosaveInterval, log)

	runner := coresys.NewRunner()
	runner.Register(system.NewInputSystem(g.hub, g.store, router, deps, g.persistence, cfg.Network.MaxMessagesPerTick))
	runner.Register(system.NewEventDispatchSystem(bus))
	system.SubscribeRewards(bus, deps, lua)
	runner.Register(system.NewSkillSystem(deps.Skills, ws))
	runner.Register(system.NewRegenSystem(deps))
	runner.Register(system.NewDeathSystem(deps, g.persistence))
	runner.Register(system.NewOutputSystem(deps.Out, g.store))
	runner.Register(g.persistence)
	if opts.ChatLog != nil {
		g.archive = system.NewChatArchiveSystem(opts.ChatLog, cfg.Simulation.AutosaveInterval, log)
		deps.Archive = g.archive
		runner.Register(g.archive)
	}
	runner.Register(system.NewCleanupSystem(ws, log))
	g.runner = runner
	return g, nil
}

// Hub is where transports attach new connections. Safe for concurrent use.
func (g *Game) Hub() *net.Hub { return g.hub }

func (g *Game) World() *world.State { return g.deps.World }

func (g *Game) Clients() *session.Table { return g.deps.Clients }

func (g *Game) Tick(dt time.Duration) {
	g.runner.Tick(dt)
}

// Run ticks at the configured rate until ctx is cancelled, then shuts down.
func (g *Game) Run(ctx context.Context) error {
	ticker := time.NewTicker(g.cfg.Network.TickRate)
	defer ticker.Stop()

	g.log.Info("game loop started", zap.Duration("tick", g.cfg.Network.TickRate))
	for {
		select {
		case <-ticker.C:
			g.Tick(g.cfg.Network.TickRate)
		case <-ctx.Done():
			g.Shutdown()
			return nil
		}
	}
}

// Shutdown saves every hero and the metadata, flushes the chat archive and
// closes all sessions.
func (g *Game) Shutdown() {
	g.persistence.SaveAll()
	if g.archive != nil {
		g.archive.Flush()
	}
	g.store.ForEach(func(sess *net.Session) {
		sess.FlushOutput()
		sess.Close()
	})
	g.deps.Mode.Stop()
	g.lua.Close()
	g.log.Info("game stopped")
}
