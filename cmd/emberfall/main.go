package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/emberfall/server/internal/account"
	"github.com/emberfall/server/internal/config"
	"github.com/emberfall/server/internal/game"
	"github.com/emberfall/server/internal/net"
	"github.com/emberfall/server/internal/persist"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func printBanner(name string) {
	fmt.Println()
	fmt.Printf("  %s\n", name)
	fmt.Println("  ----------------------------------------")
}

func printReady(msg string) {
	fmt.Printf("  > %s\n", msg)
}

func run() error {
	// 1. Load config
	cfg, err := config.Load(config.Path("config/server.toml"))
	if err != nil {
		return err
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner(cfg.Server.Name)

	// 3. Server counters
	meta, err := persist.LoadMetadata(cfg.Server.SaveRoot)
	if err != nil {
		return fmt.Errorf("metadata: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 4. Account store: PostgreSQL when enabled, else in memory
	opts := game.Options{Meta: meta}
	if cfg.Database.Enabled {
		dbCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()

		db, err := persist.NewDB(dbCtx, cfg.Database, log)
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer db.Close()
		if err := db.Migrate(dbCtx); err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
		opts.Accounts = persist.NewAccountRepo(db, meta, cfg.Simulation.BcryptCost)
		opts.ChatLog = persist.NewChatLogRepo(db)
		printReady("PostgreSQL connected")
	} else {
		opts.Accounts = account.NewMemoryStore(meta, cfg.Simulation.BcryptCost)
		log.Warn("database disabled, accounts live in memory only")
	}

	// 5. World and systems
	g, err := game.New(cfg, opts, log)
	if err != nil {
		return err
	}

	// 6. Transports
	tcp, err := net.ListenTCP(cfg.Network.BindAddress, g.Hub(), cfg.Network.WriteTimeout, log)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	printReady(fmt.Sprintf("tcp %s", tcp.Addr()))

	grp, gctx := errgroup.WithContext(ctx)
	grp.Go(func() error { return tcp.Serve(gctx) })
	if addr := cfg.Network.WSBindAddress; addr != "" {
		ws := net.NewWSServer(g.Hub(), cfg.Network.WriteTimeout, log)
		grp.Go(func() error { return ws.ListenAndServe(gctx, addr) })
		printReady(fmt.Sprintf("websocket %s", addr))
	}

	// 7. Game loop
	printReady(fmt.Sprintf("game loop (tick %s)", cfg.Network.TickRate))
	fmt.Println()
	grp.Go(func() error { return g.Run(gctx) })

	err = grp.Wait()
	log.Info("server stopped")
	return err
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
