package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/gobancho/server/internal/chat"
	"github.com/gobancho/server/internal/command"
	"github.com/gobancho/server/internal/config"
	"github.com/gobancho/server/internal/handler"
	"github.com/gobancho/server/internal/multiplayer"
	"github.com/gobancho/server/internal/packet"
	"github.com/gobancho/server/internal/persist"
	"github.com/gobancho/server/internal/scripting"
	"github.com/gobancho/server/internal/session"
	"github.com/gobancho/server/internal/web"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(serverName string) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m            gobancho  v0.1.0               \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  │\033[0m     Bancho protocol server in Go          \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1mServer:\033[0m %s\n\n", serverName)
}

func printSection(title string) {
	lineLen := 46 - len(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Main server logic ─────────────────────────────────────────────

func run() error {
	// 1. Load config
	cfgPath := "config/server.toml"
	if len(os.Args) > 1 {
		cfgPath = os.Args[1]
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner(cfg.Server.Name)

	// 3. Connect to PostgreSQL and run migrations
	printSection("Database")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := persist.NewDB(ctx, cfg.Database, log)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer db.Close()
	printOK("PostgreSQL connected")

	if err := persist.RunMigrations(ctx, db.Pool); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	printOK("migrations applied")
	fmt.Println()

	users := persist.NewUserRepo(db)

	// 4. Build the in-memory registries
	printSection("State")

	sessions := session.NewRegistry(log)
	matches := multiplayer.NewRegistry(log)
	channels := chat.NewRegistry(log)

	if err := channels.LoadFile(cfg.Chat.ChannelFile); err != nil {
		return fmt.Errorf("channels: %w", err)
	}
	printOK(fmt.Sprintf("%d chat channels", len(channels.All())))

	bot := session.NewBot(cfg.Chat.BotName)
	sessions.RegisterBot(bot)
	printOK(fmt.Sprintf("%s online", bot.Username))

	// 5. Lua command scripts
	luaEngine, err := scripting.NewEngine(cfg.Scripts.CommandDir, log)
	if err != nil {
		return fmt.Errorf("lua engine: %w", err)
	}
	defer luaEngine.Close()
	printOK(fmt.Sprintf("%d scripted commands", len(luaEngine.Commands())))

	// 6. Command engine and packet handlers
	commands := command.NewEngine(sessions, matches, channels, users, luaEngine, cfg, log)

	deps := &handler.Deps{
		Sessions: sessions,
		Matches:  matches,
		Channels: channels,
		Users:    users,
		Commands: commands,
		Config:   cfg,
		Log:      log,
		Bot:      bot,
	}
	registry := packet.NewRegistry(log)
	handler.RegisterAll(registry, deps)
	printOK("packet handlers registered")
	fmt.Println()

	// 7. Idle session sweep
	sched, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("scheduler: %w", err)
	}
	_, err = sched.NewJob(
		gocron.DurationJob(cfg.Session.SweepInterval),
		gocron.NewTask(func() {
			for _, s := range sessions.Idle(cfg.Session.Timeout, session.BotUserID) {
				log.Info("sweeping idle session",
					zap.Int32("user_id", s.UserID),
					zap.String("username", s.Username),
				)
				handler.DestroySession(s, deps)
			}
		}),
	)
	if err != nil {
		return fmt.Errorf("sweep job: %w", err)
	}
	sched.Start()
	defer sched.Shutdown()

	// 8. HTTP tunnel
	server := web.NewServer(deps, registry, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Listen(cfg.Server.BindAddress)
	}()

	printSection("Server ready")
	printReady(fmt.Sprintf("listening on %s", cfg.Server.BindAddress))
	printReady(fmt.Sprintf("session timeout %s, sweep every %s",
		cfg.Session.Timeout, cfg.Session.SweepInterval))
	fmt.Println()

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case sig := <-shutdownCh:
		log.Info("shutting down", zap.String("signal", sig.String()))
		sessions.Broadcast(packet.Notification("Server is shutting down."))
		if err := server.Shutdown(); err != nil {
			log.Warn("shutdown", zap.Error(err))
		}
		log.Info("server stopped")
		return nil
	}
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
