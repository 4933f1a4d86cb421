package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/navalrts/server/internal/config"
	"github.com/navalrts/server/internal/data"
	"github.com/navalrts/server/internal/lobby"
	"github.com/navalrts/server/internal/match"
	gonet "github.com/navalrts/server/internal/net"
	"github.com/navalrts/server/internal/scripting"
)

const usage = "usage: navalrts [lobby|match]"

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
	fmt.Println("\033[36;1m  │\033[0m              navalrts  v0.1.0             \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  │\033[0m        naval RTS · lobby and matches      \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1mserver:\033[0m %s\n\n", serverName)
}

func printSection(title string) {
	lineLen := 46 - len(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := 42 - len(label) - len(numStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Entry points ──────────────────────────────────────────────────

func run() error {
	mode := "lobby"
	if len(os.Args) > 1 {
		mode = os.Args[1]
	}

	cfgPath := "config/server.toml"
	if p := os.Getenv("NAVALRTS_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if errors.Is(err, os.ErrNotExist) {
		cfg, err = config.Default(), nil
	}
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch mode {
	case "lobby":
		return runLobby(ctx, cfg, log)
	case "match":
		return runMatch(ctx, cfg, log.With(zap.Int("pid", os.Getpid())))
	default:
		return errors.New(usage)
	}
}

func runLobby(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	printBanner(cfg.Server.Name)

	// Fail before listening if the match binary would not start.
	printSection("data")
	catalog, err := data.LoadShipTable(cfg.Data.ShipList)
	if err != nil {
		return fmt.Errorf("load ship list: %w", err)
	}
	printStat("ship templates", catalog.Count())
	for _, name := range cfg.Fleet.Ships {
		if catalog.Get(name) == nil {
			return fmt.Errorf("fleet ship %q is not in %s", name, cfg.Data.ShipList)
		}
	}
	printOK("fleet validated")
	fmt.Println()

	// Match children inherit the working directory and NAVALRTS_CONFIG.
	srv := lobby.NewServer(cfg.Lobby, cfg.Match.MaxFrameSize, &lobby.ExecSpawner{
		MaxFrame: cfg.Match.MaxFrameSize,
		Log:      log,
	}, log)

	mux := http.NewServeMux()
	mux.Handle(cfg.Lobby.Path, srv)
	httpSrv := &http.Server{
		Addr:              cfg.Lobby.BindAddress,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- httpSrv.ListenAndServe() }()

	printSection("network")
	printReady(fmt.Sprintf("lobby listening on ws://%s%s", cfg.Lobby.BindAddress, cfg.Lobby.Path))
	fmt.Println()
	log.Info("lobby started", zap.String("addr", cfg.Lobby.BindAddress))

	select {
	case err := <-errCh:
		srv.Close()
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv.Close()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown", zap.Error(err))
	}
	return nil
}

// runMatch is the child process side: stdin and stdout carry framed
// packets, logs go to stderr.
func runMatch(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	pipe := gonet.NewPipe(os.Stdin, os.Stdout, cfg.Match.InQueueSize, cfg.Match.OutQueueSize, cfg.Match.MaxFrameSize, log)
	mi, err := pipe.ReadInit()
	if err != nil {
		return err
	}
	pipe.Start()
	defer func() {
		pipe.Close()
		<-pipe.Done()
	}()

	catalog, err := data.LoadShipTable(cfg.Data.ShipList)
	if err != nil {
		return fmt.Errorf("load ship list: %w", err)
	}

	var damage scripting.DamageModel = scripting.FallbackDamage{}
	engine, err := scripting.NewEngine(cfg.Data.ScriptsDir, log)
	if err != nil {
		log.Warn("damage scripts unavailable, using built-in model", zap.Error(err))
	} else {
		defer engine.Close()
		damage = engine
	}

	seed := cfg.Match.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	log.Info("match starting", zap.Uint64("seed", seed), zap.Int("clients", len(mi.Clients)))

	m, err := match.New(pipe, mi.Clients, match.Options{
		Match:   cfg.Match,
		Fleet:   cfg.Fleet,
		Rules:   cfg.WorldRules(),
		Catalog: catalog,
		Damage:  damage,
		RNG:     rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		Log:     log,
	})
	if err != nil {
		return err
	}
	if err := m.Handshake(ctx); err != nil {
		return fmt.Errorf("handshake: %w", err)
	}
	m.SpawnFleets()
	if err := m.Run(ctx); err != nil {
		return err
	}
	log.Info("match finished")
	return nil
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
