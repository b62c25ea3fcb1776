package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alejandrodnm/predictor/config"
	"github.com/alejandrodnm/predictor/internal/adapters/notify"
	"github.com/alejandrodnm/predictor/internal/adapters/oracle"
	"github.com/alejandrodnm/predictor/internal/adapters/qubic"
	"github.com/alejandrodnm/predictor/internal/adapters/storage"
	"github.com/alejandrodnm/predictor/internal/application/service"
	"github.com/alejandrodnm/predictor/internal/application/settlement"
	"github.com/alejandrodnm/predictor/internal/domain"
	"github.com/alejandrodnm/predictor/internal/metrics"
	"github.com/alejandrodnm/predictor/internal/ports"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	demo := flag.Bool("demo", false, "seed demo data, place a bet and print the settled history")
	bridge := flag.Bool("bridge", false, "mirror mutations to the external ledger via qubic-cli")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	sqlitePath := flag.String("sqlite", "", "persist to this SQLite file (overrides config backend)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	if *sqlitePath != "" {
		cfg.Storage.Backend = "sqlite"
		cfg.Storage.DSN = *sqlitePath
	}
	setupLogger(cfg.Log)

	slog.Info("predictor starting",
		"config", *configPath,
		"backend", cfg.Storage.Backend,
		"bridge", *bridge,
		"demo", *demo,
	)

	store, err := openStore(cfg)
	if err != nil {
		slog.Error("failed to open storage", "err", err, "backend", cfg.Storage.Backend)
		os.Exit(1)
	}
	defer store.Close()

	var resolver ports.Oracle
	if cfg.Oracle.APIKey != "" {
		resolver = oracle.NewClient(cfg.Oracle.BaseURL, cfg.Oracle.Model, cfg.Oracle.APIKey, cfg.OracleTimeout())
	} else {
		slog.Warn("no oracle API key configured, using static resolver")
		resolver = oracle.NewStatic(domain.AnswerYes, 80, "static resolver (no API key)")
	}

	var ledger ports.Ledger
	if *bridge {
		ledger = qubic.New(qubic.Config{
			NodeIP:          cfg.Ledger.NodeIP,
			NodePort:        cfg.Ledger.NodePort,
			ContractAddress: cfg.Ledger.ContractAddress,
			CLIPath:         cfg.Ledger.CLIPath,
			Seed:            cfg.Ledger.Seed,
			Timeout:         cfg.LedgerTimeout(),
		})
	}

	var reg *metrics.Registry
	if cfg.Metrics.Port != "" {
		reg = metrics.NewRegistry()
		metrics.StartServer(cfg.Metrics.Port, func(ctx context.Context) error {
			_, err := store.ListEvents(ctx)
			return err
		})
	}

	engine := settlement.New(store, resolver, ledger, reg, settlement.Config{
		QueueSize:    cfg.Settlement.QueueSize,
		ResolveDelay: cfg.ResolveDelay(),
	})
	svc := service.New(store, engine, ledger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		if err := engine.Run(ctx); err != nil {
			slog.Error("resolution worker exited with error", "err", err)
		}
	}()

	if *demo {
		if err := runDemo(ctx, store, svc, engine); err != nil {
			slog.Error("demo failed", "err", err)
			cancel()
			<-workerDone
			os.Exit(1)
		}
		cancel()
		<-workerDone
		slog.Info("predictor stopped cleanly")
		return
	}

	<-ctx.Done()
	<-workerDone
	slog.Info("predictor stopped cleanly")
}

// runDemo recorre el flujo completo contra datos de demo: listar eventos,
// apostar, esperar la liquidación diferida e imprimir el historial final.
func runDemo(ctx context.Context, store ports.Store, svc *service.Service, engine *settlement.Engine) error {
	user, err := storage.Seed(ctx, store)
	if err != nil {
		return err
	}

	console := notify.NewConsole()

	events, err := svc.ListActiveEvents(ctx)
	if err != nil {
		return err
	}
	console.PrintEvents(events)

	status := svc.GetBridgeStatus(ctx)
	console.PrintBridgeStatus(status.Bridged, status.Available, status.CurrentTick, status.Balance)

	if len(events) == 0 {
		return nil
	}

	bet, err := svc.PlaceBet(ctx, user.ID, events[0].ID, domain.AnswerYes, 10)
	if err != nil {
		return err
	}
	slog.Info("demo bet placed", "bet_id", bet.ID, "event_id", bet.EventID, "amount", bet.Amount)

	// Esperar a que el worker liquide; si no llega, un Reconcile intermedio
	// cubre el caso del trigger perdido y la deadline final corta el demo.
	reconcile := time.NewTimer(10 * time.Second)
	defer reconcile.Stop()
	deadline := time.NewTimer(30 * time.Second)
	defer deadline.Stop()
	for {
		event, err := store.GetEvent(ctx, bet.EventID)
		if err != nil {
			return err
		}
		if event.Resolved {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-reconcile.C:
			if _, err := engine.Reconcile(ctx); err != nil {
				return err
			}
		case <-deadline.C:
			return fmt.Errorf("demo: event %q not settled before deadline", bet.EventID)
		case <-time.After(200 * time.Millisecond):
		}
	}

	records, err := svc.BettingHistory(ctx, user.ID)
	if err != nil {
		return err
	}
	byEvent := make(map[string]domain.Event, len(records))
	bets := make([]domain.Bet, 0, len(records))
	for _, r := range records {
		byEvent[r.Event.ID] = r.Event
		bets = append(bets, r.Bet)
	}

	settledUser, err := svc.CurrentUser(ctx, user.ID)
	if err != nil {
		return err
	}
	console.PrintHistory(settledUser, bets, byEvent)
	return nil
}

func openStore(cfg *config.Config) (ports.Store, error) {
	if cfg.Storage.Backend == "sqlite" {
		return storage.NewSQLite(cfg.Storage.DSN)
	}
	return storage.NewMemory(), nil
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
