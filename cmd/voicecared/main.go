// Command voicecared runs the voice support bridge: it terminates caller
// WebSocket connections, brokers the upstream realtime session, and serves
// the tool execution router backed by the customer store.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/voicecare-ai/voicecare/internal/dotenv"
	"github.com/voicecare-ai/voicecare/pkg/agent"
	"github.com/voicecare-ai/voicecare/pkg/bridge"
	"github.com/voicecare-ai/voicecare/pkg/realtime"
	"github.com/voicecare-ai/voicecare/pkg/router"
	"github.com/voicecare-ai/voicecare/pkg/store"
	"github.com/voicecare-ai/voicecare/pkg/tools"
)

const shutdownGracePeriod = 30 * time.Second

type appDeps struct {
	newStore     func(context.Context, *slog.Logger) (store.CustomerStore, error)
	newReasoner  func(context.Context, *slog.Logger) (agent.Reasoner, error)
	signalNotify func(chan<- os.Signal, ...os.Signal)
	signalStop   func(chan<- os.Signal)
}

func defaultAppDeps() appDeps {
	return appDeps{
		newStore:    buildStore,
		newReasoner: buildReasoner,
		signalNotify: func(c chan<- os.Signal, sig ...os.Signal) {
			signal.Notify(c, sig...)
		},
		signalStop: signal.Stop,
	}
}

// buildStore selects the customer store: Postgres when DATABASE_URL is set,
// otherwise an in-memory store seeded with demo customers.
func buildStore(ctx context.Context, logger *slog.Logger) (store.CustomerStore, error) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		logger.Info("DATABASE_URL not set, using seeded in-memory store")
		return store.NewSeededMemoryStore(), nil
	}

	if err := store.Migrate(dsn); err != nil {
		return nil, fmt.Errorf("migrate customer store: %w", err)
	}
	return store.NewPostgresStore(ctx, dsn)
}

// buildReasoner creates the deep-path reasoner when a Gemini key is
// configured. Without one, deep tools degrade to direct action calls.
func buildReasoner(ctx context.Context, logger *slog.Logger) (agent.Reasoner, error) {
	key := os.Getenv("GEMINI_API_KEY")
	if key == "" {
		logger.Warn("GEMINI_API_KEY not set, deep reasoning disabled")
		return nil, nil
	}

	opts := []agent.GeminiOption{
		agent.WithRetriever(agent.NewDefaultKnowledgeBase()),
	}
	if model := os.Getenv("GEMINI_MODEL"); model != "" {
		opts = append(opts, agent.WithModel(model))
	}
	return agent.NewGeminiReasoner(ctx, key, opts...)
}

func run(ctx context.Context, logger *slog.Logger, deps appDeps) error {
	if deps.newStore == nil || deps.newReasoner == nil {
		return errors.New("missing store or reasoner dependency")
	}
	if deps.signalNotify == nil || deps.signalStop == nil {
		return errors.New("missing signal dependency")
	}
	if logger == nil {
		logger = slog.Default()
	}

	customers, err := deps.newStore(ctx, logger)
	if err != nil {
		return fmt.Errorf("build store: %w", err)
	}

	reasoner, err := deps.newReasoner(ctx, logger)
	if err != nil {
		return fmt.Errorf("build reasoner: %w", err)
	}

	registry := tools.NewRegistry(tools.NewActions(customers).All()...)

	routerOpts := []router.Option{router.WithLogger(logger)}
	if reasoner != nil {
		routerOpts = append(routerOpts, router.WithReasoner(reasoner))
	}
	rt, err := router.New(registry, routerOpts...)
	if err != nil {
		return fmt.Errorf("build router: %w", err)
	}

	upstream := realtime.NewConfig(
		realtime.WithTools(tools.Catalog()),
		realtime.WithLogger(logger),
	)
	upstream.LoadFromEnv()
	if err := upstream.Validate(); err != nil {
		return fmt.Errorf("realtime config: %w", err)
	}

	srv, err := bridge.NewServer(rt, upstream, reasoner,
		bridge.WithLogger(logger),
		func(c *bridge.Config) { c.LoadFromEnv() },
	)
	if err != nil {
		return fmt.Errorf("build server: %w", err)
	}

	listenErrCh := make(chan error, 1)
	go func() {
		err := srv.Start()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			listenErrCh <- err
			return
		}
		listenErrCh <- nil
	}()

	sigCh := make(chan os.Signal, 1)
	deps.signalNotify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer deps.signalStop(sigCh)

	select {
	case err := <-listenErrCh:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case sig := <-sigCh:
		logger.Info("shutdown signal received", "signal", sig.String())
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown server: %w", err)
	}

	if err := <-listenErrCh; err != nil {
		return fmt.Errorf("serve: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

func runMain(ctx context.Context, stderr io.Writer, deps appDeps) int {
	if stderr == nil {
		stderr = os.Stderr
	}
	logger := slog.New(slog.NewTextHandler(stderr, nil))

	if err := dotenv.LoadFile(".env"); err != nil {
		fmt.Fprintf(stderr, "voicecared: %v\n", err)
		return 1
	}

	if err := run(ctx, logger, deps); err != nil {
		fmt.Fprintf(stderr, "voicecared: %v\n", err)
		return 1
	}
	return 0
}

func main() {
	os.Exit(runMain(context.Background(), os.Stderr, defaultAppDeps()))
}
