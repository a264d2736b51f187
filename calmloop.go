// Package calmloop wires the therapeutic session service together: the
// session registry, the dual-tier conversation store, the live adapter,
// the journal finalizer and the observability surface.
package calmloop

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/calmloop-dev/calmloop/internal/journal"
	"github.com/calmloop-dev/calmloop/internal/live"
	tracing "github.com/calmloop-dev/calmloop/internal/observability"
	"github.com/calmloop-dev/calmloop/pkg/config"
	"github.com/calmloop-dev/calmloop/pkg/observability"
	"github.com/calmloop-dev/calmloop/pkg/session"
	"github.com/calmloop-dev/calmloop/pkg/therapy"
)

// Run starts the service from a config file and blocks until SIGINT or
// SIGTERM. An empty path runs with defaults.
func Run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	return RunWithConfig(cfg)
}

// RunWithConfig starts the service with the provided configuration.
func RunWithConfig(cfg *config.Config) error {
	if err := tracing.InitFromEnv(); err != nil {
		log.Printf("Warning: failed to initialize tracing: %v", err)
	}
	observability.InitMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg, teardown, err := BuildRegistry(ctx, cfg)
	if err != nil {
		return err
	}
	defer teardown()

	// Idle-session reaper.
	reaper := cron.New()
	if _, err := reaper.AddFunc(cfg.ReapSchedule, func() {
		reg.ReapIdle(context.Background())
	}); err != nil {
		return fmt.Errorf("invalid reap_schedule %q: %w", cfg.ReapSchedule, err)
	}
	reaper.Start()
	defer reaper.Stop()

	g, gctx := errgroup.WithContext(ctx)

	if cfg.ObservabilityPort > 0 {
		server := observability.NewServer(cfg.ObservabilityPort)
		g.Go(func() error {
			log.Printf("[calmloop] observability server listening on :%d", cfg.ObservabilityPort)
			if err := server.Start(); err != nil && err != http.ErrServerClosed {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		})
	}

	log.Println("[calmloop] service started. Press Ctrl+C to stop.")
	<-ctx.Done()
	log.Println("[calmloop] shutting down...")

	// Finalize in-flight sessions so their journal entries still land.
	endCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if n := reg.EndAll(endCtx); n > 0 {
		log.Printf("[calmloop] finalized %d in-flight session(s)", n)
	}

	if err := g.Wait(); err != nil {
		return err
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := tracing.Shutdown(shutdownCtx); err != nil {
		log.Printf("Warning: failed to shut down tracing: %v", err)
	}
	return nil
}

// BuildRegistry assembles a session registry and its collaborators from
// configuration. The returned teardown closes whatever was opened.
func BuildRegistry(ctx context.Context, cfg *config.Config) (*session.Registry, func(), error) {
	closers := make([]func(), 0, 2)
	teardown := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	durable, err := newDurableStore(cfg)
	if err != nil {
		return nil, nil, err
	}
	if durable != nil {
		closers = append(closers, func() { _ = durable.Close() })
		observability.GetHealthChecker().RegisterCheck(observability.DurableStoreCheck(durable.Ping))
	}

	journalStore, closeJournal, err := newJournalStore(ctx, cfg)
	if err != nil {
		teardown()
		return nil, nil, err
	}
	if closeJournal != nil {
		closers = append(closers, closeJournal)
	}

	adapter, err := NewAdapter(ctx, cfg)
	if err != nil {
		teardown()
		return nil, nil, err
	}

	responder := therapy.NewResponder(rand.New(rand.NewSource(time.Now().UnixNano())))

	var store *session.ConversationStore
	if durable != nil {
		store = session.NewConversationStore(durable)
	} else {
		log.Println("[calmloop] no redis address configured, sessions are memory-only")
		store = session.NewConversationStore(nil)
	}

	var lister journal.SessionLister
	if durable != nil {
		lister = durable
	}

	reg := session.NewRegistry(cfg.Session, store, responder, session.RegistryOptions{
		History:   journal.NewHistoryProvider(journalStore, lister),
		Adapter:   adapter,
		Finalizer: journal.NewFinalizer(journalStore),
	})
	return reg, teardown, nil
}

func newDurableStore(cfg *config.Config) (*session.RedisStore, error) {
	if cfg.Redis.Addr == "" {
		return nil, nil
	}
	ttl, err := cfg.Redis.TTL()
	if err != nil {
		return nil, err
	}
	return session.NewRedisStore(session.RedisConfig{
		Addr:       cfg.Redis.Addr,
		Password:   cfg.Redis.Password,
		DB:         cfg.Redis.DB,
		Prefix:     cfg.Redis.Prefix,
		SessionTTL: ttl,
	})
}

func newJournalStore(ctx context.Context, cfg *config.Config) (journal.Store, func(), error) {
	switch cfg.Journal.Backend {
	case "firestore":
		store, err := journal.NewFirestoreStore(ctx, journal.FirestoreConfig{
			ProjectID:       cfg.GCPProject,
			Collection:      cfg.Journal.Collection,
			CredentialsFile: cfg.GCPCredentials,
		})
		if err != nil {
			return nil, nil, err
		}
		observability.GetHealthChecker().RegisterCheck(observability.ExternalServiceCheck("journal-store",
			func(ctx context.Context) error {
				_, err := store.ListByUser(ctx, "healthcheck", 1)
				return err
			}))
		return store, func() { _ = store.Close() }, nil
	default:
		return journal.NewMemoryStore(), nil, nil
	}
}

// NewAdapter builds the configured live adapter, wrapped with the
// connection rate limit. A "none" adapter yields nil.
func NewAdapter(ctx context.Context, cfg *config.Config) (session.LiveAdapter, error) {
	var adapter session.LiveAdapter
	switch cfg.Adapter {
	case "none", "":
		return nil, nil
	case "openai":
		adapter = live.NewOpenAIAdapter(cfg.OpenAIKey, cfg.AdapterModel)
	case "gemini":
		gemini, err := live.NewGeminiAdapter(ctx, cfg.GeminiKey, cfg.AdapterModel)
		if err != nil {
			return nil, err
		}
		adapter = gemini
	default:
		return nil, fmt.Errorf("unknown adapter %q", cfg.Adapter)
	}

	perMin := cfg.ConnectRatePerMin
	if perMin <= 0 {
		perMin = 10
	}
	limiter := rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMin)), perMin)
	return live.Throttle(adapter, limiter), nil
}
