// internal/session/session.go
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/tokenswap-client/internal/blockchain"
	"github.com/rovshanmuradov/tokenswap-client/internal/cache"
	"github.com/rovshanmuradov/tokenswap-client/internal/dex/tokenswap"
	"github.com/rovshanmuradov/tokenswap-client/internal/events"
	"github.com/rovshanmuradov/tokenswap-client/internal/utils/metrics"
	"github.com/rovshanmuradov/tokenswap-client/internal/wallet"
)

// Deps – сетевые зависимости сессии. Subscriber и Submitter могут быть nil
// для режимов только чтения.
type Deps struct {
	Accessor   blockchain.Accessor
	Subscriber blockchain.Subscriber
	Submitter  blockchain.Submitter
}

// Options настраивает сессию.
type Options struct {
	Builder   tokenswap.BuilderOptions
	ChunkSize int
	// Retries ограничивает число попыток сетевых чтений при старте.
	Retries int
	// Watch включает push-подписки на swap- и token-программы.
	Watch bool
}

// Session owns every per-run component: one event bus, one cache and the
// registry, resolver and builder sharing them.
type Session struct {
	Bus      *events.Bus
	Cache    *cache.Cache
	Registry *tokenswap.Registry
	Resolver *tokenswap.Resolver
	Builder  *tokenswap.Builder
	Metrics  *metrics.Collector
	Wallet   *wallet.Wallet

	deps     Deps
	opts     Options
	shutdown *ShutdownHandler
	logger   *zap.Logger
}

// New wires a session. w may be nil for read-only commands.
func New(deps Deps, w *wallet.Wallet, logger *zap.Logger, m *metrics.Collector, opts Options) *Session {
	logger = logger.Named("session")
	bus := events.NewBus(logger, 0)
	c := cache.New(deps.Accessor, bus, logger, cache.Options{
		ChunkSize: opts.ChunkSize,
		Metrics:   m,
	})
	registry := tokenswap.NewRegistry(c, deps.Accessor, logger, m)

	s := &Session{
		Bus:      bus,
		Cache:    c,
		Registry: registry,
		Resolver: tokenswap.NewResolver(registry, c, logger, m),
		Builder:  tokenswap.NewBuilder(c, deps.Accessor, logger, m, opts.Builder),
		Metrics:  m,
		Wallet:   w,
		deps:     deps,
		opts:     opts,
		shutdown: NewShutdownHandler(logger),
		logger:   logger,
	}
	s.shutdown.AddFunc("event-bus", func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return bus.Shutdown(ctx)
	})
	return s
}

// Programs returns the program ids the session routes through.
func (s *Session) Programs() tokenswap.Programs {
	return s.Builder.Options().Programs
}

// Start discovers pools, prewarms their accounts, pre-caches the wallet's
// token accounts and, when enabled, opens the push subscriptions.
func (s *Session) Start(ctx context.Context) error {
	programs := s.Programs()
	if err := s.retry(ctx, "discover", func() error {
		_, err := s.Registry.Discover(ctx, programs.Swap, programs.Legacy)
		return err
	}); err != nil {
		return err
	}

	if err := s.retry(ctx, "prewarm", func() error {
		_, err := s.Registry.Prewarm(ctx)
		return err
	}); err != nil {
		return err
	}

	if s.Wallet != nil {
		if err := s.retry(ctx, "precache-owner", func() error {
			n, err := s.Cache.PrecacheOwner(ctx, s.Wallet.PublicKey)
			if err == nil {
				s.logger.Debug("Wallet accounts cached", zap.Int("accounts", n))
			}
			return err
		}); err != nil {
			return err
		}
	}

	if s.opts.Watch && s.deps.Subscriber != nil {
		return s.watch(ctx)
	}
	return nil
}

func (s *Session) watch(ctx context.Context) error {
	if err := s.Registry.Subscribe(ctx, s.deps.Subscriber); err != nil {
		return err
	}
	s.shutdown.AddFunc("pool-subscription", func() error {
		s.Registry.Unsubscribe()
		return nil
	})

	if s.Wallet == nil {
		return nil
	}
	sub, err := s.Cache.WatchTokenProgram(ctx, s.deps.Subscriber)
	if err != nil {
		return fmt.Errorf("watch token program: %w", err)
	}
	s.shutdown.AddFunc("token-subscription", func() error {
		sub.Unsubscribe()
		return nil
	})
	return nil
}

// retry повторяет сетевое чтение с экспоненциальной задержкой.
func (s *Session) retry(ctx context.Context, name string, op func() error) error {
	tries := s.opts.Retries
	if tries <= 0 {
		tries = 1
	}
	attempt := 0
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempt++
		err := op()
		if err != nil {
			s.logger.Warn("Startup step failed",
				zap.String("step", name),
				zap.Int("attempt", attempt),
				zap.Error(err))
		}
		return struct{}{}, err
	},
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(uint(tries)))
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// Execute signs and submits one action with the session wallet. Accounts the
// action closes are dropped from the cache after a successful submit.
func (s *Session) Execute(ctx context.Context, action *tokenswap.Action) (solana.Signature, error) {
	if s.Wallet == nil {
		return solana.Signature{}, ErrNoWallet
	}
	if s.deps.Submitter == nil {
		return solana.Signature{}, ErrReadOnly
	}

	sig, err := s.deps.Submitter.Submit(ctx, action.All(), s.Wallet.Signers(action.Signers...), s.Wallet.PublicKey)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("%s: %w", action.Name, err)
	}
	for _, closed := range action.Closed {
		s.Cache.Delete(closed)
	}
	s.logger.Info("Action submitted",
		zap.String("action", action.Name),
		zap.String("signature", sig.String()),
		zap.Int("closed", len(action.Closed)))
	return sig, nil
}

// ExecuteAll submits actions in order and stops at the first failure.
func (s *Session) ExecuteAll(ctx context.Context, actions []*tokenswap.Action) ([]solana.Signature, error) {
	sigs := make([]solana.Signature, 0, len(actions))
	for _, a := range actions {
		sig, err := s.Execute(ctx, a)
		if err != nil {
			return sigs, err
		}
		sigs = append(sigs, sig)
	}
	return sigs, nil
}

// OnClose registers a resource released by Close.
func (s *Session) OnClose(name string, fn func() error) {
	s.shutdown.AddFunc(name, fn)
}

// Close releases subscriptions and the bus.
func (s *Session) Close(ctx context.Context) error {
	return s.shutdown.Shutdown(ctx)
}
