// internal/blockchain/solbc/subscribe.go
package solbc

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/ws"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/tokenswap-client/internal/blockchain"
	"github.com/rovshanmuradov/tokenswap-client/internal/events"
	"github.com/rovshanmuradov/tokenswap-client/internal/utils/metrics"
)

// Subscriber – websocket-подписки на изменения аккаунтов и программ.
// Одно соединение на сессию, открывается лениво.
type Subscriber struct {
	wsURL      string
	commitment rpc.CommitmentType
	metrics    *metrics.Collector
	events     *events.Bus
	logger     *zap.Logger

	mu     sync.Mutex
	client *ws.Client
}

var _ blockchain.Subscriber = (*Subscriber)(nil)

// NewSubscriber создаёт подписчика для websocket URL.
func NewSubscriber(wsURL string, logger *zap.Logger, opts ClientOptions) *Subscriber {
	if opts.Commitment == "" {
		opts.Commitment = rpc.CommitmentConfirmed
	}
	return &Subscriber{
		wsURL:      wsURL,
		commitment: opts.Commitment,
		metrics:    opts.Metrics,
		events:     opts.Events,
		logger:     logger.Named("solbc-ws"),
	}
}

func (s *Subscriber) conn(ctx context.Context) (*ws.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client != nil {
		return s.client, nil
	}
	client, err := ws.Connect(ctx, s.wsURL)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", s.wsURL, err)
	}
	s.client = client
	s.logger.Debug("Websocket connected", zap.String("url", s.wsURL))
	return client, nil
}

// Close закрывает соединение; активные подписки завершаются.
func (s *Subscriber) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client != nil {
		s.client.Close()
		s.client = nil
	}
}

// listener владеет одной подпиской и её goroutine.
type listener struct {
	once    sync.Once
	cancel  context.CancelFunc
	release func()
	done    chan struct{}
}

func (l *listener) Unsubscribe() {
	l.once.Do(func() {
		l.cancel()
		l.release()
	})
	<-l.done
}

// SubscribeAccount подписывается на изменения одного аккаунта.
func (s *Subscriber) SubscribeAccount(ctx context.Context, address solana.PublicKey, handler blockchain.AccountHandler) (blockchain.Subscription, error) {
	client, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	sub, err := client.AccountSubscribeWithOpts(address, s.commitment, solana.EncodingBase64)
	if err != nil {
		return nil, fmt.Errorf("account subscribe %s: %w", address, err)
	}

	recv := func(ctx context.Context) (*blockchain.AccountInfo, error) {
		got, err := sub.Recv(ctx)
		if err != nil {
			return nil, err
		}
		if got == nil {
			return nil, ErrSubscriptionClosed
		}
		info := &blockchain.AccountInfo{
			Address:  address,
			Owner:    got.Value.Owner,
			Lamports: got.Value.Lamports,
		}
		if got.Value.Data != nil {
			info.Data = got.Value.Data.GetBinary()
		}
		return info, nil
	}

	return s.run(ctx, "account", address.String(), sub.Unsubscribe, recv, handler), nil
}

// SubscribeProgram подписывается на изменения всех аккаунтов программы.
func (s *Subscriber) SubscribeProgram(ctx context.Context, program solana.PublicKey, handler blockchain.AccountHandler) (blockchain.Subscription, error) {
	client, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	sub, err := client.ProgramSubscribeWithOpts(program, s.commitment, solana.EncodingBase64, nil)
	if err != nil {
		return nil, fmt.Errorf("program subscribe %s: %w", program, err)
	}

	recv := func(ctx context.Context) (*blockchain.AccountInfo, error) {
		got, err := sub.Recv(ctx)
		if err != nil {
			return nil, err
		}
		if got == nil || got.Value.Account == nil {
			return nil, ErrSubscriptionClosed
		}
		return toAccountInfo(got.Value.Pubkey, got.Value.Account), nil
	}

	return s.run(ctx, "program", program.String(), sub.Unsubscribe, recv, handler), nil
}

func (s *Subscriber) run(
	parent context.Context,
	kind, target string,
	release func(),
	recv func(context.Context) (*blockchain.AccountInfo, error),
	handler blockchain.AccountHandler,
) *listener {
	ctx, cancel := context.WithCancel(parent)
	l := &listener{cancel: cancel, release: release, done: make(chan struct{})}

	s.metrics.SubscriptionOpened(kind)
	go func() {
		defer close(l.done)
		defer s.metrics.SubscriptionClosed(kind)

		for {
			info, err := recv(ctx)
			if err != nil {
				if ctx.Err() == nil && !errors.Is(err, context.Canceled) {
					s.logger.Warn("Subscription stopped",
						zap.String("kind", kind),
						zap.String("target", target),
						zap.Error(err))
					s.reportFailure(target, err)
				}
				return
			}
			handler(info)
		}
	}()
	return l
}

func (s *Subscriber) reportFailure(target string, err error) {
	if s.events == nil {
		return
	}
	if perr := s.events.Publish(events.NewSubscriptionFailed(target, err)); perr != nil {
		s.logger.Debug("Failure event dropped", zap.Error(perr))
	}
}
