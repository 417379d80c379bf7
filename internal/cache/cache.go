// internal/cache/cache.go
package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/rovshanmuradov/tokenswap-client/internal/blockchain"
	"github.com/rovshanmuradov/tokenswap-client/internal/events"
	"github.com/rovshanmuradov/tokenswap-client/internal/utils/metrics"
)

// ErrNotFound is returned when the remote has no account at an address.
var ErrNotFound = errors.New("account not found")

// Options настраивает кэш.
type Options struct {
	// ChunkSize ограничивает число адресов в одном getMultipleAccounts.
	ChunkSize int
	// Concurrency ограничивает число параллельных чанков.
	Concurrency int
	Metrics     *metrics.Collector
}

// DefaultOptions возвращает опции по умолчанию.
func DefaultOptions() Options {
	return Options{
		ChunkSize:   99,
		Concurrency: 4,
	}
}

// Cache is the per-session store of decoded account and mint snapshots.
// Remote reads for one address are coalesced: at most one fetch per address
// is in flight regardless of the number of callers.
type Cache struct {
	accessor blockchain.Accessor
	bus      *events.Bus
	metrics  *metrics.Collector
	logger   *zap.Logger
	opts     Options

	mu       sync.RWMutex
	records  map[string]*Record
	bindings map[string]ParserID
	parsers  map[ParserID]Parser
	// generation is bumped on every local write so that a fetch started
	// earlier never overwrites a newer snapshot.
	generation map[string]uint64
	owners     map[solana.PublicKey]struct{}

	pending singleflight.Group

	// Statistics (accessed atomically)
	reads   uint64
	writes  uint64
	fetches uint64
}

// New creates a cache. The bus is owned by the caller's session.
func New(accessor blockchain.Accessor, bus *events.Bus, logger *zap.Logger, opts Options) *Cache {
	def := DefaultOptions()
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = def.ChunkSize
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = def.Concurrency
	}
	if bus == nil {
		bus = events.NewBus(logger, 0)
	}
	return &Cache{
		accessor:   accessor,
		bus:        bus,
		metrics:    opts.Metrics,
		logger:     logger.Named("account-cache"),
		opts:       opts,
		records:    make(map[string]*Record),
		bindings:   make(map[string]ParserID),
		parsers:    defaultParsers(),
		generation: make(map[string]uint64),
		owners:     make(map[solana.PublicKey]struct{}),
	}
}

// Bus returns the emitter carrying invalidation events.
func (c *Cache) Bus() *events.Bus {
	return c.bus
}

// Get returns the cached snapshot. It never performs network I/O.
func (c *Cache) Get(address solana.PublicKey) (*Record, bool) {
	return c.GetByKey(address.String())
}

// GetByKey is Get keyed by the base58 address string.
func (c *Cache) GetByKey(key string) (*Record, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	atomic.AddUint64(&c.reads, 1)
	rec, ok := c.records[key]
	return rec, ok
}

// RegisterParser binds a decode strategy to an address for later Query/Add calls.
func (c *Cache) RegisterParser(address solana.PublicKey, id ParserID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bindings[address.String()] = id
}

// DefineParser adds or replaces a named decode strategy.
func (c *Cache) DefineParser(id ParserID, p Parser) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.parsers[id] = p
}

// Query returns the cached snapshot or fetches it. Concurrent callers for the
// same address share one fetch. Failures clear the pending slot and are not retried.
func (c *Cache) Query(ctx context.Context, address solana.PublicKey) (*Record, error) {
	key := address.String()
	if rec, ok := c.GetByKey(key); ok {
		c.metrics.CacheRequest(metrics.CacheHit)
		return rec, nil
	}
	c.metrics.CacheRequest(metrics.CacheMiss)

	ch := c.pending.DoChan(key, func() (interface{}, error) {
		return c.fetch(context.WithoutCancel(ctx), address)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Shared {
			c.metrics.CacheRequest(metrics.CacheCoalesced)
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Record), nil
	}
}

func (c *Cache) fetch(ctx context.Context, address solana.PublicKey) (*Record, error) {
	key := address.String()
	gen := c.generationOf(key)

	atomic.AddUint64(&c.fetches, 1)
	c.metrics.CacheRequest(metrics.CacheFetched)

	info, err := c.accessor.GetAccount(ctx, address)

	// the pending slot is released before the result reaches the store
	c.pending.Forget(key)

	if err != nil {
		if errors.Is(err, blockchain.ErrAccountNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		c.logger.Debug("Account fetch failed", zap.String("address", key), zap.Error(err))
		return nil, fmt.Errorf("fetch %s: %w", key, err)
	}

	rec, err := c.decode(address, info, c.bindingOf(key))
	if err != nil {
		return nil, err
	}

	stored, fresh := c.storeIfCurrent(rec, gen)
	if fresh {
		c.publishChanged(key)
	}
	return stored, nil
}

// Add decodes bytes already in hand and upserts them. Any fetch for the same
// address still in flight is superseded: its waiters receive this snapshot.
func (c *Cache) Add(address solana.PublicKey, info *blockchain.AccountInfo, parser ...ParserID) (*Record, error) {
	key := address.String()

	id := c.bindingOf(key)
	if len(parser) > 0 {
		id = parser[0]
		c.RegisterParser(address, id)
	}

	rec, err := c.decode(address, info, id)
	if err != nil {
		return nil, err
	}

	c.pending.Forget(key)
	c.put(rec)
	c.publishChanged(key)
	return rec, nil
}

// AddRaw is Add for a bare payload with no owner metadata.
func (c *Cache) AddRaw(address solana.PublicKey, data []byte, parser ...ParserID) (*Record, error) {
	return c.Add(address, &blockchain.AccountInfo{Address: address, Data: data}, parser...)
}

// Delete removes the entry and emits an invalidation event.
func (c *Cache) Delete(address solana.PublicKey) {
	key := address.String()

	c.mu.Lock()
	delete(c.records, key)
	c.generation[key]++
	c.mu.Unlock()

	c.pending.Forget(key)
	atomic.AddUint64(&c.writes, 1)

	c.logger.Debug("Account removed", zap.String("address", key))
	c.publish(events.NewAccountRemoved(key))
}

// OnChange subscribes handler to both update and removal events. The handler
// receives only the address and must re-read through Get.
func (c *Cache) OnChange(handler func(address string)) events.Subscription {
	changed := c.bus.SubscribeFunc(events.AccountChanged, func(_ context.Context, e events.Event) error {
		if ev, ok := e.(events.AccountChangedEvent); ok {
			handler(ev.Address)
		}
		return nil
	})
	removed := c.bus.SubscribeFunc(events.AccountRemoved, func(_ context.Context, e events.Event) error {
		if ev, ok := e.(events.AccountRemovedEvent); ok {
			handler(ev.Address)
		}
		return nil
	})
	return &pairSubscription{first: changed, second: removed}
}

type pairSubscription struct {
	first, second events.Subscription
}

func (p *pairSubscription) ID() string {
	return p.first.ID()
}

func (p *pairSubscription) Unsubscribe() {
	p.first.Unsubscribe()
	p.second.Unsubscribe()
}

// Len returns the number of cached records.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records)
}

// Stats returns cache statistics.
func (c *Cache) Stats() (size, reads, writes, fetches uint64) {
	c.mu.RLock()
	size = uint64(len(c.records))
	c.mu.RUnlock()
	return size, atomic.LoadUint64(&c.reads), atomic.LoadUint64(&c.writes), atomic.LoadUint64(&c.fetches)
}

func (c *Cache) decode(address solana.PublicKey, info *blockchain.AccountInfo, id ParserID) (*Record, error) {
	c.mu.RLock()
	parse, ok := c.parsers[id]
	c.mu.RUnlock()
	if !ok {
		return nil, unknownParser(id)
	}

	rec := &Record{
		Address:  address,
		Program:  info.Owner,
		Lamports: info.Lamports,
		Data:     info.Data,
	}
	if err := parse(rec); err != nil {
		c.logger.Debug("Decode failed",
			zap.String("address", address.String()),
			zap.String("parser", string(id)),
			zap.Int("length", len(info.Data)),
			zap.Error(err))
		return nil, fmt.Errorf("%s: %w", address, err)
	}
	return rec, nil
}

func (c *Cache) bindingOf(key string) ParserID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.bindings[key]
}

func (c *Cache) generationOf(key string) uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generation[key]
}

func (c *Cache) put(rec *Record) {
	key := rec.Key()
	c.mu.Lock()
	c.records[key] = rec
	c.generation[key]++
	c.mu.Unlock()
	atomic.AddUint64(&c.writes, 1)
}

// storeIfCurrent stores rec unless a local write happened after gen was read,
// in which case the newer snapshot wins and is returned instead.
func (c *Cache) storeIfCurrent(rec *Record, gen uint64) (*Record, bool) {
	key := rec.Key()
	c.mu.Lock()
	if c.generation[key] != gen {
		current, ok := c.records[key]
		c.mu.Unlock()
		if ok {
			return current, false
		}
		// deleted meanwhile: hand the fetched snapshot to waiters without storing it
		return rec, false
	}
	c.records[key] = rec
	c.generation[key]++
	c.mu.Unlock()

	atomic.AddUint64(&c.writes, 1)
	return rec, true
}

func (c *Cache) publishChanged(key string) {
	c.publish(events.NewAccountChanged(key))
}

func (c *Cache) publish(e events.Event) {
	if err := c.bus.PublishSync(context.Background(), e); err != nil {
		c.logger.Debug("Invalidation handler failed", zap.Error(err))
	}
}
