// internal/blockchain/blockchaintest/chain.go
package blockchaintest

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/gagliardetto/solana-go"

	"github.com/rovshanmuradov/tokenswap-client/internal/blockchain"
)

// Chain is an in-memory blockchain.Accessor and blockchain.Subscriber for tests.
type Chain struct {
	mu       sync.Mutex
	accounts map[solana.PublicKey]*blockchain.AccountInfo
	// failing addresses make every GetMultipleAccounts chunk containing them fail
	failing map[solana.PublicKey]error

	accountSubs map[solana.PublicKey][]blockchain.AccountHandler
	programSubs map[solana.PublicKey][]blockchain.AccountHandler

	// Gate, when set, blocks GetAccount until it is closed.
	Gate chan struct{}
	// Rent is returned by GetMinimumBalanceForRentExemption.
	Rent uint64

	GetAccountCalls  atomic.Int64
	MultipleCalls    atomic.Int64
	MultipleSizes    []int
	ProgramCalls     atomic.Int64
	SubscribeCalls   atomic.Int64
	UnsubscribeCalls atomic.Int64
}

// NewChain creates an empty chain.
func NewChain() *Chain {
	return &Chain{
		accounts:    make(map[solana.PublicKey]*blockchain.AccountInfo),
		failing:     make(map[solana.PublicKey]error),
		accountSubs: make(map[solana.PublicKey][]blockchain.AccountHandler),
		programSubs: make(map[solana.PublicKey][]blockchain.AccountHandler),
		Rent:        2039280,
	}
}

// Set stores an account.
func (c *Chain) Set(address, owner solana.PublicKey, data []byte) {
	c.SetLamports(address, owner, data, 1)
}

// SetLamports stores an account with an explicit lamport balance.
func (c *Chain) SetLamports(address, owner solana.PublicKey, data []byte, lamports uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accounts[address] = &blockchain.AccountInfo{
		Address:  address,
		Owner:    owner,
		Lamports: lamports,
		Data:     append([]byte(nil), data...),
	}
}

// Remove deletes an account.
func (c *Chain) Remove(address solana.PublicKey) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.accounts, address)
}

// Fail makes reads touching address return err; a nil err clears it.
func (c *Chain) Fail(address solana.PublicKey, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err == nil {
		delete(c.failing, address)
		return
	}
	c.failing[address] = err
}

// Push delivers an account snapshot to matching subscribers and stores it.
func (c *Chain) Push(address, owner solana.PublicKey, data []byte) {
	c.Set(address, owner, data)

	c.mu.Lock()
	info := *c.accounts[address]
	handlers := append([]blockchain.AccountHandler(nil), c.accountSubs[address]...)
	handlers = append(handlers, c.programSubs[owner]...)
	c.mu.Unlock()

	for _, h := range handlers {
		cp := info
		h(&cp)
	}
}

func (c *Chain) lookup(address solana.PublicKey) (*blockchain.AccountInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err, ok := c.failing[address]; ok {
		return nil, err
	}
	info, ok := c.accounts[address]
	if !ok {
		return nil, nil
	}
	cp := *info
	return &cp, nil
}

func (c *Chain) GetAccount(ctx context.Context, address solana.PublicKey) (*blockchain.AccountInfo, error) {
	c.GetAccountCalls.Add(1)
	if c.Gate != nil {
		select {
		case <-c.Gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	info, err := c.lookup(address)
	if err != nil {
		return nil, err
	}
	if info == nil {
		return nil, blockchain.ErrAccountNotFound
	}
	return info, nil
}

func (c *Chain) GetMultipleAccounts(ctx context.Context, addresses []solana.PublicKey) ([]*blockchain.AccountInfo, error) {
	c.MultipleCalls.Add(1)
	c.mu.Lock()
	c.MultipleSizes = append(c.MultipleSizes, len(addresses))
	c.mu.Unlock()

	out := make([]*blockchain.AccountInfo, len(addresses))
	for i, a := range addresses {
		info, err := c.lookup(a)
		if err != nil {
			return nil, err
		}
		out[i] = info
	}
	return out, ctx.Err()
}

func (c *Chain) GetProgramAccounts(ctx context.Context, program solana.PublicKey, dataSize uint64) ([]*blockchain.AccountInfo, error) {
	c.ProgramCalls.Add(1)
	c.mu.Lock()
	defer c.mu.Unlock()
	if err, ok := c.failing[program]; ok {
		return nil, err
	}

	var out []*blockchain.AccountInfo
	for _, info := range c.accounts {
		if !info.Owner.Equals(program) {
			continue
		}
		if dataSize > 0 && uint64(len(info.Data)) != dataSize {
			continue
		}
		cp := *info
		out = append(out, &cp)
	}
	return out, ctx.Err()
}

// GetTokenAccountsByOwner matches token-program accounts whose owner field
// (bytes 32..64) equals owner.
func (c *Chain) GetTokenAccountsByOwner(ctx context.Context, owner solana.PublicKey) ([]*blockchain.AccountInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []*blockchain.AccountInfo
	for _, info := range c.accounts {
		if !info.Owner.Equals(solana.TokenProgramID) || len(info.Data) < 64 {
			continue
		}
		if solana.PublicKeyFromBytes(info.Data[32:64]).Equals(owner) {
			cp := *info
			out = append(out, &cp)
		}
	}
	return out, ctx.Err()
}

func (c *Chain) GetMinimumBalanceForRentExemption(ctx context.Context, dataSize uint64) (uint64, error) {
	return c.Rent, ctx.Err()
}

type subscription struct {
	once   sync.Once
	cancel func()
}

func (s *subscription) Unsubscribe() {
	s.once.Do(s.cancel)
}

func (c *Chain) subscribe(table map[solana.PublicKey][]blockchain.AccountHandler, key solana.PublicKey, handler blockchain.AccountHandler) *subscription {
	c.SubscribeCalls.Add(1)
	c.mu.Lock()
	table[key] = append(table[key], handler)
	idx := len(table[key]) - 1
	c.mu.Unlock()

	return &subscription{cancel: func() {
		c.UnsubscribeCalls.Add(1)
		c.mu.Lock()
		defer c.mu.Unlock()
		handlers := table[key]
		if idx < len(handlers) {
			handlers[idx] = func(*blockchain.AccountInfo) {}
		}
	}}
}

func (c *Chain) SubscribeAccount(ctx context.Context, address solana.PublicKey, handler blockchain.AccountHandler) (blockchain.Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return c.subscribe(c.accountSubs, address, handler), nil
}

func (c *Chain) SubscribeProgram(ctx context.Context, program solana.PublicKey, handler blockchain.AccountHandler) (blockchain.Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	err := c.failing[program]
	c.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return c.subscribe(c.programSubs, program, handler), nil
}

// ErrUnavailable is a generic transport failure.
var ErrUnavailable = errors.New("node unavailable")
