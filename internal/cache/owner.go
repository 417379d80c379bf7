// internal/cache/owner.go
package cache

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/tokenswap-client/internal/blockchain"
	"github.com/rovshanmuradov/tokenswap-client/internal/layout"
)

// QueryTokenAccount queries address as an SPL token account.
func (c *Cache) QueryTokenAccount(ctx context.Context, address solana.PublicKey) (*layout.TokenAccount, error) {
	if c.bindingOf(address.String()) == ParserAuto {
		c.RegisterParser(address, ParserTokenAccount)
	}
	rec, err := c.Query(ctx, address)
	if err != nil {
		return nil, err
	}
	if rec.Account == nil {
		return nil, &layout.DecodeError{Kind: layout.KindTokenAccount, Length: len(rec.Data)}
	}
	return rec.Account, nil
}

// QueryMint queries address as an SPL mint.
func (c *Cache) QueryMint(ctx context.Context, address solana.PublicKey) (*layout.Mint, error) {
	if c.bindingOf(address.String()) == ParserAuto {
		c.RegisterParser(address, ParserMint)
	}
	rec, err := c.Query(ctx, address)
	if err != nil {
		return nil, err
	}
	if rec.Mint == nil {
		return nil, &layout.DecodeError{Kind: layout.KindMint, Length: len(rec.Data)}
	}
	return rec.Mint, nil
}

// GetTokenAccount is the cache-only variant of QueryTokenAccount.
func (c *Cache) GetTokenAccount(address solana.PublicKey) (*layout.TokenAccount, bool) {
	rec, ok := c.Get(address)
	if !ok || rec.Account == nil {
		return nil, false
	}
	return rec.Account, true
}

// GetMint is the cache-only variant of QueryMint.
func (c *Cache) GetMint(address solana.PublicKey) (*layout.Mint, bool) {
	rec, ok := c.Get(address)
	if !ok || rec.Mint == nil {
		return nil, false
	}
	return rec.Mint, true
}

// AddMint seeds a mint decoded elsewhere (for example one just created).
func (c *Cache) AddMint(address solana.PublicKey, m *layout.Mint) (*Record, error) {
	raw, err := layout.EncodeMint(m)
	if err != nil {
		return nil, err
	}
	return c.Add(address, &blockchain.AccountInfo{
		Address: address,
		Owner:   solana.TokenProgramID,
		Data:    raw,
	}, ParserMint)
}

// FindAccount returns the first record, in address order, matching pred.
func (c *Cache) FindAccount(pred func(*Record) bool) (*Record, bool) {
	c.mu.RLock()
	matches := make([]*Record, 0)
	for _, rec := range c.records {
		if pred(rec) {
			matches = append(matches, rec)
		}
	}
	c.mu.RUnlock()

	if len(matches) == 0 {
		return nil, false
	}
	sortRecords(matches)
	return matches[0], true
}

// FindAccountByMint returns the largest on-chain token account owned by
// owner for mint, skipping excluded addresses and the synthetic native view.
func (c *Cache) FindAccountByMint(owner, mint solana.PublicKey, exclude ...solana.PublicKey) (*Record, bool) {
	skip := make(map[solana.PublicKey]struct{}, len(exclude))
	for _, e := range exclude {
		skip[e] = struct{}{}
	}

	var best *Record
	for _, rec := range c.AccountsByOwner(owner) {
		if rec.Synthetic || !rec.Account.Mint.Equals(mint) {
			continue
		}
		if _, ok := skip[rec.Address]; ok {
			continue
		}
		if best == nil || rec.Account.Amount > best.Account.Amount {
			best = rec
		}
	}
	return best, best != nil
}

// AccountsByOwner returns every cached token account owned by owner, in address order.
func (c *Cache) AccountsByOwner(owner solana.PublicKey) []*Record {
	c.mu.RLock()
	out := make([]*Record, 0)
	for _, rec := range c.records {
		if rec.Account != nil && rec.Account.Owner.Equals(owner) {
			out = append(out, rec)
		}
	}
	c.mu.RUnlock()

	sortRecords(out)
	return out
}

// TrackOwner marks owner so token-program pushes for its accounts are cached.
func (c *Cache) TrackOwner(owner solana.PublicKey) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.owners[owner] = struct{}{}
}

func (c *Cache) isTracked(owner solana.PublicKey) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.owners[owner]
	return ok
}

// PrecacheOwner loads every token account of owner plus a synthetic
// wrapped-native record for the owner's lamport balance.
func (c *Cache) PrecacheOwner(ctx context.Context, owner solana.PublicKey) (int, error) {
	c.TrackOwner(owner)

	infos, err := c.accessor.GetTokenAccountsByOwner(ctx, owner)
	if err != nil {
		return 0, fmt.Errorf("token accounts of %s: %w", owner, err)
	}

	count := 0
	for _, info := range infos {
		if _, err := c.Add(info.Address, info, ParserTokenAccount); err != nil {
			c.logger.Debug("Skipping undecodable token account",
				zap.String("address", info.Address.String()),
				zap.Error(err))
			continue
		}
		count++
	}

	wallet, err := c.accessor.GetAccount(ctx, owner)
	switch {
	case err == nil:
		c.wrapNative(owner, wallet.Lamports)
	case !errors.Is(err, blockchain.ErrAccountNotFound):
		return count, fmt.Errorf("native balance of %s: %w", owner, err)
	}

	c.logger.Debug("Owner precached",
		zap.String("owner", owner.String()),
		zap.Int("token_accounts", count))
	return count, nil
}

// wrapNative stores the owner's lamport balance as a token-account-shaped
// record keyed by the owner address.
func (c *Cache) wrapNative(owner solana.PublicKey, lamports uint64) *Record {
	reserve := uint64(0)
	acc := &layout.TokenAccount{
		Mint:        solana.WrappedSol,
		Owner:       owner,
		Amount:      lamports,
		State:       layout.AccountInitialized,
		RentReserve: &reserve,
	}
	rec := &Record{
		Address:   owner,
		Kind:      layout.KindTokenAccount,
		Program:   solana.SystemProgramID,
		Lamports:  lamports,
		Account:   acc,
		Synthetic: true,
	}
	c.put(rec)
	c.publishChanged(rec.Key())
	return rec
}

// WatchTokenProgram subscribes to the token program and caches pushes for
// accounts of tracked owners only.
func (c *Cache) WatchTokenProgram(ctx context.Context, sub blockchain.Subscriber) (blockchain.Subscription, error) {
	return sub.SubscribeProgram(ctx, solana.TokenProgramID, func(info *blockchain.AccountInfo) {
		if len(info.Data) != layout.TokenAccountSize {
			return
		}
		acc, err := layout.DecodeTokenAccount(info.Data)
		if err != nil || !c.isTracked(acc.Owner) {
			return
		}
		if _, err := c.Add(info.Address, info, ParserTokenAccount); err != nil {
			c.logger.Debug("Token push rejected", zap.Error(err))
		}
	})
}

// Watch keeps address fresh by replacing its snapshot on every push.
func (c *Cache) Watch(ctx context.Context, sub blockchain.Subscriber, address solana.PublicKey) (blockchain.Subscription, error) {
	return sub.SubscribeAccount(ctx, address, func(info *blockchain.AccountInfo) {
		if _, err := c.Add(address, info); err != nil {
			c.logger.Debug("Account push rejected",
				zap.String("address", address.String()),
				zap.Error(err))
		}
	})
}

func sortRecords(recs []*Record) {
	sort.Slice(recs, func(i, j int) bool {
		return bytes.Compare(recs[i].Address[:], recs[j].Address[:]) < 0
	})
}
