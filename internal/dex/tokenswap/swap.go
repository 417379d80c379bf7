// internal/dex/tokenswap/swap.go
package tokenswap

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
)

// SwapRequest sells From.Amount of From.Mint for at least To.Amount·(1−slippage)
// of To.Mint. To.Account is optional; a destination is found or created.
type SwapRequest struct {
	Pool *Pool
	From Component
	To   Component
}

// Swap builds the swap action.
func (b *Builder) Swap(ctx context.Context, wallet solana.PublicKey, req SwapRequest) (*Action, error) {
	pool := req.Pool
	if pool == nil {
		return nil, ErrPoolRequired
	}
	if !pool.HasFeeAccount() {
		return nil, ErrMissingFeeAccount
	}

	snap, authority, err := b.poolAuthority(ctx, pool)
	if err != nil {
		return nil, err
	}
	in, out, err := legs(pool, snap, req.From.Mint, req.To.Mint)
	if err != nil {
		return nil, err
	}

	s := b.stage(ctx, wallet, "swap")

	source, err := s.source(req.From)
	if err != nil {
		return nil, err
	}
	destination := req.To.Account
	if destination.IsZero() {
		if destination, err = s.findOrCreate(req.To.Mint, wallet); err != nil {
			return nil, err
		}
	}

	var hostFee solana.PublicKey
	if owner := b.opts.HostFeeOwner; !owner.IsZero() {
		if hostFee, err = s.findOrCreate(pool.PoolMint, owner); err != nil {
			return nil, err
		}
	}

	delegate, err := s.transferAuthority(pool, authority)
	if err != nil {
		return nil, err
	}
	s.approve(source, delegate, req.From.Amount)

	minOut := MinimumAmountOut(req.To.Amount, b.opts.Slippage)
	ix, err := NewSwapInstruction(&SwapInstructionParams{
		ProgramID:         pool.ProgramID,
		Version:           pool.Version,
		Swap:              pool.Address,
		Authority:         authority,
		TransferAuthority: delegate,
		UserSource:        source,
		PoolSource:        pool.HoldingAccounts[in],
		PoolDestination:   pool.HoldingAccounts[out],
		UserDestination:   destination,
		PoolMint:          pool.PoolMint,
		FeeAccount:        pool.FeeAccount,
		HostFeeAccount:    hostFee,
		TokenProgram:      b.opts.Programs.Token,
		AmountIn:          req.From.Amount,
		MinimumAmountOut:  minOut,
	})
	if err != nil {
		return nil, err
	}
	s.push(ix)

	return b.finish(s.result(),
		zap.String("pool", pool.Address.String()),
		zap.Uint64("amount_in", req.From.Amount),
		zap.Uint64("minimum_out", minOut)), nil
}

// legs returns the holding indexes of the input and output mints, checked
// against the holding accounts' actual mints.
func legs(pool *Pool, snap *poolSnapshot, from, to solana.PublicKey) (int, int, error) {
	in := -1
	for i := 0; i < 2; i++ {
		if snap.holdings[i].Mint.Equals(from) {
			in = i
			break
		}
	}
	if in < 0 || !snap.holdings[1-in].Mint.Equals(to) {
		return 0, 0, &PoolStateError{Pool: pool.Address, Reason: "mints do not match pool holdings"}
	}
	return in, 1 - in, nil
}
