// internal/dex/tokenswap/withdraw.go
package tokenswap

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
)

// liquiditySource returns the wallet's liquidity-token account for pool and
// its balance. An explicit account wins over the cached lookup.
func (s *staging) liquiditySource(pool *Pool, account solana.PublicKey, need uint64) (solana.PublicKey, uint64, error) {
	if account.IsZero() {
		rec, ok := s.b.cache.FindAccountByMint(s.wallet, pool.PoolMint)
		if !ok {
			return solana.PublicKey{}, 0, &BalanceError{Mint: pool.PoolMint, Need: need}
		}
		account = rec.Address
	}
	acc, err := s.b.cache.QueryTokenAccount(s.ctx, account)
	if err != nil {
		return solana.PublicKey{}, 0, err
	}
	if !acc.Mint.Equals(pool.PoolMint) {
		return solana.PublicKey{}, 0, &PoolStateError{Pool: pool.Address, Reason: "account does not hold the liquidity mint"}
	}
	if acc.Amount < need {
		return solana.PublicKey{}, 0, &BalanceError{Mint: pool.PoolMint, Account: account, Have: acc.Amount, Need: need}
	}
	return account, acc.Amount, nil
}

// RemoveLiquidityRequest burns Liquidity pool tokens for both legs.
// Account is optional; the wallet's largest liquidity account is used.
type RemoveLiquidityRequest struct {
	Pool      *Pool
	Liquidity uint64
	Account   solana.PublicKey
}

// RemoveLiquidity builds a proportional withdrawal. Minimum outputs are the
// current share of each reserve less slippage. Withdrawing the whole balance
// closes the liquidity account.
func (b *Builder) RemoveLiquidity(ctx context.Context, wallet solana.PublicKey, req RemoveLiquidityRequest) (*Action, error) {
	pool := req.Pool
	snap, authority, err := b.poolAuthority(ctx, pool)
	if err != nil {
		return nil, err
	}

	s := b.stage(ctx, wallet, "remove_liquidity")

	account, balance, err := s.liquiditySource(pool, req.Account, req.Liquidity)
	if err != nil {
		return nil, err
	}

	share, err := EstimateWithdraw(req.Liquidity, snap.poolMint.Supply, snap.reserves())
	if err != nil {
		return nil, err
	}

	var to [2]solana.PublicKey
	for i := 0; i < 2; i++ {
		if to[i], err = s.findOrCreate(snap.holdings[i].Mint, wallet); err != nil {
			return nil, err
		}
	}

	delegate, err := s.transferAuthority(pool, authority)
	if err != nil {
		return nil, err
	}
	s.approve(account, delegate, req.Liquidity)

	ix, err := NewWithdrawInstruction(&WithdrawInstructionParams{
		ProgramID:         pool.ProgramID,
		Version:           pool.Version,
		Swap:              pool.Address,
		Authority:         authority,
		TransferAuthority: delegate,
		PoolMint:          pool.PoolMint,
		SourcePoolAccount: account,
		FromA:             pool.HoldingAccounts[0],
		FromB:             pool.HoldingAccounts[1],
		UserAccountA:      to[0],
		UserAccountB:      to[1],
		FeeAccount:        pool.FeeAccount,
		TokenProgram:      b.opts.Programs.Token,
		PoolTokenAmount:   req.Liquidity,
		MinimumTokenA:     MinimumAmountOut(share[0], b.opts.Slippage),
		MinimumTokenB:     MinimumAmountOut(share[1], b.opts.Slippage),
	})
	if err != nil {
		return nil, err
	}
	s.push(ix)

	if req.Liquidity == balance {
		s.closeLater(account)
		s.action.Closed = append(s.action.Closed, account)
	}

	return b.finish(s.result(),
		zap.String("pool", pool.Address.String()),
		zap.Uint64("liquidity", req.Liquidity),
		zap.Bool("closes_account", req.Liquidity == balance)), nil
}

// RemoveLiquidityExactOneRequest withdraws exactly Out.Amount of Out.Mint.
// Out.Account and Account are optional.
type RemoveLiquidityExactOneRequest struct {
	Pool    *Pool
	Out     Component
	Account solana.PublicKey
}

// RemoveLiquidityExactOne builds a single-sided withdrawal. The liquidity
// burned is estimated from the reserves and capped at liquidity·(1+slippage).
func (b *Builder) RemoveLiquidityExactOne(ctx context.Context, wallet solana.PublicKey, req RemoveLiquidityExactOneRequest) (*Action, error) {
	pool := req.Pool
	snap, authority, err := b.poolAuthority(ctx, pool)
	if err != nil {
		return nil, err
	}

	side := -1
	for i := 0; i < 2; i++ {
		if snap.holdings[i].Mint.Equals(req.Out.Mint) {
			side = i
		}
	}
	if side < 0 {
		return nil, &PoolStateError{Pool: pool.Address, Reason: "mint is not a pool leg"}
	}

	liquidity, err := EstimateExactOneLiquidity(req.Out.Amount, snap.reserves()[side], snap.poolMint.Supply, pool.Fees)
	if err != nil {
		return nil, err
	}

	s := b.stage(ctx, wallet, "remove_liquidity_exact_one")

	account, balance, err := s.liquiditySource(pool, req.Account, liquidity)
	if err != nil {
		return nil, err
	}
	maxLiquidity := MaximumAmountIn(liquidity, b.opts.Slippage)
	if maxLiquidity > balance {
		maxLiquidity = balance
	}

	destination := req.Out.Account
	if destination.IsZero() {
		if destination, err = s.findOrCreate(req.Out.Mint, wallet); err != nil {
			return nil, err
		}
	}

	delegate, err := s.transferAuthority(pool, authority)
	if err != nil {
		return nil, err
	}
	s.approve(account, delegate, maxLiquidity)

	ix, err := NewWithdrawExactOneInstruction(&WithdrawExactOneInstructionParams{
		ProgramID:              pool.ProgramID,
		Version:                pool.Version,
		Swap:                   pool.Address,
		Authority:              authority,
		TransferAuthority:      delegate,
		PoolMint:               pool.PoolMint,
		SourcePoolAccount:      account,
		FromA:                  pool.HoldingAccounts[0],
		FromB:                  pool.HoldingAccounts[1],
		UserAccount:            destination,
		FeeAccount:             pool.FeeAccount,
		TokenProgram:           b.opts.Programs.Token,
		SourceTokenAmount:      req.Out.Amount,
		MaximumPoolTokenAmount: maxLiquidity,
	})
	if err != nil {
		return nil, err
	}
	s.push(ix)

	return b.finish(s.result(),
		zap.String("pool", pool.Address.String()),
		zap.Uint64("amount_out", req.Out.Amount),
		zap.Uint64("maximum_liquidity", maxLiquidity)), nil
}
