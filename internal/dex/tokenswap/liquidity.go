// internal/dex/tokenswap/liquidity.go
package tokenswap

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/tokenswap-client/internal/layout"
)

// AddLiquidity deposits both components into an existing pool. Components
// may come in either order; the minted liquidity is quoted from the current
// reserves less slippage.
func (b *Builder) AddLiquidity(ctx context.Context, wallet solana.PublicKey, pool *Pool, components [2]Component) (*Action, error) {
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
	first, _, err := legs(pool, snap, components[0].Mint, components[1].Mint)
	if err != nil {
		return nil, err
	}
	if first == 1 {
		components[0], components[1] = components[1], components[0]
	}

	amounts := [2]uint64{components[0].Amount, components[1].Amount}
	liquidity, err := LiquidityForDeposit(amounts, snap.reserves(), snap.poolMint.Supply, b.opts.Slippage)
	if err != nil {
		return nil, err
	}

	s := b.stage(ctx, wallet, "add_liquidity")

	var sources [2]solana.PublicKey
	for i, c := range components {
		if sources[i], err = s.source(c); err != nil {
			return nil, err
		}
	}
	into, err := s.findOrCreate(pool.PoolMint, wallet, pool.FeeAccount)
	if err != nil {
		return nil, err
	}

	delegate, err := s.transferAuthority(pool, authority)
	if err != nil {
		return nil, err
	}
	for i := range sources {
		s.approve(sources[i], delegate, amounts[i])
	}

	ix, err := NewDepositInstruction(&DepositInstructionParams{
		ProgramID:         pool.ProgramID,
		Version:           pool.Version,
		Swap:              pool.Address,
		Authority:         authority,
		TransferAuthority: delegate,
		SourceA:           sources[0],
		SourceB:           sources[1],
		IntoA:             pool.HoldingAccounts[0],
		IntoB:             pool.HoldingAccounts[1],
		PoolMint:          pool.PoolMint,
		PoolAccount:       into,
		TokenProgram:      b.opts.Programs.Token,
		PoolTokenAmount:   liquidity,
		MaximumTokenA:     amounts[0],
		MaximumTokenB:     amounts[1],
	})
	if err != nil {
		return nil, err
	}
	s.push(ix)

	return b.finish(s.result(),
		zap.String("pool", pool.Address.String()),
		zap.Uint64("liquidity", liquidity)), nil
}

// CreatePoolRequest describes a new pool: its two seeded legs and parameters.
type CreatePoolRequest struct {
	Components [2]Component
	Curve      layout.Curve
	Fees       layout.Fees
}

// Bootstrap is the two-transaction setup of a new pool. Accounts must land
// before Initialize.
type Bootstrap struct {
	Swap            solana.PublicKey
	Authority       solana.PublicKey
	Nonce           uint8
	PoolMint        solana.PublicKey
	HoldingAccounts [2]solana.PublicKey
	FeeAccount      solana.PublicKey
	Depositor       solana.PublicKey

	Accounts   *Action
	Initialize *Action
}

// Actions returns both actions in submission order.
func (bs *Bootstrap) Actions() []*Action {
	return []*Action{bs.Accounts, bs.Initialize}
}

// CreatePool builds a new pool on the current swap program. The first action
// creates the liquidity mint, both holding accounts, the depositor and the fee
// account; the second creates the swap account, funds the holdings and
// initializes the pool.
func (b *Builder) CreatePool(ctx context.Context, wallet solana.PublicKey, req CreatePoolRequest) (*Bootstrap, error) {
	programID := b.opts.Programs.Swap
	if programID.IsZero() {
		return nil, fmt.Errorf("swap program not configured")
	}
	if req.Components[0].Mint.Equals(req.Components[1].Mint) {
		return nil, fmt.Errorf("pool legs must use distinct mints")
	}

	swapKey, err := solana.NewRandomPrivateKey()
	if err != nil {
		return nil, err
	}
	swap := swapKey.PublicKey()
	authority, nonce, err := solana.FindProgramAddress([][]byte{swap[:]}, programID)
	if err != nil {
		return nil, fmt.Errorf("derive pool authority: %w", err)
	}
	bs := &Bootstrap{Swap: swap, Authority: authority, Nonce: nonce}

	// Первая транзакция: аккаунты пула.
	s1 := b.stage(ctx, wallet, "create_pool_accounts")

	mintRent, err := b.rentExempt(ctx, layout.MintSize)
	if err != nil {
		return nil, err
	}
	if bs.PoolMint, err = s1.newAccount(mintRent, layout.MintSize, b.opts.Programs.Token); err != nil {
		return nil, err
	}
	s1.push(token.NewInitializeMintInstructionBuilder().
		SetDecimals(LiquidityTokenPrecision).
		SetMintAuthority(authority).
		SetMintAccount(bs.PoolMint).
		SetSysVarRentPubkeyAccount(solana.SysVarRentPubkey).
		Build())

	for i, c := range req.Components {
		if bs.HoldingAccounts[i], err = s1.createTokenAccount(c.Mint, authority, 0); err != nil {
			return nil, err
		}
	}
	if bs.Depositor, err = s1.createTokenAccount(bs.PoolMint, wallet, 0); err != nil {
		return nil, err
	}
	feeOwner := b.opts.ProgramOwnerFeeAccount
	if feeOwner.IsZero() {
		feeOwner = wallet
	}
	if bs.FeeAccount, err = s1.createTokenAccount(bs.PoolMint, feeOwner, 0); err != nil {
		return nil, err
	}
	bs.Accounts = b.finish(s1.result(), zap.String("pool", swap.String()))

	// Вторая транзакция: swap-аккаунт, наполнение и инициализация.
	s2 := b.stage(ctx, wallet, "create_pool")

	swapRent, err := b.rentExempt(ctx, layout.PoolCurrentSize)
	if err != nil {
		return nil, err
	}
	s2.push(newCreateAccount(swapRent, layout.PoolCurrentSize, programID, wallet, swap))
	s2.action.addSigner(swapKey)

	for i, c := range req.Components {
		from, err := s2.source(c)
		if err != nil {
			return nil, err
		}
		s2.push(transfer(c.Amount, from, bs.HoldingAccounts[i], wallet))
	}

	ix, err := NewInitializeInstruction(&InitializeInstructionParams{
		ProgramID:    programID,
		Swap:         swap,
		Authority:    authority,
		TokenA:       bs.HoldingAccounts[0],
		TokenB:       bs.HoldingAccounts[1],
		PoolMint:     bs.PoolMint,
		FeeAccount:   bs.FeeAccount,
		Depositor:    bs.Depositor,
		TokenProgram: b.opts.Programs.Token,
		Nonce:        nonce,
		Fees:         req.Fees,
		Curve:        req.Curve,
	})
	if err != nil {
		return nil, err
	}
	s2.push(ix)
	bs.Initialize = b.finish(s2.result(), zap.String("pool", swap.String()))

	b.logger.Info("Pool bootstrap built",
		zap.String("pool", swap.String()),
		zap.String("pool_mint", bs.PoolMint.String()),
		zap.Uint8("nonce", nonce))
	return bs, nil
}
