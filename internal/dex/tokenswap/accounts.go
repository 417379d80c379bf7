// internal/dex/tokenswap/accounts.go
package tokenswap

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/programs/token"

	"github.com/rovshanmuradov/tokenswap-client/internal/layout"
)

// staging accumulates the account preparation of one action: created
// accounts, approvals and the cleanup that undoes them.
type staging struct {
	b      *Builder
	ctx    context.Context
	wallet solana.PublicKey
	action *Action
	// closes run after every other cleanup instruction.
	closes []solana.Instruction
}

func (b *Builder) stage(ctx context.Context, wallet solana.PublicKey, name string) *staging {
	return &staging{b: b, ctx: ctx, wallet: wallet, action: &Action{Name: name}}
}

func (s *staging) push(ix ...solana.Instruction) {
	s.action.Instructions = append(s.action.Instructions, ix...)
}

func (s *staging) cleanup(ix ...solana.Instruction) {
	s.action.Cleanup = append(s.action.Cleanup, ix...)
}

// closeLater closes account to the wallet once the action's cleanup is done.
func (s *staging) closeLater(account solana.PublicKey) {
	s.closes = append(s.closes, closeAccount(account, s.wallet, s.wallet))
}

// result returns the action with closes appended to its cleanup.
func (s *staging) result() *Action {
	s.action.Cleanup = append(s.action.Cleanup, s.closes...)
	s.closes = nil
	return s.action
}

// newAccount creates a fresh keypair, funds it from the wallet and assigns it
// to owner. The keypair signs the action.
func (s *staging) newAccount(lamports, space uint64, owner solana.PublicKey) (solana.PublicKey, error) {
	key, err := solana.NewRandomPrivateKey()
	if err != nil {
		return solana.PublicKey{}, err
	}
	s.action.addSigner(key)

	s.push(newCreateAccount(lamports, space, owner, s.wallet, key.PublicKey()))
	return key.PublicKey(), nil
}

func newCreateAccount(lamports, space uint64, owner, funder, account solana.PublicKey) solana.Instruction {
	return system.NewCreateAccountInstruction(lamports, space, owner, funder, account).Build()
}

// createTokenAccount creates and initializes a token account for mint owned by owner.
func (s *staging) createTokenAccount(mint, owner solana.PublicKey, extraLamports uint64) (solana.PublicKey, error) {
	rent, err := s.b.rentExempt(s.ctx, layout.TokenAccountSize)
	if err != nil {
		return solana.PublicKey{}, err
	}
	account, err := s.newAccount(rent+extraLamports, layout.TokenAccountSize, s.b.opts.Programs.Token)
	if err != nil {
		return solana.PublicKey{}, err
	}

	s.push(token.NewInitializeAccount3InstructionBuilder().
		SetAccount(account).
		SetMintAccount(mint).
		SetOwner(owner).
		Build())
	return account, nil
}

// wrapNative moves amount lamports into a temporary wrapped SOL account that
// is closed back to the wallet in cleanup.
func (s *staging) wrapNative(amount uint64) (solana.PublicKey, error) {
	account, err := s.createTokenAccount(WrappedSolMint, s.wallet, amount)
	if err != nil {
		return solana.PublicKey{}, err
	}
	s.closeLater(account)
	return account, nil
}

// source returns the account funding c, wrapping native SOL on the fly.
func (s *staging) source(c Component) (solana.PublicKey, error) {
	if c.Mint.Equals(WrappedSolMint) {
		return s.wrapNative(c.Amount)
	}

	account := c.Account
	if account.IsZero() {
		rec, ok := s.b.cache.FindAccountByMint(s.wallet, c.Mint)
		if !ok {
			return solana.PublicKey{}, &BalanceError{Mint: c.Mint, Need: c.Amount}
		}
		account = rec.Address
	}

	acc, err := s.b.cache.QueryTokenAccount(s.ctx, account)
	if err != nil {
		return solana.PublicKey{}, err
	}
	if acc.Amount < c.Amount {
		return solana.PublicKey{}, &BalanceError{Mint: c.Mint, Account: account, Have: acc.Amount, Need: c.Amount}
	}
	return account, nil
}

// findOrCreate returns a cached account of owner for mint, or stages a new
// one. Wrapped SOL always gets a fresh account, closed in cleanup.
func (s *staging) findOrCreate(mint, owner solana.PublicKey, exclude ...solana.PublicKey) (solana.PublicKey, error) {
	native := mint.Equals(WrappedSolMint)
	if !native {
		if rec, ok := s.b.cache.FindAccountByMint(owner, mint, exclude...); ok {
			return rec.Address, nil
		}
	}

	account, err := s.createTokenAccount(mint, owner, 0)
	if err != nil {
		return solana.PublicKey{}, err
	}
	if native && owner.Equals(s.wallet) {
		s.closeLater(account)
	}
	return account, nil
}

// transferAuthority picks the delegate of the action's approvals: a fresh
// signer for the current layout, the pool authority for older ones.
func (s *staging) transferAuthority(pool *Pool, authority solana.PublicKey) (solana.PublicKey, error) {
	if !pool.IsLatest() {
		return authority, nil
	}
	key, err := solana.NewRandomPrivateKey()
	if err != nil {
		return solana.PublicKey{}, err
	}
	s.action.addSigner(key)
	return key.PublicKey(), nil
}

// approve delegates amount of account to delegate and revokes it in cleanup.
func (s *staging) approve(account, delegate solana.PublicKey, amount uint64) {
	s.push(token.NewApproveInstructionBuilder().
		SetAmount(amount).
		SetSourceAccount(account).
		SetDelegateAccount(delegate).
		SetOwnerAccount(s.wallet).
		Build())
	s.cleanup(token.NewRevokeInstructionBuilder().
		SetSourceAccount(account).
		SetOwnerAccount(s.wallet).
		Build())
}

func closeAccount(account, destination, owner solana.PublicKey) solana.Instruction {
	return token.NewCloseAccountInstructionBuilder().
		SetAccount(account).
		SetDestinationAccount(destination).
		SetOwnerAccount(owner).
		Build()
}

func transfer(amount uint64, from, to, owner solana.PublicKey) solana.Instruction {
	return token.NewTransferInstructionBuilder().
		SetAmount(amount).
		SetSourceAccount(from).
		SetDestinationAccount(to).
		SetOwnerAccount(owner).
		Build()
}
