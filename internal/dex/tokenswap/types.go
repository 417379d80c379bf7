// internal/dex/tokenswap/types.go
package tokenswap

import (
	"bytes"

	"github.com/gagliardetto/solana-go"

	"github.com/rovshanmuradov/tokenswap-client/internal/layout"
)

// Pool is one swap account as seen by the client. Records are replaced,
// never mutated, once published by the Registry.
type Pool struct {
	Address   solana.PublicKey
	ProgramID solana.PublicKey
	PoolMint  solana.PublicKey
	// HoldingAccounts and HoldingMints are index-paired.
	HoldingAccounts [2]solana.PublicKey
	HoldingMints    [2]solana.PublicKey // zero until resolved for legacy-v0
	FeeAccount      solana.PublicKey    // zero when the layout has none
	Nonce           uint8
	Curve           layout.Curve
	Fees            layout.Fees
	Legacy          bool
	Version         layout.PoolVersion
}

func newPool(address, program solana.PublicKey, state *layout.PoolState, legacy bool) *Pool {
	return &Pool{
		Address:         address,
		ProgramID:       program,
		PoolMint:        state.PoolMint,
		HoldingAccounts: [2]solana.PublicKey{state.TokenAccountA, state.TokenAccountB},
		HoldingMints:    [2]solana.PublicKey{state.MintA, state.MintB},
		FeeAccount:      state.FeeAccount,
		Nonce:           state.Nonce,
		Curve:           state.Curve,
		Fees:            state.Fees,
		Legacy:          legacy,
		Version:         state.Version,
	}
}

// IsLatest reports whether the pool uses the current on-chain layout.
func (p *Pool) IsLatest() bool {
	return p.Version.IsLatest()
}

// HasHoldingMints reports whether both holding mints are known.
func (p *Pool) HasHoldingMints() bool {
	return !p.HoldingMints[0].IsZero() && !p.HoldingMints[1].IsZero()
}

// HasFeeAccount reports whether the pool carries a fee account.
func (p *Pool) HasFeeAccount() bool {
	return !p.FeeAccount.IsZero()
}

// MintIndex returns the holding index of mint, or -1.
func (p *Pool) MintIndex(mint solana.PublicKey) int {
	for i, m := range p.HoldingMints {
		if !m.IsZero() && m.Equals(mint) {
			return i
		}
	}
	return -1
}

// Matches reports whether the pool's holding mints form the unordered pair {a, b}.
func (p *Pool) Matches(a, b solana.PublicKey) bool {
	if !p.HasHoldingMints() {
		return false
	}
	want := sortedPair(a, b)
	have := sortedPair(p.HoldingMints[0], p.HoldingMints[1])
	return want == have
}

// DeriveAuthority computes the program-derived pool authority from the nonce.
func (p *Pool) DeriveAuthority() (solana.PublicKey, error) {
	return solana.CreateProgramAddress([][]byte{p.Address[:], {p.Nonce}}, p.ProgramID)
}

func (p *Pool) clone() *Pool {
	cp := *p
	return &cp
}

func sortedPair(a, b solana.PublicKey) [2]solana.PublicKey {
	if bytes.Compare(a[:], b[:]) > 0 {
		return [2]solana.PublicKey{b, a}
	}
	return [2]solana.PublicKey{a, b}
}

// Operation selects the quote formula.
type Operation int

const (
	// OperationAdd is a proportional deposit.
	OperationAdd Operation = iota
	// OperationSwapGivenInput sells an exact amount of the independent token.
	OperationSwapGivenInput
	// OperationSwapGivenProceeds buys an exact amount of the independent token.
	OperationSwapGivenProceeds
)

func (o Operation) String() string {
	switch o {
	case OperationAdd:
		return "add"
	case OperationSwapGivenInput:
		return "swap_given_input"
	case OperationSwapGivenProceeds:
		return "swap_given_proceeds"
	default:
		return "unknown"
	}
}

// Action is the output of one builder call: primary instructions, cleanup
// instructions to run after them in the same transaction, and the extra
// keypairs that must sign besides the wallet.
type Action struct {
	Name         string
	Instructions []solana.Instruction
	Cleanup      []solana.Instruction
	Signers      []solana.PrivateKey
	// Closed lists accounts the action closes; callers drop them from the cache after success.
	Closed []solana.PublicKey
}

// All returns the primary instructions followed by cleanup.
func (a *Action) All() []solana.Instruction {
	out := make([]solana.Instruction, 0, len(a.Instructions)+len(a.Cleanup))
	out = append(out, a.Instructions...)
	return append(out, a.Cleanup...)
}

func (a *Action) addSigner(key solana.PrivateKey) {
	a.Signers = append(a.Signers, key)
}

// Component is one leg of a user request: the mint, the raw amount and the
// user's source account for it (zero when the user has none).
type Component struct {
	Mint    solana.PublicKey
	Amount  uint64
	Account solana.PublicKey
}
