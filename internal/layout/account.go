// internal/layout/account.go
package layout

import (
	"github.com/gagliardetto/solana-go"

	"github.com/rovshanmuradov/tokenswap-client/internal/utils/binary"
)

// AccountState mirrors the SPL token account state byte.
type AccountState uint8

const (
	AccountUninitialized AccountState = iota
	AccountInitialized
	AccountFrozen
)

// TokenAccount is a decoded SPL token account (165 bytes).
type TokenAccount struct {
	Mint            solana.PublicKey
	Owner           solana.PublicKey
	Amount          uint64
	Delegate        *solana.PublicKey
	State           AccountState
	RentReserve     *uint64 // set only for native (wrapped SOL) accounts
	DelegatedAmount uint64
	CloseAuthority  *solana.PublicKey
}

// IsInitialized reports whether the account has been initialized.
func (a *TokenAccount) IsInitialized() bool {
	return a.State != AccountUninitialized
}

// IsFrozen reports whether the account is frozen.
func (a *TokenAccount) IsFrozen() bool {
	return a.State == AccountFrozen
}

// IsNative reports whether the account wraps the native asset.
func (a *TokenAccount) IsNative() bool {
	return a.RentReserve != nil
}

// DecodeTokenAccount decodes an SPL token account.
func DecodeTokenAccount(data []byte) (*TokenAccount, error) {
	if len(data) != TokenAccountSize {
		return nil, decodeErr(KindTokenAccount, len(data), nil)
	}

	r := binary.NewReader(data)
	acc := &TokenAccount{
		Mint:   r.PubKey(),
		Owner:  r.PubKey(),
		Amount: r.U64(),
	}
	acc.Delegate = r.OptionPubKey()
	acc.State = AccountState(r.U8())
	acc.RentReserve = r.OptionU64()
	acc.DelegatedAmount = r.U64()
	acc.CloseAuthority = r.OptionPubKey()

	if err := r.Err(); err != nil {
		return nil, decodeErr(KindTokenAccount, len(data), err)
	}
	return acc, nil
}

// EncodeTokenAccount writes the account back into its 165-byte layout.
func EncodeTokenAccount(acc *TokenAccount) ([]byte, error) {
	e := newEncoder(TokenAccountSize)
	e.pubkey(acc.Mint)
	e.pubkey(acc.Owner)
	e.u64(acc.Amount)
	e.optionPubKey(acc.Delegate)
	e.u8(uint8(acc.State))
	e.optionU64(acc.RentReserve)
	e.u64(acc.DelegatedAmount)
	e.optionPubKey(acc.CloseAuthority)
	return e.bytes()
}
