// internal/dex/tokenswap/errors.go
package tokenswap

import (
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

var (
	// ErrMissingAuthority is returned when the liquidity mint has no mint authority.
	ErrMissingAuthority = errors.New("mint doesn't have authority")
	// ErrMissingFeeAccount is a MissingAuthority failure for pools without a fee account.
	ErrMissingFeeAccount = fmt.Errorf("invalid fee account: %w", ErrMissingAuthority)
	// ErrInsufficientReserve is returned when requested proceeds would drain the pool.
	ErrInsufficientReserve = errors.New("insufficient pool reserve")
	// ErrInsufficientBalance is returned when a leg has no funded source account.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrStateInconsistent is returned when a pool's holding mints are unresolved.
	ErrStateInconsistent = errors.New("pool state inconsistent")
	// ErrPoolRequired is returned by builders called without a pool.
	ErrPoolRequired = errors.New("pool is required")
)

// BalanceError describes a leg that cannot be funded.
type BalanceError struct {
	Mint    solana.PublicKey
	Account solana.PublicKey // zero when no source account exists
	Have    uint64
	Need    uint64
}

func (e *BalanceError) Error() string {
	if e.Account.IsZero() {
		return fmt.Sprintf("no source account for mint %s", e.Mint)
	}
	return fmt.Sprintf("account %s holds %d of %s, need %d", e.Account, e.Have, e.Mint, e.Need)
}

func (e *BalanceError) Unwrap() error {
	return ErrInsufficientBalance
}

// PoolStateError names the pool whose holding mints could not be paired.
type PoolStateError struct {
	Pool   solana.PublicKey
	Reason string
}

func (e *PoolStateError) Error() string {
	return fmt.Sprintf("pool %s: %s", e.Pool, e.Reason)
}

func (e *PoolStateError) Unwrap() error {
	return ErrStateInconsistent
}

// ProgramErrorNames are the custom error codes of the swap program.
var ProgramErrorNames = map[uint32]string{
	0:  "AlreadyInUse",
	1:  "InvalidProgramAddress",
	2:  "InvalidOwner",
	3:  "InvalidOutputOwner",
	4:  "ExpectedMint",
	5:  "ExpectedAccount",
	6:  "EmptySupply",
	7:  "InvalidSupply",
	8:  "RepeatedMint",
	9:  "InvalidDelegate",
	10: "InvalidInput",
	11: "IncorrectSwapAccount",
	12: "IncorrectPoolMint",
	13: "InvalidOutput",
	14: "CalculationFailure",
	15: "InvalidInstruction",
	16: "ExceededSlippage",
	17: "InvalidCloseAuthority",
	18: "InvalidFreezeAuthority",
	19: "IncorrectFeeAccount",
	20: "ZeroTradingTokens",
	21: "FeeCalculationFailure",
	22: "ConversionFailure",
	23: "InvalidFee",
	24: "IncorrectTokenProgramId",
	25: "UnsupportedCurveType",
	26: "InvalidCurve",
	27: "UnsupportedCurveOperation",
}
