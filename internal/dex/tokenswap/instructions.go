// internal/dex/tokenswap/instructions.go
package tokenswap

import (
	"errors"

	"github.com/gagliardetto/solana-go"

	"github.com/rovshanmuradov/tokenswap-client/internal/layout"
)

var errTransferAuthority = errors.New("current layout requires a transfer authority")

// keyList accumulates account metas in the order the program declares them.
type keyList solana.AccountMetaSlice

func (k *keyList) add(pk solana.PublicKey, writable, signer bool) {
	*k = append(*k, solana.NewAccountMeta(pk, writable, signer))
}

// optional appends pk only when it is set.
func (k *keyList) optional(pk solana.PublicKey, writable bool) {
	if !pk.IsZero() {
		k.add(pk, writable, false)
	}
}

// transferAuthority inserts the delegate signer right after the pool
// authority for the current layout; older layouts have no such slot.
func (k *keyList) transferAuthority(version layout.PoolVersion, pk solana.PublicKey) error {
	if !version.IsLatest() {
		return nil
	}
	if pk.IsZero() {
		return errTransferAuthority
	}
	k.add(pk, false, true)
	return nil
}

func tokenProgramOr(pk solana.PublicKey) solana.PublicKey {
	if pk.IsZero() {
		return solana.TokenProgramID
	}
	return pk
}

// InitializeInstructionParams are the accounts and settings of opcode 0.
type InitializeInstructionParams struct {
	ProgramID    solana.PublicKey
	Swap         solana.PublicKey
	Authority    solana.PublicKey
	TokenA       solana.PublicKey
	TokenB       solana.PublicKey
	PoolMint     solana.PublicKey
	FeeAccount   solana.PublicKey
	Depositor    solana.PublicKey
	TokenProgram solana.PublicKey
	Nonce        uint8
	Fees         layout.Fees
	Curve        layout.Curve
}

// NewInitializeInstruction encodes the init-pool instruction.
func NewInitializeInstruction(p *InitializeInstructionParams) (solana.Instruction, error) {
	data, err := layout.EncodeInitialize(p.Nonce, p.Fees, p.Curve)
	if err != nil {
		return nil, err
	}

	var keys keyList
	keys.add(p.Swap, true, false)
	keys.add(p.Authority, false, false)
	keys.add(p.TokenA, false, false)
	keys.add(p.TokenB, false, false)
	keys.add(p.PoolMint, true, false)
	keys.add(p.FeeAccount, false, false)
	keys.add(p.Depositor, true, false)
	keys.add(tokenProgramOr(p.TokenProgram), false, false)

	return solana.NewInstruction(p.ProgramID, solana.AccountMetaSlice(keys), data), nil
}

// SwapInstructionParams are the accounts and amounts of opcode 1.
type SwapInstructionParams struct {
	ProgramID         solana.PublicKey
	Version           layout.PoolVersion
	Swap              solana.PublicKey
	Authority         solana.PublicKey
	TransferAuthority solana.PublicKey
	UserSource        solana.PublicKey
	PoolSource        solana.PublicKey
	PoolDestination   solana.PublicKey
	UserDestination   solana.PublicKey
	PoolMint          solana.PublicKey
	FeeAccount        solana.PublicKey
	// HostFeeAccount is an optional liquidity-token account receiving the host fee.
	HostFeeAccount solana.PublicKey
	TokenProgram   solana.PublicKey

	AmountIn         uint64
	MinimumAmountOut uint64
}

// NewSwapInstruction encodes the swap instruction.
func NewSwapInstruction(p *SwapInstructionParams) (solana.Instruction, error) {
	data, err := layout.EncodeSwap(p.AmountIn, p.MinimumAmountOut)
	if err != nil {
		return nil, err
	}

	var keys keyList
	keys.add(p.Swap, false, false)
	keys.add(p.Authority, false, false)
	if err := keys.transferAuthority(p.Version, p.TransferAuthority); err != nil {
		return nil, err
	}
	keys.add(p.UserSource, true, false)
	keys.add(p.PoolSource, true, false)
	keys.add(p.PoolDestination, true, false)
	keys.add(p.UserDestination, true, false)
	keys.add(p.PoolMint, true, false)
	keys.add(p.FeeAccount, true, false)
	keys.optional(p.HostFeeAccount, true)
	keys.add(tokenProgramOr(p.TokenProgram), false, false)

	return solana.NewInstruction(p.ProgramID, solana.AccountMetaSlice(keys), data), nil
}

// DepositInstructionParams are the accounts and amounts of opcode 2.
type DepositInstructionParams struct {
	ProgramID         solana.PublicKey
	Version           layout.PoolVersion
	Swap              solana.PublicKey
	Authority         solana.PublicKey
	TransferAuthority solana.PublicKey
	SourceA           solana.PublicKey
	SourceB           solana.PublicKey
	IntoA             solana.PublicKey
	IntoB             solana.PublicKey
	PoolMint          solana.PublicKey
	PoolAccount       solana.PublicKey
	TokenProgram      solana.PublicKey

	PoolTokenAmount uint64
	MaximumTokenA   uint64
	MaximumTokenB   uint64
}

// NewDepositInstruction encodes the deposit instruction.
func NewDepositInstruction(p *DepositInstructionParams) (solana.Instruction, error) {
	data, err := layout.EncodeDeposit(p.PoolTokenAmount, p.MaximumTokenA, p.MaximumTokenB)
	if err != nil {
		return nil, err
	}

	var keys keyList
	keys.add(p.Swap, false, false)
	keys.add(p.Authority, false, false)
	if err := keys.transferAuthority(p.Version, p.TransferAuthority); err != nil {
		return nil, err
	}
	keys.add(p.SourceA, true, false)
	keys.add(p.SourceB, true, false)
	keys.add(p.IntoA, true, false)
	keys.add(p.IntoB, true, false)
	keys.add(p.PoolMint, true, false)
	keys.add(p.PoolAccount, true, false)
	keys.add(tokenProgramOr(p.TokenProgram), false, false)

	return solana.NewInstruction(p.ProgramID, solana.AccountMetaSlice(keys), data), nil
}

// WithdrawInstructionParams are the accounts and amounts of opcode 3.
type WithdrawInstructionParams struct {
	ProgramID         solana.PublicKey
	Version           layout.PoolVersion
	Swap              solana.PublicKey
	Authority         solana.PublicKey
	TransferAuthority solana.PublicKey
	PoolMint          solana.PublicKey
	SourcePoolAccount solana.PublicKey
	FromA             solana.PublicKey
	FromB             solana.PublicKey
	UserAccountA      solana.PublicKey
	UserAccountB      solana.PublicKey
	FeeAccount        solana.PublicKey // optional
	TokenProgram      solana.PublicKey

	PoolTokenAmount uint64
	MinimumTokenA   uint64
	MinimumTokenB   uint64
}

// NewWithdrawInstruction encodes the withdraw instruction.
func NewWithdrawInstruction(p *WithdrawInstructionParams) (solana.Instruction, error) {
	data, err := layout.EncodeWithdraw(p.PoolTokenAmount, p.MinimumTokenA, p.MinimumTokenB)
	if err != nil {
		return nil, err
	}

	var keys keyList
	keys.add(p.Swap, false, false)
	keys.add(p.Authority, false, false)
	if err := keys.transferAuthority(p.Version, p.TransferAuthority); err != nil {
		return nil, err
	}
	keys.add(p.PoolMint, true, false)
	keys.add(p.SourcePoolAccount, true, false)
	keys.add(p.FromA, true, false)
	keys.add(p.FromB, true, false)
	keys.add(p.UserAccountA, true, false)
	keys.add(p.UserAccountB, true, false)
	keys.optional(p.FeeAccount, true)
	keys.add(tokenProgramOr(p.TokenProgram), false, false)

	return solana.NewInstruction(p.ProgramID, solana.AccountMetaSlice(keys), data), nil
}

// WithdrawExactOneInstructionParams are the accounts and amounts of opcode 5.
type WithdrawExactOneInstructionParams struct {
	ProgramID         solana.PublicKey
	Version           layout.PoolVersion
	Swap              solana.PublicKey
	Authority         solana.PublicKey
	TransferAuthority solana.PublicKey
	PoolMint          solana.PublicKey
	SourcePoolAccount solana.PublicKey
	FromA             solana.PublicKey
	FromB             solana.PublicKey
	UserAccount       solana.PublicKey
	FeeAccount        solana.PublicKey // optional
	TokenProgram      solana.PublicKey

	SourceTokenAmount      uint64
	MaximumPoolTokenAmount uint64
}

// NewWithdrawExactOneInstruction encodes the single-sided withdraw instruction.
func NewWithdrawExactOneInstruction(p *WithdrawExactOneInstructionParams) (solana.Instruction, error) {
	data, err := layout.EncodeWithdrawExactOne(p.SourceTokenAmount, p.MaximumPoolTokenAmount)
	if err != nil {
		return nil, err
	}

	var keys keyList
	keys.add(p.Swap, false, false)
	keys.add(p.Authority, false, false)
	if err := keys.transferAuthority(p.Version, p.TransferAuthority); err != nil {
		return nil, err
	}
	keys.add(p.PoolMint, true, false)
	keys.add(p.SourcePoolAccount, true, false)
	keys.add(p.FromA, true, false)
	keys.add(p.FromB, true, false)
	keys.add(p.UserAccount, true, false)
	keys.optional(p.FeeAccount, true)
	keys.add(tokenProgramOr(p.TokenProgram), false, false)

	return solana.NewInstruction(p.ProgramID, solana.AccountMetaSlice(keys), data), nil
}
