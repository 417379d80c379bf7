// internal/dex/tokenswap/instructions_test.go
package tokenswap

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rovshanmuradov/tokenswap-client/internal/layout"
)

func keysOf(t *testing.T, ix solana.Instruction) []solana.PublicKey {
	t.Helper()
	accounts := ix.Accounts()
	out := make([]solana.PublicKey, len(accounts))
	for i, a := range accounts {
		out[i] = a.PublicKey
	}
	return out
}

func dataOf(t *testing.T, ix solana.Instruction) []byte {
	t.Helper()
	data, err := ix.Data()
	require.NoError(t, err)
	return data
}

func TestWithdrawKeyOrdering(t *testing.T) {
	p := &WithdrawInstructionParams{
		ProgramID:         testProgram,
		Swap:              newKey(),
		Authority:         newKey(),
		TransferAuthority: newKey(),
		PoolMint:          newKey(),
		SourcePoolAccount: newKey(),
		FromA:             newKey(),
		FromB:             newKey(),
		UserAccountA:      newKey(),
		UserAccountB:      newKey(),
		FeeAccount:        newKey(),
		PoolTokenAmount:   10,
		MinimumTokenA:     1,
		MinimumTokenB:     2,
	}

	p.Version = layout.PoolVersionCurrent
	latest, err := NewWithdrawInstruction(p)
	require.NoError(t, err)
	assert.Equal(t, []solana.PublicKey{
		p.Swap, p.Authority, p.TransferAuthority, p.PoolMint, p.SourcePoolAccount,
		p.FromA, p.FromB, p.UserAccountA, p.UserAccountB, p.FeeAccount, solana.TokenProgramID,
	}, keysOf(t, latest))
	assert.True(t, latest.Accounts()[2].IsSigner)
	assert.Equal(t, testProgram, latest.ProgramID())

	p.Version = layout.PoolVersionV1
	legacy, err := NewWithdrawInstruction(p)
	require.NoError(t, err)
	assert.Equal(t, []solana.PublicKey{
		p.Swap, p.Authority, p.PoolMint, p.SourcePoolAccount,
		p.FromA, p.FromB, p.UserAccountA, p.UserAccountB, p.FeeAccount, solana.TokenProgramID,
	}, keysOf(t, legacy))
	for _, meta := range legacy.Accounts() {
		assert.False(t, meta.IsSigner)
	}

	p.FeeAccount = solana.PublicKey{}
	noFee, err := NewWithdrawInstruction(p)
	require.NoError(t, err)
	keys := keysOf(t, noFee)
	assert.Len(t, keys, 9)
	assert.Equal(t, solana.TokenProgramID, keys[len(keys)-1], "token program stays last")

	op, amounts, err := layout.DecodeAmounts(dataOf(t, latest))
	require.NoError(t, err)
	assert.Equal(t, layout.OpWithdraw, op)
	assert.Equal(t, []uint64{10, 1, 2}, amounts)
}

func TestCurrentLayoutRequiresTransferAuthority(t *testing.T) {
	_, err := NewSwapInstruction(&SwapInstructionParams{
		ProgramID: testProgram,
		Version:   layout.PoolVersionCurrent,
		Swap:      newKey(),
		Authority: newKey(),
	})
	assert.ErrorIs(t, err, errTransferAuthority)
}

func TestSwapKeyOrdering(t *testing.T) {
	p := &SwapInstructionParams{
		ProgramID:         testProgram,
		Version:           layout.PoolVersionCurrent,
		Swap:              newKey(),
		Authority:         newKey(),
		TransferAuthority: newKey(),
		UserSource:        newKey(),
		PoolSource:        newKey(),
		PoolDestination:   newKey(),
		UserDestination:   newKey(),
		PoolMint:          newKey(),
		FeeAccount:        newKey(),
		HostFeeAccount:    newKey(),
		AmountIn:          1000,
		MinimumAmountOut:  374,
	}
	ix, err := NewSwapInstruction(p)
	require.NoError(t, err)
	assert.Equal(t, []solana.PublicKey{
		p.Swap, p.Authority, p.TransferAuthority, p.UserSource, p.PoolSource,
		p.PoolDestination, p.UserDestination, p.PoolMint, p.FeeAccount, p.HostFeeAccount,
		solana.TokenProgramID,
	}, keysOf(t, ix))

	op, amounts, err := layout.DecodeAmounts(dataOf(t, ix))
	require.NoError(t, err)
	assert.Equal(t, layout.OpSwap, op)
	assert.Equal(t, []uint64{1000, 374}, amounts)
}

func TestDepositAndExactOneKeyOrdering(t *testing.T) {
	d := &DepositInstructionParams{
		ProgramID:       testProgram,
		Version:         layout.PoolVersionLegacyV0,
		Swap:            newKey(),
		Authority:       newKey(),
		SourceA:         newKey(),
		SourceB:         newKey(),
		IntoA:           newKey(),
		IntoB:           newKey(),
		PoolMint:        newKey(),
		PoolAccount:     newKey(),
		PoolTokenAmount: 5,
		MaximumTokenA:   6,
		MaximumTokenB:   7,
	}
	ix, err := NewDepositInstruction(d)
	require.NoError(t, err)
	assert.Equal(t, []solana.PublicKey{
		d.Swap, d.Authority, d.SourceA, d.SourceB, d.IntoA, d.IntoB, d.PoolMint, d.PoolAccount, solana.TokenProgramID,
	}, keysOf(t, ix))
	assert.Equal(t, byte(layout.OpDeposit), dataOf(t, ix)[0])

	w := &WithdrawExactOneInstructionParams{
		ProgramID:              testProgram,
		Version:                layout.PoolVersionCurrent,
		Swap:                   newKey(),
		Authority:              newKey(),
		TransferAuthority:      newKey(),
		PoolMint:               newKey(),
		SourcePoolAccount:      newKey(),
		FromA:                  newKey(),
		FromB:                  newKey(),
		UserAccount:            newKey(),
		SourceTokenAmount:      75,
		MaximumPoolTokenAmount: 625,
	}
	ix, err = NewWithdrawExactOneInstruction(w)
	require.NoError(t, err)
	assert.Equal(t, []solana.PublicKey{
		w.Swap, w.Authority, w.TransferAuthority, w.PoolMint, w.SourcePoolAccount,
		w.FromA, w.FromB, w.UserAccount, solana.TokenProgramID,
	}, keysOf(t, ix))
	op, amounts, err := layout.DecodeAmounts(dataOf(t, ix))
	require.NoError(t, err)
	assert.Equal(t, layout.OpWithdrawExactOne, op)
	assert.Equal(t, []uint64{75, 625}, amounts)
}

func TestInitializeKeyOrdering(t *testing.T) {
	p := &InitializeInstructionParams{
		ProgramID:  testProgram,
		Swap:       newKey(),
		Authority:  newKey(),
		TokenA:     newKey(),
		TokenB:     newKey(),
		PoolMint:   newKey(),
		FeeAccount: newKey(),
		Depositor:  newKey(),
		Nonce:      253,
		Curve:      layout.NewCurve(layout.CurveConstantProduct, 0),
	}
	ix, err := NewInitializeInstruction(p)
	require.NoError(t, err)
	assert.Equal(t, []solana.PublicKey{
		p.Swap, p.Authority, p.TokenA, p.TokenB, p.PoolMint, p.FeeAccount, p.Depositor, solana.TokenProgramID,
	}, keysOf(t, ix))

	data := dataOf(t, ix)
	require.Len(t, data, layout.InitializeDataSize)
	assert.Equal(t, byte(layout.OpInitialize), data[0])
	assert.Equal(t, byte(253), data[1])
}
