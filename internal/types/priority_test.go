// internal/types/priority_test.go
package types

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var computeBudgetProgram = solana.MustPublicKeyFromBase58("ComputeBudget111111111111111111111111111111")

func TestParsePriorityLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    PriorityLevel
		wantErr bool
	}{
		{"", PriorityNone, false},
		{" High ", PriorityHigh, false},
		{"extreme", PriorityExtreme, false},
		{"urgent", "", true},
	}
	for _, tt := range tests {
		got, err := ParsePriorityLevel(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestPriorityInstructions(t *testing.T) {
	pm := NewPriorityManager(zap.NewNop())

	none, err := pm.Instructions(PriorityNone)
	require.NoError(t, err)
	assert.Empty(t, none)

	extreme, err := pm.Instructions(PriorityExtreme)
	require.NoError(t, err)
	require.Len(t, extreme, 3)
	for _, ix := range extreme {
		assert.Equal(t, computeBudgetProgram, ix.ProgramID())
	}

	_, err = pm.Instructions("urgent")
	assert.Error(t, err)

	assert.Len(t, pm.CustomInstructions(5_000, 0), 1, "fee only")
	assert.Len(t, pm.CustomInstructions(5_000, 300_000), 2)
}
