// internal/wallet/wallet_test.go
package wallet

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromBase58(t *testing.T) {
	key, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)

	w, err := Load(base58.Encode(key))
	require.NoError(t, err)
	assert.Equal(t, key.PublicKey(), w.PublicKey)
	assert.Equal(t, key.PublicKey().String(), w.String())
}

func TestLoadFromKeygenFile(t *testing.T) {
	key, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)

	ints := make([]int, len(key))
	for i, b := range key {
		ints[i] = int(b)
	}
	raw, err := json.Marshal(ints)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "id.json")
	require.NoError(t, os.WriteFile(path, raw, 0o600))

	w, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, key.PublicKey(), w.PublicKey)
}

func TestLoadRejectsBadKeys(t *testing.T) {
	_, err := Load("")
	assert.Error(t, err)

	_, err = Load(base58.Encode([]byte{1, 2, 3}))
	assert.Error(t, err)

	_, err = Load("not-base58-0OIl")
	assert.Error(t, err)
}

func TestSignersPutsWalletFirst(t *testing.T) {
	key, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	extra, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)

	w, err := NewWallet(key.String())
	require.NoError(t, err)

	signers := w.Signers(extra)
	require.Len(t, signers, 2)
	assert.Equal(t, w.PublicKey, signers[0].PublicKey())
	assert.Equal(t, extra.PublicKey(), signers[1].PublicKey())
}
