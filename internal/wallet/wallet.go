// ==================================
// File: internal/wallet/wallet.go
// ==================================
package wallet

import (
	"fmt"
	"os"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
)

// Wallet представляет кошелёк Solana.
type Wallet struct {
	PrivateKey solana.PrivateKey
	PublicKey  solana.PublicKey
}

// NewWallet создаёт новый кошелёк из base58-encoded приватного ключа.
func NewWallet(privateKeyBase58 string) (*Wallet, error) {
	privateKeyBytes, err := base58.Decode(strings.TrimSpace(privateKeyBase58))
	if err != nil {
		return nil, fmt.Errorf("failed to decode private key: %w", err)
	}
	if len(privateKeyBytes) != 64 {
		return nil, fmt.Errorf("invalid private key length: expected 64 bytes, got %d", len(privateKeyBytes))
	}
	return fromKey(solana.PrivateKey(privateKeyBytes)), nil
}

// Load принимает либо путь к keypair-файлу solana-keygen (JSON-массив байт),
// либо base58-строку ключа.
func Load(source string) (*Wallet, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return nil, fmt.Errorf("keypair is not configured")
	}
	if _, err := os.Stat(source); err == nil {
		key, err := solana.PrivateKeyFromSolanaKeygenFile(source)
		if err != nil {
			return nil, fmt.Errorf("failed to read keypair file: %w", err)
		}
		return fromKey(key), nil
	}
	return NewWallet(source)
}

func fromKey(key solana.PrivateKey) *Wallet {
	return &Wallet{PrivateKey: key, PublicKey: key.PublicKey()}
}

// Signers возвращает ключ кошелька вместе с дополнительными подписантами.
func (w *Wallet) Signers(extra ...solana.PrivateKey) []solana.PrivateKey {
	out := make([]solana.PrivateKey, 0, len(extra)+1)
	out = append(out, w.PrivateKey)
	return append(out, extra...)
}

// SignTransaction подписывает транзакцию с помощью приватного ключа кошелька.
func (w *Wallet) SignTransaction(tx *solana.Transaction) error {
	_, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(w.PublicKey) {
			return &w.PrivateKey
		}
		return nil
	})
	return err
}

// String возвращает строковое представление кошелька (его публичный ключ).
func (w *Wallet) String() string {
	return w.PublicKey.String()
}
