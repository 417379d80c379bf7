// internal/blockchain/types.go
package blockchain

import (
	"context"
	"errors"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// ErrAccountNotFound is returned when the remote has no account at an address.
var ErrAccountNotFound = errors.New("account not found")

// AccountInfo – сырые байты аккаунта и его метаданные.
type AccountInfo struct {
	Address  solana.PublicKey
	Owner    solana.PublicKey
	Lamports uint64
	Data     []byte
}

// TransactionOptions определяет опции для отправки транзакций.
type TransactionOptions struct {
	SkipPreflight       bool
	PreflightCommitment rpc.CommitmentType
}

// Accessor – чтение состояния сети.
type Accessor interface {
	// GetAccount returns ErrAccountNotFound when no account exists.
	GetAccount(ctx context.Context, address solana.PublicKey) (*AccountInfo, error)
	// GetMultipleAccounts returns one slot per address; missing accounts are nil.
	GetMultipleAccounts(ctx context.Context, addresses []solana.PublicKey) ([]*AccountInfo, error)
	// GetProgramAccounts returns accounts owned by program whose data length
	// equals dataSize (0 disables the filter).
	GetProgramAccounts(ctx context.Context, program solana.PublicKey, dataSize uint64) ([]*AccountInfo, error)
	// GetTokenAccountsByOwner returns SPL token accounts owned by owner.
	GetTokenAccountsByOwner(ctx context.Context, owner solana.PublicKey) ([]*AccountInfo, error)
	GetMinimumBalanceForRentExemption(ctx context.Context, dataSize uint64) (uint64, error)
}

// Subscription – долгоживущий слушатель, отменяемый вызовом Unsubscribe.
type Subscription interface {
	Unsubscribe()
}

// AccountHandler receives a pushed account snapshot.
type AccountHandler func(info *AccountInfo)

// Subscriber – push-уведомления об изменениях аккаунтов.
type Subscriber interface {
	SubscribeAccount(ctx context.Context, address solana.PublicKey, handler AccountHandler) (Subscription, error)
	SubscribeProgram(ctx context.Context, program solana.PublicKey, handler AccountHandler) (Subscription, error)
}

// Submitter – примитив отправки транзакции.
type Submitter interface {
	Submit(ctx context.Context, instructions []solana.Instruction, signers []solana.PrivateKey, payer solana.PublicKey) (solana.Signature, error)
}
