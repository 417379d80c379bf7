// internal/blockchain/solbc/errors.go
package solbc

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go/rpc"

	"github.com/rovshanmuradov/tokenswap-client/internal/blockchain"
)

var (
	// ErrRateLimit возникает, когда ожидание лимитера прервано контекстом
	ErrRateLimit = errors.New("rate limit wait aborted")

	// ErrSubscriptionClosed возникает при закрытии websocket-подписки
	ErrSubscriptionClosed = errors.New("subscription closed")

	// ErrNotConfirmed возникает, если транзакция не подтвердилась
	ErrNotConfirmed = errors.New("transaction not confirmed")

	// ErrTransactionFailed возникает, если транзакция исполнилась с ошибкой
	ErrTransactionFailed = errors.New("transaction failed")
)

// RPCError представляет ошибку RPC с дополнительным контекстом
type RPCError struct {
	Err     error
	NodeURL string
	Method  string
}

// Error реализует интерфейс error
func (e *RPCError) Error() string {
	return fmt.Sprintf("RPC error [%s] at %s: %v", e.Method, e.NodeURL, e.Err)
}

// Unwrap возвращает оригинальную ошибку
func (e *RPCError) Unwrap() error {
	return e.Err
}

// wrap maps "not found" replies of account reads to ErrAccountNotFound.
func (c *Client) wrap(method string, err error) error {
	if err == nil {
		return nil
	}
	if isNotFound(err) {
		return blockchain.ErrAccountNotFound
	}
	return c.rpcError(method, err)
}

// rpcError adds endpoint context without reinterpreting the reply; used for
// methods where "not found" refers to a blockhash or signature.
func (c *Client) rpcError(method string, err error) error {
	if err == nil {
		return nil
	}
	return &RPCError{Err: err, NodeURL: c.endpoint, Method: method}
}

// isNotFound проверяет, является ли ошибка "not found"
func isNotFound(err error) bool {
	if errors.Is(err, rpc.ErrNotFound) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "not found")
}
