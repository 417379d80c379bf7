// internal/session/errors.go
package session

import "errors"

var (
	ErrNoWallet = errors.New("no wallet configured")
	ErrReadOnly = errors.New("session has no submitter")
)
