// internal/blockchain/solbc/submit.go
package solbc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/tokenswap-client/internal/blockchain"
	"github.com/rovshanmuradov/tokenswap-client/internal/types"
)

// SubmitOptions настраивает отправку транзакций.
type SubmitOptions struct {
	Priority            types.PriorityLevel
	PriorityFee         uint64 // micro-lamports, перекрывает профиль если > 0
	ComputeUnits        uint32
	SkipPreflight       bool
	WaitForConfirmation bool
	ConfirmTimeout      time.Duration
	// Errors decodes custom program errors of failed sends; may be nil.
	Errors *ErrorAnalyzer
}

// DefaultSubmitOptions возвращает опции по умолчанию.
func DefaultSubmitOptions() SubmitOptions {
	return SubmitOptions{
		Priority:            types.PriorityNone,
		WaitForConfirmation: true,
		ConfirmTimeout:      60 * time.Second,
	}
}

// Submitter подписывает и отправляет набор инструкций одной транзакцией.
type Submitter struct {
	client   *Client
	priority *types.PriorityManager
	opts     SubmitOptions
	logger   *zap.Logger
}

var _ blockchain.Submitter = (*Submitter)(nil)

// NewSubmitter создаёт отправителя поверх клиента.
func NewSubmitter(client *Client, priority *types.PriorityManager, logger *zap.Logger, opts SubmitOptions) *Submitter {
	if opts.ConfirmTimeout <= 0 {
		opts.ConfirmTimeout = DefaultSubmitOptions().ConfirmTimeout
	}
	return &Submitter{
		client:   client,
		priority: priority,
		opts:     opts,
		logger:   logger.Named("submitter"),
	}
}

func (s *Submitter) prefix() ([]solana.Instruction, error) {
	if s.priority == nil {
		return nil, nil
	}
	if s.opts.PriorityFee > 0 || s.opts.ComputeUnits > 0 {
		return s.priority.CustomInstructions(s.opts.PriorityFee, s.opts.ComputeUnits), nil
	}
	return s.priority.Instructions(s.opts.Priority)
}

// Submit builds, signs and sends a transaction. Signers must cover payer and
// every instruction signer. The send itself is not retried.
func (s *Submitter) Submit(
	ctx context.Context,
	instructions []solana.Instruction,
	signers []solana.PrivateKey,
	payer solana.PublicKey,
) (solana.Signature, error) {
	if len(instructions) == 0 {
		return solana.Signature{}, errors.New("no instructions to submit")
	}

	prefix, err := s.prefix()
	if err != nil {
		return solana.Signature{}, err
	}
	all := append(prefix, instructions...)

	latest, err := s.client.rpc.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return solana.Signature{}, s.client.rpcError("getLatestBlockhash", err)
	}

	tx, err := solana.NewTransaction(all, latest.Value.Blockhash, solana.TransactionPayer(payer))
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to create transaction: %w", err)
	}

	if _, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		for i := range signers {
			if signers[i].PublicKey().Equals(key) {
				return &signers[i]
			}
		}
		return nil
	}); err != nil {
		return solana.Signature{}, fmt.Errorf("failed to sign transaction: %w", err)
	}

	sig, err := s.client.rpc.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		SkipPreflight:       s.opts.SkipPreflight,
		PreflightCommitment: s.client.commitment,
	})
	if err != nil {
		err = s.opts.Errors.Analyze(s.client.rpcError("sendTransaction", err))
		s.logger.Error("SendTransaction error", zap.Error(err))
		return solana.Signature{}, err
	}

	s.logger.Info("Transaction sent",
		zap.String("signature", sig.String()),
		zap.Int("instructions", len(all)))

	if !s.opts.WaitForConfirmation {
		return sig, nil
	}
	return sig, s.waitForConfirmation(ctx, sig)
}

// waitForConfirmation опрашивает статус подписи с экспоненциальной задержкой.
func (s *Submitter) waitForConfirmation(ctx context.Context, sig solana.Signature) error {
	poll := backoff.NewExponentialBackOff()
	poll.InitialInterval = 500 * time.Millisecond
	poll.MaxInterval = 5 * time.Second

	operation := func() (struct{}, error) {
		res, err := s.client.rpc.GetSignatureStatuses(ctx, false, sig)
		if err != nil {
			return struct{}{}, err
		}
		if res == nil || len(res.Value) == 0 || res.Value[0] == nil {
			return struct{}{}, ErrNotConfirmed
		}
		status := res.Value[0]
		if status.Err != nil {
			if pe := s.opts.Errors.AnalyzeStatus(status.Err); pe != nil {
				return struct{}{}, backoff.Permanent(fmt.Errorf("%w: %w", ErrTransactionFailed, pe))
			}
			return struct{}{}, backoff.Permanent(fmt.Errorf("%w: %v", ErrTransactionFailed, status.Err))
		}
		switch status.ConfirmationStatus {
		case rpc.ConfirmationStatusConfirmed, rpc.ConfirmationStatusFinalized:
			return struct{}{}, nil
		}
		return struct{}{}, ErrNotConfirmed
	}

	_, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(poll),
		backoff.WithMaxElapsedTime(s.opts.ConfirmTimeout))
	if err != nil {
		return fmt.Errorf("confirm %s: %w", sig, err)
	}
	return nil
}
