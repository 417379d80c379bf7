// internal/session/dial.go
package session

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/tokenswap-client/internal/blockchain/solbc"
	"github.com/rovshanmuradov/tokenswap-client/internal/config"
	"github.com/rovshanmuradov/tokenswap-client/internal/dex/tokenswap"
	"github.com/rovshanmuradov/tokenswap-client/internal/layout"
	"github.com/rovshanmuradov/tokenswap-client/internal/types"
	"github.com/rovshanmuradov/tokenswap-client/internal/utils/metrics"
	"github.com/rovshanmuradov/tokenswap-client/internal/wallet"
)

// ProgramsFromConfig resolves the network program table and applies the
// configured overrides.
func ProgramsFromConfig(cfg *config.Config) (tokenswap.Programs, error) {
	programs, err := tokenswap.ProgramsFor(tokenswap.Network(cfg.Network))
	if err != nil {
		return tokenswap.Programs{}, err
	}
	if cfg.SwapProgramID != "" {
		if programs.Swap, err = layout.ParseAddress(cfg.SwapProgramID); err != nil {
			return tokenswap.Programs{}, fmt.Errorf("swap_program_id: %w", err)
		}
	}
	if len(cfg.LegacyProgramIDs) > 0 {
		programs.Legacy = programs.Legacy[:0]
		for _, raw := range cfg.LegacyProgramIDs {
			id, err := layout.ParseAddress(raw)
			if err != nil {
				return tokenswap.Programs{}, fmt.Errorf("legacy_program_ids: %w", err)
			}
			programs.Legacy = append(programs.Legacy, id)
		}
	}
	return programs, nil
}

// BuilderOptionsFromConfig maps slippage and fee owners onto builder options.
func BuilderOptionsFromConfig(cfg *config.Config, programs tokenswap.Programs) (tokenswap.BuilderOptions, error) {
	opts := tokenswap.DefaultBuilderOptions(programs)
	opts.Slippage = cfg.Slippage

	owner := func(key, raw string) (solana.PublicKey, error) {
		if raw == "" {
			return solana.PublicKey{}, nil
		}
		pk, err := layout.ParseAddress(raw)
		if err != nil {
			return solana.PublicKey{}, fmt.Errorf("%s: %w", key, err)
		}
		return pk, nil
	}

	var err error
	if opts.ProgramOwnerFeeAccount, err = owner("program_owner_fee_account", cfg.ProgramOwnerFeeAccount); err != nil {
		return opts, err
	}
	if opts.HostFeeOwner, err = owner("host_fee_owner", cfg.HostFeeOwner); err != nil {
		return opts, err
	}
	return opts, nil
}

// Dial builds a session backed by the live RPC and websocket endpoints. With
// a nil wallet the session cannot submit.
func Dial(cfg *config.Config, w *wallet.Wallet, logger *zap.Logger) (*Session, error) {
	programs, err := ProgramsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	builderOpts, err := BuilderOptionsFromConfig(cfg, programs)
	if err != nil {
		return nil, err
	}

	m := metrics.NewCollector()
	clientOpts := solbc.ClientOptions{
		Commitment: rpc.CommitmentType(cfg.Commitment),
		RateLimit:  cfg.RPCRateLimit,
		Burst:      cfg.RPCBurst,
		Metrics:    m,
	}
	client := solbc.NewClient(cfg.RPCURL, logger, clientOpts)
	deps := Deps{Accessor: client}

	var subscriber *solbc.Subscriber
	if cfg.WebSocketURL != "" {
		subscriber = solbc.NewSubscriber(cfg.WebSocketURL, logger, clientOpts)
		deps.Subscriber = subscriber
	}

	if w != nil {
		level, err := types.ParsePriorityLevel(cfg.Priority)
		if err != nil {
			return nil, err
		}
		submitOpts := solbc.DefaultSubmitOptions()
		submitOpts.Priority = level
		submitOpts.PriorityFee = cfg.PriorityFee
		submitOpts.ComputeUnits = cfg.ComputeUnits
		submitOpts.Errors = solbc.NewErrorAnalyzer(logger)
		for _, id := range append([]solana.PublicKey{programs.Swap}, programs.Legacy...) {
			submitOpts.Errors.RegisterProgram(id, tokenswap.ProgramErrorNames)
		}
		deps.Submitter = solbc.NewSubmitter(client, types.NewPriorityManager(logger), logger, submitOpts)
	}

	s := New(deps, w, logger, m, Options{
		Builder:   builderOpts,
		ChunkSize: cfg.ChunkSize,
		Retries:   cfg.Retries,
		Watch:     subscriber != nil,
	})
	if subscriber != nil {
		// Subscriptions opened by Start register later and close first.
		s.OnClose("websocket", func() error {
			subscriber.Close()
			return nil
		})
	}
	return s, nil
}
