// cmd/swapctl/trade.go
package main

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/tokenswap-client/internal/dex/tokenswap"
	"github.com/rovshanmuradov/tokenswap-client/internal/layout"
	"github.com/rovshanmuradov/tokenswap-client/internal/session"
)

// route returns the pool named by --pool, or the resolver's pick for the pair.
func route(ctx context.Context, s *session.Session, poolFlag string, mintA, mintB solana.PublicKey) (*tokenswap.Pool, error) {
	if poolFlag != "" {
		addr, err := layout.ParseAddress(poolFlag)
		if err != nil {
			return nil, err
		}
		pool, ok := s.Registry.Pool(addr)
		if !ok {
			return nil, fmt.Errorf("pool %s not found", addr)
		}
		if !pool.Matches(mintA, mintB) {
			return nil, fmt.Errorf("pool %s does not trade %s/%s", addr, mintA, mintB)
		}
		return pool, nil
	}
	pool, err := s.Resolver.Resolve(ctx, mintA, mintB)
	if err != nil {
		return nil, err
	}
	if pool == nil {
		return nil, fmt.Errorf("no pool for %s/%s", mintA, mintB)
	}
	return pool, nil
}

type quoteArgs struct {
	independent solana.PublicKey
	dependent   solana.PublicKey
	amount      string
}

func parseQuoteArgs(args []string) (quoteArgs, error) {
	ind, err := layout.ParseAddress(args[0])
	if err != nil {
		return quoteArgs{}, err
	}
	dep, err := layout.ParseAddress(args[2])
	if err != nil {
		return quoteArgs{}, err
	}
	if _, err := parseAmount(args[1]); err != nil {
		return quoteArgs{}, err
	}
	return quoteArgs{independent: ind, dependent: dep, amount: args[1]}, nil
}

// quote resolves the pool and prices the dependent leg.
func quote(ctx context.Context, s *session.Session, poolFlag string, q quoteArgs, op tokenswap.Operation) (*tokenswap.Pool, tokenswap.QuoteResult, error) {
	amount, _ := parseAmount(q.amount)
	pool, err := route(ctx, s, poolFlag, q.independent, q.dependent)
	if err != nil {
		return nil, tokenswap.QuoteResult{}, err
	}
	res, err := tokenswap.CalculateDependentAmount(ctx, s.Cache, pool, q.independent, amount, op)
	if err != nil {
		return pool, res, err
	}
	if !res.OK() {
		if err := res.Err(); err != nil {
			return pool, res, err
		}
		return pool, res, fmt.Errorf("no quote: %s", res.Status)
	}
	return pool, res, nil
}

func (a *app) quoteCmd() *cobra.Command {
	var poolFlag, opFlag string
	cmd := &cobra.Command{
		Use:   "quote <mint> <amount> <otherMint>",
		Short: "Quote the dependent amount of an operation",
		Args:  requireArgs(3, "<mint> <amount> <otherMint>"),
		RunE: func(cmd *cobra.Command, args []string) error {
			op, err := parseOperation(opFlag)
			if err != nil {
				return err
			}
			q, err := parseQuoteArgs(args)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			s, err := a.open(ctx, false)
			if err != nil {
				return err
			}
			defer a.close(s)

			pool, res, err := quote(ctx, s, poolFlag, q, op)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s -> %s %s via %s\n",
				op, q.amount, short(q.independent), res.Amount, short(res.DependentMint), pool.Address)
			return nil
		},
	}
	cmd.Flags().StringVar(&poolFlag, "pool", "", "pool address instead of resolving")
	cmd.Flags().StringVar(&opFlag, "op", "swap", "swap | buy | add")
	return cmd
}

func (a *app) swapCmd() *cobra.Command {
	var poolFlag string
	cmd := &cobra.Command{
		Use:   "swap <mintIn> <amount> <mintOut>",
		Short: "Sell an exact amount of mintIn for mintOut",
		Args:  requireArgs(3, "<mintIn> <amount> <mintOut>"),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := parseQuoteArgs(args)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			s, err := a.open(ctx, true)
			if err != nil {
				return err
			}
			defer a.close(s)

			pool, res, err := quote(ctx, s, poolFlag, q, tokenswap.OperationSwapGivenInput)
			if err != nil {
				return err
			}
			amount, _ := parseAmount(q.amount)
			rawIn, _, err := toRaw(ctx, s.Cache, q.independent, amount)
			if err != nil {
				return err
			}

			action, err := s.Builder.Swap(ctx, s.Wallet.PublicKey, tokenswap.SwapRequest{
				Pool: pool,
				From: tokenswap.Component{Mint: q.independent, Amount: rawIn},
				To:   tokenswap.Component{Mint: q.dependent, Amount: res.RawFloor()},
			})
			if err != nil {
				return err
			}
			return a.submit(cmd, s, action)
		},
	}
	cmd.Flags().StringVar(&poolFlag, "pool", "", "pool address instead of resolving")
	return cmd
}

// submit sends actions in order, or describes them with --dry-run.
func (a *app) submit(cmd *cobra.Command, s *session.Session, actions ...*tokenswap.Action) error {
	out := cmd.OutOrStdout()
	if a.dryRun {
		for _, action := range actions {
			fmt.Fprintf(out, "%s: %d instructions, %d cleanup, %d extra signers\n",
				action.Name, len(action.Instructions), len(action.Cleanup), len(action.Signers))
		}
		return nil
	}

	sigs, err := s.ExecuteAll(cmd.Context(), actions)
	for i, sig := range sigs {
		a.log.WithTransaction(sig.String()).Info("Confirmed", zap.String("action", actions[i].Name))
		fmt.Fprintf(out, "%s: %s\n", actions[i].Name, sig)
	}
	return err
}
