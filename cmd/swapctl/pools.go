// cmd/swapctl/pools.go
package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rovshanmuradov/tokenswap-client/internal/cache"
	"github.com/rovshanmuradov/tokenswap-client/internal/dex/tokenswap"
	"github.com/rovshanmuradov/tokenswap-client/internal/layout"
)

func (a *app) poolsCmd() *cobra.Command {
	var owned bool
	cmd := &cobra.Command{
		Use:   "pools",
		Short: "Discover pools and print their reserves",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			s, err := a.open(ctx, owned)
			if err != nil {
				return err
			}
			defer a.close(s)

			out := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			defer out.Flush()

			if owned {
				return printOwned(out, s.Registry.OwnedPools(s.Wallet.PublicKey))
			}

			fmt.Fprintln(out, "POOL\tPROGRAM\tLAYOUT\tMINT A\tRESERVE A\tMINT B\tRESERVE B\tCURVE")
			for _, p := range s.Registry.Pools() {
				ra, rb := reserveCells(ctx, s.Cache, p)
				program := short(p.ProgramID)
				if p.Legacy {
					program += " (legacy)"
				}
				fmt.Fprintf(out, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%d\n",
					p.Address, program, p.Version,
					short(p.HoldingMints[0]), ra,
					short(p.HoldingMints[1]), rb,
					p.Curve.Type)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&owned, "owned", false, "list the wallet's liquidity positions only")
	return cmd
}

func printOwned(out io.Writer, positions []tokenswap.OwnedPool) error {
	fmt.Fprintln(out, "POOL\tACCOUNT\tLIQUIDITY\tFEE ACCOUNT")
	for _, op := range positions {
		fmt.Fprintf(out, "%s\t%s\t%s\t%t\n",
			op.Pool.Address, op.Account.Address,
			human(op.Account.Account.Amount, tokenswap.LiquidityTokenPrecision),
			op.IsFeeAccount)
	}
	return nil
}

// reserveCells renders both reserves in human units, "?" when unavailable.
func reserveCells(ctx context.Context, c *cache.Cache, p *tokenswap.Pool) (string, string) {
	cells := [2]string{"?", "?"}
	for i := 0; i < 2; i++ {
		acc, err := c.QueryTokenAccount(ctx, p.HoldingAccounts[i])
		if err != nil {
			continue
		}
		decimals := uint8(0)
		if p.HasHoldingMints() {
			if m, err := c.QueryMint(ctx, p.HoldingMints[i]); err == nil {
				decimals = m.Decimals
			}
		}
		cells[i] = human(acc.Amount, decimals)
	}
	return cells[0], cells[1]
}

func (a *app) resolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <mintA> <mintB>",
		Short: "Pick the routing pool for a mint pair",
		Args:  requireArgs(2, "<mintA> <mintB>"),
		RunE: func(cmd *cobra.Command, args []string) error {
			mintA, err := layout.ParseAddress(args[0])
			if err != nil {
				return err
			}
			mintB, err := layout.ParseAddress(args[1])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			s, err := a.open(ctx, false)
			if err != nil {
				return err
			}
			defer a.close(s)

			candidates := s.Resolver.Candidates(mintA, mintB)
			pool, err := s.Resolver.Resolve(ctx, mintA, mintB)
			if err != nil {
				return err
			}
			if pool == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "no pool among %d candidates\n", len(candidates))
				return nil
			}
			ra, rb := reserveCells(ctx, s.Cache, pool)
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%d candidates) reserves %s / %s\n",
				pool.Address, len(candidates), ra, rb)
			return nil
		},
	}
}
