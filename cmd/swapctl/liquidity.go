// cmd/swapctl/liquidity.go
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rovshanmuradov/tokenswap-client/internal/dex/tokenswap"
	"github.com/rovshanmuradov/tokenswap-client/internal/layout"
)

func (a *app) depositCmd() *cobra.Command {
	var poolFlag string
	cmd := &cobra.Command{
		Use:   "deposit <mintA> <amountA> <mintB>",
		Short: "Add liquidity; the amount of mintB is quoted from the pool ratio",
		Args:  requireArgs(3, "<mintA> <amountA> <mintB>"),
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

			pool, res, err := quote(ctx, s, poolFlag, q, tokenswap.OperationAdd)
			if err != nil {
				return err
			}
			amount, _ := parseAmount(q.amount)
			rawA, _, err := toRaw(ctx, s.Cache, q.independent, amount)
			if err != nil {
				return err
			}

			action, err := s.Builder.AddLiquidity(ctx, s.Wallet.PublicKey, pool, [2]tokenswap.Component{
				{Mint: q.independent, Amount: rawA},
				{Mint: q.dependent, Amount: res.RawFloor()},
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

func (a *app) withdrawCmd() *cobra.Command {
	var (
		all      bool
		outMint  string
		outValue string
	)
	cmd := &cobra.Command{
		Use:   "withdraw <pool> [liquidity]",
		Short: "Remove liquidity proportionally, or exactly one token with --out",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := layout.ParseAddress(args[0])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			s, err := a.open(ctx, true)
			if err != nil {
				return err
			}
			defer a.close(s)

			pool, ok := s.Registry.Pool(addr)
			if !ok {
				return fmt.Errorf("pool %s not found", addr)
			}

			if outMint != "" {
				mint, err := layout.ParseAddress(outMint)
				if err != nil {
					return err
				}
				amount, err := parseAmount(outValue)
				if err != nil {
					return err
				}
				raw, _, err := toRaw(ctx, s.Cache, mint, amount)
				if err != nil {
					return err
				}
				action, err := s.Builder.RemoveLiquidityExactOne(ctx, s.Wallet.PublicKey, tokenswap.RemoveLiquidityExactOneRequest{
					Pool: pool,
					Out:  tokenswap.Component{Mint: mint, Amount: raw},
				})
				if err != nil {
					return err
				}
				return a.submit(cmd, s, action)
			}

			var liquidity uint64
			switch {
			case all:
				rec, ok := s.Cache.FindAccountByMint(s.Wallet.PublicKey, pool.PoolMint)
				if !ok {
					return fmt.Errorf("no liquidity account for pool %s", addr)
				}
				liquidity = rec.Account.Amount
			case len(args) == 2:
				amount, err := parseAmount(args[1])
				if err != nil {
					return err
				}
				liquidity = tokenswap.ToRaw(amount, tokenswap.LiquidityTokenPrecision)
			default:
				return fmt.Errorf("liquidity amount or --all is required")
			}

			action, err := s.Builder.RemoveLiquidity(ctx, s.Wallet.PublicKey, tokenswap.RemoveLiquidityRequest{
				Pool:      pool,
				Liquidity: liquidity,
			})
			if err != nil {
				return err
			}
			return a.submit(cmd, s, action)
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "withdraw the whole balance and close the account")
	cmd.Flags().StringVar(&outMint, "out", "", "withdraw exactly one token of this mint")
	cmd.Flags().StringVar(&outValue, "amount", "", "amount of --out to receive")
	return cmd
}

func (a *app) createPoolCmd() *cobra.Command {
	var (
		curveName        string
		curveParam       uint64
		tradeBps         uint64
		ownerTradeBps    uint64
		ownerWithdrawBps uint64
	)
	cmd := &cobra.Command{
		Use:   "create-pool <mintA> <amountA> <mintB> <amountB>",
		Short: "Create and seed a new pool on the current swap program",
		Args:  requireArgs(4, "<mintA> <amountA> <mintB> <amountB>"),
		RunE: func(cmd *cobra.Command, args []string) error {
			curve, err := parseCurve(curveName, curveParam)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			s, err := a.open(ctx, true)
			if err != nil {
				return err
			}
			defer a.close(s)

			var legs [2]tokenswap.Component
			for i := 0; i < 2; i++ {
				mint, err := layout.ParseAddress(args[2*i])
				if err != nil {
					return err
				}
				amount, err := parseAmount(args[2*i+1])
				if err != nil {
					return err
				}
				raw, _, err := toRaw(ctx, s.Cache, mint, amount)
				if err != nil {
					return err
				}
				legs[i] = tokenswap.Component{Mint: mint, Amount: raw}
			}

			bootstrap, err := s.Builder.CreatePool(ctx, s.Wallet.PublicKey, tokenswap.CreatePoolRequest{
				Components: legs,
				Curve:      curve,
				Fees:       feesFromBps(tradeBps, ownerTradeBps, ownerWithdrawBps),
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "pool %s liquidity mint %s\n", bootstrap.Swap, bootstrap.PoolMint)
			return a.submit(cmd, s, bootstrap.Actions()...)
		},
	}
	cmd.Flags().StringVar(&curveName, "curve", "constant-product", "constant-product | constant-price | offset | stable")
	cmd.Flags().Uint64Var(&curveParam, "curve-param", 0, "token B price, token B offset or amp")
	cmd.Flags().Uint64Var(&tradeBps, "trade-fee-bps", 25, "trade fee in basis points")
	cmd.Flags().Uint64Var(&ownerTradeBps, "owner-trade-fee-bps", 5, "owner trade fee in basis points")
	cmd.Flags().Uint64Var(&ownerWithdrawBps, "owner-withdraw-fee-bps", 0, "owner withdraw fee in basis points")
	return cmd
}
