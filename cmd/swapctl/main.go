// cmd/swapctl/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/tokenswap-client/internal/config"
	"github.com/rovshanmuradov/tokenswap-client/internal/session"
	"github.com/rovshanmuradov/tokenswap-client/internal/utils/logger"
	"github.com/rovshanmuradov/tokenswap-client/internal/wallet"
)

type app struct {
	configPath string
	keypair    string
	network    string
	rpcURL     string
	debug      bool
	dryRun     bool

	cfg *config.Config
	log *logger.Logger
}

func main() {
	// .env is optional
	_ = godotenv.Load()

	a := &app{}
	root := &cobra.Command{
		Use:               "swapctl",
		Short:             "Token swap pool client",
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "config file path")
	flags.StringVar(&a.keypair, "keypair", "", "keypair file or base58 private key")
	flags.StringVar(&a.network, "network", "", "cluster: mainnet-beta, testnet, devnet, localnet")
	flags.StringVar(&a.rpcURL, "rpc", "", "RPC URL")
	flags.BoolVar(&a.debug, "debug", false, "debug logging")
	flags.BoolVar(&a.dryRun, "dry-run", false, "build transactions without submitting")

	root.AddCommand(
		a.poolsCmd(),
		a.resolveCmd(),
		a.quoteCmd(),
		a.swapCmd(),
		a.depositCmd(),
		a.withdrawCmd(),
		a.createPoolCmd(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	// Validation errors are re-checked after flag overrides.
	cfg, err := config.LoadConfig(a.configPath)
	if cfg == nil {
		return err
	}
	if a.network != "" {
		cfg.Network = a.network
		if a.rpcURL == "" {
			cfg.RPCURL, cfg.WebSocketURL = "", ""
		}
	}
	if a.rpcURL != "" {
		cfg.RPCURL, cfg.WebSocketURL = a.rpcURL, ""
	}
	if a.keypair != "" {
		cfg.Keypair = a.keypair
	}
	if a.debug {
		cfg.DebugLogging = true
	}
	if cfg, err = config.Normalize(cfg); err != nil {
		return err
	}
	a.cfg = cfg

	logCfg := logger.DefaultConfig()
	logCfg.LogFile = cfg.LogFile
	logCfg.Development = cfg.DebugLogging
	a.log, err = logger.New(logCfg)
	return err
}

// open dials and starts a session. Signing commands load the wallet first.
func (a *app) open(ctx context.Context, signing bool) (*session.Session, error) {
	var w *wallet.Wallet
	if signing || a.cfg.Keypair != "" {
		var err error
		if w, err = wallet.Load(a.cfg.Keypair); err != nil {
			return nil, err
		}
	}

	log := a.log.WithComponent("swapctl")
	if w != nil {
		log = log.With(zap.String("wallet", w.String()))
	}

	s, err := session.Dial(a.cfg, w, log)
	if err != nil {
		return nil, err
	}
	end := a.log.TrackPerformance("session_start")
	err = s.Start(ctx)
	end()
	if err != nil {
		a.close(s)
		return nil, err
	}
	return s, nil
}

func (a *app) close(s *session.Session) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.Close(ctx); err != nil {
		a.log.LogError("Session close failed", err)
	}
	size, reads, writes, fetches := s.Cache.Stats()
	a.log.Debug("Cache stats",
		zap.Uint64("size", size),
		zap.Uint64("reads", reads),
		zap.Uint64("writes", writes),
		zap.Uint64("fetches", fetches))
}

func requireArgs(n int, usage string) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return fmt.Errorf("usage: %s %s", cmd.Name(), usage)
		}
		return nil
	}
}
