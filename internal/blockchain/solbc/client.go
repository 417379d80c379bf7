// internal/blockchain/solbc/client.go
package solbc

import (
	"context"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/rovshanmuradov/tokenswap-client/internal/blockchain"
	"github.com/rovshanmuradov/tokenswap-client/internal/events"
	"github.com/rovshanmuradov/tokenswap-client/internal/utils/metrics"
)

// ClientOptions настраивает адаптер.
type ClientOptions struct {
	Commitment rpc.CommitmentType
	// RateLimit в запросах в секунду; 0 отключает ограничение.
	RateLimit float64
	Burst     int
	Metrics   *metrics.Collector
	// Events получает SubscriptionFailed от подписчика; может быть nil.
	Events *events.Bus
}

// DefaultClientOptions возвращает опции по умолчанию.
func DefaultClientOptions() ClientOptions {
	return ClientOptions{
		Commitment: rpc.CommitmentConfirmed,
		RateLimit:  0,
		Burst:      1,
	}
}

// Client – тонкий адаптер для чтения состояния Solana через solana-go.
// Ошибки не ретраятся: повтор – задача вызывающего кода.
type Client struct {
	rpc        *rpc.Client
	endpoint   string
	commitment rpc.CommitmentType
	limiter    *rate.Limiter
	metrics    *metrics.Collector
	logger     *zap.Logger
}

var _ blockchain.Accessor = (*Client)(nil)

// NewClient создаёт новый клиент, принимая RPC URL и логгер через dependency injection.
func NewClient(rpcURL string, logger *zap.Logger, opts ClientOptions) *Client {
	if opts.Commitment == "" {
		opts.Commitment = rpc.CommitmentConfirmed
	}
	c := &Client{
		rpc:        rpc.New(rpcURL),
		endpoint:   rpcURL,
		commitment: opts.Commitment,
		metrics:    opts.Metrics,
		logger:     logger.Named("solbc-client"),
	}
	if opts.RateLimit > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}
	return c
}

// RPC exposes the underlying solana-go client for the submitter.
func (c *Client) RPC() *rpc.Client {
	return c.rpc
}

func (c *Client) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrRateLimit, err)
	}
	return nil
}

func (c *Client) observe(method string, start time.Time, err *error) {
	c.metrics.ObserveRPC(method, time.Since(start), *err)
}

// GetAccount получает сырые байты аккаунта.
func (c *Client) GetAccount(ctx context.Context, address solana.PublicKey) (info *blockchain.AccountInfo, err error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	defer c.observe("getAccountInfo", time.Now(), &err)

	res, err := c.rpc.GetAccountInfoWithOpts(ctx, address, &rpc.GetAccountInfoOpts{
		Encoding:   solana.EncodingBase64,
		Commitment: c.commitment,
	})
	if err != nil {
		c.logger.Debug("GetAccount error",
			zap.String("pubkey", address.String()),
			zap.Error(err))
		return nil, c.wrap("getAccountInfo", err)
	}
	if res == nil || res.Value == nil {
		return nil, blockchain.ErrAccountNotFound
	}
	return toAccountInfo(address, res.Value), nil
}

// GetMultipleAccounts получает информацию о нескольких аккаунтах за один запрос.
// Результат выровнен по входным адресам, отсутствующие аккаунты – nil.
func (c *Client) GetMultipleAccounts(ctx context.Context, addresses []solana.PublicKey) (infos []*blockchain.AccountInfo, err error) {
	if len(addresses) == 0 {
		return nil, nil
	}
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	defer c.observe("getMultipleAccounts", time.Now(), &err)

	res, err := c.rpc.GetMultipleAccountsWithOpts(ctx, addresses, &rpc.GetMultipleAccountsOpts{
		Encoding:   solana.EncodingBase64,
		Commitment: c.commitment,
	})
	if err != nil {
		c.logger.Debug("GetMultipleAccounts error",
			zap.Int("count", len(addresses)),
			zap.Error(err))
		return nil, c.wrap("getMultipleAccounts", err)
	}

	infos = make([]*blockchain.AccountInfo, len(addresses))
	for i, acc := range res.Value {
		if i >= len(addresses) || acc == nil {
			continue
		}
		infos[i] = toAccountInfo(addresses[i], acc)
	}
	return infos, nil
}

// GetProgramAccounts получает все аккаунты программы, отфильтрованные по размеру данных.
func (c *Client) GetProgramAccounts(ctx context.Context, program solana.PublicKey, dataSize uint64) (infos []*blockchain.AccountInfo, err error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	defer c.observe("getProgramAccounts", time.Now(), &err)

	opts := rpc.GetProgramAccountsOpts{
		Commitment: c.commitment,
		Encoding:   solana.EncodingBase64,
	}
	if dataSize > 0 {
		opts.Filters = append(opts.Filters, rpc.RPCFilter{DataSize: dataSize})
	}

	accounts, err := c.rpc.GetProgramAccountsWithOpts(ctx, program, &opts)
	if err != nil {
		c.logger.Debug("GetProgramAccounts error",
			zap.String("program_id", program.String()),
			zap.Uint64("data_size", dataSize),
			zap.Error(err))
		return nil, c.wrap("getProgramAccounts", err)
	}

	infos = make([]*blockchain.AccountInfo, 0, len(accounts))
	for _, keyed := range accounts {
		if keyed == nil || keyed.Account == nil {
			continue
		}
		infos = append(infos, toAccountInfo(keyed.Pubkey, keyed.Account))
	}
	return infos, nil
}

// GetTokenAccountsByOwner получает все SPL-аккаунты владельца.
func (c *Client) GetTokenAccountsByOwner(ctx context.Context, owner solana.PublicKey) (infos []*blockchain.AccountInfo, err error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	defer c.observe("getTokenAccountsByOwner", time.Now(), &err)

	programID := solana.TokenProgramID
	res, err := c.rpc.GetTokenAccountsByOwner(ctx, owner,
		&rpc.GetTokenAccountsConfig{ProgramId: &programID},
		&rpc.GetTokenAccountsOpts{
			Commitment: c.commitment,
			Encoding:   solana.EncodingBase64,
		})
	if err != nil {
		c.logger.Debug("GetTokenAccountsByOwner error",
			zap.String("owner", owner.String()),
			zap.Error(err))
		return nil, c.wrap("getTokenAccountsByOwner", err)
	}

	infos = make([]*blockchain.AccountInfo, 0, len(res.Value))
	for _, ta := range res.Value {
		if ta == nil {
			continue
		}
		infos = append(infos, &blockchain.AccountInfo{
			Address:  ta.Pubkey,
			Owner:    ta.Account.Owner,
			Lamports: ta.Account.Lamports,
			Data:     ta.Account.Data.GetBinary(),
		})
	}
	return infos, nil
}

// GetMinimumBalanceForRentExemption возвращает минимальный rent-exempt баланс.
func (c *Client) GetMinimumBalanceForRentExemption(ctx context.Context, dataSize uint64) (lamports uint64, err error) {
	if err := c.wait(ctx); err != nil {
		return 0, err
	}
	defer c.observe("getMinimumBalanceForRentExemption", time.Now(), &err)

	lamports, err = c.rpc.GetMinimumBalanceForRentExemption(ctx, dataSize, c.commitment)
	if err != nil {
		return 0, c.wrap("getMinimumBalanceForRentExemption", err)
	}
	return lamports, nil
}

func toAccountInfo(address solana.PublicKey, acc *rpc.Account) *blockchain.AccountInfo {
	info := &blockchain.AccountInfo{
		Address:  address,
		Owner:    acc.Owner,
		Lamports: acc.Lamports,
	}
	if acc.Data != nil {
		info.Data = acc.Data.GetBinary()
	}
	return info
}
