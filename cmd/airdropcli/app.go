package main

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/ligun0805/airdrop-engine/internal/airdropcore"
	"github.com/ligun0805/airdrop-engine/internal/chain"
	"github.com/ligun0805/airdrop-engine/internal/config"
	"github.com/ligun0805/airdrop-engine/internal/ledger"
	"github.com/ligun0805/airdrop-engine/internal/logger"
	"github.com/ligun0805/airdrop-engine/internal/networks"
)

// app is everything a node-facing subcommand needs.
type app struct {
	cfg     config.Settings
	log     *zap.Logger
	network networks.Network
	client  *chain.Client
	ledger  ledger.Store
	service *airdropcore.Service
}

func newLogger(cfg config.Settings) (*zap.Logger, error) {
	return logger.New(cfg.LogLevel, cfg.LogFormat)
}

// lookupNetwork applies the networks file and the distributor override.
func lookupNetwork(cfg config.Settings, chainID uint64) (networks.Network, error) {
	reg, err := networks.Load(cfg.NetworksFile)
	if err != nil {
		return networks.Network{}, err
	}
	n, err := reg.Lookup(chainID)
	if err != nil {
		return networks.Network{}, err
	}
	if cfg.Distributor != "" {
		n.Distributor = cfg.Distributor
	}
	return n, nil
}

func openApp(ctx context.Context, cfg config.Settings, log *zap.Logger, onBatch func(airdropcore.BatchOutcome)) (*app, error) {
	if cfg.RPCURL == "" && cfg.ChainID != 0 {
		if n, err := lookupNetwork(cfg, cfg.ChainID); err == nil {
			cfg.RPCURL = n.RPCURL
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, airdropcore.NewError(airdropcore.KindConfiguration, err)
	}
	client, err := chain.Dial(ctx, cfg.RPCURL, chain.Options{
		RPCDelay:         cfg.RPCDelay,
		MaxConcurrency:   cfg.RPCMaxConcurrent,
		GasBufferPercent: cfg.GasBufferPct,
	}, log)
	if err != nil {
		return nil, err
	}
	chainID := cfg.ChainID
	if chainID == 0 {
		id, err := client.ChainID(ctx)
		if err != nil {
			client.Close()
			return nil, fmt.Errorf("chain id: %w", err)
		}
		chainID = id.Uint64()
	}
	n, err := lookupNetwork(cfg, chainID)
	if err != nil {
		client.Close()
		return nil, airdropcore.NewError(airdropcore.KindConfiguration, err)
	}
	// A missing distributor is left for Prepare, which reports it as a
	// configuration error naming the network.
	if addr, err := n.DistributorAddress(); err == nil {
		client = client.ForDistributor(addr)
	}

	store, err := openLedger(ctx, cfg)
	if err != nil {
		client.Close()
		return nil, err
	}
	limits := airdropcore.Limits{Native: cfg.NativeBatchSize, Token: cfg.TokenBatchSize}
	svc := airdropcore.NewService(n, client, client, store, log, airdropcore.ServiceConfig{
		Limits:       limits,
		Token:        cfg.Token,
		BatchTimeout: cfg.BatchTimeout,
		OnBatch:      onBatch,
	})
	return &app{cfg: cfg, log: log, network: n, client: client, ledger: store, service: svc}, nil
}

func openLedger(ctx context.Context, cfg config.Settings) (ledger.Store, error) {
	store, err := ledger.Open(ctx, cfg.Ledger)
	if err != nil {
		return nil, fmt.Errorf("open ledger %s: %w", redactDSN(cfg.Ledger), err)
	}
	return store, nil
}

func (a *app) Close() {
	if err := a.ledger.Close(); err != nil {
		a.log.Warn("close ledger", zap.Error(err))
	}
	a.client.Close()
	_ = a.log.Sync()
}

// signerKey returns the configured key or prompts for one.
func signerKey(cfg config.Settings) (string, error) {
	if k := strings.TrimSpace(cfg.SignerKeyHex); k != "" {
		return k, nil
	}
	return readPassword("Signer private key: ")
}

// redactDSN hides credentials in a ledger DSN.
func redactDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.User == nil {
		return dsn
	}
	return u.Redacted()
}
