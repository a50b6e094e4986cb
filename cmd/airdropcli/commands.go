package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/pflag"

	"github.com/ligun0805/airdrop-engine/internal/config"
	"github.com/ligun0805/airdrop-engine/internal/networks"
	"github.com/ligun0805/airdrop-engine/internal/recipients"
)

func templateCmd(_ context.Context, cfg config.Settings, args []string) (int, error) {
	out := recipients.TemplateFileName
	fs := pflag.NewFlagSet("template", pflag.ContinueOnError)
	fs.StringVarP(&out, "out", "o", out, "output path, - for stdout")
	fs.Uint64Var(&cfg.ChainID, "chain-id", cfg.ChainID, "network whose primary token fills the example row")
	fs.StringVar(&cfg.NetworksFile, "networks", cfg.NetworksFile, "YAML file overlaying the built-in networks")
	if err := fs.Parse(args); err != nil {
		return exitError, err
	}
	chainID := cfg.ChainID
	if chainID == 0 {
		chainID = networks.IOPNTestnet
	}
	n, err := lookupNetwork(cfg, chainID)
	if err != nil {
		return exitError, err
	}
	if out == "-" {
		return exitOK, recipients.WriteTemplate(os.Stdout, n)
	}
	f, err := os.Create(out)
	if err != nil {
		return exitError, err
	}
	if err := recipients.WriteTemplate(f, n); err != nil {
		_ = f.Close()
		return exitError, err
	}
	if err := f.Close(); err != nil {
		return exitError, err
	}
	fmt.Println("Template written to", out)
	return exitOK, nil
}

func quoteCmd(ctx context.Context, cfg config.Settings, args []string) (int, error) {
	var address string
	fs := pflag.NewFlagSet("quote", pflag.ContinueOnError)
	commonFlags(fs, &cfg)
	fs.StringVar(&address, "address", "", "identity to quote for (default: the signer)")
	if err := fs.Parse(args); err != nil {
		return exitError, err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return exitError, err
	}
	a, err := openApp(ctx, cfg, log, nil)
	if err != nil {
		return exitError, err
	}
	defer a.Close()

	var identity common.Address
	switch {
	case address != "":
		if !common.IsHexAddress(address) {
			return exitError, fmt.Errorf("invalid address %q", address)
		}
		identity = common.HexToAddress(address)
	default:
		key, err := signerKey(cfg)
		if err != nil {
			return exitError, err
		}
		sess, err := a.client.KeyedSession(ctx, key, a.network.ChainID)
		if err != nil {
			return exitError, err
		}
		identity = sess.Identity
	}

	q, err := a.service.Quote(ctx, identity)
	if err != nil {
		return exitError, err
	}
	fmt.Println("Network  :", a.network.Name)
	fmt.Println("Identity :", identity.Hex())
	if q.Exempt {
		fmt.Println("Fee      : exempt")
	} else {
		fmt.Println("Fee      :", q.Formatted, a.network.Symbol, "per transaction")
	}
	if q.Legacy {
		fmt.Println("Source   : legacy whitelist interface")
	}
	return exitOK, nil
}

func reconcileCmd(ctx context.Context, cfg config.Settings, args []string) (int, error) {
	var (
		runID   string
		wait    time.Duration
		release bool
	)
	fs := pflag.NewFlagSet("reconcile", pflag.ContinueOnError)
	commonFlags(fs, &cfg)
	fs.StringVar(&runID, "run-id", "", "run to reconcile")
	fs.DurationVar(&wait, "wait", 30*time.Second, "how long to wait for each transaction")
	fs.BoolVar(&release, "release-unsent", false,
		"mark entries that never got a transaction hash as failed so the next run pays them; "+
			"check the signer's nonce history first, anything mined from the interrupted batch would be paid twice")
	if err := fs.Parse(args); err != nil {
		return exitError, err
	}
	if runID == "" {
		return exitError, errors.New("--run-id is required")
	}
	if err := cfg.RequirePersistentLedger("reconcile"); err != nil {
		return exitError, err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return exitError, err
	}
	a, err := openApp(ctx, cfg, log, nil)
	if err != nil {
		return exitError, err
	}
	defer a.Close()

	if release {
		n, err := a.service.ReleaseUnsent(ctx, runID)
		if err != nil {
			return exitError, err
		}
		fmt.Printf("Run %s: released %d unsent entries\n", runID, n)
	}
	res, err := a.service.Reconcile(ctx, runID, wait)
	if err != nil {
		return exitError, err
	}
	fmt.Printf("Run %s: %d paid, %d failed, %d still unresolved\n", runID, res.Paid, res.Failed, res.Unchanged)
	if res.Unchanged > 0 {
		return exitPartial, nil
	}
	return exitOK, nil
}

func statusCmd(ctx context.Context, cfg config.Settings, args []string) (int, error) {
	var runID string
	fs := pflag.NewFlagSet("status", pflag.ContinueOnError)
	fs.StringVar(&cfg.Ledger, "ledger", cfg.Ledger, "ledger: memory, leveldb:<dir> or postgres://...")
	fs.StringVar(&runID, "run-id", "", "run to show (default: list runs)")
	if err := fs.Parse(args); err != nil {
		return exitError, err
	}
	if err := cfg.RequirePersistentLedger("status"); err != nil {
		return exitError, err
	}
	store, err := openLedger(ctx, cfg)
	if err != nil {
		return exitError, err
	}
	defer store.Close()

	if runID == "" {
		runs, err := store.Runs(ctx)
		if err != nil {
			return exitError, err
		}
		for _, r := range runs {
			fmt.Println(r)
		}
		return exitOK, nil
	}
	entries, err := store.Entries(ctx, runID)
	if err != nil {
		return exitError, err
	}
	if len(entries) == 0 {
		return exitError, fmt.Errorf("no ledger entries for run %q", runID)
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STATE\tADDRESS\tASSET\tAMOUNT\tBATCH\tTX\tUPDATED")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			e.State, e.Address, e.Asset, e.Amount, e.BatchIndex+1, e.TxHash, e.UpdatedAt.Format(time.RFC3339))
	}
	return exitOK, tw.Flush()
}
