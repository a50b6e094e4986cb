// Command airdropcli distributes native coin and ERC-20 tokens to many
// recipients through an airdrop distributor contract.
//
// Usage:
//
//	airdropcli [run] --csv recipients.csv [--token USDT] [--yes] [--run-id ID]
//	airdropcli template [--out airdrop_template.csv]
//	airdropcli quote [--address 0x...]
//	airdropcli reconcile --run-id ID
//	airdropcli status [--run-id ID]
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/ligun0805/airdrop-engine/internal/airdropcore"
	"github.com/ligun0805/airdrop-engine/internal/config"
)

// Exit codes.
const (
	exitOK       = 0
	exitError    = 1
	exitPartial  = 2 // some recipients failed, are unknown or were skipped
	exitRejected = 3 // the run was refused before any batch
)

type command struct {
	name  string
	usage string
	run   func(ctx context.Context, cfg config.Settings, args []string) (int, error)
}

var commands = []command{
	{"run", "distribute to a recipient list (default)", runCmd},
	{"template", "write the CSV template", templateCmd},
	{"quote", "print the fee quote for the signer", quoteCmd},
	{"reconcile", "resolve pending and unknown ledger entries of a run", reconcileCmd},
	{"status", "print the ledger entries of a run", statusCmd},
}

func main() {
	_ = godotenv.Load()
	_ = godotenv.Overload(".env.local")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code, err := dispatch(ctx, config.Load(), os.Args[1:])
	stop()
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(exitOK)
		}
		if code == exitOK {
			code = exitError
			if airdropcore.RunAborting(err) {
				code = exitRejected
			}
		}
		die(code, err)
	}
	os.Exit(code)
}

func dispatch(ctx context.Context, cfg config.Settings, args []string) (int, error) {
	name := "run"
	if len(args) > 0 && len(args[0]) > 0 && args[0][0] != '-' {
		name, args = args[0], args[1:]
	}
	if name == "help" {
		usage()
		return exitOK, nil
	}
	for _, c := range commands {
		if c.name == name {
			return c.run(ctx, cfg, args)
		}
	}
	usage()
	return exitError, fmt.Errorf("unknown command %q", name)
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: airdropcli <command> [flags]")
	for _, c := range commands {
		fmt.Fprintf(os.Stderr, "  %-10s %s\n", c.name, c.usage)
	}
}

// commonFlags binds the settings every node-facing command can override.
func commonFlags(fs *pflag.FlagSet, cfg *config.Settings) {
	fs.StringVar(&cfg.RPCURL, "rpc", cfg.RPCURL, "JSON-RPC endpoint")
	fs.Uint64Var(&cfg.ChainID, "chain-id", cfg.ChainID, "expected chain id (0: ask the node)")
	fs.StringVar(&cfg.Distributor, "distributor", cfg.Distributor, "distributor contract address override")
	fs.StringVar(&cfg.NetworksFile, "networks", cfg.NetworksFile, "YAML file overlaying the built-in networks")
	fs.StringVar(&cfg.Ledger, "ledger", cfg.Ledger, "ledger: memory, leveldb:<dir> or postgres://...")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "console or json")
}
