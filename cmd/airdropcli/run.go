package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ligun0805/airdrop-engine/internal/airdropcore"
	"github.com/ligun0805/airdrop-engine/internal/chain"
	"github.com/ligun0805/airdrop-engine/internal/config"
	"github.com/ligun0805/airdrop-engine/internal/receipt"
	"github.com/ligun0805/airdrop-engine/internal/recipients"
)

func runCmd(ctx context.Context, cfg config.Settings, args []string) (int, error) {
	var (
		csvPath  string
		manual   []string
		runID    string
		dryRun   bool
		assumeOK bool
		skipChk  bool
	)
	fs := pflag.NewFlagSet("run", pflag.ContinueOnError)
	commonFlags(fs, &cfg)
	fs.StringVar(&csvPath, "csv", "", "recipient CSV (wallet_address,amount,token_type)")
	fs.StringArrayVar(&manual, "to", nil, "manual recipient address:amount[:token_type], repeatable")
	fs.StringVar(&cfg.Token, "token", cfg.Token, "ERC20 token (symbol or address) for ERC20 rows")
	fs.StringVar(&runID, "run-id", "", "run id; reuse one to resume a run")
	fs.BoolVar(&dryRun, "dry-run", false, "print the plan and fee, send nothing")
	fs.BoolVarP(&assumeOK, "yes", "y", false, "do not ask for confirmation")
	fs.BoolVar(&skipChk, "skip-token-checks", false, "skip the token pause/blacklist preflight")
	fs.StringVar(&cfg.ReceiptDir, "receipts", cfg.ReceiptDir, "directory for receipts")
	fs.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "serve Prometheus metrics on this address")
	if err := fs.Parse(args); err != nil {
		return exitError, err
	}
	if runID == "" {
		runID = uuid.NewString()
	} else if err := cfg.RequirePersistentLedger("resume"); err != nil {
		return exitError, err
	}

	log, err := newLogger(cfg)
	if err != nil {
		return exitError, err
	}
	progress := func(o airdropcore.BatchOutcome) {
		line := fmt.Sprintf("  batch #%d %s (%d recipients)", o.BatchIndex+1, o.Status, o.Recipients)
		if o.ExplorerURL != "" {
			line += " " + o.ExplorerURL
		}
		if o.Error != "" {
			line += " : " + o.Error
		}
		fmt.Println(line)
	}
	a, err := openApp(ctx, cfg, log.With(zap.String("run_id", runID)), progress)
	if err != nil {
		return exitError, err
	}
	defer a.Close()

	list, err := loadRecipients(a, csvPath, manual)
	if err != nil {
		return exitRejected, err
	}

	key, err := signerKey(cfg)
	if err != nil {
		return exitError, err
	}
	cfg.SignerKeyHex = key
	sess, err := a.client.KeyedSession(ctx, key, a.network.ChainID)
	if err != nil {
		return exitRejected, airdropcore.NewError(airdropcore.KindConfiguration, err)
	}
	if bal, err := a.client.Balance(ctx, sess.Identity); err == nil {
		printConfig(cfg, a.network, sess.Identity, bal)
	}

	plan, err := a.service.Prepare(ctx, sess, runID, list.Recipients())
	if err != nil {
		return exitRejected, err
	}
	printPlan(a.network, plan)
	if len(plan.Batches) == 0 {
		fmt.Println("Nothing to send.")
		return exitOK, nil
	}
	if !skipChk {
		if err := tokenPreflight(ctx, a.client, sess.Identity, plan); err != nil {
			return exitRejected, err
		}
	}
	if dryRun {
		return exitOK, nil
	}
	if !assumeOK && !yes(readLine("Send these batches? [y/N]: ")) {
		fmt.Println("Aborted.")
		return exitOK, nil
	}

	rep, runErr := execute(ctx, a, sess, plan)

	paths, werr := receipt.Write(cfg.ReceiptDir, rep)
	if werr != nil {
		log.Error("write receipts", zap.Error(werr))
	}
	fmt.Println()
	_ = receipt.Summary(os.Stdout, rep)
	if werr == nil {
		fmt.Println("\nReceipts:", paths.JSON, paths.CSV)
	}

	switch {
	case runErr != nil:
		return exitPartial, runErr
	case len(rep.Failed) > 0 || len(rep.Unknown) > 0 || len(rep.Skipped) > 0:
		return exitPartial, nil
	}
	return exitOK, nil
}

// execute runs plan next to the session watcher and, when configured, the
// metrics endpoint. Ending the run stops both.
func execute(ctx context.Context, a *app, sess *airdropcore.Session, plan *airdropcore.RunPlan) (airdropcore.DistributionReport, error) {
	// Helpers never cancel the run; only the caller or the run itself does.
	runCtx, stop := context.WithCancel(ctx)
	defer stop()

	var (
		g      errgroup.Group
		rep    airdropcore.DistributionReport
		runErr error
	)
	g.Go(func() error {
		defer stop()
		rep, runErr = a.service.Execute(runCtx, sess, plan)
		return nil
	})
	g.Go(func() error {
		a.client.WatchSession(runCtx, sess, a.cfg.SessionPoll)
		return nil
	})
	if addr := a.cfg.MetricsAddr; addr != "" {
		g.Go(func() error {
			serveMetrics(runCtx, a.log, addr)
			return nil
		})
	}
	_ = g.Wait()
	return rep, runErr
}

// serveMetrics exposes the Prometheus registry on addr until ctx ends. A
// listener failure is logged and the caller carries on without metrics.
func serveMetrics(ctx context.Context, log *zap.Logger, addr string) {
	srv := &http.Server{Addr: addr, Handler: promhttp.Handler(), ReadHeaderTimeout: 5 * time.Second}
	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn("metrics shutdown", zap.Error(err))
		}
	}()

	log.Info("metrics listening", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("metrics server failed, continuing without it", zap.String("addr", addr), zap.Error(err))
	}
	<-done
}

func loadRecipients(a *app, csvPath string, manual []string) (*recipients.List, error) {
	def := recipients.DefaultTokenType(a.network)
	list := &recipients.List{}
	if csvPath != "" {
		f, err := os.Open(csvPath)
		if err != nil {
			return nil, fmt.Errorf("open csv: %w", err)
		}
		res, err := recipients.ParseCSV(f, def)
		_ = f.Close()
		if err != nil {
			return nil, airdropcore.NewError(airdropcore.KindInputValidation, err)
		}
		for _, is := range res.Issues {
			fmt.Fprintln(os.Stderr, "  [skip]", is.Error())
		}
		if res.Skipped > 0 {
			fmt.Fprintf(os.Stderr, "  [skip] %d rows without address or amount\n", res.Skipped)
		}
		list.Import(res)
	}
	for _, m := range manual {
		if err := list.AddManual(m, def); err != nil {
			return nil, err
		}
	}
	if list.Len() == 0 {
		return nil, airdropcore.Errorf(airdropcore.KindInputValidation, "no valid recipients (use --csv or --to)")
	}
	for t, n := range list.Summary() {
		fmt.Printf("  %-6s %d recipients\n", t, n)
	}
	return list, nil
}

// tokenPreflight refuses plans whose tokens are paused, disabled or block
// the signer. Blacklisted recipients are reported but not fatal.
func tokenPreflight(ctx context.Context, c *chain.Client, signer common.Address, plan *airdropcore.RunPlan) error {
	byToken := map[common.Address][]common.Address{}
	for _, b := range plan.Batches {
		if b.Asset.Native {
			continue
		}
		for _, r := range b.Recipients {
			byToken[b.Asset.Token] = append(byToken[b.Asset.Token], r.Address)
		}
	}
	for token, addrs := range byToken {
		r, err := c.CheckRestrictions(ctx, token, signer, addrs)
		if err != nil {
			return airdropcore.NewError(airdropcore.KindConfiguration, err)
		}
		fmt.Printf("Token %s restrictions: %s\n", token.Hex(), r.Summary())
		for _, bad := range r.BlacklistedTo {
			fmt.Fprintln(os.Stderr, "  [warn] recipient blacklisted by token:", bad.Hex())
		}
		if r.Blocked() {
			return airdropcore.Errorf(airdropcore.KindConfiguration, "token %s refuses transfers: %s", token.Hex(), r.Summary())
		}
	}
	return nil
}
