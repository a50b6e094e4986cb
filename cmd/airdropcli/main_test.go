package main

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ligun0805/airdrop-engine/internal/airdropcore"
	"github.com/ligun0805/airdrop-engine/internal/config"
	"github.com/ligun0805/airdrop-engine/internal/networks"
)

func TestDispatchUnknownCommand(t *testing.T) {
	code, err := dispatch(context.Background(), config.Settings{}, []string{"launch"})
	assert.Error(t, err)
	assert.Equal(t, exitError, code)
}

func TestTemplateCommand(t *testing.T) {
	out := filepath.Join(t.TempDir(), "tpl.csv")
	code, err := dispatch(context.Background(), config.Settings{}, []string{"template", "--out", out, "--chain-id", "1"})
	require.NoError(t, err)
	assert.Equal(t, exitOK, code)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "wallet_address,amount,token_type", lines[0])
	assert.True(t, strings.HasSuffix(lines[1], ",100,NATIVE"), lines[1])
}

func TestStatusRequiresKnownRun(t *testing.T) {
	cfg := config.Settings{Ledger: "leveldb:" + filepath.Join(t.TempDir(), "ledger")}
	code, err := dispatch(context.Background(), cfg, []string{"status", "--run-id", "missing"})
	assert.Error(t, err)
	assert.Equal(t, exitError, code)

	code, err = dispatch(context.Background(), cfg, []string{"status"})
	require.NoError(t, err)
	assert.Equal(t, exitOK, code)
}

func TestReconcileNeedsRunID(t *testing.T) {
	_, err := dispatch(context.Background(), config.Settings{}, []string{"reconcile"})
	assert.EqualError(t, err, "--run-id is required")
}

func TestLedgerBackedCommandsRefuseMemory(t *testing.T) {
	cfg := config.Settings{Ledger: "memory"}
	for _, args := range [][]string{
		{"reconcile", "--run-id", "run-1"},
		{"status", "--run-id", "run-1"},
		{"status"},
		{"run", "--run-id", "run-1", "--to", "0x742d35cc6634c0532925a3b844bc454e4438f44e:1"},
	} {
		code, err := dispatch(context.Background(), cfg, args)
		assert.ErrorIs(t, err, config.ErrVolatileLedger, args)
		assert.Equal(t, exitError, code, args)
	}

	_, err := dispatch(context.Background(), config.Settings{}, []string{"status"})
	assert.ErrorIs(t, err, config.ErrVolatileLedger)
}

func TestLoadRecipients(t *testing.T) {
	n, err := networks.Default().Lookup(networks.IOPNTestnet)
	require.NoError(t, err)
	a := &app{network: n}

	csvPath := filepath.Join(t.TempDir(), "r.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte(
		"wallet_address,amount,token_type\n"+
			"0x742d35cc6634c0532925a3b844bc454e4438f44e,100,\n"+
			"0x123d35cc8545eb5c8c5b0cb9876543210fedcba0,abc,OPN\n"), 0o600))

	list, err := loadRecipients(a, csvPath, []string{"0x123d35cc8545eb5c8c5b0cb9876543210fedcba0:5:NATIVE"})
	require.NoError(t, err)
	require.Equal(t, 2, list.Len())
	assert.Equal(t, airdropcore.TokenOPN, list.Recipients()[0].TokenType)
	assert.Equal(t, airdropcore.TokenNative, list.Recipients()[1].TokenType)

	_, err = loadRecipients(a, "", nil)
	assert.True(t, airdropcore.IsKind(err, airdropcore.KindInputValidation))

	_, err = loadRecipients(a, "", []string{"nope"})
	assert.Error(t, err)
}

func TestRedactDSN(t *testing.T) {
	assert.Equal(t, "postgres://airdrop:xxxxx@db:5432/ledger", redactDSN("postgres://airdrop:secret@db:5432/ledger"))
	assert.Equal(t, "leveldb:./ledger", redactDSN("leveldb:./ledger"))
	assert.Equal(t, "memory", redactDSN("memory"))
}

func TestServeMetricsFailureLeavesCallerRunning(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer busy.Close()

	core, logs := observer.New(zap.InfoLevel)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		serveMetrics(ctx, zap.New(core), busy.Addr().String())
	}()

	require.Eventually(t, func() bool {
		return logs.FilterMessage("metrics server failed, continuing without it").Len() == 1
	}, 5*time.Second, 10*time.Millisecond)
	assert.NoError(t, ctx.Err())
	select {
	case <-done:
		t.Fatal("metrics helper returned before the run ended")
	default:
	}

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("metrics helper did not stop with its context")
	}
}
