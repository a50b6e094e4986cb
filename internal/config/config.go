package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultLedger keeps the ledger on disk next to the working directory so
// resume, reconcile and status see what earlier runs recorded.
const DefaultLedger = "leveldb:./ledger"

// ErrVolatileLedger is returned when an operation needs entries written
// by an earlier process but the ledger lives in memory.
var ErrVolatileLedger = errors.New("in-memory ledger holds nothing from earlier runs; set LEDGER to leveldb:<dir> or postgres://...")

// Settings keeps all configuration options. Every key is read in both
// lower_case and UPPER_CASE form.
type Settings struct {
	RPCURL           string
	ChainID          uint64 // 0: take the node's
	Distributor      string
	SignerKeyHex     string
	NetworksFile     string
	Token            string
	Ledger           string
	BatchTimeout     time.Duration
	RPCDelay         time.Duration
	RPCMaxConcurrent int
	NativeBatchSize  int
	TokenBatchSize   int
	GasBufferPct     int
	MetricsAddr      string
	LogLevel         string
	LogFormat        string
	ReceiptDir       string
	SessionPoll      time.Duration
}

// Load reads settings from the environment.
func Load() Settings {
	get := func(keys []string, def string) string {
		for _, k := range keys {
			if v := strings.TrimSpace(os.Getenv(k)); v != "" {
				return v
			}
		}
		return def
	}
	getInt := func(keys []string, def int) int {
		s := get(keys, "")
		if s == "" {
			return def
		}
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
		return def
	}
	getUint := func(keys []string, def uint64) uint64 {
		s := get(keys, "")
		if s == "" {
			return def
		}
		if n, err := strconv.ParseUint(s, 10, 64); err == nil {
			return n
		}
		return def
	}
	getMillis := func(keys []string, def time.Duration) time.Duration {
		n := getInt(keys, -1)
		if n < 0 {
			return def
		}
		return time.Duration(n) * time.Millisecond
	}

	st := Settings{}
	st.RPCURL = get([]string{"rpc_url", "RPC_URL"}, "")
	st.ChainID = getUint([]string{"chain_id", "CHAIN_ID"}, 0)
	st.Distributor = get([]string{"distributor_address", "DISTRIBUTOR_ADDRESS"}, "")
	st.SignerKeyHex = get([]string{"signer_private_key", "SIGNER_PRIVATE_KEY"}, "")
	st.NetworksFile = get([]string{"networks_file", "NETWORKS_FILE"}, "")
	st.Token = get([]string{"token", "TOKEN"}, "")
	st.Ledger = get([]string{"ledger", "LEDGER"}, DefaultLedger)
	st.BatchTimeout = getMillis([]string{"batch_timeout_ms", "BATCH_TIMEOUT_MS"}, 120*time.Second)
	st.RPCDelay = getMillis([]string{"rpc_delay_ms", "RPC_DELAY_MS"}, 0)
	st.RPCMaxConcurrent = getInt([]string{"rpc_max_concurrency", "RPC_MAX_CONCURRENCY"}, 16)
	st.NativeBatchSize = getInt([]string{"native_batch_size", "NATIVE_BATCH_SIZE"}, 50)
	st.TokenBatchSize = getInt([]string{"token_batch_size", "TOKEN_BATCH_SIZE"}, 30)
	st.GasBufferPct = getInt([]string{"gas_buffer_pct", "GAS_BUFFER_PCT"}, 10)
	st.MetricsAddr = get([]string{"metrics_addr", "METRICS_ADDR"}, "")
	st.LogLevel = get([]string{"log_level", "LOG_LEVEL"}, "")
	st.LogFormat = get([]string{"log_format", "LOG_FORMAT"}, "")
	st.ReceiptDir = get([]string{"receipt_dir", "RECEIPT_DIR"}, "receipts")
	st.SessionPoll = getMillis([]string{"session_poll_ms", "SESSION_POLL_MS"}, 5*time.Second)
	return st
}

// Validate checks what every subcommand that talks to a node needs.
func (s Settings) Validate() error {
	var errs []error
	if s.RPCURL == "" {
		errs = append(errs, errors.New("RPC_URL is required"))
	}
	if s.BatchTimeout <= 0 {
		errs = append(errs, errors.New("BATCH_TIMEOUT_MS must be positive"))
	}
	if s.NativeBatchSize <= 0 || s.TokenBatchSize <= 0 {
		errs = append(errs, errors.New("batch sizes must be positive"))
	}
	if s.RPCMaxConcurrent <= 0 {
		errs = append(errs, errors.New("RPC_MAX_CONCURRENCY must be positive"))
	}
	return errors.Join(errs...)
}

// PersistentLedger reports whether the ledger outlives the process.
func (s Settings) PersistentLedger() bool {
	return s.Ledger != "" && s.Ledger != "memory"
}

// RequirePersistentLedger fails with ErrVolatileLedger for what when the
// ledger lives in memory.
func (s Settings) RequirePersistentLedger(what string) error {
	if s.PersistentLedger() {
		return nil
	}
	return fmt.Errorf("%s: %w", what, ErrVolatileLedger)
}
