package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "airdrop_batches_total",
			Help: "Total number of batches by asset class and final status",
		},
		[]string{"asset_class", "status"},
	)

	RecipientsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "airdrop_recipients_total",
			Help: "Total number of recipients by final status",
		},
		[]string{"status"},
	)

	BatchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "airdrop_batch_duration_seconds",
			Help:    "Time from submission to confirmation or timeout of a batch",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10), // 0.5s to ~256s
		},
		[]string{"asset_class"},
	)

	AllowanceRaises = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "airdrop_allowance_raises_total",
			Help: "Total number of token approvals sent before a batch",
		},
		[]string{"status"},
	)

	ResolverOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "airdrop_fee_resolver_total",
			Help: "Total number of fee resolutions by outcome",
		},
		[]string{"outcome"},
	)

	LedgerOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "airdrop_ledger_operations_total",
			Help: "Total number of ledger operations by backend, operation and status",
		},
		[]string{"backend", "op", "status"},
	)

	RPCRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "airdrop_rpc_retries_total",
			Help: "Total number of retried RPC read calls by error class",
		},
		[]string{"class"},
	)

	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "airdrop_runs_total",
			Help: "Total number of distribution runs by result",
		},
		[]string{"result"},
	)
)

// AssetClass is the label value for an asset.
func AssetClass(native bool) string {
	if native {
		return "native"
	}
	return "token"
}

// Status folds an error into an ok/error label.
func Status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
