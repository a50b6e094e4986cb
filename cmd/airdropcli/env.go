package main

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ligun0805/airdrop-engine/internal/airdropcore"
	"github.com/ligun0805/airdrop-engine/internal/config"
	"github.com/ligun0805/airdrop-engine/internal/networks"
)

func printConfig(cfg config.Settings, n networks.Network, signer common.Address, balance *big.Int) {
	fmt.Println("=== CONFIG (.env) ===")
	fmt.Println("RPC_URL            :", cfg.RPCURL)
	fmt.Println("NETWORK            :", fmt.Sprintf("%s (%d)", n.Name, n.ChainID))
	fmt.Println("DISTRIBUTOR        :", n.Distributor)
	fmt.Println("SIGNER_PRIVATE_KEY :", maskHex(cfg.SignerKeyHex))
	fmt.Println("  -> Signer        :", signer.Hex())
	fmt.Println("  -> Balance       :", airdropcore.FormatUnits(balance, n.Decimals), n.Symbol)
	fmt.Println("LEDGER             :", redactDSN(cfg.Ledger))
	fmt.Println("Batch sizes        :", fmt.Sprintf("native %d / token %d", cfg.NativeBatchSize, cfg.TokenBatchSize))
	fmt.Println("Batch timeout      :", cfg.BatchTimeout)
	fmt.Println("=====================")
}

func printPlan(n networks.Network, plan *airdropcore.RunPlan) {
	fmt.Println("=== PLAN ===")
	fmt.Println("Run id     :", plan.RunID)
	fmt.Println("Recipients :", len(plan.Recipients))
	if len(plan.Paid) > 0 {
		fmt.Println("Already paid by this run :", len(plan.Paid))
	}
	if len(plan.Held) > 0 {
		fmt.Println("Held (reconcile first)   :", len(plan.Held))
	}
	for _, b := range plan.Batches {
		fmt.Printf("  batch #%d  %-8s %3d recipients\n", b.Index+1, b.Asset, b.Len())
	}
	switch {
	case plan.Fee.Exempt:
		fmt.Println("Fee        : exempt")
	default:
		fmt.Println("Fee        :", plan.Fee.Formatted, n.Symbol, "per transaction")
	}
	fmt.Println("Native out :", airdropcore.FormatUnits(plan.NativeValue, n.Decimals), n.Symbol, "(fees included)")
	assets := map[common.Address]airdropcore.Asset{}
	for _, b := range plan.Batches {
		if !b.Asset.Native {
			assets[b.Asset.Token] = b.Asset
		}
	}
	for token, total := range plan.TokenTotals {
		a := assets[token]
		fmt.Println("Token out  :", airdropcore.FormatUnits(total, a.Decimals), a)
	}
	fmt.Println("============")
}
