// Package receipt writes the outcome of a distribution run: a JSON report,
// a per-recipient CSV and a plain text summary for the terminal.
package receipt

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ligun0805/airdrop-engine/internal/airdropcore"
)

// CSVHeader is the column layout of the per-recipient receipt.
var CSVHeader = []string{"status", "wallet_address", "amount", "token_type", "tx_hash", "batch_index", "error", "explorer_url"}

// Paths lists the files Write produced.
type Paths struct {
	JSON string
	CSV  string
}

// Write stores the JSON and CSV receipts of rep under dir, named after the
// run id.
func Write(dir string, rep airdropcore.DistributionReport) (Paths, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Paths{}, fmt.Errorf("receipt dir: %w", err)
	}
	base := "airdrop_" + safeName(rep.RunID)
	p := Paths{
		JSON: filepath.Join(dir, base+".json"),
		CSV:  filepath.Join(dir, base+".csv"),
	}
	if err := writeFile(p.JSON, func(w io.Writer) error { return WriteJSON(w, rep) }); err != nil {
		return Paths{}, err
	}
	if err := writeFile(p.CSV, func(w io.Writer) error { return WriteCSV(w, rep) }); err != nil {
		return Paths{}, err
	}
	return p, nil
}

func writeFile(path string, fn func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := fn(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

func safeName(runID string) string {
	if runID == "" {
		return "run"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, runID)
}

// WriteJSON writes rep as indented JSON.
func WriteJSON(w io.Writer, rep airdropcore.DistributionReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}

// WriteCSV writes one row per recipient, grouped by outcome in the order
// successful, failed, unknown, skipped.
func WriteCSV(w io.Writer, rep airdropcore.DistributionReport) error {
	links := explorerLinks(rep)
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	groups := []struct {
		status airdropcore.BatchStatus
		list   []airdropcore.SettledRecipient
	}{
		{airdropcore.StatusSuccess, rep.Successful},
		{airdropcore.StatusFailed, rep.Failed},
		{airdropcore.StatusUnknown, rep.Unknown},
		{airdropcore.StatusSkipped, rep.Skipped},
	}
	for _, g := range groups {
		for _, r := range g.list {
			row := []string{
				string(g.status),
				r.Address.Hex(),
				r.Amount,
				string(r.TokenType),
				r.TxHash,
				strconv.Itoa(r.BatchIndex),
				r.Error,
				links[r.TxHash],
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

func explorerLinks(rep airdropcore.DistributionReport) map[string]string {
	out := map[string]string{}
	for _, t := range rep.Transactions {
		if t.TransactionHash != "" && t.ExplorerURL != "" {
			out[t.TransactionHash] = t.ExplorerURL
		}
	}
	return out
}

// Summary prints a human readable digest of rep.
func Summary(w io.Writer, rep airdropcore.DistributionReport) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Run        : %s\n", rep.RunID)
	fmt.Fprintf(&b, "Time       : %s\n", rep.Timestamp.UTC().Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&b, "Recipients : %d\n", rep.Total)
	fmt.Fprintf(&b, "Successful : %d\n", len(rep.Successful))
	fmt.Fprintf(&b, "Failed     : %d\n", len(rep.Failed))
	if n := len(rep.Unknown); n > 0 {
		fmt.Fprintf(&b, "Unknown    : %d (reconcile before retrying)\n", n)
	}
	if n := len(rep.Skipped); n > 0 {
		fmt.Fprintf(&b, "Skipped    : %d\n", n)
	}
	switch {
	case rep.Fee.Exempt:
		b.WriteString("Fee        : exempt\n")
	case rep.Fee.Amount != nil:
		fmt.Fprintf(&b, "Fee        : %s per transaction\n", rep.Fee.Formatted)
	}
	if rep.Cancelled {
		b.WriteString("Status     : cancelled\n")
	}
	if rep.Aborted != "" {
		fmt.Fprintf(&b, "Aborted    : %s\n", rep.Aborted)
	}
	if len(rep.Transactions) > 0 {
		b.WriteString("\nBatches:\n")
	}
	for _, t := range rep.Transactions {
		fmt.Fprintf(&b, "  #%d %-7s %-10s %3d recipients", t.BatchIndex+1, t.Status, t.Asset, t.Recipients)
		switch {
		case t.ExplorerURL != "":
			fmt.Fprintf(&b, "  %s", t.ExplorerURL)
		case t.TransactionHash != "":
			fmt.Fprintf(&b, "  %s", t.TransactionHash)
		}
		if t.Error != "" {
			fmt.Fprintf(&b, "  (%s)", t.Error)
		}
		b.WriteByte('\n')
	}
	_, err := io.WriteString(w, b.String())
	return err
}
