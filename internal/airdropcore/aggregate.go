package airdropcore

import (
	"sort"
	"time"
)

// Aggregate merges per-batch outcomes into one report. Recipients are listed
// in batch order; Total counts the original list.
func Aggregate(outcomes []BatchOutcome, batches []Batch, original []Recipient, now time.Time) DistributionReport {
	rep := DistributionReport{
		Total:        len(original),
		Successful:   []SettledRecipient{},
		Failed:       []SettledRecipient{},
		Unknown:      []SettledRecipient{},
		Skipped:      []SettledRecipient{},
		Transactions: make([]BatchOutcome, len(outcomes)),
		Timestamp:    now.UTC(),
	}
	copy(rep.Transactions, outcomes)
	sort.SliceStable(rep.Transactions, func(i, j int) bool {
		return rep.Transactions[i].BatchIndex < rep.Transactions[j].BatchIndex
	})

	byIndex := make(map[int]Batch, len(batches))
	for _, b := range batches {
		byIndex[b.Index] = b
	}
	for _, o := range rep.Transactions {
		b, ok := byIndex[o.BatchIndex]
		if !ok {
			continue
		}
		for _, r := range b.Recipients {
			sr := SettledRecipient{Recipient: r, TxHash: o.TransactionHash, BatchIndex: o.BatchIndex, Error: o.Error}
			switch o.Status {
			case StatusSuccess:
				rep.Successful = append(rep.Successful, sr)
			case StatusFailed:
				rep.Failed = append(rep.Failed, sr)
			case StatusUnknown:
				rep.Unknown = append(rep.Unknown, sr)
			case StatusSkipped:
				rep.Skipped = append(rep.Skipped, sr)
			}
		}
	}
	return rep
}

// carry folds recipients settled or held by an earlier attempt of the same
// run into the report.
func (r *DistributionReport) carry(paid, held []SettledRecipient) {
	for _, p := range paid {
		p.Carried = true
		r.Successful = append(r.Successful, p)
	}
	for _, h := range held {
		h.Carried = true
		r.Unknown = append(r.Unknown, h)
	}
	r.Total += len(paid) + len(held)
}
