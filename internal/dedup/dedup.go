// Package dedup collapses validated records to one canonical row per
// (customer, transaction) key and derives per-customer summaries.
package dedup

import (
	"fmt"
	"sort"

	"github.com/svkcodes/snoop-etl-pipeline-public/internal/model"
)

type recordKey struct {
	customerID    string
	transactionID string
}

// Deduplicate keeps exactly one record per (customerId, transactionId):
// the one with the most recent transactionDate, ties broken by retaining
// the last record encountered in ascending-date stable sort order. The
// result is deterministic for a fixed input order.
//
// Every input record must carry a parsed transactionDate; the validator
// guarantees that. A nil date here is a programming error and panics.
func Deduplicate(records []model.Record) []model.Record {
	sorted := make([]model.Record, len(records))
	copy(sorted, records)

	for i := range sorted {
		if sorted[i].TransactionDate == nil {
			panic(fmt.Sprintf("dedup: record %s/%s has no parsed transactionDate; validation must run first",
				sorted[i].CustomerID, sorted[i].TransactionID))
		}
	}

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].TransactionDate.Before(*sorted[j].TransactionDate)
	})

	last := make(map[recordKey]int, len(sorted))
	for i := range sorted {
		last[recordKey{sorted[i].CustomerID, sorted[i].TransactionID}] = i
	}

	canonical := make([]model.Record, 0, len(last))
	for i := range sorted {
		if last[recordKey{sorted[i].CustomerID, sorted[i].TransactionID}] == i {
			canonical = append(canonical, sorted[i])
		}
	}
	return canonical
}

// Summarize groups canonical records by customer and takes the maximum
// transactionDate per customer. Output is sorted by customerId so runs are
// reproducible.
func Summarize(canonical []model.Record) []model.CustomerSummary {
	latest := make(map[string]int, len(canonical))
	summaries := make([]model.CustomerSummary, 0, len(latest))

	for i := range canonical {
		rec := &canonical[i]
		idx, ok := latest[rec.CustomerID]
		if !ok {
			latest[rec.CustomerID] = len(summaries)
			summaries = append(summaries, model.CustomerSummary{
				CustomerID:            rec.CustomerID,
				LatestTransactionDate: *rec.TransactionDate,
			})
			continue
		}
		if rec.TransactionDate.After(summaries[idx].LatestTransactionDate) {
			summaries[idx].LatestTransactionDate = *rec.TransactionDate
		}
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].CustomerID < summaries[j].CustomerID
	})
	return summaries
}
