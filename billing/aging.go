/*
aging.go - Receivables aging buckets

PURPOSE:
  Groups every company's unpaid billable balance by invoice age:
  0-30, 31-60, 61-90, and 90+ days. Only invoices passing the billable
  whitelist with a positive unpaid balance count; companies whose
  aggregate balance is within a cent of zero are suppressed. A synthetic
  TOTALS row sums every bucket across all companies.

  Balance here is invoice total minus ACTUAL summed payments — the
  legacy paid flag is deliberately ignored (see integrity.go for where
  the two disagree).
*/
package billing

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// Aging bucket boundaries in days.
const (
	BucketCurrent = "0-30"
	Bucket31to60  = "31-60"
	Bucket61to90  = "61-90"
	BucketOver90  = "90+"
)

// TotalsLabel marks the synthetic summary row appended to a report.
const TotalsLabel = "TOTALS"

// AgingLine is one company's bucketed unpaid balance.
type AgingLine struct {
	CompanyLabel string
	Current      Money // 0-30 days
	Days31to60   Money
	Days61to90   Money
	Over90       Money
	Total        Money
}

// AgingBucketer computes the receivables aging report.
type AgingBucketer struct {
	Store      Store
	Classifier *StatusClassifier
	Today      func() time.Time
}

func NewAgingBucketer(store Store, classifier *StatusClassifier) *AgingBucketer {
	return &AgingBucketer{Store: store, Classifier: classifier, Today: time.Now}
}

// Compute returns one line per company with outstanding balance, ordered
// by descending total, followed by the TOTALS line.
func (b *AgingBucketer) Compute(ctx context.Context) ([]AgingLine, error) {
	directory := NewCompanyDirectory(b.Store)
	groups, err := directory.Groups(ctx)
	if err != nil {
		return nil, err
	}

	today := b.Today()
	var lines []AgingLine
	totals := AgingLine{CompanyLabel: TotalsLabel}

	for _, g := range groups {
		line, err := b.companyLine(ctx, g, today)
		if err != nil {
			return nil, err
		}
		if line == nil || line.Total.NearZero() {
			continue // suppress settled companies
		}
		lines = append(lines, *line)

		totals.Current = totals.Current.Add(line.Current)
		totals.Days31to60 = totals.Days31to60.Add(line.Days31to60)
		totals.Days61to90 = totals.Days61to90.Add(line.Days61to90)
		totals.Over90 = totals.Over90.Add(line.Over90)
		totals.Total = totals.Total.Add(line.Total)
	}

	sort.SliceStable(lines, func(i, j int) bool {
		return lines[i].Total.GreaterThan(lines[j].Total)
	})
	lines = append(lines, totals)
	return lines, nil
}

func (b *AgingBucketer) companyLine(ctx context.Context, g CompanyGroup, today time.Time) (*AgingLine, error) {
	invoices, err := b.Store.InvoicesByCustomers(ctx, g.CustomerIDs)
	if err != nil {
		return nil, fmt.Errorf("aging invoices for %q: %w", g.Label, err)
	}

	classifier := b.Classifier.ForCompany(g.Label)
	var open []Invoice
	var nums []InvoiceNumber
	for _, inv := range invoices {
		if classifier.Classify(inv.Status) != StatusBillable {
			continue // whitelist only: in-production and dead orders never age
		}
		open = append(open, inv)
		nums = append(nums, inv.Number)
	}
	if len(open) == 0 {
		return nil, nil
	}

	paidBy, err := sumPaymentsByInvoice(ctx, b.Store, nums)
	if err != nil {
		return nil, fmt.Errorf("aging payments for %q: %w", g.Label, err)
	}

	line := AgingLine{CompanyLabel: g.Label}
	for _, inv := range open {
		balance := inv.Total.Sub(paidBy[inv.Number])
		if !balance.IsPositive() {
			continue // fully paid or overpaid
		}

		d, ok := ParseDate(inv.RawDate)
		if !ok {
			continue // undatable invoices cannot be aged; fail closed
		}

		switch days := DaysSince(d, today); {
		case days <= 30:
			line.Current = line.Current.Add(balance)
		case days <= 60:
			line.Days31to60 = line.Days31to60.Add(balance)
		case days <= 90:
			line.Days61to90 = line.Days61to90.Add(balance)
		default:
			line.Over90 = line.Over90.Add(balance)
		}
		line.Total = line.Total.Add(balance)
	}
	return &line, nil
}

// sumPaymentsByInvoice sums stored payment amounts per invoice. Shared by
// the aging and integrity reports, which both compare against actual
// payments rather than the legacy paid flag.
func sumPaymentsByInvoice(ctx context.Context, store PaymentStore, nums []InvoiceNumber) (map[InvoiceNumber]Money, error) {
	payments, err := store.PaymentsByInvoices(ctx, nums)
	if err != nil {
		return nil, err
	}
	sums := make(map[InvoiceNumber]Money, len(nums))
	for _, p := range payments {
		sums[p.InvoiceNumber] = sums[p.InvoiceNumber].Add(p.Amount)
	}
	return sums, nil
}
