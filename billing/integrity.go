/*
integrity.go - Payment flag integrity checking

PURPOSE:
  The invoices table carries a legacy free-text "paid" flag written by
  imports and manual edits. The payments table is what actually happened.
  The checker audits one against the other, per invoice:

    PaidFlagNoMoney  flag reads paid but zero payments recorded (data error)
    FullyPaid        difference within a cent of zero
    Overpaid         payments exceed the invoice total
    Partial          some payment, balance remaining
    Unpaid           no payment, balance remaining

  Read-only: the checker never mutates data. Fixing a drifted flag is a
  human decision.
*/
package billing

import (
	"context"
	"fmt"
)

// IntegrityStatus classifies one invoice's flag-versus-payments state.
type IntegrityStatus string

const (
	PaidFlagNoMoney IntegrityStatus = "paid_flag_no_money"
	FullyPaid       IntegrityStatus = "fully_paid"
	Overpaid        IntegrityStatus = "overpaid"
	Partial         IntegrityStatus = "partial"
	Unpaid          IntegrityStatus = "unpaid"
)

// IntegrityLine is the audit result for one invoice.
type IntegrityLine struct {
	InvoiceNumber InvoiceNumber
	InvoiceTotal  Money
	PaidFlag      string
	ActualPaid    Money
	Difference    Money // total - actual paid
	Status        IntegrityStatus
}

// IntegrityQuery scopes a check.
type IntegrityQuery struct {
	CustomerIDs  []CustomerID
	MismatchOnly bool // drop FullyPaid lines
	HideUnpaid   bool // drop truly-unpaid lines (no flag drift there)
}

// PaymentIntegrityChecker audits the paid flag against summed payments.
type PaymentIntegrityChecker struct {
	Store      Store
	Classifier *StatusClassifier
}

func NewPaymentIntegrityChecker(store Store, classifier *StatusClassifier) *PaymentIntegrityChecker {
	return &PaymentIntegrityChecker{Store: store, Classifier: classifier}
}

// Check audits every historically billable invoice in the customer scope.
func (c *PaymentIntegrityChecker) Check(ctx context.Context, q IntegrityQuery) ([]IntegrityLine, error) {
	if len(q.CustomerIDs) == 0 {
		return nil, ErrNoCustomerScope
	}

	invoices, err := c.Store.InvoicesByCustomers(ctx, q.CustomerIDs)
	if err != nil {
		return nil, fmt.Errorf("integrity invoices: %w", err)
	}

	var scoped []Invoice
	var nums []InvoiceNumber
	for _, inv := range invoices {
		if inv.Total.IsZero() {
			continue
		}
		if !c.Classifier.Include(inv.Status, PolicyHistorical) {
			continue
		}
		scoped = append(scoped, inv)
		nums = append(nums, inv.Number)
	}
	if len(scoped) == 0 {
		return nil, nil
	}

	paidBy, err := sumPaymentsByInvoice(ctx, c.Store, nums)
	if err != nil {
		return nil, fmt.Errorf("integrity payments: %w", err)
	}

	var lines []IntegrityLine
	for _, inv := range scoped {
		actual := paidBy[inv.Number]
		line := IntegrityLine{
			InvoiceNumber: inv.Number,
			InvoiceTotal:  inv.Total,
			PaidFlag:      inv.PaidFlag,
			ActualPaid:    actual,
			Difference:    inv.Total.Sub(actual),
		}
		line.Status = classifyIntegrity(inv.PaidFlag, inv.Total, actual)

		if q.MismatchOnly && line.Status == FullyPaid {
			continue
		}
		if q.HideUnpaid && line.Status == Unpaid {
			continue
		}
		lines = append(lines, line)
	}
	return lines, nil
}

func classifyIntegrity(flag string, total, actual Money) IntegrityStatus {
	diff := total.Sub(actual)
	switch {
	case PaidFlagTruthy(flag) && actual.IsZero():
		return PaidFlagNoMoney
	case diff.NearZero():
		return FullyPaid
	case diff.IsNegative():
		return Overpaid
	case actual.IsPositive():
		return Partial
	default:
		return Unpaid
	}
}
