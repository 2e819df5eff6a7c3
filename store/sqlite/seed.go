/*
seed.go - Write helpers for the importer-owned tables

PURPOSE:
  The engine never writes customers, invoices, payments or
  payment_tracking in normal operation; the import/sync collaborators
  own those tables. These upserts exist for the sync runner, the CLI
  seed path, and tests that need a populated database.
*/
package sqlite

import (
	"context"

	"github.com/cssswagchs/billing-engine/billing"
)

// SaveCustomer upserts a customer master row.
func (s *Store) SaveCustomer(ctx context.Context, c billing.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO customers (id, first_name, last_name, company)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			company = excluded.company`,
		int64(c.ID), c.FirstName, c.LastName, c.Company,
	)
	return mapErr("save customer", err)
}

// SaveInvoice upserts a raw invoice row. The date and paid flag are stored
// exactly as given, heterogeneous formats included.
func (s *Store) SaveInvoice(ctx context.Context, inv billing.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO invoices (invoice_number, customer_id, invoice_date, total, paid, status, po_number, nickname)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(invoice_number) DO UPDATE SET
			customer_id = excluded.customer_id,
			invoice_date = excluded.invoice_date,
			total = excluded.total,
			paid = excluded.paid,
			status = excluded.status,
			po_number = excluded.po_number,
			nickname = excluded.nickname`,
		string(inv.Number), int64(inv.CustomerID), inv.RawDate,
		inv.Total.Value.String(), inv.PaidFlag, inv.Status, inv.PONumber, inv.Nickname,
	)
	return mapErr("save invoice", err)
}

// SavePayment inserts a raw payment row.
func (s *Store) SavePayment(ctx context.Context, p billing.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO payments (payment_date, amount, invoice_number, method, reference, customer_id)
		VALUES (?, ?, ?, ?, ?, ?)`,
		p.RawDate, p.Amount.Value.String(), string(p.InvoiceNumber),
		p.Method, p.Reference, int64(p.CustomerID),
	)
	return mapErr("save payment", err)
}

// SavePaymentTracking upserts reconciliation metadata. Last write wins.
func (s *Store) SavePaymentTracking(ctx context.Context, e billing.PaymentTrackingEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO payment_tracking (invoice_number, reconciled, notes)
		VALUES (?, ?, ?)
		ON CONFLICT(invoice_number) DO UPDATE SET
			reconciled = excluded.reconciled,
			notes = excluded.notes`,
		string(e.InvoiceNumber), e.Reconciled, e.Notes,
	)
	return mapErr("save payment tracking", err)
}
