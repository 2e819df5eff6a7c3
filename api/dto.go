/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

MONEY:
  Amounts are serialized as fixed two-decimal strings ("148.50"), never
  JSON numbers. The desk frontend renders them verbatim; parsing floats
  out of money is how cents get lost.

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - billing/statement.go: The domain rows these mirror
*/
package api

import (
	"github.com/cssswagchs/billing-engine/billing"
)

// =============================================================================
// STATEMENT VIEW TYPES
// =============================================================================

// RowDTO is one statement ledger line.
type RowDTO struct {
	Date          string `json:"date,omitempty"` // YYYY-MM-DD; empty when unparseable
	Kind          string `json:"kind"`           // "Invoice" or "Payment"
	InvoiceNumber string `json:"invoice_number"`
	Amount        string `json:"amount"`

	PaidFlag string `json:"paid_flag,omitempty"`
	PONumber string `json:"po_number,omitempty"`
	Nickname string `json:"nickname,omitempty"`

	Method     string `json:"method,omitempty"`
	Reference  string `json:"reference,omitempty"`
	Note       string `json:"note,omitempty"`
	Reconciled bool   `json:"reconciled,omitempty"`
}

// TotalsDTO carries the derived totals for a row set.
type TotalsDTO struct {
	Billed  string `json:"billed"`
	Paid    string `json:"paid"`
	Balance string `json:"balance"`
}

// StatementViewResponse is the result of a statement fetch or reprint.
type StatementViewResponse struct {
	Header *StatementHeaderDTO `json:"header,omitempty"`
	Rows   []RowDTO            `json:"rows"`
	Totals TotalsDTO           `json:"totals"`
}

// StatementHeaderDTO is a stored statement header.
type StatementHeaderDTO struct {
	Number       string `json:"number"`
	CustomerIDs  string `json:"customer_ids"`
	GeneratedOn  string `json:"generated_on"`
	StartDate    string `json:"start_date,omitempty"`
	EndDate      string `json:"end_date,omitempty"`
	CompanyLabel string `json:"company_label,omitempty"`
	Status       string `json:"status"`
	VoidedAt     string `json:"voided_at,omitempty"`
	Notes        string `json:"notes,omitempty"`
}

// =============================================================================
// STATEMENT LIFECYCLE TYPES
// =============================================================================

// CreateStatementRequest generates a statement and tags its invoices.
type CreateStatementRequest struct {
	CustomerIDs    []int64  `json:"customer_ids"`
	StartDate      string   `json:"start_date,omitempty"`
	EndDate        string   `json:"end_date,omitempty"`
	CompanyLabel   string   `json:"company_label,omitempty"`
	InvoiceNumbers []string `json:"invoice_numbers"`
}

// ConflictDTO reports one invoice that was already tagged elsewhere.
type ConflictDTO struct {
	InvoiceNumber     string `json:"invoice_number"`
	ExistingStatement string `json:"existing_statement"`
}

// CreateStatementResponse reports the allocation and tagging outcome.
// Tagging is partial on conflict: Tagged counts what succeeded.
type CreateStatementResponse struct {
	Number    string        `json:"number"`
	Tagged    int           `json:"tagged"`
	Retagged  int           `json:"retagged"`
	Conflicts []ConflictDTO `json:"conflicts,omitempty"`
}

// VoidStatementResponse reports what a void released.
type VoidStatementResponse struct {
	Number           string `json:"number"`
	ReleasedInvoices int64  `json:"released_invoices"`
}

// ResetStatementsRequest clears a company's statement assignments.
type ResetStatementsRequest struct {
	Company       string `json:"company"`
	Fuzzy         bool   `json:"fuzzy,omitempty"`
	DeleteHeaders bool   `json:"delete_headers,omitempty"`
}

// ResetStatementsResponse reports what a reset touched.
type ResetStatementsResponse struct {
	Company          string  `json:"company"`
	CustomerIDs      []int64 `json:"customer_ids"`
	ClearedTrackings int64   `json:"cleared_trackings"`
	DeletedHeaders   int64   `json:"deleted_headers"`
}

// =============================================================================
// REGISTER, AGING AND INTEGRITY TYPES
// =============================================================================

// StatementSummaryDTO is one register line with derived balances.
type StatementSummaryDTO struct {
	Number       string `json:"number"`
	GeneratedOn  string `json:"generated_on"`
	StartDate    string `json:"start_date,omitempty"`
	EndDate      string `json:"end_date,omitempty"`
	CompanyLabel string `json:"company_label,omitempty"`
	Status       string `json:"status"`
	InvoiceCount int    `json:"invoice_count"`
	Billed       string `json:"billed"`
	Paid         string `json:"paid"`
	Balance      string `json:"balance"`
	Settlement   string `json:"settlement"`
}

// AgingLineDTO is one company's bucketed unpaid balance.
type AgingLineDTO struct {
	CompanyLabel string `json:"company_label"`
	Current      string `json:"current"` // 0-30 days
	Days31to60   string `json:"days_31_60"`
	Days61to90   string `json:"days_61_90"`
	Over90       string `json:"over_90"`
	Total        string `json:"total"`
}

// IntegrityLineDTO is one invoice's flag-versus-payments audit result.
type IntegrityLineDTO struct {
	InvoiceNumber string `json:"invoice_number"`
	InvoiceTotal  string `json:"invoice_total"`
	PaidFlag      string `json:"paid_flag,omitempty"`
	ActualPaid    string `json:"actual_paid"`
	Difference    string `json:"difference"`
	Status        string `json:"status"`
}

// =============================================================================
// DIRECTORY AND NOTE TYPES
// =============================================================================

// CompanyDTO is one directory group.
type CompanyDTO struct {
	Label       string  `json:"label"`
	CustomerIDs []int64 `json:"customer_ids"`
}

// InvoiceNoteDTO carries an invoice's free-text note.
type InvoiceNoteDTO struct {
	InvoiceNumber string `json:"invoice_number"`
	Note          string `json:"note"`
}

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toRowDTO(r billing.Row) RowDTO {
	dto := RowDTO{
		Kind:          string(r.Kind),
		InvoiceNumber: string(r.InvoiceNumber),
		Amount:        r.Amount.String(),
		PaidFlag:      r.PaidFlag,
		PONumber:      r.PONumber,
		Nickname:      r.Nickname,
		Method:        r.Method,
		Reference:     r.Reference,
		Note:          r.Note,
		Reconciled:    r.Reconciled,
	}
	if r.Date != nil {
		dto.Date = r.Date.Format("2006-01-02")
	}
	return dto
}

func toRowDTOs(rows []billing.Row) []RowDTO {
	dtos := make([]RowDTO, len(rows))
	for i, r := range rows {
		dtos[i] = toRowDTO(r)
	}
	return dtos
}

func toTotalsDTO(t billing.Totals) TotalsDTO {
	return TotalsDTO{
		Billed:  t.Billed.String(),
		Paid:    t.Paid.String(),
		Balance: t.Balance.String(),
	}
}

func toHeaderDTO(h *billing.StatementHeader) *StatementHeaderDTO {
	if h == nil {
		return nil
	}
	ids := h.CustomerIDsText
	if ids == "" {
		ids = billing.JoinCustomerIDs([]billing.CustomerID{h.CustomerID})
	}
	return &StatementHeaderDTO{
		Number:       string(h.Number),
		CustomerIDs:  ids,
		GeneratedOn:  h.GeneratedOn,
		StartDate:    h.StartDate,
		EndDate:      h.EndDate,
		CompanyLabel: h.CompanyLabel,
		Status:       h.Status,
		VoidedAt:     h.VoidedAt,
		Notes:        h.Notes,
	}
}

func toSummaryDTO(s billing.StatementSummary) StatementSummaryDTO {
	return StatementSummaryDTO{
		Number:       string(s.Number),
		GeneratedOn:  s.GeneratedOn,
		StartDate:    s.StartDate,
		EndDate:      s.EndDate,
		CompanyLabel: s.CompanyLabel,
		Status:       s.Status,
		InvoiceCount: s.InvoiceCount,
		Billed:       s.Billed.String(),
		Paid:         s.Paid.String(),
		Balance:      s.Balance.String(),
		Settlement:   s.Settlement,
	}
}

func toAgingDTO(l billing.AgingLine) AgingLineDTO {
	return AgingLineDTO{
		CompanyLabel: l.CompanyLabel,
		Current:      l.Current.String(),
		Days31to60:   l.Days31to60.String(),
		Days61to90:   l.Days61to90.String(),
		Over90:       l.Over90.String(),
		Total:        l.Total.String(),
	}
}

func toIntegrityDTO(l billing.IntegrityLine) IntegrityLineDTO {
	return IntegrityLineDTO{
		InvoiceNumber: string(l.InvoiceNumber),
		InvoiceTotal:  l.InvoiceTotal.String(),
		PaidFlag:      l.PaidFlag,
		ActualPaid:    l.ActualPaid.String(),
		Difference:    l.Difference.String(),
		Status:        string(l.Status),
	}
}

func customerIDs(ids []int64) []billing.CustomerID {
	out := make([]billing.CustomerID, len(ids))
	for i, id := range ids {
		out[i] = billing.CustomerID(id)
	}
	return out
}

func rawIDs(ids []billing.CustomerID) []int64 {
	out := make([]int64, len(ids))
	for i, id := range ids {
		out[i] = int64(id)
	}
	return out
}

func invoiceNumbers(nums []string) []billing.InvoiceNumber {
	out := make([]billing.InvoiceNumber, len(nums))
	for i, n := range nums {
		out[i] = billing.InvoiceNumber(n)
	}
	return out
}
