/*
handlers.go - HTTP API handlers for the statement engine

PURPOSE:
  Exposes the billing engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Statements:
    GET    /api/statement                 Compute a statement view (no side effects)
    GET    /api/statements                Register of stored statements
    POST   /api/statements                Allocate a number and tag invoices
    GET    /api/statements/{number}       Reprint a stored statement
    POST   /api/statements/{number}/void  Void and release invoices

  Reports:
    GET    /api/aging                     Receivables aging by company
    GET    /api/integrity                 Paid-flag vs payments audit

  Invoices:
    GET    /api/invoices/{number}/note    Read the free-text note
    PUT    /api/invoices/{number}/note    Upsert the free-text note

  Companies:
    GET    /api/companies                 Directory of company groups

  Admin:
    POST   /api/admin/reset-statements    Clear a company's assignments
    POST   /api/admin/sync                Trigger a platform sync

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input, empty customer scope
  - 404: Unknown statement number or company
  - 409: Every requested invoice already tagged elsewhere
  - 503: Store busy/locked; the client should retry
  - 500: Internal errors

SECURITY NOTE:
  Currently NO authentication or authorization. The server binds to the
  shop's LAN; do not expose it further without adding auth.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/cssswagchs/billing-engine/billing"
	"github.com/cssswagchs/billing-engine/printsync"
	"github.com/cssswagchs/billing-engine/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store      *sqlite.Store
	Classifier *billing.StatusClassifier
	Log        zerolog.Logger

	Calculator *billing.StatementCalculator
	Allocator  *billing.StatementNumberAllocator
	Tracker    *billing.Tracker
	Lifecycle  *billing.StatementLifecycle
	Register   *billing.StatementRegister
	Aging      *billing.AgingBucketer
	Integrity  *billing.PaymentIntegrityChecker
	Directory  *billing.CompanyDirectory

	// Optional; nil disables POST /api/admin/sync.
	Sync *printsync.Runner
}

// NewHandler creates a handler wired to the given store.
func NewHandler(store *sqlite.Store, log zerolog.Logger) *Handler {
	classifier := billing.DefaultClassifier()
	return &Handler{
		Store:      store,
		Classifier: classifier,
		Log:        log,
		Calculator: billing.NewStatementCalculator(store, classifier),
		Allocator:  billing.NewStatementNumberAllocator(store),
		Tracker:    billing.NewTracker(store),
		Lifecycle:  billing.NewStatementLifecycle(store),
		Register:   billing.NewStatementRegister(store),
		Aging:      billing.NewAgingBucketer(store, classifier),
		Integrity:  billing.NewPaymentIntegrityChecker(store, classifier),
		Directory:  billing.NewCompanyDirectory(store),
	}
}

// =============================================================================
// STATEMENT VIEW
// =============================================================================

// GetStatement computes a statement view. Pure read; nothing is tagged.
// Without a customers parameter the view degrades to a date-driven
// reconciliation search across every customer, so a date range is
// required in its place.
// GET /api/statement?customers=12,14&start=2025-01-01&end=2025-03-31&unpaid_only=true
func (h *Handler) GetStatement(w http.ResponseWriter, r *http.Request) {
	ids, err := parseCustomerParam(r.URL.Query().Get("customers"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid customers parameter", err)
		return
	}

	q := billing.StatementQuery{
		CustomerIDs:      ids,
		UnpaidOnly:       boolParam(r, "unpaid_only"),
		UnreconciledOnly: boolParam(r, "unreconciled_only"),
	}
	q.StartDate = dateParam(r, "start")
	q.EndDate = dateParam(r, "end")

	if len(ids) == 0 && q.StartDate == nil && q.EndDate == nil {
		writeError(w, http.StatusBadRequest, "customers or a date range is required", nil)
		return
	}

	rows, totals, err := h.Calculator.Fetch(r.Context(), q)
	if err != nil {
		h.writeDomainError(w, "Failed to compute statement", err)
		return
	}

	writeJSON(w, http.StatusOK, StatementViewResponse{
		Rows:   toRowDTOs(rows),
		Totals: toTotalsDTO(totals),
	})
}

// =============================================================================
// STATEMENT LIFECYCLE
// =============================================================================

// CreateStatement allocates a statement number and tags the invoices.
// POST /api/statements
func (h *Handler) CreateStatement(w http.ResponseWriter, r *http.Request) {
	var req CreateStatementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if len(req.CustomerIDs) == 0 {
		writeError(w, http.StatusBadRequest, "customer_ids is required", nil)
		return
	}
	if len(req.InvoiceNumbers) == 0 {
		writeError(w, http.StatusBadRequest, "invoice_numbers is required", nil)
		return
	}

	number, err := h.Allocator.Generate(r.Context(), billing.GenerateRequest{
		CustomerIDs:  customerIDs(req.CustomerIDs),
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		CompanyLabel: req.CompanyLabel,
	})
	if err != nil {
		h.writeDomainError(w, "Failed to allocate statement number", err)
		return
	}

	result, err := h.Tracker.Track(r.Context(), invoiceNumbers(req.InvoiceNumbers), number)
	if err != nil {
		h.writeDomainError(w, "Failed to tag invoices", err)
		return
	}

	resp := CreateStatementResponse{
		Number:   string(number),
		Tagged:   len(result.Inserted),
		Retagged: len(result.Retagged),
	}
	for _, c := range result.Conflicts {
		resp.Conflicts = append(resp.Conflicts, ConflictDTO{
			InvoiceNumber:     string(c.InvoiceNumber),
			ExistingStatement: string(c.ExistingStmt),
		})
	}

	// Every invoice already belongs to another statement: nothing was
	// tagged, so the caller gets a conflict status with the details.
	status := http.StatusCreated
	if len(result.Inserted)+len(result.Retagged) == 0 && result.HasConflicts() {
		status = http.StatusConflict
	}

	h.Log.Info().
		Str("statement", string(number)).
		Int("tagged", len(result.Inserted)).
		Int("retagged", len(result.Retagged)).
		Int("conflicts", len(result.Conflicts)).
		Msg("statement created")

	writeJSON(w, status, resp)
}

// GetStoredStatement reprints a statement from its tagged invoices.
// GET /api/statements/{number}
func (h *Handler) GetStoredStatement(w http.ResponseWriter, r *http.Request) {
	number := billing.StatementNumber(chi.URLParam(r, "number"))

	header, rows, totals, err := h.Register.FetchStatement(r.Context(), number)
	if err != nil {
		h.writeDomainError(w, "Failed to fetch statement", err)
		return
	}

	writeJSON(w, http.StatusOK, StatementViewResponse{
		Header: toHeaderDTO(header),
		Rows:   toRowDTOs(rows),
		Totals: toTotalsDTO(totals),
	})
}

// ListStatements returns the register for a customer scope, newest first.
// GET /api/statements?customers=12,14
func (h *Handler) ListStatements(w http.ResponseWriter, r *http.Request) {
	ids, err := parseCustomerParam(r.URL.Query().Get("customers"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid customers parameter", err)
		return
	}
	if len(ids) == 0 {
		writeError(w, http.StatusBadRequest, "customers parameter is required", nil)
		return
	}

	summaries, err := h.Register.Summaries(r.Context(), ids)
	if err != nil {
		h.writeDomainError(w, "Failed to list statements", err)
		return
	}

	dtos := make([]StatementSummaryDTO, len(summaries))
	for i, s := range summaries {
		dtos[i] = toSummaryDTO(s)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// VoidStatement marks a statement VOID and releases its invoices.
// POST /api/statements/{number}/void
func (h *Handler) VoidStatement(w http.ResponseWriter, r *http.Request) {
	number := billing.StatementNumber(chi.URLParam(r, "number"))

	outcome, err := h.Lifecycle.Void(r.Context(), number)
	if err != nil {
		h.writeDomainError(w, "Failed to void statement", err)
		return
	}

	h.Log.Info().
		Str("statement", string(number)).
		Int64("released", outcome.ReleasedInvoices).
		Msg("statement voided")

	writeJSON(w, http.StatusOK, VoidStatementResponse{
		Number:           string(outcome.Statement),
		ReleasedInvoices: outcome.ReleasedInvoices,
	})
}

// ResetStatements clears a company's statement assignments.
// POST /api/admin/reset-statements
func (h *Handler) ResetStatements(w http.ResponseWriter, r *http.Request) {
	var req ResetStatementsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if strings.TrimSpace(req.Company) == "" {
		writeError(w, http.StatusBadRequest, "company is required", nil)
		return
	}

	outcome, err := h.Lifecycle.ResetStatementsForCompany(r.Context(), req.Company, req.Fuzzy, req.DeleteHeaders)
	if err != nil {
		h.writeDomainError(w, "Failed to reset statements", err)
		return
	}

	h.Log.Info().
		Str("company", outcome.Company).
		Int64("cleared", outcome.ClearedTrackings).
		Int64("deleted_headers", outcome.DeletedHeaders).
		Msg("company statements reset")

	writeJSON(w, http.StatusOK, ResetStatementsResponse{
		Company:          outcome.Company,
		CustomerIDs:      rawIDs(outcome.CustomerIDs),
		ClearedTrackings: outcome.ClearedTrackings,
		DeletedHeaders:   outcome.DeletedHeaders,
	})
}

// =============================================================================
// REPORTS
// =============================================================================

// GetAging returns the receivables aging report.
// GET /api/aging
func (h *Handler) GetAging(w http.ResponseWriter, r *http.Request) {
	lines, err := h.Aging.Compute(r.Context())
	if err != nil {
		h.writeDomainError(w, "Failed to compute aging report", err)
		return
	}

	dtos := make([]AgingLineDTO, len(lines))
	for i, l := range lines {
		dtos[i] = toAgingDTO(l)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetIntegrity audits paid flags against actual payments.
// GET /api/integrity?customers=12,14&mismatch_only=true&hide_unpaid=true
func (h *Handler) GetIntegrity(w http.ResponseWriter, r *http.Request) {
	ids, err := parseCustomerParam(r.URL.Query().Get("customers"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid customers parameter", err)
		return
	}
	if len(ids) == 0 {
		writeError(w, http.StatusBadRequest, "customers parameter is required", nil)
		return
	}

	lines, err := h.Integrity.Check(r.Context(), billing.IntegrityQuery{
		CustomerIDs:  ids,
		MismatchOnly: boolParam(r, "mismatch_only"),
		HideUnpaid:   boolParam(r, "hide_unpaid"),
	})
	if err != nil {
		h.writeDomainError(w, "Failed to run integrity check", err)
		return
	}

	dtos := make([]IntegrityLineDTO, len(lines))
	for i, l := range lines {
		dtos[i] = toIntegrityDTO(l)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// COMPANIES AND INVOICE NOTES
// =============================================================================

// ListCompanies returns the company directory.
// GET /api/companies
func (h *Handler) ListCompanies(w http.ResponseWriter, r *http.Request) {
	groups, err := h.Directory.Groups(r.Context())
	if err != nil {
		h.writeDomainError(w, "Failed to list companies", err)
		return
	}

	dtos := make([]CompanyDTO, len(groups))
	for i, g := range groups {
		dtos[i] = CompanyDTO{Label: g.Label, CustomerIDs: rawIDs(g.CustomerIDs)}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetInvoiceNote reads an invoice's free-text note.
// GET /api/invoices/{number}/note
func (h *Handler) GetInvoiceNote(w http.ResponseWriter, r *http.Request) {
	number := billing.InvoiceNumber(chi.URLParam(r, "number"))

	note, err := h.Store.InvoiceNote(r.Context(), number)
	if err != nil {
		h.writeDomainError(w, "Failed to read invoice note", err)
		return
	}

	writeJSON(w, http.StatusOK, InvoiceNoteDTO{
		InvoiceNumber: string(number),
		Note:          note,
	})
}

// PutInvoiceNote upserts an invoice's free-text note.
// PUT /api/invoices/{number}/note
func (h *Handler) PutInvoiceNote(w http.ResponseWriter, r *http.Request) {
	number := billing.InvoiceNumber(chi.URLParam(r, "number"))

	var req InvoiceNoteDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := h.Store.SetInvoiceNote(r.Context(), number, req.Note); err != nil {
		h.writeDomainError(w, "Failed to save invoice note", err)
		return
	}

	writeJSON(w, http.StatusOK, InvoiceNoteDTO{
		InvoiceNumber: string(number),
		Note:          req.Note,
	})
}

// TriggerSync starts a platform sync in the background.
// POST /api/admin/sync
func (h *Handler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	if h.Sync == nil {
		writeError(w, http.StatusNotFound, "Sync is not configured", nil)
		return
	}

	// Detached from the request context: a sync run is never cancelled
	// because the requester hung up.
	if !h.Sync.Start(context.Background()) {
		writeError(w, http.StatusConflict, "A sync is already running", nil)
		return
	}
	h.Log.Info().Msg("sync triggered")
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "started"})
}

// =============================================================================
// HELPERS
// =============================================================================

// parseCustomerParam parses a comma-separated customer id list.
func parseCustomerParam(raw string) ([]billing.CustomerID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	var ids []billing.CustomerID
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, billing.CustomerID(n))
	}
	return ids, nil
}

// dateParam parses a YYYY-MM-DD query parameter; nil when absent or invalid.
func dateParam(r *http.Request, key string) *time.Time {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil
	}
	d, ok := billing.ParseDate(raw)
	if !ok {
		return nil
	}
	return &d
}

func boolParam(r *http.Request, key string) bool {
	v := strings.ToLower(r.URL.Query().Get(key))
	return v == "true" || v == "1" || v == "yes"
}

// writeDomainError maps billing errors onto HTTP statuses.
func (h *Handler) writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case billing.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case billing.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	case billing.IsRetryable(err):
		writeError(w, http.StatusServiceUnavailable, message, err)
	default:
		h.Log.Error().Err(err).Msg(message)
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
