/*
status.go - Billable / non-billable status classification

PURPOSE:
  Invoice statuses are free text written by order workflow tools. Two
  configured sets decide billing eligibility:
    BILLABLE:     statuses far enough along to appear on an active
                  statement ("shipped", "picked up", ...)
    NON_BILLABLE: statuses that must never bill ("cancelled", "quote",
                  "void", in-production stages, ...)

TWO POLICIES:
  Strict      include only statuses that are billable AND not
              non-billable. Used for "what is owed right now".
  Historical  include everything except explicit non-billables. Used for
              "everything ever billed that isn't void".

  The difference is a real business distinction: an order still in
  production is excluded from the active cycle but its invoice, once it
  exists, belongs to full history. Callers pick the policy explicitly.

PER-COMPANY OVERRIDES:
  Some companies run their own workflow stages and carry their own
  exclusion lists. An override registered for a company is authoritative
  for that company; override sets are never merged into the global ones.
*/
package billing

import "strings"

// Policy selects which inclusion rule Classify-based filtering applies.
type Policy int

const (
	// PolicyStrict includes only whitelisted, non-blacklisted statuses.
	PolicyStrict Policy = iota
	// PolicyHistorical includes everything not blacklisted.
	PolicyHistorical
)

// Classification is the three-way result of classifying a status string.
type Classification int

const (
	StatusOther Classification = iota
	StatusBillable
	StatusNonBillable
)

// StatusClassifier carries the billable and non-billable sets, plus
// per-company overrides. Construct one explicitly and pass it by
// reference; there is no hidden global configuration.
type StatusClassifier struct {
	billable    map[string]bool
	nonBillable map[string]bool
	overrides   map[string]*StatusClassifier // keyed by normalized company label
}

// NewStatusClassifier builds a classifier from the two sets. Entries are
// normalized (trimmed, lowercased) once at construction.
func NewStatusClassifier(billable, nonBillable []string) *StatusClassifier {
	c := &StatusClassifier{
		billable:    make(map[string]bool, len(billable)),
		nonBillable: make(map[string]bool, len(nonBillable)),
		overrides:   make(map[string]*StatusClassifier),
	}
	for _, s := range billable {
		c.billable[normalizeStatus(s)] = true
	}
	for _, s := range nonBillable {
		c.nonBillable[normalizeStatus(s)] = true
	}
	return c
}

// SetCompanyOverride registers a company-specific classifier. The override
// is authoritative for that company: the global sets are not consulted.
func (c *StatusClassifier) SetCompanyOverride(company string, override *StatusClassifier) {
	c.overrides[normalizeStatus(company)] = override
}

// ForCompany returns the classifier to use for a company label: its
// override if one is registered, otherwise the receiver itself.
func (c *StatusClassifier) ForCompany(company string) *StatusClassifier {
	if o, ok := c.overrides[normalizeStatus(company)]; ok {
		return o
	}
	return c
}

// Classify returns the classification of a raw status string.
// Non-billable wins when a status somehow appears in both sets.
func (c *StatusClassifier) Classify(status string) Classification {
	s := normalizeStatus(status)
	if c.nonBillable[s] {
		return StatusNonBillable
	}
	if c.billable[s] {
		return StatusBillable
	}
	return StatusOther
}

// Include reports whether an invoice with the given status belongs in a
// result set under the given policy.
func (c *StatusClassifier) Include(status string, policy Policy) bool {
	switch c.Classify(status) {
	case StatusNonBillable:
		return false
	case StatusBillable:
		return true
	default:
		// "other" statuses bill historically but are not actionable today
		return policy == PolicyHistorical
	}
}

func normalizeStatus(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// =============================================================================
// SHOP DEFAULTS
// =============================================================================

// DefaultClassifier returns the shop's production status sets. Companies
// with their own workflow register overrides on top of this.
func DefaultClassifier() *StatusClassifier {
	return NewStatusClassifier(
		[]string{
			"complete and ready for pickup", "shipped", "picked up",
			"payment request sent", "harlestons -- invoiced",
			"past due invoice - followed up", "on hold - need payment please",
			"done done", "pickup reminder sent", "harlestons -- picked up",
		},
		[]string{
			"cancelled", "archived", "quote", "void", "do not bill",
			"harlestons-need sewout", "template", "harlestons -- no order pending",
			"emb - flats - inline", "harlestons -- file sent for approval",
			"file sent for approval", "harlestons -- waiting on product", "print dtf",
			"harlestons -- emb inline", "emb - hats - inline",
			"hold - need more information", "waiting product only",
			"goods on backorder", "harlestons -- on deck",
			"patches - ready to apply",
		},
	)
}

// NonBillableStatuses returns the classifier's blacklist in normalized
// form, for store queries that must exclude non-billable invoices in SQL.
func (c *StatusClassifier) NonBillableStatuses() []string {
	out := make([]string, 0, len(c.nonBillable))
	for s := range c.nonBillable {
		out = append(out, s)
	}
	return out
}
