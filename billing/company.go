/*
company.go - Company grouping and customer resolution

PURPOSE:
  One business ("company") may span several legacy customer rows: the
  importers created a new customer per contact over the years. Statement
  scope is therefore a LIST of customer ids grouped under one company
  label. Customers with no company group under a synthetic
  "No Company - First Last" label so nobody disappears from the books.
*/
package billing

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// CompanyGroup is one company label and the customer ids behind it.
type CompanyGroup struct {
	Label       string
	CustomerIDs []CustomerID
}

// CompanyLabel derives the display label for a customer row.
func CompanyLabel(c Customer) string {
	if company := strings.TrimSpace(c.Company); company != "" {
		return company
	}
	return fmt.Sprintf("No Company - %s %s", strings.TrimSpace(c.FirstName), strings.TrimSpace(c.LastName))
}

// CompanyDirectory resolves company labels to customer id groups.
type CompanyDirectory struct {
	Store CustomerStore
}

func NewCompanyDirectory(store CustomerStore) *CompanyDirectory {
	return &CompanyDirectory{Store: store}
}

// Groups returns every company group, sorted case-insensitively by label.
func (d *CompanyDirectory) Groups(ctx context.Context) ([]CompanyGroup, error) {
	customers, err := d.Store.Customers(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch customers: %w", err)
	}

	byLabel := make(map[string][]CustomerID)
	for _, c := range customers {
		label := CompanyLabel(c)
		byLabel[label] = append(byLabel[label], c.ID)
	}

	groups := make([]CompanyGroup, 0, len(byLabel))
	for label, ids := range byLabel {
		groups = append(groups, CompanyGroup{Label: label, CustomerIDs: ids})
	}
	sort.Slice(groups, func(i, j int) bool {
		return strings.ToLower(strings.TrimSpace(groups[i].Label)) <
			strings.ToLower(strings.TrimSpace(groups[j].Label))
	})
	return groups, nil
}

// ResolveCompany returns the customer ids for a company name, by exact
// match or prefix match when fuzzy is true. ErrCompanyNotFound when the
// name resolves to nothing.
func (d *CompanyDirectory) ResolveCompany(ctx context.Context, company string, fuzzy bool) ([]CustomerID, error) {
	ids, err := d.Store.CustomerIDsByCompany(ctx, company, fuzzy)
	if err != nil {
		return nil, fmt.Errorf("resolve company %q: %w", company, err)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("company %q: %w", company, ErrCompanyNotFound)
	}
	return ids, nil
}

// =============================================================================
// CUSTOMER ID TEXT - Comma-joined ids on statement headers
// =============================================================================

// JoinCustomerIDs renders ids as the comma-joined text stored on
// multi-customer statement headers.
func JoinCustomerIDs(ids []CustomerID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(int64(id), 10)
	}
	return strings.Join(parts, ",")
}

// ParseCustomerIDs parses comma-joined id text, skipping blanks and junk.
func ParseCustomerIDs(text string) []CustomerID {
	var ids []CustomerID
	for _, part := range strings.Split(text, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, CustomerID(n))
	}
	return ids
}
