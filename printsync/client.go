/*
client.go - HTTP Source against the order platform's REST API

PURPOSE:
  Implements Source over the platform's paginated JSON endpoints. The
  payloads arrive with string amounts and free-text dates; both pass
  through untouched. The billing package normalizes at read time.

AUTH:
  The platform uses a static token sent as a query parameter. No OAuth,
  no refresh; rotating the token means restarting the server.
*/
package printsync

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cssswagchs/billing-engine/billing"
)

// Client fetches platform records over HTTP.
type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

// NewClient creates a client for the platform API.
func NewClient(baseURL, token string) *Client {
	return &Client{
		BaseURL: baseURL,
		Token:   token,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

type customerPayload struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Company   string `json:"company"`
}

type invoicePayload struct {
	VisualID   string `json:"visual_id"`
	CustomerID int64  `json:"customer_id"`
	CreatedAt  string `json:"created_at"`
	Total      string `json:"total"`
	Paid       string `json:"paid"`
	Status     string `json:"order_status"`
	PONumber   string `json:"po_number"`
	Nickname   string `json:"order_nickname"`
}

type paymentPayload struct {
	CreatedAt  string `json:"created_at"`
	Amount     string `json:"amount"`
	VisualID   string `json:"invoice_visual_id"`
	Method     string `json:"category"`
	Reference  string `json:"transaction_id"`
	CustomerID int64  `json:"customer_id"`
}

type page[T any] struct {
	Data []T  `json:"data"`
	Meta struct {
		Page       int `json:"page"`
		TotalPages int `json:"total_pages"`
	} `json:"meta"`
}

// Customers fetches one page of customer records.
func (c *Client) Customers(ctx context.Context, pageNum int) ([]billing.Customer, bool, error) {
	var p page[customerPayload]
	if err := c.get(ctx, "/customers", pageNum, &p); err != nil {
		return nil, false, err
	}

	customers := make([]billing.Customer, len(p.Data))
	for i, raw := range p.Data {
		customers[i] = billing.Customer{
			ID:        billing.CustomerID(raw.ID),
			FirstName: raw.FirstName,
			LastName:  raw.LastName,
			Company:   raw.Company,
		}
	}
	return customers, p.Meta.Page < p.Meta.TotalPages, nil
}

// Invoices fetches one page of invoice records.
func (c *Client) Invoices(ctx context.Context, pageNum int) ([]billing.Invoice, bool, error) {
	var p page[invoicePayload]
	if err := c.get(ctx, "/orders", pageNum, &p); err != nil {
		return nil, false, err
	}

	invoices := make([]billing.Invoice, len(p.Data))
	for i, raw := range p.Data {
		invoices[i] = billing.Invoice{
			Number:     billing.InvoiceNumber(raw.VisualID),
			CustomerID: billing.CustomerID(raw.CustomerID),
			RawDate:    raw.CreatedAt,
			Total:      billing.MustParseMoney(raw.Total),
			PaidFlag:   raw.Paid,
			Status:     raw.Status,
			PONumber:   raw.PONumber,
			Nickname:   raw.Nickname,
		}
	}
	return invoices, p.Meta.Page < p.Meta.TotalPages, nil
}

// Payments fetches one page of payment records.
func (c *Client) Payments(ctx context.Context, pageNum int) ([]billing.Payment, bool, error) {
	var p page[paymentPayload]
	if err := c.get(ctx, "/payments", pageNum, &p); err != nil {
		return nil, false, err
	}

	payments := make([]billing.Payment, len(p.Data))
	for i, raw := range p.Data {
		payments[i] = billing.Payment{
			RawDate:       raw.CreatedAt,
			Amount:        billing.MustParseMoney(raw.Amount),
			InvoiceNumber: billing.InvoiceNumber(raw.VisualID),
			Method:        raw.Method,
			Reference:     raw.Reference,
			CustomerID:    billing.CustomerID(raw.CustomerID),
		}
	}
	return payments, p.Meta.Page < p.Meta.TotalPages, nil
}

func (c *Client) get(ctx context.Context, path string, pageNum int, out any) error {
	u, err := url.Parse(c.BaseURL + path)
	if err != nil {
		return fmt.Errorf("bad platform url: %w", err)
	}
	q := u.Query()
	q.Set("page", strconv.Itoa(pageNum))
	q.Set("token", c.Token)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("platform request %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("platform request %s: status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("platform response %s: %w", path, err)
	}
	return nil
}
