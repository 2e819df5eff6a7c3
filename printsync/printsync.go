/*
Package printsync pulls customers, invoices and payments from the print
shop's order platform into the shared billing database.

PURPOSE:
  The statement engine never talks to the platform directly; it reads
  whatever the last sync wrote. This package is that writer: it walks
  the platform's paginated feeds and upserts rows through the store's
  seed surface, leaving dates and paid flags exactly as the platform
  sent them. Normalization is the billing package's job, at read time.

DESIGN:
  - A Runner performs one full sync in a background goroutine, at
    most one in flight at a time. A run is never cancelled mid-flight:
    a half-written page is worse than a late one, so the context only
    gates the fetches, not the writes of an already-fetched page.
  - Done() carries the latest completed Result. Callers that don't
    care can ignore the channel; a newer result displaces an unread
    older one, so a Start can never block on it.
  - A Scheduler wraps the Runner with a ticker for unattended syncs.

SEE ALSO:
  - store/sqlite/seed.go: the upsert surface a sink implements
*/
package printsync

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/cssswagchs/billing-engine/billing"
)

// Source is a paginated feed of the platform's records. Page numbering
// starts at 1; the bool reports whether more pages remain.
type Source interface {
	Customers(ctx context.Context, page int) ([]billing.Customer, bool, error)
	Invoices(ctx context.Context, page int) ([]billing.Invoice, bool, error)
	Payments(ctx context.Context, page int) ([]billing.Payment, bool, error)
}

// Sink is the write surface a sync run needs. *sqlite.Store implements it.
type Sink interface {
	SaveCustomer(ctx context.Context, c billing.Customer) error
	SaveInvoice(ctx context.Context, inv billing.Invoice) error
	SavePayment(ctx context.Context, p billing.Payment) error
}

// Result summarizes one completed sync run.
type Result struct {
	Customers int
	Invoices  int
	Payments  int
	Err       error
}

func (r Result) String() string {
	if r.Err != nil {
		return fmt.Sprintf("sync failed: %v", r.Err)
	}
	return fmt.Sprintf("synced %d customers, %d invoices, %d payments",
		r.Customers, r.Invoices, r.Payments)
}

// Runner performs one sync per Start call. At most one run is in
// flight at a time.
type Runner struct {
	Source Source
	Sink   Sink
	Log    zerolog.Logger

	mu      sync.Mutex
	running bool
	done    chan Result
}

// NewRunner creates a runner. The logger may be zerolog.Nop().
func NewRunner(source Source, sink Sink, log zerolog.Logger) *Runner {
	return &Runner{
		Source: source,
		Sink:   sink,
		Log:    log,
		done:   make(chan Result, 1),
	}
}

// ErrSyncRunning reports a run refused because another is in flight.
var ErrSyncRunning = errors.New("sync already running")

// Start launches the sync in a background goroutine and returns
// immediately, reporting whether a run was started. A Start while a
// run is in flight is a no-op returning false: two concurrent full
// syncs would race each other's upserts for nothing.
func (r *Runner) Start(ctx context.Context) bool {
	if !r.begin() {
		return false
	}
	go func() {
		res := r.run(ctx)

		// Displace an uncollected earlier result rather than block;
		// nobody is required to read Done().
		select {
		case <-r.done:
		default:
		}
		r.done <- res

		r.end()
	}()
	return true
}

// Done delivers the outcome of the most recent completed run. When no
// one reads it, the next run's result displaces the stale one.
func (r *Runner) Done() <-chan Result {
	return r.done
}

// Running reports whether a run is currently in flight.
func (r *Runner) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

func (r *Runner) begin() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return false
	}
	r.running = true
	return true
}

func (r *Runner) end() {
	r.mu.Lock()
	r.running = false
	r.mu.Unlock()
}

// RunOnce performs a full sync synchronously. It shares the in-flight
// guard with Start; a concurrent run yields Result{Err: ErrSyncRunning}.
func (r *Runner) RunOnce(ctx context.Context) Result {
	if !r.begin() {
		return Result{Err: ErrSyncRunning}
	}
	defer r.end()
	return r.run(ctx)
}

// run walks the feeds. Customers first, then invoices, then payments,
// so soft references land after their targets.
func (r *Runner) run(ctx context.Context) Result {
	var res Result

	r.Log.Info().Msg("sync started")

	res.Customers, res.Err = r.syncCustomers(ctx)
	if res.Err != nil {
		r.Log.Error().Err(res.Err).Msg("customer sync failed")
		return res
	}

	res.Invoices, res.Err = r.syncInvoices(ctx)
	if res.Err != nil {
		r.Log.Error().Err(res.Err).Msg("invoice sync failed")
		return res
	}

	res.Payments, res.Err = r.syncPayments(ctx)
	if res.Err != nil {
		r.Log.Error().Err(res.Err).Msg("payment sync failed")
		return res
	}

	r.Log.Info().
		Int("customers", res.Customers).
		Int("invoices", res.Invoices).
		Int("payments", res.Payments).
		Msg("sync completed")
	return res
}

func (r *Runner) syncCustomers(ctx context.Context) (int, error) {
	count := 0
	for page := 1; ; page++ {
		batch, more, err := r.Source.Customers(ctx, page)
		if err != nil {
			return count, fmt.Errorf("fetch customers page %d: %w", page, err)
		}
		for _, c := range batch {
			if err := r.Sink.SaveCustomer(ctx, c); err != nil {
				return count, fmt.Errorf("save customer %d: %w", c.ID, err)
			}
			count++
		}
		r.Log.Debug().Int("page", page).Int("rows", len(batch)).Msg("customers page")
		if !more {
			return count, nil
		}
	}
}

func (r *Runner) syncInvoices(ctx context.Context) (int, error) {
	count := 0
	for page := 1; ; page++ {
		batch, more, err := r.Source.Invoices(ctx, page)
		if err != nil {
			return count, fmt.Errorf("fetch invoices page %d: %w", page, err)
		}
		for _, inv := range batch {
			if err := r.Sink.SaveInvoice(ctx, inv); err != nil {
				return count, fmt.Errorf("save invoice %s: %w", inv.Number, err)
			}
			count++
		}
		r.Log.Debug().Int("page", page).Int("rows", len(batch)).Msg("invoices page")
		if !more {
			return count, nil
		}
	}
}

func (r *Runner) syncPayments(ctx context.Context) (int, error) {
	count := 0
	for page := 1; ; page++ {
		batch, more, err := r.Source.Payments(ctx, page)
		if err != nil {
			return count, fmt.Errorf("fetch payments page %d: %w", page, err)
		}
		for _, p := range batch {
			if err := r.Sink.SavePayment(ctx, p); err != nil {
				return count, fmt.Errorf("save payment for %s: %w", p.InvoiceNumber, err)
			}
			count++
		}
		r.Log.Debug().Int("page", page).Int("rows", len(batch)).Msg("payments page")
		if !more {
			return count, nil
		}
	}
}
