/*
main.go - Desk CLI for the billing engine

PURPOSE:
  Command-line access to the engine for operations that don't need the
  HTTP server: voiding a statement, resetting a company's assignments,
  running the aging and integrity reports, and triggering a sync.
  Operates directly on the shared SQLite database.

COMMANDS:
  billctl statement --customers 12,14 [--start --end --unpaid-only]
  billctl reprint S00042
  billctl void S00042
  billctl reset-statements --company "Acme" [--fuzzy] [--delete-headers]
  billctl aging
  billctl integrity --customers 12,14 [--mismatch-only] [--hide-unpaid]
  billctl sync --url ... --token ...

All commands honor --db (default: terminal.db).
*/
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/cssswagchs/billing-engine/billing"
	"github.com/cssswagchs/billing-engine/printsync"
	"github.com/cssswagchs/billing-engine/store/sqlite"
)

var (
	dbPath  string
	verbose bool
)

func main() {
	root := &cobra.Command{
		Use:           "billctl",
		Short:         "Statement engine operations on the shared billing database",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&dbPath, "db", "terminal.db", "SQLite database path")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		statementCmd(),
		reprintCmd(),
		voidCmd(),
		resetCmd(),
		agingCmd(),
		integrityCmd(),
		syncCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "billctl: %v\n", err)
		os.Exit(1)
	}
}

func logger() zerolog.Logger {
	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()
}

func openStore() (*sqlite.Store, error) {
	store, err := sqlite.New(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dbPath, err)
	}
	return store, nil
}

func parseCustomers(raw string) ([]billing.CustomerID, error) {
	var ids []billing.CustomerID
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad customer id %q", part)
		}
		ids = append(ids, billing.CustomerID(n))
	}
	return ids, nil
}

// =============================================================================
// COMMANDS
// =============================================================================

func statementCmd() *cobra.Command {
	var customers, start, end string
	var unpaidOnly, unreconciledOnly bool

	cmd := &cobra.Command{
		Use:   "statement",
		Short: "Compute and print a statement view (nothing is tagged)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseCustomers(customers)
			if err != nil {
				return err
			}
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			q := billing.StatementQuery{
				CustomerIDs:      ids,
				UnpaidOnly:       unpaidOnly,
				UnreconciledOnly: unreconciledOnly,
			}
			if d, ok := billing.ParseDate(start); ok {
				q.StartDate = &d
			}
			if d, ok := billing.ParseDate(end); ok {
				q.EndDate = &d
			}
			if len(ids) == 0 && q.StartDate == nil && q.EndDate == nil {
				return fmt.Errorf("--customers or a date range is required")
			}

			calc := billing.NewStatementCalculator(store, billing.DefaultClassifier())
			rows, totals, err := calc.Fetch(context.Background(), q)
			if err != nil {
				return err
			}
			printRows(rows, totals)
			return nil
		},
	}
	cmd.Flags().StringVar(&customers, "customers", "", "comma-separated customer ids")
	cmd.Flags().StringVar(&start, "start", "", "range start (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "range end (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&unpaidOnly, "unpaid-only", false, "open balances only")
	cmd.Flags().BoolVar(&unreconciledOnly, "unreconciled-only", false, "drop reconciled payments")
	return cmd
}

func reprintCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reprint <statement-number>",
		Short: "Rebuild a stored statement from its tagged invoices",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			register := billing.NewStatementRegister(store)
			header, rows, totals, err := register.FetchStatement(context.Background(), billing.StatementNumber(args[0]))
			if err != nil {
				return err
			}

			fmt.Printf("Statement %s  %s  [%s]\n", header.Number, header.CompanyLabel, header.Status)
			fmt.Printf("Generated %s  Period %s..%s\n\n", header.GeneratedOn, header.StartDate, header.EndDate)
			printRows(rows, totals)
			return nil
		},
	}
}

func voidCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "void <statement-number>",
		Short: "Void a statement and release its invoices",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			lifecycle := billing.NewStatementLifecycle(store)
			outcome, err := lifecycle.Void(context.Background(), billing.StatementNumber(args[0]))
			if err != nil {
				return err
			}
			fmt.Printf("voided %s, released %d invoices\n", outcome.Statement, outcome.ReleasedInvoices)
			return nil
		},
	}
}

func resetCmd() *cobra.Command {
	var company string
	var fuzzy, deleteHeaders bool

	cmd := &cobra.Command{
		Use:   "reset-statements",
		Short: "Clear a company's statement assignments, preserving notes",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(company) == "" {
				return fmt.Errorf("--company is required")
			}
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			lifecycle := billing.NewStatementLifecycle(store)
			outcome, err := lifecycle.ResetStatementsForCompany(context.Background(), company, fuzzy, deleteHeaders)
			if err != nil {
				return err
			}
			fmt.Printf("reset %s: %d assignments cleared, %d headers deleted (customers %v)\n",
				outcome.Company, outcome.ClearedTrackings, outcome.DeletedHeaders, outcome.CustomerIDs)
			return nil
		},
	}
	cmd.Flags().StringVar(&company, "company", "", "company name")
	cmd.Flags().BoolVar(&fuzzy, "fuzzy", false, "prefix-match the company name")
	cmd.Flags().BoolVar(&deleteHeaders, "delete-headers", false, "also delete statement headers")
	return cmd
}

func agingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "aging",
		Short: "Receivables aging report by company",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			bucketer := billing.NewAgingBucketer(store, billing.DefaultClassifier())
			lines, err := bucketer.Compute(context.Background())
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "COMPANY\t0-30\t31-60\t61-90\t90+\tTOTAL")
			for _, l := range lines {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
					l.CompanyLabel, l.Current, l.Days31to60, l.Days61to90, l.Over90, l.Total)
			}
			return tw.Flush()
		},
	}
}

func integrityCmd() *cobra.Command {
	var customers string
	var mismatchOnly, hideUnpaid bool

	cmd := &cobra.Command{
		Use:   "integrity",
		Short: "Audit paid flags against actual payments",
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseCustomers(customers)
			if err != nil {
				return err
			}
			if len(ids) == 0 {
				return fmt.Errorf("--customers is required")
			}
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			checker := billing.NewPaymentIntegrityChecker(store, billing.DefaultClassifier())
			lines, err := checker.Check(context.Background(), billing.IntegrityQuery{
				CustomerIDs:  ids,
				MismatchOnly: mismatchOnly,
				HideUnpaid:   hideUnpaid,
			})
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "INVOICE\tTOTAL\tFLAG\tPAID\tDIFF\tSTATUS")
			for _, l := range lines {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
					l.InvoiceNumber, l.InvoiceTotal, l.PaidFlag, l.ActualPaid, l.Difference, l.Status)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&customers, "customers", "", "comma-separated customer ids")
	cmd.Flags().BoolVar(&mismatchOnly, "mismatch-only", false, "hide fully paid invoices")
	cmd.Flags().BoolVar(&hideUnpaid, "hide-unpaid", false, "hide truly unpaid invoices")
	return cmd
}

func syncCmd() *cobra.Command {
	var apiURL, token string

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Pull customers, invoices and payments from the platform",
		RunE: func(cmd *cobra.Command, args []string) error {
			if apiURL == "" {
				return fmt.Errorf("--url is required")
			}
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			runner := printsync.NewRunner(printsync.NewClient(apiURL, token), store, logger())
			res := runner.RunOnce(context.Background())
			if res.Err != nil {
				return res.Err
			}
			fmt.Println(res)
			return nil
		},
	}
	cmd.Flags().StringVar(&apiURL, "url", "", "platform API base URL")
	cmd.Flags().StringVar(&token, "token", "", "platform API token")
	return cmd
}

func printRows(rows []billing.Row, totals billing.Totals) {
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tTYPE\tINVOICE\tAMOUNT\tDETAIL")
	for _, r := range rows {
		date := ""
		if r.Date != nil {
			date = r.Date.Format("2006-01-02")
		}
		detail := r.Nickname
		if r.Kind == billing.RowPayment {
			detail = r.Method
			if r.Reference != "" {
				detail += " " + r.Reference
			}
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", date, r.Kind, r.InvoiceNumber, r.Amount, detail)
	}
	fmt.Fprintf(tw, "\nBilled\t%s\nPaid\t%s\nBalance\t%s\n", totals.Billed, totals.Paid, totals.Balance)
	tw.Flush()
}
