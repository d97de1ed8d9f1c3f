package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/iho/gowallet/internal/usecase"
)

// print writes v as JSON or runs table, depending on --output.
func (a *app) print(cmd *cobra.Command, v any, table func()) error {
	if a.output == "json" {
		return printJSON(cmd.OutOrStdout(), v)
	}
	table()
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printUser(w io.Writer, u *usecase.UserSnapshot) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tUSERNAME\tEMAIL\tROLE\tSTATUS")
	fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", u.ID, u.Username, truncate(u.Email, 32), u.Role, u.Status)
	_ = tw.Flush()
}

func printWallet(w io.Writer, wallet *usecase.WalletSnapshot) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tOWNER\tCURRENCY\tBALANCE\tSTATUS")
	fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", wallet.ID, wallet.OwnerID, wallet.CurrencyCode, wallet.Balance, wallet.Status)
	_ = tw.Flush()
}

func printResults(w io.Writer, results []*usecase.ReconciliationResult) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "WALLET\tCURRENCY\tRECORDED\tEXPECTED\tDIFF\tOK")
	for _, r := range results {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%t\n", r.WalletID, r.CurrencyCode, r.RecordedBalance, r.ExpectedBalance, r.Difference, r.IsReconciled)
	}
	_ = tw.Flush()
}

func printReport(w io.Writer, report *usecase.ReconciliationReport) {
	fmt.Fprintf(w, "checked %d wallets at %s: %d reconciled, %d drifted\n",
		report.TotalWallets, report.CheckedAt.Format(time.RFC3339), report.ReconciledWallets, len(report.Discrepancies))

	if len(report.Discrepancies) > 0 {
		fmt.Fprintln(w)
		printResults(w, report.Discrepancies)
	}

	if len(report.Totals) > 0 {
		fmt.Fprintln(w)
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "CURRENCY\tHELD\tNET ISSUED\tCONSERVED")
		for _, t := range report.Totals {
			fmt.Fprintf(tw, "%s\t%d\t%d\t%t\n", t.CurrencyCode, t.TotalBalance, t.NetIssued, t.Conserved)
		}
		_ = tw.Flush()
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
