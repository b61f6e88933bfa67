package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the stored invoices, oldest first",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().Bool("json", false, "Output as JSON format")
}

func runList(cmd *cobra.Command, args []string) error {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	svc, closeFn, err := openService(ctx, cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	invoices, err := svc.List(ctx)
	if err != nil {
		return err
	}

	if jsonOutput {
		return outputJSON(invoices)
	}

	fmt.Printf("%-36s  %-12s  %-24s  %12s  %s\n", "ID", "DATE", "FOURNISSEUR", "TTC", "STATUT")
	fmt.Println(strings.Repeat("-", 100))
	for _, inv := range invoices {
		fmt.Printf("%-36s  %-12s  %-24s  %12s  %s\n",
			inv.ID, inv.InvoiceDate, truncate(inv.Vendor, 24), amount(inv.TotalAmount), statusLabel(inv.VerificationStatus))
	}
	fmt.Printf("\n%d facture(s)\n", len(invoices))
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
