package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"lathera/internal/oils"
	"lathera/internal/soap"
)

func newOilsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "oils [query]",
		Short: "List oils in the library, optionally filtered by name",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := ""
			if len(args) == 1 {
				query = args[0]
			}
			entries := a.library.Search(query)
			if len(entries) == 0 {
				return fmt.Errorf("no oils match %q", query)
			}
			printOilTable(cmd.OutOrStdout(), entries)
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show <id or name>",
		Short: "Show SAP values and fatty acids for one oil",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entry, ok := a.library.Match(args[0])
			if !ok {
				return fmt.Errorf("%w: no oil matches %q", soap.ErrMissingReferenceData, args[0])
			}
			printOil(cmd.OutOrStdout(), entry)
			return nil
		},
	})
	return cmd
}

func printOilTable(out io.Writer, entries []oils.Entry) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSAP NaOH\tSAP KOH\tINS")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%.3f\t%.3f\t%.0f\n", e.ID, e.Name, e.SapNaOH, e.Reference().KOHSap(), e.INS)
	}
	tw.Flush()
}

func printOil(out io.Writer, e oils.Entry) {
	fmt.Fprintf(out, "%s (%s)\n", e.Name, e.ID)
	if e.Category != "" {
		fmt.Fprintf(out, "Category:  %s\n", e.Category)
	}
	if len(e.Aliases) > 0 {
		fmt.Fprintf(out, "Aliases:   %s\n", strings.Join(e.Aliases, ", "))
	}
	fmt.Fprintf(out, "SAP NaOH:  %.3f\n", e.SapNaOH)
	fmt.Fprintf(out, "SAP KOH:   %.3f\n", e.Reference().KOHSap())
	fmt.Fprintf(out, "Iodine:    %.0f\n", e.Iodine)
	fmt.Fprintf(out, "INS:       %.0f\n", e.INS)
	fmt.Fprintln(out, "Fatty acids:")
	for _, acid := range soap.FattyAcids {
		if v := e.FattyAcids[acid]; v > 0 {
			fmt.Fprintf(out, "  %-11s %5.1f%%\n", acid, v)
		}
	}
}
