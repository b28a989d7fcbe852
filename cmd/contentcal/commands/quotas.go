package commands

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"contentcal/internal/model"
)

func newQuotasCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quotas",
		Short: "Show or change the weekly post quota per platform",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List weekly quotas",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, closeStore, err := a.service(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			quotas, err := svc.Quotas(ctx)
			if err != nil {
				return err
			}
			return printQuotas(cmd.OutOrStdout(), quotas)
		},
	}

	set := &cobra.Command{
		Use:   "set PLATFORM REQUIRED",
		Short: "Add a platform or change its weekly quota",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			required, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("REQUIRED must be a whole number: %w", err)
			}

			ctx := cmd.Context()
			svc, closeStore, err := a.service(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			quotas, err := svc.SetQuota(ctx, args[0], required)
			if err != nil {
				return err
			}
			return printQuotas(cmd.OutOrStdout(), quotas)
		},
	}

	cmd.AddCommand(list, set)
	return cmd
}

func printQuotas(w io.Writer, quotas model.QuotaSet) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PLATFORM\tREQUIRED")
	for _, p := range quotas.Platforms() {
		fmt.Fprintf(tw, "%s\t%d\n", p, quotas[p])
	}
	return tw.Flush()
}
