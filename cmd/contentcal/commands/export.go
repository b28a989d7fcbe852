package commands

import (
	"bytes"

	"github.com/spf13/cobra"

	"contentcal/internal/config"
	appLog "contentcal/internal/log"
)

func newExportCmd(a *app) *cobra.Command {
	var (
		year int
		out  string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export planned content as an iCalendar file",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, closeStore, err := a.service(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			if out == "" || out == "-" {
				return svc.ExportICS(ctx, cmd.OutOrStdout(), year)
			}

			var buf bytes.Buffer
			if err := svc.ExportICS(ctx, &buf, year); err != nil {
				return err
			}
			if err := config.WriteFileAtomic(out, buf.Bytes(), 0o644); err != nil {
				return err
			}
			appLog.Info("calendar exported", "path", out, "year", year, "bytes", buf.Len())
			return nil
		},
	}
	cmd.Flags().IntVar(&year, "year", 0, "only export this year (default: all)")
	cmd.Flags().StringVarP(&out, "out", "o", "-", "output file, - for stdout")
	return cmd
}
