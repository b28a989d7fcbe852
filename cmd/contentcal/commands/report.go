package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"contentcal/internal/calendar"
)

func newReportCmd(a *app) *cobra.Command {
	var (
		year, month int
		policy      string
		asJSON      bool
	)
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print weekly quota status for a month, or the yearly dashboard",
		Long: "Without --month, report prints the dashboard of --year (planned vs target,\n" +
			"status counts, annual platform status). With --month it prints every week\n" +
			"of that month and how each platform tracks against its weekly quota.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, closeStore, err := a.service(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			out := cmd.OutOrStdout()
			if month == 0 {
				d, err := svc.Dashboard(ctx, year)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(out, d)
				}
				return printDashboard(out, d)
			}

			if year == 0 {
				year = svc.Today().Year()
			}
			mv, err := svc.Month(ctx, year, time.Month(month), policy)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(out, mv)
			}
			return printMonth(out, mv)
		},
	}
	cmd.Flags().IntVar(&year, "year", 0, "year to report (default: current, or first year with data)")
	cmd.Flags().IntVar(&month, "month", 0, "month to report, 1-12")
	cmd.Flags().StringVar(&policy, "policy", "", "week policy: fixed or calendar (default from config)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printMonth(w io.Writer, mv calendar.MonthView) error {
	fmt.Fprintf(w, "%s %d (%s weeks, %d events)\n\n", mv.Name, mv.Year, mv.Policy, mv.EventCount)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "WEEK\tDAYS\tPLATFORM\tPLANNED\tREQUIRED\tSTATUS")
	for _, wk := range mv.Weeks {
		days := dayRange(wk.Days)
		if len(wk.Statuses) == 0 {
			fmt.Fprintf(tw, "%s\t%s\t-\t\t\t\n", wk.Label, days)
			continue
		}
		for i, ps := range wk.Statuses {
			label, span := wk.Label, days
			if i > 0 {
				label, span = "", ""
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\n", label, span, ps.Platform, ps.Planned, ps.Required, ps.Severity)
		}
	}
	return tw.Flush()
}

func printDashboard(w io.Writer, d calendar.Dashboard) error {
	fmt.Fprintf(w, "Year %d: %d ISO weeks, %d planned of %d target (%+d)\n\n",
		d.Year, d.WeeksInYear, d.Planned, d.Target, d.Delta)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STATUS\tCOUNT")
	for _, sc := range d.Statuses {
		fmt.Fprintf(tw, "%s\t%d\n", sc.Status, sc.Count)
	}
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "PLATFORM\tPLANNED\tREQUIRED\tSTATUS")
	for _, ps := range d.Platforms {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n", ps.Platform, ps.Planned, ps.Required, ps.Severity)
	}
	return tw.Flush()
}

// dayRange renders the first and last real day of a week as "1-7".
func dayRange(cells []calendar.DayCell) string {
	first, last := 0, 0
	for _, c := range cells {
		if c.Day == 0 {
			continue
		}
		if first == 0 {
			first = c.Day
		}
		last = c.Day
	}
	if first == 0 {
		return "-"
	}
	if first == last {
		return fmt.Sprint(first)
	}
	return fmt.Sprintf("%d-%d", first, last)
}
