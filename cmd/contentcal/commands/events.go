package commands

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"contentcal/internal/calendar"
	"contentcal/internal/model"
	"contentcal/internal/planner"
)

func newEventsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "List, add and delete planned content",
	}
	cmd.AddCommand(newEventsListCmd(a), newEventsAddCmd(a), newEventsDeleteCmd(a))
	return cmd
}

func newEventsListCmd(a *app) *cobra.Command {
	var (
		f      planner.Filter
		month  int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List events ordered by date",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, closeStore, err := a.service(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			f.Month = time.Month(month)
			events, err := svc.ListEvents(ctx, f)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), events)
			}
			return printEvents(cmd.OutOrStdout(), events)
		},
	}
	cmd.Flags().IntVar(&f.Year, "year", 0, "only this year")
	cmd.Flags().IntVar(&month, "month", 0, "only this month, 1-12")
	cmd.Flags().StringVar(&f.Platform, "platform", "", "only platforms containing this text (accent and case insensitive)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

func newEventsAddCmd(a *app) *cobra.Command {
	var (
		date string
		ev   model.Event
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an event",
		Example: "  contentcal events add --date 2025-04-22 --title \"Earth Day reel\" \\\n" +
			"    --platform Instagram --occasion \"Earth Day\"",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := time.Parse(calendar.DateLayout, date)
			if err != nil {
				return fmt.Errorf("--date must be YYYY-MM-DD: %w", err)
			}
			ev.Date = d

			ctx := cmd.Context()
			svc, closeStore, err := a.service(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			added, err := svc.AddEvent(ctx, ev)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), added.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "date, YYYY-MM-DD")
	cmd.Flags().StringVar(&ev.Title, "title", "", "title")
	cmd.Flags().StringVar(&ev.Platform, "platform", "", "platform, e.g. Instagram")
	cmd.Flags().StringVar((*string)(&ev.Status), "status", "", "Planning, Design, Scheduled or Published (default Planning)")
	cmd.Flags().StringVar(&ev.Occasion, "occasion", "", "holiday or observance tie-in")
	cmd.Flags().StringVar(&ev.Notes, "notes", "", "free-form notes")
	_ = cmd.MarkFlagRequired("date")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("platform")
	return cmd
}

func newEventsDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID...",
		Short: "Delete events by ID",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, closeStore, err := a.service(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			for _, id := range args {
				if err := svc.DeleteEvent(ctx, id); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func printEvents(w io.Writer, events []model.Event) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tPLATFORM\tSTATUS\tTITLE\tOCCASION\tID")
	for _, ev := range events {
		date := "-"
		if ev.HasDate() {
			date = ev.Date.Format(calendar.DateLayout)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			date, ev.Platform, ev.Status, oneLine(ev.Title), oneLine(ev.Occasion), ev.ID)
	}
	return tw.Flush()
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
