package cmd

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/teemow/slotbook/internal/booking"
	"github.com/teemow/slotbook/internal/tools/scheduling_tools"
)

// cancelTimeLayout is the UTC start time accepted by the cancel command.
const cancelTimeLayout = "2006-01-02T15:04"

func newSlotsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "slots",
		Short: "Show free 30-minute slots in the next 24 hours",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "next",
		Short: "Show the earliest free slot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setupApp()
			if err != nil {
				return err
			}
			defer a.Close()

			slot, err := a.scheduler.NextSlot(cmd.Context())
			if booking.IsNotFound(err) {
				fmt.Fprintln(cmd.OutOrStdout(), scheduling_tools.NoSlotsMessage)
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), slot)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "all",
		Short: "Show every free slot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setupApp()
			if err != nil {
				return err
			}
			defer a.Close()

			slots, err := a.scheduler.AllSlots(cmd.Context())
			if booking.IsNotFound(err) {
				fmt.Fprintln(cmd.OutOrStdout(), scheduling_tools.NoSlotsMessage)
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(slots, "\n"))
			return nil
		},
	})

	return cmd
}

func newBookCmd() *cobra.Command {
	var req booking.BookingRequest

	cmd := &cobra.Command{
		Use:   "book",
		Short: "Book a slot with a Google Meet link",
		Long: `Book a 30-minute appointment in a slot printed by "slotbook slots".
The signed-in user and ADMIN_EMAIL are invited.`,
		Example: `  slotbook book --slot "2024-01-01 08:00 to 2024-01-01 08:30 (CDT)" --first-name Ada --last-name Lovelace`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := cfg.RequireAdminEmail(); err != nil {
				return err
			}
			a, err := newApp(cfg, nil, nil)
			if err != nil {
				return err
			}
			defer a.Close()

			confirmation, err := a.scheduler.Book(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), confirmation.Message())
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Slot, "slot", "", "Slot string exactly as printed by the slots command")
	cmd.Flags().StringVar(&req.FirstName, "first-name", "", "Guest first name")
	cmd.Flags().StringVar(&req.LastName, "last-name", "", "Guest last name")
	_ = cmd.MarkFlagRequired("slot")
	_ = cmd.MarkFlagRequired("first-name")
	_ = cmd.MarkFlagRequired("last-name")

	return cmd
}

func newCancelCmd() *cobra.Command {
	var at string

	cmd := &cobra.Command{
		Use:     "cancel",
		Short:   "Cancel the appointment starting at a UTC time",
		Example: `  slotbook cancel --at 2024-01-01T14:00`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := parseCancellationKey(at)
			if err != nil {
				return err
			}

			a, err := setupApp()
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.scheduler.Cancel(cmd.Context(), key)
			if booking.IsNotFound(err) {
				fmt.Fprintf(cmd.OutOrStdout(), "No appointment at %s\n", key.Start().Format(time.RFC3339))
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), result.Message())
			return nil
		},
	}

	cmd.Flags().StringVar(&at, "at", "", "Start time in UTC, formatted as YYYY-MM-DDTHH:MM")
	_ = cmd.MarkFlagRequired("at")

	return cmd
}

// parseCancellationKey reads a YYYY-MM-DDTHH:MM UTC start time.
func parseCancellationKey(at string) (booking.CancellationKey, error) {
	t, err := time.Parse(cancelTimeLayout, strings.TrimSpace(at))
	if err != nil {
		return booking.CancellationKey{}, fmt.Errorf("invalid --at %q: expected YYYY-MM-DDTHH:MM in UTC", at)
	}
	return booking.CancellationKey{
		Year:   t.Year(),
		Month:  int(t.Month()),
		Day:    t.Day(),
		Hour:   t.Hour(),
		Minute: t.Minute(),
	}, nil
}

func newUpcomingCmd() *cobra.Command {
	var (
		limit      int64
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "upcoming",
		Short: "List upcoming calendar entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setupApp()
			if err != nil {
				return err
			}
			defer a.Close()

			appointments, err := a.scheduler.Upcoming(cmd.Context(), limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(appointments)
			}
			if len(appointments) == 0 {
				fmt.Fprintln(out, "No upcoming appointments.")
				return nil
			}
			for _, appt := range appointments {
				fmt.Fprintf(out, "%s  %s  %s\n", appt.Start, appt.Summary, appt.ID)
			}
			return nil
		},
	}

	cmd.Flags().Int64Var(&limit, "max", booking.DefaultUpcomingLimit, fmt.Sprintf("Maximum number of entries (at most %d)", booking.MaxUpcomingLimit))
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print JSON")

	return cmd
}
