package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/gridpool/gridpool/pkg/client"
)

var resourcesCmd = &cobra.Command{
	Use:   "resources",
	Short: "Query assigned, reserved, and available resources",
}

func parseDateFlag(cmd *cobra.Command, name string) (time.Time, error) {
	raw, _ := cmd.Flags().GetString(name)
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s must be formatted as YYYY-MM-DD", name)
	}
	return t, nil
}

var resourcesAssignedCmd = &cobra.Command{
	Use:   "assigned",
	Short: "Show capacity assigned per faculty",
	RunE: func(cmd *cobra.Command, args []string) error {
		faculty, _ := cmd.Flags().GetString("faculty")

		c := client.NewClient(serverAddr)
		totals, err := c.AssignedTotals(context.Background(), faculty)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "FACULTY\tCPU\tGPU\tMEMORY")
		for _, t := range totals {
			fmt.Fprintf(w, "%s\t%g\t%g\t%g\n",
				t.FacultyID, t.Assigned.CPU, t.Assigned.GPU, t.Assigned.Memory)
		}
		return w.Flush()
	},
}

var resourcesReservedCmd = &cobra.Command{
	Use:   "reserved",
	Short: "Show capacity reserved per faculty per day",
	RunE: func(cmd *cobra.Command, args []string) error {
		faculty, _ := cmd.Flags().GetString("faculty")
		date, err := parseDateFlag(cmd, "date")
		if err != nil {
			return err
		}

		c := client.NewClient(serverAddr)
		totals, err := c.ReservedTotals(context.Background(), faculty, date)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "FACULTY\tDATE\tCPU\tGPU\tMEMORY")
		for _, t := range totals {
			fmt.Fprintf(w, "%s\t%s\t%g\t%g\t%g\n",
				t.FacultyID, t.Date.Format(time.DateOnly),
				t.Reserved.CPU, t.Reserved.GPU, t.Reserved.Memory)
		}
		return w.Flush()
	},
}

var resourcesAvailableCmd = &cobra.Command{
	Use:   "available",
	Short: "Show derived availability per faculty per day",
	RunE: func(cmd *cobra.Command, args []string) error {
		faculty, _ := cmd.Flags().GetString("faculty")
		date, err := parseDateFlag(cmd, "date")
		if err != nil {
			return err
		}
		until, err := parseDateFlag(cmd, "until")
		if err != nil {
			return err
		}

		c := client.NewClient(serverAddr)
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "FACULTY\tDATE\tCPU\tGPU\tMEMORY")

		if !until.IsZero() {
			if faculty == "" {
				return fmt.Errorf("--faculty is required with --until")
			}
			series, err := c.AvailableUntil(context.Background(), faculty, until)
			if err != nil {
				return err
			}
			for _, e := range series {
				fmt.Fprintf(w, "%s\t%s\t%g\t%g\t%g\n",
					faculty, e.Date.Format(time.DateOnly),
					e.Available.CPU, e.Available.GPU, e.Available.Memory)
			}
			return w.Flush()
		}

		rows, err := c.AvailableTotals(context.Background(), faculty, date)
		if err != nil {
			return err
		}
		for _, r := range rows {
			fmt.Fprintf(w, "%s\t%s\t%g\t%g\t%g\n",
				r.FacultyID, r.Date.Format(time.DateOnly),
				r.Available.CPU, r.Available.GPU, r.Available.Memory)
		}
		return w.Flush()
	},
}

var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Manage the active scheduling policies",
}

var policySetCmd = &cobra.Command{
	Use:   "set",
	Short: "Swap the active job and/or assignment policy",
	RunE: func(cmd *cobra.Command, args []string) error {
		job, _ := cmd.Flags().GetString("job")
		assignment, _ := cmd.Flags().GetString("assignment")
		if job == "" && assignment == "" {
			return fmt.Errorf("at least one of --job or --assignment is required")
		}

		c := client.NewClient(serverAddr)
		if err := c.SetPolicies(context.Background(), job, assignment); err != nil {
			return err
		}
		fmt.Println("✓ Policies updated")
		return nil
	},
}

func init() {
	resourcesCmd.AddCommand(resourcesAssignedCmd)
	resourcesCmd.AddCommand(resourcesReservedCmd)
	resourcesCmd.AddCommand(resourcesAvailableCmd)
	policyCmd.AddCommand(policySetCmd)

	resourcesAssignedCmd.Flags().String("faculty", "", "Limit to one faculty")
	resourcesReservedCmd.Flags().String("faculty", "", "Limit to one faculty")
	resourcesReservedCmd.Flags().String("date", "", "Limit to one day (YYYY-MM-DD)")
	resourcesAvailableCmd.Flags().String("faculty", "", "Limit to one faculty")
	resourcesAvailableCmd.Flags().String("date", "", "Limit to one day (YYYY-MM-DD)")
	resourcesAvailableCmd.Flags().String("until", "", "Day-by-day series through this date (requires --faculty)")

	policySetCmd.Flags().String("job", "", "Job scheduling policy: earliest-fit | latest-acceptable | least-busy")
	policySetCmd.Flags().String("assignment", "", "Node assignment policy: least-loaded | random")
}
