package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/gridpool/gridpool/pkg/client"
	"github.com/gridpool/gridpool/pkg/manager"
)

var jobCmd = &cobra.Command{
	Use:   "job",
	Short: "Manage scheduled jobs",
}

var jobSubmitCmd = &cobra.Command{
	Use:   "submit NAME",
	Short: "Submit a resource request through a faculty",
	Long: `Submit a resource request through a faculty.

The engine schedules the job on or before the preferred completion
date when capacity allows, and on the earliest later day otherwise.
The required cpu must be at least the required gpu and at least the
required memory.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		faculty, _ := cmd.Flags().GetString("faculty")
		requester, _ := cmd.Flags().GetString("requester")
		description, _ := cmd.Flags().GetString("description")
		cpu, _ := cmd.Flags().GetFloat64("cpu")
		gpu, _ := cmd.Flags().GetFloat64("gpu")
		memory, _ := cmd.Flags().GetFloat64("memory")
		preferredRaw, _ := cmd.Flags().GetString("preferred-date")

		preferred, err := time.Parse(time.DateOnly, preferredRaw)
		if err != nil {
			return fmt.Errorf("--preferred-date must be formatted as YYYY-MM-DD")
		}

		c := client.NewClient(serverAddr)
		result, err := c.SubmitJob(context.Background(), &manager.JobRequest{
			FacultyID:               faculty,
			RequesterNetID:          requester,
			Name:                    args[0],
			Description:             description,
			RequiredCPU:             cpu,
			RequiredGPU:             gpu,
			RequiredMemory:          memory,
			PreferredCompletionDate: preferred,
		})
		if err != nil {
			return err
		}
		if !result.Accepted {
			return fmt.Errorf("job rejected: %s", result.Reason)
		}

		fmt.Printf("✓ Job %s scheduled for %s\n",
			result.Job.Name, result.Job.ScheduledFor.Format(time.DateOnly))
		fmt.Printf("  ID: %s\n", result.Job.ID)
		return nil
	},
}

var jobListCmd = &cobra.Command{
	Use:   "list",
	Short: "List scheduled jobs",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.NewClient(serverAddr)
		jobs, err := c.ListJobs(context.Background())
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tFACULTY\tREQUESTER\tCPU\tGPU\tMEMORY\tPREFERRED\tSCHEDULED")
		for _, j := range jobs {
			scheduled := "-"
			if j.Scheduled() {
				scheduled = j.ScheduledFor.Format(time.DateOnly)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%g\t%g\t%g\t%s\t%s\n",
				j.Name, j.FacultyID, j.RequesterNetID,
				j.Required.CPU, j.Required.GPU, j.Required.Memory,
				j.PreferredCompletionDate.Format(time.DateOnly), scheduled)
		}
		return w.Flush()
	},
}

func init() {
	jobCmd.AddCommand(jobSubmitCmd)
	jobCmd.AddCommand(jobListCmd)

	jobSubmitCmd.Flags().String("faculty", "", "Faculty to request through")
	jobSubmitCmd.Flags().String("requester", "", "Requester NetID")
	jobSubmitCmd.Flags().String("description", "", "Job description")
	jobSubmitCmd.Flags().Float64("cpu", 0, "Required CPU")
	jobSubmitCmd.Flags().Float64("gpu", 0, "Required GPU")
	jobSubmitCmd.Flags().Float64("memory", 0, "Required memory")
	jobSubmitCmd.Flags().String("preferred-date", "", "Preferred completion date (YYYY-MM-DD)")
	jobSubmitCmd.MarkFlagRequired("faculty")
	jobSubmitCmd.MarkFlagRequired("requester")
	jobSubmitCmd.MarkFlagRequired("preferred-date")
}
