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

var nodeCmd = &cobra.Command{
	Use:   "node",
	Short: "Manage contributed nodes",
}

var nodeContributeCmd = &cobra.Command{
	Use:   "contribute",
	Short: "Offer a node's capacity to the cluster",
	Long: `Offer a node's capacity to the cluster.

The node's cpu must be at least its gpu and at least its memory.
Without --faculty the active assignment policy picks the faculty.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cpu, _ := cmd.Flags().GetFloat64("cpu")
		gpu, _ := cmd.Flags().GetFloat64("gpu")
		memory, _ := cmd.Flags().GetFloat64("memory")
		name, _ := cmd.Flags().GetString("name")
		url, _ := cmd.Flags().GetString("url")
		owner, _ := cmd.Flags().GetString("owner")
		faculty, _ := cmd.Flags().GetString("faculty")

		c := client.NewClient(serverAddr)
		result, err := c.ContributeNode(context.Background(), &manager.NodeContributionRequest{
			CPU:        cpu,
			GPU:        gpu,
			Memory:     memory,
			Name:       name,
			URL:        url,
			OwnerNetID: owner,
			FacultyID:  faculty,
		})
		if err != nil {
			return err
		}
		if !result.Accepted {
			return fmt.Errorf("contribution rejected: %s", result.Reason)
		}

		fmt.Printf("✓ Node %s joined faculty %s\n", result.Node.Name, result.Node.FacultyID)
		fmt.Printf("  ID: %s\n", result.Node.ID)
		return nil
	},
}

var nodeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List contributed nodes",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.NewClient(serverAddr)
		nodes, err := c.ListNodes(context.Background())
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tFACULTY\tOWNER\tCPU\tGPU\tMEMORY\tURL")
		for _, n := range nodes {
			fmt.Fprintf(w, "%s\t%s\t%s\t%g\t%g\t%g\t%s\n",
				n.Name, n.FacultyID, n.OwnerNetID,
				n.Capacity.CPU, n.Capacity.GPU, n.Capacity.Memory, n.URL)
		}
		return w.Flush()
	},
}

var nodeReleaseCmd = &cobra.Command{
	Use:   "release URL",
	Short: "Request removal of a node at the next daily cutover",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		owner, _ := cmd.Flags().GetString("owner")

		c := client.NewClient(serverAddr)
		if err := c.ReleaseNode(context.Background(), args[0], owner); err != nil {
			return err
		}
		fmt.Println("✓ Removal requested; the node leaves at the next cutover")
		return nil
	},
}

var nodeReleaseCancelCmd = &cobra.Command{
	Use:   "release-cancel URL",
	Short: "Cancel a pending node removal",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		owner, _ := cmd.Flags().GetString("owner")

		c := client.NewClient(serverAddr)
		if err := c.CancelRelease(context.Background(), args[0], owner); err != nil {
			return err
		}
		fmt.Println("✓ Removal cancelled")
		return nil
	},
}

var nodeRemoveCmd = &cobra.Command{
	Use:   "remove URL",
	Short: "Remove a node immediately (operator only)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.NewClient(serverAddr)
		node, err := c.RemoveNodeNow(context.Background(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("✓ Node %s removed from faculty %s\n", node.Name, node.FacultyID)
		return nil
	},
}

var nodePendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "List nodes awaiting the next cutover",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.NewClient(serverAddr)
		pending, err := c.ListPendingRemovals(context.Background())
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NODE ID\tREQUESTED BY\tREQUESTED AT")
		for _, p := range pending {
			fmt.Fprintf(w, "%s\t%s\t%s\n",
				p.NodeID, p.RequestedBy, p.RequestedAt.Format(time.RFC3339))
		}
		return w.Flush()
	},
}

func init() {
	nodeCmd.AddCommand(nodeContributeCmd)
	nodeCmd.AddCommand(nodeListCmd)
	nodeCmd.AddCommand(nodeReleaseCmd)
	nodeCmd.AddCommand(nodeReleaseCancelCmd)
	nodeCmd.AddCommand(nodeRemoveCmd)
	nodeCmd.AddCommand(nodePendingCmd)

	nodeContributeCmd.Flags().Float64("cpu", 0, "CPU capacity")
	nodeContributeCmd.Flags().Float64("gpu", 0, "GPU capacity")
	nodeContributeCmd.Flags().Float64("memory", 0, "Memory capacity")
	nodeContributeCmd.Flags().String("name", "", "Node name")
	nodeContributeCmd.Flags().String("url", "", "Node URL (unique)")
	nodeContributeCmd.Flags().String("owner", "", "Owner NetID")
	nodeContributeCmd.Flags().String("faculty", "", "Faculty to join (optional)")
	nodeContributeCmd.MarkFlagRequired("url")
	nodeContributeCmd.MarkFlagRequired("owner")

	nodeReleaseCmd.Flags().String("owner", "", "Owner NetID")
	nodeReleaseCmd.MarkFlagRequired("owner")
	nodeReleaseCancelCmd.Flags().String("owner", "", "Owner NetID")
	nodeReleaseCancelCmd.MarkFlagRequired("owner")
}
