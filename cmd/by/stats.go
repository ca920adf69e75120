package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/zulandar/bugyard/internal/bug"
	"github.com/zulandar/bugyard/internal/db"
	"github.com/zulandar/bugyard/internal/models"
)

func newStatsCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show bug counts by status, priority and severity",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Bugyard config file")
	return cmd
}

func runStats(cmd *cobra.Command, configPath string) error {
	_, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	defer db.Close(gormDB)

	s, err := bug.Stats(cmdContext(cmd), gormDB)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Total: %d  Open: %d  Resolved: %d\n\n", s.Total, s.Open, s.Resolved)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STATUS\tCOUNT")
	for _, st := range models.Statuses {
		fmt.Fprintf(w, "%s\t%d\n", st, s.StatusBreakdown[st])
	}
	fmt.Fprintln(w, "\t")
	fmt.Fprintln(w, "LEVEL\tPRIORITY\tSEVERITY")
	for _, l := range models.Levels {
		fmt.Fprintf(w, "%s\t%d\t%d\n", l, s.PriorityBreakdown[l], s.SeverityBreakdown[l])
	}
	w.Flush()
	return nil
}
