package main

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/zulandar/bugyard/internal/bug"
	"github.com/zulandar/bugyard/internal/db"
	"github.com/zulandar/bugyard/internal/models"
)

func newBugCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bug",
		Short: "Bug management commands",
	}

	cmd.AddCommand(newBugCreateCmd())
	cmd.AddCommand(newBugListCmd())
	cmd.AddCommand(newBugShowCmd())
	cmd.AddCommand(newBugUpdateCmd())
	cmd.AddCommand(newBugStatusCmd())
	cmd.AddCommand(newBugCommentCmd())
	cmd.AddCommand(newBugDeleteCmd())
	return cmd
}

// patchFlags binds the editable bug fields to flags. Only flags the user
// actually set end up in the Patch.
type patchFlags struct {
	title, description, reporter, status, priority, severity string
	assignee, steps, expected, actual, environment           string
	tags                                                     []string
}

func (f *patchFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.title, "title", "", "short summary (max 100 characters)")
	fs.StringVar(&f.description, "description", "", "full description")
	fs.StringVar(&f.reporter, "reporter", "", "who reported the bug")
	fs.StringVar(&f.status, "status", "", "status (open, in-progress, resolved, closed)")
	fs.StringVar(&f.priority, "priority", "", "priority (low, medium, high, critical)")
	fs.StringVar(&f.severity, "severity", "", "severity (low, medium, high, critical)")
	fs.StringVar(&f.assignee, "assignee", "", "who is working on it")
	fs.StringVar(&f.steps, "steps", "", "steps to reproduce")
	fs.StringVar(&f.expected, "expected", "", "expected behavior")
	fs.StringVar(&f.actual, "actual", "", "actual behavior")
	fs.StringVar(&f.environment, "environment", "", "environment (OS, browser, version)")
	fs.StringSliceVar(&f.tags, "tag", nil, "tag (repeatable or comma-separated)")
}

func (f *patchFlags) patch(fs *pflag.FlagSet) bug.Patch {
	var p bug.Patch
	pick := func(name string, v string) *string {
		if !fs.Changed(name) {
			return nil
		}
		return &v
	}
	p.Title = pick("title", f.title)
	p.Description = pick("description", f.description)
	p.Reporter = pick("reporter", f.reporter)
	p.Status = pick("status", f.status)
	p.Priority = pick("priority", f.priority)
	p.Severity = pick("severity", f.severity)
	p.AssignedTo = pick("assignee", f.assignee)
	p.StepsToReproduce = pick("steps", f.steps)
	p.ExpectedBehavior = pick("expected", f.expected)
	p.ActualBehavior = pick("actual", f.actual)
	p.Environment = pick("environment", f.environment)
	if fs.Changed("tag") {
		tags := append([]string(nil), f.tags...)
		p.Tags = &tags
	}
	return p
}

func newBugCreateCmd() *cobra.Command {
	var (
		configPath string
		flags      patchFlags
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Report a new bug",
		Long:  "Creates a bug. Title, description and reporter are required; status, priority and severity default to open/medium/medium.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBugCreate(cmd, configPath, flags.patch(cmd.Flags()))
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Bugyard config file")
	flags.register(cmd.Flags())
	return cmd
}

func runBugCreate(cmd *cobra.Command, configPath string, p bug.Patch) error {
	_, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	defer db.Close(gormDB)

	b, err := bug.Create(cmdContext(cmd), gormDB, p)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created bug %s\n", b.ID)
	fmt.Fprintf(out, "Status: %s  Priority: %s  Severity: %s\n", b.Status, b.Priority, b.Severity)
	return nil
}

func newBugListCmd() *cobra.Command {
	var (
		configPath string
		params     bug.ListParams
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List bugs",
		Long:  "Lists one page of bugs with optional filters, search and sort. Output is formatted as a table.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBugList(cmd, configPath, params)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Bugyard config file")
	cmd.Flags().StringVar(&params.Status, "status", "", "filter by status")
	cmd.Flags().StringVar(&params.Priority, "priority", "", "filter by priority")
	cmd.Flags().StringVar(&params.Severity, "severity", "", "filter by severity")
	cmd.Flags().StringVar(&params.Search, "search", "", "match any word in title or description")
	cmd.Flags().StringVar(&params.Sort, "sort", "", "sort field, prefix with - for descending (default -createdAt)")
	cmd.Flags().StringVar(&params.Page, "page", "", "page number (default 1)")
	cmd.Flags().StringVar(&params.Limit, "limit", "", "page size, 1-100 (default 10)")
	return cmd
}

func runBugList(cmd *cobra.Command, configPath string, params bug.ListParams) error {
	plan, err := bug.BuildPlan(params)
	if err != nil {
		return err
	}

	_, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	defer db.Close(gormDB)

	bugs, total, err := bug.List(cmdContext(cmd), gormDB, plan)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(bugs) == 0 {
		fmt.Fprintln(out, "No bugs found.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tPRIORITY\tSEVERITY\tAGE\tTITLE")
	for _, b := range bugs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			b.ID, b.Status, b.Priority, b.Severity, formatAge(b.Age), truncate(b.Title, 50))
	}
	w.Flush()
	fmt.Fprintf(out, "\nPage %d/%d (%d total)\n", plan.Page, plan.Pages(total), total)
	return nil
}

func newBugShowCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show bug details",
		Long:  "Displays every field of a bug, followed by its comments in the order they were added.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBugShow(cmd, configPath, args[0])
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Bugyard config file")
	return cmd
}

func runBugShow(cmd *cobra.Command, configPath, id string) error {
	_, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	defer db.Close(gormDB)

	b, err := bug.Get(cmdContext(cmd), gormDB, id)
	if err != nil {
		return err
	}
	printBug(cmd, b)
	return nil
}

func printBug(cmd *cobra.Command, b *models.Bug) {
	out := cmd.OutOrStdout()
	assignee := ""
	if b.AssignedTo != nil {
		assignee = *b.AssignedTo
	}

	fmt.Fprintf(out, "Bug: %s\n", b.ID)
	fmt.Fprintf(out, "Title:       %s\n", b.Title)
	fmt.Fprintf(out, "Status:      %s\n", b.Status)
	fmt.Fprintf(out, "Priority:    %s\n", b.Priority)
	fmt.Fprintf(out, "Severity:    %s\n", b.Severity)
	fmt.Fprintf(out, "Reporter:    %s\n", b.Reporter)
	fmt.Fprintf(out, "Assigned To: %s\n", orDash(assignee))
	fmt.Fprintf(out, "Tags:        %s\n", orDash(strings.Join(b.Tags, ", ")))
	fmt.Fprintf(out, "Created:     %s (%s)\n", b.CreatedAt.Format(time.RFC3339), formatAge(b.Age))
	fmt.Fprintf(out, "Updated:     %s\n", b.UpdatedAt.Format(time.RFC3339))

	section := func(name, body string) {
		if body == "" {
			return
		}
		fmt.Fprintf(out, "\n%s:\n  %s\n", name, strings.ReplaceAll(body, "\n", "\n  "))
	}
	section("Description", b.Description)
	section("Steps to Reproduce", b.StepsToReproduce)
	section("Expected Behavior", b.ExpectedBehavior)
	section("Actual Behavior", b.ActualBehavior)
	section("Environment", b.Environment)

	if len(b.Attachments) > 0 {
		fmt.Fprintln(out, "\nAttachments:")
		for _, a := range b.Attachments {
			fmt.Fprintf(out, "  %s  %s\n", a.Filename, a.URL)
		}
	}

	if len(b.Comments) > 0 {
		fmt.Fprintf(out, "\nComments (%d):\n", len(b.Comments))
		for _, c := range b.Comments {
			fmt.Fprintf(out, "  [%s] %s: %s\n", c.CreatedAt.Format("2006-01-02 15:04"), c.Author, c.Content)
		}
	}
}

func newBugUpdateCmd() *cobra.Command {
	var (
		configPath string
		flags      patchFlags
		unassign   bool
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update bug fields",
		Long:  "Changes only the fields given as flags. The result is validated as a whole before it is saved.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := flags.patch(cmd.Flags())
			p.Unassign = unassign
			return runBugUpdate(cmd, configPath, args[0], p)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Bugyard config file")
	flags.register(cmd.Flags())
	cmd.Flags().BoolVar(&unassign, "unassign", false, "clear the assignee")
	cmd.MarkFlagsMutuallyExclusive("assignee", "unassign")
	return cmd
}

func runBugUpdate(cmd *cobra.Command, configPath, id string, p bug.Patch) error {
	_, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	defer db.Close(gormDB)

	b, err := bug.Update(cmdContext(cmd), gormDB, id, p)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Updated bug %s\n", b.ID)
	return nil
}

func newBugStatusCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "status <id> <status>",
		Short: "Change a bug's status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBugStatus(cmd, configPath, args[0], args[1])
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Bugyard config file")
	return cmd
}

func runBugStatus(cmd *cobra.Command, configPath, id, status string) error {
	_, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	defer db.Close(gormDB)

	b, err := bug.UpdateStatus(cmdContext(cmd), gormDB, id, status)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Bug %s is now %s\n", b.ID, b.Status)
	return nil
}

func newBugCommentCmd() *cobra.Command {
	var (
		configPath string
		author     string
	)

	cmd := &cobra.Command{
		Use:   "comment <id> <text>",
		Short: "Add a comment to a bug",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBugComment(cmd, configPath, args[0], author, args[1])
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Bugyard config file")
	cmd.Flags().StringVar(&author, "author", "", "comment author (required)")
	cmd.MarkFlagRequired("author")
	return cmd
}

func runBugComment(cmd *cobra.Command, configPath, id, author, content string) error {
	_, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	defer db.Close(gormDB)

	b, err := bug.AddComment(cmdContext(cmd), gormDB, id, author, content)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Added comment to bug %s (%d total)\n", b.ID, len(b.Comments))
	return nil
}

func newBugDeleteCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a bug and its comments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBugDelete(cmd, configPath, args[0])
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Bugyard config file")
	return cmd
}

func runBugDelete(cmd *cobra.Command, configPath, id string) error {
	_, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	defer db.Close(gormDB)

	if err := bug.Delete(cmdContext(cmd), gormDB, id); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted bug %s\n", id)
	return nil
}

// cmdContext returns the command's context, or Background when run
// without one (as in tests calling RunE directly).
func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
