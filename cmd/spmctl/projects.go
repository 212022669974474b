package main

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"spm-client/internal/projects"
)

func projectsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "projects",
		Short: "List, create and archive projects",
	}
	cmd.AddCommand(projectsListCmd(a), projectsCreateCmd(a), projectsArchiveCmd(a))
	return cmd
}

func (a *app) projectsClient() (*projects.Client, error) {
	hc, err := a.service("projects", a.cfg.ProjectsAPIURL, false)
	if err != nil {
		return nil, err
	}
	return projects.NewClient(hc), nil
}

func projectsListCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List projects, most recently updated first",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.projectsClient()
			if err != nil {
				return err
			}
			list, err := c.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("list projects: %w", err)
			}
			if asJSON {
				return printJSON(a.out, list)
			}
			return printProjects(a.out, list)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the list as JSON")
	return cmd
}

func projectsCreateCmd(a *app) *cobra.Command {
	var in projects.CreateProjectInput
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a project",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.projectsClient()
			if err != nil {
				return err
			}
			p, err := c.Create(cmd.Context(), in)
			if err != nil {
				return fmt.Errorf("create project: %w", err)
			}
			return printJSON(a.out, p)
		},
	}
	f := cmd.Flags()
	f.StringVar(&in.Name, "name", "", "Project name")
	f.StringVar(&in.Owner, "owner", "", "Owner name")
	f.StringVar(&in.Status, "status", "", "Active or Archived")
	f.IntVar(&in.TasksTotal, "tasks-total", 0, "Total task count")
	f.IntVar(&in.TasksDone, "tasks-done", 0, "Completed task count")
	return cmd
}

func projectsArchiveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "archive <project-id>",
		Short: "Archive a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid project id %q", args[0])
			}
			c, err := a.projectsClient()
			if err != nil {
				return err
			}
			p, err := c.Archive(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("archive project: %w", err)
			}
			return printJSON(a.out, p)
		},
	}
}

func printProjects(w io.Writer, list []projects.Project) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tOWNER\tSTATUS\tPROGRESS")
	for _, p := range list {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d/%d (%.0f%%)\n",
			p.ID, p.Name, p.Owner, p.Status, p.TasksDone, p.TasksTotal, p.Progress()*100)
	}
	return tw.Flush()
}
