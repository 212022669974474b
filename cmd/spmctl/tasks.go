package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"spm-client/internal/tasks"
)

func tasksCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "List, create and move tasks",
	}
	cmd.AddCommand(tasksListCmd(a), tasksCreateCmd(a), tasksMoveCmd(a), tasksAttachCmd(a))
	return cmd
}

func (a *app) tasksClient() (*tasks.Client, error) {
	hc, err := a.service("tasks", a.cfg.TasksAPIURL, true)
	if err != nil {
		return nil, err
	}
	return tasks.NewClient(hc), nil
}

func tasksListCmd(a *app) *cobra.Command {
	var asJSON, groups bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print the de-duplicated task list",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.tasksClient()
			if err != nil {
				return err
			}
			p, err := c.ListPayload(cmd.Context())
			if err != nil {
				return fmt.Errorf("list tasks: %w", err)
			}
			if groups {
				return printGroups(a.out, p)
			}
			list := tasks.Normalize(p)
			a.log.Debug("tasks normalized", "shape", p.Shape(), "count", len(list))
			if asJSON {
				return printJSON(a.out, list)
			}
			return printTasks(a.out, list)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the list as a JSON array")
	cmd.Flags().BoolVar(&groups, "groups", false, "Print team group keys and counts instead of tasks")
	return cmd
}

func tasksCreateCmd(a *app) *cobra.Command {
	var (
		in                            tasks.CreateTaskInput
		priority, projectID, parentID int
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a task",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("priority") {
				in.Priority = &priority
			}
			if cmd.Flags().Changed("project") {
				in.ProjectID = &projectID
			}
			if cmd.Flags().Changed("parent") {
				in.ParentID = &parentID
			}
			c, err := a.tasksClient()
			if err != nil {
				return err
			}
			raw, err := c.Create(cmd.Context(), in)
			if err != nil {
				return fmt.Errorf("create task: %w", err)
			}
			return printJSON(a.out, raw)
		},
	}
	f := cmd.Flags()
	f.StringVar(&in.Title, "title", "", "Task title")
	f.StringVar(&in.Description, "description", "", "Task description")
	f.StringVar(&in.Deadline, "deadline", "", "Deadline (YYYY-MM-DD or YYYY-MM-DDTHH:MM)")
	f.IntVar(&in.EmployeeID, "employee-id", 0, "Creating employee id")
	f.StringVar(&in.Role, "role", "Staff", "Creating employee role: Staff, Manager, Director or HR")
	f.IntVar(&priority, "priority", 0, "Priority from 1 to 10")
	f.IntVar(&projectID, "project", 0, "Project id")
	f.IntVar(&parentID, "parent", 0, "Parent task id, for subtasks")
	f.IntSliceVar(&in.Collaborators, "collaborator", nil, "Collaborator employee id (repeatable)")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("deadline")
	return cmd
}

func tasksMoveCmd(a *app) *cobra.Command {
	var owner int
	cmd := &cobra.Command{
		Use:   "move <task-id> <project-id>",
		Short: "Move a task to another project",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			taskID, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid task id %q", args[0])
			}
			projectID, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid project id %q", args[1])
			}
			c, err := a.tasksClient()
			if err != nil {
				return err
			}
			raw, err := c.UpdateProject(cmd.Context(), taskID, projectID, owner)
			if err != nil {
				return fmt.Errorf("move task: %w", err)
			}
			return printJSON(a.out, raw)
		},
	}
	cmd.Flags().IntVar(&owner, "owner", 0, "New owner employee id")
	_ = cmd.MarkFlagRequired("owner")
	return cmd
}

func tasksAttachCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "attach <file>",
		Short: "Upload a pdf or image and print the path to pass as --attachment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			c, err := a.tasksClient()
			if err != nil {
				return err
			}
			att, err := c.UploadAttachment(cmd.Context(), args[0], f)
			if err != nil {
				return fmt.Errorf("upload attachment: %w", err)
			}
			_, err = fmt.Fprintln(a.out, att.FilePath)
			return err
		},
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printTasks writes one line per task; records that do not fit the typed
// view are printed raw.
func printTasks(w io.Writer, list []tasks.Task) error {
	for _, t := range list {
		var rec tasks.Record
		line := t.String()
		if err := t.Decode(&rec); err == nil {
			line = rec.String()
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func printGroups(w io.Writer, p tasks.Payload) error {
	fmt.Fprintf(w, "shape: %s\n", p.Shape())
	switch v := p.(type) {
	case tasks.FlatPayload:
		fmt.Fprintf(w, "tasks: %d\n", len(v.Tasks))
	case tasks.SplitPayload:
		fmt.Fprintf(w, "mine: %d\n", len(v.Mine))
		for _, g := range v.Groups {
			fmt.Fprintf(w, "team %q: %d\n", g.Key, len(g.Tasks))
		}
	}
	return nil
}
