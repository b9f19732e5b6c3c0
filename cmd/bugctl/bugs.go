package main

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/bugboard/bugboard/internal/bugs/domain"
	"github.com/bugboard/bugboard/internal/bugs/service"
)

var bugsCmd = &cobra.Command{
	Use:     "bugs",
	Aliases: []string{"bug"},
	Short:   "List and work on bugs",
}

func bugRows(tw table.Writer, bugs []domain.Bug, withProject bool) {
	for _, b := range bugs {
		assignee := "Unassigned"
		if b.AssignedTo != nil {
			assignee = b.AssignedTo.DisplayName()
		}
		row := table.Row{b.ID, b.Title, b.Status.Label(), b.Priority, assignee, shortDate(b.CreatedAt)}
		if withProject {
			row = append(row, b.Project.Name)
		}
		tw.AppendRow(row)
	}
}

func newBugsListCmd() *cobra.Command {
	var f domain.Filters
	var limit, skip int
	cmd := &cobra.Command{
		Use:   "ls [project-id]",
		Short: "List the bugs of a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd)
			if err != nil {
				return err
			}
			if err := e.requireSession(cmd.Context()); err != nil {
				return err
			}
			if cmd.Flags().Changed("limit") {
				f = f.WithLimit(limit)
			}
			if cmd.Flags().Changed("skip") {
				f = f.WithSkip(skip)
			}
			view := service.NewCollection(e.api(), e.notes).List(cmd.Context(), args[0], f)
			if view.Err != nil {
				return view.Err
			}
			if view.Empty() {
				cmd.Println(view.EmptyText())
				return nil
			}

			tw := newTable()
			tw.AppendHeader(table.Row{"ID", "TITLE", "STATUS", "PRIORITY", "ASSIGNEE", "CREATED AT"})
			bugRows(tw, view.Bugs, false)
			cmd.Printf("%s\n", tw.Render())
			if view.HasMore {
				cmd.Printf("%d of %d shown, next page: --skip %d\n", len(view.Bugs), view.TotalCount, view.NextSkip())
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&f.Status, "status", "", "Filter by status")
	cmd.Flags().StringVar(&f.Priority, "priority", "", "Filter by priority")
	cmd.Flags().StringVar(&f.AssignedTo, "assignee", "", "Filter by assignee user id")
	cmd.Flags().StringVar(&f.SortBy, "sort", "", "Sort field: createdAt, priority, status or title")
	cmd.Flags().StringVar(&f.SortOrder, "order", "", "Sort order: asc or desc")
	cmd.Flags().StringVarP(&f.SearchText, "search", "q", "", "Search title and description")
	cmd.Flags().IntVar(&limit, "limit", 0, "Page size")
	cmd.Flags().IntVar(&skip, "skip", 0, "Bugs to skip")
	return cmd
}

func newBugsMineCmd() *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "mine",
		Short: "List bugs assigned to you across all projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd)
			if err != nil {
				return err
			}
			if err := e.requireSession(cmd.Context()); err != nil {
				return err
			}
			projects, err := e.api().Projects(cmd.Context())
			if err != nil {
				return err
			}
			opts := service.MyBugsOptions{}
			opts.PerProject.Status = status
			res := service.NewCollection(e.api(), e.notes).MyBugs(cmd.Context(), e.session.UserID(), projects, opts)
			if len(res.Failed) > 0 {
				cmd.PrintErrf("could not load bugs of %d project(s): %s\n", len(res.Failed), strings.Join(res.Failed, ", "))
			}
			if len(res.Bugs) == 0 {
				cmd.Println(service.NoBugsFound)
				return nil
			}

			tw := newTable()
			tw.AppendHeader(table.Row{"ID", "TITLE", "STATUS", "PRIORITY", "ASSIGNEE", "CREATED AT", "PROJECT"})
			bugRows(tw, res.Bugs, true)
			cmd.Printf("%s\n", tw.Render())
			return nil
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "Filter by status")
	return cmd
}

// loadBug opens a controller on the bug named by args. The caller closes it.
func loadBug(cmd *cobra.Command, args []string) (*env, *service.Controller, error) {
	e, err := newEnv(cmd)
	if err != nil {
		return nil, nil, err
	}
	if err := e.requireSession(cmd.Context()); err != nil {
		return nil, nil, err
	}
	ctrl := service.NewController(e.api(), e.notes, args[0], args[1])
	if err := ctrl.Load(cmd.Context()); err != nil {
		return nil, nil, err
	}
	return e, ctrl, nil
}

func newBugShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [project-id] [bug-id]",
		Short: "Show a bug with its activity",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, ctrl, err := loadBug(cmd, args)
			if err != nil {
				return err
			}
			defer ctrl.Close()
			b := ctrl.Bug()

			assignee := "Unassigned"
			if b.AssignedTo != nil {
				assignee = b.AssignedTo.DisplayName()
			}
			cmd.Printf("%s\n%s\n\n", b.Title, strings.Repeat("=", len([]rune(b.Title))))
			cmd.Printf("Project:   %s\n", ctrl.ProjectName())
			cmd.Printf("Status:    %s\n", b.Status.Label())
			cmd.Printf("Priority:  %s\n", b.Priority)
			cmd.Printf("Assignee:  %s\n", assignee)
			if b.ReportedBy != nil {
				cmd.Printf("Reporter:  %s\n", b.ReportedBy.DisplayName())
			}
			cmd.Printf("Created:   %s\n\n", shortDate(b.CreatedAt))
			if b.Description != "" {
				cmd.Printf("%s\n\n", b.Description)
			}

			tw := newTable()
			tw.AppendHeader(table.Row{"WHEN", "WHO", "WHAT"})
			for _, a := range ctrl.Activity() {
				who := "Unknown"
				if a.Actor != nil {
					who = a.Actor.DisplayName()
				}
				var what string
				if a.Change != nil {
					what = fmt.Sprintf("%s: %s -> %s", a.Change.Field,
						domain.FormatValue(a.Change.OldValue), domain.FormatValue(a.Change.NewValue))
					if a.Change.Comment != "" {
						what += " (" + a.Change.Comment + ")"
					}
				} else if a.Comment != nil {
					what = a.Comment.Content
				}
				tw.AppendRow(table.Row{shortDate(a.At), who, what})
			}
			cmd.Printf("%s\n", tw.Render())
			return nil
		},
	}
}

func newBugStatusCmd() *cobra.Command {
	var comment, priority string
	cmd := &cobra.Command{
		Use:   "status [project-id] [bug-id] [status]",
		Short: "Change the status and optionally the priority of a bug",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, ctrl, err := loadBug(cmd, args)
			if err != nil {
				return err
			}
			defer ctrl.Close()
			if err := ctrl.BeginEdit(); err != nil {
				return err
			}
			edit, _ := ctrl.Editing()
			p := edit.Priority
			if priority != "" {
				p = domain.Priority(priority)
			}
			if err := ctrl.Stage(p, domain.Status(args[2]), comment); err != nil {
				return err
			}
			return ctrl.SubmitEdit(cmd.Context())
		},
	}
	cmd.Flags().StringVarP(&comment, "comment", "m", "", "Why the status changes")
	cmd.Flags().StringVar(&priority, "priority", "", "New priority")
	return cmd
}

func newBugAssignCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "assign [project-id] [bug-id] [user-id]",
		Short: "Assign a bug to a project member",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, ctrl, err := loadBug(cmd, args)
			if err != nil {
				return err
			}
			defer ctrl.Close()
			if !ctrl.Membership(e.session.UserID()).Capabilities.CanAssign {
				return fmt.Errorf("your role in this project cannot assign bugs")
			}
			ctrl.OpenAssign()
			return ctrl.Assign(cmd.Context(), args[2])
		},
	}
}

func newBugCommentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "comment [project-id] [bug-id] [text]",
		Short: "Add a comment to a bug",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, ctrl, err := loadBug(cmd, args)
			if err != nil {
				return err
			}
			defer ctrl.Close()
			ctrl.SetDraft(strings.Join(args[2:], " "))
			return ctrl.SubmitComment(cmd.Context())
		},
	}
}

func newBugCreateCmd() *cobra.Command {
	var form service.CreateForm
	cmd := &cobra.Command{
		Use:   "create [project-id] [title]",
		Short: "Report a new bug",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd)
			if err != nil {
				return err
			}
			if err := e.requireSession(cmd.Context()); err != nil {
				return err
			}
			form.Title = args[1]
			b, err := service.NewCollection(e.api(), e.notes).Create(cmd.Context(), args[0], e.session.UserID(), form)
			if err != nil {
				return err
			}
			cmd.Println(b.ID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&form.Description, "description", "d", "", "Bug description (markdown)")
	cmd.Flags().StringVar(&form.Priority, "priority", "", "Priority (default medium)")
	cmd.Flags().StringVar(&form.AssignedTo, "assignee", "", "Assignee user id")
	return cmd
}

func newBugDeleteCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "rm [project-id] [bug-id]",
		Short: "Delete a bug",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("deleting a bug cannot be undone, pass --yes to confirm")
			}
			_, ctrl, err := loadBug(cmd, args)
			if err != nil {
				return err
			}
			defer ctrl.Close()
			ctrl.RequestDelete()
			return ctrl.ConfirmDelete(cmd.Context())
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm the deletion")
	return cmd
}

func init() {
	bugsCmd.AddCommand(newBugsListCmd())
	bugsCmd.AddCommand(newBugsMineCmd())
	bugsCmd.AddCommand(newBugShowCmd())
	bugsCmd.AddCommand(newBugCreateCmd())
	bugsCmd.AddCommand(newBugStatusCmd())
	bugsCmd.AddCommand(newBugAssignCmd())
	bugsCmd.AddCommand(newBugCommentCmd())
	bugsCmd.AddCommand(newBugDeleteCmd())
	rootCmd.AddCommand(bugsCmd)
}
