package main

import (
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/bugboard/bugboard/internal/projects/domain"
	"github.com/bugboard/bugboard/internal/projects/service"
)

var projectsCmd = &cobra.Command{
	Use:     "projects",
	Aliases: []string{"project"},
	Short:   "Manage projects",
}

func newProjectsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ls",
		Short: "List your projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd)
			if err != nil {
				return err
			}
			if err := e.requireSession(cmd.Context()); err != nil {
				return err
			}
			list, err := service.NewProjectService(e.api(), e.notes).List(cmd.Context())
			if err != nil {
				return err
			}

			tw := newTable()
			tw.AppendHeader(table.Row{"ID", "NAME", "ROLE", "MEMBERS", "CREATED AT"})
			for i := range list {
				p := &list[i]
				view := domain.Resolve(p, e.session.UserID())
				tw.AppendRow(table.Row{p.ID, p.Name, view.Role, len(p.Members), shortDate(p.CreatedAt)})
			}
			cmd.Printf("%s\n", tw.Render())
			return nil
		},
	}
}

func newProjectsCreateCmd() *cobra.Command {
	var description string
	cmd := &cobra.Command{
		Use:   "create [name]",
		Short: "Create a project; you become its admin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd)
			if err != nil {
				return err
			}
			if err := e.requireSession(cmd.Context()); err != nil {
				return err
			}
			p, err := service.NewProjectService(e.api(), e.notes).Create(cmd.Context(),
				domain.ProjectInput{Name: args[0], Description: description})
			if err != nil {
				return err
			}
			cmd.Println(p.ID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "Project description")
	return cmd
}

func newProjectsMembersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "members [project-id]",
		Short: "List the members of a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd)
			if err != nil {
				return err
			}
			if err := e.requireSession(cmd.Context()); err != nil {
				return err
			}
			p, err := service.NewProjectService(e.api(), e.notes).Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			tw := newTable()
			tw.AppendHeader(table.Row{"USER ID", "NAME", "EMAIL", "ROLE"})
			for _, m := range p.Members {
				tw.AppendRow(table.Row{m.User.ID, m.User.Name, m.User.Email, m.Role})
			}
			cmd.Printf("%s\n", tw.Render())
			return nil
		},
	}
}

func newProjectsInviteesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "invitees [project-id] [query]",
		Short: "Find users who are not yet members of a project",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd)
			if err != nil {
				return err
			}
			if err := e.requireSession(cmd.Context()); err != nil {
				return err
			}
			svc := service.NewProjectService(e.api(), e.notes)
			p, err := svc.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			users, err := svc.Invitees(cmd.Context(), p, strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			if len(users) == 0 {
				cmd.Println("No users found")
				return nil
			}

			tw := newTable()
			tw.AppendHeader(table.Row{"USER ID", "NAME", "EMAIL"})
			for _, u := range users {
				tw.AppendRow(table.Row{u.ID, u.Name, u.Email})
			}
			cmd.Printf("%s\n", tw.Render())
			return nil
		},
	}
}

func init() {
	projectsCmd.AddCommand(newProjectsListCmd())
	projectsCmd.AddCommand(newProjectsCreateCmd())
	projectsCmd.AddCommand(newProjectsMembersCmd())
	projectsCmd.AddCommand(newProjectsInviteesCmd())
	rootCmd.AddCommand(projectsCmd)
}
