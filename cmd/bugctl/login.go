package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bugboard/bugboard/internal/auth/domain"
	"github.com/bugboard/bugboard/internal/validation"
)

var (
	email    string
	password string
)

func newLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Log in to the bug tracker",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd)
			if err != nil {
				return err
			}
			if password == "" {
				cmd.Print("Password: ")
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("read password: %w", err)
				}
				password = strings.TrimRight(line, "\r\n")
			}
			req := domain.LoginRequest{Email: strings.TrimSpace(email), Password: password}
			if err := validation.Struct(req); err != nil {
				return err
			}

			u, err := e.session.Login(cmd.Context(), req.Email, req.Password)
			if err != nil {
				return err
			}
			if !e.session.HasToken() {
				return fmt.Errorf("could not store the token in %s", e.path)
			}
			cmd.Printf("Logged in as %s <%s>\n", u.DisplayName(), u.Email)
			return nil
		},
	}
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored token for --api",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd)
			if err != nil {
				return err
			}
			if err := e.store.SaveErr(""); err != nil {
				return err
			}
			cmd.Println("Logged out")
			return nil
		},
	}
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd)
			if err != nil {
				return err
			}
			if err := e.requireSession(cmd.Context()); err != nil {
				return err
			}
			u := e.session.User()
			cmd.Printf("%s <%s> (%s)\n", u.DisplayName(), u.Email, u.ID)
			return nil
		},
	}
}

func init() {
	cmd := newLoginCmd()
	cmd.Flags().StringVarP(&email, "email", "e", "", "Account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password (prompted when empty)")
	_ = cmd.MarkFlagRequired("email")
	rootCmd.AddCommand(cmd)
	rootCmd.AddCommand(newLogoutCmd())
	rootCmd.AddCommand(newWhoamiCmd())
}
