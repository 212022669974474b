package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"spm-client/internal/auth"
)

func loginCmd(a *app) *cobra.Command {
	var email, password string
	var mint bool
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Check credentials against the login service",
		RunE: func(cmd *cobra.Command, args []string) error {
			hc, err := a.service("login", a.cfg.LoginAPIURL, false)
			if err != nil {
				return err
			}
			e, err := auth.NewClient(hc).Login(cmd.Context(), email, password)
			if err != nil {
				return fmt.Errorf("login: %w", err)
			}
			out := map[string]any{"employee_id": e.EmployeeID, "role": e.Role}
			if mint {
				token, err := auth.GenerateToken(a.cfg.SessionSecret, e, a.cfg.SessionTTL)
				if err != nil {
					return err
				}
				out["token"] = token
			}
			return printJSON(a.out, out)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Employee email")
	cmd.Flags().StringVar(&password, "password", "", "Employee password")
	cmd.Flags().BoolVar(&mint, "mint-token", false, "Also print a web session token signed with SESSION_SECRET")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
