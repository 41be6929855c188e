package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"recipebox/internal/localstore"
	"recipebox/internal/recipe"
)

func newUsersCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List accounts on the recipe backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := ctx.app(cmd.Context())
			if err != nil {
				return err
			}
			remote := rt.community()
			if remote == nil {
				return fmt.Errorf("users need a recipe backend; set backend.base_url")
			}
			users, err := remote.ListUsers(cmd.Context())
			if err != nil {
				return userError(err)
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, users)
			}
			rows := make([][]string, 0, len(users))
			for _, u := range users {
				rows = append(rows, []string{u.ID, u.Name, u.Email, string(u.Role), yesNo(u.Approved)})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"ID", "Name", "Email", "Role", "Approved"}, rows, nil))
			return nil
		},
	}
}

func newLoginCommand(ctx *commandContext) *cobra.Command {
	var token string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store a backend session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			token = strings.TrimSpace(token)
			if token == "" {
				return fmt.Errorf("--token is required")
			}
			rt, err := ctx.app(cmd.Context())
			if err != nil {
				return err
			}
			session := localstore.Session{Token: token}
			if userID, role, ok := recipe.SessionFromToken(token); ok {
				session.UserID = userID
				session.Role = role
			}
			if err := rt.store.SaveSession(cmd.Context(), session); err != nil {
				return err
			}
			// The backend's view of the account wins over token claims.
			if remote := rt.community(); remote != nil {
				if user, err := remote.CurrentUser(cmd.Context()); err == nil {
					session.UserID = user.ID
					session.Role = user.Role
					if err := rt.store.SaveSession(cmd.Context(), session); err != nil {
						return err
					}
				} else {
					fmt.Fprintf(cmd.ErrOrStderr(), "warn: could not verify session: %s\n", userError(err))
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (%s)\n", displayUser(session.UserID), roleOrGuest(session.Role))
			return nil
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "Session token issued by the recipe backend")
	return cmd
}

func newLogoutCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := ctx.app(cmd.Context())
			if err != nil {
				return err
			}
			if err := rt.store.SaveSession(cmd.Context(), localstore.Session{}); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func newWhoamiCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := ctx.app(cmd.Context())
			if err != nil {
				return err
			}
			session, err := rt.store.Session(cmd.Context())
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, session)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "User: %s\nRole: %s\n", displayUser(session.UserID), roleOrGuest(session.Role))
			return nil
		},
	}
}

func displayUser(id string) string {
	if strings.TrimSpace(id) == "" {
		return "anonymous"
	}
	return id
}

func roleOrGuest(role recipe.Role) string {
	if role == "" {
		return string(recipe.RoleGuest)
	}
	return string(role)
}
