package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/himtika/proposal-tracker/internal/dto"
	"github.com/himtika/proposal-tracker/internal/entity"
)

var adminRequest dto.CreateUserRequest

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage team member accounts",
}

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create an administrator account",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openServices(cmd.Context())
		if err != nil {
			return err
		}
		defer svc.Close()
		return runCreateAdmin(cmd.Context(), svc, cmd.OutOrStdout(), adminRequest)
	},
}

func init() {
	f := createAdminCmd.Flags()
	f.StringVar(&adminRequest.Email, "email", "", "login email")
	f.StringVar(&adminRequest.Password, "password", "", "initial password")
	f.StringVar(&adminRequest.FullName, "name", "", "full name printed in proposals")
	f.StringVar(&adminRequest.Position, "position", "", "position printed in proposals")
	f.StringVar(&adminRequest.Phone, "phone", "", "contact phone printed in proposals")
	_ = createAdminCmd.MarkFlagRequired("email")
	_ = createAdminCmd.MarkFlagRequired("password")

	usersCmd.AddCommand(createAdminCmd)
}

func runCreateAdmin(ctx context.Context, svc *services, w io.Writer, req dto.CreateUserRequest) error {
	req.Role = entity.RoleAdmin
	user, err := svc.users.CreateUser(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "created admin %s (%s)\n", user.Email, user.ID)
	return nil
}
