package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"grievancedesk/internal/service"
)

// opener yields an operator service and a func releasing its store.
type opener func(ctx context.Context) (service.OperatorService, func(), error)

func newRootCmd(open opener) *cobra.Command {
	root := &cobra.Command{
		Use:           "grievancectl",
		Short:         "Maintenance commands for the grievance desk store",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newCreateAdminCmd(open),
		newFixAdminFullnamesCmd(open),
		newSeedDepartmentsCmd(open),
	)
	return root
}

func newCreateAdminCmd(open opener) *cobra.Command {
	var email, password, fullname string
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an admin account unless the email is already registered",
		RunE: func(cmd *cobra.Command, args []string) error {
			op, closeFn, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			created, err := op.EnsureAdmin(cmd.Context(), email, password, fullname)
			if err != nil {
				return err
			}
			if !created {
				fmt.Fprintf(cmd.OutOrStdout(), "admin %s already exists\n", email)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created admin %s\n", email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "admin@gov.com", "admin email")
	cmd.Flags().StringVar(&password, "password", "", "admin password (at least 6 characters)")
	cmd.Flags().StringVar(&fullname, "fullname", "", "admin full name; derived from the email when empty")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newFixAdminFullnamesCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "fix-admin-fullnames",
		Short: "Fill in missing admin full names from the email local part",
		RunE: func(cmd *cobra.Command, args []string) error {
			op, closeFn, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			fixed, err := op.FixAdminFullnames(cmd.Context())
			for _, u := range fixed {
				fmt.Fprintf(cmd.OutOrStdout(), "updated %s -> %s\n", u.Email, u.Fullname)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d admin(s) updated\n", len(fixed))
			return nil
		},
	}
}

func newSeedDepartmentsCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "seed-departments [name...]",
		Short: "Create departments, skipping existing names",
		Long:  "Create the named departments. Without arguments the default set is seeded.",
		RunE: func(cmd *cobra.Command, args []string) error {
			names := args
			if len(names) == 0 {
				names = service.DefaultDepartments
			}
			op, closeFn, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			n, err := op.SeedDepartments(cmd.Context(), names)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d department(s) created\n", n)
			return nil
		},
	}
}
