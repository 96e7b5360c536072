package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hongminglow/gigdash/internal/catalog"
	"github.com/hongminglow/gigdash/internal/models"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema and seed roles and permissions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		rt, err := setup()
		if err != nil {
			return err
		}
		// openPostgres migrates on connect.
		pg, err := rt.openPostgres(cmd.Context())
		if err != nil {
			return err
		}
		pg.Close()
		fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
		return nil
	},
}

var seedCompaniesCmd = &cobra.Command{
	Use:   "seed-companies",
	Short: "Upsert the company catalog by slug",
	Long:  "Upsert the company catalog by slug. Without --file the built-in catalog is used.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		rt, err := setup()
		if err != nil {
			return err
		}
		path, _ := cmd.Flags().GetString("file")
		if path == "" {
			path = rt.cfg.CompanyCatalog
		}
		companies, err := catalog.Load(path)
		if err != nil {
			return err
		}
		pg, err := rt.openPostgres(cmd.Context())
		if err != nil {
			return err
		}
		defer pg.Close()
		n, err := catalog.Seed(cmd.Context(), pg, companies, rt.logger)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "seeded %d companies\n", n)
		return nil
	},
}

var grantRoleCmd = &cobra.Command{
	Use:   "grant-role <username|email> <role>",
	Short: "Change a user's role",
	Long:  fmt.Sprintf("Change a user's role. Roles: %s, %s, %s.", models.RoleWorker, models.RolePremiumWorker, models.RoleAdmin),
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := setup()
		if err != nil {
			return err
		}
		if !models.ValidRole(args[1]) {
			return fmt.Errorf("unknown role %q", args[1])
		}
		pg, err := rt.openPostgres(cmd.Context())
		if err != nil {
			return err
		}
		defer pg.Close()
		user, err := grantRole(cmd.Context(), pg, args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", user.Username, user.Role)
		return nil
	},
}

type roleSetter interface {
	FindByUsernameOrEmail(ctx context.Context, identifier string) (models.User, error)
	SetRole(ctx context.Context, userID int64, role string) (models.User, error)
}

func grantRole(ctx context.Context, store roleSetter, identifier, role string) (models.User, error) {
	user, err := store.FindByUsernameOrEmail(ctx, identifier)
	if err != nil {
		return models.User{}, fmt.Errorf("find user %q: %w", identifier, err)
	}
	return store.SetRole(ctx, user.ID, role)
}

func init() {
	seedCompaniesCmd.Flags().StringP("file", "f", "", "catalog YAML file")
}
