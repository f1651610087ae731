package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/seams-estates/seams/internal/auth"
	"github.com/seams-estates/seams/internal/models"
	"github.com/seams-estates/seams/internal/seed"
)

func (a *app) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.openServices(nil)
			if err != nil {
				return err
			}
			defer svc.store.Close()
			fmt.Printf("Database ready at %s\n", a.cfg.DB.Path)
			return nil
		},
	}
}

func (a *app) syncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Refresh tenant statuses and reconcile house occupancy once",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.openServices(nil)
			if err != nil {
				return err
			}
			defer svc.store.Close()

			report, err := svc.estate.SyncHouseStatuses(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("Houses marked occupied: %d\n", report.HousesOccupied)
			fmt.Printf("Houses marked vacant:   %d\n", report.HousesVacated)
			fmt.Printf("Tenant statuses changed: %d\n", report.TenantsUpdated)
			return nil
		},
	}
}

func (a *app) createAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an estate administrator account",
		RunE: func(cmd *cobra.Command, args []string) error {
			username, _ := cmd.Flags().GetString("username")
			password, _ := cmd.Flags().GetString("password")
			email, _ := cmd.Flags().GetString("email")

			svc, err := a.openServices(nil)
			if err != nil {
				return err
			}
			defer svc.store.Close()

			user := &models.User{
				Username:  username,
				Email:     email,
				FirstName: "Estate",
				LastName:  "Admin",
				Role:      models.RoleEstateAdmin,
			}
			if err := svc.auth.Bootstrap(cmd.Context(), user, password); err != nil {
				return err
			}
			fmt.Printf("Created administrator %s (%s)\n", user.Username, user.ID)
			return nil
		},
	}
	cmd.Flags().String("username", "admin", "Login name")
	cmd.Flags().String("password", "", "Password (at least 8 characters)")
	cmd.Flags().String("email", "", "Contact email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func (a *app) seedCmd() *cobra.Command {
	opts := seed.DefaultOptions()
	var adminName string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Fill the database with demo houses, tenants and payments",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.openServices(nil)
			if err != nil {
				return err
			}
			defer svc.store.Close()

			admin, err := svc.store.GetUserByUsername(cmd.Context(), adminName)
			if err != nil {
				return fmt.Errorf("admin %q: %w (run create-admin first)", adminName, err)
			}
			if admin.Role != models.RoleEstateAdmin {
				return fmt.Errorf("%s is not an estate admin", adminName)
			}

			actor := auth.Principal{UserID: admin.ID, Username: admin.Username, Role: admin.Role}
			summary, err := seed.New(seed.Services{
				Auth:        svc.auth,
				Estate:      svc.estate,
				Ledger:      svc.ledger,
				Maintenance: svc.maintenance,
			}, actor, opts, a.logger).Run(cmd.Context())
			if err != nil {
				return err
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(summary)
		},
	}
	cmd.Flags().StringVar(&adminName, "admin", "admin", "Administrator that owns the seeded records")
	cmd.Flags().IntVar(&opts.Houses, "houses", opts.Houses, "Number of houses")
	cmd.Flags().IntVar(&opts.Months, "months", opts.Months, "Months of rent history per tenant")
	cmd.Flags().Float64Var(&opts.Occupancy, "occupancy", opts.Occupancy, "Share of houses with a tenant (0-1)")
	cmd.Flags().Uint64Var(&opts.Seed, "seed", 0, "Random seed (0 = random)")
	cmd.Flags().StringVar(&opts.Password, "password", opts.Password, "Password for seeded accounts")
	return cmd
}
