package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/infrastructure/auth"
	"github.com/iho/gowallet/internal/infrastructure/postgres"
	"github.com/iho/gowallet/internal/usecase"
)

func migrateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	withMigrator := func(fn func(*postgres.Migrator) error) error {
		mg, err := postgres.NewMigrator(a.cfg.DatabaseURL, a.logger)
		if err != nil {
			return err
		}
		defer mg.Close()
		return fn(mg)
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withMigrator(func(mg *postgres.Migrator) error { return mg.Up() })
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the last migration",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withMigrator(func(mg *postgres.Migrator) error { return mg.Down() })
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the current schema version",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withMigrator(func(mg *postgres.Migrator) error {
					version, dirty, err := mg.Version()
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "version: %d dirty: %t\n", version, dirty)
					return nil
				})
			},
		},
	)

	return cmd
}

func seedCmd(a *app) *cobra.Command {
	var (
		currencies    []string
		adminUsername string
		adminEmail    string
		adminPassword string
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create currencies and the first administrator",
		Long: `Creates the given currencies and, when a password is supplied, an administrator
with a wallet in the default currency. Existing records are left untouched, so
the command can be rerun safely.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			inputs := make([]usecase.CreateCurrencyInput, 0, len(currencies))
			for _, spec := range currencies {
				input, err := parseCurrencySpec(spec)
				if err != nil {
					return err
				}
				inputs = append(inputs, input)
			}

			if adminPassword == "" {
				adminPassword = os.Getenv("ADMIN_PASSWORD")
			}

			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			return a.withServices(ctx, func(svc *services) error {
				for _, input := range inputs {
					currency, err := svc.currencies.CreateCurrency(ctx, "", input)
					switch {
					case errors.Is(err, domain.ErrCurrencyExists):
						fmt.Fprintf(out, "currency %s already exists\n", input.Code)
					case err != nil:
						return fmt.Errorf("create currency %s: %w", input.Code, err)
					default:
						fmt.Fprintf(out, "created currency %s (%s)\n", currency.Code, currency.ID)
					}
				}

				if adminPassword == "" {
					fmt.Fprintln(out, "no admin password given; skipping administrator")
					return nil
				}

				admin, err := svc.users.BootstrapAdmin(ctx, usecase.RegisterInput{
					Username: adminUsername,
					Email:    adminEmail,
					Password: adminPassword,
				})
				switch {
				case errors.Is(err, domain.ErrUserExists):
					fmt.Fprintf(out, "administrator %s already exists\n", adminUsername)
				case err != nil:
					return fmt.Errorf("create administrator: %w", err)
				default:
					fmt.Fprintf(out, "created administrator %s (%s)\n", admin.Username, admin.ID)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringArrayVar(&currencies, "currency", []string{"USD:US Dollar:2", "EUR:Euro:2"}, "Currency as CODE:Name:decimal_places (repeatable)")
	cmd.Flags().StringVar(&adminUsername, "admin-username", "admin", "Administrator username")
	cmd.Flags().StringVar(&adminEmail, "admin-email", "admin@example.com", "Administrator email")
	cmd.Flags().StringVar(&adminPassword, "admin-password", "", "Administrator password (defaults to ADMIN_PASSWORD)")

	return cmd
}

// parseCurrencySpec parses CODE:Name:decimal_places. Name and decimal places
// are optional and default to the code and 2.
func parseCurrencySpec(spec string) (usecase.CreateCurrencyInput, error) {
	parts := strings.Split(spec, ":")
	if len(parts) > 3 || strings.TrimSpace(parts[0]) == "" {
		return usecase.CreateCurrencyInput{}, fmt.Errorf("invalid currency %q: want CODE:Name:decimal_places", spec)
	}

	input := usecase.CreateCurrencyInput{
		Code:          strings.TrimSpace(parts[0]),
		Name:          strings.TrimSpace(parts[0]),
		DecimalPlaces: 2,
	}
	if len(parts) > 1 && strings.TrimSpace(parts[1]) != "" {
		input.Name = strings.TrimSpace(parts[1])
	}
	if len(parts) > 2 {
		dp, err := strconv.ParseInt(strings.TrimSpace(parts[2]), 10, 32)
		if err != nil {
			return usecase.CreateCurrencyInput{}, fmt.Errorf("invalid decimal places in %q: %w", spec, err)
		}
		input.DecimalPlaces = int32(dp)
	}

	return input, nil
}

func reconcileCmd(a *app) *cobra.Command {
	var walletID string

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Compare wallet balances with their transaction history",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			return a.withServices(ctx, func(svc *services) error {
				if walletID != "" {
					result, err := svc.reconciliation.ReconcileWallet(ctx, walletID)
					if err != nil {
						return err
					}
					if err := a.print(cmd, result, func() { printResults(cmd.OutOrStdout(), []*usecase.ReconciliationResult{result}) }); err != nil {
						return err
					}
					if !result.IsReconciled {
						return fmt.Errorf("%w: wallet %s", domain.ErrReconciliationFailure, walletID)
					}
					return nil
				}

				report, err := svc.reconciliation.GenerateReconciliationReport(ctx)
				if err != nil {
					return err
				}
				if err := a.print(cmd, report, func() { printReport(cmd.OutOrStdout(), report) }); err != nil {
					return err
				}
				return report.Err()
			})
		},
	}

	cmd.Flags().StringVar(&walletID, "wallet", "", "Reconcile a single wallet")

	return cmd
}

func userCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Administer users",
	}

	setStatus := func(status domain.UserStatus) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return a.withServices(ctx, func(svc *services) error {
				actorID, err := a.actorID(ctx, svc)
				if err != nil {
					return err
				}
				user, err := svc.users.SetUserStatus(ctx, actorID, args[0], status)
				if err != nil {
					return err
				}
				return a.print(cmd, user, func() { printUser(cmd.OutOrStdout(), user) })
			})
		}
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "activate <user-id>",
			Short: "Reactivate a deactivated user",
			Args:  cobra.ExactArgs(1),
			RunE:  setStatus(domain.UserStatusActive),
		},
		&cobra.Command{
			Use:   "deactivate <user-id>",
			Short: "Deactivate a user and revoke their sessions",
			Args:  cobra.ExactArgs(1),
			RunE:  setStatus(domain.UserStatusDeactivated),
		},
		&cobra.Command{
			Use:   "promote <user-id>",
			Short: "Promote a user to employee",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx := cmd.Context()
				return a.withServices(ctx, func(svc *services) error {
					actorID, err := a.actorID(ctx, svc)
					if err != nil {
						return err
					}
					user, err := svc.users.Promote(ctx, actorID, args[0])
					if err != nil {
						return err
					}
					return a.print(cmd, user, func() { printUser(cmd.OutOrStdout(), user) })
				})
			},
		},
	)

	return cmd
}

func walletCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wallet",
		Short: "Administer wallets",
	}

	setStatus := func(status domain.WalletStatus) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return a.withServices(ctx, func(svc *services) error {
				actorID, err := a.actorID(ctx, svc)
				if err != nil {
					return err
				}
				wallet, err := svc.wallets.SetWalletStatus(ctx, actorID, args[0], status)
				if err != nil {
					return err
				}
				return a.print(cmd, wallet, func() { printWallet(cmd.OutOrStdout(), wallet) })
			})
		}
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "freeze <wallet-id>",
			Short: "Freeze a wallet",
			Args:  cobra.ExactArgs(1),
			RunE:  setStatus(domain.WalletStatusFrozen),
		},
		&cobra.Command{
			Use:   "activate <wallet-id>",
			Short: "Unfreeze a wallet",
			Args:  cobra.ExactArgs(1),
			RunE:  setStatus(domain.WalletStatusActive),
		},
	)

	return cmd
}

func hashPasswordCmd() *cobra.Command {
	var cost int

	cmd := &cobra.Command{
		Use:   "hash-password <password>",
		Short: "Print the bcrypt hash of a password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := auth.NewBcryptHasher(cost).Hash(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}

	cmd.Flags().IntVar(&cost, "cost", 10, "bcrypt cost")

	return cmd
}
