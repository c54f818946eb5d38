package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"captzio/internal/domain"
	"captzio/internal/middleware"
	"captzio/internal/sqlinline"
)

func dbCommand(app *cli) *cobra.Command {
	cmd := &cobra.Command{Use: "db", Short: "Database maintenance"}
	cmd.AddCommand(&cobra.Command{
		Use:   "bootstrap",
		Short: "Create tables on an empty database",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := app.container(cmd.Context())
			if err != nil {
				return err
			}
			if _, err := c.Runner.Exec(cmd.Context(), sqlinline.QBootstrapSchema); err != nil {
				return fmt.Errorf("bootstrap schema: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema ready")
			return nil
		},
	})
	return cmd
}

func creditsCommand(app *cli) *cobra.Command {
	var (
		accountID string
		delta     int
	)
	cmd := &cobra.Command{Use: "credits", Short: "Manage account balances"}
	grant := &cobra.Command{
		Use:   "grant",
		Short: "Add (or with a negative amount, remove) credits",
		RunE: func(cmd *cobra.Command, args []string) error {
			if delta == 0 {
				return fmt.Errorf("--amount must not be zero")
			}
			c, err := app.container(cmd.Context())
			if err != nil {
				return err
			}
			var balance int
			if delta > 0 {
				balance, err = c.Repos.Accounts.Credit(cmd.Context(), accountID, delta)
			} else {
				balance, err = c.Repos.Accounts.DebitClamped(cmd.Context(), accountID, -delta)
			}
			if err != nil {
				return fmt.Errorf("adjust credits: %w", err)
			}
			app.logger.Info().Str("account_id", accountID).Int("delta", delta).Int("balance", balance).Msg("credits adjusted")
			fmt.Fprintf(cmd.OutOrStdout(), "%s balance %d\n", accountID, balance)
			return nil
		},
	}
	grant.Flags().StringVar(&accountID, "account", "", "account id")
	grant.Flags().IntVar(&delta, "amount", 0, "signed credit delta")
	_ = grant.MarkFlagRequired("account")
	_ = grant.MarkFlagRequired("amount")
	cmd.AddCommand(grant)
	return cmd
}

func roleCommand(app *cli) *cobra.Command {
	var accountID, role string
	cmd := &cobra.Command{Use: "role", Short: "Manage account roles"}
	set := &cobra.Command{
		Use:   "set",
		Short: "Set an account role (user or admin)",
		RunE: func(cmd *cobra.Command, args []string) error {
			r := domain.Role(role)
			if !r.Valid() {
				return fmt.Errorf("role must be user or admin")
			}
			c, err := app.container(cmd.Context())
			if err != nil {
				return err
			}
			if err := c.Repos.Accounts.SetRole(cmd.Context(), accountID, r); err != nil {
				return fmt.Errorf("set role: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", accountID, r)
			return nil
		},
	}
	set.Flags().StringVar(&accountID, "account", "", "account id")
	set.Flags().StringVar(&role, "role", "", "user or admin")
	_ = set.MarkFlagRequired("account")
	_ = set.MarkFlagRequired("role")
	cmd.AddCommand(set)
	return cmd
}

func accountsCommand(app *cli) *cobra.Command {
	var limit, offset int
	cmd := &cobra.Command{Use: "accounts", Short: "Inspect accounts"}
	list := &cobra.Command{
		Use:   "list",
		Short: "List accounts, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := app.container(cmd.Context())
			if err != nil {
				return err
			}
			accounts, err := c.Repos.Accounts.List(cmd.Context(), limit, offset)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tEMAIL\tROLE\tCREDITS")
			for _, acc := range accounts {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", acc.ID, acc.Email, acc.Role, acc.Credits)
			}
			return tw.Flush()
		},
	}
	list.Flags().IntVar(&limit, "limit", 50, "page size")
	list.Flags().IntVar(&offset, "offset", 0, "page offset")
	cmd.AddCommand(list)
	return cmd
}

func jobsCommand(app *cli) *cobra.Command {
	cmd := &cobra.Command{Use: "jobs", Short: "Image job maintenance"}
	cmd.AddCommand(&cobra.Command{
		Use:   "sweep",
		Short: "Fail and refund jobs stuck past JOB_STALE_AFTER",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := app.container(cmd.Context())
			if err != nil {
				return err
			}
			n, err := c.Sweeper.Sweep(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "resolved %d stale job(s)\n", n)
			return nil
		},
	})
	return cmd
}

func tokenCommand(app *cli) *cobra.Command {
	var (
		userID, email, name string
		ttl                 time.Duration
	)
	cmd := &cobra.Command{Use: "token", Short: "Development tokens"}
	mint := &cobra.Command{
		Use:   "mint",
		Short: "Sign a bearer token with JWT_SECRET",
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.cfg.IsProduction() {
				return fmt.Errorf("refusing to mint tokens with APP_ENV=production")
			}
			token, err := middleware.SignJWT(app.cfg.JWTSecret, domain.Identity{UserID: userID, Email: email, Name: name}, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	mint.Flags().StringVar(&userID, "user", "", "subject (account uuid)")
	mint.Flags().StringVar(&email, "email", "", "email claim")
	mint.Flags().StringVar(&name, "name", "", "display name claim")
	mint.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	_ = mint.MarkFlagRequired("user")
	cmd.AddCommand(mint)
	return cmd
}
