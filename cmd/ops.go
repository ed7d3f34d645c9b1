package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"potbuddy-backend/database"
	"potbuddy-backend/middleware"
	"potbuddy-backend/utils"
)

func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig(rootOpts)
			zlog, err := utils.NewLogger(cfg.LogLevel, cfg.LogDev)
			if err != nil {
				return err
			}
			defer zlog.Sync()

			db, err := database.Connect(cfg.DatabaseURL, zlog.Sugar())
			if err != nil {
				return err
			}
			if sqlDB, err := db.DB(); err == nil {
				defer sqlDB.Close()
			}
			if err := database.Migrate(db); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
			return nil
		},
	}
}

func NewEvaluateCommand(rootOpts *RootOptions) *cobra.Command {
	var userFlag string
	cmd := &cobra.Command{
		Use:   "evaluate --user <id>",
		Short: "Settle finished weeks for every pair of a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := uuid.Parse(userFlag)
			if err != nil {
				return fmt.Errorf("invalid --user %q: %w", userFlag, err)
			}
			a, err := newApp(cmd.Context(), loadConfig(rootOpts))
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.evaluator.Evaluate(cmd.Context(), userID)
			if err != nil {
				return err
			}
			if err := writeJSON(cmd.OutOrStdout(), res.Settlements); err != nil {
				return err
			}
			if len(res.Failures) > 0 {
				return fmt.Errorf("%d pair-week(s) failed to evaluate", len(res.Failures))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&userFlag, "user", "", "user id")
	cmd.MarkFlagRequired("user")
	return cmd
}

func NewRecalculateCommand(rootOpts *RootOptions) *cobra.Command {
	var pairFlag, userFlag string
	cmd := &cobra.Command{
		Use:   "recalculate (--pair <id> | --user <id>)",
		Short: "Rebuild pots from workout history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if (pairFlag == "") == (userFlag == "") {
				return fmt.Errorf("exactly one of --pair or --user is required")
			}
			a, err := newApp(cmd.Context(), loadConfig(rootOpts))
			if err != nil {
				return err
			}
			defer a.Close()

			if pairFlag != "" {
				pairID, err := uuid.Parse(pairFlag)
				if err != nil {
					return fmt.Errorf("invalid --pair %q: %w", pairFlag, err)
				}
				balance, err := a.recalculator.Recalculate(cmd.Context(), pairID)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), map[string]interface{}{"pair_id": pairID, "correct_balance": balance})
			}

			userID, err := uuid.Parse(userFlag)
			if err != nil {
				return fmt.Errorf("invalid --user %q: %w", userFlag, err)
			}
			results, err := a.recalculator.RecalculateForUser(cmd.Context(), userID)
			if werr := writeJSON(cmd.OutOrStdout(), results); werr != nil {
				return werr
			}
			return err
		},
	}
	cmd.Flags().StringVar(&pairFlag, "pair", "", "pair id")
	cmd.Flags().StringVar(&userFlag, "user", "", "user id (all of the user's pairs)")
	return cmd
}

// NewTokenCommand signs a token the way the identity provider would. Meant
// for local development against JWT_SECRET.
func NewTokenCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		subject, email, name string
		ttl                  time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token --user <subject> --email <email>",
		Short: "Sign a development access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig(rootOpts)
			if cfg.JWTSecret == "" {
				return fmt.Errorf("JWT_SECRET is not set")
			}
			token, err := utils.GenerateToken(cfg.JWTSecret, cfg.JWTIssuer, middleware.UserIDForSubject(subject), email, name, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "user", "", "subject (user id)")
	cmd.Flags().StringVar(&email, "email", "", "email claim")
	cmd.Flags().StringVar(&name, "name", "", "name claim")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	cmd.MarkFlagRequired("user")
	cmd.MarkFlagRequired("email")
	return cmd
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
