package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"clinic_notify/internal/auth"
	"clinic_notify/internal/config"
	"clinic_notify/internal/domain"
	"clinic_notify/internal/logging"
	"clinic_notify/internal/store/mysql"
	"clinic_notify/internal/store/sqlite"
	"clinic_notify/internal/telemetry"
)

const shutdownTimeout = 10 * time.Second

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "clinic-notify",
		Short:         "Realtime notification service for the clinic dashboard",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}
	root.AddCommand(newServeCmd(), newMigrateCmd(), newTokenCmd())
	return root
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and SSE server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}
}

func serve(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, cleanup, err := InitializeApp()
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	defer cleanup()
	logger := app.Logger()
	defer func() {
		_ = logger.Sync()
	}()

	shutdownTracing, err := telemetry.Init(ctx, app.Config(), logger)
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}

	go func() {
		if err := app.Run(ctx); err != nil {
			logger.Error("app stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := app.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Warn("tracer shutdown failed", zap.Error(err))
	}
	return nil
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the notifications and appointments schema to the configured database",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.New()
			logger, err := logging.New(cfg)
			if err != nil {
				return err
			}
			defer func() {
				_ = logger.Sync()
			}()
			return migrate(cmd.Context(), cfg, logger)
		},
	}
}

func migrate(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	switch {
	case cfg.SQLitePath != "":
		s, err := sqlite.Open(ctx, cfg.SQLitePath, logger)
		if err != nil {
			return err
		}
		return s.Close()
	case cfg.MySQLDSN != "":
		return mysql.Migrate(ctx, cfg.MySQLDSN, logger)
	default:
		return errors.New("nothing to migrate: set SQLITE_PATH or MYSQL_DSN")
	}
}

func newTokenCmd() *cobra.Command {
	var (
		user auth.User
		ttl  time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a sign-in token signed with AUTH_JWT_SECRET",
		RunE: func(cmd *cobra.Command, args []string) error {
			verifier := auth.NewTokenVerifier(config.New())
			if verifier.DevMode() {
				return errors.New("AUTH_JWT_SECRET is not set")
			}
			if !domain.IsValidRole(user.Role) {
				return fmt.Errorf("%w: %q", domain.ErrInvalidRole, user.Role)
			}
			token, err := verifier.Issue(user, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&user.ID, "user", "", "user id placed in the token subject")
	cmd.Flags().StringVar(&user.Name, "name", "", "display name")
	cmd.Flags().StringVar(&user.Role, "role", domain.RoleAssistant, "admin, dentist or assistant")
	cmd.Flags().DurationVar(&ttl, "ttl", 12*time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
