// Package main provides the portfolio backend server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/shahriarsany/portfolio/backend/internal/auth"
	"github.com/shahriarsany/portfolio/backend/internal/config"
	"github.com/shahriarsany/portfolio/backend/internal/crud"
	"github.com/shahriarsany/portfolio/backend/internal/db"
	"github.com/shahriarsany/portfolio/backend/internal/logging"
	"github.com/shahriarsany/portfolio/backend/internal/media"
)

// Version is set at build time.
var Version = "0.1.0"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "portfolio-server",
		Short:         "Backend for the portfolio site and its admin panel",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "path to config file")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(configPath)
		},
	}

	migrate := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(configPath)
		},
	}

	cmd.AddCommand(serve)
	cmd.AddCommand(migrate)
	return cmd
}

func loadConfig(configPath string) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logging.Init(os.Stdout, logging.ParseLevel(cfg.LogLevel))
	return cfg, nil
}

func runMigrate(configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	database, err := db.Open(cfg.DataDir)
	if err != nil {
		return err
	}
	defer database.Close()

	migrator := db.NewMigrator(database.DB)
	if err := migrator.Up(); err != nil {
		return err
	}
	version, err := migrator.CurrentVersion()
	if err != nil {
		return err
	}
	logging.Info("migrations applied", map[string]interface{}{"version": version})
	return nil
}

func runServe(configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	database, err := db.Open(cfg.DataDir)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := db.NewMigrator(database.DB).Up(); err != nil {
		return err
	}

	notifier := db.NewNotifier()
	repo := db.NewRepository(database.DB, notifier)
	defer repo.Close()

	authService := auth.NewService(repo, logging.Get(), cfg.AdminEmail,
		cfg.SessionTTL.Std(), cfg.ResetTTL.Std())
	if bootPassword := os.Getenv("PORTFOLIO_ADMIN_PASSWORD"); bootPassword != "" {
		if err := authService.EnsureAccount(bootPassword); err != nil {
			return err
		}
	}

	mediaStore, err := media.NewStore(cfg.MediaDir, logging.Get())
	if err != nil {
		return err
	}

	controller := crud.NewController(repo, logging.Get())
	hub := newWSHub()
	stopFeeds := runLiveFeeds(hub, repo, controller)
	defer stopFeeds()

	server := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      newRouter(repo, authService, controller, mediaStore, hub),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logging.Info("server listening", map[string]interface{}{"addr": cfg.ListenAddr})
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		logging.Info("server stopped")
		return nil
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
