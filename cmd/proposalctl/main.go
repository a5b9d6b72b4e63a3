// Command proposalctl administers the proposal tracker store: schema
// migrations, JSON backups and admin accounts.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/himtika/proposal-tracker/internal/config"
	loggerpkg "github.com/himtika/proposal-tracker/internal/logger"
	"github.com/himtika/proposal-tracker/internal/outreach"
	"github.com/himtika/proposal-tracker/internal/repository"
	"github.com/himtika/proposal-tracker/internal/service"
)

var (
	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "proposalctl",
	Short: "Administer the proposal tracker store",
	Long: `proposalctl works directly against the configured store (STORE_DRIVER,
DATABASE_URL or SQLITE_PATH), using the same environment as the API server.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return err
		}
		cfg = loaded

		logger, err = loggerpkg.New(cfg.LogLevel)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd, exportCmd, importCmd, usersCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// services are the application services backed by the configured store.
type services struct {
	store    *repository.Store
	outreach *service.OutreachService
	users    *service.UserService
}

func openServices(ctx context.Context) (*services, error) {
	store, err := repository.OpenStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	template := outreach.DefaultTemplate()
	if cfg.MessageTemplatePath != "" {
		if template, err = outreach.LoadTemplate(cfg.MessageTemplatePath); err != nil {
			store.Close()
			return nil, err
		}
	}
	composer, err := outreach.NewComposer(template)
	if err != nil {
		store.Close()
		return nil, err
	}

	return &services{
		store:    store,
		outreach: service.NewOutreachService(store.Companies, composer, service.WithLogger(logger)),
		users:    service.NewUserService(store.Users, nil, logger),
	}, nil
}

func (s *services) Close() {
	s.store.Close()
}
