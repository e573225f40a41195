// Command usersctl runs user imports, exports and listings against the same
// storage as the admin panel, without going through HTTP.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"user-admin/internal/app"
	"user-admin/internal/core/config"
	"user-admin/internal/core/logger"
)

type rootOptions struct {
	configPath string
	verbose    bool
}

func main() {
	_ = godotenv.Load()
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts rootOptions
	root := &cobra.Command{
		Use:          "usersctl",
		Short:        "Manage admin panel users from the command line",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default $CONFIG_PATH or ./configs/config.local.yaml)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log at the configured level instead of warn")

	root.AddCommand(
		newImportCmd(&opts),
		newExportCmd(&opts),
		newListCmd(&opts),
		newHashPasswordCmd(),
	)
	return root
}

// withApp loads config, builds the app and hands it to fn.
func withApp(ctx context.Context, opts *rootOptions, fn func(*app.App) error) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	lo := logger.FromConfig(cfg.Log)
	lo.Stderr = true
	if !opts.verbose {
		lo.Level = "warn"
	}
	log, cleanup := logger.New(lo)
	defer cleanup()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("startup: %w", err)
	}
	defer a.Close()
	return fn(a)
}
