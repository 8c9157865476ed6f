package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/classplan/app"
	"github.com/kilianp07/classplan/config"
	"github.com/kilianp07/classplan/infra/logger"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:          "classplan",
	Short:        "Course schedule planner",
	SilenceUsage: true,
	RunE:         run,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP service",
	RunE:  run,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config.yaml", "configuration file")
	rootCmd.AddCommand(serveCmd)
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

// loadConfig reads the configuration file. Offline commands may run without
// one as long as the default path was not overridden.
func loadConfig(cmd *cobra.Command, optional bool) (*config.Config, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		if optional && errors.Is(err, fs.ErrNotExist) && !cmd.Flags().Changed("config") {
			cfg = &config.Config{}
			cfg.SetDefaults()
			return cfg, nil
		}
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := logger.Configure(cfg.Logging); err != nil {
		return nil, err
	}
	return cfg, nil
}

func run(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(cmd, false)
	if err != nil {
		return err
	}
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("main").Errorf("service close: %v", err)
		}
	}()
	return svc.Run(ctx)
}
