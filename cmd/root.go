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

	"github.com/kilianp07/roadsim/app"
	"github.com/kilianp07/roadsim/config"
	"github.com/kilianp07/roadsim/infra/logger"
)

var (
	cfgPath     string
	fleetSize   int
	frequencyHz float64
	seed        int64
	autoRedrive bool
)

var rootCmd = &cobra.Command{
	Use:          "roadsim",
	Short:        "Vehicle fleet simulation",
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config.yaml", "configuration file")
	rootCmd.Flags().IntVarP(&fleetSize, "vehicles", "n", 0, "override simulation.fleet_size")
	rootCmd.Flags().Float64VarP(&frequencyHz, "frequency", "f", 0, "override simulation.frequency_hz")
	rootCmd.Flags().Int64Var(&seed, "seed", 0, "override simulation.seed")
	rootCmd.Flags().BoolVar(&autoRedrive, "auto-redrive", false, "override simulation.auto_redrive")
}

// applyOverrides copies the flags the user set onto cfg and revalidates it.
func applyOverrides(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("vehicles") {
		cfg.Simulation.FleetSize = fleetSize
	}
	if flags.Changed("frequency") {
		cfg.Simulation.FrequencyHz = frequencyHz
	}
	if flags.Changed("seed") {
		cfg.Simulation.Seed = seed
	}
	if flags.Changed("auto-redrive") {
		cfg.Simulation.AutoRedrive = autoRedrive
	}
	return cfg.Validate()
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

// loadConfig reads cfgPath, falling back to the defaults when the default
// file does not exist.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cfgPath)
	if err == nil {
		return cfg, nil
	}
	if errors.Is(err, fs.ErrNotExist) && !cmd.Flags().Changed("config") {
		def := config.Default()
		return &def, nil
	}
	return nil, fmt.Errorf("load config: %w", err)
}

func run(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := applyOverrides(cmd, cfg); err != nil {
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
