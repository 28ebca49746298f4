package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chronodrachma/daasim/pkg/config"
)

var (
	configFile  string
	dbPath      string
	debug       bool
	metricsAddr string

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "daasim",
	Short: "Difficulty adjustment simulator",
	Long: `daasim simulates how a windowed median-time-past difficulty adjustment
algorithm reacts to changes in network hashrate.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		logger, err = config.CreateLogger(debug)
		if err != nil {
			return err
		}

		if metricsAddr != "" {
			go func() {
				mux := http.NewServeMux()
				mux.Handle("/metrics", promhttp.Handler())
				logger.Fatal(
					"failed to start prometheus server",
					zap.Error(http.ListenAndServe(metricsAddr, mux)),
				)
			}()
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if metricsAddr != "" {
			logger.Info("serving metrics until interrupted", zap.String("addr", metricsAddr))
			c := make(chan os.Signal, 1)
			signal.Notify(c, os.Interrupt, syscall.SIGTERM)
			<-c
			logger.Info("shutting down")
		}
		_ = logger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&configFile,
		"config",
		"",
		"YAML simulation config (defaults apply to missing keys)",
	)
	rootCmd.PersistentFlags().StringVar(
		&dbPath,
		"db",
		"",
		"badger directory for archived runs",
	)
	rootCmd.PersistentFlags().BoolVar(
		&debug,
		"debug",
		false,
		"development logging at debug level",
	)
	rootCmd.PersistentFlags().StringVar(
		&metricsAddr,
		"metrics-addr",
		"",
		"serve prometheus metrics on this address and wait for a signal",
	)

	rootCmd.AddCommand(runCmd, sweepCmd, showCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig layers the config file and DAASIM_* environment over the
// defaults.
func loadConfig() (config.SimulationConfig, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		var err error
		cfg, err = config.LoadFile(configFile)
		if err != nil {
			return cfg, err
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
