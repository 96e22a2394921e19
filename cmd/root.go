package cmd

import (
	"context"
	"fmt"

	"github.com/projecteru2/core/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/projectloom/loom/config"
)

var (
	cfgFile string
	conf    *config.Config
)

var rootCmd = func() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "loom",
		Short: "Loom - SDN test fabric orchestrator",
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return initConfig()
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path")
	cmd.PersistentFlags().String("run-dir", "", "runtime directory (PID files, run lock)")
	cmd.PersistentFlags().String("log-dir", "", "managed-process log directory")
	cmd.PersistentFlags().String("controller-dir", "", "controller launcher directory")
	cmd.PersistentFlags().String("web-dir", "", "presentation document root")

	_ = viper.BindPFlag("run_dir", cmd.PersistentFlags().Lookup("run-dir"))
	_ = viper.BindPFlag("log_dir", cmd.PersistentFlags().Lookup("log-dir"))
	_ = viper.BindPFlag("controller_dir", cmd.PersistentFlags().Lookup("controller-dir"))
	_ = viper.BindPFlag("web_dir", cmd.PersistentFlags().Lookup("web-dir"))

	viper.SetEnvPrefix("LOOM")
	viper.AutomaticEnv()

	cmd.AddCommand(
		startCmd,
		stopCmd,
		statusCmd,
		verifyCmd,
		teardownCmd,
		logsCmd,
		versionCmd,
	)

	return cmd
}()

func initConfig() error {
	conf = config.DefaultConfig()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}
	_ = viper.ReadInConfig() // optional; missing file is OK

	if err := viper.Unmarshal(conf); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}

	if conf.ReadyAttempts <= 0 {
		conf.ReadyAttempts = 10 //nolint:mnd
	}
	if conf.ReadyIntervalSeconds <= 0 {
		conf.ReadyIntervalSeconds = 1
	}
	if conf.StopTimeoutSeconds <= 0 {
		conf.StopTimeoutSeconds = 10 //nolint:mnd
	}

	return log.SetupLog(context.Background(), &conf.Log, "")
}

// Execute is the main entry point called from main.go.
func Execute() error {
	ctx, cancel := newCommandContext()
	defer cancel()
	return rootCmd.ExecuteContext(ctx)
}
