package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"db-check/internal/logger"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	cfgFile string
	Logger  *zap.Logger
	LogCfg  logger.Config
)

var RootCmd = &cobra.Command{
	Use:   "db-check",
	Short: "A post-migration row verification tool",
	Long: `
  ____  ____     ____ _   _ _____ ____ _  __
 |  _ \| __ )   / ___| | | | ____/ ___| |/ /
 | | | |  _ \  | |   | |_| |  _|| |   | ' /
 | |_| | |_) | | |___|  _  | |__| |___| . \
 |____/|____/   \____|_| |_|_____\____|_|\_\

DB CHECK 🔍 - Source vs Target Row Verification
`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := viper.UnmarshalKey("log", &LogCfg); err != nil {
			return fmt.Errorf("failed to parse log config: %w", err)
		}

		var err error
		Logger, err = logger.New(&LogCfg)
		if err != nil {
			return fmt.Errorf("failed to build logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if Logger != nil {
			_ = Logger.Sync()
		}
	},
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Define flags
	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./db-check.yaml)")
	RootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")

	viper.BindPFlag("log.level", RootCmd.PersistentFlags().Lookup("log-level"))

	// Set default for Viper (fallback if no config/flag)
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "console")
	viper.SetDefault("check.batch_size", 100)
	viper.SetDefault("check.batch_apply", true)
	viper.SetDefault("check.concurrency", 4)
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	// .env is optional; real environment variables take precedence.
	_ = godotenv.Load()

	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// 1. Executable Directory (Priority 1)
		ex, err := os.Executable()
		if err == nil {
			exePath := filepath.Dir(ex)
			viper.AddConfigPath(exePath)
		}

		// 2. Current Directory (Priority 2)
		viper.AddConfigPath(".")

		viper.SetConfigName("db-check")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Println("Using config file:", viper.ConfigFileUsed())
	}
}
