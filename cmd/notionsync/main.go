package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/openmined/notionsync/internal/config"
	"github.com/openmined/notionsync/internal/logging"
	"github.com/openmined/notionsync/internal/utils"
	"github.com/openmined/notionsync/internal/version"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	home, _        = os.UserHomeDir()
	configFileName = "config"
	envPrefix      = "NOTIONSYNC"
)

var (
	red   = color.New(color.FgHiRed, color.Bold).SprintFunc()
	green = color.New(color.FgHiGreen).SprintFunc()
	cyan  = color.New(color.FgHiCyan).SprintFunc()
)

// logCloser is the rotated log file of this invocation.
var logCloser io.Closer

var rootCmd = &cobra.Command{
	Use:           "notionsync",
	Short:         "Sync Notion databases with folders of a markdown vault",
	Version:       version.Detailed(),
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(cmd); err != nil {
			return err
		}
		return setupLogging()
	},
}

func init() {
	rootCmd.PersistentFlags().SortFlags = false
	rootCmd.PersistentFlags().StringP("config", "c", config.DefaultConfigPath, "notionsync config file")
	rootCmd.PersistentFlags().StringP("datadir", "d", config.DefaultDataDir, "data directory for settings, journal and logs")
	rootCmd.PersistentFlags().StringP("vault", "v", "", "markdown vault directory")
	rootCmd.PersistentFlags().String("log-level", config.DefaultLogLevel, "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("api-url", config.DefaultBaseURL, "Notion API base url")
}

func main() {
	// .env next to the binary's working dir, if any
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if logCloser != nil {
		logCloser.Close()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, red("Error:"), err)
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command) error {
	// config path
	if cmd.Flag("config").Changed {
		configFilePath, _ := cmd.Flags().GetString("config")
		viper.SetConfigFile(configFilePath)
	} else {
		viper.AddConfigPath(filepath.Join(home, ".notionsync"))
		viper.AddConfigPath(filepath.Join(home, ".config/notionsync"))
		viper.SetConfigName(configFileName)
		viper.SetConfigType("json")
	}

	if err := viper.ReadInConfig(); err != nil {
		enoent := errors.Is(err, os.ErrNotExist)
		_, ok := err.(viper.ConfigFileNotFoundError)
		if !enoent && !ok {
			return fmt.Errorf("config read '%s': %w", viper.ConfigFileUsed(), err)
		}
	}

	viper.BindPFlag("data_dir", cmd.Flags().Lookup("datadir"))
	viper.BindPFlag("vault_dir", cmd.Flags().Lookup("vault"))
	viper.BindPFlag("log_level", cmd.Flags().Lookup("log-level"))
	viper.BindPFlag("base_url", cmd.Flags().Lookup("api-url"))
	if f := cmd.Flags().Lookup("addr"); f != nil {
		viper.BindPFlag("addr", f)
	}
	if f := cmd.Flags().Lookup("token"); f != nil {
		viper.BindPFlag("token", f)
	}

	viper.SetEnvPrefix(envPrefix)
	viper.AutomaticEnv()

	return nil
}

// currentConfig assembles and validates the process config from viper.
func currentConfig() (*config.Config, error) {
	cfg := &config.Config{
		Path:         viper.ConfigFileUsed(),
		DataDir:      viper.GetString("data_dir"),
		VaultDir:     viper.GetString("vault_dir"),
		SettingsPath: viper.GetString("settings_path"),
		BaseURL:      viper.GetString("base_url"),
		APIKey:       viper.GetString("api_key"),
		Addr:         viper.GetString("addr"),
		Token:        viper.GetString("token"),
		LogLevel:     viper.GetString("log_level"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setupLogging() error {
	opts := logging.Options{
		Level:   logging.ParseLevel(viper.GetString("log_level")),
		Console: os.Stderr,
	}
	if dataDir, err := utils.ResolvePath(viper.GetString("data_dir")); err == nil {
		opts.File = (&config.Config{DataDir: dataDir}).LogPath()
	}
	closer, err := logging.Setup(opts)
	if err != nil {
		return err
	}
	logCloser = closer
	return nil
}
