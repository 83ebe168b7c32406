// Package cli wires the pidebot commands.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/buildtall-systems/pidebot/internal/app"
	"github.com/buildtall-systems/pidebot/internal/config"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "pidebot",
	Short: "Multi-agent assistant for food delivery, table bookings, room design and API scaffolds",
	Long: `pidebot answers customers over Nostr DMs, a terminal chat or an HTTP API.
Messages are routed to a delivery, reservation, interior design or API
scaffold agent, and placed orders are tracked until they are delivered.`,
	SilenceUsage:      true,
	PersistentPreRunE: initConfig,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./pidebot.yaml)")
	rootCmd.PersistentFlags().Bool("verbose", false, "log every agent execution")
	rootCmd.PersistentFlags().String("db", "", "sqlite database path (default in-memory)")

	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("database.path", rootCmd.PersistentFlags().Lookup("db"))

	config.SetDefaults(viper.GetViper())
}

func initConfig(cmd *cobra.Command, args []string) error {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	viper.SetEnvPrefix("PIDEBOT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("pidebot")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			viper.AddConfigPath(filepath.Join(dir, "pidebot"))
		}
	}
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("reading config: %w", err)
		}
	}

	return setupLogging(viper.GetString("logging.file"))
}

// setupLogging tees the standard logger into path when one is configured.
func setupLogging(path string) error {
	if path == "" {
		return nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	log.SetOutput(io.MultiWriter(os.Stderr, f))
	return nil
}

// newApp builds the services for a subcommand, printing order updates to
// console.
func newApp(cfg *config.Config, console io.Writer) (*app.App, error) {
	a, err := app.New(cfg, app.Options{Console: console, Color: useColor()})
	if err != nil {
		return nil, fmt.Errorf("starting services: %w", err)
	}
	return a, nil
}

// useColor honours the NO_COLOR convention.
func useColor() bool {
	_, off := os.LookupEnv("NO_COLOR")
	return !off
}
