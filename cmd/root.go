// File: cmd/root.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/mediumctl/internal/browser"
	"github.com/xkilldash9x/mediumctl/internal/config"
	"github.com/xkilldash9x/mediumctl/internal/observability"
)

type contextKey string

const configKey contextKey = "config"

// NewRootCommand builds a fresh command tree. Each call has its own viper
// instance, so nothing leaks between invocations.
func NewRootCommand() *cobra.Command {
	var cfgFile string
	v := viper.New()
	config.SetDefaults(v)

	rootCmd := &cobra.Command{
		Use:           "mediumctl",
		Short:         "mediumctl drives a real browser to create, read, update and delete Medium posts.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := initializeConfig(cmd, v, cfgFile); err != nil {
				return fmt.Errorf("failed to initialize configuration: %w", err)
			}

			cfg, err := config.NewConfigFromViper(v)
			if err != nil {
				observability.InitializeLogger(config.NewDefaultConfig().Logger())
				return fmt.Errorf("failed to load or validate config: %w", err)
			}

			observability.InitializeLogger(cfg.Logger())
			observability.GetLogger().Debug("Starting mediumctl", zap.String("version", Version))

			cmd.SetContext(context.WithValue(cmd.Context(), configKey, cfg))
			return nil
		},
	}
	rootCmd.SetVersionTemplate(`{{printf "%s version %s\n" .Name .Version}}`)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./mediumctl.yaml)")
	rootCmd.PersistentFlags().Bool("headless", false, "run Chrome without a window (the login flow always shows one)")
	rootCmd.PersistentFlags().String("log-level", "", "override logger.level")
	_ = v.BindPFlag("browser.headless", rootCmd.PersistentFlags().Lookup("headless"))
	_ = v.BindPFlag("logger.level", rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.AddCommand(
		newLoginCmd(),
		newCreateCmd(),
		newReadCmd(),
		newUpdateCmd(),
		newDestroyCmd(),
		newVersionCmd(),
	)
	return rootCmd
}

// Execute runs the command tree with a signal-aware context from main.
func Execute(ctx context.Context) error {
	err := NewRootCommand().ExecuteContext(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		observability.GetLogger().Error("Command failed.",
			zap.Error(err),
			zap.Stringer("kind", browser.KindOf(err)),
		)
	}
	observability.Sync()
	return err
}

// initializeConfig points v at the config file and the MEDIUMCTL_* environment.
func initializeConfig(cmd *cobra.Command, v *viper.Viper, cfgFile string) error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("mediumctl")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("MEDIUMCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}
	return nil
}

// configFrom returns the configuration stored by PersistentPreRunE.
func configFrom(cmd *cobra.Command) (*config.Config, error) {
	cfg, ok := cmd.Context().Value(configKey).(*config.Config)
	if !ok || cfg == nil {
		return nil, errors.New("configuration not initialized")
	}
	return cfg, nil
}
