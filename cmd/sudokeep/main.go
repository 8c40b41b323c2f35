// Package main is the entry point for the sudokeep CLI.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/WhisperingChaos/sudokeep/internal/config"
	"github.com/WhisperingChaos/sudokeep/internal/elevate"
	"github.com/WhisperingChaos/sudokeep/internal/policy"
)

// Set by goreleaser ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "sudokeep:", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "sudokeep",
		Short:         "Keep a sudo grace period alive for the life of a process",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringP("config", "c", "", "Path to configuration file")
	root.PersistentFlags().Bool("debug", false, "Enable debug logging")
	root.AddCommand(versionCmd(), runCmd(), watchCmd(), policyCmd(), configCmd())
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("sudokeep %s (commit: %s, built: %s)\n", version, commit, date)
		},
	}
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run [flags] -- [command [args...]]",
		Short: "Run a command under elevation, or just refresh the grace period",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			gw := elevate.NewSudo(elevate.SudoConfig{Bin: cfg.SudoBin})
			if len(args) == 0 {
				return gw.RefreshWithPrompt(cmd.Context())
			}

			code, err := gw.RunElevated(cmd.Context(), args[0], args[1:]...)
			if err != nil {
				return err
			}
			if code != 0 {
				os.Exit(code)
			}
			return nil
		},
	}
}

func policyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "policy",
		Short: "Print the effective grace period resolved from sudoers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			gw := elevate.NewSudo(elevate.SudoConfig{Bin: cfg.SudoBin})
			resolver, err := policy.NewResolver(policy.Config{
				SudoersPath: cfg.SudoersPath,
				Default:     cfg.DefaultGraceSeconds,
				Logger:      newLogger(cmd),
			}, gw)
			if err != nil {
				return err
			}

			grace, err := resolver.EffectiveGracePeriod(cmd.Context())
			if err != nil {
				return err
			}

			switch {
			case grace < 0:
				fmt.Println("grace period: never expires (session-persistent)")
			case grace == 0:
				fmt.Println("grace period: single-use (prompt on every elevation)")
			default:
				fmt.Printf("grace period: %d seconds\n", grace)
			}
			return nil
		},
	}
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "check <path>",
		Short: "Validate configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			cfg, err := config.Load(args[0])
			if err != nil {
				return err
			}
			if err := config.Validate(cfg); err != nil {
				return err
			}
			fmt.Println("Configuration OK")
			return nil
		},
	})
	return cmd
}

// loadConfig reads the config named by --config, or the first file found in
// the standard locations. With no file anywhere, the built-in defaults apply.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = resolveConfigPath()
	}
	if path == "" {
		return config.Defaults(), nil
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// resolveConfigPath searches for a config file in standard locations.
// Search order: $XDG_CONFIG_HOME/sudokeep/sudokeep.yaml → ./sudokeep.yaml
func resolveConfigPath() string {
	var candidates []string

	if xdg, ok := os.LookupEnv("XDG_CONFIG_HOME"); ok {
		candidates = append(candidates, filepath.Join(xdg, "sudokeep", "sudokeep.yaml"))
	} else if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".config", "sudokeep", "sudokeep.yaml"))
	}

	candidates = append(candidates, "sudokeep.yaml")

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

func newLogger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelInfo
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}
