package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/rileyhilliard/termdash/internal/config"
	"github.com/rileyhilliard/termdash/internal/errors"
)

// initOptions holds options for config init.
type initOptions struct {
	Force          bool // Overwrite existing config without asking
	NonInteractive bool // Skip prompts, write defaults
	Global         bool // Write ~/.config/termdash/config.yaml instead of ./.termdash.yaml
}

var initOpts initOptions

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage termdash configuration",
	Long: `Create, inspect and edit the termdash config file.

Config is read from --config, then ./.termdash.yaml, then
~/.config/termdash/config.yaml. Any key can also be set through the
environment, e.g. TERMDASH_WEATHER_LOCATION=Oslo.`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a config file",
	Long: `Create .termdash.yaml in the current directory, or the global config with --global.

Examples:
  termdash config init
  termdash config init --non-interactive --global`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return configInit(cmd, initOpts)
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective config as YAML",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return configShow(cmd)
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set one key in the config file",
	Long: `Set a dotted key in the config file, keeping its comments and layout.
List keys take comma-separated values.

Examples:
  termdash config set weather.location Oslo
  termdash config set crypto.assets bitcoin,monero
  termdash config set intervals.cpu 2s`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return configSet(cmd, args[0], args[1])
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show which config file is used",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return configPath(cmd)
	},
}

func init() {
	configInitCmd.Flags().BoolVarP(&initOpts.Force, "force", "f", false, "overwrite an existing config")
	configInitCmd.Flags().BoolVar(&initOpts.NonInteractive, "non-interactive", false, "skip prompts and write defaults")
	configInitCmd.Flags().BoolVar(&initOpts.Global, "global", false, "write the global config instead of ./"+config.ConfigFileName)

	configCmd.AddCommand(configInitCmd, configShowCmd, configSetCmd, configPathCmd)
	rootCmd.AddCommand(configCmd)
}

func configInit(cmd *cobra.Command, opts initOptions) error {
	path := config.ConfigFileName
	if opts.Global {
		path = config.GlobalConfigPath()
		if path == "" {
			return errors.New(errors.ErrConfig,
				"Can't locate your home directory",
				"Set HOME, or run without --global to write ./"+config.ConfigFileName)
		}
	}

	out := cmd.OutOrStdout()

	if _, err := os.Stat(path); err == nil && !opts.Force {
		if opts.NonInteractive {
			return errors.New(errors.ErrConfig,
				"Config file already exists: "+path,
				"Use --force to overwrite")
		}

		var overwrite bool
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title(fmt.Sprintf("Config file '%s' already exists. Overwrite?", path)).
					Value(&overwrite),
			),
		)
		if err := form.Run(); err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				"Failed to get user input",
				"Try running with --force to overwrite")
		}
		if !overwrite {
			fmt.Fprintln(out, "Cancelled.")
			return nil
		}
		opts.Force = true
	}

	cfg := config.DefaultConfig()
	if !opts.NonInteractive {
		if err := promptConfig(cfg); err != nil {
			return err
		}
	}

	if err := config.Validate(cfg); err != nil {
		return err
	}
	if err := config.Write(path, cfg, opts.Force); err != nil {
		return err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	fmt.Fprintf(out, "Created %s\n", abs)
	fmt.Fprintln(out, "Run 'termdash' to start the dashboard.")
	return nil
}

// promptConfig asks for the settings people change most and writes the
// answers into cfg.
func promptConfig(cfg *config.Config) error {
	assets := strings.Join(cfg.Crypto.Assets, ", ")

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Show the weather line?").
				Value(&cfg.Weather.Enabled),
			huh.NewInput().
				Title("Weather location").
				Description("City name, airport code or coordinates understood by wttr.in").
				Placeholder("Jalandhar").
				Value(&cfg.Weather.Location).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("location is required")
					}
					return nil
				}),
		),
		huh.NewGroup(
			huh.NewConfirm().
				Title("Show crypto prices?").
				Value(&cfg.Crypto.Enabled),
			huh.NewInput().
				Title("Assets").
				Description("Comma-separated CoinGecko coin ids, shown in this order").
				Placeholder("bitcoin, ethereum").
				Value(&assets).
				Validate(func(s string) error {
					if len(splitList(s)) == 0 {
						return fmt.Errorf("at least one asset is required")
					}
					return nil
				}),
		),
	)

	if err := form.Run(); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to get user input",
			"Try running with --non-interactive to write the defaults")
	}

	cfg.Weather.Location = strings.TrimSpace(cfg.Weather.Location)
	cfg.Crypto.Assets = splitList(assets)
	return nil
}

func configShow(cmd *cobra.Command) error {
	cfg, path, err := loadConfig(cmd, &flags)
	if err != nil {
		return err
	}

	data, err := config.Marshal(cfg)
	if err != nil {
		return err
	}

	if path == "" {
		fmt.Fprintln(cmd.ErrOrStderr(), "# no config file found, showing defaults")
	} else {
		fmt.Fprintf(cmd.ErrOrStderr(), "# loaded from %s\n", path)
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

// configSet edits one key and keeps the change only if the file still
// loads and validates.
func configSet(cmd *cobra.Command, key, value string) error {
	path, err := config.Find(flags.Config)
	if err != nil {
		return err
	}
	if path == "" {
		return errors.New(errors.ErrConfig,
			"No config file found",
			"Run 'termdash config init' to create one.")
	}

	original, err := os.ReadFile(path)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Can't read config file "+path,
			"Check file permissions")
	}

	if err := config.SetValue(path, key, value); err != nil {
		return err
	}

	cfg, err := config.Load(path)
	if err == nil {
		err = config.Validate(cfg)
	}
	if err != nil {
		if restoreErr := os.WriteFile(path, original, 0644); restoreErr != nil {
			return errors.WrapWithCode(restoreErr, errors.ErrConfig,
				"Can't restore "+path+" after a rejected change",
				"Fix the file by hand or recreate it with 'termdash config init --force'.")
		}
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s in %s\n", key, value, path)
	return nil
}

func configPath(cmd *cobra.Command) error {
	path, err := config.Find(flags.Config)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if path == "" {
		fmt.Fprintln(out, "none (using defaults)")
	} else {
		fmt.Fprintln(out, path)
	}
	if global := config.GlobalConfigPath(); global != "" && global != path {
		fmt.Fprintf(cmd.ErrOrStderr(), "# global config location: %s\n", global)
	}
	return nil
}

// splitList splits a comma-separated list, dropping blank entries.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
