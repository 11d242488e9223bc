package cli

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alnah/go-echoloop/internal/config"
)

// envForKey maps config keys to the environment variable that overrides them.
var envForKey = map[string]string{
	config.KeyOutputDir:  "OUTPUT_DIR",
	config.KeySilenceDir: "SILENCE_DIR",
}

// ConfigCmd creates the config command with subcommands.
// The env parameter provides injectable dependencies for testing.
func ConfigCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration settings",
		Long: `Manage persistent configuration settings.

Configuration is stored in ~/.config/echoloop/config.
Environment variables take precedence over stored values.

Supported settings:
  output-dir    Directory for segment files (env: OUTPUT_DIR)
  silence-dir   Cache directory for silence clips (env: SILENCE_DIR)`,
		Example: `  echoloop config set output-dir ~/echoloop/segments
  echoloop config get output-dir
  echoloop config list`,
	}

	cmd.AddCommand(configSetCmd(env))
	cmd.AddCommand(configGetCmd(env))
	cmd.AddCommand(configListCmd(env))

	return cmd
}

// configSetCmd creates the "config set" subcommand.
func configSetCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long: `Set a configuration value.

Supported keys:
  output-dir    Directory for segment files
  silence-dir   Cache directory for silence clips

The directory will be created if it doesn't exist.`,
		Example: `  echoloop config set output-dir ~/echoloop/segments
  echoloop config set silence-dir /tmp/echoloop-silence`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigSet(env, args[0], args[1])
		},
	}
}

// configGetCmd creates the "config get" subcommand.
func configGetCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Long: `Get a configuration value.

Prints the value to stdout, or nothing if not set.`,
		Example: `  echoloop config get output-dir`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigGet(env, cmd.OutOrStdout(), args[0])
		},
	}
}

// configListCmd creates the "config list" subcommand.
func configListCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all configuration values",
		Long: `List all configuration values.

Shows both values from the config file and environment variable overrides.`,
		Example: `  echoloop config list`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigList(env, cmd.OutOrStdout())
		},
	}
}

// runConfigSet handles the "config set" command.
func runConfigSet(env *Env, key, value string) error {
	if !config.ValidKey(key) {
		return fmt.Errorf("%w: %q (valid keys: %s)", config.ErrUnknownKey, key, strings.Join(config.Keys, ", "))
	}

	// Both keys name directories; store the expanded path.
	expanded := config.ExpandPath(value)
	if err := config.EnsureOutputDir(expanded); err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}

	if err := env.ConfigStore.Set(key, expanded); err != nil {
		return err
	}

	fmt.Fprintf(env.Stderr, "Set %s = %s\n", key, expanded)
	return nil
}

// runConfigGet handles the "config get" command.
// The environment variable wins over the stored value, as it does for runs.
func runConfigGet(env *Env, out io.Writer, key string) error {
	if !config.ValidKey(key) {
		return fmt.Errorf("%w: %q (valid keys: %s)", config.ErrUnknownKey, key, strings.Join(config.Keys, ", "))
	}

	value, ok := lookupEnv(env, key)
	if !ok {
		stored, err := env.ConfigStore.Get(key)
		if err != nil {
			return err
		}
		value = stored
	}

	if value != "" {
		_, _ = fmt.Fprintln(out, value)
	}
	return nil
}

// runConfigList handles the "config list" command.
func runConfigList(env *Env, out io.Writer) error {
	data, err := env.ConfigStore.List()
	if err != nil {
		return err
	}
	if data == nil {
		data = make(map[string]string)
	}

	for _, key := range config.Keys {
		if v, ok := lookupEnv(env, key); ok {
			data[key] = v + " (from env)"
		}
	}

	if len(data) == 0 {
		_, _ = fmt.Fprintln(out, "No configuration set.")
		if p, err := env.ConfigStore.Path(); err == nil {
			_, _ = fmt.Fprintf(out, "Config file: %s\n", p)
		}
		_, _ = fmt.Fprintln(out, "\nAvailable settings:")
		for _, key := range config.Keys {
			_, _ = fmt.Fprintf(out, "  %s\n", key)
		}
		return nil
	}

	for _, key := range slices.Sorted(maps.Keys(data)) {
		_, _ = fmt.Fprintf(out, "%s=%s\n", key, data[key])
	}
	return nil
}

// lookupEnv returns the non-empty environment override for key.
func lookupEnv(env *Env, key string) (string, bool) {
	name, ok := envForKey[key]
	if !ok || env.Lookuper == nil {
		return "", false
	}
	v, ok := env.Lookuper.Lookup(name)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}
