package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/haivivi/koe/pkg/cli"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management",
	Long: `Manage koe configuration.

Configuration is stored in ~/.koe/koe/config.yaml. Each context names an
acoustic runtime and model, an analyzer program, a user dictionary and an
output store.

Keys for 'config set':
  runtime, model_dir, threads, profile, speaker,
  analyzer.command, analyzer.args, dict_dir, output, addr, extra.<name>`,
}

var configAddContextCmd = &cobra.Command{
	Use:   "add-context <name>",
	Short: "Add a new context",
	Long: `Add a new context. Settings are given as key=value pairs.

Examples:
  koe config add-context onnx runtime=onnx model_dir=/opt/models profile=variance
  koe config add-context s3 output=s3://voices/koe`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		ctx := &cli.Context{Name: name}
		for _, kv := range args[1:] {
			key, value, ok := cutSetting(kv)
			if !ok {
				return fmt.Errorf("invalid setting %q, want key=value", kv)
			}
			if err := ctx.Set(key, value); err != nil {
				return err
			}
		}

		cfg := getConfig()
		if _, exists := cfg.Contexts[name]; exists {
			return fmt.Errorf("context %q already exists", name)
		}
		if err := cfg.AddContext(name, ctx); err != nil {
			return err
		}
		if cfg.CurrentContext == "" {
			if err := cfg.UseContext(name); err != nil {
				return err
			}
		}
		cli.PrintSuccess("Context '%s' added", name)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a context setting",
	Long: `Set one setting on the selected context (-c), or the current one. A
"default" context is created and made current when none exists.

Examples:
  koe config set analyzer.command /usr/local/bin/jtalk-labels
  koe config set analyzer.args "--dic /usr/share/open-jtalk/dic"
  koe -c onnx config set threads 4`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfig()
		name := contextName
		if name == "" {
			name = cfg.CurrentContext
		}
		if name == "" {
			name = "default"
		}
		ctx, ok := cfg.Contexts[name]
		if !ok {
			ctx = &cli.Context{Name: name}
			cfg.Contexts[name] = ctx
		}
		if err := ctx.Set(args[0], args[1]); err != nil {
			return err
		}
		if cfg.CurrentContext == "" {
			cfg.CurrentContext = name
		}
		if err := cfg.Save(); err != nil {
			return err
		}
		cli.PrintSuccess("Set %s on context '%s'", args[0], name)
		return nil
	},
}

var configDeleteContextCmd = &cobra.Command{
	Use:   "delete-context <name>",
	Short: "Delete a context",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := getConfig().DeleteContext(args[0]); err != nil {
			return err
		}
		cli.PrintSuccess("Context '%s' deleted", args[0])
		return nil
	},
}

var configUseContextCmd = &cobra.Command{
	Use:   "use-context <name>",
	Short: "Set the default context",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := getConfig().UseContext(args[0]); err != nil {
			return err
		}
		cli.PrintSuccess("Switched to context '%s'", args[0])
		return nil
	},
}

var configGetContextCmd = &cobra.Command{
	Use:   "get-context",
	Short: "Show the current context",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfig()
		if cfg.CurrentContext == "" {
			fmt.Fprintln(cmd.OutOrStdout(), "No current context set")
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), cfg.CurrentContext)
		}
		return nil
	},
}

var configListContextsCmd = &cobra.Command{
	Use:   "list-contexts",
	Short: "List all contexts",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfig()
		names := cfg.ListContexts()
		if len(names) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No contexts configured")
			return nil
		}
		for _, name := range names {
			marker := "  "
			if name == cfg.CurrentContext {
				marker = "* "
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s%s\n", marker, name)
		}
		return nil
	},
}

var configViewCmd = &cobra.Command{
	Use:   "view",
	Short: "View full configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return outputResult(cmd, getConfig())
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the resolved context",
	Long:  `Show the selected context with defaults filled in.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, err := getContext()
		if err != nil {
			return err
		}
		return outputResult(cmd, ctx)
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file path",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintln(cmd.OutOrStdout(), getConfig().Path())
		return nil
	},
}

func cutSetting(kv string) (key, value string, ok bool) {
	key, value, ok = strings.Cut(kv, "=")
	return key, value, ok && key != ""
}

func init() {
	configCmd.AddCommand(configAddContextCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configDeleteContextCmd)
	configCmd.AddCommand(configUseContextCmd)
	configCmd.AddCommand(configGetContextCmd)
	configCmd.AddCommand(configListContextsCmd)
	configCmd.AddCommand(configViewCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}
