package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/haivivi/koe/pkg/cli"
)

const appName = "koe"

var (
	// Global flags
	cfgFile     string
	contextName string
	outputFile  string
	inputFile   string
	outputJSON  bool
	verbose     bool

	// Global configuration
	globalConfig *cli.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "koe",
	Short: "Japanese text-to-speech front-end",
	Long: `koe - build audio queries from Japanese text and synthesize them.

koe analyzes text into accent phrases, predicts phoneme lengths and pitch
with an acoustic core and renders the result as 16-bit PCM WAV. Audio
queries can be edited between steps and fed back in.

Configuration is stored in ~/.koe/koe/ and supports multiple contexts,
similar to kubectl's context management.

Examples:
  # Point the default context at a label extraction program
  koe config set analyzer.command /usr/local/bin/jtalk-labels

  # Build, edit and synthesize a query
  koe query こんにちは --json -o hello.json
  koe synth -f hello.json -o hello.wav

  # Synthesize kana notation directly
  koe synth --kana "コンニチワ'" --save hello.wav
`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.koe/koe/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&contextName, "context", "c", "", "context name to use")
	rootCmd.PersistentFlags().StringVarP(&outputFile, "output", "o", "", "output file (default: stdout)")
	rootCmd.PersistentFlags().StringVarP(&inputFile, "file", "f", "", "input file (YAML or JSON, - for stdin)")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "output as JSON (for piping)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

func initConfig() {
	var err error
	globalConfig, err = cli.LoadConfigWithPath(appName, cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing config: %v\n", err)
		os.Exit(1)
	}
}

// getConfig returns the global configuration
func getConfig() *cli.Config {
	return globalConfig
}

// getContext returns the resolved context to use
func getContext() (*cli.Context, error) {
	cfg := getConfig()
	if cfg == nil {
		return nil, fmt.Errorf("configuration not initialized")
	}
	ctx, err := cfg.ResolveContext(contextName)
	if err != nil {
		return nil, err
	}
	return ctx.Resolve(), nil
}

// outputResult writes result to -o or the command's stdout.
func outputResult(cmd *cobra.Command, result any) error {
	format := cli.FormatYAML
	if outputJSON {
		format = cli.FormatJSON
	}
	opts := cli.OutputOptions{Format: format, File: outputFile}
	if outputFile == "" {
		opts.Writer = cmd.OutOrStdout()
	}
	return cli.Output(result, opts)
}

// printVerbose prints verbose output if enabled
func printVerbose(format string, args ...any) {
	cli.PrintVerbose(verbose, format, args...)
}
