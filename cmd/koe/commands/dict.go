package commands

import (
	"context"
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/haivivi/koe/pkg/cli"
	"github.com/haivivi/koe/pkg/fullcontext"
	"github.com/haivivi/koe/pkg/userdict"
)

var dictFlags struct {
	wordType string
	priority int
	override bool
	csv      bool
}

var dictCmd = &cobra.Command{
	Use:   "dict",
	Short: "Manage the user dictionary",
	Long: `Manage user dictionary words. Words are stored in the context's dict_dir
and handed to the analyzer as MeCab CSV whenever they change.

Word types: PROPER_NOUN (default), COMMON_NOUN, VERB, ADJECTIVE, SUFFIX.
Priority runs from 0 (rarely used) to 10 (always used), default 5.`,
}

// withDict opens the user dictionary, wired to the analyzer when one is
// configured, and runs fn.
func withDict(fn func(ctx context.Context, d *userdict.Dict) error) error {
	c, err := getContext()
	if err != nil {
		return err
	}
	var reloader userdict.Reloader
	if c.Analyzer != nil && c.Analyzer.Command != "" {
		dir, err := dictDir(c)
		if err != nil {
			return err
		}
		reloader = &fullcontext.CommandAnalyzer{Path: c.Analyzer.Command, Args: c.Analyzer.Args, DictDir: dir}
	}
	d, err := openDict(c, reloader)
	if err != nil {
		return err
	}
	defer d.Store().Close()
	return fn(context.Background(), d)
}

func wordRequest(cmd *cobra.Command, surface, pronunciation, accent string) (userdict.WordRequest, error) {
	var accentType int
	if _, err := fmt.Sscanf(accent, "%d", &accentType); err != nil {
		return userdict.WordRequest{}, fmt.Errorf("accent type %q: %w", accent, err)
	}
	req := userdict.WordRequest{
		Surface:       surface,
		Pronunciation: pronunciation,
		AccentType:    accentType,
		WordType:      userdict.WordType(dictFlags.wordType),
	}
	if cmd.Flags().Changed("priority") {
		p := dictFlags.priority
		req.Priority = &p
	}
	return req, nil
}

var dictListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List dictionary words",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDict(func(ctx context.Context, d *userdict.Dict) error {
			words, err := d.Words(ctx)
			if err != nil {
				return err
			}
			if outputJSON || outputFile != "" {
				return outputResult(cmd, words)
			}
			if len(words) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No words registered")
				return nil
			}
			ids := make([]string, 0, len(words))
			for id := range words {
				ids = append(ids, id)
			}
			sort.Strings(ids)
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSURFACE\tPRONUNCIATION\tACCENT\tTYPE\tPRIORITY")
			for _, id := range ids {
				word := words[id]
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%d\n", id, word.Surface, word.Pronunciation,
					word.AccentType, word.PartOfSpeech, word.Priority)
			}
			return w.Flush()
		})
	},
}

var dictAddCmd = &cobra.Command{
	Use:   "add <surface> <pronunciation> <accent-type>",
	Short: "Add a word",
	Long: `Add a word. The pronunciation is katakana; the accent type is the
1-based index of the accented mora, or 0 for a flat word.

Example:
  koe dict add 音声 オンセイ 1 --type COMMON_NOUN --priority 7`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := wordRequest(cmd, args[0], args[1], args[2])
		if err != nil {
			return err
		}
		return withDict(func(ctx context.Context, d *userdict.Dict) error {
			id, err := d.Add(ctx, req)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		})
	},
}

var dictRewriteCmd = &cobra.Command{
	Use:   "rewrite <id> <surface> <pronunciation> <accent-type>",
	Short: "Replace a word",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := wordRequest(cmd, args[1], args[2], args[3])
		if err != nil {
			return err
		}
		return withDict(func(ctx context.Context, d *userdict.Dict) error {
			if err := d.Rewrite(ctx, args[0], req); err != nil {
				return err
			}
			cli.PrintSuccess("Word %s rewritten", args[0])
			return nil
		})
	},
}

var dictDeleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Aliases: []string{"rm"},
	Short:   "Delete a word",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDict(func(ctx context.Context, d *userdict.Dict) error {
			if err := d.Delete(ctx, args[0]); err != nil {
				return err
			}
			cli.PrintSuccess("Word %s deleted", args[0])
			return nil
		})
	},
}

var dictExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the dictionary",
	Long: `Export every word as JSON keyed by ID, the format 'dict import' reads.
With --csv the dictionary is rendered as MeCab CSV source instead.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDict(func(ctx context.Context, d *userdict.Dict) error {
			if dictFlags.csv {
				data, err := d.CSV(ctx)
				if err != nil {
					return err
				}
				opts := cli.OutputOptions{Format: cli.FormatRaw, File: outputFile}
				if outputFile == "" {
					opts.Writer = cmd.OutOrStdout()
				}
				return cli.Output(data, opts)
			}
			words, err := d.Words(ctx)
			if err != nil {
				return err
			}
			outputJSON = true
			return outputResult(cmd, words)
		})
	},
}

var dictImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Import words from a file",
	Long: `Import words from -f, a JSON or YAML map of word ID to word as written by
'dict export'. Existing IDs are kept unless --override is set.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if inputFile == "" {
			return fmt.Errorf("-f is required")
		}
		var words map[string]userdict.Word
		if err := cli.LoadJSON(inputFile, &words); err != nil {
			return err
		}
		return withDict(func(ctx context.Context, d *userdict.Dict) error {
			if err := d.Import(ctx, words, dictFlags.override); err != nil {
				return err
			}
			cli.PrintSuccess("Imported %d words", len(words))
			return nil
		})
	},
}

func init() {
	for _, cmd := range []*cobra.Command{dictAddCmd, dictRewriteCmd} {
		cmd.Flags().StringVar(&dictFlags.wordType, "type", string(userdict.ProperNoun), "word type")
		cmd.Flags().IntVar(&dictFlags.priority, "priority", userdict.DefaultPriority, "priority 0..10")
	}
	dictImportCmd.Flags().BoolVar(&dictFlags.override, "override", false, "replace words with existing IDs")
	dictExportCmd.Flags().BoolVar(&dictFlags.csv, "csv", false, "export MeCab CSV source")

	dictCmd.AddCommand(dictListCmd)
	dictCmd.AddCommand(dictAddCmd)
	dictCmd.AddCommand(dictRewriteCmd)
	dictCmd.AddCommand(dictDeleteCmd)
	dictCmd.AddCommand(dictExportCmd)
	dictCmd.AddCommand(dictImportCmd)
	rootCmd.AddCommand(dictCmd)
}
