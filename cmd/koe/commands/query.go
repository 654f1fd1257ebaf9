package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/haivivi/koe/pkg/audioquery"
	"github.com/haivivi/koe/pkg/cli"
	"github.com/haivivi/koe/pkg/fullcontext"
	"github.com/haivivi/koe/pkg/kana"
)

var (
	speaker     int64
	querySchema bool
)

var queryCmd = &cobra.Command{
	Use:   "query <text>",
	Short: "Build an audio query from text",
	Long: `Analyze text and build an audio query with predicted phoneme lengths
and pitches and default scales. Edit the result and pass it to 'koe synth -f'.

With --schema the JSON schema that 'koe synth -f' validates queries
against is printed instead.

Examples:
  koe query こんにちは --json -o hello.json
  koe query --schema`,
	Args: func(cmd *cobra.Command, args []string) error {
		if querySchema {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.MinimumNArgs(1)(cmd, args)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if querySchema {
			outputJSON = true
			return outputResult(cmd, audioquery.QuerySchema())
		}
		c, err := getContext()
		if err != nil {
			return err
		}
		e, err := openEngine(c, true)
		if err != nil {
			return err
		}
		defer e.Close()

		q, err := e.engine.AudioQuery(cmd.Context(), strings.Join(args, " "), speakerFlag(c, speaker, cmd.Flags().Changed("speaker")))
		if err != nil {
			return err
		}
		return outputResult(cmd, q)
	},
}

var phrasesKana bool

var phrasesCmd = &cobra.Command{
	Use:   "phrases <text>",
	Short: "Predict accent phrases from text or kana",
	Long: `Analyze text, or parse kana notation with --kana, and predict the
phoneme lengths and pitches of its accent phrases.

With -f the accent phrases are read from a file and only their mora data
is re-predicted.

Examples:
  koe phrases 今日はいい天気
  koe phrases --kana "キョ'オワ/イ'イ/テ'ンキ"
  koe phrases -f phrases.json --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := getContext()
		if err != nil {
			return err
		}
		e, err := openEngine(c, !phrasesKana && inputFile == "")
		if err != nil {
			return err
		}
		defer e.Close()
		spk := speakerFlag(c, speaker, cmd.Flags().Changed("speaker"))

		var phrases []audioquery.AccentPhrase
		switch {
		case inputFile != "":
			in, err := cli.LoadAccentPhrases(inputFile)
			if err != nil {
				return err
			}
			phrases, err = e.engine.ReplaceMoraData(cmd.Context(), in, spk)
			if err != nil {
				return err
			}
		case len(args) == 0:
			return fmt.Errorf("text or -f is required")
		case phrasesKana:
			phrases, err = e.engine.AccentPhrasesFromKana(cmd.Context(), strings.Join(args, ""), spk)
		default:
			phrases, err = e.engine.CreateAccentPhrases(cmd.Context(), strings.Join(args, " "), spk)
		}
		if err != nil {
			return err
		}
		return outputResult(cmd, phrases)
	},
}

var kanaCmd = &cobra.Command{
	Use:   "kana",
	Short: "Parse or render kana notation",
	Long: `Convert between kana notation and accent phrases without predicting
any mora data.

Kana notation writes each accent phrase in katakana, marks the accent with
' after the accented mora, separates phrases with / (no pause) or 、
(pause), marks devoiced moras with a leading _ and questions with a
trailing ？.`,
}

var kanaParseCmd = &cobra.Command{
	Use:   "parse <kana>",
	Short: "Parse kana notation into accent phrases",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		phrases, err := kana.Parse(args[0])
		if err != nil {
			return err
		}
		return outputResult(cmd, phrases)
	},
}

var kanaFromQuery bool

var kanaCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Render accent phrases as kana",
	Long: `Render the accent phrase list in -f as kana notation. With --query the
file holds a whole audio query instead.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if inputFile == "" {
			return fmt.Errorf("-f is required")
		}
		var phrases []audioquery.AccentPhrase
		if kanaFromQuery {
			q, err := cli.LoadQuery(inputFile)
			if err != nil {
				return err
			}
			phrases = q.AccentPhrases
		} else {
			var err error
			if phrases, err = cli.LoadAccentPhrases(inputFile); err != nil {
				return err
			}
		}
		fmt.Fprintln(cmd.OutOrStdout(), kana.Create(phrases))
		return nil
	},
}

var labelsPhrases bool

var labelsCmd = &cobra.Command{
	Use:   "labels <text>",
	Short: "Show full-context labels for text",
	Long: `Run the configured analyzer on text and print its full-context labels.
With --phrases the labels are assembled into accent phrases instead, before
any prediction.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := getContext()
		if err != nil {
			return err
		}
		e, err := openEngine(c, true)
		if err != nil {
			return err
		}
		defer e.Close()

		var analyzer fullcontext.Analyzer = testAnalyzer
		if analyzer == nil {
			if e.analyzer == nil {
				return fmt.Errorf("no analyzer configured; set analyzer.command")
			}
			analyzer = e.analyzer
		}
		text := strings.Join(args, " ")
		if !labelsPhrases {
			labels, err := analyzer.ExtractFullcontext(cmd.Context(), text)
			if err != nil {
				return err
			}
			return outputResult(cmd, labels)
		}
		u, err := fullcontext.Extract(cmd.Context(), analyzer, text)
		if err != nil {
			return err
		}
		return outputResult(cmd, u.AccentPhrases())
	},
}

var metasCmd = &cobra.Command{
	Use:   "metas",
	Short: "Show speaker metadata",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := getContext()
		if err != nil {
			return err
		}
		e, err := openEngine(c, false)
		if err != nil {
			return err
		}
		defer e.Close()
		var v any
		if err := cli.ParseRequest([]byte(e.engine.Metas()), "metas.json", &v); err != nil {
			return fmt.Errorf("core metas: %w", err)
		}
		return outputResult(cmd, v)
	},
}

func init() {
	for _, cmd := range []*cobra.Command{queryCmd, phrasesCmd} {
		cmd.Flags().Int64VarP(&speaker, "speaker", "s", 0, "speaker (style) ID (default: context speaker)")
	}
	queryCmd.Flags().BoolVar(&querySchema, "schema", false, "print the audio query JSON schema")
	phrasesCmd.Flags().BoolVar(&phrasesKana, "kana", false, "treat the text as kana notation")
	kanaCreateCmd.Flags().BoolVar(&kanaFromQuery, "query", false, "-f holds an audio query")
	labelsCmd.Flags().BoolVar(&labelsPhrases, "phrases", false, "assemble the labels into accent phrases")

	kanaCmd.AddCommand(kanaParseCmd)
	kanaCmd.AddCommand(kanaCreateCmd)

	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(phrasesCmd)
	rootCmd.AddCommand(kanaCmd)
	rootCmd.AddCommand(labelsCmd)
	rootCmd.AddCommand(metasCmd)
}
