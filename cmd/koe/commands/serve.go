package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/haivivi/koe/cmd/koe/internal/build"
	"github.com/haivivi/koe/pkg/cli"
	"github.com/haivivi/koe/pkg/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API",
	Long: `Serve the engine over HTTP with VOICEVOX-compatible routes:

  GET    /version /speakers
  POST   /audio_query /accent_phrases /mora_data /mora_length /mora_pitch
  POST   /synthesis            (?save=<path> also writes to the output store)
  GET    /user_dict
  POST   /user_dict_word /import_user_dict
  PUT    /user_dict_word/{id}
  DELETE /user_dict_word/{id}

The server stops gracefully on SIGINT or SIGTERM.

Example:
  koe serve --addr :50021`,
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
		if e.dict == nil {
			if e.dict, err = openDict(c, nil); err != nil {
				return err
			}
		}
		store, err := openStore(c)
		if err != nil {
			return err
		}

		addr := c.Addr
		if cmd.Flags().Changed("addr") {
			addr = serveAddr
		}
		srv := server.New(e.engine,
			server.WithDict(e.dict),
			server.WithStore(store),
			server.WithVersion(build.Version),
		)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return srv.ListenAndServe(ctx, addr)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default: context addr or "+cli.DefaultAddr+")")
	rootCmd.AddCommand(serveCmd)
}
