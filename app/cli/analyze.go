package cli

import (
	"encoding/json"
	"os"
	"time"

	"example/chessgpt-api/app"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/briandowns/spinner"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// chessgpt analyze
func Analyze() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [fen]",
		Short: "Analyze a single position and exit",
		Args:  cobra.MaximumNArgs(1),
		Long: heredoc.Doc(`analyze runs one engine query and prints the same JSON
			body that POST /chessgpt would return. Without a FEN the
			standard starting position is analyzed.

			Example:
			  chessgpt analyze "6k1/5ppp/8/8/8/8/5PPP/R5K1 w - - 0 1" --prompt why`),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			var fen string
			if len(args) == 1 {
				fen = args[0]
			}
			prompt, _ := cmd.Flags().GetString("prompt")

			s := spinner.New(spinner.CharSets[11], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
			s.Suffix = " starting " + cfg.Engine.Path
			s.Start()
			engine, err := app.NewUCIEngine(cfg.Engine)
			s.Stop()
			if err != nil {
				return err
			}
			defer func() {
				if err := engine.Close(); err != nil {
					logrus.WithError(err).Debug("engine did not exit cleanly")
				}
			}()

			resp, err := app.NewAnalyzerFromConfig(engine, cfg.Engine).Analyze(cmd.Context(), fen, prompt)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(resp)
		},
	}

	cmd.Flags().StringP("prompt", "p", "", "Attach a summary message to the result")
	return cmd
}
