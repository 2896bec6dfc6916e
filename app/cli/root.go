// Package cli holds the chessgpt command tree.
package cli

import (
	"github.com/MakeNowJust/heredoc/v2"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func Root() *cobra.Command {
	root := &cobra.Command{
		Use:   "chessgpt",
		Short: "Chess position analysis service",
		Long: heredoc.Doc(`chessgpt runs a UCI chess engine behind a small HTTP API.
			POST a FEN to /chessgpt and get back the engine's best move
			and evaluation, plus a one-line summary when a prompt is sent.

			Without a subcommand, chessgpt behaves like "chessgpt serve".`),
		Args: cobra.NoArgs,

		SilenceErrors: true,
		SilenceUsage:  true,

		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// --trace wins over whatever level the config asks for.
			if cmd.Flag("trace").Changed {
				logrus.SetLevel(logrus.TraceLevel)
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd)
		},
	}

	root.PersistentFlags().StringP("config", "c", "", "Path to a YAML config file")
	root.PersistentFlags().BoolP("trace", "t", false, "Show Trace Information")

	root.AddCommand(Serve())
	root.AddCommand(Analyze())

	return root
}
