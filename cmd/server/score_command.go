package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agenthands/platformid/internal/fingerprint"
)

func newScoreCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "score <signal-a> <signal-b>",
		Short: "Score two fingerprint strings with the configured weights",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.loadConfig()
			if err != nil {
				return err
			}
			m, err := cfg.BuildMatching()
			if err != nil {
				return err
			}

			score := fingerprint.Score(fingerprint.Parse(args[0]), fingerprint.Parse(args[1]), m.Weights)
			verdict := "no match"
			switch {
			case args[0] == args[1]:
				verdict = "exact match"
			case m.Accepts(score):
				verdict = "weighted match"
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "profile:  %s\n", cfg.Matching.Profile)
			fmt.Fprintf(out, "score:    %d\n", score)
			fmt.Fprintf(out, "max:      %d\n", m.Weights.MaxScore())
			fmt.Fprintf(out, "minimum:  %.2f\n", m.MinimumScore())
			fmt.Fprintf(out, "verdict:  %s\n", verdict)
			return nil
		},
	}
}
