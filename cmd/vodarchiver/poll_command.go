package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newPollCommand(configFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:   "poll",
		Short: "Run one acquisition cycle and exit",
		Long: "Performs a single poll: discovers the latest recording, slices the next\n" +
			"chunk window when it is durably available, dispatches it, and commits\n" +
			"progress. Scheduling repeated polls is left to cron or similar.",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*configFlag)
			if err != nil {
				return err
			}

			rt, err := a.buildRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			result, pollErr := rt.planner.Poll(cmd.Context())
			if result.Outcome != "" {
				fmt.Fprintln(cmd.OutOrStdout(), string(result.Outcome))
			}
			return pollErr
		},
	}
}
