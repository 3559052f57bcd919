package main

import (
	"fmt"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"vod-archiver/internal/archive"
	"vod-archiver/internal/journal"
)

func newStatusCommand(configFlag *string) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show acquisition progress and recently archived chunks",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*configFlag)
			if err != nil {
				return err
			}

			store := archive.NewFileProgressStore(a.cfg.StateFile)
			record, err := store.Load()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Target:            %s\n", a.cfg.ChannelTarget)
			fmt.Fprintf(out, "Recording:         %s\n", orDash(record.VODURL))
			fmt.Fprintf(out, "Recording started: %s\n", formatTimestamp(record.LastTimestamp))
			fmt.Fprintf(out, "Chunks acquired:   %s\n", formatChunks(record))
			fmt.Fprintln(out)

			jr, err := journal.Open(a.cfg.JournalPath)
			if err != nil {
				return err
			}
			defer jr.Close()

			entries, err := jr.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(out, "No chunks archived yet.")
				return nil
			}

			tw := table.NewWriter()
			tw.SetOutputMirror(out)
			if isatty.IsTerminal(os.Stdout.Fd()) {
				tw.SetStyle(table.StyleRounded)
			}
			tw.AppendHeader(table.Row{"Chunk", "Window", "Destination", "Archived"})
			for _, e := range entries {
				tw.AppendRow(table.Row{
					e.ChunkIndex,
					fmt.Sprintf("%d-%dm", e.StartMinute, e.StartMinute+e.DurationMinute),
					e.Destination,
					e.ArchivedAt,
				})
			}
			tw.Render()
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "Number of journal entries to show")
	return cmd
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func formatTimestamp(ts float64) string {
	if ts <= 0 {
		return "-"
	}
	return time.Unix(int64(ts), 0).UTC().Format(time.RFC3339)
}

func formatChunks(record archive.ProgressRecord) string {
	if record.TotalChunks != nil {
		return fmt.Sprintf("%d / %d", record.DownloadedChunks, *record.TotalChunks)
	}
	return fmt.Sprintf("%d (recording still growing)", record.DownloadedChunks)
}
