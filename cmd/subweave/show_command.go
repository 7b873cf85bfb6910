package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"subweave/internal/ipc"
	"subweave/internal/logs"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	var follow bool
	var lines int

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show recent daemon log output",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if lines <= 0 {
				lines = 10
			}
			if client, err := ipc.Dial(ctx.socketPath()); err == nil {
				defer client.Close()
				return tailViaDaemon(cmd, client, follow, lines)
			}
			return tailDirect(cmd, ctx, follow, lines)
		},
	}
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep streaming new log lines")
	cmd.Flags().IntVarP(&lines, "lines", "n", 10, "Number of initial log lines to show")
	return cmd
}

func tailViaDaemon(cmd *cobra.Command, client *ipc.Client, follow bool, lines int) error {
	resp, err := client.LogTail(ipc.LogTailRequest{Offset: -1, Limit: lines})
	if err != nil {
		return err
	}
	printLogLines(cmd, resp.Lines)
	if !follow {
		return nil
	}

	offset := resp.Offset
	for {
		if err := cmd.Context().Err(); err != nil {
			return err
		}
		resp, err := client.LogTail(ipc.LogTailRequest{
			Offset:     offset,
			Limit:      200,
			Follow:     true,
			WaitMillis: 1000,
		})
		if err != nil {
			return err
		}
		printLogLines(cmd, resp.Lines)
		offset = resp.Offset
	}
}

func tailDirect(cmd *cobra.Command, ctx *commandContext, follow bool, lines int) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	logPath := cfg.LogFilePath()

	result, err := logs.Tail(cmd.Context(), logPath, logs.TailOptions{Offset: -1, Limit: lines})
	if err != nil {
		return err
	}
	printLogLines(cmd, result.Lines)
	if !follow {
		return nil
	}

	offset := result.Offset
	for {
		result, err := logs.Tail(cmd.Context(), logPath, logs.TailOptions{
			Offset: offset,
			Follow: true,
			Wait:   time.Second,
		})
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		printLogLines(cmd, result.Lines)
		offset = result.Offset
	}
}

func printLogLines(cmd *cobra.Command, lines []string) {
	out := cmd.OutOrStdout()
	for _, line := range lines {
		fmt.Fprintln(out, line)
	}
}
