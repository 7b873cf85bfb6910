package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"subweave/internal/ipc"
	"subweave/internal/preflight"
)

func newDaemonCommands(ctx *commandContext) []*cobra.Command {
	return []*cobra.Command{
		newStartCommand(ctx),
		newStopCommand(ctx),
		newRestartCommand(ctx),
		newStatusCommand(ctx),
	}
}

func newStartCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the subweave daemon and begin processing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			state, err := ensureStarted(ctx)
			if err != nil {
				return err
			}
			switch state {
			case startStateAlreadyRunning:
				fmt.Fprintln(cmd.OutOrStdout(), "Daemon is already running")
			case startStateRequested:
				fmt.Fprintln(cmd.OutOrStdout(), "Daemon reachable; start requested")
			default:
				fmt.Fprintln(cmd.OutOrStdout(), "Daemon started")
			}
			return nil
		},
	}
}

func newStopCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the subweave daemon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := stopAndTerminate(ctx, 8*time.Second); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Daemon stopped")
			return nil
		},
	}
}

func newRestartCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "restart",
		Short: "Restart the subweave daemon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := stopAndTerminate(ctx, 8*time.Second); err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Stop skipped: %v\n", err)
			}
			state, err := ensureStarted(ctx)
			if err != nil {
				return err
			}
			if state == startStateAlreadyRunning {
				fmt.Fprintln(cmd.OutOrStdout(), "Daemon is already running")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "Daemon restarted")
			}
			return nil
		},
	}
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon, dependency, and queue status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			snapshot, reachable, err := buildStatusSnapshot(cmd.Context(), ctx)
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, snapshot)
			}
			renderStatus(cmd.OutOrStdout(), ctx, snapshot, reachable)
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit status as JSON")
	return cmd
}

func renderStatus(out io.Writer, ctx *commandContext, snapshot ipc.StatusResponse, reachable bool) {
	colorize := shouldColorize(out)

	printSection(out, "System Status", colorize)
	switch {
	case reachable && snapshot.Running:
		printStatus(out, "Daemon", toneGood, fmt.Sprintf("running (pid %d)", snapshot.PID), colorize)
	case reachable:
		printStatus(out, "Daemon", toneCaution, "reachable but workflow stopped", colorize)
	default:
		printStatus(out, "Daemon", toneBad, "not running", colorize)
	}
	if snapshot.LastError != "" {
		printStatus(out, "Last error", toneCaution, snapshot.LastError, colorize)
	}
	if item := snapshot.LastItem; item != nil {
		detail := fmt.Sprintf("#%d %s (%s)", item.ID, displayTitle(*item), formatStatusLabel(item.Status))
		printStatus(out, "Last item", toneNote, detail, colorize)
	}

	cfg := ctx.configValue()
	if cfg != nil {
		if cfg.Notifications.NtfyTopic != "" {
			printStatus(out, "Notifications", toneGood, "ntfy topic configured", colorize)
		} else {
			printStatus(out, "Notifications", toneNote, "not configured", colorize)
		}
		if cfg.LLM.APIKey != "" {
			printStatus(out, "Translation LLM", toneGood, cfg.LLM.Model, colorize)
		} else {
			printStatus(out, "Translation LLM", toneCaution, "api_key not set", colorize)
		}
	}

	if len(snapshot.StageHealth) > 0 {
		printSection(out, "Stages", colorize)
		for _, stageHealth := range snapshot.StageHealth {
			kind := toneGood
			if !stageHealth.Ready {
				kind = toneCaution
			}
			printStatus(out, stageHealth.Name, kind, stageHealth.Detail, colorize)
		}
	}

	if len(snapshot.Dependencies) > 0 {
		printSection(out, "Dependencies", colorize)
		for _, dep := range snapshot.Dependencies {
			kind := toneGood
			if !dep.Available {
				kind = toneBad
				if dep.Optional {
					kind = toneCaution
				}
			}
			detail := dep.Detail
			if detail == "" {
				detail = dep.Description
			}
			printStatus(out, dep.Name, kind, detail, colorize)
		}
	}

	if cfg != nil {
		printSection(out, "Library Paths", colorize)
		checks := []preflight.Result{
			preflight.CheckDirectoryAccess("Staging", cfg.Paths.StagingDir),
			preflight.CheckDirectoryAccess("Library", cfg.Paths.LibraryDir),
			preflight.CheckDirectoryAccess("Logs", cfg.Paths.LogDir),
		}
		for _, check := range checks {
			kind := toneGood
			if !check.Passed {
				kind = toneBad
			}
			printStatus(out, check.Name, kind, check.Detail, colorize)
		}
	}

	printSection(out, "Queue Status", colorize)
	rows := buildQueueStatusRows(snapshot.QueueStats)
	if len(rows) == 0 {
		fmt.Fprintln(out, "  Queue is empty")
		return
	}
	fmt.Fprintln(out, renderTable([]string{"Status", "Count"}, rows, 1))
}

func printSection(out io.Writer, title string, colorize bool) {
	fmt.Fprintln(out, renderHeading(title, colorize))
}

func printStatus(out io.Writer, label string, tone healthTone, detail string, colorize bool) {
	fmt.Fprintln(out, renderStatusLine(label, tone, detail, colorize))
}

func displayTitle(item ipc.QueueItem) string {
	if item.Title != "" {
		return item.Title
	}
	if item.Source != "" {
		return item.Source
	}
	return "Unknown"
}
