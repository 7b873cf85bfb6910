package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"subweave/internal/ipc"
	"subweave/internal/queue"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage the processing queue",
	}
	cmd.AddCommand(
		newQueueListCommand(ctx),
		newQueueDescribeCommand(ctx),
		newQueueStatusCommand(ctx),
		newQueueHealthSummaryCommand(ctx),
		newQueueClearCommand(ctx),
		newQueueClearFailedCommand(ctx),
		newQueueClearCompletedCommand(ctx),
		newQueueResetCommand(ctx),
		newQueueRetryCommand(ctx),
		newQueueRemoveCommand(ctx),
		newQueueStopCommand(ctx),
	)
	return cmd
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var statusFilters []string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List queue items",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			items, err := fetchQueueItems(ctx, cmd, statusFilters)
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, items)
			}
			rows := buildQueueListRows(items)
			if len(rows) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
				return nil
			}
			headers := []string{"ID", "Title", "Status", "Target", "Created"}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(headers, rows, 0))
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&statusFilters, "status", "s", nil, "Filter by status (repeatable)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit items as JSON")
	return cmd
}

func fetchQueueItems(ctx *commandContext, cmd *cobra.Command, statusFilters []string) ([]ipc.QueueItem, error) {
	var items []ipc.QueueItem
	err := ctx.withStore(func(client *ipc.Client, store *queue.Store) error {
		if client != nil {
			resp, err := client.QueueList(statusFilters)
			if err != nil {
				return err
			}
			items = resp.Items
			return nil
		}

		statuses, err := parseStatusFilters(statusFilters)
		if err != nil {
			return err
		}
		stored, err := store.List(cmd.Context(), statuses...)
		if err != nil {
			return err
		}
		for _, item := range stored {
			items = append(items, ipc.FromQueueItem(item))
		}
		return nil
	})
	return items, err
}

func parseStatusFilters(filters []string) ([]queue.Status, error) {
	statuses := make([]queue.Status, 0, len(filters))
	for _, filter := range filters {
		status, ok := queue.ParseStatus(filter)
		if !ok {
			return nil, fmt.Errorf("unknown status %q", filter)
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

func newQueueDescribeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "describe <id>",
		Short: "Show every recorded field of a queue item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseItemIDs(args)
			if err != nil {
				return err
			}
			return ctx.withStore(func(client *ipc.Client, store *queue.Store) error {
				var item ipc.QueueItem
				if client != nil {
					resp, err := client.QueueDescribe(ids[0])
					if err != nil {
						return err
					}
					item = resp.Item
				} else {
					stored, err := store.GetByID(cmd.Context(), ids[0])
					if err != nil {
						return err
					}
					if stored == nil {
						return fmt.Errorf("queue item %d not found", ids[0])
					}
					item = ipc.FromQueueItem(stored)
				}
				return writeJSON(cmd, item)
			})
		},
	}
}

func newQueueStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show queue counts by status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return ctx.withStore(func(client *ipc.Client, store *queue.Store) error {
				stats := map[string]int{}
				if client != nil {
					status, err := client.Status()
					if err != nil {
						return err
					}
					stats = status.QueueStats
				} else {
					stored, err := store.Stats(cmd.Context())
					if err != nil {
						return err
					}
					for status, count := range stored {
						stats[string(status)] = count
					}
				}
				rows := buildQueueStatusRows(stats)
				if len(rows) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Status", "Count"}, rows, 1))
				return nil
			})
		},
	}
}

func newQueueClearCommand(ctx *commandContext) *cobra.Command {
	var completedOnly bool
	var failedOnly bool
	var force bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove queue items",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if completedOnly && failedOnly {
				return fmt.Errorf("--completed and --failed are mutually exclusive")
			}
			if !completedOnly && !failedOnly && !force {
				return fmt.Errorf("clearing the entire queue requires --force")
			}
			return ctx.withStore(func(client *ipc.Client, store *queue.Store) error {
				var removed int64
				var err error
				switch {
				case client != nil && completedOnly:
					var resp *ipc.QueueClearCompletedResponse
					if resp, err = client.QueueClearCompleted(); err == nil {
						removed = resp.Removed
					}
				case client != nil && failedOnly:
					var resp *ipc.QueueClearFailedResponse
					if resp, err = client.QueueClearFailed(); err == nil {
						removed = resp.Removed
					}
				case client != nil:
					var resp *ipc.QueueClearResponse
					if resp, err = client.QueueClear(); err == nil {
						removed = resp.Removed
					}
				case completedOnly:
					removed, err = store.ClearCompleted(cmd.Context())
				case failedOnly:
					removed, err = store.ClearFailed(cmd.Context())
				default:
					removed, err = store.Clear(cmd.Context())
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d item(s)\n", removed)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&completedOnly, "completed", false, "Only remove completed items")
	cmd.Flags().BoolVar(&failedOnly, "failed", false, "Only remove failed items")
	cmd.Flags().BoolVar(&force, "force", false, "Allow clearing every item regardless of status")
	return cmd
}

func newQueueHealthSummaryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Show aggregate queue health counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return ctx.withStore(func(client *ipc.Client, store *queue.Store) error {
				var health ipc.QueueHealthResponse
				if client != nil {
					resp, err := client.QueueHealth()
					if err != nil {
						return err
					}
					health = *resp
				} else {
					summary, err := store.Health(cmd.Context())
					if err != nil {
						return err
					}
					health = ipc.QueueHealthResponse{
						Total:      summary.Total,
						Pending:    summary.Pending,
						Processing: summary.Processing,
						Failed:     summary.Failed,
						Review:     summary.Review,
						Completed:  summary.Completed,
					}
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Total:      %d\n", health.Total)
				fmt.Fprintf(out, "Pending:    %d\n", health.Pending)
				fmt.Fprintf(out, "Processing: %d\n", health.Processing)
				fmt.Fprintf(out, "Failed:     %d\n", health.Failed)
				fmt.Fprintf(out, "Review:     %d\n", health.Review)
				fmt.Fprintf(out, "Completed:  %d\n", health.Completed)
				return nil
			})
		},
	}
}

func newQueueClearFailedCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear-failed",
		Short: "Remove failed queue items",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return ctx.withStore(func(client *ipc.Client, store *queue.Store) error {
				var removed int64
				if client != nil {
					resp, err := client.QueueClearFailed()
					if err != nil {
						return err
					}
					removed = resp.Removed
				} else {
					var err error
					removed, err = store.ClearFailed(cmd.Context())
					if err != nil {
						return err
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d item(s)\n", removed)
				return nil
			})
		},
	}
}

func newQueueClearCompletedCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear-completed",
		Short: "Remove completed queue items",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return ctx.withStore(func(client *ipc.Client, store *queue.Store) error {
				var removed int64
				if client != nil {
					resp, err := client.QueueClearCompleted()
					if err != nil {
						return err
					}
					removed = resp.Removed
				} else {
					var err error
					removed, err = store.ClearCompleted(cmd.Context())
					if err != nil {
						return err
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d item(s)\n", removed)
				return nil
			})
		},
	}
}

func newQueueResetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "reset-stuck",
		Aliases: []string{"reset"},
		Short: "Roll stuck in-flight items back to their previous stable status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return ctx.withStore(func(client *ipc.Client, store *queue.Store) error {
				var reset int64
				if client != nil {
					resp, err := client.QueueReset()
					if err != nil {
						return err
					}
					reset = resp.Updated
				} else {
					var err error
					reset, err = store.ResetStuckProcessing(cmd.Context())
					if err != nil {
						return err
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Reset %d item(s)\n", reset)
				return nil
			})
		},
	}
}

func newQueueRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry [id...]",
		Short: "Retry failed items (all failed items when no IDs are given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseItemIDs(args)
			if err != nil {
				return err
			}
			return ctx.withStore(func(client *ipc.Client, store *queue.Store) error {
				var retried int64
				if client != nil {
					resp, err := client.QueueRetry(ids)
					if err != nil {
						return err
					}
					retried = resp.Updated
				} else {
					var err error
					retried, err = store.RetryFailed(cmd.Context(), ids...)
					if err != nil {
						return err
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Retrying %d item(s)\n", retried)
				return nil
			})
		},
	}
}

func newQueueRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id...>",
		Short: "Remove specific items from the queue",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseItemIDs(args)
			if err != nil {
				return err
			}
			return ctx.withStore(func(client *ipc.Client, store *queue.Store) error {
				var removed int64
				if client != nil {
					resp, err := client.QueueRemove(ids)
					if err != nil {
						return err
					}
					removed = resp.Removed
				} else {
					for _, id := range ids {
						ok, err := store.Remove(cmd.Context(), id)
						if err != nil {
							return err
						}
						if ok {
							removed++
						}
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d item(s)\n", removed)
				return nil
			})
		},
	}
}

func newQueueStopCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stop <id...>",
		Short: "Stop processing specific items and park them for review",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseItemIDs(args)
			if err != nil {
				return err
			}
			return ctx.withStore(func(client *ipc.Client, store *queue.Store) error {
				var stopped int64
				if client != nil {
					resp, err := client.QueueStop(ids)
					if err != nil {
						return err
					}
					stopped = resp.Updated
				} else {
					var err error
					stopped, err = store.StopItems(cmd.Context(), ids...)
					if err != nil {
						return err
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Stopped %d item(s)\n", stopped)
				return nil
			})
		},
	}
}

func parseItemIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid item id %q", arg)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
