package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"subweave/internal/ipc"
	"subweave/internal/queue"
)

func newAddCommand(ctx *commandContext) *cobra.Command {
	var title string
	var targetLanguage string

	cmd := &cobra.Command{
		Use:   "add <url-or-path>",
		Short: "Queue a video URL or a local media file for processing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source := strings.TrimSpace(args[0])
			if source == "" {
				return fmt.Errorf("source is required")
			}
			local := isLocalSource(source)

			return ctx.withStore(func(client *ipc.Client, store *queue.Store) error {
				var item ipc.QueueItem
				if client != nil {
					resp, err := client.Add(ipc.AddRequest{
						Source:         source,
						Title:          title,
						TargetLanguage: targetLanguage,
						LocalFile:      local,
					})
					if err != nil {
						return err
					}
					item = resp.Item
				} else {
					var queued *queue.Item
					var err error
					if local {
						queued, err = store.NewLocalFile(cmd.Context(), source, targetLanguage)
					} else {
						if existing, findErr := store.FindBySource(cmd.Context(), source); findErr == nil && existing != nil {
							return fmt.Errorf("source already queued as item %d (%s)", existing.ID, existing.Status)
						}
						queued, err = store.NewSource(cmd.Context(), source, title, targetLanguage)
					}
					if err != nil {
						return err
					}
					item = ipc.FromQueueItem(queued)
				}

				fmt.Fprintf(cmd.OutOrStdout(), "Queued item %d (%s)\n", item.ID, formatStatusLabel(item.Status))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&title, "title", "t", "", "Display title for the queue entry")
	cmd.Flags().StringVarP(&targetLanguage, "language", "l", "", "Target translation language override")
	return cmd
}

// isLocalSource treats anything without a URL scheme that exists on disk as a
// local media file.
func isLocalSource(source string) bool {
	if strings.Contains(source, "://") {
		return false
	}
	info, err := os.Stat(source)
	return err == nil && !info.IsDir()
}
