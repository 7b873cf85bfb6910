package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"subweave/internal/ipc"
	"subweave/internal/queue"
)

func newQueueHealthCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Run queue database diagnostics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return ctx.withStore(func(client *ipc.Client, store *queue.Store) error {
				var health ipc.DatabaseHealthResponse
				if client != nil {
					resp, err := client.DatabaseHealth()
					if err != nil {
						return err
					}
					health = *resp
				} else {
					checked, err := store.CheckHealth(cmd.Context())
					if err != nil && checked.Error == "" {
						return err
					}
					health = ipc.DatabaseHealthResponse{
						DBPath:           checked.DBPath,
						DatabaseExists:   checked.DatabaseExists,
						DatabaseReadable: checked.DatabaseReadable,
						SchemaVersion:    checked.SchemaVersion,
						TableExists:      checked.TableExists,
						ColumnsPresent:   checked.ColumnsPresent,
						MissingColumns:   checked.MissingColumns,
						IntegrityCheck:   checked.IntegrityCheck,
						TotalItems:       checked.TotalItems,
						Error:            checked.Error,
					}
				}
				if jsonOutput {
					return writeJSON(cmd, health)
				}
				renderDatabaseHealth(cmd, health)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit diagnostics as JSON")
	return cmd
}

func renderDatabaseHealth(cmd *cobra.Command, health ipc.DatabaseHealthResponse) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Database path:      %s\n", health.DBPath)
	fmt.Fprintf(out, "Database exists:    %s\n", yesNo(health.DatabaseExists))
	fmt.Fprintf(out, "Database readable:  %s\n", yesNo(health.DatabaseReadable))
	fmt.Fprintf(out, "Schema version:     %s\n", health.SchemaVersion)
	fmt.Fprintf(out, "Queue table exists: %s\n", yesNo(health.TableExists))
	fmt.Fprintf(out, "Integrity check:    %s\n", yesNo(health.IntegrityCheck))
	fmt.Fprintf(out, "Total items:        %d\n", health.TotalItems)
	if len(health.MissingColumns) > 0 {
		fmt.Fprintf(out, "Missing columns:    %s\n", strings.Join(health.MissingColumns, ", "))
	}
	if health.Error != "" {
		fmt.Fprintf(out, "Error:              %s\n", health.Error)
	}
}
