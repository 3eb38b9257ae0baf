// Package rollback implements the rollback subcommand.
package rollback

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/voicevault/voicevault/internal/runtime"
)

// Command creates the rollback command, which restores the pre-migration
// state from the retained shadow tables.
func Command(ctx *runtime.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "rollback",
		Short: "Revert the last migration attempt from its backups",
		Long: `Rollback restores the snapshotted rows of the last attempt, clears the
migration markers, drops the normalized tables and resets the store to
the pending state. It refuses to run when no backups exist.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			result := ctx.Engine.RollbackMigration(cmd.Context())
			if result.Success {
				fmt.Println("rollback completed, store reset to pending")
				return nil
			}
			fmt.Println("rollback failed")
			for _, msg := range result.Errors {
				fmt.Printf("  %s\n", msg)
			}
			return fmt.Errorf("rollback failed")
		},
	}
}
