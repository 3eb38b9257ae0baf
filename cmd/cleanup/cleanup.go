// Package cleanup implements the cleanup subcommand.
package cleanup

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/voicevault/voicevault/internal/runtime"
)

// Command creates the cleanup command, which removes orphaned rows and
// repairs dangling references ahead of a migration.
func Command(ctx *runtime.Context) *cobra.Command {
	var preview bool

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Remove orphaned rows and repair dangling references",
		Long: `Cleanup deletes transcripts without recordings and embeddings without
transcripts, marks duplicate recordings as deleted and clears meeting
references that point nowhere. Each category is repaired independently
with its own backup.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if preview {
				p, err := ctx.Engine.PreviewCleanup(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Printf("orphan transcripts:    %d\n", p.OrphanedTranscripts)
				fmt.Printf("orphan embeddings:     %d\n", p.OrphanedEmbeddings)
				fmt.Printf("duplicate recordings:  %d\n", p.DuplicateRecordings)
				fmt.Printf("dangling meeting refs: %d\n", p.InvalidMeetingRefs)
				return nil
			}

			report := ctx.Engine.RunCleanup(cmd.Context())
			fmt.Printf("orphan transcripts removed:  %d\n", report.OrphanTranscriptsRemoved)
			fmt.Printf("orphan embeddings removed:   %d\n", report.OrphanEmbeddingsRemoved)
			fmt.Printf("duplicate recordings marked: %d\n", report.DuplicatesMarked)
			fmt.Printf("meeting references cleared:  %d\n", report.MeetingRefsCleared)
			if !report.Success {
				for _, msg := range report.Errors {
					fmt.Printf("  %s\n", msg)
				}
				return fmt.Errorf("cleanup finished with errors")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&preview, "preview", false, "Count repairs without changing anything")

	return cmd
}
