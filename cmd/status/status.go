// Package status implements the status subcommand.
package status

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/voicevault/voicevault/internal/runtime"
)

// Command creates the status command, which reports the persisted
// migration state of the capture store.
func Command(ctx *runtime.Context) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the migration state of the capture store",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := ctx.Engine.GetStatus(cmd.Context())
			if err != nil {
				return err
			}

			if jsonOutput {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(st)
			}

			fmt.Printf("schema version:     %d\n", st.CurrentVersion)
			fmt.Printf("migration status:   %s\n", st.Status)
			if st.LastAttemptAt != nil {
				fmt.Printf("last attempt:       %s\n", st.LastAttemptAt.Format("2006-01-02 15:04:05"))
			}
			if st.LastError != "" {
				fmt.Printf("last error:         %s\n", st.LastError)
			}
			fmt.Printf("pending recordings: %d\n", st.PendingRecordings)
			if st.TranscriptlessRecordings > 0 {
				fmt.Printf("without transcript: %d\n", st.TranscriptlessRecordings)
			}
			if len(st.LeftoverBackups) > 0 {
				fmt.Println("leftover backup tables:")
				for _, table := range st.LeftoverBackups {
					fmt.Printf("  %s\n", table)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit the status as JSON")

	return cmd
}
