// Package migrate implements the migrate subcommand.
package migrate

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/spf13/cobra"

	"github.com/voicevault/voicevault/internal/engine"
	"github.com/voicevault/voicevault/internal/runtime"
)

// Command creates the migrate command, which upgrades the capture store
// to the current normalized schema.
func Command(ctx *runtime.Context) *cobra.Command {
	var (
		preview    bool
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Migrate legacy recordings to the normalized knowledge schema",
		Long: `Migrate acquires the maintenance lock, snapshots the affected tables,
applies the current schema, transforms legacy recordings into knowledge
captures and verifies the result. The migration either commits as a whole
or leaves the store untouched.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if preview {
				p, err := ctx.Engine.PreviewMigration(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Printf("recordings eligible for migration: %d\n", p.EligiblePairs)
				fmt.Printf("recordings without a transcript:   %d\n", p.TranscriptlessRecordings)
				return nil
			}
			return runMigration(cmd, ctx, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&preview, "preview", false, "Report how many recordings would migrate without changing anything")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit the migration result as JSON")

	return cmd
}

func runMigration(cmd *cobra.Command, ctx *runtime.Context, jsonOutput bool) error {
	id, events := ctx.Engine.Progress().Subscribe()
	defer ctx.Engine.Progress().Unsubscribe(id)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for ev := range events {
			if ev.Measure > 0 {
				fmt.Fprintf(os.Stderr, "phase %s (%d rows)\n", ev.Phase, ev.Measure)
			} else {
				fmt.Fprintf(os.Stderr, "phase %s\n", ev.Phase)
			}
		}
	}()

	result := ctx.Engine.RunMigration(cmd.Context())
	ctx.Engine.Progress().Unsubscribe(id)
	wg.Wait()

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return err
		}
	} else {
		printResult(result)
	}

	if !result.Success {
		return fmt.Errorf("migration failed")
	}
	return nil
}

func printResult(result *engine.MigrationResult) {
	if result.Success {
		fmt.Printf("migration completed: attempt %s\n", result.AttemptID)
		fmt.Printf("  captures created: %d\n", result.Stats.CapturesCreated)
		fmt.Printf("  action items:     %d\n", result.Stats.ActionItems)
		fmt.Printf("  decisions:        %d\n", result.Stats.Decisions)
		fmt.Printf("  follow-ups:       %d\n", result.Stats.FollowUps)
		if result.Stats.Warnings > 0 {
			fmt.Printf("  warnings:         %d\n", result.Stats.Warnings)
		}
		return
	}
	fmt.Println("migration failed")
	for _, msg := range result.Errors {
		fmt.Printf("  %s\n", msg)
	}
}
