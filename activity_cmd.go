package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/lockbookgo/lbcore/internal/activity"
)

func newActivityCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "activity",
		Short: "See and manage suggested documents based on recent read/write activity",
	}

	cmd.AddCommand(newActivitySuggestedCmd())
	cmd.AddCommand(newActivityClearCmd())

	return cmd
}

func newActivitySuggestedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "suggested",
		Short: "List documents ranked by recent read/write activity",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runActivitySuggested(cmd.Context())
		},
	}
}

func runActivitySuggested(ctx context.Context) error {
	cc := mustCLIContext(ctx)
	kc, _, _, err := cc.Account(ctx)
	if err != nil {
		return err
	}

	lt, err := workingTree(cc)
	if err != nil {
		return err
	}

	events, err := cc.Store.ListDocEvents()
	if err != nil {
		return err
	}

	suggested, err := activity.SuggestedDocs(events, lt, kc, activity.DefaultWeights())
	if err != nil {
		return err
	}

	if len(suggested) == 0 {
		cc.Statusf("No activity recorded yet.\n")
		return nil
	}

	for _, id := range suggested {
		path, err := lt.IDToPath(id, kc)
		if err != nil {
			path = id.String()
		}
		fmt.Println(path)
	}
	return nil
}

func newActivityClearCmd() *cobra.Command {
	var flagID string

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear the activity log, or a single document's entries with --id",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runActivityClear(cmd.Context(), flagID)
		},
	}

	cmd.Flags().StringVar(&flagID, "id", "", "clear only this document's activity entries")
	return cmd
}

func runActivityClear(ctx context.Context, idStr string) error {
	cc := mustCLIContext(ctx)

	if idStr == "" {
		if err := activity.ClearSuggested(cc.Store); err != nil {
			return err
		}
		cc.Statusf("Cleared activity log.\n")
		return nil
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return fmt.Errorf("parsing id %q: %w", idStr, err)
	}
	if err := activity.ClearSuggestedID(cc.Store, id); err != nil {
		return err
	}
	cc.Statusf("Cleared activity entries for %s.\n", id)
	return nil
}

// recordRead and recordWrite are small helpers other commands (such as
// files import/export) use to log a read or write without importing internal/activity
// directly; kept here since it's CLI-glue, not engine logic.
func recordRead(cc *CLIContext, id uuid.UUID) error {
	return activity.RecordRead(cc.Store, id, time.Now())
}

func recordWrite(cc *CLIContext, id uuid.UUID) error {
	return activity.RecordWrite(cc.Store, id, time.Now())
}
