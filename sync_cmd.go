package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/cheggaaa/pb/v3"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/lockbookgo/lbcore/internal/syncengine"
)

func newSyncCmd() *cobra.Command {
	var flagMaxRetries int

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Synchronize files with the relay server",
		Long: `Run one sync cycle: pull remote changes, three-way merge them with local
edits, exchange document content, and push the result.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSync(cmd.Context(), flagMaxRetries)
		},
	}

	cmd.Flags().IntVar(&flagMaxRetries, "max-retries", 0, "override the stale-push retry budget (0 = engine default)")

	return cmd
}

func runSync(ctx context.Context, maxRetries int) error {
	cc := mustCLIContext(ctx)

	_, _, engine, err := cc.Account(ctx)
	if err != nil {
		return err
	}

	interactive := isatty.IsTerminal(os.Stdout.Fd()) && !flagQuiet && !flagJSON
	var bar *pb.ProgressBar
	var lastPhase syncengine.Phase

	report, err := engine.Sync(ctx, syncengine.Options{
		MaxRetries: maxRetries,
		Progress: func(ev syncengine.ProgressEvent) {
			if !interactive {
				return
			}
			if ev.Phase != lastPhase {
				if bar != nil {
					bar.Finish()
					bar = nil
				}
				lastPhase = ev.Phase
				cc.Statusf("%s...\n", ev.Phase)
			}
			if ev.Total > 0 {
				if bar == nil {
					bar = pb.StartNew(ev.Total)
				}
				bar.SetCurrent(int64(ev.Completed))
			}
		},
	})
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	if flagJSON {
		return printSyncJSON(report)
	}
	printSyncText(report)
	return nil
}

func printSyncText(report *syncengine.Report) {
	if report.PulledRecords == 0 && report.Downloaded == 0 && report.Uploaded == 0 &&
		report.PushedRecords == 0 && len(report.Conflicts) == 0 {
		statusf(flagQuiet, "Already in sync.\n")
		return
	}

	statusf(flagQuiet, "Sync complete (as of version %d)\n", report.AsOfVersion)
	if report.PulledRecords > 0 {
		statusf(flagQuiet, "  Pulled:  %d records\n", report.PulledRecords)
	}
	if report.Downloaded > 0 {
		statusf(flagQuiet, "  Downloaded: %d documents\n", report.Downloaded)
	}
	if report.Uploaded > 0 {
		statusf(flagQuiet, "  Uploaded:   %d documents\n", report.Uploaded)
	}
	if report.PushedRecords > 0 {
		statusf(flagQuiet, "  Pushed:  %d records\n", report.PushedRecords)
	}
	if len(report.Conflicts) > 0 {
		statusf(flagQuiet, "  Conflicts:  %d\n", len(report.Conflicts))
		for _, c := range report.Conflicts {
			statusf(flagQuiet, "    %s: %s (%s)\n", c.FileID, c.Kind, c.Detail)
		}
	}
}

type syncJSONConflict struct {
	FileID string `json:"file_id"`
	Kind   string `json:"kind"`
	Detail string `json:"detail"`
}

type syncJSONReport struct {
	PulledRecords int                `json:"pulled_records"`
	Downloaded    int                `json:"downloaded"`
	Uploaded      int                `json:"uploaded"`
	PushedRecords int                `json:"pushed_records"`
	AsOfVersion   int64              `json:"as_of_version"`
	Conflicts     []syncJSONConflict `json:"conflicts"`
}

func printSyncJSON(report *syncengine.Report) error {
	conflicts := make([]syncJSONConflict, 0, len(report.Conflicts))
	for _, c := range report.Conflicts {
		conflicts = append(conflicts, syncJSONConflict{FileID: c.FileID.String(), Kind: c.Kind, Detail: c.Detail})
	}

	out := syncJSONReport{
		PulledRecords: report.PulledRecords,
		Downloaded:    report.Downloaded,
		Uploaded:      report.Uploaded,
		PushedRecords: report.PushedRecords,
		AsOfVersion:   report.AsOfVersion,
		Conflicts:     conflicts,
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
