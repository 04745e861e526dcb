package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/vecsync/internal/usecase/indexsync"
)

var syncFlags struct {
	recreate      bool
	watermark     string
	deleteIDs     []string
	deleteFile    string
	portalIDs     []string
	skipEmbedding bool
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Populate the index from the record store and purge deleted ids",
	RunE: func(cmd *cobra.Command, _ []string) error {
		opts, err := syncOptions(cmd)
		if err != nil {
			return err
		}

		a, err := newApp(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer a.close()

		report, runErr := a.syncService().Run(cmd.Context(), opts)
		if err := writeJSONTo(cmd.OutOrStdout(), syncReport(&report, runErr)); err != nil {
			return err
		}
		return runErr
	},
}

func init() {
	f := syncCmd.Flags()
	f.BoolVar(&syncFlags.recreate, "recreate", false, "drop and recreate the index before populating")
	f.StringVar(&syncFlags.watermark, "watermark", "", "only sync records updated at or after this time (RFC3339 or YYYY-MM-DD)")
	f.StringSliceVar(&syncFlags.deleteIDs, "delete", nil, "record ids to purge from the index")
	f.StringVar(&syncFlags.deleteFile, "delete-file", "", "file with one record id per line to purge (- for stdin)")
	f.StringSliceVar(&syncFlags.portalIDs, "portal", nil, "limit population to these portal ids")
	f.BoolVar(&syncFlags.skipEmbedding, "skip-embedding", false, "write zero vectors instead of calling the embedding model")
}

func syncOptions(cmd *cobra.Command) (indexsync.Options, error) {
	watermark, err := parseWatermark(syncFlags.watermark)
	if err != nil {
		return indexsync.Options{}, err
	}

	ids := syncFlags.deleteIDs
	if syncFlags.deleteFile != "" {
		fromFile, err := readIDs(cmd.InOrStdin(), syncFlags.deleteFile)
		if err != nil {
			return indexsync.Options{}, err
		}
		ids = append(ids, fromFile...)
	}

	opts := indexsync.Options{
		Recreate:      syncFlags.recreate,
		Watermark:     watermark,
		IDsToDelete:   ids,
		SkipEmbedding: syncFlags.skipEmbedding,
	}
	if cmd.Flags().Changed("portal") {
		opts.PortalIDs = syncFlags.portalIDs
		if opts.PortalIDs == nil {
			opts.PortalIDs = []string{}
		}
	}
	return opts, nil
}

func parseWatermark(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid --watermark %q: want RFC3339 or YYYY-MM-DD", v)
}

func readIDs(stdin io.Reader, path string) ([]string, error) {
	r := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open delete file: %w", err)
		}
		defer f.Close()
		r = f
	}

	var ids []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if id := strings.TrimSpace(sc.Text()); id != "" {
			ids = append(ids, id)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read delete file: %w", err)
	}
	return ids, nil
}

type syncReportJSON struct {
	RunID    string `json:"run_id"`
	State    string `json:"state"`
	Index    string `json:"index_outcome,omitempty"`
	Total    int    `json:"total"`
	Pages    int    `json:"pages"`
	Applied  int    `json:"pages_applied"`
	Written  int    `json:"written"`
	Deleted  int    `json:"deleted"`
	Duration string `json:"duration"`
	Error    string `json:"error,omitempty"`
}

func syncReport(r *indexsync.Report, err error) syncReportJSON {
	out := syncReportJSON{
		RunID:    r.RunID,
		State:    string(r.State),
		Index:    string(r.Index),
		Total:    r.Total,
		Pages:    r.Pages,
		Applied:  r.Applied,
		Written:  r.Written,
		Deleted:  r.Deleted,
		Duration: r.Duration.String(),
	}
	if err != nil {
		out.Error = err.Error()
	}
	return out
}

func writeJSONTo(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
