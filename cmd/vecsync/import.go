package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/vecsync/internal/domain"
	dombatch "github.com/kailas-cloud/vecsync/internal/domain/batch"
)

// recordLine is one JSON line accepted by `vecsync import`.
type recordLine struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Description       string    `json:"description"`
	PortalID          string    `json:"portal_id"`
	Department        string    `json:"department"`
	Categories        []string  `json:"categories"`
	Columns           []string  `json:"columns"`
	IsTest            bool      `json:"is_test"`
	MetadataUpdatedAt time.Time `json:"metadata_updated_at"`
}

const importBatchSize = 500

var importCmd = &cobra.Command{
	Use:   "import <file.jsonl|->",
	Short: "Load dataset records from JSON lines into the record store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r := cmd.InOrStdin()
		if args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open %s: %w", args[0], err)
			}
			defer f.Close()
			r = f
		}

		records, err := decodeRecords(r)
		if err != nil {
			return err
		}

		a, err := newApp(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer a.close()

		for i, chunk := range dombatch.Partition(records, importBatchSize) {
			if err := a.records.Upsert(cmd.Context(), chunk...); err != nil {
				return fmt.Errorf("import batch %d: %w", i+1, err)
			}
		}
		a.logger.Info("Records imported", zap.Int("records", len(records)))
		fmt.Fprintf(cmd.OutOrStdout(), "imported %d records\n", len(records))
		return nil
	},
}

func decodeRecords(r io.Reader) ([]domain.Record, error) {
	var out []domain.Record
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for line := 1; sc.Scan(); line++ {
		raw := sc.Bytes()
		if len(raw) == 0 {
			continue
		}
		var rl recordLine
		if err := json.Unmarshal(raw, &rl); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if rl.ID == "" {
			return nil, fmt.Errorf("line %d: %w: id is required", line, domain.ErrInvalidRequest)
		}
		out = append(out, domain.Record{
			ID:                rl.ID,
			Name:              rl.Name,
			Description:       rl.Description,
			PortalID:          rl.PortalID,
			Department:        rl.Department,
			Categories:        rl.Categories,
			ColumnFields:      rl.Columns,
			IsTest:            rl.IsTest,
			MetadataUpdatedAt: rl.MetadataUpdatedAt,
		})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read records: %w", err)
	}
	return out, nil
}
