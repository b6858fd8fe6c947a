package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rpattn/logstack/internal/ingestion"
)

type ingestOptions struct {
	fromDate    string
	toDate      string
	environment string
	dryRun      bool
}

func (a *app) newIngestCmd() *cobra.Command {
	opts := &ingestOptions{}

	cmd := &cobra.Command{
		Use:   "ingest <file>...",
		Short: "Ingest folded-stack, CSV or XLSX files as uploads",
		Long: `Each file becomes one upload with its own upload id. Lines that cannot be
parsed are skipped and recorded in the ingestion log.

Examples:
  logstack ingest --from 2024-03-01 --to 2024-03-08 errors.folded
  logstack ingest --dry-run export.csv`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.ingest(cmd.Context(), opts, args)
		},
	}

	today := time.Now().UTC().Format(time.DateOnly)
	cmd.Flags().StringVar(&opts.fromDate, "from", today, "Start of the measured period (YYYY-MM-DD)")
	cmd.Flags().StringVar(&opts.toDate, "to", today, "End of the measured period (YYYY-MM-DD)")
	cmd.Flags().StringVar(&opts.environment, "environment", "", "Environment label stored with the records")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Parse into memory without writing to the database")

	return cmd
}

func (a *app) ingest(ctx context.Context, opts *ingestOptions, paths []string) error {
	from, err := time.Parse(time.DateOnly, opts.fromDate)
	if err != nil {
		return fmt.Errorf("invalid --from: %w", err)
	}
	to, err := time.Parse(time.DateOnly, opts.toDate)
	if err != nil {
		return fmt.Errorf("invalid --to: %w", err)
	}
	var environment *string
	if env := strings.TrimSpace(opts.environment); env != "" {
		environment = &env
	}

	st := memoryStores()
	if !opts.dryRun {
		st, err = postgresStores(ctx, a.cfg.Database, false)
		if err != nil {
			return err
		}
	}
	defer st.close()

	service := ingestion.NewService(st.records, st.logs, nil)
	enc := json.NewEncoder(a.stdout)
	for _, path := range paths {
		summary, err := ingestFile(ctx, service, path, ingestion.FileRequest{
			FileName:    filepath.Base(path),
			FromDate:    from,
			ToDate:      to,
			Environment: environment,
		})
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if err := enc.Encode(summary); err != nil {
			return err
		}
	}
	return nil
}

func ingestFile(ctx context.Context, service *ingestion.Service, path string, req ingestion.FileRequest) (ingestion.Summary, error) {
	f, err := os.Open(path)
	if err != nil {
		return ingestion.Summary{}, err
	}
	defer f.Close()

	req.Data = f
	return service.IngestFile(ctx, req)
}
