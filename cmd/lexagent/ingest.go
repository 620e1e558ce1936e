package main

import (
	"fmt"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/hrygo/lexagent/plugin/ocr"
	"github.com/hrygo/lexagent/plugin/textextract"
	"github.com/hrygo/lexagent/server"
	"github.com/hrygo/lexagent/server/runner/ingest"
)

func newIngestCommand() *cobra.Command {
	var (
		watch       bool
		interval    time.Duration
		concurrency int
	)
	cmd := &cobra.Command{
		Use:   "ingest [dir]",
		Short: "Index reference documents into the legal library",
		Long: `ingest extracts text from .pdf, .doc, .docx, .rtf, .txt, .md and scanned image
files under dir (default <data>/library), splits it into passages and indexes
them in the configured retrieval backend. PDF and Office files need an Apache Tika server
(LEXAGENT_TIKA_URL) or tika-app.jar (LEXAGENT_TIKA_JAR); scans need tesseract.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := loadProfile()
			if err := p.Validate(); err != nil {
				return err
			}
			dir := filepath.Join(p.Data, "library")
			if len(args) == 1 {
				dir = args[0]
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			storeInstance, err := openStore(ctx, p)
			if err != nil {
				return err
			}
			defer storeInstance.Close()

			library, err := server.NewVectorStore(p, storeInstance)
			if err != nil {
				return err
			}
			if library == nil {
				return errors.New("retrieval is disabled (--retrieval none)")
			}

			extractor := ingest.Chain{
				textextract.NewClient(textextract.ConfigFromEnv()),
				ocr.NewClient(ocr.ConfigFromEnv()),
			}
			runner := ingest.NewRunner(extractor, library,
				ingest.WithConcurrency(concurrency),
				ingest.WithInterval(interval),
			)
			if watch {
				runner.Run(ctx, dir)
				return nil
			}

			report, err := runner.RunOnce(ctx, dir)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Indexed %d chunks from %d files (%d skipped)\n", report.Chunks, report.Files, report.Skipped)
			failed := make([]string, 0, len(report.Failed))
			for path := range report.Failed {
				failed = append(failed, path)
			}
			sort.Strings(failed)
			for _, path := range failed {
				fmt.Fprintf(out, "Failed: %s: %v\n", path, report.Failed[path])
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&watch, "watch", false, "keep running and index new or modified files")
	cmd.Flags().DurationVar(&interval, "interval", 2*time.Minute, "rescan interval with --watch")
	cmd.Flags().IntVar(&concurrency, "concurrency", 4, "files extracted in parallel")
	return cmd
}
