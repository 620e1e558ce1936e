// Package ingest loads reference documents into the legal library.
package ingest

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/hrygo/lexagent/plugin/ai/vector")

// Extractor turns a reference file into plain text.
type Extractor interface {
	Accepts(path string) bool
	ExtractFile(ctx context.Context, path string) (string, error)
}

// Chain hands each file to the first extractor that accepts it.
type Chain []Extractor

func (c Chain) Accepts(path string) bool {
	return c.pick(path) != nil
}

func (c Chain) ExtractFile(ctx context.Context, path string) (string, error) {
	e := c.pick(path)
	if e == nil {
		return "", errors.Errorf("no extractor for %s", filepath.Base(path))
	}
	return e.ExtractFile(ctx, path)
}

func (c Chain) pick(path string) Extractor {
	for _, e := range c {
		if e != nil && e.Accepts(path) {
			return e
		}
	}
	return nil
}

// Report summarizes one ingestion pass.
type Report struct {
	Files   int
	Chunks  int
	Skipped int
	Failed  map[string]error
}

type Runner struct {
	extractor   Extractor
	indexer     vector.Indexer
	interval    time.Duration
	batchSize   int
	concurrency int

	mu   sync.Mutex
	seen map[string]time.Time
}

// Option configures a Runner.
type Option func(*Runner)

// WithBatchSize sets how many chunks are indexed per call.
func WithBatchSize(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

// WithConcurrency sets how many files are extracted at once.
func WithConcurrency(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// WithInterval sets the rescan interval used by Run.
func WithInterval(d time.Duration) Option {
	return func(r *Runner) {
		if d > 0 {
			r.interval = d
		}
	}
}

// NewRunner creates an ingestion runner. Batches stay small so a slow
// embedding endpoint does not hold large requests open.
func NewRunner(extractor Extractor, indexer vector.Indexer, opts ...Option) *Runner {
	r := &Runner{
		extractor:   extractor,
		indexer:     indexer,
		interval:    2 * time.Minute,
		batchSize:   32,
		concurrency: 4,
		seen:        make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run ingests dir once, then rescans it on every tick and ingests files
// that are new or modified since they were last indexed.
func (r *Runner) Run(ctx context.Context, dir string) {
	r.logReport(r.RunOnce(ctx, dir))

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.logReport(r.RunOnce(ctx, dir))
		case <-ctx.Done():
			slog.Info("ingest runner stopped")
			return
		}
	}
}

func (r *Runner) logReport(report *Report, err error) {
	if err != nil {
		slog.Error("ingest pass failed", "error", err)
		return
	}
	if report.Files > 0 || len(report.Failed) > 0 {
		slog.Info("ingest pass finished",
			"files", report.Files, "chunks", report.Chunks,
			"skipped", report.Skipped, "failed", len(report.Failed))
	}
}

// RunOnce ingests every supported file under dir that changed since the
// previous pass. A file that fails to extract is reported and skipped;
// an indexing failure aborts the pass.
func (r *Runner) RunOnce(ctx context.Context, dir string) (*Report, error) {
	files, skipped, err := r.scan(dir)
	if err != nil {
		return nil, err
	}
	report := &Report{Skipped: skipped, Failed: make(map[string]error)}
	if len(files) == 0 {
		return report, nil
	}

	docs := make([][]vector.Document, len(files))
	errs := make([]error, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, f := range files {
		g.Go(func() error {
			text, err := r.extractor.ExtractFile(gctx, f.path)
			if err != nil {
				errs[i] = err
				return nil
			}
			docs[i] = vector.ChunkFile(f.path, text)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var pending []vector.Document
	var indexed []file
	for i, f := range files {
		if errs[i] != nil {
			slog.Warn("failed to extract reference file", "path", f.path, "error", errs[i])
			report.Failed[f.path] = errs[i]
			continue
		}
		if len(docs[i]) == 0 {
			report.Skipped++
			continue
		}
		pending = append(pending, docs[i]...)
		indexed = append(indexed, f)
	}

	for i := 0; i < len(pending); i += r.batchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := min(i+r.batchSize, len(pending))
		if err := r.indexer.Index(ctx, pending[i:end]); err != nil {
			return nil, errors.Wrapf(err, "failed to index chunks %d-%d", i, end)
		}
		slog.Debug("batch indexed", "count", end-i, "progress", fmt.Sprintf("%d/%d", end, len(pending)))
	}

	r.mu.Lock()
	for _, f := range indexed {
		r.seen[f.path] = f.modTime
	}
	r.mu.Unlock()

	report.Files = len(indexed)
	report.Chunks = len(pending)
	return report, nil
}

type file struct {
	path    string
	modTime time.Time
}

// scan lists supported files that are new or modified.
func (r *Runner) scan(dir string) ([]file, int, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to open reference directory")
	}
	if !info.IsDir() {
		return nil, 0, errors.Errorf("%s is not a directory", dir)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var files []file
	skipped := 0
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !r.extractor.Accepts(path) {
			skipped++
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			return err
		}
		if last, ok := r.seen[path]; ok && !fi.ModTime().After(last) {
			return nil
		}
		files = append(files, file{path: path, modTime: fi.ModTime()})
		return nil
	})
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to scan reference directory")
	}
	sort.Slice(files, func(i, j int) bool { return files[i].path < files[j].path })
	return files, skipped, nil
}
