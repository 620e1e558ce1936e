// Package drafter fills {{KEY}} placeholders in .docx templates to produce
// legal document drafts.
package drafter

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Result describes a written draft.
type Result struct {
	Path     string
	FileName string
	Template string
}

// Drafter renders drafts from a TemplateStore into an output directory.
type Drafter struct {
	templates *TemplateStore
	outputDir string
	now       func() time.Time
}

// Option configures a Drafter.
type Option func(*Drafter)

// WithClock overrides the clock used to stamp output file names.
func WithClock(now func() time.Time) Option {
	return func(d *Drafter) {
		d.now = now
	}
}

// New creates a Drafter reading templates from templateDir and writing
// artifacts to outputDir.
func New(templateDir, outputDir string, opts ...Option) *Drafter {
	d := &Drafter{
		templates: NewTemplateStore(templateDir),
		outputDir: outputDir,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Drafter) Templates() *TemplateStore {
	return d.templates
}

func (d *Drafter) OutputDir() string {
	return d.outputDir
}

// Draft parses payloadJSON and renders a draft of docType. It never fails:
// the outcome is reported as a message suitable for a tool result.
func (d *Drafter) Draft(docType, payloadJSON string) string {
	payload, err := ParsePayload(payloadJSON)
	if err != nil {
		slog.Warn("draft payload rejected", "doc_type", docType, "error", err)
		return fmt.Sprintf("Failed to generate document: %v", err)
	}

	res, err := d.DraftMap(docType, payload)
	if err != nil {
		var notFound *TemplateNotFoundError
		if errors.As(err, &notFound) {
			return "Error: " + notFound.Error()
		}
		slog.Error("draft failed", "doc_type", docType, "error", err)
		return fmt.Sprintf("Failed to generate document: %v", err)
	}
	return "Success! Document created at: " + res.Path
}

// DraftMap renders a draft of docType from an already decoded payload.
func (d *Drafter) DraftMap(docType string, payload map[string]any) (*Result, error) {
	docType = strings.TrimSpace(docType)
	if docType == "" || strings.ContainsAny(docType, `/\`) || strings.Contains(docType, "..") {
		return nil, fmt.Errorf("invalid document type %q", docType)
	}

	tmpl, err := d.templates.Resolve(docType)
	if err != nil {
		return nil, err
	}

	zr, err := zip.OpenReader(tmpl)
	if err != nil {
		return nil, fmt.Errorf("open template %s: %w", filepath.Base(tmpl), err)
	}
	defer zr.Close()

	var out bytes.Buffer
	if err := substituteDocx(&zr.Reader, &out, Normalize(payload)); err != nil {
		return nil, fmt.Errorf("fill template %s: %w", filepath.Base(tmpl), err)
	}

	if err := os.MkdirAll(d.outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	name := fmt.Sprintf("Draft_%s_%s.docx", docType, d.now().Format("20060102_150405"))
	target := filepath.Join(d.outputDir, name)
	if err := os.WriteFile(target, out.Bytes(), 0o644); err != nil {
		return nil, fmt.Errorf("write draft: %w", err)
	}

	slog.Info("draft created", "doc_type", docType, "template", filepath.Base(tmpl), "file", name)
	return &Result{Path: target, FileName: name, Template: filepath.Base(tmpl)}, nil
}
