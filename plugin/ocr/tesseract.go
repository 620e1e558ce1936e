// Package ocr extracts text from scanned documents using Tesseract.
package ocr

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// imageExtensions maps scan file extensions to MIME types.
var imageExtensions = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
	".bmp":  "image/bmp",
	".webp": "image/webp",
}

// Config holds the OCR configuration
type Config struct {
	// TesseractPath is the path to the tesseract executable
	TesseractPath string
	// DataPath is the path to the tessdata directory (optional)
	DataPath string
	// Languages are the languages to use for OCR (e.g., "eng+hin")
	Languages string
}

// DefaultConfig returns the default OCR configuration
func DefaultConfig() *Config {
	return &Config{
		TesseractPath: "tesseract",
		Languages:     "eng",
	}
}

// ConfigFromEnv creates OCR config from LEXAGENT_OCR_* variables.
func ConfigFromEnv() *Config {
	config := DefaultConfig()
	if path := os.Getenv("LEXAGENT_OCR_TESSERACT_PATH"); path != "" {
		config.TesseractPath = path
	}
	if path := os.Getenv("LEXAGENT_OCR_TESSDATA_PATH"); path != "" {
		config.DataPath = path
	}
	if langs := os.Getenv("LEXAGENT_OCR_LANGUAGES"); langs != "" {
		config.Languages = langs
	}
	return config
}

// Client provides OCR functionality
type Client struct {
	config *Config
}

// NewClient creates a new OCR client
func NewClient(config *Config) *Client {
	if config == nil {
		config = DefaultConfig()
	}
	if config.TesseractPath == "" {
		config.TesseractPath = "tesseract"
	}
	return &Client{config: config}
}

// Accepts reports whether the file is a scan this client can read.
func (c *Client) Accepts(path string) bool {
	_, ok := imageExtensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

// ExtractFile runs OCR over an image file.
func (c *Client) ExtractFile(ctx context.Context, path string) (string, error) {
	if !c.Accepts(path) {
		return "", errors.Errorf("unsupported image type: %s", filepath.Ext(path))
	}
	return c.run(ctx, path)
}

// ExtractText runs OCR over an image body.
func (c *Client) ExtractText(ctx context.Context, image []byte, mimeType string) (string, error) {
	ext := ""
	for e, mt := range imageExtensions {
		if strings.EqualFold(mt, mimeType) {
			ext = e
			break
		}
	}
	if ext == "" {
		return "", errors.Errorf("unsupported MIME type: %s", mimeType)
	}

	tmpFile, err := os.CreateTemp("", "ocr_*"+ext)
	if err != nil {
		return "", errors.Wrap(err, "failed to create temp file")
	}
	tmpPath := tmpFile.Name()
	defer os.Remove(tmpPath)
	_, err = tmpFile.Write(image)
	tmpFile.Close()
	if err != nil {
		return "", errors.Wrap(err, "failed to write temp file")
	}
	return c.run(ctx, tmpPath)
}

// run invokes tesseract writing to stdout.
func (c *Client) run(ctx context.Context, imagePath string) (string, error) {
	args := []string{imagePath, "stdout"}
	if c.config.Languages != "" {
		args = append(args, "-l", c.config.Languages)
	}
	if c.config.DataPath != "" {
		args = append(args, "--tessdata-dir", c.config.DataPath)
	}

	cmd := exec.CommandContext(ctx, c.config.TesseractPath, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		slog.Warn("tesseract command failed", "error", err, "stderr", stderr.String())
		return "", errors.Wrap(err, "tesseract command failed")
	}
	return strings.TrimSpace(stdout.String()), nil
}

// IsAvailable checks if Tesseract is available
func (c *Client) IsAvailable(ctx context.Context) bool {
	return exec.CommandContext(ctx, c.config.TesseractPath, "--version").Run() == nil
}
