// Package textextract extracts plain text from PDF and Office documents
// using Apache Tika, so they can be added to the legal library.
package textextract

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// SupportedMimeTypes are the document types sent to Tika.
var SupportedMimeTypes = []string{
	"application/pdf",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"application/rtf",
	"text/rtf",
}

// extensionTypes covers document types missing from the platform's mime table.
var extensionTypes = map[string]string{
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".rtf":  "application/rtf",
}

// Config holds the text extraction configuration
type Config struct {
	// TikaServerURL is the URL of the Tika server (e.g., http://localhost:9998)
	TikaServerURL string
	// TikaJarPath is the path to tika-app.jar (for embedded mode)
	TikaJarPath string
	// JavaPath is the path to the java executable
	JavaPath string
	// Timeout is the HTTP timeout for Tika server requests
	Timeout time.Duration
	// UseEmbedded runs tika-app.jar directly instead of calling the server
	UseEmbedded bool
}

// DefaultConfig returns the default text extraction configuration
func DefaultConfig() *Config {
	return &Config{
		TikaServerURL: "http://localhost:9998",
		JavaPath:      "java",
		Timeout:       60 * time.Second,
	}
}

// ConfigFromEnv creates extraction config from LEXAGENT_TIKA_* variables.
func ConfigFromEnv() *Config {
	config := DefaultConfig()

	if url := os.Getenv("LEXAGENT_TIKA_URL"); url != "" {
		config.TikaServerURL = url
	}
	if path := os.Getenv("LEXAGENT_TIKA_JAR"); path != "" {
		config.TikaJarPath = path
	}
	if path := os.Getenv("LEXAGENT_TIKA_JAVA_PATH"); path != "" {
		config.JavaPath = path
	}
	if timeout := os.Getenv("LEXAGENT_TIKA_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			config.Timeout = d
		}
	}
	if useEmbedded := os.Getenv("LEXAGENT_TIKA_EMBEDDED"); useEmbedded == "true" || useEmbedded == "1" {
		config.UseEmbedded = true
	}

	return config
}

// Client provides text extraction functionality
type Client struct {
	config     *Config
	httpClient *http.Client
}

// NewClient creates a new text extraction client
func NewClient(config *Config) *Client {
	if config == nil {
		config = DefaultConfig()
	}
	if config.JavaPath == "" {
		config.JavaPath = "java"
	}
	config.TikaServerURL = strings.TrimRight(config.TikaServerURL, "/")

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// ExtractText extracts text from a document body.
func (c *Client) ExtractText(ctx context.Context, data []byte, contentType string) (string, error) {
	if !IsSupported(contentType) {
		return "", errors.Errorf("unsupported content type: %s", contentType)
	}

	if c.config.UseEmbedded && c.config.TikaJarPath != "" {
		return c.extractEmbedded(ctx, data)
	}
	return c.extractFromServer(ctx, data, contentType)
}

// ExtractFile extracts text from a file on disk. Plain text and markdown
// are returned as read.
func (c *Client) ExtractFile(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.Wrap(err, "failed to read file")
	}
	if IsPlainText(path) {
		return string(data), nil
	}
	return c.ExtractText(ctx, data, DetectContentType(path, data))
}

// extractFromServer extracts text using Tika server
func (c *Client) extractFromServer(ctx context.Context, data []byte, contentType string) (string, error) {
	if c.config.TikaServerURL != "" {
		req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.config.TikaServerURL+"/tika", bytes.NewReader(data))
		if err != nil {
			return "", errors.Wrap(err, "failed to create request")
		}
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("Accept", "text/plain")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			slog.Warn("Tika server request failed, trying fallback", "error", err)
		} else {
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
				return "", errors.Errorf("tika server returned status %d: %s", resp.StatusCode, string(body))
			}
			text, err := io.ReadAll(resp.Body)
			if err != nil {
				return "", errors.Wrap(err, "failed to read response")
			}
			return strings.TrimSpace(string(text)), nil
		}
	}

	if c.config.TikaJarPath != "" {
		return c.extractEmbedded(ctx, data)
	}
	return "", errors.New("no Tika server or jar available")
}

// extractEmbedded extracts text using embedded Tika (java -jar tika-app.jar)
func (c *Client) extractEmbedded(ctx context.Context, data []byte) (string, error) {
	inputFile, err := os.CreateTemp("", "tika_input_*")
	if err != nil {
		return "", errors.Wrap(err, "failed to create temp input file")
	}
	defer func() {
		inputFile.Close()
		os.Remove(inputFile.Name())
	}()

	if _, err := inputFile.Write(data); err != nil {
		return "", errors.Wrap(err, "failed to write input file")
	}

	cmd := exec.CommandContext(ctx, c.config.JavaPath, "-jar", c.config.TikaJarPath, "-t", inputFile.Name())
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		slog.Warn("Tika embedded failed", "error", err, "stderr", stderr.String())
		return "", errors.Wrap(err, "tika-app.jar failed")
	}
	return strings.TrimSpace(stdout.String()), nil
}

// IsSupported checks if a MIME type is supported
func IsSupported(contentType string) bool {
	contentType, _, _ = strings.Cut(contentType, ";")
	for _, supported := range SupportedMimeTypes {
		if strings.EqualFold(strings.TrimSpace(contentType), supported) {
			return true
		}
	}
	return false
}

// IsPlainText reports whether the file is read without Tika.
func IsPlainText(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md", ".markdown":
		return true
	}
	return false
}

// Accepts reports whether ExtractFile can handle the file's type.
func Accepts(path string) bool {
	if IsPlainText(path) {
		return true
	}
	ct := DetectContentType(path, nil)
	return ct != "" && IsSupported(ct)
}

// DetectContentType detects the content type of a file
func DetectContentType(filePath string, data []byte) string {
	ext := strings.ToLower(filepath.Ext(filePath))
	if ct, ok := extensionTypes[ext]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	if data == nil {
		return ""
	}
	return http.DetectContentType(data)
}

// Accepts reports whether ExtractFile can handle the file's type.
func (c *Client) Accepts(path string) bool {
	return Accepts(path)
}
