package textextract

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDefaultConfig tests the default configuration
func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, "http://localhost:9998", config.TikaServerURL)
	assert.Equal(t, "", config.TikaJarPath)
	assert.Equal(t, "java", config.JavaPath)
	assert.Equal(t, 60*time.Second, config.Timeout)
	assert.False(t, config.UseEmbedded)
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("LEXAGENT_TIKA_URL", "http://tika:9998")
	t.Setenv("LEXAGENT_TIKA_TIMEOUT", "5s")
	t.Setenv("LEXAGENT_TIKA_EMBEDDED", "1")

	config := ConfigFromEnv()
	assert.Equal(t, "http://tika:9998", config.TikaServerURL)
	assert.Equal(t, 5*time.Second, config.Timeout)
	assert.True(t, config.UseEmbedded)
}

// TestIsSupported tests MIME type support checking
func TestIsSupported(t *testing.T) {
	for _, mimeType := range []string{
		"application/pdf",
		"APPLICATION/PDF",
		"application/msword",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"application/rtf; charset=utf-8",
	} {
		assert.True(t, IsSupported(mimeType), mimeType)
	}
	for _, mimeType := range []string{"image/png", "video/mp4", "text/html", ""} {
		assert.False(t, IsSupported(mimeType), mimeType)
	}
}

func TestAccepts(t *testing.T) {
	tests := map[string]bool{
		"bns_2023.pdf":      true,
		"consumer_act.docx": true,
		"notes.md":          true,
		"NOTES.TXT":         true,
		"scan.png":          false,
		"archive.zip":       false,
		"README":            false,
	}
	for path, want := range tests {
		assert.Equal(t, want, Accepts(path), path)
	}
}

func TestExtractFile_PlainTextSkipsTika(t *testing.T) {
	client := NewClient(&Config{TikaServerURL: "http://127.0.0.1:1"})
	path := filepath.Join(t.TempDir(), "section_303.md")
	require.NoError(t, os.WriteFile(path, []byte("Section 303. Theft."), 0o644))

	text, err := client.ExtractFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "Section 303. Theft.", text)
}

func TestExtractFile_PDFViaServer(t *testing.T) {
	var gotType, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/tika", r.URL.Path)
		gotType = r.Header.Get("Content-Type")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		_, _ = w.Write([]byte("  The Consumer Protection Act, 2019.\n"))
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "cpa.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 fake"), 0o644))

	client := NewClient(&Config{TikaServerURL: srv.URL + "/", Timeout: 5 * time.Second})
	text, err := client.ExtractFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "The Consumer Protection Act, 2019.", text)
	assert.Equal(t, "application/pdf", gotType)
	assert.Equal(t, "%PDF-1.4 fake", gotBody)
}

func TestExtractText_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "parse failure", http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	client := NewClient(&Config{TikaServerURL: srv.URL, Timeout: 5 * time.Second})
	_, err := client.ExtractText(context.Background(), []byte("x"), "application/pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 422")
}

func TestExtractText_Unsupported(t *testing.T) {
	client := NewClient(nil)
	_, err := client.ExtractText(context.Background(), []byte("x"), "image/png")
	assert.ErrorContains(t, err, "unsupported content type")
}

func TestExtractText_NoBackend(t *testing.T) {
	client := NewClient(&Config{TikaServerURL: "http://127.0.0.1:1", Timeout: time.Second})
	_, err := client.ExtractText(context.Background(), []byte("x"), "application/pdf")
	assert.ErrorContains(t, err, "no Tika server or jar available")
}
