package agent

import (
	"path"
	"regexp"
	"strings"
)

var (
	createdAtPattern = regexp.MustCompile(`(?i)created at:\s*(.*?\.docx)`)
	draftNamePattern = regexp.MustCompile(`Draft_[a-zA-Z0-9_-]+\.(docx|pdf)`)
)

// ExtractArtifactReference finds the file name of a generated draft in a
// reply. An explicit "created at: <path>" wins over a bare Draft_ file
// name. The reply is only scanned; the file system is never consulted.
func ExtractArtifactReference(reply string) (string, bool) {
	if m := createdAtPattern.FindStringSubmatch(reply); m != nil {
		p := strings.ReplaceAll(strings.TrimSpace(m[1]), `\`, "/")
		return path.Base(p), true
	}
	if m := draftNamePattern.FindString(reply); m != "" {
		return m, true
	}
	return "", false
}
