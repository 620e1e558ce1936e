package drafter

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// TemplateNotFoundError reports that no candidate template exists.
type TemplateNotFoundError struct {
	DocType string
	Dir     string
}

func (e *TemplateNotFoundError) Error() string {
	return fmt.Sprintf("No template found for '%s' in %s", e.DocType, e.Dir)
}

// TemplateStore is a read-only directory of .docx templates.
type TemplateStore struct {
	dir string
}

// NewTemplateStore creates a TemplateStore over dir.
func NewTemplateStore(dir string) *TemplateStore {
	return &TemplateStore{dir: dir}
}

func (s *TemplateStore) Dir() string {
	return s.dir
}

// Candidates lists the template paths tried for docType, in order: an exact
// file name match, then keyword matches on notice, consumer and rti.
func (s *TemplateStore) Candidates(docType string) []string {
	candidates := []string{filepath.Join(s.dir, docType+".docx")}
	lower := strings.ToLower(docType)
	if strings.Contains(lower, "notice") {
		candidates = append(candidates, filepath.Join(s.dir, LegalNoticeTemplate))
	}
	if strings.Contains(lower, "consumer") {
		candidates = append(candidates, filepath.Join(s.dir, ConsumerComplaintTemplate))
	}
	if strings.Contains(lower, "rti") {
		candidates = append(candidates, filepath.Join(s.dir, RTIApplicationTemplate))
	}
	return candidates
}

// Resolve returns the first existing candidate for docType.
func (s *TemplateStore) Resolve(docType string) (string, error) {
	for _, c := range s.Candidates(docType) {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			return c, nil
		}
	}
	return "", &TemplateNotFoundError{DocType: docType, Dir: s.dir}
}

// List returns the template file names in the store, sorted.
func (s *TemplateStore) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list templates: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".docx") || strings.HasPrefix(e.Name(), "~$") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}
