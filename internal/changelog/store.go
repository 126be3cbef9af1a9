package changelog

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ignite/ghostpost/internal/pkg/atomicfile"
)

const maxEntries = 100

const header = "---\nschema_version: 1\ntype: changelog\n---\n# Changelog\n\n"

// Store manages a single CHANGELOG.md file.
type Store struct {
	path string
	now  func() time.Time
}

// New builds a Store writing to path. now defaults to time.Now when nil.
func New(path string, now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{path: path, now: now}
}

// Append prepends one "- [timestamp] eventType: summary [SEVERITY]" line
// and caps the file at the 100 most recent entries. severity defaults to
// "INFO" when empty.
func (s *Store) Append(eventType, summary, severity string) error {
	if severity == "" {
		severity = "INFO"
	}
	nowStr := s.now().UTC().Format("2006-01-02 15:04")
	newLine := fmt.Sprintf("- [%s] %s: %s [%s]", nowStr, eventType, summary, severity)

	var existing []string
	if raw, err := os.ReadFile(s.path); err == nil {
		for _, line := range strings.Split(string(raw), "\n") {
			if strings.HasPrefix(line, "- [") {
				existing = append(existing, line)
			}
		}
	}

	all := append([]string{newLine}, existing...)
	if len(all) > maxEntries {
		all = all[:maxEntries]
	}

	return atomicfile.WriteString(s.path, header+strings.Join(all, "\n")+"\n")
}
