package alertlog

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ignite/ghostpost/internal/domain"
	"github.com/ignite/ghostpost/internal/pkg/atomicfile"
)

const (
	dedupWindow = 20
	maxEntries  = 50
)

// Alert is one row appended to ALERTS.md.
type Alert struct {
	Timestamp time.Time
	EventType string
	Severity  domain.Severity
	Title     string
	Message   string
	ThreadID  *int64
}

// Store manages a single ALERTS.md file.
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

func parseEntries(content string) []string {
	parts := strings.Split(content, "\n- ")
	if len(parts) <= 1 {
		return nil
	}
	entries := make([]string, 0, len(parts)-1)
	for _, p := range parts[1:] {
		entries = append(entries, "- "+p)
	}
	return entries
}

func dedupKey(threadID *int64, message string) string {
	idStr := "None"
	if threadID != nil {
		idStr = strconv.FormatInt(*threadID, 10)
	}
	return idStr + "|" + strings.TrimSpace(message)
}

// entryDedupKey extracts the same key from an already-formatted entry:
// the thread id token from the header line (if present) and the message
// on the second line.
func entryDedupKey(entry string) string {
	lines := strings.Split(strings.TrimSpace(entry), "\n")
	header := ""
	message := ""
	if len(lines) > 0 {
		header = lines[0]
	}
	if len(lines) > 1 {
		message = strings.TrimSpace(lines[1])
	}
	idStr := "None"
	if idx := strings.Index(header, "(thread #"); idx >= 0 {
		rest := header[idx+len("(thread #"):]
		idStr = strings.TrimSuffix(rest, ")")
	}
	return idStr + "|" + message
}

func formatEntry(a Alert) string {
	label := a.Severity.Label()
	line := fmt.Sprintf("- **[%s]** [%s] %s", a.Timestamp.UTC().Format("2006-01-02 15:04"), label, a.Title)
	if a.ThreadID != nil {
		line += fmt.Sprintf(" (thread #%d)", *a.ThreadID)
	}
	return line + "\n  " + a.Message + "\n"
}

func render(entries []string, isNewFile bool, now time.Time) string {
	var b strings.Builder
	b.WriteString("# Active Alerts\n")
	b.WriteString("<!-- schema_version: 1 -->\n")
	if isNewFile {
		b.WriteString("_Operational alerts. For security-specific alerts see SECURITY_ALERTS.md._\n\n")
	}
	b.WriteString(fmt.Sprintf("_Last updated: %s UTC_\n\n", now.UTC().Format("2006-01-02 15:04")))
	for _, e := range entries {
		if !strings.HasSuffix(e, "\n") {
			e += "\n"
		}
		b.WriteString(e)
	}
	return b.String()
}

// AppendAlert prepends alert, skipping the write entirely if an
// identical (thread_id, message) pair already exists within the 20 most
// recent entries, then trims the result to the 50 most recent.
func (s *Store) AppendAlert(a Alert) error {
	raw, err := os.ReadFile(s.path)
	isNewFile := err != nil
	var existing []string
	if err == nil {
		existing = parseEntries(string(raw))
	}

	incomingKey := dedupKey(a.ThreadID, a.Message)
	window := existing
	if len(window) > dedupWindow {
		window = window[:dedupWindow]
	}
	for _, e := range window {
		if entryDedupKey(e) == incomingKey {
			return nil
		}
	}

	entries := append([]string{formatEntry(a)}, existing...)
	if len(entries) > maxEntries {
		entries = entries[:maxEntries]
	}

	return atomicfile.WriteString(s.path, render(entries, isNewFile, s.now()))
}

// CleanupAlerts deduplicates (keeping first occurrence, i.e. most recent
// since entries are newest-first) and trims to 50, returning how many
// entries were removed.
func (s *Store) CleanupAlerts() (int, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	entries := parseEntries(string(raw))
	originalCount := len(entries)

	seen := map[string]bool{}
	var deduped []string
	for _, e := range entries {
		k := entryDedupKey(e)
		if !seen[k] {
			seen[k] = true
			deduped = append(deduped, e)
		}
	}
	if len(deduped) > maxEntries {
		deduped = deduped[:maxEntries]
	}

	if err := atomicfile.WriteString(s.path, render(deduped, false, s.now())); err != nil {
		return 0, err
	}
	return originalCount - len(deduped), nil
}
