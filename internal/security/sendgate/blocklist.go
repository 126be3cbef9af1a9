package sendgate

import (
	"encoding/json"
	"strings"

	"github.com/ignite/ghostpost/internal/domain"
)

// loadBlocklist parses the blocklist setting's JSON array, tolerating a
// missing or malformed value as an empty list rather than failing the
// send gate.
func loadBlocklist(settings domain.SettingsStore) []string {
	raw, ok := settings.Get(domain.SettingBlocklist)
	if !ok || strings.TrimSpace(raw) == "" {
		return nil
	}
	var list []string
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil
	}
	return list
}

// isBlocked matches case-insensitively and only on exact addresses —
// "a.com" in the blocklist never blocks "sub.a.com" or "a@a.com.co"
// (spec.md §9 invariant 7).
func isBlocked(addr string, blocklist []string) bool {
	addr = strings.ToLower(strings.TrimSpace(addr))
	for _, b := range blocklist {
		if strings.ToLower(strings.TrimSpace(b)) == addr {
			return true
		}
	}
	return false
}

// sensitiveTopics is the curated substring list from spec.md §4.C5.
// False positives are accepted as documented (e.g. "court" inside
// "basketball court").
var sensitiveTopics = []string{
	"legal", "medical", "confidential", "audit", "lawsuit",
	"harassment", "termination", "court",
}

func checkSensitiveTopics(body string) []string {
	lower := strings.ToLower(body)
	var hits []string
	for _, topic := range sensitiveTopics {
		if strings.Contains(lower, topic) {
			hits = append(hits, topic)
		}
	}
	return hits
}
