package injection

// Match is one injection-pattern hit (spec.md §4.C2's InjectionMatch).
type Match struct {
	PatternName string
	Severity    string
	MatchedText string
	Description string
}

// matchTextCap is the length, in runes, that a matched substring is
// truncated to before it is stored or logged (spec.md §4.C2; confirmed by
// original_source's `found.group()[:100]`).
const matchTextCap = 100

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// ScanText scans a single string against the full pattern catalogue,
// returning one Match per pattern that hits, in catalogue order.
func ScanText(text string) []Match {
	if text == "" {
		return nil
	}

	var matches []Match
	for _, p := range catalogue {
		if loc := p.re.FindString(text); loc != "" {
			matches = append(matches, Match{
				PatternName: p.name,
				Severity:    p.severity,
				MatchedText: truncateRunes(loc, matchTextCap),
				Description: p.description,
			})
		}
	}
	return matches
}

// ScanEmailContent scans subject/body_plain/body_html and deduplicates
// matches by pattern name, keeping the first occurrence (spec.md §4.C2,
// testable property 3).
func ScanEmailContent(subject, bodyPlain, bodyHTML string) []Match {
	var all []Match
	for _, text := range []string{subject, bodyPlain, bodyHTML} {
		all = append(all, ScanText(text)...)
	}

	seen := make(map[string]bool, len(all))
	unique := make([]Match, 0, len(all))
	for _, m := range all {
		if seen[m.PatternName] {
			continue
		}
		seen[m.PatternName] = true
		unique = append(unique, m)
	}
	return unique
}

// severityRank mirrors domain.Severity's total order without importing
// internal/domain, keeping this package dependency-free.
var severityRank = map[string]int{
	Critical: 3,
	High:     2,
	Medium:   1,
}

// GetMaxSeverity returns the highest severity across matches under the
// total order critical > high > medium, or "" if matches is empty.
func GetMaxSeverity(matches []Match) string {
	if len(matches) == 0 {
		return ""
	}
	best := matches[0]
	for _, m := range matches[1:] {
		if severityRank[m.Severity] > severityRank[best.Severity] {
			best = m
		}
	}
	return best.Severity
}
