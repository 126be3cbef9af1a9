// Package commitment implements C3: scanning outbound text for binding
// commitments (financial, legal, deadline) before the send gate lets it
// through (spec.md §4.C3).
//
// Known limitation, preserved intentionally: these patterns do not model
// negation, so "we will not pay $5000" still matches. The send gate
// treats commitments as warnings, never blocks, so this is acceptable.
package commitment

import "regexp"

// Commitment is one detected binding statement.
type Commitment struct {
	Type        string
	Description string
	MatchedText string
}

type pattern struct {
	kind        string
	description string
	re          *regexp.Regexp
}

const matchTextCap = 100

// catalogue is the 7-pattern table from spec.md §4.C3, grounded on
// original_source/src/security/commitment_detector.py.
var catalogue = []pattern{
	{
		kind:        "financial",
		description: "Mentions specific dollar amounts or payment",
		re:          regexp.MustCompile(`(?i)(?:pay|send|transfer|wire|invoice)\s+(?:you\s+)?\$[\d,]+`),
	},
	{
		kind:        "price_agreement",
		description: "Agrees to a price or rate",
		re:          regexp.MustCompile(`(?i)(?:agree|accept|confirm)\s+(?:the\s+)?(?:price|rate|cost|fee|quote)\s+of\s+\$[\d,]+`),
	},
	{
		kind:        "contract",
		description: "References contract or agreement signing",
		re:          regexp.MustCompile(`(?i)(?:sign|execute|agree to)\s+(?:the\s+)?(?:contract|agreement|NDA|terms)`),
	},
	{
		kind:        "guarantee",
		description: "Makes a guarantee or warranty",
		re:          regexp.MustCompile(`(?i)(?:I|we)\s+(?:guarantee|warrant|promise|assure)\s+`),
	},
	{
		kind:        "deadline",
		description: "Commits to a specific deadline",
		re:          regexp.MustCompile(`(?i)(?:deliver|complete|finish|done)\s+by\s+(?:end of\s+)?(?:Monday|Tuesday|Wednesday|Thursday|Friday|Saturday|Sunday|\d{1,2}[/-]\d{1,2}|tomorrow|next week)`),
	},
	{
		kind:        "will_do",
		description: "Makes a firm commitment to do something",
		re:          regexp.MustCompile(`(?i)(?:I|we)\s+will\s+(?:definitely|certainly|absolutely)\s+`),
	},
	{
		kind:        "resource",
		description: "Commits resources or people",
		re:          regexp.MustCompile(`(?i)(?:assign|allocate|dedicate)\s+(?:\d+\s+)?(?:people|developers|hours|resources)`),
	},
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// DetectCommitments scans outgoing text and returns every matched
// commitment, in catalogue order.
func DetectCommitments(text string) []Commitment {
	if text == "" {
		return nil
	}
	var out []Commitment
	for _, p := range catalogue {
		if m := p.re.FindString(text); m != "" {
			out = append(out, Commitment{
				Type:        p.kind,
				Description: p.description,
				MatchedText: truncateRunes(m, matchTextCap),
			})
		}
	}
	return out
}

// HasCommitments is the boolean form of DetectCommitments.
func HasCommitments(text string) bool {
	return len(DetectCommitments(text)) > 0
}
