package injection

import "regexp"

// severity labels for the pattern catalogue. Kept as plain strings (not
// domain.Severity) so this package has no dependency on internal/domain —
// the service layer (service.go) is the translation point.
const (
	Critical = "critical"
	High     = "high"
	Medium   = "medium"
)

// pattern is one entry in the injection-detection catalogue.
type pattern struct {
	name        string
	severity    string
	description string
	re          *regexp.Regexp
}

// catalogue is the ~20-pattern regex table from spec.md §4.C2, grounded on
// original_source/src/security/injection_detector.py, preserved in the
// same severity-then-topic order.
var catalogue = []pattern{
	// Critical: direct system prompt manipulation.
	{
		name:        "system_prompt_override",
		severity:    Critical,
		description: "Attempts to override system instructions",
		re:          regexp.MustCompile(`(?i)(?:ignore|disregard|forget)\s+(?:all\s+)?(?:previous|prior|above|your)\s+(?:instructions|rules|guidelines|prompts?)`),
	},
	{
		name:        "new_instructions",
		severity:    Critical,
		description: "Attempts to inject new system instructions",
		re:          regexp.MustCompile(`(?i)(?:new|updated?|revised?)\s+(?:system\s+)?(?:instructions?|rules?|guidelines?)\s*:`),
	},
	{
		name:        "role_hijack",
		severity:    Critical,
		description: "Attempts to reassign AI role",
		re:          regexp.MustCompile(`(?i)you\s+are\s+(?:now|actually|really)\s+(?:a|an|the)\s+`),
	},
	{
		name:        "system_tag",
		severity:    Critical,
		description: "Contains system/assistant role tags",
		re:          regexp.MustCompile(`(?i)<(?:system|assistant|admin|root)>`),
	},

	// High: action manipulation.
	{
		name:        "send_email_command",
		severity:    High,
		description: "Attempts to command email sending",
		re:          regexp.MustCompile(`(?i)(?:send|forward|reply)\s+(?:this|an?|the)\s+(?:email|message|response)\s+to\s+`),
	},
	{
		name:        "execute_command",
		severity:    High,
		description: "Attempts to execute system commands",
		re:          regexp.MustCompile(`(?i)(?:execute|run|eval|exec)\s*\(`),
	},
	{
		name:        "data_exfil",
		severity:    High,
		description: "Attempts to extract sensitive data",
		re:          regexp.MustCompile(`(?i)(?:list|show|reveal|display|output)\s+(?:all\s+)?(?:emails?|contacts?|passwords?|tokens?|keys?|secrets?)`),
	},
	{
		name:        "transfer_money",
		severity:    High,
		description: "Attempts to trigger financial actions",
		re:          regexp.MustCompile(`(?i)(?:transfer|send|wire|pay)\s+\$?\d+`),
	},
	{
		name:        "urgent_action",
		severity:    High,
		description: "Uses urgency to force immediate action",
		re:          regexp.MustCompile(`(?i)(?:urgent|immediately|right\s+now|asap)\s*[:\-!]\s*(?:send|transfer|approve|confirm|click)`),
	},

	// Medium: suspicious patterns.
	{
		name:        "delimiter_escape",
		severity:    Medium,
		description: "Contains delimiter/escape sequences",
		re:          regexp.MustCompile("(?i)(?:```|---|\\*\\*\\*|===)\\s*(?:system|admin|instructions?)"),
	},
	{
		name:        "base64_payload",
		severity:    Medium,
		description: "Contains base64-encoded payload markers",
		re:          regexp.MustCompile(`(?i)(?:decode|base64|atob)\s*\(`),
	},
	{
		name:        "hidden_text",
		severity:    Medium,
		description: "Contains zero-width or invisible characters",
		re:          regexp.MustCompile(`[\x{200b}\x{200c}\x{200d}\x{2060}\x{feff}]`),
	},
	{
		name:        "prompt_leak",
		severity:    Medium,
		description: "Attempts to extract prompt/instructions",
		re:          regexp.MustCompile(`(?i)(?:what\s+are|show\s+me|repeat|print)\s+your\s+(?:instructions?|rules?|system\s+prompt|guidelines?)`),
	},
	{
		name:        "jailbreak_phrase",
		severity:    Medium,
		description: "Common jailbreak phrasing",
		re:          regexp.MustCompile(`(?i)(?:DAN|do\s+anything\s+now|developer\s+mode|pretend\s+you)`),
	},
	{
		name:        "markdown_injection",
		severity:    Medium,
		description: "Markdown/formatting injection attempt",
		re:          regexp.MustCompile(`(?i)\[.*?\]\((?:javascript|data|vbscript):`),
	},
	{
		name:        "multi_persona",
		severity:    Medium,
		description: "Attempts to create alternate personas",
		re:          regexp.MustCompile(`(?i)(?:act|behave|respond)\s+as\s+(?:if\s+you\s+(?:are|were)|a\s+different)`),
	},
	{
		name:        "context_manipulation",
		severity:    Medium,
		description: "Attempts to manipulate conversation context",
		re:          regexp.MustCompile(`(?i)(?:previous\s+conversation|earlier\s+you\s+said|you\s+(?:agreed|promised)\s+to)`),
	},
	{
		name:        "encoding_evasion",
		severity:    Medium,
		description: "URL or unicode encoding evasion",
		re:          regexp.MustCompile(`(?i)%[0-9a-fA-F]{2}.*%[0-9a-fA-F]{2}.*(?:script|exec|eval)`),
	},
}
