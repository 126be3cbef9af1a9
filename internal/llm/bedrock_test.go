package llm

import (
	"encoding/json"
	"strings"
	"testing"
)

// bedrockRequest/bedrockResponse marshaling is exercised indirectly by
// the composer package's tests via a stub Completer; this test only
// pins the wire field names since they must match Bedrock's Anthropic
// message schema exactly.
func TestBedrockRequestJSONFieldNames(t *testing.T) {
	req := bedrockRequest{
		AnthropicVersion: anthropicVersion,
		MaxTokens:        1024,
		System:           "sys",
		Temperature:      0.4,
		Messages: []bedrockMessage{
			{Role: "user", Content: []bedrockContentBlock{{Type: "text", Text: "hi"}}},
		},
	}
	if req.AnthropicVersion != "bedrock-2023-05-31" {
		t.Fatalf("unexpected anthropic version: %s", req.AnthropicVersion)
	}
	if len(req.Messages) != 1 || req.Messages[0].Content[0].Text != "hi" {
		t.Fatalf("message not built as expected: %+v", req.Messages)
	}
	raw, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	for _, field := range []string{`"anthropic_version"`, `"max_tokens"`, `"system"`, `"messages"`, `"temperature"`, `"role"`, `"content"`, `"type"`, `"text"`} {
		if !strings.Contains(string(raw), field) {
			t.Fatalf("wire field %s missing from %s", field, raw)
		}
	}
}
