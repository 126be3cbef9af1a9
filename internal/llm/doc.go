// Package llm defines the narrow LLM completion interface used by the
// reply composer and a Bedrock-backed implementation of it, adapted
// from the teacher's agent package (internal/agent/bedrock_agent.go).
package llm
