package chatprovider

import "github.com/spectrail/core/pkg/spectrailapi"

// Message is one entry in a chat-completions request, distinct from
// spectrailapi.Message (the persisted entity) because the wire shape needs
// ToolCalls/ToolCallID fields RunLog never stores directly — AgentLoop
// translates between the two at the persistence boundary.
type Message struct {
	Role       string
	Content    string
	ToolCalls  []spectrailapi.ToolCallRequest
	ToolCallID string
}

// ChatRequest is ChatProvider.Complete's input (spec §4.7's request body,
// minus stream which is always false per spec §1 Non-goals: no streaming).
type ChatRequest struct {
	Model       string
	Messages    []Message
	Tools       []spectrailapi.ToolDefinition
	Temperature float64
	MaxTokens   int
}

// ChatResponse is the assistant turn extracted from choices[0].message
// (spec §4.7).
type ChatResponse struct {
	Content      string
	ToolCalls    []spectrailapi.ToolCallRequest
	FinishReason string
}
