package model

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCall is a structured tool invocation requested by the model
type ToolCall struct {
	ID        string         `json:"id,omitempty"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// Message is one entry of a transcript
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`

	// ToolCall is set on assistant messages that request a tool
	ToolCall *ToolCall `json:"tool_call,omitempty"`

	// ToolCallID and ToolName identify the call a tool-result message answers
	ToolCallID string `json:"tool_call_id,omitempty"`
	ToolName   string `json:"tool_name,omitempty"`
}

func NewSystemMessage(content string) *Message {
	return &Message{Role: RoleSystem, Content: content}
}

func NewUserMessage(content string) *Message {
	return &Message{Role: RoleUser, Content: content}
}

func NewAssistantMessage(content string) *Message {
	return &Message{Role: RoleAssistant, Content: content}
}

// NewToolResultMessage wraps a tool's textual result as a reply to call
func NewToolResultMessage(call *ToolCall, content string) *Message {
	msg := &Message{Role: RoleTool, Content: content}
	if call != nil {
		msg.ToolCallID = call.ID
		msg.ToolName = call.Name
	}
	return msg
}

// HasToolCall reports whether the message carries a tool-call request
func (m *Message) HasToolCall() bool {
	return m != nil && m.ToolCall != nil
}

// Transcript is the ordered message history of one conversation turn
type Transcript []*Message

// Last returns the latest message, or nil for an empty transcript
func (t Transcript) Last() *Message {
	if len(t) == 0 {
		return nil
	}
	return t[len(t)-1]
}
