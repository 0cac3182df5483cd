// Package llm binds chat model SDKs to the provider-neutral interfaces.LLM.
package llm

import (
	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/recall/pkg/model"
)

// ErrEmptyResponse is returned when the provider answers with no content
var ErrEmptyResponse = goerr.New("empty response from model")

// systemInstruction concatenates every system message in order
func systemInstruction(messages []*model.Message) string {
	var text string
	for _, msg := range messages {
		if msg.Role != model.RoleSystem {
			continue
		}
		if text != "" {
			text += "\n\n"
		}
		text += msg.Content
	}
	return text
}

func newCallID() string {
	return "call_" + uuid.NewString()
}

func ptrFloat32(f float32) *float32 {
	return &f
}
