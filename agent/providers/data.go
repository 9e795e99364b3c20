package providers

import (
	openai "github.com/sashabaranov/go-openai"

	"github.com/tailored-agentic-units/course-agent/core/protocol"
)

// ChatData contains the data needed to build a chat completion request.
type ChatData struct {
	Model       string
	Messages    []protocol.Message
	Temperature float32
	MaxTokens   int
}

// Request converts the data to a go-openai request that asks for a single
// JSON object reply.
func (d ChatData) Request() openai.ChatCompletionRequest {
	msgs := make([]openai.ChatCompletionMessage, len(d.Messages))
	for i, m := range d.Messages {
		msgs[i] = openai.ChatCompletionMessage{Role: chatRole(m.Role), Content: m.Content}
	}
	return openai.ChatCompletionRequest{
		Model:       d.Model,
		Messages:    msgs,
		Temperature: d.Temperature,
		MaxTokens:   d.MaxTokens,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}
}

func chatRole(r protocol.Role) string {
	switch r {
	case protocol.RoleSystem:
		return openai.ChatMessageRoleSystem
	case protocol.RoleAssistant:
		return openai.ChatMessageRoleAssistant
	default:
		return openai.ChatMessageRoleUser
	}
}
