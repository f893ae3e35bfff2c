package core

import (
	"time"

	"github.com/google/uuid"

	"francechallenges.com/sales-assistant/internal/llm"
)

// CompletionResponse is the single envelope returned for every branch.
type CompletionResponse struct {
	ID      string    `json:"id"`
	Object  string    `json:"object"`
	Created int64     `json:"created"`
	Model   string    `json:"model"`
	Choices []Choice  `json:"choices"`
	Usage   llm.Usage `json:"usage"`
}

type Choice struct {
	Index        int         `json:"index"`
	Message      llm.Message `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

func newCompletionResponse(model, content string, usage llm.Usage, now time.Time) *CompletionResponse {
	return &CompletionResponse{
		ID:      "chatcmpl-" + uuid.NewString(),
		Object:  "chat.completion",
		Created: now.Unix(),
		Model:   model,
		Choices: []Choice{{
			Index:        0,
			Message:      llm.Message{Role: llm.RoleAssistant, Content: content},
			FinishReason: "stop",
		}},
		Usage: usage,
	}
}
