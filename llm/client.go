package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"wayfarer/config"
	"wayfarer/models"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

// Client calls the chat-completions API (OpenAI, or DeepSeek through its
// compatible endpoint) and parses the JSON payloads the planner core
// consumes. Every call is a single fallible suspend point; retries are the
// caller's policy.
type Client struct {
	api   openai.Client
	model shared.ChatModel
}

func NewClient() *Client {
	opts := []option.RequestOption{option.WithAPIKey(config.LLMKey)}
	if config.LLMBaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.LLMBaseURL))
	}
	return &Client{
		api:   openai.NewClient(opts...),
		model: shared.ChatModel(config.LLMModel),
	}
}

func (c *Client) chatJSON(ctx context.Context, msgs []openai.ChatCompletionMessageParamUnion) (string, error) {
	resp, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       c.model,
		Messages:    msgs,
		Temperature: openai.Float(0.7),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrCollaboratorFailure, err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("%w: empty completion", models.ErrCollaboratorFailure)
	}
	return resp.Choices[0].Message.Content, nil
}

var jsonObjectRe = regexp.MustCompile(`\{[\s\S]*\}`)

// decodeInto parses the completion as JSON, falling back to the first brace-
// delimited object when the model wrapped it in prose.
func decodeInto(content string, v any) error {
	raw := strings.TrimSpace(content)
	if err := json.Unmarshal([]byte(raw), v); err == nil {
		return nil
	}
	if m := jsonObjectRe.FindString(raw); m != "" {
		if err := json.Unmarshal([]byte(m), v); err == nil {
			return nil
		}
	}
	return fmt.Errorf("%w: unparseable completion", models.ErrCollaboratorFailure)
}

// historyMessages converts the most recent conversation turns, capped to keep
// token usage bounded.
func historyMessages(history []models.ConversationTurn, limit int) []openai.ChatCompletionMessageParamUnion {
	if len(history) > limit {
		history = history[len(history)-limit:]
	}
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(history))
	for _, turn := range history {
		switch turn.Role {
		case "user":
			msgs = append(msgs, openai.UserMessage(turn.Text))
		case "assistant":
			msgs = append(msgs, openai.AssistantMessage(turn.Text))
		}
	}
	return msgs
}
