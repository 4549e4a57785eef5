package suggest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	config "github.com/shivamghaware/BlogIn/internal/init"
)

const systemPrompt = `You are a helpful assistant that suggests relevant categories or tags for a blog post based on its content.
Suggest a maximum of 5 categories or tags.
Reply with a JSON object of the form {"categories": ["..."]} and nothing else.`

type OpenAIClassifier struct {
	client *openai.Client
	model  string
}

// NewOpenAIClassifier returns Disabled when no API key is configured.
func NewOpenAIClassifier(cfg *config.Config) Classifier {
	if cfg.OpenAIKey == "" {
		logg.Info("suggest", "OPENAI_API_KEY not set, tag suggestions disabled")
		return Disabled{}
	}
	oc := openai.DefaultConfig(cfg.OpenAIKey)
	if cfg.OpenAIBaseURL != "" {
		oc.BaseURL = cfg.OpenAIBaseURL
	}
	model := cfg.OpenAIModel
	if model == "" {
		model = "gpt-4o-mini"
	}
	logg.Info("suggest", "Initializing OpenAI classifier with model "+model)
	return &OpenAIClassifier{client: openai.NewClientWithConfig(oc), model: model}
}

func (o *OpenAIClassifier) Classify(ctx context.Context, content string) ([]string, error) {
	req := openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: "Post Content: " + content},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("openai returned no choices")
	}
	return parseCategories(resp.Choices[0].Message.Content)
}

func parseCategories(body string) ([]string, error) {
	body = strings.TrimSpace(body)
	body = strings.TrimPrefix(body, "```json")
	body = strings.Trim(body, "`\n ")

	var out struct {
		Categories []string `json:"categories"`
	}
	if err := json.Unmarshal([]byte(body), &out); err != nil {
		return nil, fmt.Errorf("decode categories: %w", err)
	}
	return out.Categories, nil
}
