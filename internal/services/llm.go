package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ollama/ollama/api"
	"github.com/projectnav/navigator/internal/config"
	"github.com/projectnav/navigator/internal/metrics"
	"github.com/projectnav/navigator/pkg/logger"
	"github.com/sashabaranov/go-openai"
	"google.golang.org/genai"
)

// Message roles on the wire to the LLM provider.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// LLMMessage is one turn of the conversation sent to the provider.
type LLMMessage struct {
	Role    string
	Content string
}

// LLMService submits chat completions to the configured external provider.
// One attempt per request; failures surface immediately to the caller.
type LLMService struct {
	config *config.LLMConfig
}

func NewLLMService(cfg *config.LLMConfig) *LLMService {
	return &LLMService{config: cfg}
}

// Complete sends the message list and returns the assistant reply text.
func (s *LLMService) Complete(ctx context.Context, messages []LLMMessage) (string, error) {
	start := time.Now()

	var content string
	var err error
	switch s.config.Provider {
	case "anthropic":
		content, err = s.callAnthropic(ctx, messages)
	case "ollama":
		content, err = s.callOllama(ctx, messages)
	case "gemini":
		content, err = s.callGemini(ctx, messages)
	case "azure":
		content, err = s.callAzure(ctx, messages)
	default:
		// openai and other OpenAI-compatible services
		content, err = s.callOpenAI(ctx, messages)
	}

	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.RecordLLMCall(s.config.Provider, status, time.Since(start))

	return content, err
}

// callOpenAI handles OpenAI and OpenAI-compatible APIs (including custom endpoints)
func (s *LLMService) callOpenAI(ctx context.Context, messages []LLMMessage) (string, error) {
	clientConfig := openai.DefaultConfig(s.config.APIKey)
	if s.config.BaseURL != "" {
		clientConfig.BaseURL = s.config.BaseURL
	}
	client := openai.NewClientWithConfig(clientConfig)

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       s.config.Model,
		Messages:    toOpenAIMessages(messages),
		Temperature: s.temperature(),
	})
	if err != nil {
		logger.Errorf("[LLM] OpenAI API error: %v", err)
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from OpenAI")
	}

	return resp.Choices[0].Message.Content, nil
}

// callAzure handles Azure OpenAI; Model is the deployment name.
func (s *LLMService) callAzure(ctx context.Context, messages []LLMMessage) (string, error) {
	clientConfig := openai.DefaultAzureConfig(s.config.APIKey, s.config.BaseURL)
	client := openai.NewClientWithConfig(clientConfig)

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       s.config.Model,
		Messages:    toOpenAIMessages(messages),
		Temperature: s.temperature(),
	})
	if err != nil {
		logger.Errorf("[LLM] Azure OpenAI API error: %v", err)
		return "", fmt.Errorf("Azure OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from Azure OpenAI")
	}

	return resp.Choices[0].Message.Content, nil
}

// callAnthropic handles the Anthropic API using the native SDK. System
// messages travel in the dedicated system field.
func (s *LLMService) callAnthropic(ctx context.Context, messages []LLMMessage) (string, error) {
	opts := []option.RequestOption{option.WithAPIKey(s.config.APIKey)}
	if s.config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(s.config.BaseURL))
	}
	client := anthropic.NewClient(opts...)

	maxTokens := int64(s.config.MaxTokens)
	if maxTokens == 0 {
		maxTokens = 4096
	}

	var system []anthropic.TextBlockParam
	var turns []anthropic.MessageParam
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			system = append(system, anthropic.TextBlockParam{Text: m.Content})
		case RoleAssistant:
			turns = append(turns, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			turns = append(turns, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}

	resp, err := client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(s.config.Model),
		MaxTokens: maxTokens,
		System:    system,
		Messages:  turns,
	})
	if err != nil {
		logger.Errorf("[LLM] Anthropic API error: %v", err)
		return "", fmt.Errorf("Anthropic API error: %w", err)
	}

	var content strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			content.WriteString(block.Text)
		}
	}

	return content.String(), nil
}

// callOllama handles a local Ollama endpoint using the native SDK.
func (s *LLMService) callOllama(ctx context.Context, messages []LLMMessage) (string, error) {
	baseURL := s.config.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid Ollama base URL: %w", err)
	}
	client := api.NewClient(u, http.DefaultClient)

	msgs := make([]api.Message, 0, len(messages))
	for _, m := range messages {
		msgs = append(msgs, api.Message{Role: m.Role, Content: m.Content})
	}

	var content strings.Builder
	err = client.Chat(ctx, &api.ChatRequest{
		Model:    s.config.Model,
		Messages: msgs,
		Options: map[string]interface{}{
			"temperature": s.config.Temperature,
		},
	}, func(resp api.ChatResponse) error {
		content.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		logger.Errorf("[LLM] Ollama API error: %v", err)
		return "", fmt.Errorf("Ollama API error: %w", err)
	}

	return content.String(), nil
}

// callGemini handles the Google Gemini API. The SDK takes a single content
// payload, so the conversation is flattened into one prompt.
func (s *LLMService) callGemini(ctx context.Context, messages []LLMMessage) (string, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: s.config.APIKey,
	})
	if err != nil {
		return "", fmt.Errorf("Gemini client error: %w", err)
	}

	var prompt strings.Builder
	for _, m := range messages {
		prompt.WriteString(strings.ToUpper(m.Role[:1]) + m.Role[1:] + ": ")
		prompt.WriteString(m.Content)
		prompt.WriteString("\n\n")
	}

	resp, err := client.Models.GenerateContent(ctx, s.config.Model, genai.Text(prompt.String()), nil)
	if err != nil {
		logger.Errorf("[LLM] Gemini API error: %v", err)
		return "", fmt.Errorf("Gemini API error: %w", err)
	}

	return resp.Text(), nil
}

func (s *LLMService) temperature() float32 {
	if s.config.Temperature > 0 {
		return float32(s.config.Temperature)
	}
	return 0.3
}

func toOpenAIMessages(messages []LLMMessage) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}
	return out
}
