// Package ai assembles the grounding prompt and drives the external
// chat-completion endpoint through an eino chain.
package ai

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/docchat-dev/docchat/internal/config"
	"github.com/docchat-dev/docchat/internal/model/chat"
	"github.com/docchat-dev/docchat/internal/model/document"
)

// Service holds compiled chat chains, one per API key. Keys arrive from
// sessions at request time, so chains are compiled lazily and cached.
type Service struct {
	cfg    config.AIConfig
	mu     sync.Mutex
	chains map[string]compose.Runnable[map[string]any, *schema.Message]
}

// NewService creates the AI service. No external call is made until the
// first question arrives with a usable key.
func NewService(cfg config.AIConfig) *Service {
	return &Service{
		cfg:    cfg,
		chains: make(map[string]compose.Runnable[map[string]any, *schema.Message]),
	}
}

// StreamAnswer streams the model's reply to question, grounded in doc,
// with the prior conversation supplied in order.
func (s *Service) StreamAnswer(ctx context.Context, apiKey string, doc document.Document, history []chat.Turn, question string) (*schema.StreamReader[*schema.Message], error) {
	chain, err := s.chainForKey(ctx, apiKey)
	if err != nil {
		return nil, err
	}

	stream, err := chain.Stream(ctx, buildChainInput(doc, history, question))
	if err != nil {
		return nil, fmt.Errorf("failed to stream completion: %w", err)
	}
	return stream, nil
}

// GenerateAnswer returns the full reply in one call. Used by tests and
// callers that cannot consume a stream.
func (s *Service) GenerateAnswer(ctx context.Context, apiKey string, doc document.Document, history []chat.Turn, question string) (*schema.Message, error) {
	chain, err := s.chainForKey(ctx, apiKey)
	if err != nil {
		return nil, err
	}

	response, err := chain.Invoke(ctx, buildChainInput(doc, history, question))
	if err != nil {
		return nil, fmt.Errorf("failed to run completion chain: %w", err)
	}

	log.Printf("[ai] generated response, document=%s length=%d", doc.Name, len(response.Content))
	return response, nil
}

func (s *Service) chainForKey(ctx context.Context, apiKey string) (compose.Runnable[map[string]any, *schema.Message], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if chain, ok := s.chains[apiKey]; ok {
		return chain, nil
	}

	chatModel, err := s.cfg.NewChatModel(ctx, apiKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}

	s.chains[apiKey] = runnable
	return runnable, nil
}

func buildChainInput(doc document.Document, history []chat.Turn, question string) map[string]any {
	return map[string]any{
		"system":  BuildSystemPrompt(doc),
		"history": buildHistoryMessages(history),
		"query":   question,
	}
}

// buildHistoryMessages converts the full conversation so far. No window
// is applied: the entire transcript rides along on every turn.
func buildHistoryMessages(turns []chat.Turn) []*schema.Message {
	if len(turns) == 0 {
		return nil
	}

	history := make([]*schema.Message, 0, len(turns))
	for _, turn := range turns {
		switch turn.Role {
		case chat.RoleUser:
			history = append(history, schema.UserMessage(turn.Content))
		case chat.RoleAssistant:
			history = append(history, schema.AssistantMessage(turn.Content, nil))
		}
	}
	return history
}
