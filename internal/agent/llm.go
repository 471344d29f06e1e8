package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/aescanero/dago-libs/pkg/domain"
	"github.com/aescanero/dago-libs/pkg/ports"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Message is one stored turn of a thread
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// History stores the messages of LLM-backed threads
type History interface {
	Append(ctx context.Context, threadID string, msgs ...Message) error
	Recent(ctx context.Context, threadID string, limit int) ([]Message, error)
}

// Completer produces one LLM completion
type Completer func(ctx context.Context, req *domain.LLMRequest) (*domain.LLMResponse, error)

// FromLLMClient adapts a dago LLM client to Completer
func FromLLMClient(client ports.LLMClient) Completer {
	return func(ctx context.Context, req *domain.LLMRequest) (*domain.LLMResponse, error) {
		respInterface, err := client.GenerateCompletion(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("llm completion failed: %w", err)
		}

		resp, ok := respInterface.(*domain.LLMResponse)
		if !ok {
			return nil, fmt.Errorf("unexpected response type from LLM: %T", respInterface)
		}
		return resp, nil
	}
}

// LLMAgent answers with a plain LLM completion over the thread's recent history
type LLMAgent struct {
	complete     Completer
	history      History
	model        string
	maxTokens    int
	historyLimit int
	logger       *zap.Logger
}

// LLMAgentConfig configures an LLMAgent
type LLMAgentConfig struct {
	Model        string
	MaxTokens    int
	HistoryLimit int
}

// NewLLMAgent creates a new LLM agent
func NewLLMAgent(complete Completer, history History, cfg LLMAgentConfig, logger *zap.Logger) *LLMAgent {
	return &LLMAgent{
		complete:     complete,
		history:      history,
		model:        cfg.Model,
		maxTokens:    cfg.MaxTokens,
		historyLimit: cfg.HistoryLimit,
		logger:       logger,
	}
}

// CreateThread allocates a thread id; history is written on the first run
func (a *LLMAgent) CreateThread(ctx context.Context) (string, error) {
	return "thread_" + strings.ReplaceAll(uuid.NewString(), "-", ""), nil
}

// Run sends the thread history plus prompt to the LLM and records both turns
func (a *LLMAgent) Run(ctx context.Context, threadID, prompt string) (*RunResult, error) {
	past, err := a.history.Recent(ctx, threadID, a.historyLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load thread history: %w", err)
	}

	messages := make([]domain.Message, 0, len(past)+1)
	for _, m := range past {
		messages = append(messages, domain.Message{Role: m.Role, Content: m.Content})
	}
	messages = append(messages, domain.Message{Role: "user", Content: prompt})

	req := &domain.LLMRequest{
		Model:     a.model,
		Messages:  messages,
		MaxTokens: a.maxTokens,
	}

	a.logger.Debug("calling llm",
		zap.String("thread_id", threadID),
		zap.Int("history", len(past)),
	)

	resp, err := a.complete(ctx, req)
	if err != nil {
		a.logger.Error("llm call failed", zap.String("thread_id", threadID), zap.Error(err))
		return &RunResult{Status: StatusFailed, LastError: err.Error()}, nil
	}

	if err := a.history.Append(ctx, threadID,
		Message{Role: "user", Content: prompt},
		Message{Role: "assistant", Content: resp.Content},
	); err != nil {
		a.logger.Warn("failed to record thread history", zap.String("thread_id", threadID), zap.Error(err))
	}

	return &RunResult{Status: StatusCompleted, Reply: resp.Content}, nil
}

// RedisHistory keeps thread messages in Redis lists that expire after ttl of inactivity
type RedisHistory struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisHistory creates a new Redis-backed history
func NewRedisHistory(client *redis.Client, ttl time.Duration) *RedisHistory {
	return &RedisHistory{client: client, ttl: ttl}
}

func threadKey(threadID string) string {
	return "chat:thread:" + threadID + ":messages"
}

// Append adds messages to the end of a thread
func (h *RedisHistory) Append(ctx context.Context, threadID string, msgs ...Message) error {
	values := make([]interface{}, 0, len(msgs))
	for _, m := range msgs {
		data, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("failed to marshal message: %w", err)
		}
		values = append(values, string(data))
	}

	key := threadKey(threadID)
	pipe := h.client.TxPipeline()
	pipe.RPush(ctx, key, values...)
	pipe.Expire(ctx, key, h.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append messages: %w", err)
	}
	return nil
}

// Recent returns up to limit of the latest messages in order
func (h *RedisHistory) Recent(ctx context.Context, threadID string, limit int) ([]Message, error) {
	raw, err := h.client.LRange(ctx, threadKey(threadID), int64(-limit), -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read messages: %w", err)
	}

	msgs := make([]Message, 0, len(raw))
	for _, item := range raw {
		var m Message
		if err := json.Unmarshal([]byte(item), &m); err != nil {
			return nil, fmt.Errorf("failed to unmarshal message: %w", err)
		}
		msgs = append(msgs, m)
	}

	// an odd window would start on an assistant turn
	if len(msgs) > 0 && msgs[0].Role != "user" {
		msgs = msgs[1:]
	}
	return msgs, nil
}
