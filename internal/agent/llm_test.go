package agent_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/aescanero/dago-chat-gateway/internal/agent"
	"github.com/aescanero/dago-libs/pkg/domain"
	"github.com/m-mizutani/gt"
	"go.uber.org/zap"
)

type memoryHistory struct {
	mu      sync.Mutex
	threads map[string][]agent.Message
}

func newMemoryHistory() *memoryHistory {
	return &memoryHistory{threads: make(map[string][]agent.Message)}
}

func (h *memoryHistory) Append(ctx context.Context, threadID string, msgs ...agent.Message) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.threads[threadID] = append(h.threads[threadID], msgs...)
	return nil
}

func (h *memoryHistory) Recent(ctx context.Context, threadID string, limit int) ([]agent.Message, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	msgs := h.threads[threadID]
	if len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	return append([]agent.Message(nil), msgs...), nil
}

func TestLLMAgentRun(t *testing.T) {
	var requests []*domain.LLMRequest
	complete := func(ctx context.Context, req *domain.LLMRequest) (*domain.LLMResponse, error) {
		requests = append(requests, req)
		return &domain.LLMResponse{Content: "answer"}, nil
	}
	history := newMemoryHistory()
	a := agent.NewLLMAgent(complete, history, agent.LLMAgentConfig{
		Model:        "test-model",
		MaxTokens:    256,
		HistoryLimit: 10,
	}, zap.NewNop())

	ctx := context.Background()
	threadID, err := a.CreateThread(ctx)
	gt.NoError(t, err)
	gt.S(t, threadID).Contains("thread_")

	res, err := a.Run(ctx, threadID, "first")
	gt.NoError(t, err)
	gt.Equal(t, res.Status, agent.StatusCompleted)
	gt.Equal(t, res.Text(), "answer")

	_, err = a.Run(ctx, threadID, "second")
	gt.NoError(t, err)

	gt.A(t, requests).Length(2)
	gt.Equal(t, requests[1].Model, "test-model")
	gt.Equal(t, requests[1].MaxTokens, 256)
	gt.A(t, requests[1].Messages).Length(3)
	gt.Equal(t, requests[1].Messages[0].Role, "user")
	gt.Equal(t, requests[1].Messages[1].Role, "assistant")
	gt.Equal(t, requests[1].Messages[2].Role, "user")

	gt.A(t, history.threads[threadID]).Length(4)
}

func TestLLMAgentFailureIsReported(t *testing.T) {
	complete := func(ctx context.Context, req *domain.LLMRequest) (*domain.LLMResponse, error) {
		return nil, errors.New("overloaded")
	}
	history := newMemoryHistory()
	a := agent.NewLLMAgent(complete, history, agent.LLMAgentConfig{HistoryLimit: 10}, zap.NewNop())

	res, err := a.Run(context.Background(), "thread_x", "hi")
	gt.NoError(t, err)
	gt.Equal(t, res.Status, agent.StatusFailed)
	gt.Equal(t, res.Text(), "The agent run failed with status: failed. Error: overloaded")
	gt.A(t, history.threads["thread_x"]).Length(0)
}

func TestCreateThreadUnique(t *testing.T) {
	a := agent.NewLLMAgent(nil, newMemoryHistory(), agent.LLMAgentConfig{}, zap.NewNop())
	ctx := context.Background()
	one, _ := a.CreateThread(ctx)
	two, _ := a.CreateThread(ctx)
	gt.NotEqual(t, one, two)
}
