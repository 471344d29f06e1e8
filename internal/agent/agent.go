package agent

import "context"

// Run statuses reported by the agent service
const (
	StatusQueued         = "queued"
	StatusInProgress     = "in_progress"
	StatusRequiresAction = "requires_action"
	StatusCancelling     = "cancelling"
	StatusCancelled      = "cancelled"
	StatusFailed         = "failed"
	StatusCompleted      = "completed"
	StatusExpired        = "expired"
)

// Agent is a conversational agent addressed through threads
type Agent interface {
	// CreateThread opens a new conversation thread
	CreateThread(ctx context.Context) (string, error)

	// Run posts prompt to the thread and waits for the agent to answer
	Run(ctx context.Context, threadID, prompt string) (*RunResult, error)
}

// RunResult is the outcome of one agent run
type RunResult struct {
	Status string

	// Reply is the latest assistant text, empty when the latest message is not one
	Reply string

	// NoMessage is set when the thread had no message to read after the run
	NoMessage bool

	// LastError is the agent's error message for a failed run
	LastError string
}

// RequiresActionReply is shown when the agent asked for a tool call; client-side tool execution is not supported
const RequiresActionReply = "The agent requested an action this service cannot perform. Please rephrase your question."

// Text returns what should be shown to the user for this run
func (r *RunResult) Text() string {
	if r.Status == StatusRequiresAction {
		return RequiresActionReply
	}
	if r.Status != StatusCompleted {
		text := "The agent run failed with status: " + r.Status + "."
		if r.LastError != "" {
			text += " Error: " + r.LastError
		}
		return text
	}

	switch {
	case r.NoMessage:
		return "No new message was received from the agent."
	case r.Reply != "":
		return r.Reply
	default:
		return "I seem to be having trouble. Please try again."
	}
}

func isTerminal(status string) bool {
	switch status {
	case StatusQueued, StatusInProgress, StatusCancelling:
		return false
	}
	return true
}
