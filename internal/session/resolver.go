package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// ThreadCreator opens a new agent conversation thread
type ThreadCreator func(ctx context.Context) (string, error)

const defaultResolveTimeout = 30 * time.Second

// Resolver finds the thread of a session, creating it on first contact
type Resolver struct {
	store   Store
	create  ThreadCreator
	timeout time.Duration
	group   singleflight.Group
	logger  *zap.Logger
}

// ResolverOption configures a Resolver
type ResolverOption func(*Resolver)

// WithResolveTimeout bounds the lookup and creation of a thread
func WithResolveTimeout(d time.Duration) ResolverOption {
	return func(r *Resolver) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// NewResolver creates a new resolver
func NewResolver(store Store, create ThreadCreator, logger *zap.Logger, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		store:   store,
		create:  create,
		timeout: defaultResolveTimeout,
		logger:  logger,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// NewSessionID returns a fresh random session id
func NewSessionID() string {
	return uuid.NewString()
}

type resolved struct {
	threadID string
	created  bool
}

// ThreadFor returns the thread of sessionID. Concurrent first requests for the
// same session share a single thread creation, which runs detached from the
// cancellation of whichever request started it.
func (r *Resolver) ThreadFor(ctx context.Context, sessionID string) (threadID string, created bool, err error) {
	v, err, _ := r.group.Do(sessionID, func() (interface{}, error) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
		defer cancel()

		existing, err := r.store.Get(ctx, sessionID)
		if err == nil {
			return resolved{threadID: existing}, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}

		r.logger.Info("creating a new conversation thread", zap.String("session_id", sessionID))
		newThread, err := r.create(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create thread: %w", err)
		}

		stored, err := r.store.PutIfAbsent(ctx, sessionID, newThread)
		if err != nil {
			return nil, err
		}
		if stored != newThread {
			r.logger.Warn("session already had a thread, discarding new one",
				zap.String("session_id", sessionID),
				zap.String("discarded_thread_id", newThread),
			)
		}
		return resolved{threadID: stored, created: stored == newThread}, nil
	})
	if err != nil {
		return "", false, err
	}

	res := v.(resolved)
	return res.threadID, res.created, nil
}
