package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"atsoptimizer/internal/types"
)

// Recorder receives the latency and outcome of every store call.
type Recorder interface {
	RecordStorage(ctx context.Context, operation string, d time.Duration, err error)
}

// Instrumented reports each call of the wrapped store to a Recorder.
type Instrumented struct {
	Store
	recorder Recorder
}

func NewInstrumented(base Store, recorder Recorder) *Instrumented {
	return &Instrumented{Store: base, recorder: recorder}
}

func (s *Instrumented) UpdateSession(ctx context.Context, id uuid.UUID, update types.SessionUpdate) error {
	start := time.Now()
	err := s.Store.UpdateSession(ctx, id, update)
	s.recorder.RecordStorage(ctx, "update_session", time.Since(start), err)
	return err
}

func (s *Instrumented) GetSession(ctx context.Context, id uuid.UUID) (*types.Session, error) {
	start := time.Now()
	session, err := s.Store.GetSession(ctx, id)
	s.recorder.RecordStorage(ctx, "get_session", time.Since(start), err)
	return session, err
}

func (s *Instrumented) GetUserContext(ctx context.Context, userID string) (*types.UserContext, error) {
	start := time.Now()
	uc, err := s.Store.GetUserContext(ctx, userID)
	s.recorder.RecordStorage(ctx, "get_user_context", time.Since(start), err)
	return uc, err
}
