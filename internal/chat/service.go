package chat

import (
	"context"
	"sync"

	"github.com/hackgods/clinic-appointment-portal/pkg/logging"
)

// Service loads a session, runs one turn through a Controller and saves the result.
// At most one turn per session id is processed at a time.
type Service struct {
	store     SessionStore
	completer Completer
	logger    *logging.Logger

	mu       sync.Mutex
	inflight map[string]struct{}
}

func NewService(store SessionStore, completer Completer, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		store:     store,
		completer: completer,
		logger:    logger,
		inflight:  make(map[string]struct{}),
	}
}

func (s *Service) Load(ctx context.Context, sessionID string) (*Session, error) {
	return s.store.Load(ctx, sessionID)
}

func (s *Service) Send(ctx context.Context, sessionID, text string, files []Attachment) (*Session, error) {
	if !s.acquire(sessionID) {
		return nil, ErrBusy
	}
	defer s.release(sessionID)

	sess, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	ctl := NewController(sess, s.completer, s.logger)
	if _, err := ctl.Send(ctx, text, files); err != nil {
		return nil, err
	}

	out := ctl.Session()
	if err := s.store.Save(ctx, sessionID, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Clear drops the transcript. It returns ErrBusy while a turn for the session is
// still running.
func (s *Service) Clear(ctx context.Context, sessionID string) error {
	if !s.acquire(sessionID) {
		return ErrBusy
	}
	defer s.release(sessionID)
	return s.store.Clear(ctx, sessionID)
}

func (s *Service) acquire(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.inflight[id]; ok {
		return false
	}
	s.inflight[id] = struct{}{}
	return true
}

func (s *Service) release(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inflight, id)
}
