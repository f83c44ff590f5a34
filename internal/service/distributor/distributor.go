package distributor

import (
	"sync"

	"github.com/alanyang/shiftdesk/internal/domain/dispatch"
	portdist "github.com/alanyang/shiftdesk/internal/port/distributor"
)

var _ portdist.Distributor = (*Service)(nil)

// Service owns the rotation cursor for one process and applies the assignment
// policy with the configured selection strategy. The cursor starts at 0 and is
// never persisted.
type Service struct {
	strategy dispatch.Strategy

	mu     sync.Mutex
	cursor int
}

func NewService(strategy dispatch.Strategy) *Service {
	if strategy == "" {
		strategy = dispatch.StrategyRotation
	}
	return &Service{strategy: strategy}
}

func (s *Service) Decide(req dispatch.Request, snap dispatch.Snapshot) (dispatch.Decision, error) {
	s.mu.Lock()
	cursor := s.cursor
	s.mu.Unlock()

	return dispatch.Decide(req, snap, cursor, s.strategy)
}

func (s *Service) Commit(d dispatch.Decision) {
	if !d.Advance {
		return
	}
	s.mu.Lock()
	s.cursor = d.NextCursor
	s.mu.Unlock()
}

func (s *Service) Cursor() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}

func (s *Service) Reset() {
	s.mu.Lock()
	s.cursor = 0
	s.mu.Unlock()
}

func (s *Service) Strategy() dispatch.Strategy { return s.strategy }
