package infra

import (
	"context"
	"strconv"
	"sync"

	"grant-allocator/allocator/grantref/domain"
)

type Counters struct {
	Acquired int64
	Released int64
	TimedOut int64
}

func (c *Counters) bump(op domain.Op) {
	switch op {
	case domain.OpAcquired:
		c.Acquired++
	case domain.OpReleased:
		c.Released++
	case domain.OpTimeout:
		c.TimedOut++
	}
}

// MemoryStatsStore é uma implementação simples em memória.
// Útil para testes, desenvolvimento e para o cmd/poolsim.
//
// Não faz expiração e não é indicada para produção.
type MemoryStatsStore struct {
	mu    sync.Mutex
	total Counters
	byRef map[string]Counters

	// soma dos tempos de espera, em nanossegundos, para waited médio
	waitedNS int64

	trackRefs bool
}

type MemoryStatsOption func(*MemoryStatsStore)

func WithTrackRefs(track bool) MemoryStatsOption {
	return func(s *MemoryStatsStore) { s.trackRefs = track }
}

func NewMemoryStatsStore(opts ...MemoryStatsOption) *MemoryStatsStore {
	s := &MemoryStatsStore{
		byRef: make(map[string]Counters),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStatsStore) Record(_ context.Context, ev domain.GrantEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.total.bump(ev.Op)
	if ev.Op == domain.OpAcquired || ev.Op == domain.OpTimeout {
		s.waitedNS += int64(ev.Waited)
	}

	if s.trackRefs && ev.Op != domain.OpTimeout {
		key := strconv.Itoa(int(ev.Ref))
		c := s.byRef[key]
		c.bump(ev.Op)
		s.byRef[key] = c
	}
	return nil
}

func (s *MemoryStatsStore) Total() Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

func (s *MemoryStatsStore) ByRef() map[string]Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]Counters, len(s.byRef))
	for k, v := range s.byRef {
		out[k] = v
	}
	return out
}

// WaitedTotalNS retorna a soma dos tempos de espera registrados (ns).
func (s *MemoryStatsStore) WaitedTotalNS() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.waitedNS
}
