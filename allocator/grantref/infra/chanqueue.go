package infra

import (
	"context"

	"grant-allocator/allocator/grantref/domain"
)

// ChanQueue é uma variante de domain.HandleQueue baseada em channel
// bufferizado: o buffer é a própria fila de handles livres e o runtime faz o
// papel de fila de waiters.
//
// Mais simples que CondPool, mas sem rastreio de posse: um double-release só
// é pego quando estoura a capacidade do buffer. Prefira CondPool quando a
// detecção importa.
type ChanQueue struct {
	free chan domain.Handle
	size int
}

// NewChanQueue cria a fila pré-populada com [reserved, total) em ordem
// crescente. Precondição: 0 <= reserved <= total.
func NewChanQueue(total, reserved int) *ChanQueue {
	q := &ChanQueue{
		free: make(chan domain.Handle, total-reserved),
		size: total - reserved,
	}
	for h := reserved; h < total; h++ {
		q.free <- domain.Handle(h)
	}
	return q
}

func (q *ChanQueue) Acquire(ctx context.Context) (domain.Handle, bool) {
	select {
	case h := <-q.free:
		return h, true
	case <-ctx.Done():
		return 0, false
	}
}

func (q *ChanQueue) Release(h domain.Handle) {
	select {
	case q.free <- h:
	default:
		// buffer cheio = mais releases do que acquires
		panic("grantref: release com a fila de handles já completa")
	}
}

func (q *ChanQueue) Free() int { return len(q.free) }

func (q *ChanQueue) Held() int { return q.size - len(q.free) }
