package application

import (
	"context"
	"errors"
	"time"

	"grant-allocator/allocator/grantref/domain"
)

// AcquireService concentra a regra de aquisição de handles com timeout,
// sem saber nada sobre HTTP nem sobre qual fila concreta está por trás.
type AcquireService struct {
	Queue          domain.HandleQueue
	AcquireTimeout time.Duration
}

// Acquire tenta adquirir um handle da fila.
//   - Se `AcquireTimeout <= 0`, espera indefinidamente (até ctx cancelar) —
//     esse é o contrato base do pool: sem timeout por padrão.
//   - Se `AcquireTimeout > 0`, espera até o timeout e retorna
//     domain.ErrAcquireTimeout se ele expirar.
//
// Um acquire que falha nunca remove handle da fila.
func (s AcquireService) Acquire(ctx context.Context) (domain.Handle, error) {
	if s.Queue == nil {
		return 0, errors.New("grantref: fila de handles não configurada")
	}

	if s.AcquireTimeout <= 0 {
		h, ok := s.Queue.Acquire(ctx)
		if !ok {
			return 0, ctx.Err()
		}
		return h, nil
	}

	acqCtx, cancel := context.WithTimeout(ctx, s.AcquireTimeout)
	defer cancel()

	h, ok := s.Queue.Acquire(acqCtx)
	if ok {
		return h, nil
	}
	// distingue timeout nosso de cancelamento do chamador
	if ctx.Err() != nil {
		return 0, ctx.Err()
	}
	return 0, domain.ErrAcquireTimeout
}
