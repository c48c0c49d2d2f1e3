package grantref

import (
	"context"
	"errors"
	"fmt"
	"time"

	"grant-allocator/allocator/grantref/application"
	"grant-allocator/allocator/grantref/domain"
	"grant-allocator/allocator/grantref/infra"
)

// Options configura a construção do pool. Só o driver é obrigatório
// (vai como argumento de New); o resto tem default.
type Options struct {
	// Queue troca a implementação da fila. Default: infra.NewCondPool.
	Queue func(total, reserved int) domain.HandleQueue

	// Stats recebe eventos de acquire/release/timeout, best-effort.
	Stats domain.StatsStore

	// AcquireTimeout limita a espera por handle. 0 = espera indefinida
	// (contrato base: sem timeout por padrão).
	AcquireTimeout time.Duration
}

// Pool é o alocador de grant references já inicializado contra um driver.
//
// Deve ser construído via New e passado explicitamente a quem precisa
// (nada de singleton implícito), o que permite testar com total/reserved
// fabricados em vez do driver real.
type Pool struct {
	queue domain.HandleQueue
	svc   application.AcquireService
	stats domain.StatsStore

	total    int
	reserved int
}

// New inicializa o pool: consulta capacidade e prefixo reservado no driver,
// popula a fila com [reserved, total) em ordem crescente e chama o Init do
// driver exatamente uma vez. Nenhum Acquire é atendido antes disso tudo.
//
// Falha na consulta de capacidade/reservados é fatal: nenhum pool parcial é
// criado e o erro volta embrulhado para o chamador.
func New(drv domain.Driver, opts Options) (*Pool, error) {
	if drv == nil {
		return nil, errors.New("grantref: driver é obrigatório")
	}

	total, err := drv.Capacity()
	if err != nil {
		return nil, fmt.Errorf("grantref: consulta de capacidade: %w", err)
	}
	reserved, err := drv.Reserved()
	if err != nil {
		return nil, fmt.Errorf("grantref: consulta de reservados: %w", err)
	}
	if total < 0 || reserved < 0 || reserved > total {
		return nil, fmt.Errorf("grantref: driver reportou total=%d reserved=%d", total, reserved)
	}

	newQueue := opts.Queue
	if newQueue == nil {
		newQueue = func(total, reserved int) domain.HandleQueue {
			return infra.NewCondPool(total, reserved)
		}
	}
	queue := newQueue(total, reserved)

	drv.Init()

	return &Pool{
		queue: queue,
		svc: application.AcquireService{
			Queue:          queue,
			AcquireTimeout: opts.AcquireTimeout,
		},
		stats:    opts.Stats,
		total:    total,
		reserved: reserved,
	}, nil
}

// Acquire obtém um handle livre, suspendendo o chamador enquanto a fila
// estiver vazia. Retorna domain.ErrAcquireTimeout se o timeout configurado
// expirar, ou o erro do ctx se o chamador cancelar.
func (p *Pool) Acquire(ctx context.Context) (domain.Handle, error) {
	start := time.Now()
	h, err := p.svc.Acquire(ctx)

	if p.stats != nil {
		ev := domain.GrantEvent{At: time.Now(), Waited: time.Since(start)}
		switch {
		case err == nil:
			ev.Ref = h
			ev.Op = domain.OpAcquired
		case errors.Is(err, domain.ErrAcquireTimeout):
			ev.Op = domain.OpTimeout
		default:
			// cancelamento do chamador não vira estatística
			return h, err
		}
		_ = p.stats.Record(context.WithoutCancel(ctx), ev)
	}

	return h, err
}

// Release devolve o handle à fila e acorda pelo menos um waiter suspenso.
// Devolver um handle que não está em posse é violação de contrato do
// chamador (panic na fila — ver infra.CondPool).
func (p *Pool) Release(h domain.Handle) {
	p.queue.Release(h)
	if p.stats != nil {
		_ = p.stats.Record(context.Background(), domain.GrantEvent{
			Ref: h,
			Op:  domain.OpReleased,
			At:  time.Now(),
		})
	}
}

// holdChecker é opcional: filas que rastreiam posse (CondPool) sabem dizer
// se um handle está com alguém.
type holdChecker interface {
	Holds(domain.Handle) bool
}

// Holds informa se h está em posse de algum chamador. known=false quando a
// fila configurada não rastreia posse (ex: ChanQueue).
func (p *Pool) Holds(h domain.Handle) (held, known bool) {
	if hc, ok := p.queue.(holdChecker); ok {
		return hc.Holds(h), true
	}
	return false, false
}

func (p *Pool) Free() int     { return p.queue.Free() }
func (p *Pool) Held() int     { return p.queue.Held() }
func (p *Pool) Capacity() int { return p.total }
func (p *Pool) Reserved() int { return p.reserved }
