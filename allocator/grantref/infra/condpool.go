package infra

import (
	"context"
	"strconv"
	"sync"

	"grant-allocator/allocator/grantref/domain"
)

// CondPool é a implementação canônica de domain.HandleQueue: uma fila FIFO
// de handles livres protegida por mutex, com sync.Cond para suspender
// chamadores quando a fila esvazia.
//
// A espera é "sinaliza e reconfere": Release acorda pelo menos um waiter,
// mas o waiter acordado reconfere a fila — se outro chamador levou o handle
// antes, ele volta a dormir em vez de devolver um handle inexistente.
//
// O conjunto held rastreia posse para pegar violação de contrato: Release de
// um handle que não está em posse (double-release, handle nunca emitido,
// handle do prefixo reservado) é erro de programação e gera panic.
type CondPool struct {
	mu   sync.Mutex
	cond *sync.Cond

	free []domain.Handle
	held map[domain.Handle]struct{}

	reserved int
	total    int
}

// NewCondPool cria a fila populada com todos os handles de [reserved, total),
// em ordem crescente, cada um exatamente uma vez.
//
// Precondição: 0 <= reserved <= total (validada pelo wiring em grantref).
// reserved == total é válido e produz uma fila vazia: o primeiro Acquire
// suspende até o ctx encerrar.
func NewCondPool(total, reserved int) *CondPool {
	p := &CondPool{
		free:     make([]domain.Handle, 0, total-reserved),
		held:     make(map[domain.Handle]struct{}),
		reserved: reserved,
		total:    total,
	}
	for h := reserved; h < total; h++ {
		p.free = append(p.free, domain.Handle(h))
	}
	p.cond = sync.NewCond(&p.mu)
	return p
}

// Acquire remove e retorna o handle mais antigo da fila. Com a fila vazia,
// suspende até um Release sinalizar ou até o ctx encerrar.
//
// Cancelamento não vaza: um waiter abandonado sai do loop sem remover nada
// da fila e sem consumir o sinal de ninguém (o Broadcast acorda todos, e os
// demais reconferem normalmente).
func (p *CondPool) Acquire(ctx context.Context) (domain.Handle, bool) {
	if ctx.Err() != nil {
		return 0, false
	}

	// Acorda o loop abaixo quando o ctx encerrar. Broadcast (e não Signal)
	// para não roubar o aviso de um Release destinado a outro waiter.
	stop := context.AfterFunc(ctx, func() {
		p.mu.Lock()
		p.cond.Broadcast()
		p.mu.Unlock()
	})
	defer stop()

	p.mu.Lock()
	defer p.mu.Unlock()

	for len(p.free) == 0 {
		if ctx.Err() != nil {
			return 0, false
		}
		p.cond.Wait()
	}

	h := p.free[0]
	p.free = p.free[1:]
	p.held[h] = struct{}{}
	return h, true
}

// Release devolve o handle à fila e acorda um waiter suspenso, se houver.
//
// Panic se h não está em posse de ninguém: tolerar corromperia a invariante
// de "exatamente um dono" sem deixar rastro.
func (p *CondPool) Release(h domain.Handle) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.held[h]; !ok {
		panic("grantref: release do handle " + strconv.Itoa(int(h)) + " que não está em posse")
	}

	delete(p.held, h)
	p.free = append(p.free, h)
	p.cond.Signal()
}

// Holds informa se h está atualmente em posse de algum chamador.
// Permite a camadas externas (ex: HTTP) validar antes de chamar Release.
func (p *CondPool) Holds(h domain.Handle) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.held[h]
	return ok
}

func (p *CondPool) Free() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.free)
}

func (p *CondPool) Held() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.held)
}
