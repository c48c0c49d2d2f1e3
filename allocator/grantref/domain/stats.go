package domain

import (
	"context"
	"time"
)

// Op é o tipo de evento do pool.
type Op string

const (
	OpAcquired Op = "acquired"
	OpReleased Op = "released"
	OpTimeout  Op = "timeout"
)

// GrantEvent representa um evento de aquisição/liberação de handle.
//
// Waited só é significativo para OpAcquired/OpTimeout (quanto tempo o
// chamador esperou na fila).
//
// Observação: cuidado com cardinalidade ao habilitar rastreio por handle em
// bases como Redis — uma grant table grande vira uma chave por entrada.
type GrantEvent struct {
	Ref Handle
	Op  Op

	Waited time.Duration

	At time.Time
}

// StatsStore é a estratégia de persistência para estatísticas do pool.
//
// Implementações podem armazenar em Redis, memória, etc.
// O chamador deve tratar erro como best-effort (nunca falhar um Acquire ou
// Release por causa de estatística).
type StatsStore interface {
	Record(ctx context.Context, ev GrantEvent) error
}
