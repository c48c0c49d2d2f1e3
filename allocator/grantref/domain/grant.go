package domain

// Camada de domínio do alocador de grant references.
//
// Um Handle identifica uma entrada alocável da grant table, que é um recurso
// escasso dimensionado externamente pelo driver.

import (
	"context"
	"errors"
)

// Handle é o índice de uma entrada da grant table. Handles no intervalo
// [0, reserved) nunca entram na fila: são consumidos pelo bootstrap do
// sistema e ficam permanentemente indisponíveis para este alocador.
type Handle int

// HandleQueue é a fila de handles livres. O conjunto de handles que circula
// por ela é fixado na construção: exatamente [reserved, total), cada um uma
// única vez.
//
// Semântica: Acquire bloqueia até obter um handle ou até o ctx encerrar.
// Um handle adquirido pertence a um único chamador até o Release
// correspondente. Release de um handle que não está em posse de ninguém é
// violação de contrato do chamador (ver implementações em infra).
type HandleQueue interface {
	Acquire(ctx context.Context) (Handle, bool)
	Release(Handle)

	// Free e Held são contadores instantâneos para observabilidade.
	// Invariante: Free() + Held() == total - reserved.
	Free() int
	Held() int
}

// Driver é a fronteira com o driver da grant table do hypervisor.
// São exatamente quatro operações, tratadas como colaboradores opacos.
//
// Capacity e Reserved são consultados uma única vez, na inicialização do
// pool. Init deve ser chamado exatamente uma vez; Teardown libera a tabela
// e não participa da contabilidade de handles.
type Driver interface {
	Init()
	Teardown()
	Capacity() (int, error)
	Reserved() (int, error)
}

// ErrAcquireTimeout indica que o tempo máximo de espera por um handle
// expirou. A espera é totalmente desregistrada: nenhum handle é removido da
// fila e nenhum sinal de Release futuro se perde.
var ErrAcquireTimeout = errors.New("grantref: timeout esperando handle livre")
