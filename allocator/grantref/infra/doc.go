// Package infra contém implementações concretas (infraestrutura) para os
// contratos definidos no pacote domain.
//
// Exemplos:
//   - CondPool: fila de handles livres com mutex + sync.Cond (sinaliza e reconfere)
//   - ChanQueue: variante da fila baseada em channel bufferizado
//   - MemDriver: driver de grant table simulado para testes e desenvolvimento
//   - Store: token bucket por chave usando golang.org/x/time/rate
package infra
