// Package grantref fornece o pool de grant references: um conjunto de
// capacidade fixa de handles inteiros que chamadores concorrentes adquirem
// um por vez e devolvem ao terminar.
//
// Visão geral (camadas):
//
//   - domain: contratos e tipos do domínio (Handle, HandleQueue, Driver)
//   - application: casos de uso (acquire com timeout, decisão allow/deny) sem net/http
//   - infra: implementações concretas (fila com sync.Cond, fila com channel,
//     driver simulado, stats em memória/Redis, token bucket), detalhes de infraestrutura
//   - grantref (este pacote): wiring do pool a partir do driver + superfície
//     HTTP de operação + formatação de handles
//
// Fluxo de inicialização (New):
//
//  1. Consulta Capacity e Reserved no driver (falha aqui é fatal e propagada)
//  2. Popula a fila com todos os handles de [reserved, total), em ordem crescente
//  3. Chama Init do driver, exatamente uma vez
//  4. A partir daí o pool atende Acquire/Release de qualquer número de goroutines
//
// Variáveis de ambiente do binário grantd (cmd/grantd) controlam o
// comportamento, como TABLE_CAPACITY, TABLE_RESERVED, ACQUIRE_TIMEOUT e RATE_RPS.
package grantref
