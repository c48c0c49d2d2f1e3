// Package application contém os casos de uso (regras de aplicação) do
// alocador de grant references.
//
// Ele depende apenas do pacote domain e não conhece net/http nem o driver
// concreto. Ex.: AcquireService.Acquire(ctx) aplica a política de timeout
// sobre a fila; Service.Decide(key) retorna uma Decision (allow/deny +
// retry-after) para a superfície de operações.
package application
