// utilitário pequeno para formatação rápida/consistente de handles em
//    respostas/headers/logs. Evita puxar fmt (que é mais “pesado” e genérico)
// 	  só para formatação simples, e padroniza a forma decimal do handle.

package grantref

import (
	"strconv"

	"grant-allocator/allocator/grantref/domain"
)

// FormatHandle renderiza o handle na forma decimal. Puro e idempotente:
// não toca em estado do pool e o mesmo handle produz sempre o mesmo texto.
func FormatHandle(h domain.Handle) string { return strconv.Itoa(int(h)) }

func formatInt(v int) string { return strconv.Itoa(v) }
