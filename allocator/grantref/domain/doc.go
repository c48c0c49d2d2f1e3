// Package domain define contratos e tipos de domínio do alocador de grant
// references.
//
// Este pacote não depende de net/http nem de implementações concretas.
// A intenção é permitir testes de unidade puros (com drivers e filas
// fabricados) e desacoplar as regras do alocador de detalhes de
// infraestrutura como o driver real da grant table ou Redis.
package domain
