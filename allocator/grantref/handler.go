package grantref

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"grant-allocator/allocator/grantref/application"
	"grant-allocator/allocator/grantref/domain"
)

type KeyFunc func(r *http.Request) string

// HandlerOptions configura a superfície HTTP de operação do pool
// (ferramenta local de quem roda o grantd; o pool em si continua sendo um
// alocador de processo único).
type HandlerOptions struct {
	Pool *Pool

	// Limiters protege /acquire contra clientes que martelam. Nil desliga.
	Limiters domain.LimiterStore

	KeyFn              KeyFunc
	KeyHeader          string
	TrustXForwardedFor bool

	// RetryAfter vai no header tanto do 429 (rate limit) quanto do 503
	// (timeout esperando handle).
	RetryAfter time.Duration
}

func DefaultKeyFunc(keyHeader string, trustXFF bool) KeyFunc {
	return func(r *http.Request) string {
		if keyHeader != "" {
			if v := strings.TrimSpace(r.Header.Get(keyHeader)); v != "" {
				return v
			}
		}

		if trustXFF {
			// pega o primeiro IP do X-Forwarded-For (cliente original)
			if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
				parts := strings.Split(xff, ",")
				if len(parts) > 0 {
					ip := strings.TrimSpace(parts[0])
					if ip != "" {
						return ip
					}
				}
			}
		}

		// fallback: RemoteAddr
		host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
		if err == nil && host != "" {
			return host
		}
		if r.RemoteAddr != "" {
			return r.RemoteAddr
		}
		return "unknown"
	}
}

// Handler monta a superfície HTTP do pool:
//
//	POST /acquire      → corpo com o handle em decimal; 503 se o timeout
//	                     configurado expirar; 429 se o rate limit negar
//	POST /release?ref=N → 204; 400 ref inválido; 409 ref não está em posse
//	GET  /status        → snapshot JSON (capacity/reserved/free/held)
func Handler(opts HandlerOptions) http.Handler {
	if opts.RetryAfter == 0 {
		opts.RetryAfter = 1 * time.Second
	}
	if opts.KeyFn == nil {
		opts.KeyFn = DefaultKeyFunc(opts.KeyHeader, opts.TrustXForwardedFor)
	}

	rateSvc := application.Service{
		Store:      opts.Limiters,
		RetryAfter: opts.RetryAfter,
	}

	mux := http.NewServeMux()

	mux.HandleFunc("/acquire", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}

		dec := rateSvc.Decide(domain.Key(opts.KeyFn(r)))
		if !dec.Allowed {
			w.Header().Set("Retry-After", formatInt(int(dec.RetryAfter.Seconds())))
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			return
		}

		h, err := opts.Pool.Acquire(r.Context())
		if err != nil {
			if errors.Is(err, domain.ErrAcquireTimeout) {
				w.Header().Set("Retry-After", formatInt(int(opts.RetryAfter.Seconds())))
				http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
				return
			}
			// cliente desistiu no meio da espera; nada a responder de útil
			http.Error(w, http.StatusText(http.StatusRequestTimeout), http.StatusRequestTimeout)
			return
		}

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(FormatHandle(h) + "\n"))
	})

	mux.HandleFunc("/release", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}

		ref, err := strconv.Atoi(strings.TrimSpace(r.URL.Query().Get("ref")))
		if err != nil || ref < 0 {
			http.Error(w, "ref inválido", http.StatusBadRequest)
			return
		}

		h := domain.Handle(ref)
		// Guarda best-effort: evita que um cliente mal-comportado derrube o
		// daemon com release de handle que não está em posse. Dois releases
		// simultâneos do mesmo ref continuam sendo violação de contrato.
		if held, known := opts.Pool.Holds(h); known && !held {
			http.Error(w, "handle não está em posse", http.StatusConflict)
			return
		}

		opts.Pool.Release(h)
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]int{
			"capacity": opts.Pool.Capacity(),
			"reserved": opts.Pool.Reserved(),
			"free":     opts.Pool.Free(),
			"held":     opts.Pool.Held(),
		})
	})

	return mux
}
