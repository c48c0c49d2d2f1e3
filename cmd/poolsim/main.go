package main

import (
	"context"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"grant-allocator/allocator/grantref"
	"grant-allocator/allocator/grantref/infra"
)

// Simulação local: N workers disputando o pool em processo único, para
// observar a disciplina de espera (workers suspendem quando a fila esvazia
// e algum deles sempre acorda quando um handle volta).
func main() {
	workers := getenvIntDefault("WORKERS", 16)
	capacity := getenvIntDefault("TABLE_CAPACITY", 10)
	reserved := getenvIntDefault("TABLE_RESERVED", 3)
	hold := getenvDurationDefault("HOLD_TIME", 50*time.Millisecond)
	duration := getenvDurationDefault("DURATION", 5*time.Second)
	if hold <= 0 {
		hold = 50 * time.Millisecond
	}

	drv := infra.NewMemDriver(capacity, reserved)
	stats := infra.NewMemoryStatsStore(infra.WithTrackRefs(true))

	pool, err := grantref.New(drv, grantref.Options{Stats: stats})
	if err != nil {
		log.Fatalf("pool init error: %v", err)
	}
	defer drv.Teardown()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	ctx, timeout := context.WithTimeout(ctx, duration)
	defer timeout()

	log.Printf("poolsim: workers=%d capacity=%d reserved=%d hold=%s", workers, capacity, reserved, hold)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for {
				h, err := pool.Acquire(ctx)
				if err != nil {
					return
				}
				// segura o handle por um tempo variável, como faria quem
				// mapeia uma página com ele
				time.Sleep(hold/2 + time.Duration(rand.Int63n(int64(hold))))
				pool.Release(h)
			}
		}(i)
	}

	t := time.NewTicker(1 * time.Second)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			wg.Wait()
			total := stats.Total()
			log.Printf("poolsim: done acquired=%d released=%d free=%d held=%d", total.Acquired, total.Released, pool.Free(), pool.Held())
			if pool.Held() != 0 {
				log.Fatalf("poolsim: %d handles não devolvidos", pool.Held())
			}
			return
		case <-t.C:
			log.Printf("poolsim: free=%d held=%d acquired=%d", pool.Free(), pool.Held(), stats.Total().Acquired)
		}
	}
}

func getenvIntDefault(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getenvDurationDefault(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
