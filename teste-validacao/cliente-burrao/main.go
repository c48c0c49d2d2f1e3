package main

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

func main() {
	base := "http://localhost:8080"
	for i := 0; i < 20; i++ {
		resp, err := http.Post(base+"/acquire", "text/plain", nil)
		if err != nil {
			fmt.Printf("Erro ao chamar /acquire: %s\n", err)
			return
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		ref := strings.TrimSpace(string(body))
		fmt.Printf("Log: adquiri o handle %s (status %d)\n", ref, resp.StatusCode)

		time.Sleep(100 * time.Millisecond)

		resp2, err := http.Post(base+"/release?ref="+ref, "text/plain", nil)
		if err != nil {
			fmt.Printf("Erro ao chamar /release: %s\n", err)
			return
		}
		resp2.Body.Close()
		fmt.Printf("Log: devolvi o handle %s (status %d)\n", ref, resp2.StatusCode)
	}
	fmt.Println("Validação terminou sem erro")
}
