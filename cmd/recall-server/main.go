package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"strconv"

	"github.com/hubenschmidt/go-recall/embedder"
	"github.com/hubenschmidt/go-recall/memory"
	"github.com/hubenschmidt/go-recall/server"
	"github.com/hubenschmidt/go-recall/store"
)

func main() {
	ctx := context.Background()

	model := getEnvOr("EMBED_MODEL", "nomic-embed-text")
	dims, err := strconv.Atoi(getEnvOr("EMBED_DIM", "768"))
	if err != nil {
		log.Fatalf("[embed] invalid EMBED_DIM: %v", err)
	}

	emb := embedder.NewOllama(getEnvOr("OLLAMA_URL", "http://localhost:11434"), model, dims)

	// Model-unavailable is startup-fatal: probe once before serving so
	// requests never queue behind a model that will not load.
	if _, err := emb.Embed(ctx, "startup probe"); err != nil {
		log.Fatalf("[embed] model %s unavailable: %v", model, err)
	}
	log.Printf("[embed] Loaded model %s (dimension %d)", model, emb.Dimensions())

	st, exec, err := store.Open(ctx, databaseDSN(), emb.Dimensions())
	if err != nil {
		log.Fatalf("[store] initialize: %v", err)
	}
	defer st.Close()
	log.Printf("[store] Initialized record store")

	svc, err := memory.NewService(emb, st)
	if err != nil {
		log.Fatalf("[memory] %v", err)
	}

	srv, err := server.New(server.Config{Service: svc, Executor: exec})
	if err != nil {
		log.Fatalf("[server] %v", err)
	}

	addr := getEnvOr("ADDR", ":8000")
	log.Printf("Starting recall server on %s", addr)
	log.Fatal(http.ListenAndServe(addr, srv.Handler()))
}

// databaseDSN prefers RECALL_DSN; otherwise it assembles a postgres URL
// from the POSTGRES_* variables, and falls back to the sqlite default when
// neither is configured.
func databaseDSN() string {
	if dsn := os.Getenv("RECALL_DSN"); dsn != "" {
		return dsn
	}

	host := os.Getenv("POSTGRES_HOST")
	if host == "" {
		return ""
	}

	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(os.Getenv("POSTGRES_USER"), os.Getenv("POSTGRES_PASSWORD")),
		Host:   fmt.Sprintf("%s:%s", host, getEnvOr("POSTGRES_PORT", "5432")),
		Path:   "/" + getEnvOr("POSTGRES_DATABASE", "postgres"),
	}
	return u.String()
}

func getEnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
