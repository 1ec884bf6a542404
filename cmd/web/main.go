package main

import (
	_ "embed"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tomz197/invaders-fx/internal/app"
	"github.com/tomz197/invaders-fx/internal/config"
)

const (
	defaultHost = "0.0.0.0"
	defaultPort = "8080"
	defaultRoot = "web"
)

//go:embed index.html
var htmlPage string

func main() {
	logger := app.NewLogger(os.Stderr, "web")
	host := config.GetEnv("WEB_HOST", defaultHost)
	port := config.GetEnv("WEB_PORT", defaultPort)
	root := config.GetEnv("WEB_ROOT", defaultRoot)
	sshHost := config.GetEnv("SSH_DISPLAY_HOST", "your-server.com")

	page := strings.ReplaceAll(htmlPage, "{{.SSHHost}}", sshHost)
	handler := newHandler(page, root)

	addr := net.JoinHostPort(host, port)
	logger.Info("starting web server", "addr", "http://"+addr, "root", root)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logger.Fatal("server error", "err", err)
	}
}

// newHandler serves the landing page at / and the wasm build (game.wasm and
// wasm_exec.js) from root.
func newHandler(page, root string) http.Handler {
	mux := http.NewServeMux()
	files := http.FileServer(http.Dir(root))
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" && r.URL.Path != "/index.html" {
			if filepath.Ext(r.URL.Path) == ".wasm" {
				w.Header().Set("Content-Type", "application/wasm")
			}
			files.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(page))
	})
	return mux
}
