package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/activeterm"
	"github.com/charmbracelet/wish/logging"
	"github.com/google/uuid"

	"github.com/tomz197/invaders-fx/internal/app"
	"github.com/tomz197/invaders-fx/internal/config"
	"github.com/tomz197/invaders-fx/internal/draw"
)

const (
	defaultHost        = "::"
	defaultPort        = "2222"
	defaultHostKeyPath = "/app/keys/host_key"
	shutdownGrace      = 15 * time.Second
)

func main() {
	logger := app.NewLogger(os.Stderr, "ssh")
	host := config.GetEnv("SSH_HOST", defaultHost)
	port := config.GetEnv("SSH_PORT", defaultPort)
	hostKeyPath := config.GetEnv("SSH_HOST_KEY", defaultHostKeyPath)
	logger.Info("ssh config", "host", host, "port", port, "hostKey", hostKeyPath)

	gameOpts, err := app.GameOptionsFromEnv()
	if err != nil {
		logger.Fatal("invalid game options", "err", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	reg := newRegistry()

	opts := []ssh.Option{
		wish.WithAddress(net.JoinHostPort(host, port)),
		wish.WithMiddleware(
			gameMiddleware(ctx, reg, gameOpts, logger),
			activeterm.Middleware(),
			logging.StructuredMiddlewareWithLogger(logger, log.InfoLevel),
		),
		// Set TCP_NODELAY to reduce latency for game input
		ssh.WrapConn(func(ctx ssh.Context, conn net.Conn) net.Conn {
			if tcpConn, ok := conn.(*net.TCPConn); ok {
				_ = tcpConn.SetNoDelay(true)
			}
			return conn
		}),
	}
	if hostKeyPath != "" {
		opts = append(opts, wish.WithHostKeyPath(hostKeyPath))
	}

	s, err := wish.NewServer(opts...)
	if err != nil {
		logger.Fatal("failed to create server", "err", err)
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("starting ssh server", "addr", net.JoinHostPort(host, port))
	go func() {
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
			logger.Fatal("server error", "err", err)
		}
	}()

	<-done
	logger.Info("shutting down", "sessions", reg.len())

	// Sessions show a countdown, then end on their own.
	if !reg.shutdown(shutdownGrace) {
		logger.Warn("sessions still open after grace period", "sessions", reg.len())
	}
	cancel()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := s.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("shutdown error", "err", err)
	}
}

// gameMiddleware runs an independent game for each SSH session.
func gameMiddleware(ctx context.Context, reg *registry, gameOpts app.GameOptions, logger *log.Logger) wish.Middleware {
	return func(next ssh.Handler) ssh.Handler {
		return func(sess ssh.Session) {
			pty, winCh, ok := sess.Pty()
			if !ok {
				fmt.Fprintln(sess, "Error: PTY required. Please connect with: ssh -t user@host")
				return
			}

			sizeTracker := newSizeTracker(pty.Window.Width, pty.Window.Height)
			go func() {
				for win := range winCh {
					sizeTracker.update(win.Width, win.Height)
				}
			}()

			gs, err := app.NewSession(bufio.NewReader(sess), sess, app.SessionOptions{
				TermSizeFunc: sizeTracker.getSize,
				User:         sess.User(),
				Logger:       logger,
				Game:         gameOpts,
			})
			if err != nil {
				logger.Error("session setup failed", "user", sess.User(), "err", err)
				fmt.Fprintln(sess, "Error: could not start the game")
				return
			}
			reg.add(gs)
			defer reg.remove(gs.ID)

			sessCtx, cancel := context.WithCancel(ctx)
			defer cancel()
			go func() {
				select {
				case <-sess.Context().Done():
					cancel()
				case <-sessCtx.Done():
				}
			}()

			if err := gs.Run(sessCtx); err != nil {
				logger.Error("game error", "user", sess.User(), "err", err)
			}
			next(sess)
		}
	}
}

// registry tracks live sessions so a server shutdown can notify them.
type registry struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*app.Session
	empty    *sync.Cond
}

func newRegistry() *registry {
	r := &registry{sessions: make(map[uuid.UUID]*app.Session)}
	r.empty = sync.NewCond(&r.mu)
	return r
}

func (r *registry) add(s *app.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = s
}

func (r *registry) remove(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
	if len(r.sessions) == 0 {
		r.empty.Broadcast()
	}
}

func (r *registry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// shutdown notifies every session and waits up to grace for them to end.
// It reports whether all sessions ended in time.
func (r *registry) shutdown(grace time.Duration) bool {
	r.mu.Lock()
	for _, s := range r.sessions {
		s.Shutdown()
	}
	r.mu.Unlock()

	ended := make(chan struct{})
	go func() {
		r.mu.Lock()
		for len(r.sessions) > 0 {
			r.empty.Wait()
		}
		r.mu.Unlock()
		close(ended)
	}()

	select {
	case <-ended:
		return true
	case <-time.After(grace):
		return false
	}
}

// sizeTracker tracks terminal size from SSH window change events.
type sizeTracker struct {
	mu     sync.RWMutex
	width  int
	height int
}

func newSizeTracker(width, height int) *sizeTracker {
	return &sizeTracker{width: width, height: height}
}

func (s *sizeTracker) update(width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.width = width
	s.height = height
}

func (s *sizeTracker) getSize() (int, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.width, s.height, nil
}

var _ draw.TermSizeFunc = (*sizeTracker)(nil).getSize
