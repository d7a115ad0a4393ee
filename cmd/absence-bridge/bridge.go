package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os/exec"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"absence-desk/pkg/logging"
)

// Bridge accepts TCP connections and gives each one its own backend process,
// relaying newline-delimited messages between the socket and the process's
// stdin and stdout.
type Bridge struct {
	addr       string
	serverPath string
	serverArgs []string

	loggingManager *logging.LoggingManager
	logger         *logging.StructuredLogger

	listener net.Listener
	sessions map[string]*Session
	closed   bool
	mu       sync.Mutex
}

var errBridgeClosed = errors.New("bridge is shutting down")

// Session is one client connection and its backend process
type Session struct {
	id      string
	conn    net.Conn
	process *exec.Cmd
	stdin   io.WriteCloser
	stdout  io.ReadCloser
	stderr  io.ReadCloser
	logger  *logging.StructuredLogger

	mu          sync.Mutex
	interrupted bool
	closeOnce   sync.Once
}

// NewBridge creates a bridge that will listen on addr and spawn serverPath
// with serverArgs per connection
func NewBridge(addr, serverPath string, serverArgs []string, lm *logging.LoggingManager) *Bridge {
	return &Bridge{
		addr:           addr,
		serverPath:     serverPath,
		serverArgs:     serverArgs,
		loggingManager: lm,
		logger:         lm.GetLogger("bridge"),
		sessions:       make(map[string]*Session),
	}
}

// Listen binds the listening socket
func (b *Bridge) Listen() error {
	listener, err := net.Listen("tcp", b.addr)
	if err != nil {
		return fmt.Errorf("failed to start listener: %w", err)
	}

	b.mu.Lock()
	b.listener = listener
	b.mu.Unlock()

	b.logger.WithContext("addr", listener.Addr().String()).
		WithContext("server", b.serverPath).
		Info("Bridge listening")
	return nil
}

// Addr returns the bound address, or nil before Listen
func (b *Bridge) Addr() net.Addr {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.listener == nil {
		return nil
	}
	return b.listener.Addr()
}

// Serve accepts connections until ctx is cancelled or the listener is
// closed. Both are a clean stop.
func (b *Bridge) Serve(ctx context.Context) error {
	b.mu.Lock()
	listener := b.listener
	b.mu.Unlock()
	if listener == nil {
		return fmt.Errorf("bridge is not listening")
	}

	stop := context.AfterFunc(ctx, func() { _ = b.Shutdown() })
	defer stop()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			b.logger.WithError(err).Warn("Accept error")
			continue
		}

		go b.handleConnection(conn)
	}
}

// Shutdown closes the listener and every open session
func (b *Bridge) Shutdown() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed = true

	var err error
	if b.listener != nil {
		err = b.listener.Close()
		if errors.Is(err, net.ErrClosed) {
			err = nil
		}
	}

	for _, session := range b.sessions {
		session.interrupt()
	}
	return err
}

func (b *Bridge) handleConnection(conn net.Conn) {
	id := "session_" + uuid.NewString()
	logger := b.logger.WithContext("session", id).WithContext("remote", conn.RemoteAddr().String())
	logger.Info("New connection")

	session, err := b.createSession(id, conn, logger)
	if err == nil {
		// Register before the backend starts so Shutdown always sees it
		err = b.register(session)
	}
	if err == nil {
		err = session.start()
	}
	if err != nil {
		b.loggingManager.LogError("bridge", err, "Failed to create session", map[string]interface{}{"session": id})
		_ = conn.Close()
		if session != nil {
			session.releasePipes()
		}
		b.unregister(id)
		return
	}

	session.Handle()
	b.unregister(id)

	logger.Info("Session ended")
}

func (b *Bridge) register(s *Session) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return errBridgeClosed
	}
	b.sessions[s.id] = s
	return nil
}

func (b *Bridge) unregister(id string) {
	b.mu.Lock()
	delete(b.sessions, id)
	b.mu.Unlock()
}

func (b *Bridge) createSession(id string, conn net.Conn, logger *logging.StructuredLogger) (*Session, error) {
	cmd := exec.Command(b.serverPath, b.serverArgs...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stderr pipe: %w", err)
	}

	return &Session{
		id:      id,
		conn:    conn,
		process: cmd,
		stdin:   stdin,
		stdout:  stdout,
		stderr:  stderr,
		logger:  logger,
	}, nil
}

// start launches the backend unless the session was interrupted first
func (s *Session) start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.interrupted {
		return errBridgeClosed
	}
	if err := s.process.Start(); err != nil {
		return fmt.Errorf("failed to start backend: %w", err)
	}
	return nil
}

// releasePipes closes the parent ends of a backend that never started
func (s *Session) releasePipes() {
	_ = s.stdin.Close()
	_ = s.stdout.Close()
	_ = s.stderr.Close()
}

// Handle relays messages until either side hangs up, then reaps the process
func (s *Session) Handle() {
	var g errgroup.Group

	// Client -> backend. EOF from the client closes the backend's stdin,
	// which ends its event loop.
	g.Go(func() error {
		defer s.stdin.Close()
		return forwardLines(s.stdin, s.conn, func(n int) {
			s.logger.WithContext("bytes", n).Debug("Client -> backend")
		})
	})

	// Backend -> client. The backend exiting hangs up on the client.
	g.Go(func() error {
		defer s.conn.Close()
		return forwardLines(s.conn, s.stdout, func(n int) {
			s.logger.WithContext("bytes", n).Debug("Backend -> client")
		})
	})

	// Backend logs
	g.Go(func() error {
		scanner := bufio.NewScanner(s.stderr)
		for scanner.Scan() {
			s.logger.WithContext("line", scanner.Text()).Debug("Backend stderr")
		}
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, net.ErrClosed) {
		s.logger.WithError(err).Warn("Relay stopped")
	}
	s.close()
}

// interrupt hangs up on both sides so Handle returns
func (s *Session) interrupt() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.interrupted = true
	_ = s.conn.Close()
	if s.process.Process != nil {
		_ = s.process.Process.Kill()
	}
}

func (s *Session) close() {
	s.closeOnce.Do(func() {
		_ = s.conn.Close()
		if err := s.process.Wait(); err != nil {
			s.logger.WithError(err).Debug("Backend exited")
		}
	})
}

// forwardLines copies newline-delimited messages from src to dst
func forwardLines(dst io.Writer, src io.Reader, onLine func(n int)) error {
	reader := bufio.NewReader(src)
	for {
		line, err := reader.ReadBytes('\n')
		if len(line) > 0 {
			if _, werr := dst.Write(line); werr != nil {
				return werr
			}
			onLine(len(line))
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
