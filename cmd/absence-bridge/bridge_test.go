package main

import (
	"bufio"
	"context"
	"io"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"absence-desk/pkg/logging"
)

// TestMain lets the test binary stand in for the backend: with
// BRIDGE_HELPER=echo it copies stdin to stdout and exits on EOF.
func TestMain(m *testing.M) {
	if os.Getenv("BRIDGE_HELPER") == "echo" {
		_, _ = io.Copy(os.Stdout, os.Stdin)
		os.Exit(0)
	}
	os.Exit(m.Run())
}

func startBridge(t *testing.T, serverPath string) (*Bridge, context.CancelFunc, <-chan error) {
	t.Helper()

	bridge := NewBridge("127.0.0.1:0", serverPath, nil, logging.NewLoggingManagerWithWriter(io.Discard))
	require.NoError(t, bridge.Listen())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- bridge.Serve(ctx) }()

	t.Cleanup(cancel)
	return bridge, cancel, done
}

func TestBridgeRelaysMessages(t *testing.T) {
	t.Setenv("BRIDGE_HELPER", "echo")
	bridge, cancel, done := startBridge(t, os.Args[0])

	conn, err := net.Dial("tcp", bridge.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	reader := bufio.NewReader(conn)
	for _, msg := range []string{
		`{"jsonrpc":"2.0","id":1,"method":"read_employee_json"}`,
		`{"jsonrpc":"2.0","id":2,"method":"read_code_json"}`,
	} {
		_, err := conn.Write([]byte(msg + "\n"))
		require.NoError(t, err)

		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		assert.Equal(t, msg+"\n", line)
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("bridge did not stop")
	}

	// Shutdown hangs up on open sessions
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, err = reader.ReadString('\n')
	assert.Error(t, err)
}

func TestBridgeClosesConnectionWhenBackendFailsToStart(t *testing.T) {
	bridge, _, _ := startBridge(t, filepath.Join(t.TempDir(), "missing-backend"))

	conn, err := net.Dial("tcp", bridge.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, err = bufio.NewReader(conn).ReadString('\n')
	assert.ErrorIs(t, err, io.EOF)
}

func TestNoBackendStartsAfterShutdown(t *testing.T) {
	t.Setenv("BRIDGE_HELPER", "echo")
	bridge := NewBridge("127.0.0.1:0", os.Args[0], nil, logging.NewLoggingManagerWithWriter(io.Discard))
	require.NoError(t, bridge.Shutdown())

	server, client := net.Pipe()
	defer client.Close()

	done := make(chan struct{})
	go func() {
		bridge.handleConnection(server)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("connection was relayed after shutdown")
	}

	_, err := client.Read(make([]byte, 1))
	assert.ErrorIs(t, err, io.EOF)

	bridge.mu.Lock()
	assert.Empty(t, bridge.sessions)
	bridge.mu.Unlock()
}

func TestInterruptedSessionDoesNotStart(t *testing.T) {
	t.Setenv("BRIDGE_HELPER", "echo")
	bridge := NewBridge("127.0.0.1:0", os.Args[0], nil, logging.NewLoggingManagerWithWriter(io.Discard))

	server, client := net.Pipe()
	defer client.Close()

	session, err := bridge.createSession("session_test", server, bridge.logger)
	require.NoError(t, err)
	require.NoError(t, bridge.register(session))

	require.NoError(t, bridge.Shutdown())

	assert.ErrorIs(t, session.start(), errBridgeClosed)
	assert.Nil(t, session.process.Process, "backend must not be spawned")
	session.releasePipes()
}

func TestServeRequiresListen(t *testing.T) {
	bridge := NewBridge("127.0.0.1:0", "unused", nil, logging.NewLoggingManagerWithWriter(io.Discard))
	assert.Nil(t, bridge.Addr())
	assert.Error(t, bridge.Serve(context.Background()))
}
