package main

import (
	"bytes"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"
)

// runMainIfRequested turns the test binary into the backend when the parent
// test asks for it. Arguments after the test flags are passed through.
func runMainIfRequested() bool {
	if os.Getenv("TEST_MAIN") != "1" {
		return false
	}
	os.Args = append([]string{os.Args[0]}, strings.Fields(os.Getenv("TEST_MAIN_ARGS"))...)
	main()
	return true
}

func subprocess(t *testing.T, testName string, args ...string) *exec.Cmd {
	t.Helper()
	cmd := exec.Command(os.Args[0], "-test.run="+testName)
	cmd.Env = append(os.Environ(), "TEST_MAIN=1", "TEST_MAIN_ARGS="+strings.Join(args, " "))
	return cmd
}

func setupResourceDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "assets"), 0o755); err != nil {
		t.Fatalf("Failed to create assets dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "assets", "employees.json"), []byte(`[{"id":1,"name":"A"}]`), 0o644); err != nil {
		t.Fatalf("Failed to write employees: %v", err)
	}
	return dir
}

func TestMainServesUntilStdinCloses(t *testing.T) {
	if runMainIfRequested() {
		return
	}

	dir := setupResourceDir(t)
	cmd := subprocess(t, "TestMainServesUntilStdinCloses", "serve", "--resource-dir", dir)
	cmd.Stdin = strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"read_employee_json"}` + "\n" +
		`{"jsonrpc":"2.0","id":2,"method":"read_code_json"}` + "\n")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		t.Fatalf("Process exited with error: %v\nstderr: %s", err, stderr.String())
	}

	results := map[float64]map[string]interface{}{}
	for _, line := range strings.Split(strings.TrimSpace(stdout.String()), "\n") {
		if !strings.HasPrefix(line, "{") {
			// The test runner prints PASS after main returns
			continue
		}
		var msg map[string]interface{}
		if err := json.Unmarshal([]byte(line), &msg); err != nil {
			t.Fatalf("Invalid message on stdout: %q", line)
		}
		if id, ok := msg["id"].(float64); ok {
			results[id] = msg
		}
	}

	if got := results[1]["result"]; got != `[{"id":1,"name":"A"}]` {
		t.Errorf("Expected roster verbatim, got %v", got)
	}
	if results[2]["error"] == nil {
		t.Error("Expected missing codes file to produce an error response")
	}
}

func TestMainSignalHandling(t *testing.T) {
	if runMainIfRequested() {
		return
	}

	for _, sig := range []syscall.Signal{syscall.SIGTERM, syscall.SIGINT} {
		t.Run(sig.String(), func(t *testing.T) {
			cmd := subprocess(t, "TestMainSignalHandling", "serve", "--resource-dir", t.TempDir())
			stdin, err := cmd.StdinPipe()
			if err != nil {
				t.Fatalf("Failed to open stdin: %v", err)
			}
			defer stdin.Close()

			if err := cmd.Start(); err != nil {
				t.Fatalf("Failed to start main process: %v", err)
			}

			// Give it a moment to start
			time.Sleep(200 * time.Millisecond)

			if err := cmd.Process.Signal(sig); err != nil {
				t.Errorf("Failed to send %v: %v", sig, err)
			}

			done := make(chan error, 1)
			go func() {
				done <- cmd.Wait()
			}()

			select {
			case err := <-done:
				if err != nil {
					if exitError, ok := err.(*exec.ExitError); ok && !exitError.Exited() {
						// Terminated before the handler was installed
						return
					}
					t.Errorf("Process exited with error: %v", err)
				}
			case <-time.After(5 * time.Second):
				_ = cmd.Process.Kill()
				t.Error("Process did not exit within timeout")
			}
		})
	}
}

func TestMainExitsNonZeroOnBadConfig(t *testing.T) {
	if runMainIfRequested() {
		return
	}

	cmd := subprocess(t, "TestMainExitsNonZeroOnBadConfig", "serve", "--max-in-flight", "0")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	exitError, ok := err.(*exec.ExitError)
	if !ok || exitError.ExitCode() != 1 {
		t.Fatalf("Expected exit code 1, got %v", err)
	}
	if !strings.Contains(stderr.String(), "max_in_flight") {
		t.Errorf("Expected diagnostic on stderr, got %q", stderr.String())
	}
}
