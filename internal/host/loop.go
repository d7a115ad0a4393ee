package host

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"golang.org/x/sync/errgroup"

	"absence-desk/internal/models"
)

type inbound struct {
	line []byte
	err  error
}

// Run starts plugins and processes newline-delimited JSON-RPC messages from r,
// writing responses to w. It returns nil when r is exhausted and ctx.Err()
// when ctx is cancelled. In-flight invocations are always drained first.
func (h *Host) Run(ctx context.Context, r io.Reader, w io.Writer) error {
	h.writeMu.Lock()
	h.encoder = json.NewEncoder(w)
	h.writeMu.Unlock()

	startTime := time.Now()
	h.startPlugins(ctx)
	defer h.closePlugins()

	h.loggingManager.LogStartupSequence("event_loop_ready", map[string]interface{}{
		"commands": h.Commands(),
		"plugins":  h.Plugins(),
	}, time.Since(startTime), true)

	lines := make(chan inbound)
	readCtx, stopReading := context.WithCancel(ctx)
	defer stopReading()
	go readLines(readCtx, r, lines)

	var g errgroup.Group
	g.SetLimit(h.maxInFlight)

	var loopErr error
loop:
	for {
		select {
		case <-ctx.Done():
			loopErr = ctx.Err()
			break loop
		case in, ok := <-lines:
			if !ok {
				break loop
			}
			if in.err != nil {
				loopErr = fmt.Errorf("failed to read from host shell: %w", in.err)
				break loop
			}

			var message models.IPCMessage
			if err := json.Unmarshal(in.line, &message); err != nil {
				h.logger.WithError(err).Warn("Discarding malformed message")
				h.write(h.createErrorResponse(nil, models.CodeParseError, "Parse error"))
				continue
			}

			g.Go(func() error {
				if response := h.HandleMessage(ctx, &message); response != nil {
					h.write(response)
				}
				return nil
			})
		}
	}

	_ = g.Wait()
	return loopErr
}

// readLines splits r into non-empty lines and delivers them on out. It closes
// out on EOF.
func readLines(ctx context.Context, r io.Reader, out chan<- inbound) {
	defer close(out)

	reader := bufio.NewReader(r)
	for {
		line, err := reader.ReadBytes('\n')
		if trimmed := bytes.TrimSpace(line); len(trimmed) > 0 {
			select {
			case out <- inbound{line: trimmed}:
			case <-ctx.Done():
				return
			}
		}
		if err == io.EOF {
			return
		}
		if err != nil {
			select {
			case out <- inbound{err: err}:
			case <-ctx.Done():
			}
			return
		}
	}
}

// Emit sends a notification to the shell. It fails before Run has started.
func (h *Host) Emit(method string, params interface{}) error {
	raw, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("failed to encode %s notification: %w", method, err)
	}

	return h.writeMessage(&models.IPCMessage{
		JSONRPC: models.JSONRPCVersion,
		Method:  method,
		Params:  raw,
	})
}

func (h *Host) write(message *models.IPCMessage) {
	if err := h.writeMessage(message); err != nil {
		h.logger.WithError(err).WithContext("request_id", message.ID).Error("Error encoding response")
	}
}

func (h *Host) writeMessage(message *models.IPCMessage) error {
	h.writeMu.Lock()
	defer h.writeMu.Unlock()

	if h.encoder == nil {
		return fmt.Errorf("host is not running")
	}
	return h.encoder.Encode(message)
}

func (h *Host) startPlugins(ctx context.Context) {
	for _, p := range h.plugins {
		start := time.Now()
		if err := p.Start(ctx, h.app); err != nil {
			h.loggingManager.LogStartupSequence("plugin_start", map[string]interface{}{
				"plugin": p.Name(),
				"error":  err.Error(),
			}, time.Since(start), false)
			continue
		}
		h.loggingManager.LogStartupSequence("plugin_start", map[string]interface{}{
			"plugin": p.Name(),
		}, time.Since(start), true)
	}
}

func (h *Host) closePlugins() {
	for _, p := range h.plugins {
		start := time.Now()
		if err := p.Close(); err != nil {
			h.loggingManager.LogShutdownSequence("plugin_close", map[string]interface{}{
				"plugin": p.Name(),
				"error":  err.Error(),
			}, time.Since(start), false)
			continue
		}
		h.loggingManager.LogShutdownSequence("plugin_close", map[string]interface{}{
			"plugin": p.Name(),
		}, time.Since(start), true)
	}
}
