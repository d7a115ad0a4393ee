package host

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"absence-desk/internal/models"
	"absence-desk/pkg/config"
	"absence-desk/pkg/errors"
)

// HandleMessage processes a single message and returns the response, or nil
// for notifications.
func (h *Host) HandleMessage(ctx context.Context, message *models.IPCMessage) (response *models.IPCMessage) {
	startTime := time.Now()

	defer func() {
		success := response == nil || response.Error == nil
		var errorMsg string
		if !success {
			errorMsg = response.Error.Message
		}
		h.loggingManager.LogInvoke(message.Method, message.ID, time.Since(startTime), success, errorMsg)
	}()

	defer func() {
		if r := recover(); r != nil {
			structuredErr := errors.NewSystemError(errors.ErrCodeUnexpectedPanic,
				"command panicked", fmt.Errorf("%v", r)).
				WithContext("method", message.Method)
			h.logger.WithError(structuredErr).Error("Recovered from command panic")
			response = h.createStructuredErrorResponse(message.ID, structuredErr)
		}
	}()

	if message.JSONRPC != models.JSONRPCVersion {
		return h.createErrorResponse(message.ID, models.CodeInvalidRequest, "Invalid JSON-RPC version")
	}

	switch message.Method {
	case config.MethodInitialize:
		response = h.handleInitialize(message)
	case config.MethodInitialized:
		h.initialized.Store(true)
		h.logger.WithContext("request_id", message.ID).Info("Host shell initialized")
		return nil
	case config.MethodHostCommands:
		response = h.createResultResponse(message.ID, models.CommandsResult{Commands: h.Commands()})
	default:
		response = h.handleInvoke(ctx, message)
	}

	if message.IsNotification() {
		return nil
	}
	return response
}

func (h *Host) handleInitialize(message *models.IPCMessage) *models.IPCMessage {
	return h.createResultResponse(message.ID, models.InitializeResult{
		Host:     h.info,
		Commands: h.Commands(),
		Plugins:  h.Plugins(),
	})
}

func (h *Host) handleInvoke(ctx context.Context, message *models.IPCMessage) *models.IPCMessage {
	fn, ok := h.commands[message.Method]
	if !ok {
		return h.createErrorResponse(message.ID, models.CodeMethodNotFound, "Method not found")
	}

	result, err := fn(ctx, h.app, message.Params)
	if err != nil {
		if structuredErr, ok := errors.AsStructured(err); ok {
			return h.createStructuredErrorResponse(message.ID, structuredErr)
		}
		return h.createErrorResponse(message.ID, models.CodeInternalError, err.Error())
	}
	if result == nil {
		result = json.RawMessage("null")
	}

	return h.createResultResponse(message.ID, result)
}

func (h *Host) createResultResponse(id interface{}, result interface{}) *models.IPCMessage {
	return &models.IPCMessage{
		JSONRPC: models.JSONRPCVersion,
		ID:      id,
		Result:  result,
	}
}

func (h *Host) createErrorResponse(id interface{}, code int, message string) *models.IPCMessage {
	return &models.IPCMessage{
		JSONRPC: models.JSONRPCVersion,
		ID:      id,
		Error: &models.IPCError{
			Code:    code,
			Message: message,
		},
	}
}

func (h *Host) createStructuredErrorResponse(id interface{}, structuredErr *errors.StructuredError) *models.IPCMessage {
	return &models.IPCMessage{
		JSONRPC: models.JSONRPCVersion,
		ID:      id,
		Error:   structuredErr.ToIPCError(),
	}
}
