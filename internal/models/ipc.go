package models

import "encoding/json"

// JSONRPCVersion is the protocol version carried by every IPC message
const JSONRPCVersion = "2.0"

// Standard JSON-RPC 2.0 error codes used by the host
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

// IPCMessage represents a JSON-RPC 2.0 message exchanged with the host shell
type IPCMessage struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  interface{}     `json:"result,omitempty"`
	Error   *IPCError       `json:"error,omitempty"`
}

// MarshalJSON writes requests and notifications as-is. Responses always carry
// an id member, null when the request id could not be determined.
func (m IPCMessage) MarshalJSON() ([]byte, error) {
	if m.Method != "" {
		type message IPCMessage
		return json.Marshal(message(m))
	}

	return json.Marshal(struct {
		JSONRPC string      `json:"jsonrpc"`
		ID      interface{} `json:"id"`
		Result  interface{} `json:"result,omitempty"`
		Error   *IPCError   `json:"error,omitempty"`
	}{
		JSONRPC: m.JSONRPC,
		ID:      m.ID,
		Result:  m.Result,
		Error:   m.Error,
	})
}

// IsNotification reports whether the message expects no response
func (m *IPCMessage) IsNotification() bool {
	return m.ID == nil
}

// IPCError represents an error in an IPC response
type IPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// HostInfo identifies the backend to the host shell
type HostInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// InitializeResult is the result of the initialize method
type InitializeResult struct {
	Host     HostInfo `json:"host"`
	Commands []string `json:"commands"`
	Plugins  []string `json:"plugins,omitempty"`
}

// CommandsResult is the result of the host/commands method
type CommandsResult struct {
	Commands []string `json:"commands"`
}

// OpenURLParams are the parameters of the opener plugin's open_url command
type OpenURLParams struct {
	URL  string `json:"url"`
	With string `json:"with,omitempty"`
}

// OpenPathParams are the parameters of the opener plugin's open_path command
type OpenPathParams struct {
	Path string `json:"path"`
	With string `json:"with,omitempty"`
}

// AssetEvent represents a change to a bundled asset file
type AssetEvent struct {
	Type  string `json:"type"` // "create", "modify", "delete"
	Asset string `json:"asset,omitempty"`
	Path  string `json:"path"`
}
