// Package protocol defines the WebSocket message types and structures used for
// communication between the client and server. All messages are serialized as
// JSON and follow a consistent envelope format with a type discriminator.
package protocol

import (
	"encoding/json"
	"fmt"
)

// ---------------------------------------------------------------------------
// Message type constants
// ---------------------------------------------------------------------------

// Client -> Server message types.
const (
	TypeJoinQueue     = "join-queue"
	TypeMessage       = "message" // also used server -> client for relayed text
	TypeTyping        = "typing"
	TypeStoppedTyping = "stopped-typing"
	TypeNext          = "next"
	TypeReport        = "report"
	TypeLeaveChat     = "disconnect-chat"
	TypePing          = "ping"
)

// Server -> Client message types.
const (
	TypeMatched              = "matched"
	TypePartnerTyping        = "partner-typing"
	TypePartnerStoppedTyping = "partner-stopped-typing"
	TypePartnerLeft          = "partner-left"
	TypePartnerDisconnected  = "partner-disconnected"
	TypeOnlineCount          = "online-count"
	TypeError                = "error"
	TypePong                 = "pong"
)

// Error codes carried in ErrorMsg.Code.
const (
	CodeInvalidUsername = "invalid_username"
	CodeNotMatched      = "not_matched"
	CodeRateLimited     = "rate_limited"
	CodeMessageTooLong  = "message_too_long"
	CodeParseError      = "parse_error"
	CodeUnsupportedType = "unsupported_type"
)

// ---------------------------------------------------------------------------
// Envelope — used for initial JSON parsing to extract the type discriminator.
// ---------------------------------------------------------------------------

// Envelope holds the message type and the raw JSON payload for deferred
// parsing into a concrete struct.
type Envelope struct {
	Type string          `json:"type"`
	Raw  json.RawMessage `json:"-"`
}

// UnmarshalJSON implements the json.Unmarshaler interface. It captures the
// full raw bytes and extracts only the "type" field so that the rest of the
// payload can be decoded later into the appropriate concrete struct.
func (e *Envelope) UnmarshalJSON(data []byte) error {
	// Capture the full raw message for deferred parsing.
	e.Raw = make(json.RawMessage, len(data))
	copy(e.Raw, data)

	// Extract only the type field.
	var partial struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &partial); err != nil {
		return fmt.Errorf("protocol: failed to unmarshal envelope: %w", err)
	}
	if partial.Type == "" {
		return fmt.Errorf("protocol: missing or empty \"type\" field")
	}
	e.Type = partial.Type
	return nil
}

// ---------------------------------------------------------------------------
// Client -> Server message structs
// ---------------------------------------------------------------------------

// JoinQueueMsg is sent by the client to register a display name and enter the
// waiting queue.
type JoinQueueMsg struct {
	Type     string `json:"type"`
	Username string `json:"username"`
}

// ChatMsg is a text message sent by the client to its current partner.
type ChatMsg struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// TypingMsg indicates the client started typing.
type TypingMsg struct {
	Type string `json:"type"`
}

// StoppedTypingMsg indicates the client stopped typing.
type StoppedTypingMsg struct {
	Type string `json:"type"`
}

// NextMsg is sent by the client to skip to a new partner.
type NextMsg struct {
	Type string `json:"type"`
}

// ReportMsg is sent by the client to report the current chat partner.
type ReportMsg struct {
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

// LeaveChatMsg is sent by the client to leave the current chat without
// re-entering the queue.
type LeaveChatMsg struct {
	Type string `json:"type"`
}

// PingMsg is a client-initiated keepalive ping.
type PingMsg struct {
	Type string `json:"type"`
}

// ---------------------------------------------------------------------------
// Server -> Client message structs
// ---------------------------------------------------------------------------

// MatchedMsg is sent to both users when a pairing is committed.
type MatchedMsg struct {
	Type            string `json:"type"`
	PartnerUsername string `json:"partnerUsername"`
}

// ServerChatMsg is a text message relayed from the partner.
type ServerChatMsg struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// PartnerTypingMsg relays the partner's typing indicator.
type PartnerTypingMsg struct {
	Type string `json:"type"`
}

// PartnerStoppedTypingMsg relays the end of the partner's typing indicator.
type PartnerStoppedTypingMsg struct {
	Type string `json:"type"`
}

// PartnerLeftMsg is sent when the partner explicitly left the chat.
type PartnerLeftMsg struct {
	Type string `json:"type"`
}

// PartnerDisconnectedMsg is sent when the partner's connection dropped.
// Distinct from PartnerLeftMsg so clients can word the two cases differently.
type PartnerDisconnectedMsg struct {
	Type string `json:"type"`
}

// OnlineCountMsg carries the aggregate user counts broadcast to all clients.
type OnlineCountMsg struct {
	Type     string `json:"type"`
	Online   int    `json:"online"`
	Waiting  int    `json:"waiting"`
	Chatting int    `json:"chatting"`
}

// ErrorMsg is sent by the server to communicate an error condition.
type ErrorMsg struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// PongMsg is the server's response to a client ping.
type PongMsg struct {
	Type string `json:"type"`
}

// ---------------------------------------------------------------------------
// Helper functions
// ---------------------------------------------------------------------------

// ParseClientMessage parses raw WebSocket bytes into a typed client message.
// It returns the message type string, the decoded struct, and any error
// encountered during parsing. An error is returned for unknown or
// server-only message types.
func ParseClientMessage(data []byte) (string, interface{}, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return "", nil, fmt.Errorf("protocol: failed to parse message: %w", err)
	}

	var (
		msg interface{}
		err error
	)

	switch env.Type {
	case TypeJoinQueue:
		var m JoinQueueMsg
		err = json.Unmarshal(env.Raw, &m)
		msg = m
	case TypeMessage:
		var m ChatMsg
		err = json.Unmarshal(env.Raw, &m)
		msg = m
	case TypeTyping:
		var m TypingMsg
		err = json.Unmarshal(env.Raw, &m)
		msg = m
	case TypeStoppedTyping:
		var m StoppedTypingMsg
		err = json.Unmarshal(env.Raw, &m)
		msg = m
	case TypeNext:
		var m NextMsg
		err = json.Unmarshal(env.Raw, &m)
		msg = m
	case TypeReport:
		var m ReportMsg
		err = json.Unmarshal(env.Raw, &m)
		msg = m
	case TypeLeaveChat:
		var m LeaveChatMsg
		err = json.Unmarshal(env.Raw, &m)
		msg = m
	case TypePing:
		var m PingMsg
		err = json.Unmarshal(env.Raw, &m)
		msg = m
	default:
		return env.Type, nil, fmt.Errorf("protocol: unknown client message type: %q", env.Type)
	}

	if err != nil {
		return env.Type, nil, fmt.Errorf("protocol: failed to decode %q payload: %w", env.Type, err)
	}
	return env.Type, msg, nil
}

// NewServerMessage creates a JSON-encoded byte slice for a server message.
// The msgType is injected into the payload under the "type" key. The payload
// should be one of the Server*Msg structs; this function marshals it to JSON,
// injects the type field, and returns the final bytes.
func NewServerMessage(msgType string, payload interface{}) ([]byte, error) {
	// Marshal the payload struct to a generic map so we can ensure the "type"
	// field is present and correct.
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("protocol: failed to marshal payload: %w", err)
	}

	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("protocol: failed to unmarshal payload into map: %w", err)
	}

	m["type"] = msgType

	out, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("protocol: failed to marshal server message: %w", err)
	}
	return out, nil
}
